package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sysu-ecnc-dev/seating-planner/backend/internal/charles"
	"github.com/sysu-ecnc-dev/seating-planner/backend/internal/domain"
	"github.com/sysu-ecnc-dev/seating-planner/backend/internal/relationships"
	"github.com/sysu-ecnc-dev/seating-planner/backend/internal/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (h *Handler) insertRelationshipSheet(w http.ResponseWriter, r *http.Request, sheet *domain.RelationshipSheet) {
	createdBy, err := currentUserID(r)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	sheet.CreatedBy = createdBy

	if err := h.repository.CreateRelationshipSheet(sheet); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr) && pgErr.ConstraintName == "relationship_sheets_name_key":
			h.errorResponse(w, r, "关系表名称已存在")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "创建关系表成功", sheet)
}

// CreateRelationshipSheet 上传 xlsx 格式的关系表（multipart 表单，字段 file、name、description）
func (h *Handler) CreateRelationshipSheet(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.config.Server.MaxUploadSize)
	if err := r.ParseMultipartForm(h.config.Server.MaxUploadSize); err != nil {
		h.errorResponse(w, r, "无法解析上传的表单")
		return
	}

	var req struct {
		Name        string `validate:"required,max=100"`
		Description string `validate:"max=1000"`
	}
	req.Name = r.FormValue("name")
	req.Description = r.FormValue("description")
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		h.errorResponse(w, r, "请上传关系表文件")
		return
	}
	defer file.Close()

	parsed, err := relationships.OpenReader(file)
	if err != nil {
		switch {
		case errors.Is(err, relationships.ErrMalformedSheet):
			h.errorResponse(w, r, "关系表格式错误")
		case errors.Is(err, charles.ErrAsymmetricMatrix):
			h.errorResponse(w, r, "关系矩阵不对称")
		case errors.Is(err, charles.ErrInvalidConfiguration):
			h.errorResponse(w, r, "关系矩阵无效")
		default:
			h.errorResponse(w, r, "无法读取关系表文件")
		}
		return
	}

	h.insertRelationshipSheet(w, r, &domain.RelationshipSheet{
		Name:        req.Name,
		Description: req.Description,
		Guests:      parsed.Guests,
		Matrix:      parsed.Matrix.Rows(),
	})
}

// GenerateRelationshipSheet 随机生成一张关系表，用于试验参数
func (h *Handler) GenerateRelationshipSheet(w http.ResponseWriter, r *http.Request) {
	var req struct {
		NrGuests    int `json:"nrGuests" validate:"required,min=2,max=1000"`
		MaxAffinity int `json:"maxAffinity" validate:"required,min=1"`
	}

	if err := h.decodeAndValidate(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	h.insertRelationshipSheet(w, r, utils.GenerateRandomRelationshipSheet(req.NrGuests, req.MaxAffinity, 0))
}

func (h *Handler) GetAllRelationshipSheets(w http.ResponseWriter, r *http.Request) {
	sheets, err := h.repository.GetAllRelationshipSheets()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取关系表列表成功", sheets)
}

func (h *Handler) GetRelationshipSheet(w http.ResponseWriter, r *http.Request) {
	sheet := r.Context().Value(RelationshipSheetCtx).(*domain.RelationshipSheet)
	h.successResponse(w, r, "获取关系表成功", sheet)
}

// ExportRelationshipSheet 以上传时的 xlsx 格式下载关系表
func (h *Handler) ExportRelationshipSheet(w http.ResponseWriter, r *http.Request) {
	sheet := r.Context().Value(RelationshipSheetCtx).(*domain.RelationshipSheet)

	rel, err := utils.ValidateRelationshipSheet(sheet)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	setAttachment(w, xlsxContentType, sheet.Name+".xlsx")
	if err := relationships.Write(w, sheet.Guests, rel); err != nil {
		h.logInternalServerError(r, err)
	}
}

func (h *Handler) DeleteRelationshipSheet(w http.ResponseWriter, r *http.Request) {
	sheet := r.Context().Value(RelationshipSheetCtx).(*domain.RelationshipSheet)

	if err := h.repository.DeleteRelationshipSheet(sheet.ID); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr) && pgErr.ConstraintName == "experiments_relationship_sheet_id_fkey":
			h.errorResponse(w, r, "该关系表已被实验使用，无法删除")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "删除关系表成功", nil)
}

func setAttachment(w http.ResponseWriter, contentType string, filename string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename*=UTF-8''%s", url.PathEscape(filename)))
}
