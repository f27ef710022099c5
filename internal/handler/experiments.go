package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/seating-planner/backend/internal/charles"
	"github.com/sysu-ecnc-dev/seating-planner/backend/internal/domain"
	"github.com/sysu-ecnc-dev/seating-planner/backend/internal/gridsearch"
)

func (h *Handler) defaultSettings() gridsearch.Settings {
	return gridsearch.Settings{
		PopSize:       h.config.GA.PopSize,
		NrTables:      h.config.GA.NrTables,
		Generations:   h.config.GA.Generations,
		CrossoverProb: h.config.GA.CrossoverProb,
		MutationProb:  h.config.GA.MutationProb,
		EliteSize:     h.config.GA.EliteSize,
		Runs:          h.config.GridSearch.Runs,
		Workers:       h.config.GridSearch.Workers,
		BaseSeed:      h.config.GridSearch.BaseSeed,
	}
}

// CreateExperiment 创建实验并投递到实验队列，由 worker 异步执行
func (h *Handler) CreateExperiment(w http.ResponseWriter, r *http.Request) {
	req := struct {
		Name                string                `json:"name" validate:"required,max=100"`
		Kind                domain.ExperimentKind `json:"kind" validate:"required,oneof=grid_search selection_study"`
		RelationshipSheetID int64                 `json:"relationshipSheetID" validate:"required"`
		Plan                gridsearch.Plan       `json:"plan"`
		Pairs               int                   `json:"pairs" validate:"omitempty,min=1,max=12"` // 仅用于 selection_study
		Settings            gridsearch.Settings   `json:"settings"`
	}{
		Plan:     gridsearch.DefaultPlan(),
		Pairs:    8,
		Settings: h.defaultSettings(),
	}

	if err := h.decodeAndValidate(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	sheet, err := h.repository.GetRelationshipSheetByID(req.RelationshipSheetID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "关系表不存在")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	// 宾客数量由关系表决定，workers 由服务端决定
	req.Settings.NrGuests = sheet.GuestCount()
	req.Settings.Workers = h.config.GridSearch.Workers
	if err := req.Settings.Validate(); err != nil {
		h.errorResponse(w, r, "实验参数无效: "+err.Error())
		return
	}

	var combinations []gridsearch.Combination
	switch req.Kind {
	case domain.ExperimentKindSelectionStudy:
		combinations, err = gridsearch.SelectionStudy(req.Pairs, charles.NewRand(req.Settings.BaseSeed))
	default:
		combinations, err = req.Plan.Combinations()
	}
	if err != nil {
		h.errorResponse(w, r, "实验组合无效: "+err.Error())
		return
	}

	createdBy, err := currentUserID(r)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	experiment := &domain.Experiment{
		JobID:               uuid.NewString(),
		Name:                req.Name,
		Kind:                req.Kind,
		RelationshipSheetID: sheet.ID,
		Settings:            req.Settings,
		Combinations:        combinations,
		CreatedBy:           createdBy,
	}
	if err := h.repository.CreateExperiment(experiment); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	job := domain.ExperimentJob{JobID: experiment.JobID, ExperimentID: experiment.ID}
	if err := h.publish(h.config.RabbitMQ.ExperimentQueue, job); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "实验已加入队列", experiment)
}

func (h *Handler) GetAllExperiments(w http.ResponseWriter, r *http.Request) {
	experiments, err := h.repository.GetAllExperiments()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取实验列表成功", experiments)
}

func (h *Handler) GetExperiment(w http.ResponseWriter, r *http.Request) {
	experiment := r.Context().Value(ExperimentCtx).(*domain.Experiment)
	h.successResponse(w, r, "获取实验成功", experiment)
}

// GetExperimentProgress 从 redis 读取 worker 写入的进度；排队中的实验进度为 0
func (h *Handler) GetExperimentProgress(w http.ResponseWriter, r *http.Request) {
	experiment := r.Context().Value(ExperimentCtx).(*domain.Experiment)

	total := len(experiment.Combinations) * experiment.Settings.Runs
	progress := domain.ExperimentProgress{Total: total}

	switch experiment.Status {
	case domain.ExperimentStatusFinished:
		progress.Done = total
	case domain.ExperimentStatusRunning:
		ctx, cancel := context.WithTimeout(r.Context(), time.Duration(h.config.Redis.OperationExpiration)*time.Second)
		defer cancel()

		data, err := h.redisClient.Get(ctx, domain.ExperimentProgressKey(experiment.JobID)).Bytes()
		if err != nil && !errors.Is(err, redis.Nil) {
			h.internalServerError(w, r, err)
			return
		}
		if err == nil {
			if err := json.Unmarshal(data, &progress); err != nil {
				h.internalServerError(w, r, err)
				return
			}
		}
	}

	h.successResponse(w, r, "获取实验进度成功", progress)
}

func (h *Handler) experimentResult(w http.ResponseWriter, r *http.Request) (*domain.ExperimentResult, bool) {
	experiment := r.Context().Value(ExperimentCtx).(*domain.Experiment)

	if experiment.Status != domain.ExperimentStatusFinished {
		h.errorResponse(w, r, "实验尚未完成")
		return nil, false
	}

	result, err := h.repository.GetExperimentResult(experiment.ID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "实验结果不存在")
		default:
			h.internalServerError(w, r, err)
		}
		return nil, false
	}

	return result, true
}

// GetExperimentSummary 按最后一代平均最优适应度给组合排名
func (h *Handler) GetExperimentSummary(w http.ResponseWriter, r *http.Request) {
	result, ok := h.experimentResult(w, r)
	if !ok {
		return
	}

	result.Summaries = gridsearch.Rank(result.Results().Summarize())
	result.Columns = nil
	h.successResponse(w, r, "获取实验汇总成功", result)
}

// ExportExperiment 导出实验结果，format 可以是 csv、medians、xlsx 或 png
func (h *Handler) ExportExperiment(w http.ResponseWriter, r *http.Request) {
	experiment := r.Context().Value(ExperimentCtx).(*domain.Experiment)

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}

	var contentType string
	var write func(w http.ResponseWriter, results *gridsearch.Results) error
	switch format {
	case "csv":
		contentType = "text/csv; charset=utf-8"
		write = func(w http.ResponseWriter, results *gridsearch.Results) error { return gridsearch.WriteCSV(w, results) }
	case "medians":
		contentType = "text/csv; charset=utf-8"
		write = func(w http.ResponseWriter, results *gridsearch.Results) error {
			return gridsearch.WriteMediansCSV(w, results)
		}
		format = "csv"
	case "xlsx":
		contentType = xlsxContentType
		write = func(w http.ResponseWriter, results *gridsearch.Results) error { return gridsearch.WriteXLSX(w, results) }
	case "png":
		contentType = "image/png"
		write = func(w http.ResponseWriter, results *gridsearch.Results) error {
			return gridsearch.WriteConvergencePNG(w, results, experiment.Name, 0)
		}
	default:
		h.errorResponse(w, r, "不支持的导出格式")
		return
	}

	result, ok := h.experimentResult(w, r)
	if !ok {
		return
	}

	setAttachment(w, contentType, experiment.Name+"."+format)
	if err := write(w, result.Results()); err != nil {
		// 响应头已经写出，只能记录错误
		h.logInternalServerError(r, err)
	}
}
