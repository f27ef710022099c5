package seed

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/sysu-ecnc-dev/seating-planner/backend/internal/charles"
	"github.com/sysu-ecnc-dev/seating-planner/backend/internal/domain"
	"github.com/sysu-ecnc-dev/seating-planner/backend/internal/relationships"
	"github.com/sysu-ecnc-dev/seating-planner/backend/internal/repository"
	"github.com/sysu-ecnc-dev/seating-planner/backend/internal/utils"
)

// ImportWorkbook 读取 xlsx 关系表并插入数据库，name 为空时使用文件名
func ImportWorkbook(r *repository.Repository, path string, name string, owner string) (*domain.RelationshipSheet, error) {
	user, err := r.GetUserByUsername(owner)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("用户 %s 不存在", owner)
		}
		return nil, err
	}

	parsed, err := relationships.OpenFile(path)
	if err != nil {
		return nil, err
	}

	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	sheet := &domain.RelationshipSheet{
		Name:        name,
		Description: "从 " + filepath.Base(path) + " 导入",
		Guests:      parsed.Guests,
		Matrix:      parsed.Matrix.Rows(),
		CreatedBy:   user.ID,
	}
	if err := r.CreateRelationshipSheet(sheet); err != nil {
		return nil, err
	}

	slog.Info("导入关系表成功", "id", sheet.ID, "name", sheet.Name, "guests", sheet.GuestCount())
	return sheet, nil
}

// WriteWorkbooks 在 dir 下生成 n 个随机关系表，返回生成的文件路径
func WriteWorkbooks(dir string, n int, guests int, maxAffinity int) ([]string, error) {
	paths := make([]string, 0, n)
	for i := 0; i < n; i++ {
		sheet := utils.GenerateRandomRelationshipSheet(guests, maxAffinity, 0)

		rel, err := charles.NewRelationshipMatrix(sheet.Matrix)
		if err != nil {
			return paths, err
		}

		path := filepath.Join(dir, fmt.Sprintf("relationships_%d_%02d.xlsx", guests, i+1))
		if err := relationships.SaveAs(path, sheet.Guests, rel); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}

	return paths, nil
}

// InsertRandomSheets 以 owner 的身份插入 n 个随机关系表，返回成功插入的数量
func InsertRandomSheets(r *repository.Repository, owner string, n int, guests int, maxAffinity int) (int, error) {
	user, err := r.GetUserByUsername(owner)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("用户 %s 不存在", owner)
		}
		return 0, err
	}

	cnt := 0
	for i := 0; i < n; i++ {
		sheet := utils.GenerateRandomRelationshipSheet(guests, maxAffinity, user.ID)
		if err := r.CreateRelationshipSheet(sheet); err != nil {
			slog.Error("无法插入关系表", "error", err)
			continue
		}
		cnt++
	}

	return cnt, nil
}
