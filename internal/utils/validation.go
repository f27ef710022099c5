package utils

import (
	"errors"
	"fmt"
	"math"

	"github.com/sysu-ecnc-dev/seating-planner/backend/internal/charles"
	"github.com/sysu-ecnc-dev/seating-planner/backend/internal/domain"
)

// ValidateRelationshipSheet 检查关系表的宾客名与矩阵是否匹配，矩阵本身的检查交给 charles
func ValidateRelationshipSheet(sheet *domain.RelationshipSheet) (*charles.RelationshipMatrix, error) {
	if len(sheet.Matrix) == 0 {
		return nil, errors.New("关系表中没有任何宾客")
	}
	if len(sheet.Guests) != 0 && len(sheet.Guests) != len(sheet.Matrix) {
		return nil, fmt.Errorf("宾客数量 %d 与关系矩阵的行数 %d 不一致", len(sheet.Guests), len(sheet.Matrix))
	}

	rel, err := charles.NewRelationshipMatrix(sheet.Matrix)
	if err != nil {
		switch {
		case errors.Is(err, charles.ErrAsymmetricMatrix):
			return nil, errors.New("关系矩阵不对称")
		default:
			return nil, fmt.Errorf("关系矩阵无效: %w", err)
		}
	}

	return rel, nil
}

// ValidateSeatingPlan 检查座位安排是否是宾客的一个等大小划分，并且记录的适应度与关系矩阵一致
func ValidateSeatingPlan(plan *domain.SeatingPlan, matrix [][]float64) error {
	n := len(matrix)
	if len(plan.Tables) == 0 {
		return errors.New("座位安排中没有任何桌子")
	}
	if plan.Parameters.NrTables != 0 && len(plan.Tables) != plan.Parameters.NrTables {
		return fmt.Errorf("桌子数量应为 %d，实际为 %d", plan.Parameters.NrTables, len(plan.Tables))
	}
	if n%len(plan.Tables) != 0 {
		return fmt.Errorf("%d 位宾客无法平均分到 %d 张桌子", n, len(plan.Tables))
	}
	size := n / len(plan.Tables)

	seated := make([]bool, n+1)
	total := 0.0
	for i, table := range plan.Tables {
		if len(table.Guests) != size {
			return fmt.Errorf("第 %d 张桌子应坐 %d 人，实际为 %d 人", i+1, size, len(table.Guests))
		}

		fitness := 0.0
		for j, guest := range table.Guests {
			if guest < 1 || guest > n {
				return fmt.Errorf("第 %d 张桌子中的宾客 %d 不存在", i+1, guest)
			}
			if seated[guest] {
				return fmt.Errorf("宾客 %d 被安排了多次", guest)
			}
			seated[guest] = true

			for _, other := range table.Guests[j+1:] {
				if other >= 1 && other <= n {
					fitness += matrix[guest-1][other-1]
				}
			}
		}

		if !almostEqual(fitness, table.Fitness) {
			return fmt.Errorf("第 %d 张桌子的适应度应为 %g，记录为 %g", i+1, fitness, table.Fitness)
		}
		total += fitness
	}

	if !almostEqual(total, plan.Fitness) {
		return fmt.Errorf("总适应度应为 %g，记录为 %g", total, plan.Fitness)
	}

	return nil
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) <= 1e-9*math.Max(1, math.Abs(a))
}
