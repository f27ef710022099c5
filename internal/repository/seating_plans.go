package repository

import (
	"database/sql"

	"github.com/sysu-ecnc-dev/seating-planner/backend/internal/domain"
)

const seatingPlanColumns = `id, relationship_sheet_id, parameters, tables, fitness, fitness_history, created_by, created_at, version`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSeatingPlan(row rowScanner) (*domain.SeatingPlan, error) {
	plan := &domain.SeatingPlan{}
	var parameters, tables, history []byte

	dst := []any{&plan.ID, &plan.RelationshipSheetID, &parameters, &tables, &plan.Fitness, &history, &plan.CreatedBy, &plan.CreatedAt, &plan.Version}
	if err := row.Scan(dst...); err != nil {
		return nil, err
	}

	if err := fromJSONB(parameters, &plan.Parameters); err != nil {
		return nil, err
	}
	if err := fromJSONB(tables, &plan.Tables); err != nil {
		return nil, err
	}
	if err := fromJSONB(history, &plan.FitnessHistory); err != nil {
		return nil, err
	}

	return plan, nil
}

func (r *Repository) CreateSeatingPlan(plan *domain.SeatingPlan) error {
	parameters, err := toJSONB(plan.Parameters)
	if err != nil {
		return err
	}
	tables, err := toJSONB(plan.Tables)
	if err != nil {
		return err
	}
	history, err := toJSONB(plan.FitnessHistory)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO seating_plans (relationship_sheet_id, parameters, tables, fitness, fitness_history, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, version
	`

	ctx, cancel := r.queryContext()
	defer cancel()

	args := []any{plan.RelationshipSheetID, parameters, tables, plan.Fitness, history, plan.CreatedBy}
	return r.dbpool.QueryRowContext(ctx, query, args...).Scan(&plan.ID, &plan.CreatedAt, &plan.Version)
}

func (r *Repository) GetSeatingPlanByID(id int64) (*domain.SeatingPlan, error) {
	ctx, cancel := r.queryContext()
	defer cancel()

	row := r.dbpool.QueryRowContext(ctx, `SELECT `+seatingPlanColumns+` FROM seating_plans WHERE id = $1`, id)
	return scanSeatingPlan(row)
}

// GetSeatingPlansBySheetID 按适应度从高到低返回
func (r *Repository) GetSeatingPlansBySheetID(sheetID int64) ([]*domain.SeatingPlan, error) {
	query := `
		SELECT ` + seatingPlanColumns + `
		FROM seating_plans
		WHERE relationship_sheet_id = $1
		ORDER BY fitness DESC, id
	`

	ctx, cancel := r.queryContext()
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, sheetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectSeatingPlans(rows)
}

func collectSeatingPlans(rows *sql.Rows) ([]*domain.SeatingPlan, error) {
	plans := make([]*domain.SeatingPlan, 0)
	for rows.Next() {
		plan, err := scanSeatingPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return plans, nil
}
