package repository

import (
	"database/sql"

	"github.com/sysu-ecnc-dev/seating-planner/backend/internal/domain"
)

const experimentColumns = `id, job_id, name, kind, relationship_sheet_id, settings, combinations, status, error, created_by, created_at, started_at, finished_at, version`

func scanExperiment(row rowScanner) (*domain.Experiment, error) {
	e := &domain.Experiment{}
	var settings, combinations []byte
	var startedAt, finishedAt sql.NullTime

	dst := []any{
		&e.ID,
		&e.JobID,
		&e.Name,
		&e.Kind,
		&e.RelationshipSheetID,
		&settings,
		&combinations,
		&e.Status,
		&e.Error,
		&e.CreatedBy,
		&e.CreatedAt,
		&startedAt,
		&finishedAt,
		&e.Version,
	}
	if err := row.Scan(dst...); err != nil {
		return nil, err
	}

	if err := fromJSONB(settings, &e.Settings); err != nil {
		return nil, err
	}
	if err := fromJSONB(combinations, &e.Combinations); err != nil {
		return nil, err
	}
	if startedAt.Valid {
		e.StartedAt = &startedAt.Time
	}
	if finishedAt.Valid {
		e.FinishedAt = &finishedAt.Time
	}

	return e, nil
}

func (r *Repository) CreateExperiment(e *domain.Experiment) error {
	settings, err := toJSONB(e.Settings)
	if err != nil {
		return err
	}
	combinations, err := toJSONB(e.Combinations)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO experiments (job_id, name, kind, relationship_sheet_id, settings, combinations, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, status, error, created_at, version
	`

	ctx, cancel := r.queryContext()
	defer cancel()

	args := []any{e.JobID, e.Name, e.Kind, e.RelationshipSheetID, settings, combinations, e.CreatedBy}
	return r.dbpool.QueryRowContext(ctx, query, args...).Scan(&e.ID, &e.Status, &e.Error, &e.CreatedAt, &e.Version)
}

func (r *Repository) GetAllExperiments() ([]*domain.Experiment, error) {
	ctx, cancel := r.queryContext()
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, `SELECT `+experimentColumns+` FROM experiments ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	experiments := make([]*domain.Experiment, 0)
	for rows.Next() {
		e, err := scanExperiment(rows)
		if err != nil {
			return nil, err
		}
		experiments = append(experiments, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return experiments, nil
}

func (r *Repository) GetExperimentByID(id int64) (*domain.Experiment, error) {
	ctx, cancel := r.queryContext()
	defer cancel()

	row := r.dbpool.QueryRowContext(ctx, `SELECT `+experimentColumns+` FROM experiments WHERE id = $1`, id)
	return scanExperiment(row)
}

// StartExperiment 只有处于排队中的实验才能开始，否则返回 sql.ErrNoRows（例如消息被重复投递）
func (r *Repository) StartExperiment(e *domain.Experiment) error {
	query := `
		UPDATE experiments
		SET
			status = $1,
			started_at = NOW(),
			version = version + 1
		WHERE id = $2 AND status = $3
		RETURNING started_at, version
	`

	ctx, cancel := r.queryContext()
	defer cancel()

	var startedAt sql.NullTime
	args := []any{domain.ExperimentStatusRunning, e.ID, domain.ExperimentStatusPending}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&startedAt, &e.Version); err != nil {
		return err
	}

	e.Status = domain.ExperimentStatusRunning
	e.StartedAt = &startedAt.Time
	return nil
}

// FinishExperiment 在同一个事务中保存结果并把实验标记为已完成
func (r *Repository) FinishExperiment(e *domain.Experiment, result *domain.ExperimentResult) error {
	columns, err := toJSONB(result.Columns)
	if err != nil {
		return err
	}

	ctx, cancel := r.transactionContext()
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// 重新运行时覆盖之前的结果
	if _, err := tx.ExecContext(ctx, `DELETE FROM experiment_results WHERE experiment_id = $1`, e.ID); err != nil {
		return err
	}

	query := `
		INSERT INTO experiment_results (experiment_id, generations, columns)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`
	if err := tx.QueryRowContext(ctx, query, e.ID, result.Generations, columns).Scan(&result.CreatedAt); err != nil {
		return err
	}

	query = `
		UPDATE experiments
		SET
			status = $1,
			finished_at = NOW(),
			version = version + 1
		WHERE id = $2
		RETURNING finished_at, version
	`
	var finishedAt sql.NullTime
	if err := tx.QueryRowContext(ctx, query, domain.ExperimentStatusFinished, e.ID).Scan(&finishedAt, &e.Version); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	e.Status = domain.ExperimentStatusFinished
	e.FinishedAt = &finishedAt.Time
	return nil
}

func (r *Repository) FailExperiment(e *domain.Experiment, reason string) error {
	query := `
		UPDATE experiments
		SET
			status = $1,
			error = $2,
			finished_at = NOW(),
			version = version + 1
		WHERE id = $3
		RETURNING finished_at, version
	`

	ctx, cancel := r.queryContext()
	defer cancel()

	var finishedAt sql.NullTime
	if err := r.dbpool.QueryRowContext(ctx, query, domain.ExperimentStatusFailed, reason, e.ID).Scan(&finishedAt, &e.Version); err != nil {
		return err
	}

	e.Status = domain.ExperimentStatusFailed
	e.Error = reason
	e.FinishedAt = &finishedAt.Time
	return nil
}

// ResetExperiment 把运行中的实验放回排队状态，worker 关闭时中断的实验可以被重新执行
func (r *Repository) ResetExperiment(e *domain.Experiment) error {
	query := `
		UPDATE experiments
		SET
			status = $1,
			started_at = NULL,
			version = version + 1
		WHERE id = $2 AND status = $3
		RETURNING version
	`

	ctx, cancel := r.queryContext()
	defer cancel()

	args := []any{domain.ExperimentStatusPending, e.ID, domain.ExperimentStatusRunning}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&e.Version); err != nil {
		return err
	}

	e.Status = domain.ExperimentStatusPending
	e.StartedAt = nil
	return nil
}

func (r *Repository) GetExperimentResult(experimentID int64) (*domain.ExperimentResult, error) {
	query := `
		SELECT generations, columns, created_at
		FROM experiment_results WHERE experiment_id = $1
	`

	ctx, cancel := r.queryContext()
	defer cancel()

	result := &domain.ExperimentResult{ExperimentID: experimentID}
	var columns []byte
	if err := r.dbpool.QueryRowContext(ctx, query, experimentID).Scan(&result.Generations, &columns, &result.CreatedAt); err != nil {
		return nil, err
	}

	if err := fromJSONB(columns, &result.Columns); err != nil {
		return nil, err
	}

	return result, nil
}
