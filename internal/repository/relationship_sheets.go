package repository

import (
	"github.com/sysu-ecnc-dev/seating-planner/backend/internal/domain"
)

func (r *Repository) CreateRelationshipSheet(sheet *domain.RelationshipSheet) error {
	guests, err := toJSONB(sheet.Guests)
	if err != nil {
		return err
	}
	matrix, err := toJSONB(sheet.Matrix)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO relationship_sheets (name, description, guests, matrix, created_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, version
	`

	ctx, cancel := r.queryContext()
	defer cancel()

	args := []any{sheet.Name, sheet.Description, guests, matrix, sheet.CreatedBy}
	return r.dbpool.QueryRowContext(ctx, query, args...).Scan(&sheet.ID, &sheet.CreatedAt, &sheet.Version)
}

// GetAllRelationshipSheets 列表中不包含关系矩阵
func (r *Repository) GetAllRelationshipSheets() ([]*domain.RelationshipSheet, error) {
	query := `
		SELECT id, name, description, guests, created_by, created_at, version
		FROM relationship_sheets
		ORDER BY id
	`

	ctx, cancel := r.queryContext()
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sheets := make([]*domain.RelationshipSheet, 0)
	for rows.Next() {
		sheet := &domain.RelationshipSheet{}
		var guests []byte

		dst := []any{&sheet.ID, &sheet.Name, &sheet.Description, &guests, &sheet.CreatedBy, &sheet.CreatedAt, &sheet.Version}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		if err := fromJSONB(guests, &sheet.Guests); err != nil {
			return nil, err
		}

		sheets = append(sheets, sheet)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sheets, nil
}

func (r *Repository) GetRelationshipSheetByID(id int64) (*domain.RelationshipSheet, error) {
	query := `
		SELECT name, description, guests, matrix, created_by, created_at, version
		FROM relationship_sheets WHERE id = $1
	`

	ctx, cancel := r.queryContext()
	defer cancel()

	sheet := &domain.RelationshipSheet{ID: id}
	var guests, matrix []byte

	dst := []any{&sheet.Name, &sheet.Description, &guests, &matrix, &sheet.CreatedBy, &sheet.CreatedAt, &sheet.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		return nil, err
	}

	if err := fromJSONB(guests, &sheet.Guests); err != nil {
		return nil, err
	}
	if err := fromJSONB(matrix, &sheet.Matrix); err != nil {
		return nil, err
	}

	return sheet, nil
}

func (r *Repository) DeleteRelationshipSheet(id int64) error {
	ctx, cancel := r.queryContext()
	defer cancel()

	_, err := r.dbpool.ExecContext(ctx, `DELETE FROM relationship_sheets WHERE id = $1`, id)
	return err
}
