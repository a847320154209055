// ward_repository.go implements WardRepository, providing database queries
// for ward CRUD and dependency counts used by the delete guard.
package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/ward-census/ward-census/internal/db/models"
)

// WardRepository handles database operations for wards
type WardRepository struct {
	db *sql.DB
}

// NewWardRepository creates a new ward repository
func NewWardRepository(db *sql.DB) *WardRepository {
	return &WardRepository{db: db}
}

// Create inserts a new ward, assigning its ID and timestamps
func (r *WardRepository) Create(ctx context.Context, ward *models.Ward) error {
	query := `
		INSERT INTO wards (id, name, ward_number, local_body, district, total_houses, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
	`

	ward.ID = uuid.New().String()
	ward.CreatedAt = time.Now()
	ward.UpdatedAt = ward.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		ward.ID,
		ward.Name,
		ward.WardNumber,
		ward.LocalBody,
		ward.District,
		ward.TotalHouses,
		ward.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create ward: %w", err)
	}

	return nil
}

// GetByID retrieves a ward by ID
func (r *WardRepository) GetByID(ctx context.Context, id string) (*models.Ward, error) {
	query := `
		SELECT id, name, ward_number, local_body, district, total_houses, created_at, updated_at
		FROM wards
		WHERE id = $1
	`

	ward := &models.Ward{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&ward.ID,
		&ward.Name,
		&ward.WardNumber,
		&ward.LocalBody,
		&ward.District,
		&ward.TotalHouses,
		&ward.CreatedAt,
		&ward.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get ward: %w", err)
	}

	return ward, nil
}

// List retrieves all wards ordered by ward number
func (r *WardRepository) List(ctx context.Context) ([]*models.Ward, error) {
	query := `
		SELECT id, name, ward_number, local_body, district, total_houses, created_at, updated_at
		FROM wards
		ORDER BY ward_number ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list wards: %w", err)
	}
	defer rows.Close()

	wards := make([]*models.Ward, 0)
	for rows.Next() {
		ward := &models.Ward{}
		err := rows.Scan(
			&ward.ID,
			&ward.Name,
			&ward.WardNumber,
			&ward.LocalBody,
			&ward.District,
			&ward.TotalHouses,
			&ward.CreatedAt,
			&ward.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ward: %w", err)
		}
		wards = append(wards, ward)
	}

	return wards, rows.Err()
}

// ListPage retrieves one page of wards ordered by ward number, along with
// the total ward count for pagination.
func (r *WardRepository) ListPage(ctx context.Context, limit, offset int) ([]*models.Ward, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM wards`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count wards: %w", err)
	}

	query := `
		SELECT id, name, ward_number, local_body, district, total_houses, created_at, updated_at
		FROM wards
		ORDER BY ward_number ASC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list wards: %w", err)
	}
	defer rows.Close()

	wards := make([]*models.Ward, 0)
	for rows.Next() {
		ward := &models.Ward{}
		err := rows.Scan(
			&ward.ID,
			&ward.Name,
			&ward.WardNumber,
			&ward.LocalBody,
			&ward.District,
			&ward.TotalHouses,
			&ward.CreatedAt,
			&ward.UpdatedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan ward: %w", err)
		}
		wards = append(wards, ward)
	}

	return wards, total, rows.Err()
}

// ListByIDs retrieves the wards whose IDs appear in ids, preserving only
// wards that exist. Unknown IDs are silently dropped.
func (r *WardRepository) ListByIDs(ctx context.Context, ids []string) ([]*models.Ward, error) {
	if len(ids) == 0 {
		return []*models.Ward{}, nil
	}

	query := `
		SELECT id, name, ward_number, local_body, district, total_houses, created_at, updated_at
		FROM wards
		WHERE id = ANY($1)
		ORDER BY ward_number ASC
	`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to list wards by ids: %w", err)
	}
	defer rows.Close()

	wards := make([]*models.Ward, 0)
	for rows.Next() {
		ward := &models.Ward{}
		err := rows.Scan(
			&ward.ID,
			&ward.Name,
			&ward.WardNumber,
			&ward.LocalBody,
			&ward.District,
			&ward.TotalHouses,
			&ward.CreatedAt,
			&ward.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ward: %w", err)
		}
		wards = append(wards, ward)
	}

	return wards, rows.Err()
}

// Update updates a ward's editable fields
func (r *WardRepository) Update(ctx context.Context, ward *models.Ward) error {
	query := `
		UPDATE wards
		SET name = $2, ward_number = $3, local_body = $4, district = $5, total_houses = $6, updated_at = NOW()
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query,
		ward.ID,
		ward.Name,
		ward.WardNumber,
		ward.LocalBody,
		ward.District,
		ward.TotalHouses,
	)
	if err != nil {
		return fmt.Errorf("failed to update ward: %w", err)
	}

	return nil
}

// Delete deletes a ward
func (r *WardRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM wards WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete ward: %w", err)
	}

	return nil
}

// CountDependents returns how many households and user assignments reference
// the ward. Deletion is refused while either count is non-zero.
func (r *WardRepository) CountDependents(ctx context.Context, id string) (households int, assignments int, err error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM households WHERE ward_id = $1),
			(SELECT COUNT(*) FROM user_ward_assignments WHERE ward_id = $1)
	`

	err = r.db.QueryRowContext(ctx, query, id).Scan(&households, &assignments)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count ward dependents: %w", err)
	}

	return households, assignments, nil
}
