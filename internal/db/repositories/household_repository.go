// household_repository.go implements HouseholdRepository, providing database
// queries for surveyed households within a ward.
package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ward-census/ward-census/internal/db/models"
)

const householdColumns = `
	id, ward_id, house_number, full_address, landmark,
	ration_card_number, ration_card_type, latitude, longitude,
	visit_status, visited_at, created_by_agent_id, created_at, updated_at
`

// HouseholdRepository handles database operations for households
type HouseholdRepository struct {
	db *sql.DB
}

// NewHouseholdRepository creates a new household repository
func NewHouseholdRepository(db *sql.DB) *HouseholdRepository {
	return &HouseholdRepository{db: db}
}

// Create inserts a new household, assigning its ID and timestamps
func (r *HouseholdRepository) Create(ctx context.Context, h *models.Household) error {
	query := `
		INSERT INTO households (
			id, ward_id, house_number, full_address, landmark,
			ration_card_number, ration_card_type, latitude, longitude,
			visit_status, visited_at, created_by_agent_id, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13)
	`

	h.ID = uuid.New().String()
	h.CreatedAt = time.Now()
	h.UpdatedAt = h.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		h.ID,
		h.WardID,
		h.HouseNumber,
		h.FullAddress,
		h.Landmark,
		h.RationCardNumber,
		h.RationCardType,
		h.Latitude,
		h.Longitude,
		h.VisitStatus,
		h.VisitedAt,
		h.CreatedByAgentID,
		h.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create household: %w", err)
	}

	return nil
}

// GetByID retrieves a household by ID
func (r *HouseholdRepository) GetByID(ctx context.Context, id string) (*models.Household, error) {
	query := `SELECT ` + householdColumns + ` FROM households WHERE id = $1`

	h := &models.Household{}
	err := scanHousehold(r.db.QueryRowContext(ctx, query, id), h)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get household: %w", err)
	}

	return h, nil
}

// WardOf returns the ward ID owning the household, or "" if the household
// does not exist. Used by access checks before the full row is needed.
func (r *HouseholdRepository) WardOf(ctx context.Context, id string) (string, error) {
	var wardID string
	err := r.db.QueryRowContext(ctx, `SELECT ward_id FROM households WHERE id = $1`, id).Scan(&wardID)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", nil // Not found
		}
		return "", fmt.Errorf("failed to resolve household ward: %w", err)
	}

	return wardID, nil
}

// ListByWard retrieves all households in a ward ordered by house number
func (r *HouseholdRepository) ListByWard(ctx context.Context, wardID string) ([]*models.Household, error) {
	query := `SELECT ` + householdColumns + ` FROM households WHERE ward_id = $1 ORDER BY house_number ASC`

	rows, err := r.db.QueryContext(ctx, query, wardID)
	if err != nil {
		return nil, fmt.Errorf("failed to list households: %w", err)
	}
	defer rows.Close()

	households := make([]*models.Household, 0)
	for rows.Next() {
		h := &models.Household{}
		if err := scanHousehold(rows, h); err != nil {
			return nil, fmt.Errorf("failed to scan household: %w", err)
		}
		households = append(households, h)
	}

	return households, rows.Err()
}

// ListByWardPage retrieves one page of a ward's households ordered by house
// number, along with the ward's total household count for pagination.
func (r *HouseholdRepository) ListByWardPage(ctx context.Context, wardID string, limit, offset int) ([]*models.Household, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM households WHERE ward_id = $1`, wardID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count households: %w", err)
	}

	query := `SELECT ` + householdColumns + ` FROM households WHERE ward_id = $1 ORDER BY house_number ASC LIMIT $2 OFFSET $3`

	rows, err := r.db.QueryContext(ctx, query, wardID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list households: %w", err)
	}
	defer rows.Close()

	households := make([]*models.Household, 0)
	for rows.Next() {
		h := &models.Household{}
		if err := scanHousehold(rows, h); err != nil {
			return nil, 0, fmt.Errorf("failed to scan household: %w", err)
		}
		households = append(households, h)
	}

	return households, total, rows.Err()
}

// Update updates a household's survey fields. WardID and CreatedByAgentID
// are deliberately not part of the statement.
func (r *HouseholdRepository) Update(ctx context.Context, h *models.Household) error {
	query := `
		UPDATE households
		SET house_number = $2, full_address = $3, landmark = $4,
		    ration_card_number = $5, ration_card_type = $6, latitude = $7, longitude = $8,
		    visit_status = $9, visited_at = $10, updated_at = NOW()
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query,
		h.ID,
		h.HouseNumber,
		h.FullAddress,
		h.Landmark,
		h.RationCardNumber,
		h.RationCardType,
		h.Latitude,
		h.Longitude,
		h.VisitStatus,
		h.VisitedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update household: %w", err)
	}

	return nil
}

// Delete deletes a household. Family members cascade in the schema.
func (r *HouseholdRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM households WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete household: %w", err)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanHousehold(row rowScanner, h *models.Household) error {
	return row.Scan(
		&h.ID,
		&h.WardID,
		&h.HouseNumber,
		&h.FullAddress,
		&h.Landmark,
		&h.RationCardNumber,
		&h.RationCardType,
		&h.Latitude,
		&h.Longitude,
		&h.VisitStatus,
		&h.VisitedAt,
		&h.CreatedByAgentID,
		&h.CreatedAt,
		&h.UpdatedAt,
	)
}
