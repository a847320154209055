// family_member_repository.go implements FamilyMemberRepository, providing
// database queries for persons recorded under a household.
package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ward-census/ward-census/internal/db/models"
)

const familyMemberColumns = `
	id, household_id, full_name, gender, date_of_birth, relationship_to_head,
	education, occupation, monthly_income, aadhaar_number, mobile_number,
	is_disabled, is_senior_citizen, created_at, updated_at
`

// FamilyMemberRepository handles database operations for family members
type FamilyMemberRepository struct {
	db *sql.DB
}

// NewFamilyMemberRepository creates a new family member repository
func NewFamilyMemberRepository(db *sql.DB) *FamilyMemberRepository {
	return &FamilyMemberRepository{db: db}
}

// Create inserts a new family member, assigning ID and timestamps
func (r *FamilyMemberRepository) Create(ctx context.Context, m *models.FamilyMember) error {
	query := `
		INSERT INTO family_members (
			id, household_id, full_name, gender, date_of_birth, relationship_to_head,
			education, occupation, monthly_income, aadhaar_number, mobile_number,
			is_disabled, is_senior_citizen, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $14)
	`

	m.ID = uuid.New().String()
	m.CreatedAt = time.Now()
	m.UpdatedAt = m.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		m.ID,
		m.HouseholdID,
		m.FullName,
		m.Gender,
		m.DateOfBirth,
		m.RelationshipToHead,
		m.Education,
		m.Occupation,
		m.MonthlyIncome,
		m.AadhaarNumber,
		m.MobileNumber,
		m.IsDisabled,
		m.IsSeniorCitizen,
		m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create family member: %w", err)
	}

	return nil
}

// GetByID retrieves a family member by ID
func (r *FamilyMemberRepository) GetByID(ctx context.Context, id string) (*models.FamilyMember, error) {
	query := `SELECT ` + familyMemberColumns + ` FROM family_members WHERE id = $1`

	m := &models.FamilyMember{}
	err := scanFamilyMember(r.db.QueryRowContext(ctx, query, id), m)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get family member: %w", err)
	}

	return m, nil
}

// HouseholdOf returns the household ID owning the member, or "" if the
// member does not exist. First hop of the two-hop ward resolution.
func (r *FamilyMemberRepository) HouseholdOf(ctx context.Context, id string) (string, error) {
	var householdID string
	err := r.db.QueryRowContext(ctx, `SELECT household_id FROM family_members WHERE id = $1`, id).Scan(&householdID)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", nil // Not found
		}
		return "", fmt.Errorf("failed to resolve member household: %w", err)
	}

	return householdID, nil
}

// ListByHousehold retrieves all members of a household, oldest record first
func (r *FamilyMemberRepository) ListByHousehold(ctx context.Context, householdID string) ([]*models.FamilyMember, error) {
	query := `SELECT ` + familyMemberColumns + ` FROM family_members WHERE household_id = $1 ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, householdID)
	if err != nil {
		return nil, fmt.Errorf("failed to list family members: %w", err)
	}
	defer rows.Close()

	members := make([]*models.FamilyMember, 0)
	for rows.Next() {
		m := &models.FamilyMember{}
		if err := scanFamilyMember(rows, m); err != nil {
			return nil, fmt.Errorf("failed to scan family member: %w", err)
		}
		members = append(members, m)
	}

	return members, rows.Err()
}

// ListByWard retrieves all members across a ward's households, grouped by
// household in house number order. Used by the export builder.
func (r *FamilyMemberRepository) ListByWard(ctx context.Context, wardID string) ([]*models.FamilyMember, error) {
	query := `
		SELECT m.id, m.household_id, m.full_name, m.gender, m.date_of_birth, m.relationship_to_head,
		       m.education, m.occupation, m.monthly_income, m.aadhaar_number, m.mobile_number,
		       m.is_disabled, m.is_senior_citizen, m.created_at, m.updated_at
		FROM family_members m
		INNER JOIN households h ON h.id = m.household_id
		WHERE h.ward_id = $1
		ORDER BY h.house_number ASC, m.created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, wardID)
	if err != nil {
		return nil, fmt.Errorf("failed to list ward members: %w", err)
	}
	defer rows.Close()

	members := make([]*models.FamilyMember, 0)
	for rows.Next() {
		m := &models.FamilyMember{}
		if err := scanFamilyMember(rows, m); err != nil {
			return nil, fmt.Errorf("failed to scan family member: %w", err)
		}
		members = append(members, m)
	}

	return members, rows.Err()
}

// Update updates a member's survey fields. HouseholdID is deliberately not
// part of the statement.
func (r *FamilyMemberRepository) Update(ctx context.Context, m *models.FamilyMember) error {
	query := `
		UPDATE family_members
		SET full_name = $2, gender = $3, date_of_birth = $4, relationship_to_head = $5,
		    education = $6, occupation = $7, monthly_income = $8, aadhaar_number = $9,
		    mobile_number = $10, is_disabled = $11, is_senior_citizen = $12, updated_at = NOW()
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query,
		m.ID,
		m.FullName,
		m.Gender,
		m.DateOfBirth,
		m.RelationshipToHead,
		m.Education,
		m.Occupation,
		m.MonthlyIncome,
		m.AadhaarNumber,
		m.MobileNumber,
		m.IsDisabled,
		m.IsSeniorCitizen,
	)
	if err != nil {
		return fmt.Errorf("failed to update family member: %w", err)
	}

	return nil
}

// Delete deletes a family member
func (r *FamilyMemberRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM family_members WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete family member: %w", err)
	}

	return nil
}

func scanFamilyMember(row rowScanner, m *models.FamilyMember) error {
	return row.Scan(
		&m.ID,
		&m.HouseholdID,
		&m.FullName,
		&m.Gender,
		&m.DateOfBirth,
		&m.RelationshipToHead,
		&m.Education,
		&m.Occupation,
		&m.MonthlyIncome,
		&m.AadhaarNumber,
		&m.MobileNumber,
		&m.IsDisabled,
		&m.IsSeniorCitizen,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
}
