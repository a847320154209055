// Package repositories implements the data access layer (repository pattern)
// for the census service. Each repository type encapsulates all database
// queries for a domain entity. Handlers never issue SQL directly; all access
// goes through this layer, which keeps query logic testable in isolation.
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

// UserRepository handles user database operations
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user and records their ward assignments in one
// transaction, assigning ID and timestamps
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO users (id, name, email, mobile, password_hash, role, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
	`

	user.ID = uuid.New().String()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt

	_, err = tx.ExecContext(ctx, query,
		user.ID,
		user.Name,
		user.Email,
		user.Mobile,
		user.PasswordHash,
		user.Role,
		user.Active,
		user.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	if err := replaceAssignments(ctx, tx, user.ID, user.AssignedWardIDs); err != nil {
		return err
	}

	return tx.Commit()
}

// GetByID retrieves a user by ID, including ward assignments
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `
		SELECT id, name, email, mobile, password_hash, role, active, created_at, updated_at
		FROM users
		WHERE id = $1
	`

	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Mobile,
		&user.PasswordHash,
		&user.Role,
		&user.Active,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if user.AssignedWardIDs, err = r.getAssignments(ctx, user.ID); err != nil {
		return nil, err
	}

	return user, nil
}

// GetByEmail retrieves a user by normalized email, including ward assignments
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `
		SELECT id, name, email, mobile, password_hash, role, active, created_at, updated_at
		FROM users
		WHERE email = $1
	`

	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Mobile,
		&user.PasswordHash,
		&user.Role,
		&user.Active,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	if user.AssignedWardIDs, err = r.getAssignments(ctx, user.ID); err != nil {
		return nil, err
	}

	return user, nil
}

// List retrieves users ordered by creation time, newest first, optionally
// restricted to one role. An empty role lists everyone. Ward assignments come
// back in the same query to avoid a round trip per row.
func (r *UserRepository) List(ctx context.Context, role models.Role) ([]*models.User, error) {
	query := `
		SELECT u.id, u.name, u.email, u.mobile, u.password_hash, u.role, u.active, u.created_at, u.updated_at,
		       COALESCE(array_agg(a.ward_id) FILTER (WHERE a.ward_id IS NOT NULL), '{}') AS ward_ids
		FROM users u
		LEFT JOIN user_ward_assignments a ON a.user_id = u.id
		WHERE ($1 = '' OR u.role = $1)
		GROUP BY u.id
		ORDER BY u.created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, string(role))
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	return scanUsersWithWards(rows)
}

// ListByWard retrieves the users assigned to a ward, optionally restricted to
// one role. An empty role lists everyone.
func (r *UserRepository) ListByWard(ctx context.Context, wardID string, role models.Role) ([]*models.User, error) {
	query := `
		SELECT u.id, u.name, u.email, u.mobile, u.password_hash, u.role, u.active, u.created_at, u.updated_at,
		       COALESCE(array_agg(a2.ward_id) FILTER (WHERE a2.ward_id IS NOT NULL), '{}') AS ward_ids
		FROM users u
		INNER JOIN user_ward_assignments a ON a.user_id = u.id AND a.ward_id = $1
		LEFT JOIN user_ward_assignments a2 ON a2.user_id = u.id
		WHERE ($2 = '' OR u.role = $2)
		GROUP BY u.id
		ORDER BY u.created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, wardID, string(role))
	if err != nil {
		return nil, fmt.Errorf("failed to list users by ward: %w", err)
	}
	defer rows.Close()

	return scanUsersWithWards(rows)
}

// Update updates a user's editable fields and replaces their ward
// assignments in one transaction
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE users
		SET name = $2, email = $3, mobile = $4, password_hash = $5, role = $6, active = $7, updated_at = NOW()
		WHERE id = $1
	`

	_, err = tx.ExecContext(ctx, query,
		user.ID,
		user.Name,
		user.Email,
		user.Mobile,
		user.PasswordHash,
		user.Role,
		user.Active,
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	if err := replaceAssignments(ctx, tx, user.ID, user.AssignedWardIDs); err != nil {
		return err
	}

	return tx.Commit()
}

// Delete deletes a user. Ward assignments cascade in the schema.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM users WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	return nil
}

// Count returns the total number of users
func (r *UserRepository) Count(ctx context.Context) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM users`
	err := r.db.QueryRowContext(ctx, query).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}

	return count, nil
}

func (r *UserRepository) getAssignments(ctx context.Context, userID string) ([]string, error) {
	query := `SELECT ward_id FROM user_ward_assignments WHERE user_id = $1 ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get ward assignments: %w", err)
	}
	defer rows.Close()

	wardIDs := make([]string, 0)
	for rows.Next() {
		var wardID string
		if err := rows.Scan(&wardID); err != nil {
			return nil, fmt.Errorf("failed to scan ward assignment: %w", err)
		}
		wardIDs = append(wardIDs, wardID)
	}

	return wardIDs, rows.Err()
}

func scanUsersWithWards(rows *sql.Rows) ([]*models.User, error) {
	users := make([]*models.User, 0)
	for rows.Next() {
		user := &models.User{}
		err := rows.Scan(
			&user.ID,
			&user.Name,
			&user.Email,
			&user.Mobile,
			&user.PasswordHash,
			&user.Role,
			&user.Active,
			&user.CreatedAt,
			&user.UpdatedAt,
			pq.Array(&user.AssignedWardIDs),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	return users, rows.Err()
}

func replaceAssignments(ctx context.Context, tx *sql.Tx, userID string, wardIDs []string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM user_ward_assignments WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to clear ward assignments: %w", err)
	}

	for _, wardID := range wardIDs {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO user_ward_assignments (user_id, ward_id) VALUES ($1, $2)`,
			userID, wardID,
		)
		if err != nil {
			return fmt.Errorf("failed to assign ward: %w", err)
		}
	}

	return nil
}
