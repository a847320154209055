// analytics_repository.go implements AnalyticsRepository, computing ward and
// global aggregates on demand. Every call reflects current rows; nothing is
// cached or incrementally maintained.
package repositories

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/ward-census/ward-census/internal/db/models"
)

// AnalyticsRepository handles aggregate queries for dashboards
type AnalyticsRepository struct {
	db *sqlx.DB
}

// NewAnalyticsRepository creates a new analytics repository
func NewAnalyticsRepository(db *sqlx.DB) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

// WardAnalytics computes the dashboard aggregates for one ward. Scalar
// counts come back in a single round-trip; the two distributions follow.
func (r *AnalyticsRepository) WardAnalytics(ctx context.Context, wardID string) (*models.WardAnalytics, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM households WHERE ward_id = $1) AS total_households,
			(SELECT COUNT(*) FROM households WHERE ward_id = $1 AND visit_status <> 'NOT_VISITED') AS visited_households,
			(SELECT COUNT(*) FROM households WHERE ward_id = $1 AND visit_status = 'NOT_VISITED') AS not_visited_households,
			(SELECT COUNT(*) FROM households WHERE ward_id = $1 AND visit_status = 'VERIFIED') AS verified_households,
			(SELECT COUNT(*) FROM family_members m
				JOIN households h ON h.id = m.household_id
				WHERE h.ward_id = $1) AS total_population,
			(SELECT COUNT(*) FROM family_members m
				JOIN households h ON h.id = m.household_id
				WHERE h.ward_id = $1 AND m.is_senior_citizen) AS senior_citizens,
			(SELECT COUNT(*) FROM family_members m
				JOIN households h ON h.id = m.household_id
				WHERE h.ward_id = $1 AND m.is_disabled) AS disabled_persons
	`

	analytics := &models.WardAnalytics{WardID: wardID}
	if err := r.db.GetContext(ctx, analytics, query, wardID); err != nil {
		return nil, fmt.Errorf("failed to compute ward analytics: %w", err)
	}

	var err error
	analytics.RationCards, err = r.rationCardDistribution(ctx, wardID)
	if err != nil {
		return nil, err
	}

	analytics.Genders, err = r.genderDistribution(ctx, wardID)
	if err != nil {
		return nil, err
	}

	return analytics, nil
}

// GlobalStats computes the system-wide snapshot in a single round-trip
func (r *AnalyticsRepository) GlobalStats(ctx context.Context) (*models.GlobalStats, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM wards) AS total_wards,
			(SELECT COUNT(*) FROM users) AS total_users,
			(SELECT COUNT(*) FROM households) AS total_households,
			(SELECT COUNT(*) FROM family_members) AS total_population,
			(SELECT COUNT(*) FROM users WHERE role = 'AGENT' AND active) AS active_agents
	`

	stats := &models.GlobalStats{}
	if err := r.db.GetContext(ctx, stats, query); err != nil {
		return nil, fmt.Errorf("failed to compute global stats: %w", err)
	}

	return stats, nil
}

type bucketCount struct {
	Bucket string `db:"bucket"`
	Count  int    `db:"count"`
}

// rationCardDistribution returns counts keyed by card type. Every known type
// is present in the result, zero when no household has it, so consumers never
// have to distinguish a missing bucket from an empty one.
func (r *AnalyticsRepository) rationCardDistribution(ctx context.Context, wardID string) (map[string]int, error) {
	query := `
		SELECT ration_card_type AS bucket, COUNT(*) AS count
		FROM households
		WHERE ward_id = $1
		GROUP BY ration_card_type
	`

	var rows []bucketCount
	if err := r.db.SelectContext(ctx, &rows, query, wardID); err != nil {
		return nil, fmt.Errorf("failed to compute ration card distribution: %w", err)
	}

	dist := map[string]int{
		string(models.RationAPL):  0,
		string(models.RationBPL):  0,
		string(models.RationAAY):  0,
		string(models.RationNone): 0,
	}
	for _, row := range rows {
		dist[row.Bucket] = row.Count
	}

	return dist, nil
}

// genderDistribution returns counts keyed by gender. MALE, FEMALE, and OTHER
// are always present; anything else in the column folds into OTHER so the
// buckets sum to the member total.
func (r *AnalyticsRepository) genderDistribution(ctx context.Context, wardID string) (map[string]int, error) {
	query := `
		SELECT m.gender AS bucket, COUNT(*) AS count
		FROM family_members m
		JOIN households h ON h.id = m.household_id
		WHERE h.ward_id = $1
		GROUP BY m.gender
	`

	var rows []bucketCount
	if err := r.db.SelectContext(ctx, &rows, query, wardID); err != nil {
		return nil, fmt.Errorf("failed to compute gender distribution: %w", err)
	}

	dist := map[string]int{
		string(models.GenderMale):   0,
		string(models.GenderFemale): 0,
		string(models.GenderOther):  0,
	}
	for _, row := range rows {
		switch row.Bucket {
		case string(models.GenderMale), string(models.GenderFemale):
			dist[row.Bucket] = row.Count
		default:
			dist[string(models.GenderOther)] += row.Count
		}
	}

	return dist, nil
}
