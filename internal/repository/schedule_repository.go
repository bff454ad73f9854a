package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/solea-tours/experience-api/internal/models"
)

// ScheduleRepository persists recurring weekly slot rules.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository creates a new schedule repository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

const scheduleColumns = "id, product_id, day_of_week, start_time, duration_min, capacity, lang, meeting_point_id, price_adult, price_child, is_active, created_at, updated_at"

// ListActiveForDay returns active rules for a product on a weekday, ordered by
// start time then id so duplicate (day, start) rules resolve deterministically.
func (r *ScheduleRepository) ListActiveForDay(ctx context.Context, productID int64, dayOfWeek int) ([]models.ScheduleRule, error) {
	query := fmt.Sprintf(`SELECT %s FROM schedules WHERE product_id = $1 AND day_of_week = $2 AND is_active = TRUE ORDER BY start_time ASC, id ASC`, scheduleColumns)
	var rules []models.ScheduleRule
	if err := r.db.SelectContext(ctx, &rules, query, productID, dayOfWeek); err != nil {
		return nil, fmt.Errorf("list schedules for day: %w", err)
	}
	return rules, nil
}

// ListByProduct returns every rule for a product ordered by day/time.
func (r *ScheduleRepository) ListByProduct(ctx context.Context, productID int64) ([]models.ScheduleRule, error) {
	query := fmt.Sprintf(`SELECT %s FROM schedules WHERE product_id = $1 ORDER BY day_of_week ASC, start_time ASC, id ASC`, scheduleColumns)
	var rules []models.ScheduleRule
	if err := r.db.SelectContext(ctx, &rules, query, productID); err != nil {
		return nil, fmt.Errorf("list schedules by product: %w", err)
	}
	return rules, nil
}

// DistinctProductIDs returns every product that has at least one active rule.
// Drives the cache prebuild job.
func (r *ScheduleRepository) DistinctProductIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	if err := r.db.SelectContext(ctx, &ids, `SELECT DISTINCT product_id FROM schedules WHERE is_active = TRUE ORDER BY product_id ASC`); err != nil {
		return nil, fmt.Errorf("list schedule product ids: %w", err)
	}
	return ids, nil
}

// FindByID loads a rule by id.
func (r *ScheduleRepository) FindByID(ctx context.Context, id string) (*models.ScheduleRule, error) {
	query := fmt.Sprintf(`SELECT %s FROM schedules WHERE id = $1`, scheduleColumns)
	var rule models.ScheduleRule
	if err := r.db.GetContext(ctx, &rule, query, id); err != nil {
		return nil, err
	}
	return &rule, nil
}

// Create stores a new rule.
func (r *ScheduleRepository) Create(ctx context.Context, rule *models.ScheduleRule) error {
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = now
	}
	rule.UpdatedAt = now

	const query = `INSERT INTO schedules (id, product_id, day_of_week, start_time, duration_min, capacity, lang, meeting_point_id, price_adult, price_child, is_active, created_at, updated_at) VALUES (:id, :product_id, :day_of_week, :start_time, :duration_min, :capacity, :lang, :meeting_point_id, :price_adult, :price_child, :is_active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, rule); err != nil {
		return fmt.Errorf("create schedule: %w", err)
	}
	return nil
}

// Update modifies a rule.
func (r *ScheduleRepository) Update(ctx context.Context, rule *models.ScheduleRule) error {
	rule.UpdatedAt = time.Now().UTC()
	const query = `UPDATE schedules SET day_of_week = :day_of_week, start_time = :start_time, duration_min = :duration_min, capacity = :capacity, lang = :lang, meeting_point_id = :meeting_point_id, price_adult = :price_adult, price_child = :price_child, is_active = :is_active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, rule); err != nil {
		return fmt.Errorf("update schedule: %w", err)
	}
	return nil
}

// Delete removes a rule by id.
func (r *ScheduleRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM schedules WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	return nil
}

// DeleteByProduct removes every rule for a product. Used by the product
// deletion cascade.
func (r *ScheduleRepository) DeleteByProduct(ctx context.Context, productID int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM schedules WHERE product_id = $1`, productID); err != nil {
		return fmt.Errorf("delete schedules by product: %w", err)
	}
	return nil
}
