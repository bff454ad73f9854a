package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/solea-tours/experience-api/internal/models"
)

// ExperienceRepository persists per-product booking policy.
type ExperienceRepository struct {
	db *sqlx.DB
}

// NewExperienceRepository creates a new experience settings repository.
func NewExperienceRepository(db *sqlx.DB) *ExperienceRepository {
	return &ExperienceRepository{db: db}
}

// FindSettings loads settings for a product. Returns nil when the product has
// no row; the caller falls back to configured defaults.
func (r *ExperienceRepository) FindSettings(ctx context.Context, productID int64) (*models.ExperienceSettings, error) {
	const query = `SELECT product_id, cutoff_minutes, created_at, updated_at FROM experience_settings WHERE product_id = $1`
	var settings models.ExperienceSettings
	if err := r.db.GetContext(ctx, &settings, query, productID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find experience settings: %w", err)
	}
	return &settings, nil
}

// UpsertSettings creates or replaces settings for a product.
func (r *ExperienceRepository) UpsertSettings(ctx context.Context, settings *models.ExperienceSettings) error {
	now := time.Now().UTC()
	if settings.CreatedAt.IsZero() {
		settings.CreatedAt = now
	}
	settings.UpdatedAt = now

	const query = `
INSERT INTO experience_settings (product_id, cutoff_minutes, created_at, updated_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (product_id) DO UPDATE
SET cutoff_minutes = EXCLUDED.cutoff_minutes,
    updated_at = EXCLUDED.updated_at`
	if _, err := r.db.ExecContext(ctx, query, settings.ProductID, settings.CutoffMinutes, settings.CreatedAt, settings.UpdatedAt); err != nil {
		return fmt.Errorf("upsert experience settings: %w", err)
	}
	return nil
}

// DeleteSettings removes settings for a product.
func (r *ExperienceRepository) DeleteSettings(ctx context.Context, productID int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM experience_settings WHERE product_id = $1`, productID); err != nil {
		return fmt.Errorf("delete experience settings: %w", err)
	}
	return nil
}
