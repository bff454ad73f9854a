package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/solea-tours/experience-api/internal/models"
)

// overrideRow mirrors the overrides table; the price override is stored as a
// JSON blob and decoded into a typed value at this boundary.
type overrideRow struct {
	ID                string         `db:"id"`
	ProductID         int64          `db:"product_id"`
	Date              time.Time      `db:"date"`
	IsClosed          bool           `db:"is_closed"`
	CapacityOverride  *int           `db:"capacity_override"`
	PriceOverrideJSON sql.NullString `db:"price_override_json"`
	Reason            sql.NullString `db:"reason"`
	CreatedAt         time.Time      `db:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at"`
}

// OverrideRepository persists date-specific exceptions at product or global
// scope (product_id 0).
type OverrideRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewOverrideRepository creates a new override repository.
func NewOverrideRepository(db *sqlx.DB, logger *zap.Logger) *OverrideRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OverrideRepository{db: db, logger: logger}
}

const overrideColumns = "id, product_id, date, is_closed, capacity_override, price_override_json, reason, created_at, updated_at"

// Find returns the override for (product, date), or nil when none exists.
func (r *OverrideRepository) Find(ctx context.Context, productID int64, date time.Time) (*models.DateOverride, error) {
	query := fmt.Sprintf(`SELECT %s FROM overrides WHERE product_id = $1 AND date = $2`, overrideColumns)
	var row overrideRow
	if err := r.db.GetContext(ctx, &row, query, productID, date); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find override: %w", err)
	}
	return r.toModel(&row), nil
}

// ListByProduct returns all overrides for a product ordered by date.
func (r *OverrideRepository) ListByProduct(ctx context.Context, productID int64) ([]models.DateOverride, error) {
	query := fmt.Sprintf(`SELECT %s FROM overrides WHERE product_id = $1 ORDER BY date ASC`, overrideColumns)
	var rows []overrideRow
	if err := r.db.SelectContext(ctx, &rows, query, productID); err != nil {
		return nil, fmt.Errorf("list overrides by product: %w", err)
	}
	overrides := make([]models.DateOverride, 0, len(rows))
	for i := range rows {
		overrides = append(overrides, *r.toModel(&rows[i]))
	}
	return overrides, nil
}

// Upsert creates or replaces the override for (product, date).
func (r *OverrideRepository) Upsert(ctx context.Context, override *models.DateOverride) error {
	if override.ID == "" {
		override.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if override.CreatedAt.IsZero() {
		override.CreatedAt = now
	}
	override.UpdatedAt = now

	var priceJSON interface{}
	if override.PriceOverride != nil {
		payload, err := json.Marshal(override.PriceOverride)
		if err != nil {
			return fmt.Errorf("marshal price override: %w", err)
		}
		priceJSON = string(payload)
	}

	const query = `
INSERT INTO overrides (id, product_id, date, is_closed, capacity_override, price_override_json, reason, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (product_id, date) DO UPDATE
SET is_closed = EXCLUDED.is_closed,
    capacity_override = EXCLUDED.capacity_override,
    price_override_json = EXCLUDED.price_override_json,
    reason = EXCLUDED.reason,
    updated_at = EXCLUDED.updated_at`
	if _, err := r.db.ExecContext(ctx, query,
		override.ID, override.ProductID, override.Date, override.IsClosed,
		override.CapacityOverride, priceJSON, override.Reason,
		override.CreatedAt, override.UpdatedAt); err != nil {
		return fmt.Errorf("upsert override: %w", err)
	}
	return nil
}

// Delete removes the override for (product, date).
func (r *OverrideRepository) Delete(ctx context.Context, productID int64, date time.Time) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM overrides WHERE product_id = $1 AND date = $2`, productID, date); err != nil {
		return fmt.Errorf("delete override: %w", err)
	}
	return nil
}

// DeleteByProduct removes every override for a product. Global overrides
// (product 0) are never cascaded.
func (r *OverrideRepository) DeleteByProduct(ctx context.Context, productID int64) error {
	if productID == models.GlobalScopeProductID {
		return nil
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM overrides WHERE product_id = $1`, productID); err != nil {
		return fmt.Errorf("delete overrides by product: %w", err)
	}
	return nil
}

func (r *OverrideRepository) toModel(row *overrideRow) *models.DateOverride {
	override := &models.DateOverride{
		ID:               row.ID,
		ProductID:        row.ProductID,
		Date:             row.Date,
		IsClosed:         row.IsClosed,
		CapacityOverride: row.CapacityOverride,
		Reason:           row.Reason.String,
		CreatedAt:        row.CreatedAt,
		UpdatedAt:        row.UpdatedAt,
	}
	if row.PriceOverrideJSON.Valid && row.PriceOverrideJSON.String != "" {
		var price models.PriceOverride
		if err := json.Unmarshal([]byte(row.PriceOverrideJSON.String), &price); err != nil {
			// Malformed payload falls back to rule prices; the row stays usable.
			r.logger.Warn("malformed price override json",
				zap.String("override_id", row.ID),
				zap.Int64("product_id", row.ProductID),
				zap.Error(err))
		} else {
			override.PriceOverride = &price
		}
	}
	return override
}
