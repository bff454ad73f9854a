package models

import "time"

// ExperienceSettings holds per-product booking policy. Products without a row
// fall back to the configured defaults.
type ExperienceSettings struct {
	ProductID     int64     `db:"product_id" json:"product_id"`
	CutoffMinutes int       `db:"cutoff_minutes" json:"cutoff_minutes"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}
