package models

import (
	"database/sql"
	"time"
)

// ScheduleRule is a recurring weekly slot template for an experience product.
// DayOfWeek follows time.Weekday numbering: 0=Sunday .. 6=Saturday.
type ScheduleRule struct {
	ID             string        `db:"id" json:"id"`
	ProductID      int64         `db:"product_id" json:"product_id"`
	DayOfWeek      int           `db:"day_of_week" json:"day_of_week"`
	StartTime      string        `db:"start_time" json:"start_time"`
	DurationMin    int           `db:"duration_min" json:"duration_min"`
	Capacity       int           `db:"capacity" json:"capacity"`
	Lang           string        `db:"lang" json:"lang"`
	MeetingPointID sql.NullInt64 `db:"meeting_point_id" json:"meeting_point_id"`
	PriceAdult     float64       `db:"price_adult" json:"price_adult"`
	PriceChild     float64       `db:"price_child" json:"price_child"`
	IsActive       bool          `db:"is_active" json:"is_active"`
	CreatedAt      time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time     `db:"updated_at" json:"updated_at"`
}
