package models

import "time"

// GlobalScopeProductID is the sentinel product id for overrides that apply to
// every product on a date. A global closure cannot be reopened by a
// product-scoped override.
const GlobalScopeProductID int64 = 0

// PriceOverride replaces the rule prices for one date. Either field may be nil,
// leaving the corresponding rule price in effect.
type PriceOverride struct {
	Adult *float64 `json:"adult,omitempty"`
	Child *float64 `json:"child,omitempty"`
}

// DateOverride is a one-off exception for a specific calendar date, scoped to a
// single product or globally (ProductID == GlobalScopeProductID). At most one
// override exists per (product, date).
type DateOverride struct {
	ID               string         `db:"id" json:"id"`
	ProductID        int64          `db:"product_id" json:"product_id"`
	Date             time.Time      `db:"date" json:"date"`
	IsClosed         bool           `db:"is_closed" json:"is_closed"`
	CapacityOverride *int           `db:"capacity_override" json:"capacity_override,omitempty"`
	PriceOverride    *PriceOverride `db:"-" json:"price_override,omitempty"`
	Reason           string         `db:"reason" json:"reason"`
	CreatedAt        time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at" json:"updated_at"`
}

// IsGlobal reports whether the override applies to every product.
func (o *DateOverride) IsGlobal() bool {
	return o != nil && o.ProductID == GlobalScopeProductID
}
