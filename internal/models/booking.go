package models

import "time"

// BookingStatus enumerates the booking lifecycle.
type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingRefunded  BookingStatus = "refunded"
)

// CountsTowardCapacity reports whether a booking in this status consumes slot
// capacity. Only terminal states release seats.
func (s BookingStatus) CountsTowardCapacity() bool {
	return s == BookingPending || s == BookingConfirmed
}

// Booking is a reservation against one slot occurrence. Pending bookings carry
// an expiry; an expired pending row no longer consumes capacity even before the
// sweeper cancels it.
type Booking struct {
	ID        string        `db:"id" json:"id"`
	ProductID int64         `db:"product_id" json:"product_id"`
	Date      time.Time     `db:"date" json:"date"`
	Time      string        `db:"time" json:"time"`
	Adults    int           `db:"adults" json:"adults"`
	Children  int           `db:"children" json:"children"`
	Status    BookingStatus `db:"status" json:"status"`
	ExpiresAt *time.Time    `db:"expires_at" json:"expires_at,omitempty"`
	CreatedAt time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt time.Time     `db:"updated_at" json:"updated_at"`
}

// PartySize is the number of seats the booking consumes.
func (b *Booking) PartySize() int {
	return b.Adults + b.Children
}

// SlotKey identifies one bookable slot occurrence. It is the unit of write
// serialisation in the ledger and of cache invalidation.
type SlotKey struct {
	ProductID int64     `db:"product_id" json:"product_id"`
	Date      time.Time `db:"date" json:"date"`
	Time      string    `db:"time" json:"time"`
}
