package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/solea-tours/experience-api/internal/models"
	appErrors "github.com/solea-tours/experience-api/pkg/errors"
)

// BookingRepository is the booking ledger. TryReserve is the only operation in
// the system that must be linearizable per slot key; everything else tolerates
// cache-bounded staleness.
type BookingRepository struct {
	db *sqlx.DB
}

// NewBookingRepository creates a new booking repository.
func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

const bookingColumns = "id, product_id, date, \"time\", adults, children, status, expires_at, created_at, updated_at"

// participantSumQuery counts seats consumed by confirmed bookings and by
// pending bookings that have not expired. Expired pending rows stop counting
// immediately, without waiting for the sweeper.
const participantSumQuery = `
SELECT COALESCE(SUM(adults + children), 0)
FROM bookings
WHERE product_id = $1 AND date = $2 AND "time" = $3
  AND (status = 'confirmed' OR (status = 'pending' AND (expires_at IS NULL OR expires_at > NOW())))`

// SumParticipants returns the seats consumed for one slot occurrence.
func (r *BookingRepository) SumParticipants(ctx context.Context, productID int64, date time.Time, slotTime string) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, participantSumQuery, productID, date, slotTime); err != nil {
		return 0, fmt.Errorf("sum slot participants: %w", err)
	}
	return total, nil
}

// TryReserve atomically checks remaining capacity and inserts the booking.
// Writers for the same slot key are serialised with a transaction-scoped
// advisory lock; the aggregate is recomputed under that lock, so two customers
// racing for the last seats cannot both succeed. Returns ErrCapacityExceeded
// when the party does not fit. Context cancellation aborts the transaction.
func (r *BookingRepository) TryReserve(ctx context.Context, booking *models.Booking, capacityTotal int) error {
	if booking.ID == "" {
		booking.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if booking.CreatedAt.IsZero() {
		booking.CreatedAt = now
	}
	booking.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reserve: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	lockKey := slotLockKey(booking.ProductID, booking.Date, booking.Time)
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, lockKey); err != nil {
		return fmt.Errorf("acquire slot lock: %w", err)
	}

	var booked int
	if err := tx.GetContext(ctx, &booked, participantSumQuery, booking.ProductID, booking.Date, booking.Time); err != nil {
		return fmt.Errorf("recheck slot capacity: %w", err)
	}
	if booked+booking.PartySize() > capacityTotal {
		return appErrors.Clone(appErrors.ErrCapacityExceeded, fmt.Sprintf("slot has %d of %d seats left", capacityTotal-booked, capacityTotal))
	}

	const insert = `INSERT INTO bookings (id, product_id, date, "time", adults, children, status, expires_at, created_at, updated_at) VALUES (:id, :product_id, :date, :time, :adults, :children, :status, :expires_at, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, tx, insert, booking); err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit reserve: %w", err)
	}
	return nil
}

// FindByID loads a booking by id.
func (r *BookingRepository) FindByID(ctx context.Context, id string) (*models.Booking, error) {
	query := fmt.Sprintf(`SELECT %s FROM bookings WHERE id = $1`, bookingColumns)
	var booking models.Booking
	if err := r.db.GetContext(ctx, &booking, query, id); err != nil {
		return nil, err
	}
	return &booking, nil
}

// UpdateStatus transitions a booking. Transition legality is enforced by the
// service; this only persists the new state.
func (r *BookingRepository) UpdateStatus(ctx context.Context, id string, status models.BookingStatus) error {
	res, err := r.db.ExecContext(ctx, `UPDATE bookings SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("update booking status: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "booking not found")
	}
	return nil
}

// ListForDay returns bookings for a slot day ordered by time, for manifests and
// admin listings.
func (r *BookingRepository) ListForDay(ctx context.Context, productID int64, date time.Time) ([]models.Booking, error) {
	query := fmt.Sprintf(`SELECT %s FROM bookings WHERE product_id = $1 AND date = $2 ORDER BY "time" ASC, created_at ASC`, bookingColumns)
	var bookings []models.Booking
	if err := r.db.SelectContext(ctx, &bookings, query, productID, date); err != nil {
		return nil, fmt.Errorf("list bookings for day: %w", err)
	}
	return bookings, nil
}

// ExpireStalePending cancels pending bookings past expiry and returns the slot
// keys they occupied so their cache entries can be invalidated. Safe to run
// concurrently with TryReserve: expired pending rows are already excluded from
// the capacity sum, so the transition never double-frees seats.
func (r *BookingRepository) ExpireStalePending(ctx context.Context, now time.Time) ([]models.SlotKey, error) {
	const query = `
UPDATE bookings SET status = 'cancelled', updated_at = NOW()
WHERE status = 'pending' AND expires_at IS NOT NULL AND expires_at <= $1
RETURNING product_id, date, "time"`
	var keys []models.SlotKey
	if err := r.db.SelectContext(ctx, &keys, query, now); err != nil {
		return nil, fmt.Errorf("expire stale pending bookings: %w", err)
	}
	return keys, nil
}

func slotLockKey(productID int64, date time.Time, slotTime string) string {
	return fmt.Sprintf("booking:%d:%s:%s", productID, date.Format(models.DateFormat), slotTime)
}
