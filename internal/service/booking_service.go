package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/solea-tours/experience-api/internal/models"
	appErrors "github.com/solea-tours/experience-api/pkg/errors"
)

type bookingStore interface {
	TryReserve(ctx context.Context, booking *models.Booking, capacityTotal int) error
	FindByID(ctx context.Context, id string) (*models.Booking, error)
	UpdateStatus(ctx context.Context, id string, status models.BookingStatus) error
	ListForDay(ctx context.Context, productID int64, date time.Time) ([]models.Booking, error)
	ExpireStalePending(ctx context.Context, now time.Time) ([]models.SlotKey, error)
}

type slotResolver interface {
	FindSlot(ctx context.Context, productID int64, date time.Time, slotTime string) (*models.ResolvedSlot, error)
}

// ReserveRequest is the payload for creating a pending reservation.
type ReserveRequest struct {
	ProductID int64  `json:"product_id" validate:"required,gt=0"`
	Date      string `json:"date" validate:"required"`
	Time      string `json:"time" validate:"required"`
	Adults    int    `json:"adults" validate:"gte=0"`
	Children  int    `json:"children" validate:"gte=0"`
}

// allowedTransitions is the booking state machine. Absent entries are illegal.
var allowedTransitions = map[models.BookingStatus][]models.BookingStatus{
	models.BookingPending:   {models.BookingConfirmed, models.BookingCancelled},
	models.BookingConfirmed: {models.BookingCancelled, models.BookingRefunded},
	models.BookingCancelled: {models.BookingRefunded},
}

// BookingService owns the reservation flow and the booking lifecycle. Reserve
// always re-resolves the slot fresh; the ledger's atomic check is the final
// word on capacity.
type BookingService struct {
	bookings   bookingStore
	resolver   slotResolver
	cache      *CacheService
	metrics    *MetricsService
	validator  *validator.Validate
	logger     *zap.Logger
	location   *time.Location
	pendingTTL time.Duration
	now        func() time.Time
}

// NewBookingService constructs BookingService.
func NewBookingService(bookings bookingStore, resolver slotResolver, cache *CacheService, metrics *MetricsService, location *time.Location, pendingTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *BookingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if location == nil {
		location = time.UTC
	}
	if pendingTTL <= 0 {
		pendingTTL = 15 * time.Minute
	}
	return &BookingService{
		bookings:   bookings,
		resolver:   resolver,
		cache:      cache,
		metrics:    metrics,
		validator:  validate,
		logger:     logger,
		location:   location,
		pendingTTL: pendingTTL,
		now:        time.Now,
	}
}

// Reserve creates a pending booking against one slot occurrence. It fails with
// SLOT_NOT_FOUND when no slot starts at the requested time, CUTOFF_PASSED when
// the sales window has closed, and CAPACITY_EXCEEDED when the party does not
// fit. On success the slot's cache entry is invalidated.
func (s *BookingService) Reserve(ctx context.Context, req ReserveRequest) (*models.Booking, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reservation payload")
	}
	if req.Adults+req.Children <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "party size must be at least one participant")
	}
	date, err := time.ParseInLocation(models.DateFormat, req.Date, s.location)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must be formatted as YYYY-MM-DD")
	}

	slot, err := s.resolver.FindSlot(ctx, req.ProductID, date, req.Time)
	if err != nil {
		s.metrics.RecordReservation(false)
		return nil, err
	}
	if slot.CutoffPassed {
		s.metrics.RecordReservation(false)
		return nil, appErrors.Clone(appErrors.ErrCutoffPassed, "")
	}

	expiresAt := s.now().Add(s.pendingTTL).UTC()
	booking := &models.Booking{
		ProductID: req.ProductID,
		Date:      date,
		Time:      slot.StartTime,
		Adults:    req.Adults,
		Children:  req.Children,
		Status:    models.BookingPending,
		ExpiresAt: &expiresAt,
	}
	if err := s.bookings.TryReserve(ctx, booking, slot.CapacityTotal); err != nil {
		s.metrics.RecordReservation(false)
		if appErr := appErrors.FromError(err); appErr.Code == appErrors.ErrCapacityExceeded.Code {
			return nil, err
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "booking ledger unavailable")
	}

	s.metrics.RecordReservation(true)
	s.invalidateSlot(ctx, booking.ProductID, booking.Date)
	s.logger.Info("reservation accepted",
		zap.String("booking_id", booking.ID),
		zap.Int64("product_id", booking.ProductID),
		zap.String("date", booking.Date.Format(models.DateFormat)),
		zap.String("time", booking.Time),
		zap.Int("party_size", booking.PartySize()))
	return booking, nil
}

// Confirm marks a pending booking as paid.
func (s *BookingService) Confirm(ctx context.Context, id string) (*models.Booking, error) {
	return s.transition(ctx, id, models.BookingConfirmed)
}

// Cancel releases a booking's seats.
func (s *BookingService) Cancel(ctx context.Context, id string) (*models.Booking, error) {
	return s.transition(ctx, id, models.BookingCancelled)
}

// Refund marks a booking as refunded. Seats were already released if the
// booking went through cancellation first.
func (s *BookingService) Refund(ctx context.Context, id string) (*models.Booking, error) {
	return s.transition(ctx, id, models.BookingRefunded)
}

// Get loads a booking by id.
func (s *BookingService) Get(ctx context.Context, id string) (*models.Booking, error) {
	booking, err := s.bookings.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "booking not found")
	}
	return booking, nil
}

// ListForDay returns every booking for a product on one date.
func (s *BookingService) ListForDay(ctx context.Context, productID int64, date time.Time) ([]models.Booking, error) {
	bookings, err := s.bookings.ListForDay(ctx, productID, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "booking ledger unavailable")
	}
	return bookings, nil
}

// transition applies the state machine. Re-applying the current status is a
// no-op so order webhooks can retry safely.
func (s *BookingService) transition(ctx context.Context, id string, target models.BookingStatus) (*models.Booking, error) {
	booking, err := s.bookings.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "booking not found")
	}
	if booking.Status == target {
		return booking, nil
	}
	if !transitionAllowed(booking.Status, target) {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition,
			fmt.Sprintf("cannot move booking from %s to %s", booking.Status, target))
	}

	if err := s.bookings.UpdateStatus(ctx, id, target); err != nil {
		return nil, err
	}

	previous := booking.Status
	booking.Status = target
	booking.UpdatedAt = s.now().UTC()

	// Capacity only changes when the booking crosses the counting boundary.
	if previous.CountsTowardCapacity() != target.CountsTowardCapacity() {
		s.invalidateSlot(ctx, booking.ProductID, booking.Date)
	}
	s.logger.Info("booking transitioned",
		zap.String("booking_id", booking.ID),
		zap.String("from", string(previous)),
		zap.String("to", string(target)))
	return booking, nil
}

// SweepExpired cancels pending bookings past their expiry and invalidates the
// affected slot cache entries. Returns the number of bookings swept.
func (s *BookingService) SweepExpired(ctx context.Context) (int, error) {
	keys, err := s.bookings.ExpireStalePending(ctx, s.now().UTC())
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "booking ledger unavailable")
	}
	seen := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		cacheKey := AvailabilityKey(key.ProductID, key.Date)
		if _, dup := seen[cacheKey]; dup {
			continue
		}
		seen[cacheKey] = struct{}{}
		s.invalidateSlot(ctx, key.ProductID, key.Date)
	}
	if len(keys) > 0 {
		s.logger.Info("swept expired pending bookings", zap.Int("count", len(keys)))
	}
	return len(keys), nil
}

func (s *BookingService) invalidateSlot(ctx context.Context, productID int64, date time.Time) {
	if err := s.cache.InvalidateSlot(ctx, productID, date); err != nil {
		s.logger.Warn("slot cache invalidation failed",
			zap.Int64("product_id", productID),
			zap.String("date", date.Format(models.DateFormat)),
			zap.Error(err))
	}
}

func transitionAllowed(from, to models.BookingStatus) bool {
	for _, allowed := range allowedTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
