package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/solea-tours/experience-api/internal/models"
	appErrors "github.com/solea-tours/experience-api/pkg/errors"
)

type bookingStoreStub struct {
	mu       sync.Mutex
	seq      int
	bookings map[string]*models.Booking
	expired  []models.SlotKey

	reserveErr error
	findErr    error
	updateErr  error
	expireErr  error
	updates    []string
}

func newBookingStoreStub() *bookingStoreStub {
	return &bookingStoreStub{bookings: make(map[string]*models.Booking)}
}

// TryReserve mirrors the ledger's semantics: the capacity check and insert are
// atomic under the lock, counting pending and confirmed bookings.
func (s *bookingStoreStub) TryReserve(_ context.Context, booking *models.Booking, capacityTotal int) error {
	if s.reserveErr != nil {
		return s.reserveErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	booked := 0
	for _, existing := range s.bookings {
		if existing.ProductID == booking.ProductID && existing.Time == booking.Time && existing.Status.CountsTowardCapacity() {
			booked += existing.PartySize()
		}
	}
	if booked+booking.PartySize() > capacityTotal {
		return appErrors.Clone(appErrors.ErrCapacityExceeded, "")
	}
	if booking.ID == "" {
		s.seq++
		booking.ID = fmt.Sprintf("b-%d", s.seq)
	}
	clone := *booking
	s.bookings[booking.ID] = &clone
	return nil
}

func (s *bookingStoreStub) FindByID(_ context.Context, id string) (*models.Booking, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	booking, ok := s.bookings[id]
	if !ok {
		return nil, errors.New("sql: no rows in result set")
	}
	clone := *booking
	return &clone, nil
}

func (s *bookingStoreStub) UpdateStatus(_ context.Context, id string, status models.BookingStatus) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates = append(s.updates, id+":"+string(status))
	if booking, ok := s.bookings[id]; ok {
		booking.Status = status
	}
	return nil
}

func (s *bookingStoreStub) ListForDay(_ context.Context, productID int64, _ time.Time) ([]models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []models.Booking
	for _, booking := range s.bookings {
		if booking.ProductID == productID {
			result = append(result, *booking)
		}
	}
	return result, nil
}

func (s *bookingStoreStub) ExpireStalePending(_ context.Context, _ time.Time) ([]models.SlotKey, error) {
	if s.expireErr != nil {
		return nil, s.expireErr
	}
	return s.expired, nil
}

type slotResolverStub struct {
	slot *models.ResolvedSlot
	err  error
}

func (s *slotResolverStub) FindSlot(context.Context, int64, time.Time, string) (*models.ResolvedSlot, error) {
	if s.err != nil {
		return nil, s.err
	}
	clone := *s.slot
	return &clone, nil
}

type bookingFixture struct {
	svc      *BookingService
	store    *bookingStoreStub
	resolver *slotResolverStub
	cache    *cacheRepoStub
	now      time.Time
}

func newBookingFixture(t *testing.T) *bookingFixture {
	t.Helper()
	f := &bookingFixture{
		store: newBookingStoreStub(),
		resolver: &slotResolverStub{slot: &models.ResolvedSlot{
			ScheduleID:    "s1",
			StartTime:     "10:00",
			EndTime:       "12:00",
			CapacityTotal: 10,
			CapacityLeft:  10,
			Available:     true,
		}},
		cache: newCacheRepoStub(),
		now:   time.Date(2026, 9, 12, 8, 0, 0, 0, time.UTC),
	}
	metrics := NewMetricsService()
	cacheSvc := NewCacheService(f.cache, metrics, time.Minute, zap.NewNop(), true)
	f.svc = NewBookingService(f.store, f.resolver, cacheSvc, metrics, time.UTC, 15*time.Minute, nil, zap.NewNop())
	f.svc.now = func() time.Time { return f.now }
	return f
}

func validReserveRequest() ReserveRequest {
	return ReserveRequest{ProductID: 42, Date: saturday, Time: "10:00", Adults: 2, Children: 1}
}

func TestBookingReserveSuccess(t *testing.T) {
	f := newBookingFixture(t)

	booking, err := f.svc.Reserve(context.Background(), validReserveRequest())
	require.NoError(t, err)
	assert.Equal(t, models.BookingPending, booking.Status)
	assert.Equal(t, "10:00", booking.Time)
	require.NotNil(t, booking.ExpiresAt)
	assert.Equal(t, f.now.Add(15*time.Minute), *booking.ExpiresAt)
	assert.Contains(t, f.cache.deletedKeys, "availability:42:2026-09-12")
}

func TestBookingReserveRejectsEmptyParty(t *testing.T) {
	f := newBookingFixture(t)
	req := validReserveRequest()
	req.Adults = 0
	req.Children = 0

	_, err := f.svc.Reserve(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, f.store.bookings)
}

func TestBookingReserveCutoffPassed(t *testing.T) {
	f := newBookingFixture(t)
	f.resolver.slot.CutoffPassed = true
	f.resolver.slot.Available = false

	_, err := f.svc.Reserve(context.Background(), validReserveRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrCutoffPassed.Code, appErrors.FromError(err).Code)
	assert.Empty(t, f.store.bookings)
	assert.Empty(t, f.cache.deletedKeys)
}

func TestBookingReserveSlotNotFound(t *testing.T) {
	f := newBookingFixture(t)
	f.resolver.err = appErrors.Clone(appErrors.ErrSlotNotFound, "")

	_, err := f.svc.Reserve(context.Background(), validReserveRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrSlotNotFound.Code, appErrors.FromError(err).Code)
}

func TestBookingReserveCapacityExceeded(t *testing.T) {
	f := newBookingFixture(t)
	f.resolver.slot.CapacityTotal = 2

	_, err := f.svc.Reserve(context.Background(), validReserveRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrCapacityExceeded.Code, appErrors.FromError(err).Code)
	assert.Empty(t, f.cache.deletedKeys)
}

// TestBookingReserveRace fires concurrent reservations at one slot and checks
// the ledger never oversells.
func TestBookingReserveRace(t *testing.T) {
	f := newBookingFixture(t)
	f.resolver.slot.CapacityTotal = 10

	var wg sync.WaitGroup
	accepted := make(chan struct{}, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := ReserveRequest{ProductID: 42, Date: saturday, Time: "10:00", Adults: 2}
			if _, err := f.svc.Reserve(context.Background(), req); err == nil {
				accepted <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(accepted)

	var wins int
	for range accepted {
		wins++
	}
	assert.Equal(t, 5, wins)

	total := 0
	for _, booking := range f.store.bookings {
		total += booking.PartySize()
	}
	assert.Equal(t, 10, total)
}

func TestBookingTransitions(t *testing.T) {
	f := newBookingFixture(t)
	booking, err := f.svc.Reserve(context.Background(), validReserveRequest())
	require.NoError(t, err)
	f.cache.deletedKeys = nil

	confirmed, err := f.svc.Confirm(context.Background(), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingConfirmed, confirmed.Status)
	// pending -> confirmed stays inside the counting set, no invalidation.
	assert.Empty(t, f.cache.deletedKeys)

	cancelled, err := f.svc.Cancel(context.Background(), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingCancelled, cancelled.Status)
	assert.Contains(t, f.cache.deletedKeys, "availability:42:2026-09-12")

	refunded, err := f.svc.Refund(context.Background(), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingRefunded, refunded.Status)
}

func TestBookingTransitionIdempotent(t *testing.T) {
	f := newBookingFixture(t)
	booking, err := f.svc.Reserve(context.Background(), validReserveRequest())
	require.NoError(t, err)

	_, err = f.svc.Confirm(context.Background(), booking.ID)
	require.NoError(t, err)
	updates := len(f.store.updates)

	// Re-applying the current status is a no-op for webhook retries.
	again, err := f.svc.Confirm(context.Background(), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingConfirmed, again.Status)
	assert.Len(t, f.store.updates, updates)
}

func TestBookingIllegalTransitions(t *testing.T) {
	f := newBookingFixture(t)
	booking, err := f.svc.Reserve(context.Background(), validReserveRequest())
	require.NoError(t, err)

	// pending -> refunded skips confirmation.
	_, err = f.svc.Refund(context.Background(), booking.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)

	_, err = f.svc.Cancel(context.Background(), booking.ID)
	require.NoError(t, err)
	_, err = f.svc.Confirm(context.Background(), booking.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)
}

func TestBookingTransitionNotFound(t *testing.T) {
	f := newBookingFixture(t)

	_, err := f.svc.Confirm(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestBookingSweepExpiredInvalidatesSlots(t *testing.T) {
	f := newBookingFixture(t)
	date, err := time.Parse(models.DateFormat, saturday)
	require.NoError(t, err)
	f.store.expired = []models.SlotKey{
		{ProductID: 42, Date: date, Time: "10:00"},
		{ProductID: 42, Date: date, Time: "14:30"},
		{ProductID: 7, Date: date, Time: "10:00"},
	}

	swept, err := f.svc.SweepExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, swept)
	// Two slot keys share a (product, date) cache entry.
	assert.ElementsMatch(t, []string{"availability:42:2026-09-12", "availability:7:2026-09-12"}, f.cache.deletedKeys)
}

func TestBookingSweepExpiredStorageError(t *testing.T) {
	f := newBookingFixture(t)
	f.store.expireErr = errors.New("connection refused")

	_, err := f.svc.SweepExpired(context.Background())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrStorageUnavailable.Code, appErrors.FromError(err).Code)
}
