package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/solea-tours/experience-api/internal/models"
	appErrors "github.com/solea-tours/experience-api/pkg/errors"
)

type scheduleStoreStub struct {
	rules map[string][]models.ScheduleRule
	err   error
}

func scheduleKey(productID int64, dayOfWeek int) string {
	return fmt.Sprintf("%d/%d", productID, dayOfWeek)
}

func (s *scheduleStoreStub) ListActiveForDay(_ context.Context, productID int64, dayOfWeek int) ([]models.ScheduleRule, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.rules[scheduleKey(productID, dayOfWeek)], nil
}

type overrideStoreStub struct {
	overrides map[string]*models.DateOverride
	err       error
}

func overrideKey(productID int64, date time.Time) string {
	return fmt.Sprintf("%d/%s", productID, date.Format(models.DateFormat))
}

func (s *overrideStoreStub) Find(_ context.Context, productID int64, date time.Time) (*models.DateOverride, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.overrides[overrideKey(productID, date)], nil
}

type ledgerStub struct {
	booked map[string]int
	err    error
}

func (s *ledgerStub) SumParticipants(_ context.Context, productID int64, date time.Time, slotTime string) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	return s.booked[fmt.Sprintf("%d/%s/%s", productID, date.Format(models.DateFormat), slotTime)], nil
}

type settingsStub struct {
	settings map[int64]*models.ExperienceSettings
	err      error
}

func (s *settingsStub) FindSettings(_ context.Context, productID int64) (*models.ExperienceSettings, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.settings[productID], nil
}

type cacheRepoStub struct {
	entries         map[string][]byte
	deletedKeys     []string
	deletedPatterns []string
	getErr          error
}

func newCacheRepoStub() *cacheRepoStub {
	return &cacheRepoStub{entries: make(map[string][]byte)}
}

func (s *cacheRepoStub) Get(_ context.Context, key string, dest interface{}) error {
	if s.getErr != nil {
		return s.getErr
	}
	raw, ok := s.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (s *cacheRepoStub) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.entries[key] = raw
	return nil
}

func (s *cacheRepoStub) Delete(_ context.Context, key string) error {
	s.deletedKeys = append(s.deletedKeys, key)
	delete(s.entries, key)
	return nil
}

func (s *cacheRepoStub) DeleteByPattern(_ context.Context, pattern string) error {
	s.deletedPatterns = append(s.deletedPatterns, pattern)
	prefix := strings.Split(pattern, "*")[0]
	for key := range s.entries {
		if strings.HasPrefix(key, prefix) {
			delete(s.entries, key)
		}
	}
	return nil
}

type availabilityFixture struct {
	svc       *AvailabilityService
	schedules *scheduleStoreStub
	overrides *overrideStoreStub
	ledger    *ledgerStub
	settings  *settingsStub
	cache     *cacheRepoStub
	date      time.Time
}

// saturday is a Saturday (weekday 6); the fixture clock reads 08:00 UTC that
// morning, so with the 120 minute default cutoff slots from 10:00 on are open.
const saturday = "2026-09-12"

func newAvailabilityFixture(t *testing.T) *availabilityFixture {
	t.Helper()
	date, err := time.Parse(models.DateFormat, saturday)
	require.NoError(t, err)

	f := &availabilityFixture{
		schedules: &scheduleStoreStub{rules: make(map[string][]models.ScheduleRule)},
		overrides: &overrideStoreStub{overrides: make(map[string]*models.DateOverride)},
		ledger:    &ledgerStub{booked: make(map[string]int)},
		settings:  &settingsStub{settings: make(map[int64]*models.ExperienceSettings)},
		cache:     newCacheRepoStub(),
		date:      date,
	}
	metrics := NewMetricsService()
	cacheSvc := NewCacheService(f.cache, metrics, time.Minute, zap.NewNop(), true)
	f.svc = NewAvailabilityService(f.schedules, f.overrides, f.ledger, f.settings, cacheSvc, metrics, time.UTC, 120, zap.NewNop())
	f.svc.now = func() time.Time {
		return time.Date(2026, 9, 12, 8, 0, 0, 0, time.UTC)
	}
	return f
}

func (f *availabilityFixture) addRule(id string, productID int64, startTime string, capacity int) {
	f.schedules.rules[scheduleKey(productID, 6)] = append(f.schedules.rules[scheduleKey(productID, 6)], models.ScheduleRule{
		ID:          id,
		ProductID:   productID,
		DayOfWeek:   6,
		StartTime:   startTime,
		DurationMin: 120,
		Capacity:    capacity,
		Lang:        "en",
		PriceAdult:  45,
		PriceChild:  25,
		IsActive:    true,
	})
}

func TestAvailabilityResolveNormalDay(t *testing.T) {
	f := newAvailabilityFixture(t)
	f.addRule("s2", 42, "14:30:00", 8)
	f.addRule("s1", 42, "10:00:00", 10)
	f.ledger.booked["42/2026-09-12/10:00"] = 6

	slots, err := f.svc.Resolve(context.Background(), 42, f.date)
	require.NoError(t, err)
	require.Len(t, slots, 2)

	assert.Equal(t, "10:00", slots[0].StartTime)
	assert.Equal(t, "12:00", slots[0].EndTime)
	assert.Equal(t, 10, slots[0].CapacityTotal)
	assert.Equal(t, 6, slots[0].CapacityBooked)
	assert.Equal(t, 4, slots[0].CapacityLeft)
	assert.Equal(t, 45.0, slots[0].AdultPrice)
	assert.True(t, slots[0].Available)
	assert.False(t, slots[0].CutoffPassed)

	assert.Equal(t, "14:30", slots[1].StartTime)
	assert.Equal(t, 8, slots[1].CapacityLeft)
}

func TestAvailabilityResolveNoRulesYieldsEmptyDay(t *testing.T) {
	f := newAvailabilityFixture(t)
	// An override on a ruleless day cannot invent slots.
	capacity := 20
	f.overrides.overrides[overrideKey(42, f.date)] = &models.DateOverride{ProductID: 42, Date: f.date, CapacityOverride: &capacity}

	slots, err := f.svc.Resolve(context.Background(), 42, f.date)
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestAvailabilityResolveProductClosure(t *testing.T) {
	f := newAvailabilityFixture(t)
	f.addRule("s1", 42, "10:00:00", 10)
	f.overrides.overrides[overrideKey(42, f.date)] = &models.DateOverride{ProductID: 42, Date: f.date, IsClosed: true}

	slots, err := f.svc.Resolve(context.Background(), 42, f.date)
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestAvailabilityResolveGlobalClosureBeatsProductOverride(t *testing.T) {
	f := newAvailabilityFixture(t)
	f.addRule("s1", 42, "10:00:00", 10)
	capacity := 50
	f.overrides.overrides[overrideKey(42, f.date)] = &models.DateOverride{ProductID: 42, Date: f.date, CapacityOverride: &capacity}
	f.overrides.overrides[overrideKey(models.GlobalScopeProductID, f.date)] = &models.DateOverride{ProductID: models.GlobalScopeProductID, Date: f.date, IsClosed: true}

	slots, err := f.svc.Resolve(context.Background(), 42, f.date)
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestAvailabilityResolveOverrideModifiers(t *testing.T) {
	f := newAvailabilityFixture(t)
	f.addRule("s1", 42, "10:00:00", 10)
	capacity := 4
	adult := 39.5
	f.overrides.overrides[overrideKey(42, f.date)] = &models.DateOverride{
		ProductID:        42,
		Date:             f.date,
		CapacityOverride: &capacity,
		PriceOverride:    &models.PriceOverride{Adult: &adult},
	}
	f.ledger.booked["42/2026-09-12/10:00"] = 4

	slots, err := f.svc.Resolve(context.Background(), 42, f.date)
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, 4, slots[0].CapacityTotal)
	assert.Equal(t, 0, slots[0].CapacityLeft)
	assert.Equal(t, 39.5, slots[0].AdultPrice)
	// Child price falls back to the rule.
	assert.Equal(t, 25.0, slots[0].ChildPrice)
	assert.False(t, slots[0].Available)
}

func TestAvailabilityResolveNegativeCapacityOverrideIgnored(t *testing.T) {
	f := newAvailabilityFixture(t)
	f.addRule("s1", 42, "10:00:00", 10)
	capacity := -3
	f.overrides.overrides[overrideKey(42, f.date)] = &models.DateOverride{ProductID: 42, Date: f.date, CapacityOverride: &capacity}

	slots, err := f.svc.Resolve(context.Background(), 42, f.date)
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, 10, slots[0].CapacityTotal)
}

func TestAvailabilityResolveDuplicateRuleLowestIDWins(t *testing.T) {
	f := newAvailabilityFixture(t)
	// Stub returns rules in store order (start_time, id), mirroring the query.
	f.addRule("s1", 42, "10:00:00", 10)
	f.addRule("s9", 42, "10:00:00", 99)

	slots, err := f.svc.Resolve(context.Background(), 42, f.date)
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, "s1", slots[0].ScheduleID)
	assert.Equal(t, 10, slots[0].CapacityTotal)
}

func TestAvailabilityResolveCutoff(t *testing.T) {
	f := newAvailabilityFixture(t)
	f.addRule("s1", 42, "09:00:00", 10)
	f.addRule("s2", 42, "10:00:00", 10)

	slots, err := f.svc.Resolve(context.Background(), 42, f.date)
	require.NoError(t, err)
	require.Len(t, slots, 2)

	// 09:00 minus 120m cutoff was 07:00; the 08:00 clock is past it.
	assert.True(t, slots[0].CutoffPassed)
	assert.False(t, slots[0].Available)
	// 10:00 minus 120m is exactly the current time; the boundary is still open.
	assert.False(t, slots[1].CutoffPassed)
	assert.True(t, slots[1].Available)
}

func TestAvailabilityResolvePerProductCutoff(t *testing.T) {
	f := newAvailabilityFixture(t)
	f.addRule("s1", 42, "10:00:00", 10)
	f.settings.settings[42] = &models.ExperienceSettings{ProductID: 42, CutoffMinutes: 180}

	slots, err := f.svc.Resolve(context.Background(), 42, f.date)
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.True(t, slots[0].CutoffPassed)
}

func TestAvailabilityResolveStorageErrorPropagates(t *testing.T) {
	f := newAvailabilityFixture(t)
	f.schedules.err = errors.New("connection refused")

	_, err := f.svc.Resolve(context.Background(), 42, f.date)
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrStorageUnavailable.Code, appErr.Code)
}

func TestAvailabilityResolveLedgerErrorPropagates(t *testing.T) {
	f := newAvailabilityFixture(t)
	f.addRule("s1", 42, "10:00:00", 10)
	f.ledger.err = errors.New("connection refused")

	_, err := f.svc.Resolve(context.Background(), 42, f.date)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrStorageUnavailable.Code, appErrors.FromError(err).Code)
}

func TestAvailabilityGetOrComputeCachesResult(t *testing.T) {
	f := newAvailabilityFixture(t)
	f.addRule("s1", 42, "10:00:00", 10)

	day, hit, err := f.svc.GetOrCompute(context.Background(), 42, f.date)
	require.NoError(t, err)
	assert.False(t, hit)
	require.Len(t, day.Slots, 1)
	assert.Contains(t, f.cache.entries, "availability:42:2026-09-12")

	// A second read is served from cache even after the rules change.
	f.schedules.rules = map[string][]models.ScheduleRule{}
	cached, hit, err := f.svc.GetOrCompute(context.Background(), 42, f.date)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Len(t, cached.Slots, 1)
}

func TestAvailabilityGetOrComputeFallsThroughOnCacheFailure(t *testing.T) {
	f := newAvailabilityFixture(t)
	f.addRule("s1", 42, "10:00:00", 10)
	f.cache.getErr = errors.New("redis gone")

	day, hit, err := f.svc.GetOrCompute(context.Background(), 42, f.date)
	require.NoError(t, err)
	assert.False(t, hit)
	require.Len(t, day.Slots, 1)
}

func TestAvailabilityFindSlot(t *testing.T) {
	f := newAvailabilityFixture(t)
	f.addRule("s1", 42, "10:00:00", 10)

	slot, err := f.svc.FindSlot(context.Background(), 42, f.date, "10:00")
	require.NoError(t, err)
	assert.Equal(t, "s1", slot.ScheduleID)

	_, err = f.svc.FindSlot(context.Background(), 42, f.date, "11:00")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrSlotNotFound.Code, appErrors.FromError(err).Code)
}

func TestAvailabilityCheckSlot(t *testing.T) {
	f := newAvailabilityFixture(t)
	f.addRule("s1", 42, "10:00:00", 10)
	f.ledger.booked["42/2026-09-12/10:00"] = 8

	ok, err := f.svc.CheckSlot(context.Background(), 42, f.date, "10:00", 2)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.svc.CheckSlot(context.Background(), 42, f.date, "10:00", 3)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = f.svc.CheckSlot(context.Background(), 42, f.date, "23:00", 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAvailabilityResolveIsDeterministic(t *testing.T) {
	f := newAvailabilityFixture(t)
	f.addRule("s1", 42, "10:00:00", 10)
	f.addRule("s2", 42, "14:30:00", 8)
	f.ledger.booked["42/2026-09-12/10:00"] = 3

	first, err := f.svc.Resolve(context.Background(), 42, f.date)
	require.NoError(t, err)
	second, err := f.svc.Resolve(context.Background(), 42, f.date)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
