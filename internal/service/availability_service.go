package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/solea-tours/experience-api/internal/models"
	appErrors "github.com/solea-tours/experience-api/pkg/errors"
)

type scheduleStore interface {
	ListActiveForDay(ctx context.Context, productID int64, dayOfWeek int) ([]models.ScheduleRule, error)
}

type overrideStore interface {
	Find(ctx context.Context, productID int64, date time.Time) (*models.DateOverride, error)
}

type bookingLedger interface {
	SumParticipants(ctx context.Context, productID int64, date time.Time, slotTime string) (int, error)
}

type cutoffPolicy interface {
	FindSettings(ctx context.Context, productID int64) (*models.ExperienceSettings, error)
}

// AvailabilityService resolves the authoritative slot list for a (product,
// date) pair by merging recurring rules, date overrides and the booking
// ledger. Resolve is a pure function of the stores' current state.
type AvailabilityService struct {
	schedules scheduleStore
	overrides overrideStore
	ledger    bookingLedger
	settings  cutoffPolicy
	cache     *CacheService
	metrics   *MetricsService
	logger    *zap.Logger

	location      *time.Location
	defaultCutoff int
	now           func() time.Time
}

// NewAvailabilityService constructs the resolver.
func NewAvailabilityService(schedules scheduleStore, overrides overrideStore, ledger bookingLedger, settings cutoffPolicy, cache *CacheService, metrics *MetricsService, location *time.Location, defaultCutoffMinutes int, logger *zap.Logger) *AvailabilityService {
	if location == nil {
		location = time.UTC
	}
	if defaultCutoffMinutes < 0 {
		defaultCutoffMinutes = 0
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AvailabilityService{
		schedules:     schedules,
		overrides:     overrides,
		ledger:        ledger,
		settings:      settings,
		cache:         cache,
		metrics:       metrics,
		logger:        logger,
		location:      location,
		defaultCutoff: defaultCutoffMinutes,
		now:           time.Now,
	}
}

// resolution carries state across the precedence steps for one invocation.
type resolution struct {
	productID int64
	date      time.Time
	dayOfWeek int
	override  *models.DateOverride
	slots     []models.ResolvedSlot
}

type resolveStep struct {
	name string
	run  func(ctx context.Context, rc *resolution) (halt bool, err error)
}

// policy is the precedence order as data: global closure beats product
// closure beats override modifiers beats base rules. A halting step ends the
// fold with the slots accumulated so far.
func (s *AvailabilityService) policy() []resolveStep {
	return []resolveStep{
		{name: "global_closure", run: s.stepGlobalClosure},
		{name: "product_closure", run: s.stepProductClosure},
		{name: "base_rules", run: s.stepBaseRules},
		{name: "override_modifiers", run: s.stepOverrideModifiers},
		{name: "booked_capacity", run: s.stepBookedCapacity},
		{name: "cutoff", run: s.stepCutoff},
	}
}

// Resolve computes the ordered slot list for a product and calendar date.
// Store failures surface as STORAGE_UNAVAILABLE; they are never collapsed into
// an empty result.
func (s *AvailabilityService) Resolve(ctx context.Context, productID int64, date time.Time) ([]models.ResolvedSlot, error) {
	start := s.now()
	rc := &resolution{
		productID: productID,
		date:      s.normalizeDate(date),
	}
	rc.dayOfWeek = int(rc.date.Weekday())

	for _, step := range s.policy() {
		halt, err := step.run(ctx, rc)
		if err != nil {
			return nil, err
		}
		if halt {
			break
		}
	}

	sort.SliceStable(rc.slots, func(i, j int) bool {
		return rc.slots[i].StartTime < rc.slots[j].StartTime
	})
	s.metrics.ObserveResolve(time.Since(start))
	if rc.slots == nil {
		rc.slots = []models.ResolvedSlot{}
	}
	return rc.slots, nil
}

// GetOrCompute is the read-through cache entry point. The boolean reports a
// cache hit. Cache read failures are logged and fall through to the resolver:
// a broken cache degrades latency, never correctness.
func (s *AvailabilityService) GetOrCompute(ctx context.Context, productID int64, date time.Time) (*models.DayAvailability, bool, error) {
	date = s.normalizeDate(date)
	key := AvailabilityKey(productID, date)

	var cached models.DayAvailability
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return &cached, true, nil
	}

	slots, err := s.Resolve(ctx, productID, date)
	if err != nil {
		return nil, false, err
	}
	day := &models.DayAvailability{
		ProductID: productID,
		Date:      date.Format(models.DateFormat),
		Slots:     slots,
	}
	if err := s.cache.Set(ctx, key, day, 0); err != nil {
		s.logger.Warn("cache availability", zap.Error(err))
	}
	return day, false, nil
}

// FindSlot resolves the day fresh and returns the slot starting at slotTime,
// or ErrSlotNotFound. Used by the booking flow, which must not trust cached
// capacity.
func (s *AvailabilityService) FindSlot(ctx context.Context, productID int64, date time.Time, slotTime string) (*models.ResolvedSlot, error) {
	normalized, err := normalizeClock(slotTime)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid slot time")
	}
	slots, err := s.Resolve(ctx, productID, date)
	if err != nil {
		return nil, err
	}
	for i := range slots {
		if slots[i].StartTime == normalized {
			return &slots[i], nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrSlotNotFound, "")
}

// CheckSlot reports whether the slot at slotTime can take a party of the given
// size right now.
func (s *AvailabilityService) CheckSlot(ctx context.Context, productID int64, date time.Time, slotTime string, partySize int) (bool, error) {
	slot, err := s.FindSlot(ctx, productID, date, slotTime)
	if err != nil {
		if appErr := appErrors.FromError(err); appErr.Code == appErrors.ErrSlotNotFound.Code {
			return false, nil
		}
		return false, err
	}
	return slot.Available && slot.CapacityLeft >= partySize, nil
}

func (s *AvailabilityService) stepGlobalClosure(ctx context.Context, rc *resolution) (bool, error) {
	override, err := s.overrides.Find(ctx, models.GlobalScopeProductID, rc.date)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "override store unavailable")
	}
	// A global closure yields zero slots for every product and cannot be
	// reopened at product scope.
	return override != nil && override.IsClosed, nil
}

func (s *AvailabilityService) stepProductClosure(ctx context.Context, rc *resolution) (bool, error) {
	override, err := s.overrides.Find(ctx, rc.productID, rc.date)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "override store unavailable")
	}
	rc.override = override
	return override != nil && override.IsClosed, nil
}

func (s *AvailabilityService) stepBaseRules(ctx context.Context, rc *resolution) (bool, error) {
	rules, err := s.schedules.ListActiveForDay(ctx, rc.productID, rc.dayOfWeek)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "schedule store unavailable")
	}
	// No recurring rule for this weekday means no slots. An override can only
	// restrict or modify a day that already has rules, never invent one.
	if len(rules) == 0 {
		return true, nil
	}

	seen := make(map[string]string, len(rules))
	for _, rule := range rules {
		startTime, err := normalizeClock(rule.StartTime)
		if err != nil {
			s.logger.Warn("schedule rule has unparseable start time",
				zap.String("schedule_id", rule.ID),
				zap.String("start_time", rule.StartTime))
			continue
		}
		// Duplicate active rules for the same slot instance: the lowest id
		// drives it, the rest are skipped.
		if winner, dup := seen[startTime]; dup {
			s.logger.Warn("ambiguous schedule rule skipped",
				zap.String("schedule_id", rule.ID),
				zap.String("winning_schedule_id", winner),
				zap.Int64("product_id", rc.productID),
				zap.String("start_time", startTime))
			continue
		}
		seen[startTime] = rule.ID

		var meetingPoint *int64
		if rule.MeetingPointID.Valid {
			mp := rule.MeetingPointID.Int64
			meetingPoint = &mp
		}
		rc.slots = append(rc.slots, models.ResolvedSlot{
			ScheduleID:     rule.ID,
			StartTime:      startTime,
			EndTime:        addMinutes(startTime, rule.DurationMin),
			CapacityTotal:  rule.Capacity,
			AdultPrice:     rule.PriceAdult,
			ChildPrice:     rule.PriceChild,
			Language:       rule.Lang,
			MeetingPointID: meetingPoint,
		})
	}
	return len(rc.slots) == 0, nil
}

func (s *AvailabilityService) stepOverrideModifiers(ctx context.Context, rc *resolution) (bool, error) {
	override := rc.override
	if override == nil {
		return false, nil
	}
	// Date overrides apply uniformly to every slot on the date.
	for i := range rc.slots {
		if override.CapacityOverride != nil {
			if *override.CapacityOverride < 0 {
				s.logger.Warn("ignoring negative capacity override",
					zap.String("override_id", override.ID),
					zap.Int64("product_id", rc.productID),
					zap.Int("capacity_override", *override.CapacityOverride))
			} else {
				rc.slots[i].CapacityTotal = *override.CapacityOverride
			}
		}
		if override.PriceOverride != nil {
			if override.PriceOverride.Adult != nil {
				rc.slots[i].AdultPrice = *override.PriceOverride.Adult
			}
			if override.PriceOverride.Child != nil {
				rc.slots[i].ChildPrice = *override.PriceOverride.Child
			}
		}
	}
	return false, nil
}

func (s *AvailabilityService) stepBookedCapacity(ctx context.Context, rc *resolution) (bool, error) {
	for i := range rc.slots {
		booked, err := s.ledger.SumParticipants(ctx, rc.productID, rc.date, rc.slots[i].StartTime)
		if err != nil {
			return false, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "booking ledger unavailable")
		}
		rc.slots[i].CapacityBooked = booked
		left := rc.slots[i].CapacityTotal - booked
		if left < 0 {
			left = 0
		}
		rc.slots[i].CapacityLeft = left
	}
	return false, nil
}

func (s *AvailabilityService) stepCutoff(ctx context.Context, rc *resolution) (bool, error) {
	cutoffMinutes, err := s.cutoffMinutes(ctx, rc.productID)
	if err != nil {
		return false, err
	}
	now := s.now().In(s.location)
	for i := range rc.slots {
		slotStart, err := s.slotDateTime(rc.date, rc.slots[i].StartTime)
		if err != nil {
			return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "invalid slot start time")
		}
		deadline := slotStart.Add(-time.Duration(cutoffMinutes) * time.Minute)
		rc.slots[i].CutoffPassed = now.After(deadline)
		rc.slots[i].Available = rc.slots[i].CapacityLeft > 0 && !rc.slots[i].CutoffPassed
	}
	return false, nil
}

func (s *AvailabilityService) cutoffMinutes(ctx context.Context, productID int64) (int, error) {
	settings, err := s.settings.FindSettings(ctx, productID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "settings store unavailable")
	}
	if settings == nil || settings.CutoffMinutes < 0 {
		return s.defaultCutoff, nil
	}
	return settings.CutoffMinutes, nil
}

// normalizeDate truncates to midnight in the site timezone.
func (s *AvailabilityService) normalizeDate(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, s.location)
}

func (s *AvailabilityService) slotDateTime(date time.Time, clock string) (time.Time, error) {
	parsed, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(date.Year(), date.Month(), date.Day(), parsed.Hour(), parsed.Minute(), 0, 0, s.location), nil
}

// normalizeClock accepts "15:04" or "15:04:05" and returns "15:04".
func normalizeClock(raw string) (string, error) {
	for _, layout := range []string{"15:04:05", "15:04"} {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed.Format("15:04"), nil
		}
	}
	return "", fmt.Errorf("invalid clock value %q", raw)
}

func addMinutes(clock string, minutes int) string {
	parsed, err := time.Parse("15:04", clock)
	if err != nil {
		return clock
	}
	return parsed.Add(time.Duration(minutes) * time.Minute).Format("15:04")
}
