package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/solea-tours/experience-api/internal/models"
	appErrors "github.com/solea-tours/experience-api/pkg/errors"
)

type dayResolver interface {
	GetOrCompute(ctx context.Context, productID int64, date time.Time) (*models.DayAvailability, bool, error)
}

// RangeAvailability is the per-date result of a range scan.
type RangeAvailability struct {
	Date        string                `json:"date"`
	Slots       []models.ResolvedSlot `json:"slots"`
	HasBookable bool                  `json:"has_bookable"`
}

// ArchiveService answers range queries over resolved availability: the
// calendar view and the "is this product sellable at all" probe that drives
// listing visibility.
type ArchiveService struct {
	resolver     dayResolver
	logger       *zap.Logger
	location     *time.Location
	maxRangeDays int
}

// NewArchiveService constructs ArchiveService.
func NewArchiveService(resolver dayResolver, location *time.Location, maxRangeDays int, logger *zap.Logger) *ArchiveService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if location == nil {
		location = time.UTC
	}
	if maxRangeDays <= 0 {
		maxRangeDays = 90
	}
	return &ArchiveService{resolver: resolver, logger: logger, location: location, maxRangeDays: maxRangeDays}
}

// Range resolves every date in [from, to] inclusive, newest dates last. The
// window is capped; oversized requests are rejected rather than truncated.
func (s *ArchiveService) Range(ctx context.Context, productID int64, from, to time.Time) ([]RangeAvailability, error) {
	days, err := s.rangeDays(from, to)
	if err != nil {
		return nil, err
	}
	results := make([]RangeAvailability, 0, days)
	for date := from; !date.After(to); date = date.AddDate(0, 0, 1) {
		day, _, err := s.resolver.GetOrCompute(ctx, productID, date)
		if err != nil {
			return nil, err
		}
		results = append(results, RangeAvailability{
			Date:        day.Date,
			Slots:       day.Slots,
			HasBookable: day.HasBookableSlot(),
		})
	}
	return results, nil
}

// HasAnyAvailability reports whether the product has at least one bookable
// slot inside the window. It short-circuits on the first hit, so the common
// case touches a single cached day.
func (s *ArchiveService) HasAnyAvailability(ctx context.Context, productID int64, from, to time.Time) (bool, error) {
	if _, err := s.rangeDays(from, to); err != nil {
		return false, err
	}
	for date := from; !date.After(to); date = date.AddDate(0, 0, 1) {
		day, _, err := s.resolver.GetOrCompute(ctx, productID, date)
		if err != nil {
			return false, err
		}
		if day.HasBookableSlot() {
			return true, nil
		}
	}
	return false, nil
}

func (s *ArchiveService) rangeDays(from, to time.Time) (int, error) {
	if to.Before(from) {
		return 0, appErrors.Clone(appErrors.ErrValidation, "range end precedes range start")
	}
	days := int(to.Sub(from).Hours()/24) + 1
	if days > s.maxRangeDays {
		return 0, appErrors.Clone(appErrors.ErrValidation, "requested range exceeds the maximum window")
	}
	return days, nil
}
