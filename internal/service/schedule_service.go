package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/solea-tours/experience-api/internal/models"
	appErrors "github.com/solea-tours/experience-api/pkg/errors"
)

type scheduleRepo interface {
	ListByProduct(ctx context.Context, productID int64) ([]models.ScheduleRule, error)
	FindByID(ctx context.Context, id string) (*models.ScheduleRule, error)
	Create(ctx context.Context, rule *models.ScheduleRule) error
	Update(ctx context.Context, rule *models.ScheduleRule) error
	Delete(ctx context.Context, id string) error
	DeleteByProduct(ctx context.Context, productID int64) error
}

// ScheduleRuleRequest is the payload for creating or updating a recurring rule.
type ScheduleRuleRequest struct {
	ProductID      int64   `json:"product_id" validate:"required,gt=0"`
	DayOfWeek      int     `json:"day_of_week" validate:"gte=0,lte=6"`
	StartTime      string  `json:"start_time" validate:"required"`
	DurationMin    int     `json:"duration_min" validate:"required,gt=0"`
	Capacity       int     `json:"capacity" validate:"required,gt=0"`
	Lang           string  `json:"lang" validate:"omitempty,len=2"`
	MeetingPointID *int64  `json:"meeting_point_id"`
	PriceAdult     float64 `json:"price_adult" validate:"gte=0"`
	PriceChild     float64 `json:"price_child" validate:"gte=0"`
	IsActive       *bool   `json:"is_active"`
}

// ScheduleService manages recurring weekly slot rules. Every write invalidates
// the product's whole cache namespace because a rule affects all future
// occurrences of its weekday.
type ScheduleService struct {
	schedules scheduleRepo
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewScheduleService constructs ScheduleService.
func NewScheduleService(schedules scheduleRepo, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *ScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{schedules: schedules, cache: cache, validator: validate, logger: logger}
}

// ListByProduct returns every rule for a product.
func (s *ScheduleService) ListByProduct(ctx context.Context, productID int64) ([]models.ScheduleRule, error) {
	rules, err := s.schedules.ListByProduct(ctx, productID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "schedule store unavailable")
	}
	return rules, nil
}

// Create stores a new rule and invalidates the product's cached availability.
func (s *ScheduleService) Create(ctx context.Context, req ScheduleRuleRequest) (*models.ScheduleRule, error) {
	rule, err := s.fromRequest(req)
	if err != nil {
		return nil, err
	}
	if err := s.schedules.Create(ctx, rule); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "schedule store unavailable")
	}
	s.invalidateProduct(ctx, rule.ProductID)
	s.logger.Info("schedule rule created",
		zap.String("schedule_id", rule.ID),
		zap.Int64("product_id", rule.ProductID),
		zap.Int("day_of_week", rule.DayOfWeek),
		zap.String("start_time", rule.StartTime))
	return rule, nil
}

// Update replaces a rule's fields and invalidates the product's cached
// availability.
func (s *ScheduleService) Update(ctx context.Context, id string, req ScheduleRuleRequest) (*models.ScheduleRule, error) {
	existing, err := s.schedules.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "schedule rule not found")
	}
	rule, err := s.fromRequest(req)
	if err != nil {
		return nil, err
	}
	rule.ID = existing.ID
	rule.ProductID = existing.ProductID
	rule.CreatedAt = existing.CreatedAt
	if err := s.schedules.Update(ctx, rule); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "schedule store unavailable")
	}
	s.invalidateProduct(ctx, rule.ProductID)
	return rule, nil
}

// Delete removes a rule and invalidates the product's cached availability.
func (s *ScheduleService) Delete(ctx context.Context, id string) error {
	existing, err := s.schedules.FindByID(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "schedule rule not found")
	}
	if err := s.schedules.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "schedule store unavailable")
	}
	s.invalidateProduct(ctx, existing.ProductID)
	s.logger.Info("schedule rule deleted", zap.String("schedule_id", id), zap.Int64("product_id", existing.ProductID))
	return nil
}

// DeleteByProduct removes every rule for a product, for the product deletion
// cascade.
func (s *ScheduleService) DeleteByProduct(ctx context.Context, productID int64) error {
	if err := s.schedules.DeleteByProduct(ctx, productID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "schedule store unavailable")
	}
	s.invalidateProduct(ctx, productID)
	return nil
}

func (s *ScheduleService) fromRequest(req ScheduleRuleRequest) (*models.ScheduleRule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}
	startTime, err := normalizeClock(req.StartTime)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start_time must be formatted as HH:MM")
	}
	rule := &models.ScheduleRule{
		ProductID:   req.ProductID,
		DayOfWeek:   req.DayOfWeek,
		StartTime:   startTime,
		DurationMin: req.DurationMin,
		Capacity:    req.Capacity,
		Lang:        req.Lang,
		PriceAdult:  req.PriceAdult,
		PriceChild:  req.PriceChild,
		IsActive:    true,
	}
	if req.IsActive != nil {
		rule.IsActive = *req.IsActive
	}
	if req.MeetingPointID != nil {
		rule.MeetingPointID.Valid = true
		rule.MeetingPointID.Int64 = *req.MeetingPointID
	}
	return rule, nil
}

func (s *ScheduleService) invalidateProduct(ctx context.Context, productID int64) {
	if err := s.cache.InvalidateProduct(ctx, productID); err != nil {
		s.logger.Warn("product cache invalidation failed", zap.Int64("product_id", productID), zap.Error(err))
	}
}
