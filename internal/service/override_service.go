package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/solea-tours/experience-api/internal/models"
	appErrors "github.com/solea-tours/experience-api/pkg/errors"
)

type overrideRepo interface {
	Find(ctx context.Context, productID int64, date time.Time) (*models.DateOverride, error)
	ListByProduct(ctx context.Context, productID int64) ([]models.DateOverride, error)
	Upsert(ctx context.Context, override *models.DateOverride) error
	Delete(ctx context.Context, productID int64, date time.Time) error
	DeleteByProduct(ctx context.Context, productID int64) error
}

type settingsRepo interface {
	FindSettings(ctx context.Context, productID int64) (*models.ExperienceSettings, error)
	UpsertSettings(ctx context.Context, settings *models.ExperienceSettings) error
	DeleteSettings(ctx context.Context, productID int64) error
}

// OverrideRequest is the payload for creating or replacing a date override.
// ProductID 0 targets the global scope.
type OverrideRequest struct {
	ProductID        int64                 `json:"product_id" validate:"gte=0"`
	Date             string                `json:"date" validate:"required"`
	IsClosed         bool                  `json:"is_closed"`
	CapacityOverride *int                  `json:"capacity_override" validate:"omitempty,gte=0"`
	PriceOverride    *models.PriceOverride `json:"price_override"`
	Reason           string                `json:"reason" validate:"max=255"`
}

// SettingsRequest is the payload for per-product booking policy.
type SettingsRequest struct {
	CutoffMinutes int `json:"cutoff_minutes" validate:"gte=0"`
}

// OverrideService manages date exceptions and per-product policy. Writes
// follow the invalidation contract: a product override drops one cache entry,
// a global override drops the date across every product.
type OverrideService struct {
	overrides overrideRepo
	settings  settingsRepo
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
	location  *time.Location
}

// NewOverrideService constructs OverrideService.
func NewOverrideService(overrides overrideRepo, settings settingsRepo, cache *CacheService, location *time.Location, validate *validator.Validate, logger *zap.Logger) *OverrideService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if location == nil {
		location = time.UTC
	}
	return &OverrideService{overrides: overrides, settings: settings, cache: cache, validator: validate, logger: logger, location: location}
}

// Find returns the override for (product, date), or nil when none exists.
func (s *OverrideService) Find(ctx context.Context, productID int64, date time.Time) (*models.DateOverride, error) {
	override, err := s.overrides.Find(ctx, productID, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "override store unavailable")
	}
	return override, nil
}

// ListByProduct returns every override for a product.
func (s *OverrideService) ListByProduct(ctx context.Context, productID int64) ([]models.DateOverride, error) {
	overrides, err := s.overrides.ListByProduct(ctx, productID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "override store unavailable")
	}
	return overrides, nil
}

// Upsert creates or replaces the override for (product, date). One override
// per pair; a second write for the same pair replaces the first.
func (s *OverrideService) Upsert(ctx context.Context, req OverrideRequest) (*models.DateOverride, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid override payload")
	}
	date, err := time.ParseInLocation(models.DateFormat, req.Date, s.location)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must be formatted as YYYY-MM-DD")
	}

	override := &models.DateOverride{
		ProductID:        req.ProductID,
		Date:             date,
		IsClosed:         req.IsClosed,
		CapacityOverride: req.CapacityOverride,
		PriceOverride:    req.PriceOverride,
		Reason:           req.Reason,
	}
	if err := s.overrides.Upsert(ctx, override); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "override store unavailable")
	}
	s.invalidateForOverride(ctx, override.ProductID, date)
	s.logger.Info("date override saved",
		zap.String("override_id", override.ID),
		zap.Int64("product_id", override.ProductID),
		zap.String("date", req.Date),
		zap.Bool("is_closed", override.IsClosed))
	return override, nil
}

// Delete removes the override for (product, date).
func (s *OverrideService) Delete(ctx context.Context, productID int64, date time.Time) error {
	if err := s.overrides.Delete(ctx, productID, date); err != nil {
		return appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "override store unavailable")
	}
	s.invalidateForOverride(ctx, productID, date)
	return nil
}

// DeleteByProduct removes every override for a product, for the product
// deletion cascade. Global overrides are untouched.
func (s *OverrideService) DeleteByProduct(ctx context.Context, productID int64) error {
	if err := s.overrides.DeleteByProduct(ctx, productID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "override store unavailable")
	}
	if productID != models.GlobalScopeProductID {
		if err := s.cache.InvalidateProduct(ctx, productID); err != nil {
			s.logger.Warn("product cache invalidation failed", zap.Int64("product_id", productID), zap.Error(err))
		}
	}
	return nil
}

// DeleteSettings removes a product's booking policy so the config default
// applies again. The cutoff shift touches every cached day for the product.
func (s *OverrideService) DeleteSettings(ctx context.Context, productID int64) error {
	if err := s.settings.DeleteSettings(ctx, productID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "settings store unavailable")
	}
	if err := s.cache.InvalidateProduct(ctx, productID); err != nil {
		s.logger.Warn("product cache invalidation failed", zap.Int64("product_id", productID), zap.Error(err))
	}
	return nil
}

// GetSettings returns the effective settings for a product; absent rows fall
// back to the supplied default cutoff.
func (s *OverrideService) GetSettings(ctx context.Context, productID int64, defaultCutoffMinutes int) (*models.ExperienceSettings, error) {
	settings, err := s.settings.FindSettings(ctx, productID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "settings store unavailable")
	}
	if settings == nil {
		return &models.ExperienceSettings{ProductID: productID, CutoffMinutes: defaultCutoffMinutes}, nil
	}
	return settings, nil
}

// UpsertSettings replaces a product's booking policy. The cutoff affects every
// cached day, so the whole product namespace is invalidated.
func (s *OverrideService) UpsertSettings(ctx context.Context, productID int64, req SettingsRequest) (*models.ExperienceSettings, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid settings payload")
	}
	settings := &models.ExperienceSettings{ProductID: productID, CutoffMinutes: req.CutoffMinutes}
	if err := s.settings.UpsertSettings(ctx, settings); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "settings store unavailable")
	}
	if err := s.cache.InvalidateProduct(ctx, productID); err != nil {
		s.logger.Warn("product cache invalidation failed", zap.Int64("product_id", productID), zap.Error(err))
	}
	return settings, nil
}

func (s *OverrideService) invalidateForOverride(ctx context.Context, productID int64, date time.Time) {
	var err error
	if productID == models.GlobalScopeProductID {
		err = s.cache.InvalidateDate(ctx, date)
	} else {
		err = s.cache.InvalidateSlot(ctx, productID, date)
	}
	if err != nil {
		s.logger.Warn("override cache invalidation failed",
			zap.Int64("product_id", productID),
			zap.String("date", date.Format(models.DateFormat)),
			zap.Error(err))
	}
}
