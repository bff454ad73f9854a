package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/solea-tours/experience-api/internal/models"
	"github.com/solea-tours/experience-api/internal/service"
	appErrors "github.com/solea-tours/experience-api/pkg/errors"
	"github.com/solea-tours/experience-api/pkg/response"
)

type overrideService interface {
	Find(ctx context.Context, productID int64, date time.Time) (*models.DateOverride, error)
	ListByProduct(ctx context.Context, productID int64) ([]models.DateOverride, error)
	Upsert(ctx context.Context, req service.OverrideRequest) (*models.DateOverride, error)
	Delete(ctx context.Context, productID int64, date time.Time) error
	GetSettings(ctx context.Context, productID int64, defaultCutoffMinutes int) (*models.ExperienceSettings, error)
	UpsertSettings(ctx context.Context, productID int64, req service.SettingsRequest) (*models.ExperienceSettings, error)
}

// OverrideHandler exposes date override and booking policy admin endpoints.
// Product id 0 addresses the global scope.
type OverrideHandler struct {
	overrides     overrideService
	location      *time.Location
	defaultCutoff int
}

// NewOverrideHandler constructs the handler.
func NewOverrideHandler(overrides overrideService, location *time.Location, defaultCutoffMinutes int) *OverrideHandler {
	if location == nil {
		location = time.UTC
	}
	return &OverrideHandler{overrides: overrides, location: location, defaultCutoff: defaultCutoffMinutes}
}

// List godoc
// @Summary List date overrides for a product
// @Tags Overrides
// @Produce json
// @Param productId path int true "Product id (0 for global)"
// @Success 200 {object} response.Envelope
// @Router /products/{productId}/overrides [get]
func (h *OverrideHandler) List(c *gin.Context) {
	productID, err := scopeParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	overrides, err := h.overrides.ListByProduct(c.Request.Context(), productID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, overrides, nil)
}

// Upsert godoc
// @Summary Create or replace the override for (product, date)
// @Tags Overrides
// @Accept json
// @Produce json
// @Param payload body service.OverrideRequest true "Override payload"
// @Success 200 {object} response.Envelope
// @Router /overrides [put]
func (h *OverrideHandler) Upsert(c *gin.Context) {
	var req service.OverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	override, err := h.overrides.Upsert(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, override, nil)
}

// Delete godoc
// @Summary Delete the override for (product, date)
// @Tags Overrides
// @Param productId path int true "Product id (0 for global)"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Success 204
// @Router /products/{productId}/overrides [delete]
func (h *OverrideHandler) Delete(c *gin.Context) {
	productID, err := scopeParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	date, err := dateQuery(c, "date", h.location)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.overrides.Delete(c.Request.Context(), productID, date); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// GetSettings godoc
// @Summary Effective booking policy for a product
// @Tags Settings
// @Produce json
// @Param productId path int true "Product id"
// @Success 200 {object} response.Envelope
// @Router /products/{productId}/settings [get]
func (h *OverrideHandler) GetSettings(c *gin.Context) {
	productID, err := productIDParam(c, "productId")
	if err != nil {
		response.Error(c, err)
		return
	}
	settings, err := h.overrides.GetSettings(c.Request.Context(), productID, h.defaultCutoff)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, settings, nil)
}

// UpsertSettings godoc
// @Summary Replace a product's booking policy
// @Tags Settings
// @Accept json
// @Produce json
// @Param productId path int true "Product id"
// @Param payload body service.SettingsRequest true "Settings payload"
// @Success 200 {object} response.Envelope
// @Router /products/{productId}/settings [put]
func (h *OverrideHandler) UpsertSettings(c *gin.Context) {
	productID, err := productIDParam(c, "productId")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.SettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	settings, err := h.overrides.UpsertSettings(c.Request.Context(), productID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, settings, nil)
}
