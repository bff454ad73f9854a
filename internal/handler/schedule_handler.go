package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/solea-tours/experience-api/internal/models"
	"github.com/solea-tours/experience-api/internal/service"
	appErrors "github.com/solea-tours/experience-api/pkg/errors"
	"github.com/solea-tours/experience-api/pkg/response"
)

type scheduleService interface {
	ListByProduct(ctx context.Context, productID int64) ([]models.ScheduleRule, error)
	Create(ctx context.Context, req service.ScheduleRuleRequest) (*models.ScheduleRule, error)
	Update(ctx context.Context, id string, req service.ScheduleRuleRequest) (*models.ScheduleRule, error)
	Delete(ctx context.Context, id string) error
	DeleteByProduct(ctx context.Context, productID int64) error
}

// ScheduleHandler exposes the recurring rule admin endpoints.
type ScheduleHandler struct {
	schedules scheduleService
}

// NewScheduleHandler constructs the handler.
func NewScheduleHandler(schedules scheduleService) *ScheduleHandler {
	return &ScheduleHandler{schedules: schedules}
}

// List godoc
// @Summary List recurring rules for a product
// @Tags Schedules
// @Produce json
// @Param productId path int true "Product id"
// @Success 200 {object} response.Envelope
// @Router /products/{productId}/schedules [get]
func (h *ScheduleHandler) List(c *gin.Context) {
	productID, err := productIDParam(c, "productId")
	if err != nil {
		response.Error(c, err)
		return
	}
	rules, err := h.schedules.ListByProduct(c.Request.Context(), productID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rules, nil)
}

// Create godoc
// @Summary Create a recurring rule
// @Tags Schedules
// @Accept json
// @Produce json
// @Param payload body service.ScheduleRuleRequest true "Rule payload"
// @Success 201 {object} response.Envelope
// @Router /schedules [post]
func (h *ScheduleHandler) Create(c *gin.Context) {
	var req service.ScheduleRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	rule, err := h.schedules.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, rule)
}

// Update godoc
// @Summary Update a recurring rule
// @Tags Schedules
// @Accept json
// @Produce json
// @Param id path string true "Rule id"
// @Param payload body service.ScheduleRuleRequest true "Rule payload"
// @Success 200 {object} response.Envelope
// @Router /schedules/{id} [put]
func (h *ScheduleHandler) Update(c *gin.Context) {
	var req service.ScheduleRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	rule, err := h.schedules.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rule, nil)
}

// Delete godoc
// @Summary Delete a recurring rule
// @Tags Schedules
// @Param id path string true "Rule id"
// @Success 204
// @Router /schedules/{id} [delete]
func (h *ScheduleHandler) Delete(c *gin.Context) {
	if err := h.schedules.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// DeleteByProduct godoc
// @Summary Delete every rule for a product
// @Tags Schedules
// @Param productId path int true "Product id"
// @Success 204
// @Router /products/{productId}/schedules [delete]
func (h *ScheduleHandler) DeleteByProduct(c *gin.Context) {
	productID, err := productIDParam(c, "productId")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.schedules.DeleteByProduct(c.Request.Context(), productID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
