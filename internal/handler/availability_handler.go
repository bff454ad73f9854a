package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/solea-tours/experience-api/internal/middleware"
	"github.com/solea-tours/experience-api/internal/models"
	"github.com/solea-tours/experience-api/internal/service"
	appErrors "github.com/solea-tours/experience-api/pkg/errors"
	"github.com/solea-tours/experience-api/pkg/response"
)

type availabilityService interface {
	GetOrCompute(ctx context.Context, productID int64, date time.Time) (*models.DayAvailability, bool, error)
	CheckSlot(ctx context.Context, productID int64, date time.Time, slotTime string, partySize int) (bool, error)
}

type rangeService interface {
	Range(ctx context.Context, productID int64, from, to time.Time) ([]service.RangeAvailability, error)
	HasAnyAvailability(ctx context.Context, productID int64, from, to time.Time) (bool, error)
}

// AvailabilityHandler exposes the public availability read surface.
type AvailabilityHandler struct {
	availability availabilityService
	ranges       rangeService
	location     *time.Location
}

// NewAvailabilityHandler constructs the handler.
func NewAvailabilityHandler(availability availabilityService, ranges rangeService, location *time.Location) *AvailabilityHandler {
	if location == nil {
		location = time.UTC
	}
	return &AvailabilityHandler{availability: availability, ranges: ranges, location: location}
}

// Day godoc
// @Summary Resolved availability for one product and date
// @Tags Availability
// @Produce json
// @Param product_id query int true "Product id"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /availability [get]
func (h *AvailabilityHandler) Day(c *gin.Context) {
	productID, err := productIDParam(c, "product_id")
	if err != nil {
		response.Error(c, err)
		return
	}
	date, err := dateQuery(c, "date", h.location)
	if err != nil {
		response.Error(c, err)
		return
	}
	day, hit, err := h.availability.GetOrCompute(c.Request.Context(), productID, date)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, day, nil, middleware.ExtractMeta(c))
}

// Range godoc
// @Summary Resolved availability for a date range
// @Tags Availability
// @Produce json
// @Param product_id query int true "Product id"
// @Param from query string true "Range start (YYYY-MM-DD)"
// @Param to query string true "Range end (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /availability/range [get]
func (h *AvailabilityHandler) Range(c *gin.Context) {
	productID, err := productIDParam(c, "product_id")
	if err != nil {
		response.Error(c, err)
		return
	}
	from, err := dateQuery(c, "from", h.location)
	if err != nil {
		response.Error(c, err)
		return
	}
	to, err := dateQuery(c, "to", h.location)
	if err != nil {
		response.Error(c, err)
		return
	}
	days, err := h.ranges.Range(c.Request.Context(), productID, from, to)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"product_id": productID, "days": days}, nil)
}

// Check godoc
// @Summary Check whether one slot can take a party
// @Tags Availability
// @Produce json
// @Param product_id query int true "Product id"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Param time query string true "Slot start time (HH:MM)"
// @Param party query int true "Party size"
// @Success 200 {object} response.Envelope
// @Router /availability/check [get]
func (h *AvailabilityHandler) Check(c *gin.Context) {
	productID, err := productIDParam(c, "product_id")
	if err != nil {
		response.Error(c, err)
		return
	}
	date, err := dateQuery(c, "date", h.location)
	if err != nil {
		response.Error(c, err)
		return
	}
	slotTime := c.Query("time")
	party, convErr := parsePositiveInt(c.Query("party"))
	if slotTime == "" || convErr != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "time and a positive party are required"))
		return
	}
	ok, err := h.availability.CheckSlot(c.Request.Context(), productID, date, slotTime, party)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"bookable": ok}, nil)
}

// Bookable godoc
// @Summary Whether a product has any bookable slot inside a window
// @Tags Availability
// @Produce json
// @Param product_id query int true "Product id"
// @Param from query string true "Range start (YYYY-MM-DD)"
// @Param to query string true "Range end (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /availability/bookable [get]
func (h *AvailabilityHandler) Bookable(c *gin.Context) {
	productID, err := productIDParam(c, "product_id")
	if err != nil {
		response.Error(c, err)
		return
	}
	from, err := dateQuery(c, "from", h.location)
	if err != nil {
		response.Error(c, err)
		return
	}
	to, err := dateQuery(c, "to", h.location)
	if err != nil {
		response.Error(c, err)
		return
	}
	has, err := h.ranges.HasAnyAvailability(c.Request.Context(), productID, from, to)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"product_id": productID, "bookable": has}, nil)
}
