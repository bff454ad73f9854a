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

type bookingService interface {
	Reserve(ctx context.Context, req service.ReserveRequest) (*models.Booking, error)
	Confirm(ctx context.Context, id string) (*models.Booking, error)
	Cancel(ctx context.Context, id string) (*models.Booking, error)
	Refund(ctx context.Context, id string) (*models.Booking, error)
	Get(ctx context.Context, id string) (*models.Booking, error)
	ListForDay(ctx context.Context, productID int64, date time.Time) ([]models.Booking, error)
}

// BookingHandler exposes the reservation flow and booking lifecycle endpoints.
type BookingHandler struct {
	bookings bookingService
	location *time.Location
}

// NewBookingHandler constructs the handler.
func NewBookingHandler(bookings bookingService, location *time.Location) *BookingHandler {
	if location == nil {
		location = time.UTC
	}
	return &BookingHandler{bookings: bookings, location: location}
}

// Reserve godoc
// @Summary Create a pending reservation for one slot
// @Tags Bookings
// @Accept json
// @Produce json
// @Param payload body service.ReserveRequest true "Reservation payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /bookings [post]
func (h *BookingHandler) Reserve(c *gin.Context) {
	var req service.ReserveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	booking, err := h.bookings.Reserve(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, booking)
}

// Get godoc
// @Summary Fetch one booking
// @Tags Bookings
// @Produce json
// @Param id path string true "Booking id"
// @Success 200 {object} response.Envelope
// @Router /bookings/{id} [get]
func (h *BookingHandler) Get(c *gin.Context) {
	booking, err := h.bookings.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, booking, nil)
}

// List godoc
// @Summary List bookings for a product and date
// @Tags Bookings
// @Produce json
// @Param product_id query int true "Product id"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /bookings [get]
func (h *BookingHandler) List(c *gin.Context) {
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
	bookings, err := h.bookings.ListForDay(c.Request.Context(), productID, date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, bookings, nil)
}

// Confirm godoc
// @Summary Confirm a pending booking
// @Tags Bookings
// @Produce json
// @Param id path string true "Booking id"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /bookings/{id}/confirm [post]
func (h *BookingHandler) Confirm(c *gin.Context) {
	h.transition(c, h.bookings.Confirm)
}

// Cancel godoc
// @Summary Cancel a booking and release its seats
// @Tags Bookings
// @Produce json
// @Param id path string true "Booking id"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /bookings/{id}/cancel [post]
func (h *BookingHandler) Cancel(c *gin.Context) {
	h.transition(c, h.bookings.Cancel)
}

// Refund godoc
// @Summary Mark a booking as refunded
// @Tags Bookings
// @Produce json
// @Param id path string true "Booking id"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /bookings/{id}/refund [post]
func (h *BookingHandler) Refund(c *gin.Context) {
	h.transition(c, h.bookings.Refund)
}

func (h *BookingHandler) transition(c *gin.Context, apply func(context.Context, string) (*models.Booking, error)) {
	booking, err := apply(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, booking, nil)
}
