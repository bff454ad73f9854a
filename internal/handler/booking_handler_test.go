package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solea-tours/experience-api/internal/models"
	"github.com/solea-tours/experience-api/internal/service"
	appErrors "github.com/solea-tours/experience-api/pkg/errors"
)

type fakeBookingSrv struct {
	booking *models.Booking
	err     error
	lastReq service.ReserveRequest
}

func (f *fakeBookingSrv) Reserve(_ context.Context, req service.ReserveRequest) (*models.Booking, error) {
	f.lastReq = req
	return f.booking, f.err
}

func (f *fakeBookingSrv) Confirm(context.Context, string) (*models.Booking, error) {
	return f.booking, f.err
}

func (f *fakeBookingSrv) Cancel(context.Context, string) (*models.Booking, error) {
	return f.booking, f.err
}

func (f *fakeBookingSrv) Refund(context.Context, string) (*models.Booking, error) {
	return f.booking, f.err
}

func (f *fakeBookingSrv) Get(context.Context, string) (*models.Booking, error) {
	return f.booking, f.err
}

func (f *fakeBookingSrv) ListForDay(context.Context, int64, time.Time) ([]models.Booking, error) {
	return nil, f.err
}

func TestBookingHandlerReserveCreated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeBookingSrv{booking: &models.Booking{ID: "b1", ProductID: 42, Status: models.BookingPending}}
	handler := NewBookingHandler(srv, time.UTC)

	body := `{"product_id": 42, "date": "2026-09-12", "time": "10:00", "adults": 2, "children": 1}`
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/bookings", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Reserve(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, int64(42), srv.lastReq.ProductID)
	assert.Equal(t, 2, srv.lastReq.Adults)
}

func TestBookingHandlerReserveInvalidJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewBookingHandler(&fakeBookingSrv{}, time.UTC)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/bookings", strings.NewReader("{not json"))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Reserve(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBookingHandlerReserveCapacityConflict(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeBookingSrv{err: appErrors.Clone(appErrors.ErrCapacityExceeded, "")}
	handler := NewBookingHandler(srv, time.UTC)

	body := `{"product_id": 42, "date": "2026-09-12", "time": "10:00", "adults": 2}`
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/bookings", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Reserve(c)

	assert.Equal(t, http.StatusConflict, rec.Code)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "CAPACITY_EXCEEDED", envelope.Error["code"])
}

func TestBookingHandlerConfirm(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeBookingSrv{booking: &models.Booking{ID: "b1", Status: models.BookingConfirmed}}
	handler := NewBookingHandler(srv, time.UTC)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/bookings/b1/confirm", nil)
	c.Params = gin.Params{{Key: "id", Value: "b1"}}

	handler.Confirm(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "confirmed", envelope.Data["status"])
}

func TestBookingHandlerIllegalTransition(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeBookingSrv{err: appErrors.Clone(appErrors.ErrInvalidTransition, "")}
	handler := NewBookingHandler(srv, time.UTC)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/bookings/b1/refund", nil)
	c.Params = gin.Params{{Key: "id", Value: "b1"}}

	handler.Refund(c)

	assert.Equal(t, http.StatusConflict, rec.Code)
}
