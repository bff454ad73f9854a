package handler

import (
	"github.com/gin-gonic/gin"
)

// Handlers aggregates every HTTP handler for route registration.
type Handlers struct {
	Availability *AvailabilityHandler
	Bookings     *BookingHandler
	Schedules    *ScheduleHandler
	Overrides    *OverrideHandler
	Products     *ProductHandler
	Exports      *ExportHandler
	Status       *StatusHandler
}

// RegisterRoutes wires every endpoint under the API prefix. Probes and metrics
// stay at the root.
func RegisterRoutes(r *gin.Engine, prefix string, h Handlers) {
	r.GET("/health", h.Status.Health)
	r.GET("/ready", h.Status.Ready)
	r.GET("/metrics", h.Status.Prometheus)

	api := r.Group(prefix)

	api.GET("/status", h.Status.Status)

	api.GET("/availability", h.Availability.Day)
	api.GET("/availability/range", h.Availability.Range)
	api.GET("/availability/check", h.Availability.Check)
	api.GET("/availability/bookable", h.Availability.Bookable)

	api.POST("/bookings", h.Bookings.Reserve)
	api.GET("/bookings", h.Bookings.List)
	api.GET("/bookings/:id", h.Bookings.Get)
	api.POST("/bookings/:id/confirm", h.Bookings.Confirm)
	api.POST("/bookings/:id/cancel", h.Bookings.Cancel)
	api.POST("/bookings/:id/refund", h.Bookings.Refund)

	api.POST("/schedules", h.Schedules.Create)
	api.PUT("/schedules/:id", h.Schedules.Update)
	api.DELETE("/schedules/:id", h.Schedules.Delete)

	api.PUT("/overrides", h.Overrides.Upsert)

	products := api.Group("/products/:productId")
	products.DELETE("", h.Products.Delete)
	products.GET("/schedules", h.Schedules.List)
	products.DELETE("/schedules", h.Schedules.DeleteByProduct)
	products.GET("/overrides", h.Overrides.List)
	products.DELETE("/overrides", h.Overrides.Delete)
	products.GET("/settings", h.Overrides.GetSettings)
	products.PUT("/settings", h.Overrides.UpsertSettings)
	if h.Exports != nil {
		products.GET("/manifest", h.Exports.Manifest)
	}
}
