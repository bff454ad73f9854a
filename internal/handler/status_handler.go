package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/solea-tours/experience-api/internal/service"
	"github.com/solea-tours/experience-api/pkg/response"
)

// StatusHandler exposes liveness, readiness and observability endpoints.
type StatusHandler struct {
	db      *sqlx.DB
	redis   *redis.Client
	metrics *service.MetricsService
}

// NewStatusHandler constructs the handler.
func NewStatusHandler(db *sqlx.DB, redisClient *redis.Client, metrics *service.MetricsService) *StatusHandler {
	return &StatusHandler{db: db, redis: redisClient, metrics: metrics}
}

// Health responds with a generic OK payload for liveness probes.
func (h *StatusHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready reports readiness by pinging the backing stores. Redis being down does
// not fail readiness; the resolver works without its cache.
func (h *StatusHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := gin.H{"database": "ok", "cache": "ok"}
	status := http.StatusOK

	if h.db == nil {
		checks["database"] = "not configured"
		status = http.StatusServiceUnavailable
	} else {
		start := time.Now()
		err := h.db.PingContext(ctx)
		h.metrics.ObserveDBQuery("ping", time.Since(start))
		if err != nil {
			checks["database"] = err.Error()
			status = http.StatusServiceUnavailable
		}
	}

	if h.redis == nil {
		checks["cache"] = "not configured"
	} else if err := h.redis.Ping(ctx).Err(); err != nil {
		checks["cache"] = err.Error()
	}

	c.JSON(status, gin.H{"status": statusWord(status), "checks": checks})
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *StatusHandler) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Status godoc
// @Summary Aggregated runtime metrics snapshot
// @Tags Status
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /status [get]
func (h *StatusHandler) Status(c *gin.Context) {
	snapshot := h.metrics.Snapshot()
	snapshot.GeneratedAt = snapshot.GeneratedAt.Truncate(time.Millisecond)
	response.JSON(c, http.StatusOK, snapshot, nil)
}

func statusWord(status int) string {
	if status == http.StatusOK {
		return "ready"
	}
	return "degraded"
}
