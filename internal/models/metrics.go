package models

import "time"

// SystemMetrics is a lightweight aggregate snapshot exposed on the status
// endpoint, alongside the full Prometheus registry.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	ResolveCount             uint64    `json:"resolve_count"`
	AverageResolveDurationMs float64   `json:"average_resolve_duration_ms"`
	ReservationsAccepted     uint64    `json:"reservations_accepted"`
	ReservationsRejected     uint64    `json:"reservations_rejected"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
