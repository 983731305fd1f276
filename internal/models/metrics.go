package models

import "time"

// SystemMetrics is a point-in-time summary of process instrumentation.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	FetchesTotal             uint64    `json:"fetches_total"`
	FetchFailures            uint64    `json:"fetch_failures"`
	AverageFetchDurationMs   float64   `json:"average_fetch_duration_ms"`
	JobsTotal                uint64    `json:"jobs_total"`
	JobFailures              uint64    `json:"job_failures"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
