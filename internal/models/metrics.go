package models

import "time"

// MetricsSnapshot is a lightweight JSON view over the Prometheus counters.
type MetricsSnapshot struct {
	RequestsTotal     uint64    `json:"requests_total"`
	SuggestionsTotal  uint64    `json:"suggestions_total"`
	OwnersSkipped     uint64    `json:"owners_skipped"`
	ConflictsRejected uint64    `json:"conflicts_rejected"`
	CacheHits         uint64    `json:"cache_hits"`
	CacheMisses       uint64    `json:"cache_misses"`
	CacheHitRatio     float64   `json:"cache_hit_ratio"`
	Goroutines        int       `json:"goroutines"`
	GeneratedAt       time.Time `json:"generated_at"`
}
