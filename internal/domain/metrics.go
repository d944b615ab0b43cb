package domain

// MetricsSummary is the GET /v1/metrics/summary payload, built from the
// process's cumulative counters.
type MetricsSummary struct {
	TotalRequests     int64            `json:"total_requests"`
	ErrorRate         float64          `json:"error_rate"`
	AvgLatencyMs      float64          `json:"avg_latency_ms"`
	CacheHitRate      float64          `json:"cache_hit_rate"`
	Mutations         map[string]int64 `json:"mutations"`          // "entity.action" → count
	StatusTransitions map[string]int64 `json:"status_transitions"` // "from->to" → count
	StoreErrors       map[string]int64 `json:"store_errors"`       // backend → count
	Period            string           `json:"period"`
}
