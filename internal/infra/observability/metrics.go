package observability

import (
	"time"

	"github.com/caribe/factoring-bfa-go/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration   *prometheus.HistogramVec
	requestsTotal     *prometheus.CounterVec
	mutations         *prometheus.CounterVec
	statusTransitions *prometheus.CounterVec
	storeErrors       *prometheus.CounterVec
	cacheHits         *prometheus.CounterVec
	cacheMisses       *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "factoring_request_duration_seconds",
				Help:    "Duration of service calls by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "factoring_requests_total",
				Help: "Total service calls by outcome.",
			},
			[]string{"status"},
		),
		mutations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "factoring_mutations_total",
				Help: "Committed state mutations by entity and action.",
			},
			[]string{"entity", "action"},
		),
		statusTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "factoring_status_transitions_total",
				Help: "Operation status changes.",
			},
			[]string{"from", "to"},
		),
		storeErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "factoring_store_errors_total",
				Help: "Persistence failures by backend.",
			},
			[]string{"backend"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "factoring_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "factoring_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrRequest increments the request counter with a status label
// ("success" or "error").
func (m *Metrics) IncrRequest(status string) {
	m.requestsTotal.WithLabelValues(status).Inc()
}

// IncrMutation counts a committed change to an entity.
func (m *Metrics) IncrMutation(entity, action string) {
	m.mutations.WithLabelValues(entity, action).Inc()
}

// IncrStatusTransition counts an operation moving between statuses.
func (m *Metrics) IncrStatusTransition(from, to domain.OperationStatus) {
	m.statusTransitions.WithLabelValues(string(from), string(to)).Inc()
}

// IncrStoreError increments the persistence error counter.
func (m *Metrics) IncrStoreError(backend string) {
	m.storeErrors.WithLabelValues(backend).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// GetSummary returns a snapshot of the counters suitable for the
// GET /v1/metrics/summary endpoint.
func (m *Metrics) GetSummary() *domain.MetricsSummary {
	success := getCounterValue(m.requestsTotal, "success")
	errorCount := getCounterValue(m.requestsTotal, "error")
	totalRequests := success + errorCount

	s := &domain.MetricsSummary{
		TotalRequests:     int64(totalRequests),
		Mutations:         map[string]int64{},
		StatusTransitions: map[string]int64{},
		StoreErrors:       map[string]int64{},
		Period:            "all_time",
	}
	if totalRequests > 0 {
		s.ErrorRate = errorCount / totalRequests
	}

	families, err := m.Registry.Gather()
	if err != nil {
		return s
	}

	var hits, misses, latencySum float64
	var latencyCount uint64
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			labels := labelMap(metric)
			switch mf.GetName() {
			case "factoring_mutations_total":
				s.Mutations[labels["entity"]+"."+labels["action"]] += int64(metric.GetCounter().GetValue())
			case "factoring_status_transitions_total":
				s.StatusTransitions[labels["from"]+"->"+labels["to"]] += int64(metric.GetCounter().GetValue())
			case "factoring_store_errors_total":
				s.StoreErrors[labels["backend"]] += int64(metric.GetCounter().GetValue())
			case "factoring_cache_hits_total":
				hits += metric.GetCounter().GetValue()
			case "factoring_cache_misses_total":
				misses += metric.GetCounter().GetValue()
			case "factoring_request_duration_seconds":
				latencySum += metric.GetHistogram().GetSampleSum()
				latencyCount += metric.GetHistogram().GetSampleCount()
			}
		}
	}
	if hits+misses > 0 {
		s.CacheHitRate = hits / (hits + misses)
	}
	if latencyCount > 0 {
		s.AvgLatencyMs = latencySum / float64(latencyCount) * 1000
	}
	return s
}

func labelMap(m *dto.Metric) map[string]string {
	out := make(map[string]string, len(m.GetLabel()))
	for _, lp := range m.GetLabel() {
		out[lp.GetName()] = lp.GetValue()
	}
	return out
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	counter := cv.WithLabelValues(label)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
