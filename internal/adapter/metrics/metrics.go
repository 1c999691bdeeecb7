package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MenuMetrics holds all Prometheus metrics for the menu service.
type MenuMetrics struct {
	MenuRequests        *prometheus.CounterVec
	DirectoryLookups    *prometheus.CounterVec
	DirectoryCacheHits  prometheus.Counter
	DirectoryCacheMiss  prometheus.Counter
	ConnectionHits      prometheus.Counter
	ConnectionMisses    prometheus.Counter
	ConnectionEvictions prometheus.Counter
	FieldFetchFailures  *prometheus.CounterVec
	AggregationSeconds  prometheus.Histogram
	APIKeyCacheHits     prometheus.Counter
	APIKeyCacheMisses   prometheus.Counter
}

// NewMenuMetrics initializes the metrics and registers them with reg.
// Pass prometheus.DefaultRegisterer in production and a fresh registry in tests.
func NewMenuMetrics(reg prometheus.Registerer) *MenuMetrics {
	f := promauto.With(reg)
	return &MenuMetrics{
		MenuRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "menuhub",
			Subsystem: "http",
			Name:      "menu_requests_total",
			Help:      "Total number of menu requests by outcome.",
		}, []string{"outcome"}), // outcome: ok, invalid_link, not_found, unavailable, error
		DirectoryLookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "menuhub",
			Subsystem: "directory",
			Name:      "lookups_total",
			Help:      "Total number of directory lookups by kind and result.",
		}, []string{"kind", "result"}), // kind: exact, partial; result: hit, miss, ambiguous, error
		DirectoryCacheHits: f.NewCounter(prometheus.CounterOpts{
			Namespace: "menuhub",
			Subsystem: "directory",
			Name:      "cache_hits_total",
			Help:      "Total number of directory cache hits.",
		}),
		DirectoryCacheMiss: f.NewCounter(prometheus.CounterOpts{
			Namespace: "menuhub",
			Subsystem: "directory",
			Name:      "cache_misses_total",
			Help:      "Total number of directory cache misses.",
		}),
		ConnectionHits: f.NewCounter(prometheus.CounterOpts{
			Namespace: "menuhub",
			Subsystem: "connections",
			Name:      "cache_hits_total",
			Help:      "Total number of tenant connection cache hits.",
		}),
		ConnectionMisses: f.NewCounter(prometheus.CounterOpts{
			Namespace: "menuhub",
			Subsystem: "connections",
			Name:      "cache_misses_total",
			Help:      "Total number of tenant connection cache misses (new dials).",
		}),
		ConnectionEvictions: f.NewCounter(prometheus.CounterOpts{
			Namespace: "menuhub",
			Subsystem: "connections",
			Name:      "evictions_total",
			Help:      "Total number of tenant connections evicted or replaced.",
		}),
		FieldFetchFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "menuhub",
			Subsystem: "aggregator",
			Name:      "field_fetch_failures_total",
			Help:      "Total number of failed aggregator fetches that fell back to a default.",
		}, []string{"field"}),
		AggregationSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "menuhub",
			Subsystem: "aggregator",
			Name:      "pass_duration_seconds",
			Help:      "Duration of one aggregation pass.",
			Buckets:   prometheus.DefBuckets,
		}),
		APIKeyCacheHits: f.NewCounter(prometheus.CounterOpts{
			Namespace: "menuhub",
			Subsystem: "auth",
			Name:      "api_key_cache_hits_total",
			Help:      "Total number of admin API key cache hits.",
		}),
		APIKeyCacheMisses: f.NewCounter(prometheus.CounterOpts{
			Namespace: "menuhub",
			Subsystem: "auth",
			Name:      "api_key_cache_misses_total",
			Help:      "Total number of admin API key cache misses.",
		}),
	}
}
