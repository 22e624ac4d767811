package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RecordsExtractedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crafting_source_records_extracted_total",
			Help: "Total number of extracted records by component and outcome",
		},
		[]string{"component", "status"},
	)

	ExtractionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "crafting_source_extraction_duration_seconds",
			Help:    "Duration of one directory tree extraction in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"component"},
	)

	VersionRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crafting_source_version_runs_total",
			Help: "Total number of per-version aggregation runs",
		},
		[]string{"status"},
	)

	StoreOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crafting_source_store_operations_total",
			Help: "Total number of artifact store operations",
		},
		[]string{"operation", "status"},
	)

	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "crafting_source_store_operation_duration_seconds",
			Help:    "Artifact store operation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	CacheOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crafting_source_cache_operations_total",
			Help: "Total number of cache lookups",
		},
		[]string{"cache", "status"},
	)

	RedisOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crafting_source_redis_operations_total",
			Help: "Total number of Redis operations",
		},
		[]string{"operation", "status"},
	)

	RedisOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "crafting_source_redis_operation_duration_seconds",
			Help:    "Redis operation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	QueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crafting_source_queries_total",
			Help: "Total number of versioned queries",
		},
		[]string{"operation"},
	)

	ServiceInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "crafting_source_info",
			Help: "Crafting source extractor information",
		},
		[]string{"version", "build_time"},
	)
)

func RecordExtraction(component string, ok, ignored, failed int, duration float64) {
	RecordsExtractedTotal.WithLabelValues(component, "ok").Add(float64(ok))
	RecordsExtractedTotal.WithLabelValues(component, "ignored").Add(float64(ignored))
	RecordsExtractedTotal.WithLabelValues(component, "error").Add(float64(failed))
	ExtractionDuration.WithLabelValues(component).Observe(duration)
}

func RecordVersionRun(status string) {
	VersionRunsTotal.WithLabelValues(status).Inc()
}

func RecordStoreOperation(operation, status string) {
	StoreOperationsTotal.WithLabelValues(operation, status).Inc()
}

func RecordStoreDuration(operation string, duration float64) {
	StoreOperationDuration.WithLabelValues(operation).Observe(duration)
}

func RecordCacheLookup(cache, status string) {
	CacheOperationsTotal.WithLabelValues(cache, status).Inc()
}

func RecordRedisOperation(operation, status string, duration float64) {
	RedisOperationsTotal.WithLabelValues(operation, status).Inc()
	RedisOperationDuration.WithLabelValues(operation).Observe(duration)
}

func RecordQuery(operation string) {
	QueriesTotal.WithLabelValues(operation).Inc()
}

// WriteTextfile dumps the default registry in the node_exporter textfile format.
// Batch runs have no scrape endpoint, so this is how their metrics leave the process.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
