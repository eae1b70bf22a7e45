package metrics

import (
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Buckets cover millisecond queries up to slow object storage uploads
	CustomAPIBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 3, 5, 8, 13}

	// HTTP Metrics
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_server_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: CustomAPIBuckets,
		},
		[]string{"http_request_method", "http_route", "http_response_status_code"},
	)

	HTTPRequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_server_request_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"http_request_method", "http_route", "http_response_status_code"},
	)

	ActiveRequests = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "http_server_active_requests",
			Help: "Number of active HTTP requests",
		},
		[]string{"http_request_method", "http_route"},
	)

	// Database Client Metrics (PostgreSQL)
	DBOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_client_operation_duration_seconds",
			Help:    "Database client operation duration in seconds",
			Buckets: CustomAPIBuckets,
		},
		[]string{"operation", "status"},
	)

	DBOperationTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_client_operation_total",
			Help: "Total number of database client operations",
		},
		[]string{"operation", "status"},
	)

	// Cache Metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache_name"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache_name"},
	)

	CacheSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cache_entries",
			Help: "Number of entries in cache",
		},
		[]string{"cache_name"},
	)

	// Storage Client Metrics (S3 compatible)
	StorageRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storage_client_operation_duration_seconds",
			Help:    "Storage client operation duration in seconds",
			Buckets: CustomAPIBuckets,
		},
		[]string{"operation", "status"},
	)

	StorageRequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storage_client_operation_total",
			Help: "Total number of storage client operations",
		},
		[]string{"operation", "status"},
	)

	// Search Client Metrics (Meilisearch)
	SearchRequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "search_client_operation_total",
			Help: "Total number of search client operations",
		},
		[]string{"operation", "backend", "status"},
	)

	// Change feed metrics
	ChangeEventsReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mentorconnect_change_events_total",
			Help: "Row change events received from the database",
		},
		[]string{"table", "op"},
	)

	ChangeEventsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mentorconnect_change_events_coalesced_total",
			Help: "Change events merged into an already pending delivery",
		},
	)

	ChangeSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mentorconnect_change_subscribers",
			Help: "Active change feed subscriptions",
		},
	)

	ListenerReconnects = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mentorconnect_listener_reconnects_total",
			Help: "Times the change listener re-established its connection",
		},
	)

	LiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mentorconnect_live_connections",
			Help: "Open live WebSocket connections",
		},
	)

	LiveRefetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mentorconnect_live_refetches_total",
			Help: "Live view re-fetches by outcome (applied, stale, error)",
		},
		[]string{"view", "outcome"},
	)

	Notifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mentorconnect_notifications_total",
			Help: "User notifications published",
		},
		[]string{"transport", "status"},
	)

	// Business Metrics
	RelationshipOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mentorconnect_relationship_operations_total",
			Help: "Relationship create and status change attempts",
		},
		[]string{"operation", "status"},
	)

	SessionOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mentorconnect_session_operations_total",
			Help: "Session create and update attempts",
		},
		[]string{"operation", "status"},
	)

	MessagesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mentorconnect_messages_sent_total",
			Help: "Messages sent",
		},
		[]string{"status"},
	)

	RatingsSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mentorconnect_ratings_submitted_total",
			Help: "Session ratings submitted",
		},
		[]string{"status"},
	)

	ProfileUpdates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mentorconnect_profile_updates_total",
			Help: "Total number of profile updates",
		},
		[]string{"operation", "status"},
	)

	StatsComputations = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mentorconnect_stats_compute_duration_seconds",
			Help:    "Duration of aggregate stats computation",
			Buckets: CustomAPIBuckets,
		},
		[]string{"role", "status"},
	)

	// Infrastructure Metrics
	GoRoutines = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "process_runtime_go_goroutines",
			Help: "Number of goroutines",
		},
	)

	HeapAlloc = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "process_runtime_go_mem_heap_alloc_bytes",
			Help: "Heap allocated bytes",
		},
	)
)

// RecordInfrastructureMetrics collects infrastructure metrics periodically
func RecordInfrastructureMetrics() {
	ticker := time.NewTicker(15 * time.Second)
	go func() {
		for range ticker.C {
			var m runtime.MemStats
			runtime.ReadMemStats(&m)

			GoRoutines.Set(float64(runtime.NumGoroutine()))
			HeapAlloc.Set(float64(m.HeapAlloc))
		}
	}()
}

// MeasureDuration measures the duration of an operation
func MeasureDuration(start time.Time) float64 {
	return time.Since(start).Seconds()
}

// Status turns an error into the "success"/"error" label used across metrics
func Status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// ObserveDB records one database operation
func ObserveDB(operation string, start time.Time, err error) {
	status := Status(err)
	DBOperationDuration.WithLabelValues(operation, status).Observe(MeasureDuration(start))
	DBOperationTotal.WithLabelValues(operation, status).Inc()
}
