package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "rate_ingestor"

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	cycles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "cycles_total",
			Help:      "Collection cycles by result (success, failure, skipped).",
		},
		[]string{"result"},
	)

	cycleDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "cycle_duration_seconds",
			Help:      "Duration of collection cycles.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
		},
	)

	stageItems = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "stage_items_total",
			Help:      "Items leaving each processing stage.",
		},
		[]string{"stage"},
	)

	rejectedSamples = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "rejected_samples_total",
			Help:      "Raw samples rejected by validation.",
		},
	)

	sourceRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "source",
			Name:      "requests_total",
			Help:      "Rate source fetches by source and outcome.",
		},
		[]string{"source", "success"},
	)

	sourceDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "source",
			Name:      "request_duration_seconds",
			Help:      "Duration of rate source fetches.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		},
		[]string{"source"},
	)

	dispatchedTasks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dispatcher",
			Name:      "tasks_total",
			Help:      "Detached tasks by name and outcome (ok, failed, dropped).",
		},
		[]string{"task", "outcome"},
	)

	queueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "dispatcher",
			Name:      "queue_depth",
			Help:      "Tasks waiting in the dispatcher queue.",
		},
	)

	maintenanceRows = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "maintenance",
			Name:      "rows_total",
			Help:      "Rows touched by maintenance jobs.",
		},
		[]string{"job"},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Ops API requests handled.",
		},
		[]string{"method", "path", "status"},
	)
)

func init() {
	Registry.MustRegister(
		cycles,
		cycleDuration,
		stageItems,
		rejectedSamples,
		sourceRequests,
		sourceDuration,
		dispatchedTasks,
		queueDepth,
		maintenanceRows,
		httpRequests,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// GinMiddleware counts ops API requests by route template.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		httpRequests.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
	}
}

// RecordCycle records the result of one collection cycle.
func RecordCycle(result string, duration time.Duration) {
	cycles.WithLabelValues(result).Inc()
	if duration > 0 {
		cycleDuration.Observe(duration.Seconds())
	}
}

// RecordStage records how many items left a pipeline stage.
func RecordStage(stage string, out int) {
	stageItems.WithLabelValues(stage).Add(float64(out))
}

// RecordRejected counts samples rejected by validation.
func RecordRejected(n int) {
	rejectedSamples.Add(float64(n))
}

// RecordSourceFetch records one rate source request.
func RecordSourceFetch(source string, success bool, duration time.Duration) {
	sourceRequests.WithLabelValues(source, strconv.FormatBool(success)).Inc()
	sourceDuration.WithLabelValues(source).Observe(duration.Seconds())
}

// RecordTask records the outcome of a dispatched task.
func RecordTask(task, outcome string) {
	dispatchedTasks.WithLabelValues(task, outcome).Inc()
}

// SetQueueDepth publishes the current dispatcher backlog.
func SetQueueDepth(n int) {
	queueDepth.Set(float64(n))
}

// RecordMaintenance adds rows touched by a maintenance job.
func RecordMaintenance(job string, rows int64) {
	maintenanceRows.WithLabelValues(job).Add(float64(rows))
}
