// Package metrics provides Prometheus instrumentation for the Carbon Risk Tracker API.
package metrics

import (
	"context"
	"database/sql"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "carbonrisk",
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by method, path pattern, and status code.",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration observes request latency by method and path.
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "carbonrisk",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// FootprintsCreatedTotal counts footprints stored, by source (manual, csv).
	FootprintsCreatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "carbonrisk",
			Name:      "footprints_created_total",
			Help:      "Total footprints created by source.",
		},
		[]string{"source"},
	)

	// EmissionsComputedKg accumulates CO2 mass computed by the calculator, by category.
	EmissionsComputedKg = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "carbonrisk",
			Name:      "emissions_computed_kg_total",
			Help:      "Total kg CO2 computed by the emission calculator, by category.",
		},
		[]string{"category"},
	)

	// CSVRowsTotal counts CSV import rows by result (imported, rejected).
	CSVRowsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "carbonrisk",
			Name:      "csv_rows_total",
			Help:      "Total CSV import rows processed by result.",
		},
		[]string{"result"},
	)

	// RiskEvaluationsTotal counts risk evaluation runs by outcome.
	RiskEvaluationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "carbonrisk",
			Name:      "risk_evaluations_total",
			Help:      "Total risk evaluation runs by outcome.",
		},
		[]string{"outcome"},
	)

	// RiskSignalsTotal counts persisted risk signals by hazard type.
	RiskSignalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "carbonrisk",
			Name:      "risk_signals_total",
			Help:      "Total risk signals persisted by hazard type.",
		},
		[]string{"hazard"},
	)

	// RiskEvaluationDuration observes how long a full evaluation run takes.
	RiskEvaluationDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "carbonrisk",
		Name:      "risk_evaluation_duration_seconds",
		Help:      "Risk evaluation duration in seconds.",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	})

	// DBOpenConnections tracks open database connections.
	DBOpenConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "carbonrisk", Name: "db_open_connections",
		Help: "Number of open database connections.",
	})
	// DBIdleConnections tracks idle database connections.
	DBIdleConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "carbonrisk", Name: "db_idle_connections",
		Help: "Number of idle database connections.",
	})
	// DBInUseConnections tracks in-use database connections.
	DBInUseConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "carbonrisk", Name: "db_in_use_connections",
		Help: "Number of in-use database connections.",
	})
	// DBWaitCount tracks the total number of connections waited for.
	DBWaitCount = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "carbonrisk", Name: "db_wait_count_total",
		Help: "Total number of connections waited for.",
	})
	// DBWaitDuration tracks total time waited for connections.
	DBWaitDuration = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "carbonrisk", Name: "db_wait_duration_seconds_total",
		Help: "Total time waited for connections in seconds.",
	})
	// GoroutineCount tracks the current number of goroutines.
	GoroutineCount = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "carbonrisk", Name: "goroutines",
		Help: "Current number of goroutines.",
	})
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		FootprintsCreatedTotal,
		EmissionsComputedKg,
		CSVRowsTotal,
		RiskEvaluationsTotal,
		RiskSignalsTotal,
		RiskEvaluationDuration,
		DBOpenConnections,
		DBIdleConnections,
		DBInUseConnections,
		DBWaitCount,
		DBWaitDuration,
		GoroutineCount,
	)
}

// StartDBStatsCollector periodically samples sql.DBStats and runtime goroutine
// count into Prometheus gauges. Call in a goroutine; exits when ctx is done.
func StartDBStatsCollector(ctx context.Context, db *sql.DB, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := db.Stats()
			DBOpenConnections.Set(float64(stats.OpenConnections))
			DBIdleConnections.Set(float64(stats.Idle))
			DBInUseConnections.Set(float64(stats.InUse))
			DBWaitCount.Set(float64(stats.WaitCount))
			DBWaitDuration.Set(stats.WaitDuration.Seconds())
			GoroutineCount.Set(float64(runtime.NumGoroutine()))
		}
	}
}

// Middleware returns a gin middleware that records request metrics.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		timer := prometheus.NewTimer(HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(), // Uses route pattern, not actual path (avoids cardinality explosion)
		))

		c.Next()

		timer.ObserveDuration()
		HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			statusBucket(c.Writer.Status()),
		).Inc()
	}
}

// Handler returns the Prometheus metrics HTTP handler for /metrics endpoint.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// statusBucket groups HTTP status codes into buckets (2xx, 3xx, 4xx, 5xx).
func statusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
