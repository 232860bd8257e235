// Package observability provides metrics and tracing.
package observability

import (
	"sync"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PostViews counts view increments applied by post detail reads.
	PostViews = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quill_post_views_total",
		Help: "Total number of post detail reads that incremented a view counter",
	})

	// AccessDenials counts requests rejected by the access guard or the ownership check.
	AccessDenials = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quill_access_denials_total",
		Help: "Total number of rejected requests by reason",
	}, []string{"reason"})

	// CommentsCreated counts comments accepted into moderation.
	CommentsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quill_comments_created_total",
		Help: "Total number of comments created",
	})

	// RedisErrors counts Redis errors by command.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quill_redis_errors_total",
		Help: "Total number of Redis errors by command",
	}, []string{"command"})

	// DatabaseQueryLatency records repository latency by operation.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "quill_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
)

var (
	promOnce       sync.Once
	promMiddleware *fiberprometheus.FiberPrometheus
)

// InitMetrics returns the process-wide fiber request metrics middleware.
// fiberprometheus registers its collectors globally, so it is built once.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	promOnce.Do(func() {
		promMiddleware = fiberprometheus.New(serviceName)
	})
	return promMiddleware
}

// TrackQuery returns a function that records the latency of operation when called.
func TrackQuery(operation string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}
}
