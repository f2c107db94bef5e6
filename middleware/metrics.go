package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portal_http_requests_total",
		Help: "HTTP requests by method, route and status",
	}, []string{"method", "route", "status"})

	httpLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "portal_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	// UploadedFiles counts attachments accepted and stored.
	UploadedFiles = promauto.NewCounter(prometheus.CounterOpts{
		Name: "portal_uploaded_files_total",
		Help: "Attachments written to the upload directory",
	})

	// SoftDeletedFiles counts attachments moved to the recovery directory, by outcome.
	SoftDeletedFiles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portal_soft_deleted_files_total",
		Help: "Attachments moved to the recovery directory",
	}, []string{"result"})

	// RateImports counts exchange-rate sheet imports, by outcome.
	RateImports = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portal_exchange_rate_imports_total",
		Help: "Exchange-rate spreadsheet imports",
	}, []string{"result"})
)

// Metrics records request count and latency per matched route.
func Metrics() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		route := ctx.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequests.WithLabelValues(ctx.Request.Method, route, strconv.Itoa(ctx.Writer.Status())).Inc()
		httpLatency.WithLabelValues(ctx.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// MetricsHandler exposes the default Prometheus registry.
func MetricsHandler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
