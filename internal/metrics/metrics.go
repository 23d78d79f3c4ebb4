// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vaultshare_http_requests_total",
			Help: "HTTP requests by method, route and status.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vaultshare_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// AccessDecisions counts every evaluated request by method and outcome reason.
	AccessDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vaultshare_access_decisions_total",
			Help: "Access decisions by method and reason.",
		},
		[]string{"method", "reason"},
	)

	ViewsCounted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vaultshare_views_counted_total",
		Help: "Grants that started a new session and incremented a file's view counter.",
	})

	// AccountingDegraded counts grants whose view increment failed after the
	// content was already committed to be served.
	AccountingDegraded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vaultshare_accounting_degraded_total",
		Help: "Served grants whose view counter update failed.",
	})

	ScreenshotAttempts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vaultshare_screenshot_attempts_total",
		Help: "Screenshot attempts reported by viewers.",
	})

	FilesUploaded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vaultshare_files_uploaded_total",
		Help: "Files uploaded.",
	})

	CleanupDeleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vaultshare_cleanup_deleted_total",
			Help: "Files removed by the cleanup sweep, by reason.",
		},
		[]string{"reason"},
	)

	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vaultshare_notifications_total",
			Help: "Notification deliveries by template and status.",
		},
		[]string{"template", "status"},
	)
)
