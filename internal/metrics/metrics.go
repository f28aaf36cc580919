// Package metrics exposes the Prometheus collectors of the server.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "portfolio",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "portfolio",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "portfolio",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
		},
		[]string{"method", "route"},
	)

	fileDownloads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "portfolio",
			Subsystem: "delivery",
			Name:      "files_served_total",
			Help:      "Delivery and gallery files streamed to clients.",
		},
		[]string{"kind"},
	)

	orphanCleanups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "portfolio",
			Subsystem: "admin",
			Name:      "orphan_cleanup_runs_total",
			Help:      "Orphan cleanup runs by trigger and outcome.",
		},
		[]string{"trigger", "success"},
	)

	orphanObjectsDeleted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "portfolio",
			Subsystem: "admin",
			Name:      "orphan_objects_deleted_total",
			Help:      "Storage objects removed by orphan cleanup.",
		},
	)

	ordersPlaced = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "portfolio",
			Subsystem: "shop",
			Name:      "orders_placed_total",
			Help:      "Print-shop orders captured at checkout.",
		},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		fileDownloads,
		orphanCleanups,
		orphanObjectsDeleted,
		ordersPlaced,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// ObserveRequest records a finished HTTP request. route is the matched
// route template (e.g. /api/:slug), never the raw path.
func ObserveRequest(method, route string, status int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	method = strings.ToUpper(method)
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// InFlight tracks a request in the in-flight gauge. Call the returned func when done.
func InFlight() func() {
	httpInFlight.Inc()
	return httpInFlight.Dec
}

// RecordFileServed counts a streamed file; kind is "delivery" or "gallery".
func RecordFileServed(kind string) {
	fileDownloads.WithLabelValues(kind).Inc()
}

// RecordOrphanCleanup records a cleanup run and the number of objects it removed.
func RecordOrphanCleanup(trigger string, deleted int, success bool) {
	orphanCleanups.WithLabelValues(trigger, strconv.FormatBool(success)).Inc()
	if deleted > 0 {
		orphanObjectsDeleted.Add(float64(deleted))
	}
}

// RecordOrderPlaced counts a captured order.
func RecordOrderPlaced() {
	ordersPlaced.Inc()
}
