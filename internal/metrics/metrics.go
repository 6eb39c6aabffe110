// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ReactionsTotal counts engagement operations by op (add, replace, remove, noop) and reaction type.
	ReactionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "social_reactions_total",
			Help: "Reaction operations by outcome and type",
		},
		[]string{"op", "type"},
	)

	// FriendTransitionsTotal counts friend lifecycle transitions.
	FriendTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "social_friend_transitions_total",
			Help: "Friend lifecycle transitions",
		},
		[]string{"transition"},
	)

	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "social_notifications_total",
			Help: "Notification fan-out attempts by type and result",
		},
		[]string{"type", "result"},
	)

	PresenceTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "social_presence_transitions_total",
			Help: "User presence zero-crossings",
		},
		[]string{"status"},
	)

	WebSocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "social_websocket_connections",
			Help: "Live websocket connections on this instance",
		},
	)

	// EventBusDroppedTotal counts side effects dropped because the queue was full.
	EventBusDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "social_event_bus_dropped_total",
			Help: "Events dropped by the async bus",
		},
		[]string{"kind"},
	)

	EventHandlerDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "social_event_handler_duration_seconds",
			Help:    "Time spent running bus handlers",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"kind"},
	)

	RealtimeEmitFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "social_realtime_emit_failures_total",
			Help: "Realtime emits that failed or were rejected by the breaker",
		},
		[]string{"event"},
	)

	// RepairEntriesTotal counts partial multi-document failures recorded for reconciliation.
	RepairEntriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "social_repair_entries_total",
			Help: "Partial failures recorded in the repair journal",
		},
		[]string{"operation"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "social_http_request_duration_seconds",
			Help:    "API request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

// ObserveHandler records how long an event handler ran.
func ObserveHandler(kind string, start time.Time) {
	EventHandlerDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
