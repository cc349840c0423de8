// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "clube",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route pattern and status.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	SalesConfirmed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "clube",
		Name:      "sales_confirmed_total",
		Help:      "Sales committed by the redemption engine.",
	})

	SalesRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "clube",
		Name:      "sales_rejected_total",
		Help:      "Sale confirmations rejected before commit, by error code.",
	}, []string{"code"})

	PointsRedeemed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "clube",
		Name:      "points_redeemed_total",
		Help:      "Points consumed by confirmed sales.",
	})

	SubscriptionsActivated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "clube",
		Name:      "subscriptions_activated_total",
		Help:      "Plans activated or renewed by a completed payment.",
	})

	SweepNotifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "clube",
		Name:      "sweep_notifications_total",
		Help:      "Notifications emitted by the expiration sweep, by type.",
	}, []string{"type"})

	SweepRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "clube",
		Name:      "sweep_runs_total",
		Help:      "Expiration sweep invocations by outcome.",
	}, []string{"outcome"})

	DeliveryFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "clube",
		Name:      "notification_delivery_failures_total",
		Help:      "Best-effort deliveries that failed, by channel.",
	}, []string{"channel"})

	WSConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "clube",
		Name:      "websocket_connections",
		Help:      "Open realtime websocket connections on this instance.",
	})

	WSEventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "clube",
		Name:      "websocket_events_dropped_total",
		Help:      "Realtime events dropped because a client send buffer was full.",
	})
)
