package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// WSConnections tracks currently open websocket connections.
	WSConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "togethermiles_ws_connections",
		Help: "Currently connected websocket clients",
	})

	// StreamEvents counts change-stream events delivered, by category and action.
	StreamEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "togethermiles_stream_events_total",
		Help: "Change-stream events delivered to subscribers",
	}, []string{"category", "action"})

	// NotificationsFanout counts fan-out outcomes by type.
	NotificationsFanout = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "togethermiles_notifications_fanout_total",
		Help: "Notification fan-out attempts by type and outcome",
	}, []string{"type", "outcome"})
)
