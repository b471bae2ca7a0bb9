package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HttpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HttpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// Business metrics
	RidesRequestedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rides_requested_total",
			Help: "Total number of ride requests received",
		},
	)

	FareProposalsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fare_proposals_total",
			Help: "Total number of driver fare proposals submitted",
		},
	)

	RidesAcceptedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rides_accepted_total",
			Help: "Total number of accepted fare proposals",
		},
	)

	RidesFinishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rides_finished_total",
			Help: "Total number of rides that reached a terminal state",
		},
		[]string{"outcome"}, // completed | cancelled
	)

	ActiveRideRoomsGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_ride_rooms",
			Help: "Current number of active tracking rooms",
		},
	)

	ChannelConnectionsGauge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "channel_connections",
			Help: "Current number of connected channel clients",
		},
		[]string{"role"}, // user | driver
	)

	ChannelEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "channel_events_total",
			Help: "Total number of channel events processed",
		},
		[]string{"event", "direction"}, // direction: in | out
	)

	EventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "broker_events_published_total",
			Help: "Total number of ride lifecycle events published to the broker",
		},
		[]string{"routing_key", "status"},
	)
)
