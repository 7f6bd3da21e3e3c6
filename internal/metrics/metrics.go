// Package metrics holds the Prometheus collectors shared by the engine,
// the catalog client and the HTTP façade.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smart_mood_player_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "smart_mood_player_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	Turns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smart_mood_player_turns_total",
			Help: "Conversation turns by detected intent and outcome",
		},
		[]string{"intent", "outcome"},
	)

	TurnDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "smart_mood_player_turn_duration_seconds",
			Help:    "Time to run one conversation turn end to end",
			Buckets: prometheus.DefBuckets,
		},
	)

	MoodPredictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smart_mood_player_mood_predictions_total",
			Help: "Classifier predictions by label",
		},
		[]string{"label"},
	)

	CatalogRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smart_mood_player_catalog_requests_total",
			Help: "Spotify catalog operations by operation and status",
		},
		[]string{"operation", "status"},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smart_mood_player_cache_lookups_total",
			Help: "Catalog cache lookups by result",
		},
		[]string{"result"},
	)

	ActiveTurns = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "smart_mood_player_active_turns",
			Help: "Number of turns currently in flight",
		},
	)
)
