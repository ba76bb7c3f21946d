package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Price source metrics
var (
	// PriceFetchesTotal tracks price fetches by outcome (success/error)
	PriceFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "price_fetches_total",
			Help: "Total price fetches by outcome",
		},
		[]string{"status"},
	)

	// PriceFetchDuration tracks price fetch latency in seconds
	PriceFetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "price_fetch_duration_seconds",
			Help:    "Price fetch duration in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		},
	)

	// PriceSourceBreakerStateChanges tracks circuit breaker transitions by new state
	PriceSourceBreakerStateChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "price_source_breaker_state_changes_total",
			Help: "Price source circuit breaker state transitions by new state",
		},
		[]string{"state"},
	)
)

// Ticker metrics
var (
	// TickerRunning is 1 while a polling schedule is active
	TickerRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ticker_running",
			Help: "Whether a ticker polling schedule is currently active (0/1)",
		},
	)

	// TickerStartsTotal counts ticker (re)starts
	TickerStartsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ticker_starts_total",
			Help: "Total ticker start commands accepted",
		},
	)

	// StaleObservationsTotal counts fetch results discarded by the generation check
	StaleObservationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ticker_stale_observations_total",
			Help: "Fetch results discarded because their generation was superseded",
		},
	)
)

// Hub metrics
var (
	// HubConnectedClients tracks currently connected websocket clients
	HubConnectedClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hub_connected_clients",
			Help: "Number of connected websocket clients",
		},
	)

	// HubEventsPublishedTotal counts events fanned out, by event type
	HubEventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hub_events_published_total",
			Help: "Events published to all sessions, by type",
		},
		[]string{"type"},
	)

	// HubSlowClientsEvicted counts clients dropped for not keeping up
	HubSlowClientsEvicted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hub_slow_clients_evicted_total",
			Help: "Clients disconnected because their send buffer was full",
		},
	)

	// WebSocketSendDuration tracks per-message write latency in seconds
	WebSocketSendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "websocket_message_send_duration_seconds",
			Help:    "WebSocket message send duration in seconds",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1},
		},
	)
)

// Command metrics
var (
	// CommandsTotal counts client commands by type and outcome
	CommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "commands_total",
			Help: "Client commands by type and outcome",
		},
		[]string{"command", "status"},
	)
)
