// Package metrics exposes Prometheus collectors for search activity.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/wricardo/gridsearch/search/engine"
)

var (
	// searchTotal counts finished runs by algorithm, outcome and delivery mode
	searchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gridsearch_search_total",
		Help: "Total finished search runs by algorithm, status and mode",
	}, []string{"algorithm", "status", "mode"})

	searchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gridsearch_search_duration_seconds",
		Help:    "Search run duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 16), // 0.1ms to ~3s
	}, []string{"algorithm", "mode"})

	expandedNodes = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gridsearch_expanded_nodes",
		Help:    "Nodes expanded per finished run",
		Buckets: prometheus.ExponentialBuckets(1, 4, 10),
	}, []string{"algorithm"})

	pathLength = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gridsearch_path_length",
		Help:    "Path length in hops for successful runs",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 200, 400},
	}, []string{"algorithm"})

	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "gridsearch_active_sessions",
		Help: "Sessions currently held in memory",
	})

	activeRuns = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "gridsearch_active_runs",
		Help: "Steppable runs that have not reached a terminal record",
	})

	websocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "gridsearch_websocket_clients",
		Help: "Connected WebSocket clients",
	})
)

// Delivery modes used as the mode label
const (
	ModeSearch  = "search"
	ModeStream  = "stream"
	ModeStep    = "step"
	ModeCompare = "compare"
)

// ObserveSearch records a finished run
func ObserveSearch(res engine.Result, mode string, elapsed time.Duration) {
	alg := res.Algorithm.String()
	searchTotal.WithLabelValues(alg, string(res.Status), mode).Inc()
	searchDuration.WithLabelValues(alg, mode).Observe(elapsed.Seconds())
	expandedNodes.WithLabelValues(alg).Observe(float64(res.Expanded))
	if res.Found() {
		pathLength.WithLabelValues(alg).Observe(float64(res.PathLength))
	}
}

// SetSessions sets the in-memory session gauge
func SetSessions(n int) { activeSessions.Set(float64(n)) }

// RunStarted increments the active run gauge
func RunStarted() { activeRuns.Inc() }

// RunFinished decrements the active run gauge
func RunFinished() { activeRuns.Dec() }

// ClientConnected increments the WebSocket client gauge
func ClientConnected() { websocketClients.Inc() }

// ClientDisconnected decrements the WebSocket client gauge
func ClientDisconnected() { websocketClients.Dec() }
