// Pitlane - F1 Usenet auto-grab pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package metrics exposes ambient Prometheus instrumentation: scheduler
// tick duration, per-indexer search outcomes, circuit breaker state, and
// downloader dispatch counts. None of this is a named spec component; it
// is the observability layer every component writes through, the way the
// teacher's internal/metrics package backs its own analytics pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SchedulerTickDuration times one full tick (due-selection through
	// dispatch) of the C9 rules engine.
	SchedulerTickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pitlane_scheduler_tick_duration_seconds",
		Help:    "Duration of one scheduler tick",
		Buckets: prometheus.DefBuckets,
	})

	// SchedulerDueEntries counts how many watch entries a tick found due.
	SchedulerDueEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pitlane_scheduler_due_entries",
		Help: "Number of scheduled searches due at the last tick",
	})

	// IndexerSearchOutcomes counts C4 search calls by indexer and outcome.
	IndexerSearchOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pitlane_indexer_search_outcomes_total",
		Help: "Total Newznab search calls by indexer and outcome",
	}, []string{"indexer", "outcome"})

	// IndexerSearchDuration times a single indexer round-trip.
	IndexerSearchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pitlane_indexer_search_duration_seconds",
		Help:    "Duration of a single Newznab search call",
		Buckets: prometheus.DefBuckets,
	}, []string{"indexer"})

	// CircuitBreakerState mirrors gobreaker's state (0=closed, 1=half-open,
	// 2=open) per named breaker, following the teacher's convention.
	CircuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "pitlane_circuit_breaker_state",
		Help: "Circuit breaker state per indexer/downloader (0=closed, 1=half-open, 2=open)",
	}, []string{"name"})

	// CircuitBreakerTransitions counts breaker state changes.
	CircuitBreakerTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pitlane_circuit_breaker_transitions_total",
		Help: "Total circuit breaker state transitions",
	}, []string{"name", "from", "to"})

	// DownloaderDispatches counts C7 send attempts by downloader and outcome.
	DownloaderDispatches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pitlane_downloader_dispatches_total",
		Help: "Total downloader send attempts by downloader and outcome",
	}, []string{"downloader", "outcome"})

	// NotificationDispatches counts C8 fan-out attempts by target kind and outcome.
	NotificationDispatches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pitlane_notification_dispatches_total",
		Help: "Total notification dispatch attempts by target kind and outcome",
	}, []string{"kind", "outcome"})

	// CacheLookups counts C6 round-search cache hits/misses.
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pitlane_round_search_cache_total",
		Help: "Round search cache lookups by result",
	}, []string{"result"})
)

// StateToFloat converts a gobreaker-style state name to the numeric value
// CircuitBreakerState expects.
func StateToFloat(state string) float64 {
	switch state {
	case "closed":
		return 0
	case "half-open":
		return 1
	case "open":
		return 2
	default:
		return -1
	}
}

// ObserveTickDuration records how long a scheduler tick took.
func ObserveTickDuration(d time.Duration) {
	SchedulerTickDuration.Observe(d.Seconds())
}
