// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics records provider and pipeline instrumentation with the
// Prometheus client. Collectors register lazily on the default registry.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	providerLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "deep_research_provider_latency_ms",
		Help:    "Latency of search provider calls in milliseconds",
		Buckets: []float64{50, 100, 250, 500, 1000, 2000, 4000, 8000, 15000, 30000},
	}, []string{"provider"})

	providerResults = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "deep_research_provider_results",
		Help:    "Number of results returned by a search provider call",
		Buckets: []float64{0, 1, 2, 5, 10, 20, 50, 100},
	}, []string{"provider"})

	providerFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "deep_research_provider_failures_total",
		Help: "Search provider calls that failed and contributed no results",
	}, []string{"provider"})

	searchDedup = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "deep_research_search_duplicates",
		Help:    "Results removed by URL deduplication per search",
		Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
	})

	phaseDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "deep_research_phase_duration_seconds",
		Help:    "Duration of deep research pipeline phases",
		Buckets: []float64{0.5, 1, 5, 15, 30, 60, 120, 300, 600, 1200, 1800},
	}, []string{"phase"})

	extractions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "deep_research_extractions_total",
		Help: "Page extraction outcomes",
	}, []string{"outcome"})
)

func ensureRegistered() {
	once.Do(func() {
		prometheus.MustRegister(providerLatency, providerResults, providerFailures,
			searchDedup, phaseDuration, extractions)
	})
}

// ObserveProvider records latency and result count for one provider call.
func ObserveProvider(provider string, start time.Time, results int, failed bool) {
	ensureRegistered()
	providerLatency.WithLabelValues(provider).Observe(float64(time.Since(start).Milliseconds()))
	providerResults.WithLabelValues(provider).Observe(float64(results))
	if failed {
		providerFailures.WithLabelValues(provider).Inc()
	}
}

// ObserveDedup records how many results deduplication removed.
func ObserveDedup(removed int) {
	ensureRegistered()
	searchDedup.Observe(float64(removed))
}

// ObservePhase records the duration of one pipeline phase.
func ObservePhase(phase string, d time.Duration) {
	ensureRegistered()
	phaseDuration.WithLabelValues(phase).Observe(d.Seconds())
}

// ObserveExtraction counts one page extraction by outcome ("ok", "skipped").
func ObserveExtraction(outcome string) {
	ensureRegistered()
	extractions.WithLabelValues(outcome).Inc()
}
