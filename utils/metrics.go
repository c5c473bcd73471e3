package utils

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	metricsOnce sync.Once

	availabilityChecks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wedbook",
			Name:      "availability_checks_total",
			Help:      "Availability checks by source (cache, store, error).",
		},
		[]string{"source"},
	)

	submissionOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wedbook",
			Name:      "submission_outcomes_total",
			Help:      "Booking submissions by terminal outcome.",
		},
		[]string{"outcome"},
	)

	eventsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wedbook",
			Name:      "events_published_total",
			Help:      "Bus events published by name.",
		},
		[]string{"event"},
	)

	storeHealthy = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "wedbook",
			Name:      "record_store_up",
			Help:      "1 if the last record store health probe succeeded.",
		},
	)
)

// RegisterMetrics registers collectors with the default registry (idempotent).
func RegisterMetrics() {
	metricsOnce.Do(func() {
		prometheus.MustRegister(availabilityChecks, submissionOutcomes, eventsPublished, storeHealthy)
	})
}

func IncAvailabilityCheck(source string) {
	availabilityChecks.WithLabelValues(source).Inc()
}

func IncSubmissionOutcome(outcome string) {
	submissionOutcomes.WithLabelValues(outcome).Inc()
}

func IncEventPublished(event string) {
	eventsPublished.WithLabelValues(event).Inc()
}

func SetStoreHealthy(up bool) {
	if up {
		storeHealthy.Set(1)
		return
	}
	storeHealthy.Set(0)
}
