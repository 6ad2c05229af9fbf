package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	offersSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fleet_match",
			Name:      "offers_submitted_total",
			Help:      "Offers submitted, by flow kind.",
		},
		[]string{"flow"},
	)

	acceptances = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fleet_match",
			Name:      "acceptances_total",
			Help:      "Accept attempts, by outcome (committed, lost_race, expired, rejected_input).",
		},
		[]string{"outcome"},
	)

	sweepExpired = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fleet_match",
			Name:      "sweep_expired_total",
			Help:      "Entities retired by the expiry sweep, by entity (offer, request).",
		},
		[]string{"entity"},
	)

	sweepErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "fleet_match",
			Name:      "sweep_errors_total",
			Help:      "Sweep passes that hit a store error.",
		},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(offersSubmitted, acceptances, sweepExpired, sweepErrors)
	})
}

func IncOfferSubmitted(flow string) {
	offersSubmitted.WithLabelValues(flow).Inc()
}

func IncAcceptance(outcome string) {
	acceptances.WithLabelValues(outcome).Inc()
}

func IncSweepExpired(entity string) {
	sweepExpired.WithLabelValues(entity).Inc()
}

func IncSweepError() {
	sweepErrors.Inc()
}
