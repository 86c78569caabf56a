package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "xchbal"

// Metrics holds the collectors updated by the watcher.
type Metrics struct {
	Refreshes      *prometheus.CounterVec
	FetchFailures  *prometheus.CounterVec
	StaleResponses prometheus.Counter
	TotalCoins     prometheus.Gauge
	FiatValue      *prometheus.GaugeVec
	FetchDuration  prometheus.Histogram
}

// New creates the collectors and registers them with reg. A nil reg leaves them unregistered.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refreshes_total",
			Help:      "Refresh cycles by trigger and outcome.",
		}, []string{"trigger", "outcome"}),
		FetchFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_failures_total",
			Help:      "Failed upstream lookups by kind (balance, price).",
		}, []string{"kind"}),
		StaleResponses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_responses_total",
			Help:      "Fetch results discarded because a newer request superseded them.",
		}),
		TotalCoins: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "total_coins",
			Help:      "Sum of unspent balances over checked addresses, in XCH.",
		}),
		FiatValue: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "fiat_value",
			Help:      "Fiat value of the total by currency.",
		}, []string{"currency"}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Duration of the joined balance and price fetch.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Refreshes, m.FetchFailures, m.StaleResponses, m.TotalCoins, m.FiatValue, m.FetchDuration)
	}
	return m
}
