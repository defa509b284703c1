package simulator

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics for monitoring service.
var (
	// ledgerHeight prometheus metric.
	ledgerHeight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Help:      "Number of accepted bundles",
			Name:      "ledger_height",
			Namespace: "spendkit",
			Subsystem: "simulator",
		},
	)
	// bundlesAccepted prometheus metric.
	bundlesAccepted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Help:      "Number of accepted spend bundles",
			Name:      "bundles_accepted_total",
			Namespace: "spendkit",
			Subsystem: "simulator",
		},
	)
	// bundlesRejected prometheus metric.
	bundlesRejected = prometheus.NewCounter(
		prometheus.CounterOpts{
			Help:      "Number of rejected spend bundles",
			Name:      "bundles_rejected_total",
			Namespace: "spendkit",
			Subsystem: "simulator",
		},
	)
	// coinsCreated prometheus metric.
	coinsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Help:      "Number of coins created",
			Name:      "coins_created_total",
			Namespace: "spendkit",
			Subsystem: "simulator",
		},
	)
)

func init() {
	prometheus.MustRegister(
		ledgerHeight,
		bundlesAccepted,
		bundlesRejected,
		coinsCreated,
	)
}

func updateLedgerHeightMetric(h uint32) {
	ledgerHeight.Set(float64(h))
}
