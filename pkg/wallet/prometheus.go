package wallet

import (
	"errors"

	"github.com/nspcc-dev/spendkit/pkg/intent"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics for monitoring service.
var (
	// sessions prometheus metric.
	sessions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Help:      "Number of spend sessions started",
			Name:      "sessions_total",
			Namespace: "spendkit",
			Subsystem: "wallet",
		},
	)
	// failures prometheus metric.
	failures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Help:      "Number of failed spend sessions",
			Name:      "failures_total",
			Namespace: "spendkit",
			Subsystem: "wallet",
		},
		[]string{"reason"},
	)
	// selectedCoins prometheus metric.
	selectedCoins = prometheus.NewCounter(
		prometheus.CounterOpts{
			Help:      "Number of coins selected for spending",
			Name:      "selected_coins_total",
			Namespace: "spendkit",
			Subsystem: "wallet",
		},
	)
)

func init() {
	prometheus.MustRegister(
		sessions,
		failures,
		selectedCoins,
	)
}

func addFailure(err error) {
	failures.WithLabelValues(failureReason(err)).Inc()
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, intent.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, intent.ErrUnbalanced):
		return "unbalanced"
	case errors.Is(err, intent.ErrUnresolvedID):
		return "unresolved_id"
	case errors.Is(err, intent.ErrMissingAuthorization):
		return "missing_authorization"
	case errors.Is(err, intent.ErrInvalidAction):
		return "invalid_action"
	default:
		return "other"
	}
}
