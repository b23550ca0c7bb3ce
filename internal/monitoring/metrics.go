package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	lifecycleOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticket_lifecycle_operations_total",
			Help: "Total lifecycle operations by outcome",
		},
		[]string{"operation", "outcome"},
	)

	fundMovements = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fund_movements_cents_total",
			Help: "Total value moved per transfer kind, in cents",
		},
		[]string{"kind"},
	)

	retainedBalance = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "collection_retained_balance_cents",
			Help: "Retained refund-coverage balance per collection, in cents",
		},
		[]string{"collection_id"},
	)
)

// TrackOperation records one lifecycle operation outcome. Outcome is "ok"
// or the rejection code.
func TrackOperation(operation, outcome string) {
	lifecycleOperations.WithLabelValues(operation, outcome).Inc()
}

func TrackFundMovement(kind string, amount int64) {
	fundMovements.WithLabelValues(kind).Add(float64(amount))
}

func SetRetainedBalance(collectionID string, balance int64) {
	retainedBalance.WithLabelValues(collectionID).Set(float64(balance))
}
