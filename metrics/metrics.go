package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PurchaseDuration tracks the latency of ticket purchases, including
	// transparent retries
	PurchaseDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lottery_purchase_duration_seconds",
			Help:    "Duration of ticket purchase requests in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		},
		[]string{"status"}, // success, rejected, conflict, error
	)

	// TicketsIssued counts tickets issued across all draws
	TicketsIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lottery_tickets_issued_total",
			Help: "Total number of lottery tickets issued",
		},
	)

	// DrawsResolved counts draws closed out by the winner selection job
	DrawsResolved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lottery_draws_resolved_total",
			Help: "Total number of draws resolved by the winner selection job",
		},
		[]string{"outcome"}, // winner, empty, already_done
	)
)

// RecordPurchase records the duration and status of one purchase request
func RecordPurchase(status string, seconds float64) {
	PurchaseDuration.WithLabelValues(status).Observe(seconds)
}
