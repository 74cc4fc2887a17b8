/*
metrics.go - Prometheus instrumentation for the purchase path

Counters use an outcome label rather than one counter per failure mode,
so dashboards can stack success/decline/conflict on one graph. Exposed
at /metrics via promhttp (see server.go).
*/
package api

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/transitline/booking-engine/booking"
)

var (
	purchasesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "booking_purchases_total",
		Help: "Purchase attempts by outcome.",
	}, []string{"outcome"})

	purchaseDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "booking_purchase_duration_seconds",
		Help:    "End-to-end purchase latency, including the gateway call.",
		Buckets: prometheus.DefBuckets,
	})
)

// observePurchase classifies one purchase attempt for the counters.
func observePurchase(err error, elapsed time.Duration) {
	purchaseDuration.Observe(elapsed.Seconds())
	purchasesTotal.WithLabelValues(purchaseOutcome(err)).Inc()
}

func purchaseOutcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, booking.ErrPaymentDeclined):
		return "declined"
	case errors.Is(err, booking.ErrInsufficientCapacity):
		return "capacity_conflict"
	case errors.Is(err, booking.ErrUsageLimitExceeded):
		return "promo_cap"
	case errors.Is(err, booking.ErrInvalidArgument):
		return "invalid"
	default:
		return "error"
	}
}
