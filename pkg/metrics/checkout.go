package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CartMetrics records cart mutation and checkout outcomes. All methods are
// nil-safe so callers can run without a registry in tests.
type CartMetrics struct {
	checkoutDuration *prometheus.HistogramVec
	checkoutSuccess  prometheus.Counter
	checkoutFailure  *prometheus.CounterVec
	mutations        *prometheus.CounterVec
}

// NewCartMetrics registers the cart metrics on the provided registerer.
func NewCartMetrics(reg prometheus.Registerer) *CartMetrics {
	if reg == nil {
		return &CartMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "checkout_duration_seconds",
		Help:    "Duration of checkout attempts in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	success := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "checkout_success_total",
		Help: "Checkouts that produced a sale.",
	})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_failure_total",
		Help: "Checkouts that were rejected or failed.",
	}, []string{"reason"})
	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_mutations_total",
		Help: "Cart mutation operations by kind.",
	}, []string{"operation"})
	reg.MustRegister(duration, success, failure, mutations)
	return &CartMetrics{
		checkoutDuration: duration,
		checkoutSuccess:  success,
		checkoutFailure:  failure,
		mutations:        mutations,
	}
}

// ObserveCheckout records the duration of a checkout attempt by outcome.
func (c *CartMetrics) ObserveCheckout(outcome string, duration time.Duration) {
	if c == nil || c.checkoutDuration == nil {
		return
	}
	c.checkoutDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// IncCheckoutSuccess counts a completed checkout.
func (c *CartMetrics) IncCheckoutSuccess() {
	if c == nil || c.checkoutSuccess == nil {
		return
	}
	c.checkoutSuccess.Inc()
}

// IncCheckoutFailure counts a failed checkout by reason.
func (c *CartMetrics) IncCheckoutFailure(reason string) {
	if c == nil || c.checkoutFailure == nil {
		return
	}
	c.checkoutFailure.WithLabelValues(reason).Inc()
}

// IncMutation counts a cart mutation by operation name.
func (c *CartMetrics) IncMutation(operation string) {
	if c == nil || c.mutations == nil {
		return
	}
	c.mutations.WithLabelValues(operation).Inc()
}
