package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// Pipeline records cart, order and payment outcomes. A nil *Pipeline is a
// valid no-op recorder.
type Pipeline struct {
	cartMutations   *prometheus.CounterVec
	ordersCreated   prometheus.Counter
	paymentCaptures *prometheus.CounterVec
	providerCalls   *prometheus.HistogramVec
}

// NewPipeline registers the pipeline metrics on reg.
func NewPipeline(reg prometheus.Registerer) *Pipeline {
	if reg == nil {
		return &Pipeline{}
	}

	cartMutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_cart_mutations_total",
		Help: "Cart add/remove attempts by outcome.",
	}, []string{"op", "outcome"})
	ordersCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "storefront_orders_created_total",
		Help: "Orders assembled from carts.",
	})
	paymentCaptures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_payment_captures_total",
		Help: "Payment confirmations by provider and outcome.",
	}, []string{"provider", "outcome"})
	providerCalls := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "storefront_provider_call_seconds",
		Help:    "Latency of payment provider calls.",
		Buckets: prometheus.DefBuckets,
	}, []string{"provider", "call"})

	reg.MustRegister(cartMutations, ordersCreated, paymentCaptures, providerCalls)

	return &Pipeline{
		cartMutations:   cartMutations,
		ordersCreated:   ordersCreated,
		paymentCaptures: paymentCaptures,
		providerCalls:   providerCalls,
	}
}

func (p *Pipeline) CartMutation(op, outcome string) {
	if p == nil || p.cartMutations == nil {
		return
	}
	p.cartMutations.WithLabelValues(normalizeLabel(op), normalizeLabel(outcome)).Inc()
}

func (p *Pipeline) OrderCreated() {
	if p == nil || p.ordersCreated == nil {
		return
	}
	p.ordersCreated.Inc()
}

func (p *Pipeline) PaymentCapture(provider, outcome string) {
	if p == nil || p.paymentCaptures == nil {
		return
	}
	p.paymentCaptures.WithLabelValues(normalizeLabel(provider), normalizeLabel(outcome)).Inc()
}

func (p *Pipeline) ProviderCall(provider, call string, d time.Duration) {
	if p == nil || p.providerCalls == nil {
		return
	}
	p.providerCalls.WithLabelValues(normalizeLabel(provider), normalizeLabel(call)).Observe(d.Seconds())
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
