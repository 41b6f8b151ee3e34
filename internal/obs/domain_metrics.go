package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// PaymentCheckoutTotal counts hosted checkout creation outcomes per provider.
	PaymentCheckoutTotal *prometheus.CounterVec
	// PaymentReturnTotal counts return-redirect resolutions by final outcome.
	PaymentReturnTotal *prometheus.CounterVec
	// PushSendTotal counts push dispatch outcomes per channel.
	PushSendTotal *prometheus.CounterVec
	// PushBatchSize records how many endpoints a single dispatch fanned out to.
	PushBatchSize prometheus.Histogram
	// SumUpTokenRefreshTotal counts OAuth token fetches against SumUp.
	SumUpTokenRefreshTotal prometheus.Counter
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		PaymentCheckoutTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_checkout_total",
			Help:      "Count of hosted checkout creation outcomes.",
		}, []string{"provider", "result"})
		PaymentReturnTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_return_total",
			Help:      "Count of payment return redirects by final outcome.",
		}, []string{"result"})
		PushSendTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "push_send_total",
			Help:      "Count of push dispatch requests by channel and result.",
		}, []string{"channel", "result"})
		PushBatchSize = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "push_batch_size",
			Help:      "Number of endpoints targeted by a single push dispatch.",
			Buckets:   []float64{1, 2, 3, 5, 8, 13, 21, 34},
		})
		SumUpTokenRefreshTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sumup_token_refresh_total",
			Help:      "Number of OAuth client-credentials grants performed against SumUp.",
		})

		mustRegisterCollector(reg, PaymentCheckoutTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				PaymentCheckoutTotal = v
			}
		})
		mustRegisterCollector(reg, PaymentReturnTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				PaymentReturnTotal = v
			}
		})
		mustRegisterCollector(reg, PushSendTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				PushSendTotal = v
			}
		})
		mustRegisterCollector(reg, PushBatchSize, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Histogram); ok {
				PushBatchSize = v
			}
		})
		mustRegisterCollector(reg, SumUpTokenRefreshTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				SumUpTokenRefreshTotal = v
			}
		})
	})
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register domain metric: %w", err))
	}
}
