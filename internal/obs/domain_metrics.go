package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// QuotesTotal counts priced selections by purchase mode and outcome.
	QuotesTotal *prometheus.CounterVec
	// CouponApplicationsTotal counts coupon applications by code and outcome.
	CouponApplicationsTotal *prometheus.CounterVec
	// CheckoutTotal counts checkout submissions by gateway outcome.
	CheckoutTotal *prometheus.CounterVec
	// CheckoutAmount records submitted checkout totals in whole currency units.
	CheckoutAmount prometheus.Histogram
	// EventsTotal counts emitted storefront events by topic.
	EventsTotal *prometheus.CounterVec
	// RateLimitedTotal counts requests rejected by a rate limiter.
	RateLimitedTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics creates the domain collectors once and registers
// them with reg. Calling it again with another registry exposes the same
// collectors there.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		QuotesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quotes_total",
			Help:      "Count of priced storefront selections.",
		}, []string{"mode", "result"})
		CouponApplicationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "coupon_applications_total",
			Help:      "Count of coupon applications by outcome.",
		}, []string{"code", "result"})
		CheckoutTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_total",
			Help:      "Count of checkout submissions by outcome.",
		}, []string{"result"})
		CheckoutAmount = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "checkout_amount",
			Help:      "Distribution of submitted checkout totals.",
			Buckets:   []float64{10000, 25000, 50000, 75000, 100000, 150000, 250000, 500000},
		})
		EventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Count of emitted storefront events by topic.",
		}, []string{"topic"})
		RateLimitedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Count of requests rejected by rate limiting.",
		}, []string{"route"})
	})
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	QuotesTotal = register(reg, QuotesTotal)
	CouponApplicationsTotal = register(reg, CouponApplicationsTotal)
	CheckoutTotal = register(reg, CheckoutTotal)
	CheckoutAmount = register(reg, CheckoutAmount)
	EventsTotal = register(reg, EventsTotal)
	RateLimitedTotal = register(reg, RateLimitedTotal)
}

// ObserveQuote records a quote outcome when domain metrics are registered.
func ObserveQuote(subscribe bool, result string) {
	if QuotesTotal == nil {
		return
	}
	mode := "one_time"
	if subscribe {
		mode = "subscription"
	}
	QuotesTotal.WithLabelValues(mode, result).Inc()
}

// ObserveCoupon records a coupon application outcome. Unknown codes are
// collapsed into one label value to bound cardinality.
func ObserveCoupon(code, result string) {
	if CouponApplicationsTotal == nil {
		return
	}
	if result != "applied" {
		code = "unknown"
	}
	CouponApplicationsTotal.WithLabelValues(code, result).Inc()
}

// ObserveCheckout records a checkout outcome and, on success, its total.
func ObserveCheckout(result string, total int64) {
	if CheckoutTotal == nil {
		return
	}
	CheckoutTotal.WithLabelValues(result).Inc()
	if result == "ok" && CheckoutAmount != nil {
		CheckoutAmount.Observe(float64(total))
	}
}

// ObserveRateLimited records a rejected request for route.
func ObserveRateLimited(route string) {
	if RateLimitedTotal == nil {
		return
	}
	RateLimitedTotal.WithLabelValues(route).Inc()
}
