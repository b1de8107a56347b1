package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// SessionsStartedTotal counts started customer sessions.
	SessionsStartedTotal prometheus.Counter
	// SessionCheckoutTotal counts checkout attempts by outcome.
	SessionCheckoutTotal *prometheus.CounterVec
	// SessionCancelledTotal counts cancelled sessions.
	SessionCancelledTotal prometheus.Counter
	// CatalogMutationsTotal counts catalog writes by operation.
	CatalogMutationsTotal *prometheus.CounterVec
	// SummaryExportsTotal counts CSV summary exports.
	SummaryExportsTotal prometheus.Counter
	// LiveFeedSubscribers tracks currently connected live feed clients.
	LiveFeedSubscribers prometheus.Gauge
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		SessionsStartedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_started_total",
			Help:      "Count of customer sessions started.",
		})
		SessionCheckoutTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_checkout_total",
			Help:      "Count of checkout attempts by outcome.",
		}, []string{"result", "payment_method"})
		SessionCancelledTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_cancelled_total",
			Help:      "Count of cancelled customer sessions.",
		})
		CatalogMutationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_mutations_total",
			Help:      "Count of catalog item writes by operation.",
		}, []string{"op"})
		SummaryExportsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "summary_exports_total",
			Help:      "Count of daily summary CSV exports.",
		})
		LiveFeedSubscribers = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "live_feed_subscribers",
			Help:      "Currently connected live dashboard feed clients.",
		})
		reg.MustRegister(
			SessionsStartedTotal,
			SessionCheckoutTotal,
			SessionCancelledTotal,
			CatalogMutationsTotal,
			SummaryExportsTotal,
			LiveFeedSubscribers,
		)
	})
}
