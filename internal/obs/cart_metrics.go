package obs

import "github.com/prometheus/client_golang/prometheus"

// CartMetrics groups cart domain collectors.
type CartMetrics struct {
	// EventsTotal counts emitted cart events by topic.
	EventsTotal *prometheus.CounterVec
	// StoreDuration records cart store latency by backend, operation and result.
	StoreDuration *prometheus.HistogramVec
}

// NewCartMetrics registers and returns the cart collectors.
func NewCartMetrics(namespace string, reg prometheus.Registerer) *CartMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &CartMetrics{
		EventsTotal: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_events_total",
			Help:      "Count of cart events emitted by topic.",
		}, []string{"topic"})),
		StoreDuration: register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cart_store_duration_ms",
			Help:      "Cart store operation latency in milliseconds.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 25, 50, 100, 250},
		}, []string{"backend", "op", "result"})),
	}
}
