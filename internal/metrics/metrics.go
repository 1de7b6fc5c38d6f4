// Package metrics exposes the authentication core's Prometheus metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector implements auth.Recorder and mail.DeliveryObserver.
type Collector struct {
	operations  *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	deliveries  *prometheus.CounterVec
	cleanedRows *prometheus.CounterVec
}

// NewCollector creates the metrics and registers them with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gophauth_operations_total",
			Help: "Facade operations by name and outcome.",
		}, []string{"op", "outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gophauth_operation_duration_seconds",
			Help:    "Facade operation latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gophauth_email_deliveries_total",
			Help: "Verification email delivery attempts by outcome.",
		}, []string{"outcome"}),
		cleanedRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gophauth_expired_rows_deleted_total",
			Help: "Rows removed by the expiry sweep.",
		}, []string{"kind"}),
	}

	reg.MustRegister(c.operations, c.latency, c.deliveries, c.cleanedRows)
	return c
}

func (c *Collector) ObserveOperation(op, outcome string, elapsed time.Duration) {
	c.operations.WithLabelValues(op, outcome).Inc()
	c.latency.WithLabelValues(op).Observe(elapsed.Seconds())
}

func (c *Collector) ObserveDelivery(outcome string) {
	c.deliveries.WithLabelValues(outcome).Inc()
}

// ObserveCleanup records rows removed by one sweep.
func (c *Collector) ObserveCleanup(sessions, tokens int64) {
	c.cleanedRows.WithLabelValues("session").Add(float64(sessions))
	c.cleanedRows.WithLabelValues("token").Add(float64(tokens))
}

// Handler serves the gatherer in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
