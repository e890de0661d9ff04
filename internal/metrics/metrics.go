// Package metrics exposes the Prometheus instruments of the label service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Carrier operations observed by CarrierLatency.
const (
	OpCreateShipment = "create_shipment"
	OpBuy            = "buy"
)

// Registry owns a private Prometheus registry and the service's instruments.
type Registry struct {
	reg *prometheus.Registry

	LabelsPurchased prometheus.Counter
	OrdersSkipped   *prometheus.CounterVec
	BatchesRun      prometheus.Counter
	BatchDuration   prometheus.Histogram
	CarrierLatency  *prometheus.HistogramVec
	EventsDropped   prometheus.Counter
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()

	purchased := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tcglabeler_labels_purchased_total",
		Help: "Labels bought and recorded.",
	})
	skipped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tcglabeler_orders_skipped_total",
		Help: "Orders that produced no label, by outcome.",
	}, []string{"outcome"})
	batches := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tcglabeler_batches_total",
		Help: "Purchase runs completed.",
	})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "tcglabeler_batch_duration_seconds",
		Help:    "Wall time of a purchase run.",
		Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
	})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tcglabeler_carrier_request_seconds",
		Help:    "Latency of shipping API calls.",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})
	dropped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tcglabeler_events_dropped_total",
		Help: "Events not handed to the broker because the buffer was full.",
	})

	r.MustRegister(purchased, skipped, batches, duration, latency, dropped)
	return &Registry{
		reg:             r,
		LabelsPurchased: purchased,
		OrdersSkipped:   skipped,
		BatchesRun:      batches,
		BatchDuration:   duration,
		CarrierLatency:  latency,
		EventsDropped:   dropped,
	}
}

// ObserveCarrier records how long a carrier call took.
func (r *Registry) ObserveCarrier(op string, started time.Time) {
	r.CarrierLatency.WithLabelValues(op).Observe(time.Since(started).Seconds())
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }
