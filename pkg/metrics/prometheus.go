package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/joripage/exchange-matcher/pkg/orderbook"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	reasonNoMatch          = "no_match"
	reasonQuantityMismatch = "quantity_mismatch"
	reasonInvalid          = "invalid"
)

// Recorder holds the engine metrics on its own registry.
type Recorder struct {
	registry *prometheus.Registry

	ordersSubmitted *prometheus.CounterVec
	ordersUnmatched *prometheus.CounterVec
	executions      *prometheus.CounterVec
	executedVolume  *prometheus.CounterVec
	openOrders      *prometheus.GaugeVec
	submitLatency   *prometheus.HistogramVec
}

func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,

		// Counter: orders accepted by Submit, matched or not
		ordersSubmitted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orders_submitted_total",
				Help: "Total number of orders submitted to the matching engine",
			},
			[]string{"instrument", "side"},
		),

		ordersUnmatched: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orders_unmatched_total",
				Help: "Total number of submissions that did not execute",
			},
			[]string{"instrument", "reason"},
		),

		executions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "executions_total",
				Help: "Total number of executions",
			},
			[]string{"instrument"},
		),

		executedVolume: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "executed_volume_total",
				Help: "Sum of absolute executed quantity",
			},
			[]string{"instrument"},
		),

		openOrders: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "open_orders",
				Help: "Current number of resting orders",
			},
			[]string{"instrument", "side"},
		),

		submitLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "submit_latency_seconds",
				Help:    "Time taken by Submit, including matching",
				Buckets: prometheus.ExponentialBuckets(0.000001, 4, 12),
			},
			[]string{"instrument"},
		),
	}
}

// OnSubmit matches orderbook.SubmitHook.
func (r *Recorder) OnSubmit(_ context.Context, order orderbook.Order, exec *orderbook.Execution, err error, elapsed time.Duration) {
	if orderbook.IsInvalidOrder(err) {
		r.ordersUnmatched.WithLabelValues(order.Instrument, reasonInvalid).Inc()
		return
	}

	r.ordersSubmitted.WithLabelValues(order.Instrument, string(order.Side)).Inc()
	r.submitLatency.WithLabelValues(order.Instrument).Observe(elapsed.Seconds())

	switch {
	case exec != nil:
		r.executions.WithLabelValues(order.Instrument).Inc()
		r.executedVolume.WithLabelValues(order.Instrument).Add(float64(exec.Quantity()))
	case errors.Is(err, orderbook.ErrQuantityMismatch):
		r.ordersUnmatched.WithLabelValues(order.Instrument, reasonQuantityMismatch).Inc()
	case orderbook.IsNoMatch(err):
		r.ordersUnmatched.WithLabelValues(order.Instrument, reasonNoMatch).Inc()
	}
}

// OnBookChange matches orderbook.BookCallback.
func (r *Recorder) OnBookChange(_ context.Context, instrument string, open []orderbook.Order) {
	var buys, sells int
	for _, o := range open {
		if o.Side == orderbook.BUY {
			buys++
		} else {
			sells++
		}
	}
	r.openOrders.WithLabelValues(instrument, string(orderbook.BUY)).Set(float64(buys))
	r.openOrders.WithLabelValues(instrument, string(orderbook.SELL)).Set(float64(sells))
}

func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
