package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Registry struct {
	reg *prometheus.Registry

	CheckoutsCreated    prometheus.Counter
	GatewayFailures     prometheus.Counter
	OrdersMaterialized  prometheus.Counter
	SignalsReplayed     prometheus.Counter
	SignalsRejected     *prometheus.CounterVec
	NotificationsSent   *prometheus.CounterVec
	NotificationsFailed *prometheus.CounterVec
	GatewayLatencySec   prometheus.Histogram
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	checkouts := prometheus.NewCounter(prometheus.CounterOpts{Name: "checkout_sessions_created_total"})
	gatewayFailures := prometheus.NewCounter(prometheus.CounterOpts{Name: "checkout_gateway_failures_total"})
	materialized := prometheus.NewCounter(prometheus.CounterOpts{Name: "ledger_orders_materialized_total"})
	replayed := prometheus.NewCounter(prometheus.CounterOpts{Name: "ledger_signals_replayed_total"})
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "ledger_signals_rejected_total"}, []string{"reason"})
	sent := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "ledger_notifications_sent_total"}, []string{"recipient"})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "ledger_notifications_failed_total"}, []string{"recipient"})
	latency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "checkout_gateway_latency_seconds",
		Buckets: prometheus.DefBuckets,
	})

	r.MustRegister(checkouts, gatewayFailures, materialized, replayed, rejected, sent, failed, latency)
	return &Registry{
		reg:                 r,
		CheckoutsCreated:    checkouts,
		GatewayFailures:     gatewayFailures,
		OrdersMaterialized:  materialized,
		SignalsReplayed:     replayed,
		SignalsRejected:     rejected,
		NotificationsSent:   sent,
		NotificationsFailed: failed,
		GatewayLatencySec:   latency,
	}
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }
