// Package metrics exposes Prometheus instrumentation for the billing engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

type Metrics struct {
	SweepRuns           prometheus.Counter
	SubscribersExpired  prometheus.Counter
	InvoicesGenerated   prometheus.Counter
	NotificationsSent   *prometheus.CounterVec
	NotificationsFailed *prometheus.CounterVec
	HTTPRequests        *prometheus.CounterVec
}

func New() (*Metrics, *prometheus.Registry) {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		SweepRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "backoffice_expiry_sweep_runs_total",
			Help: "Number of expiry sweep executions.",
		}),
		SubscribersExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "backoffice_subscribers_expired_total",
			Help: "Number of subscribers flipped to EXPIRED by the sweeper.",
		}),
		InvoicesGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "backoffice_invoices_generated_total",
			Help: "Number of invoices generated.",
		}),
		NotificationsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "backoffice_notifications_sent_total",
			Help: "Number of notifications delivered, by channel.",
		}, []string{"channel"}),
		NotificationsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "backoffice_notifications_failed_total",
			Help: "Number of notification delivery failures, by channel.",
		}, []string{"channel"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "backoffice_http_requests_total",
			Help: "Number of HTTP requests, by method, path and status.",
		}, []string{"method", "path", "status"}),
	}

	reg.MustRegister(
		m.SweepRuns,
		m.SubscribersExpired,
		m.InvoicesGenerated,
		m.NotificationsSent,
		m.NotificationsFailed,
		m.HTTPRequests,
	)
	return m, reg
}

var Module = fx.Module("metrics",
	fx.Provide(New),
)
