// Package metrics registers the Prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Mutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clubexpense_mutations_total",
		Help: "Document mutations applied, by action.",
	}, []string{"action"})

	Saves = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clubexpense_saves_total",
		Help: "Document writes to local storage, by result.",
	}, []string{"result"})

	Transfers = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clubexpense_transfers_total",
		Help: "Exports and imports, by kind and result.",
	}, []string{"kind", "result"})

	Subscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "clubexpense_ws_clients",
		Help: "Connected websocket clients.",
	})

	Requests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clubexpense_http_requests_total",
		Help: "HTTP requests served, by method and status.",
	}, []string{"method", "status"})

	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "clubexpense_http_request_duration_seconds",
		Help:    "HTTP request latency, by method.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})
)
