// Package metrics defines the Prometheus instrumentation for roomledger.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequests counts requests by method, route, and status code.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "roomledger",
		Name:      "http_requests_total",
		Help:      "HTTP requests processed, labeled by method, route, and status.",
	}, []string{"method", "route", "status"})

	// HTTPDuration observes request latency per route.
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "roomledger",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	// AllocationsComputed counts personal share computations by split method.
	AllocationsComputed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "roomledger",
		Name:      "allocations_computed_total",
		Help:      "Personal share computations, labeled by split method.",
	}, []string{"split_method"})

	// PaymentsApplied counts accepted payment applications.
	PaymentsApplied = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "roomledger",
		Name:      "payments_applied_total",
		Help:      "Payments recorded against invoices.",
	})

	// PaymentsRejected counts rejected payment attempts by reason.
	PaymentsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "roomledger",
		Name:      "payments_rejected_total",
		Help:      "Rejected payment attempts, labeled by reason.",
	}, []string{"reason"})
)
