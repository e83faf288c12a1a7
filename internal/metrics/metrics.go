// Package metrics exposes Prometheus collectors for store mutations, invite
// transitions and HTTP traffic. A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the application's collectors.
type Metrics struct {
	registry *prometheus.Registry

	mutations    *prometheus.CounterVec
	rollbacks    *prometheus.CounterVec
	invites      *prometheus.CounterVec
	linkOpens    *prometheus.CounterVec
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "giftsync",
			Name:      "store_mutations_total",
			Help:      "Store mutations by entity, operation and outcome.",
		}, []string{"entity", "op", "outcome"}),
		rollbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "giftsync",
			Name:      "store_rollbacks_total",
			Help:      "Optimistic patches reverted after a failed remote call.",
		}, []string{"entity", "op"}),
		invites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "giftsync",
			Name:      "invite_transitions_total",
			Help:      "Invite lifecycle calls by action and outcome.",
		}, []string{"action", "outcome"}),
		linkOpens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "giftsync",
			Name:      "bulk_link_opens_total",
			Help:      "Retailer links scheduled for opening by mode.",
		}, []string{"mode"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "giftsync",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "giftsync",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}

	m.registry.MustRegister(
		m.mutations, m.rollbacks, m.invites, m.linkOpens,
		m.httpRequests, m.httpDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ObserveMutation counts one store mutation.
func (m *Metrics) ObserveMutation(entity, op string, err error) {
	if m == nil {
		return
	}
	m.mutations.WithLabelValues(entity, op, outcome(err)).Inc()
}

// ObserveRollback counts one reverted optimistic patch.
func (m *Metrics) ObserveRollback(entity, op string) {
	if m == nil {
		return
	}
	m.rollbacks.WithLabelValues(entity, op).Inc()
}

// ObserveInvite counts one invite lifecycle call.
func (m *Metrics) ObserveInvite(action string, err error) {
	if m == nil {
		return
	}
	m.invites.WithLabelValues(action, outcome(err)).Inc()
}

// ObserveLinkOpens counts links scheduled by a bulk open.
func (m *Metrics) ObserveLinkOpens(mode string, n int) {
	if m == nil {
		return
	}
	m.linkOpens.WithLabelValues(mode).Add(float64(n))
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(route, method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
