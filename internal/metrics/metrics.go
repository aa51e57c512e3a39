// Package metrics holds the prometheus collectors exported on /metrics.
package metrics

import (
    "net/http"

    "github.com/prometheus/client_golang/prometheus"
    "github.com/prometheus/client_golang/prometheus/collectors"
    "github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups every collector registered by the API.
type Metrics struct {
    registry *prometheus.Registry

    HTTPRequestsTotal   *prometheus.CounterVec
    HTTPRequestDuration *prometheus.HistogramVec

    // AuthEventsTotal counts lifecycle operations by event and outcome
    // (e.g. login/success, refresh/stale).
    AuthEventsTotal *prometheus.CounterVec
    // SessionCacheLive is 1 when refresh-token reuse detection is backed by
    // a real store and 0 when the null cache is in use.
    SessionCacheLive prometheus.Gauge
    LazyUnblocks     prometheus.Counter
}

// New creates and registers all collectors on a private registry, together
// with the Go runtime and process collectors.
func New() *Metrics {
    reg := prometheus.NewRegistry()
    m := &Metrics{
        registry: reg,
        HTTPRequestsTotal: prometheus.NewCounterVec(
            prometheus.CounterOpts{
                Name: "portfolio_http_requests_total",
                Help: "Total number of HTTP requests",
            },
            []string{"method", "route", "status"},
        ),
        HTTPRequestDuration: prometheus.NewHistogramVec(
            prometheus.HistogramOpts{
                Name:    "portfolio_http_request_duration_seconds",
                Help:    "HTTP request duration in seconds",
                Buckets: prometheus.DefBuckets,
            },
            []string{"method", "route"},
        ),
        AuthEventsTotal: prometheus.NewCounterVec(
            prometheus.CounterOpts{
                Name: "portfolio_auth_events_total",
                Help: "Account lifecycle events by outcome",
            },
            []string{"event", "outcome"},
        ),
        SessionCacheLive: prometheus.NewGauge(prometheus.GaugeOpts{
            Name: "portfolio_session_cache_live",
            Help: "1 when the session cache detects refresh token reuse, 0 when degraded to the null cache",
        }),
        LazyUnblocks: prometheus.NewCounter(prometheus.CounterOpts{
            Name: "portfolio_lazy_unblocks_total",
            Help: "Blocks cleared on access after their expiry passed",
        }),
    }
    reg.MustRegister(
        m.HTTPRequestsTotal,
        m.HTTPRequestDuration,
        m.AuthEventsTotal,
        m.SessionCacheLive,
        m.LazyUnblocks,
        collectors.NewGoCollector(),
        collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
    )
    return m
}

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
    return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Auth increments the lifecycle counter.  A nil receiver is a no-op so
// services can run without metrics in tests.
func (m *Metrics) Auth(event, outcome string) {
    if m == nil {
        return
    }
    m.AuthEventsTotal.WithLabelValues(event, outcome).Inc()
}

// LazyUnblock records one lazy unblock.  Nil-safe.
func (m *Metrics) LazyUnblock() {
    if m == nil {
        return
    }
    m.LazyUnblocks.Inc()
}

// SetSessionCacheLive records the session cache mode.  Nil-safe.
func (m *Metrics) SetSessionCacheLive(live bool) {
    if m == nil {
        return
    }
    if live {
        m.SessionCacheLive.Set(1)
        return
    }
    m.SessionCacheLive.Set(0)
}
