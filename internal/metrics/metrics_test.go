package metrics

import (
    "net/http"
    "net/http/httptest"
    "testing"

    "github.com/prometheus/client_golang/prometheus/testutil"
    "github.com/stretchr/testify/assert"
)

func TestAuthCounter(t *testing.T) {
    m := New()

    m.Auth("login", "success")
    m.Auth("login", "success")
    m.Auth("login", "bad_credentials")

    assert.Equal(t, 2.0, testutil.ToFloat64(m.AuthEventsTotal.WithLabelValues("login", "success")))
    assert.Equal(t, 1.0, testutil.ToFloat64(m.AuthEventsTotal.WithLabelValues("login", "bad_credentials")))
}

func TestNilMetricsIsNoop(t *testing.T) {
    var m *Metrics
    assert.NotPanics(t, func() {
        m.Auth("login", "success")
        m.LazyUnblock()
        m.SetSessionCacheLive(true)
    })
}

func TestHandlerExposesSessionGauge(t *testing.T) {
    m := New()
    m.SetSessionCacheLive(false)

    rec := httptest.NewRecorder()
    m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Contains(t, rec.Body.String(), "portfolio_session_cache_live 0")
}
