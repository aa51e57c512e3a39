package middleware

import (
    "bytes"
    "net/http"
    "testing"

    "github.com/labstack/echo/v4"
    "github.com/prometheus/client_golang/prometheus/testutil"
    "github.com/rs/zerolog"
    "github.com/stretchr/testify/assert"

    "github.com/iliyamo/portfolio-blog/internal/metrics"
)

func TestMetricsUsesRoutePattern(t *testing.T) {
    m := metrics.New()
    e := echo.New()
    e.Use(Metrics(m))
    e.GET("/posts/:id", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
    e.GET("/boom", func(c echo.Context) error { return echo.NewHTTPError(http.StatusTeapot) })

    serve(e, http.MethodGet, "/posts/1", "")
    serve(e, http.MethodGet, "/posts/2", "")
    serve(e, http.MethodGet, "/boom", "")

    assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/posts/:id", "200")))
    assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/boom", "418")))
}

func TestRequestLogger(t *testing.T) {
    var buf bytes.Buffer
    e := echo.New()
    e.Use(RequestLogger(zerolog.New(&buf)))
    e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

    serve(e, http.MethodGet, "/healthz", "")
    assert.Contains(t, buf.String(), `"uri":"/healthz"`)
    assert.Contains(t, buf.String(), `"status":200`)
}
