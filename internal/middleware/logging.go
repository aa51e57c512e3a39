package middleware

import (
    "strconv"
    "time"

    "github.com/labstack/echo/v4"
    echomw "github.com/labstack/echo/v4/middleware"
    "github.com/rs/zerolog"

    "github.com/iliyamo/portfolio-blog/internal/metrics"
)

// RequestLogger logs one line per request through zerolog.
func RequestLogger(log zerolog.Logger) echo.MiddlewareFunc {
    return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
        LogMethod:    true,
        LogURI:       true,
        LogStatus:    true,
        LogLatency:   true,
        LogRequestID: true,
        LogRemoteIP:  true,
        LogError:     true,
        HandleError:  true,
        LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
            ev := log.Info()
            if v.Error != nil || v.Status >= 500 {
                ev = log.Error().Err(v.Error)
            }
            ev.Str("method", v.Method).
                Str("uri", v.URI).
                Int("status", v.Status).
                Dur("latency", v.Latency).
                Str("request_id", v.RequestID).
                Str("remote_ip", v.RemoteIP).
                Msg("request")
            return nil
        },
    })
}

// Metrics records request counts and latencies labelled by route pattern.
func Metrics(m *metrics.Metrics) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            start := time.Now()
            err := next(c)
            if err != nil {
                c.Error(err)
            }
            route := c.Path()
            if route == "" {
                route = "unmatched"
            }
            method := c.Request().Method
            m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(c.Response().Status)).Inc()
            m.HTTPRequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
            return nil
        }
    }
}
