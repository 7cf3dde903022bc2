package middleware

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/military-registry/personnel-api/internal/pkg/metrics"
)

// Metrics records request latency by method, route template and status. Errors
// are rendered here through the HTTP error handler so the recorded status is
// the one the client receives, then returned so outer middleware still sees
// them. The error handler skips responses that are already committed.
func Metrics() echo.MiddlewareFunc {
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
			metrics.HTTPRequestDuration.
				WithLabelValues(c.Request().Method, route, strconv.Itoa(c.Response().Status)).
				Observe(time.Since(start).Seconds())
			return err
		}
	}
}
