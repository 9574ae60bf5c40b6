package middleware

import (
	"time"

	"SectorPulse/pkg/logger"

	"github.com/labstack/echo/v4"
)

// RequestLogging logs every request at debug and client errors at info.
func RequestLogging(l *logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			status := c.Response().Status
			fields := []logger.Field{
				logger.String("method", req.Method),
				logger.String("route", routeOf(c)),
				logger.String("uri", req.RequestURI),
				logger.String("remote", c.RealIP()),
				logger.Int("status", status),
				logger.Duration("duration_ms", time.Since(start)),
			}
			if status >= 400 && status < 500 {
				l.Info("http request rejected", fields...)
			} else {
				l.Debug("http request", fields...)
			}
			return nil
		}
	}
}
