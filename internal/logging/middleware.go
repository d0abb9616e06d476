package logging

import (
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
)

// RequestLogger attaches the logger to the request context and emits one
// line per completed request.
func RequestLogger(l *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			c.SetRequest(req.WithContext(IntoContext(req.Context(), l)))

			start := time.Now()
			err := next(c)

			l.Info("request",
				"method", req.Method,
				"path", req.URL.Path,
				"status", c.Response().Status,
				"duration_ms", time.Since(start).Milliseconds(),
			)
			return err
		}
	}
}
