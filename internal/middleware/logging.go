package middleware

import (
	"log"
	"time"

	"github.com/labstack/echo/v4"
)

// Logging writes one key=value line per HTTP request.
func Logging() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			latency := time.Since(start)

			if err != nil {
				c.Error(err)
			}

			status := c.Response().Status
			level := "info"
			switch {
			case status >= 500:
				level = "error"
			case status >= 400:
				level = "warn"
			}

			user := UserIDFromContext(c)
			if user == "" {
				user = "-"
			}
			log.Printf("level=%s request_id=%s method=%s path=%s status=%d user=%s latency=%s",
				level, RequestIDFromContext(c), c.Request().Method, c.Request().URL.Path, status, user, latency)

			return err
		}
	}
}
