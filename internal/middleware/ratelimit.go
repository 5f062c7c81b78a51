package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"github.com/eventra/dashboard/api/internal/config"
)

// idleLimiterTTL bounds how long an unused per-user bucket is kept.
const idleLimiterTTL = 30 * time.Minute

type userLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// AIRateLimiter applies a token bucket per caller to the AI endpoints.
// Callers are keyed by user id, or by client IP for anonymous requests.
func AIRateLimiter(cfg config.RateLimitConfig) echo.MiddlewareFunc {
	if cfg.Requests <= 0 || cfg.Interval <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return next
		}
	}

	perRequest := cfg.Interval / time.Duration(cfg.Requests)
	if perRequest <= 0 {
		perRequest = time.Second
	}

	var (
		mu       sync.Mutex
		limiters = map[string]*userLimiter{}
		lastGC   = time.Now()
	)

	allow := func(key string, now time.Time) (bool, time.Duration) {
		mu.Lock()
		defer mu.Unlock()

		if now.Sub(lastGC) > idleLimiterTTL {
			for k, l := range limiters {
				if now.Sub(l.lastSeen) > idleLimiterTTL {
					delete(limiters, k)
				}
			}
			lastGC = now
		}

		l, ok := limiters[key]
		if !ok {
			l = &userLimiter{limiter: rate.NewLimiter(rate.Every(perRequest), cfg.Requests)}
			limiters[key] = l
		}
		l.lastSeen = now

		r := l.limiter.ReserveN(now, 1)
		if !r.OK() {
			return false, cfg.Interval
		}
		if delay := r.DelayFrom(now); delay > 0 {
			r.CancelAt(now)
			return false, delay
		}
		return true, 0
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := UserIDFromContext(c)
			if key == "" {
				key = "ip:" + c.RealIP()
			}

			ok, wait := allow(key, time.Now())
			if !ok {
				seconds := int(wait.Round(time.Second) / time.Second)
				if seconds < 1 {
					seconds = 1
				}
				c.Response().Header().Set("Retry-After", strconv.Itoa(seconds))
				return reject(c, http.StatusTooManyRequests, "AI rate limit exceeded, try again shortly")
			}
			return next(c)
		}
	}
}
