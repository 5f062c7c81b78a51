package middleware

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/eventra/dashboard/api/internal/config"
)

const sharedRateKeyPrefix = "eventra:ai-rate"

// windowCounter increments a counter that lives for one window.
type windowCounter interface {
	Hit(ctx context.Context, key string, window time.Duration) (int64, error)
}

type redisWindowCounter struct {
	client *redis.Client
}

func (r redisWindowCounter) Hit(ctx context.Context, key string, window time.Duration) (int64, error) {
	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		if err := r.client.Expire(ctx, key, window).Err(); err != nil {
			return count, err
		}
	}
	return count, nil
}

// SharedAIRateLimiter enforces the AI rate limit across API replicas with a
// fixed window counter kept in Redis. When Redis is unreachable the request
// is allowed and a warning is logged.
func SharedAIRateLimiter(client *redis.Client, cfg config.RateLimitConfig) echo.MiddlewareFunc {
	return sharedRateLimiter(redisWindowCounter{client: client}, cfg, time.Now)
}

func sharedRateLimiter(counter windowCounter, cfg config.RateLimitConfig, now func() time.Time) echo.MiddlewareFunc {
	if counter == nil || cfg.Requests <= 0 || cfg.Interval <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return next
		}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			caller := UserIDFromContext(c)
			if caller == "" {
				caller = "ip:" + c.RealIP()
			}

			current := now()
			window := current.Truncate(cfg.Interval)
			key := fmt.Sprintf("%s:%s:%d", sharedRateKeyPrefix, caller, window.Unix())

			count, err := counter.Hit(c.Request().Context(), key, cfg.Interval)
			if err != nil {
				log.Printf("level=warn msg=\"shared rate limiter unavailable\" user=%s err=%v", caller, err)
				return next(c)
			}
			if count > int64(cfg.Requests) {
				seconds := int(window.Add(cfg.Interval).Sub(current).Round(time.Second) / time.Second)
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
