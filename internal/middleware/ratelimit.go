package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"socialdeck/internal/models"
	"socialdeck/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// FailPolicy defines the behavior when the rate limit store (Redis) is unavailable.
type FailPolicy int

const (
	// FailOpen allows the request to proceed if Redis is unavailable.
	FailOpen FailPolicy = iota
	// FailClosed blocks the request (503 Service Unavailable) if Redis is unavailable.
	FailClosed
)

// CheckRateLimit checks if a resource has exceeded its rate limit.
// Returns true if allowed, false if limit exceeded.
// Rate limiting is disabled when APP_ENV is "test", "development" or "stress".
func CheckRateLimit(ctx context.Context, rdb *redis.Client, resource, id string, limit int, window time.Duration) (bool, error) {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	switch env {
	case "test", "development", "stress":
		return true, nil
	}

	if rdb == nil {
		return false, fmt.Errorf("redis client is nil")
	}

	key := fmt.Sprintf("rl:%s:%s", resource, id)

	cnt, err := rdb.Incr(ctx, key).Result()
	if err != nil {
		observability.RedisErrorRate.WithLabelValues("rate_limit").Inc()
		return false, err
	}
	if cnt == 1 {
		rdb.Expire(ctx, key, window)
	}
	if cnt > int64(limit) {
		return false, nil
	}
	return true, nil
}

// LimitFunc picks the request limit for the current request.
type LimitFunc func(c *fiber.Ctx) int

// RateLimit returns a Fiber middleware enforcing `limit` requests per `window`.
// It keys by the session user if present, otherwise by remote IP, and fails open.
func RateLimit(rdb *redis.Client, limit int, window time.Duration, name ...string) fiber.Handler {
	return RateLimitWithPolicy(rdb, limit, window, FailOpen, name...)
}

// RateLimitWithPolicy returns a Fiber middleware enforcing `limit` requests per `window` with a specific failure policy.
func RateLimitWithPolicy(rdb *redis.Client, limit int, window time.Duration, policy FailPolicy, name ...string) fiber.Handler {
	return rateLimit(rdb, func(*fiber.Ctx) int { return limit }, window, policy, name...)
}

// RoleRateLimit limits by plan tier: premium and admin sessions get premiumLimit,
// everyone else basicLimit. Must run after the auth middleware.
func RoleRateLimit(rdb *redis.Client, basicLimit, premiumLimit int, window time.Duration, name ...string) fiber.Handler {
	return rateLimit(rdb, func(c *fiber.Ctx) int {
		if session, ok := SessionFrom(c); ok && session.IsPremium() {
			return premiumLimit
		}
		return basicLimit
	}, window, FailOpen, name...)
}

func rateLimit(rdb *redis.Client, limitFn LimitFunc, window time.Duration, policy FailPolicy, name ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()

		var id string
		if uid, ok := c.Locals(LocalUserID).(string); ok && uid != "" {
			id = "user:" + uid
		} else {
			id = "ip:" + c.IP()
		}

		resource := c.Path()
		if len(name) > 0 {
			resource = name[0]
		}

		allowed, err := CheckRateLimit(ctx, rdb, resource, id, limitFn(c), window)
		if err != nil {
			if policy == FailClosed {
				observability.Logger.WarnContext(c.UserContext(), "rate limit fail-closed",
					slog.String("path", c.Path()),
					slog.String("resource", resource),
					slog.String("error", err.Error()),
				)
				return c.Status(fiber.StatusServiceUnavailable).JSON(models.ErrorResponse{
					Error:  "rate limit unavailable",
					Notice: models.NewNotice(models.SeverityError, "Service temporarily unavailable"),
				})
			}
			return c.Next()
		}

		if !allowed {
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
				Error:  "rate limit exceeded",
				Notice: models.NewNotice(models.SeverityWarning, "Too many requests, please try again later"),
			})
		}
		return c.Next()
	}
}
