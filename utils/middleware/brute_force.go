package middleware

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/edupress/edu-platform-api/utils/cache"
	"github.com/edupress/edu-platform-api/utils/response"
)

// LoginThrottle rate-limits the login endpoint per client IP with
// progressive lockouts backed by redis. With redis unavailable it fails
// open; a cache outage must not lock out legitimate users.
type LoginThrottle struct {
	redisCache *cache.RedisCache
}

// NewLoginThrottle creates a login throttle backed by the given cache.
func NewLoginThrottle(redisCache *cache.RedisCache) *LoginThrottle {
	return &LoginThrottle{redisCache: redisCache}
}

// Check rejects requests from locked-out IPs with a Retry-After header.
func (t *LoginThrottle) Check() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if t == nil || t.redisCache == nil {
			return c.Next()
		}

		lockKey := fmt.Sprintf("login:lock:%s", c.IP())
		locked, err := t.redisCache.Exists(c.Context(), lockKey)
		if err != nil {
			return c.Next()
		}

		if locked {
			ttl, _ := t.redisCache.TTL(c.Context(), lockKey)
			retryAfter := int(ttl.Seconds())
			if retryAfter < 0 {
				retryAfter = 60
			}
			c.Set("Retry-After", fmt.Sprintf("%d", retryAfter))
			return response.TooManyRequests(c,
				fmt.Sprintf("Too many failed attempts. Try again in %d seconds", retryAfter))
		}

		return c.Next()
	}
}

// RecordFailure counts a failed login for the IP and applies a progressive
// lockout: 5 failures lock for 2 minutes, 10 for an hour, 25 for a day.
// The attempt window is 15 minutes.
func (t *LoginThrottle) RecordFailure(c *fiber.Ctx) {
	if t == nil || t.redisCache == nil {
		return
	}

	ctx := c.Context()
	ip := c.IP()
	attemptKey := fmt.Sprintf("login:attempts:%s", ip)
	lockKey := fmt.Sprintf("login:lock:%s", ip)

	attempts, err := t.redisCache.Increment(ctx, attemptKey)
	if err != nil {
		return
	}
	if attempts == 1 {
		_ = t.redisCache.Expire(ctx, attemptKey, 15*time.Minute)
	}

	var lockDuration time.Duration
	switch {
	case attempts >= 25:
		lockDuration = 24 * time.Hour
	case attempts >= 10:
		lockDuration = time.Hour
	case attempts >= 5:
		lockDuration = 2 * time.Minute
	default:
		return
	}

	_ = t.redisCache.Set(ctx, lockKey, "locked", lockDuration)
}

// Reset clears the attempt counter after a successful login.
func (t *LoginThrottle) Reset(c *fiber.Ctx) {
	if t == nil || t.redisCache == nil {
		return
	}
	_ = t.redisCache.Delete(c.Context(), fmt.Sprintf("login:attempts:%s", c.IP()))
}
