package middleware

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/wheelchair-racer/wr_api/dto"
	"github.com/wheelchair-racer/wr_api/ratelimit"
	"github.com/wheelchair-racer/wr_api/shared"
)

// Throttler is satisfied by the rate limit service.
type Throttler interface {
	Allow(policy ratelimit.Policy, subject string) error
	Info(policy ratelimit.Policy, subject string) dto.RateLimitInfo
}

// SubjectFunc picks the subject a request is counted against.
type SubjectFunc func(c *fiber.Ctx) string

// ByClientIP counts requests per normalized client address.
func ByClientIP(c *fiber.Ctx) string {
	return ClientIP(c)
}

// ByUserID counts requests per signed-in user, falling back to the client
// address for anonymous requests.
func ByUserID(c *fiber.Ctx) string {
	if userID, ok := c.Locals(shared.UserID).(string); ok && userID != "" {
		return userID
	}
	return ClientIP(c)
}

// RateLimit rejects the request with 429 once subject has spent the policy
// budget. Rate limit headers are set on every response.
func RateLimit(t Throttler, policy ratelimit.Policy, subject SubjectFunc) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := subject(c)

		if err := t.Allow(policy, key); err != nil {
			return err
		}

		SetRateLimitHeaders(c, t.Info(policy, key))
		return c.Next()
	}
}

func SetRateLimitHeaders(c *fiber.Ctx, info dto.RateLimitInfo) {
	for key, value := range RateLimitHeaders(info) {
		c.Set(key, value)
	}
}

// RateLimitHeaders renders info as the header set carried by a 429.
func RateLimitHeaders(info dto.RateLimitInfo) map[string]string {
	headers := map[string]string{
		"X-RateLimit-Limit":     strconv.Itoa(info.Limit),
		"X-RateLimit-Remaining": strconv.Itoa(info.Remaining),
	}
	if info.ResetIn > 0 {
		headers["X-RateLimit-Reset"] = strconv.FormatInt(info.ResetAt.Unix(), 10)
	}
	if info.RetryAfter > 0 {
		headers["Retry-After"] = strconv.FormatInt(info.RetryAfter, 10)
	}
	return headers
}
