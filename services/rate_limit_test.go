package services

import (
	"fmt"
	"io"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wheelchair-racer/wr_api/middleware"
	"github.com/wheelchair-racer/wr_api/ratelimit"
	"github.com/wheelchair-racer/wr_api/shared"
)

func TestAllowDenial(t *testing.T) {
	svc, mc := newTestLimiter(t)
	before := testutil.ToFloat64(rateLimitDenialsTotal.WithLabelValues("LOGIN"))

	for i := 0; i < 5; i++ {
		require.NoError(t, svc.Allow(ratelimit.Login, "a@b.com"))
	}
	mc.Advance(time.Minute)

	err := svc.Allow(ratelimit.Login, "a@b.com")
	appErr, ok := shared.GetAppError(err)
	require.True(t, ok)
	assert.Equal(t, 429, appErr.StatusCode)
	assert.Equal(t, "Too many attempts. Please try again in 15 minutes.", appErr.Message)
	assert.Equal(t, fiber.Map{"retry_after": int64(900), "policy": "LOGIN"}, appErr.Data)
	assert.Equal(t, "900", appErr.Headers["Retry-After"])
	assert.Equal(t, "5", appErr.Headers["X-RateLimit-Limit"])
	assert.Equal(t, "0", appErr.Headers["X-RateLimit-Remaining"])
	assert.Equal(t, strconv.FormatInt(testNow.Add(16*time.Minute).Unix(), 10), appErr.Headers["X-RateLimit-Reset"])

	assert.Equal(t, before+1, testutil.ToFloat64(rateLimitDenialsTotal.WithLabelValues("LOGIN")))
	assert.Equal(t, float64(1), svc.Stats().Denials["LOGIN"])

	// Other subjects are unaffected.
	assert.NoError(t, svc.Allow(ratelimit.Login, "c@d.com"))

	svc.Clear(ratelimit.Login, "a@b.com")
	assert.NoError(t, svc.Allow(ratelimit.Login, "a@b.com"))
}

func TestInfoDoesNotCount(t *testing.T) {
	svc, _ := newTestLimiter(t)
	require.NoError(t, svc.Allow(ratelimit.ContactForm, "a@b.com"))

	for i := 0; i < 3; i++ {
		info := svc.Info(ratelimit.ContactForm, "a@b.com")
		assert.Equal(t, 2, info.Remaining)
		assert.True(t, info.Allowed)
		assert.Equal(t, time.Hour, info.ResetIn)
	}
}

func TestStats(t *testing.T) {
	svc, _ := newTestLimiter(t)
	require.NoError(t, svc.Allow(ratelimit.Login, "a@b.com"))
	require.NoError(t, svc.Allow(ratelimit.APICall, "10.0.0.1"))

	stats := svc.Stats()
	assert.Equal(t, RateLimitStoreMemory, stats.Store)
	assert.Equal(t, 2, stats.Tracked)
	require.Len(t, stats.Policies, len(ratelimit.Policies()))
	assert.Equal(t, "LOGIN", stats.Policies[0].Name)
	assert.Equal(t, int64(900000), stats.Policies[0].WindowMs)
}

func newAdminApp(svc *RateLimitService) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: shared.ErrorHandler})
	app.Get("/admin/rate-limits", svc.GetRateLimitStats())
	app.Post("/admin/rate-limits/cleanup", svc.CleanupRateLimits())
	app.Delete("/admin/rate-limits/:policy/:subject", svc.RemoveRateLimit())
	app.Delete("/admin/rate-limits", svc.ClearRateLimits())
	return app
}

func TestRateLimitAdminHandlers(t *testing.T) {
	svc, mc := newTestLimiter(t)
	app := newAdminApp(svc)

	for i := 0; i < 6; i++ {
		_ = svc.Allow(ratelimit.Login, "a@b.com")
	}
	require.Error(t, svc.Allow(ratelimit.Login, "a@b.com"))

	resp, err := app.Test(httptest.NewRequest("DELETE", "/admin/rate-limits/BOGUS/a@b.com", nil))
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("DELETE", "/admin/rate-limits/login/a@b.com", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.NoError(t, svc.Allow(ratelimit.Login, "a@b.com"))

	require.NoError(t, svc.Allow(ratelimit.CommentCreate, "u1"))
	resp, err = app.Test(httptest.NewRequest("DELETE", "/admin/rate-limits", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, 0, svc.Stats().Tracked)

	require.NoError(t, svc.Allow(ratelimit.APICall, "10.0.0.1"))
	mc.Advance(2 * time.Minute)
	resp, err = app.Test(httptest.NewRequest("POST", "/admin/rate-limits/cleanup", nil))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)

	var envelope struct {
		Data struct {
			Removed int `json:"removed"`
		} `json:"data"`
	}
	require.NoError(t, sonic.Unmarshal(body, &envelope))
	assert.Equal(t, 1, envelope.Data.Removed)

	resp, err = app.Test(httptest.NewRequest("GET", "/admin/rate-limits", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
}

func TestAPICallMiddleware(t *testing.T) {
	svc, _ := newTestLimiter(t)
	app := fiber.New(fiber.Config{ErrorHandler: shared.ErrorHandler})
	app.Use(svc.APICall())
	app.Get("/ping", func(c *fiber.Ctx) error { return c.SendString("pong") })

	for i := 0; i < 100; i++ {
		resp, err := app.Test(httptest.NewRequest("GET", "/ping", nil))
		require.NoError(t, err)
		require.Equal(t, 200, resp.StatusCode)
		if i == 0 {
			assert.Equal(t, "100", resp.Header.Get("X-RateLimit-Limit"))
			assert.Equal(t, "99", resp.Header.Get("X-RateLimit-Remaining"))
		}
	}

	resp, err := app.Test(httptest.NewRequest("GET", "/ping", nil))
	require.NoError(t, err)
	assert.Equal(t, 429, resp.StatusCode)
	assert.Equal(t, "60", resp.Header.Get("Retry-After"))
}

func TestAPICallResetHeaderFollowsServiceClock(t *testing.T) {
	svc, mc := newTestLimiter(t)
	app := fiber.New(fiber.Config{ErrorHandler: shared.ErrorHandler})
	app.Use(svc.APICall())
	app.Get("/ping", func(c *fiber.Ctx) error { return c.SendString("pong") })

	want := strconv.FormatInt(testNow.Add(time.Minute).Unix(), 10)
	for i := 0; i < 100; i++ {
		resp, err := app.Test(httptest.NewRequest("GET", "/ping", nil))
		require.NoError(t, err)
		require.Equal(t, 200, resp.StatusCode)
		require.Equal(t, want, resp.Header.Get("X-RateLimit-Reset"))
	}

	mc.Advance(10 * time.Second)
	resp, err := app.Test(httptest.NewRequest("GET", "/ping", nil))
	require.NoError(t, err)
	assert.Equal(t, 429, resp.StatusCode)
	assert.Equal(t, want, resp.Header.Get("X-RateLimit-Reset"))
	assert.Equal(t, "50", resp.Header.Get("Retry-After"))
}

func TestAPICallIgnoresForwardedForWithoutTrustedProxies(t *testing.T) {
	t.Setenv("TRUSTED_PROXIES", "")
	middleware.SetTrustedProxies(middleware.ProxyListFromEnv())
	t.Cleanup(func() { middleware.SetTrustedProxies(nil) })

	svc, _ := newTestLimiter(t)
	app := fiber.New(fiber.Config{ErrorHandler: shared.ErrorHandler})
	app.Use(svc.APICall())
	app.Get("/ping", func(c *fiber.Ctx) error { return c.SendString("pong") })

	denied := 0
	for i := 0; i < 150; i++ {
		req := httptest.NewRequest("GET", "/ping", nil)
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("203.0.%d.%d", i/250, i%250+1))
		resp, err := app.Test(req)
		require.NoError(t, err)
		if resp.StatusCode == 429 {
			denied++
		}
	}

	assert.Equal(t, 50, denied)
	assert.Equal(t, 1, svc.Stats().Tracked)
}
