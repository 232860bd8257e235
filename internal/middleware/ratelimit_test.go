package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestCheckRateLimit(t *testing.T) {
	ctx := context.Background()

	t.Run("bypassed in test environment", func(t *testing.T) {
		t.Setenv("APP_ENV", "test")
		allowed, err := CheckRateLimit(ctx, nil, "create_post", "user:1", 1, time.Minute)
		assert.NoError(t, err)
		assert.True(t, allowed)
	})

	t.Run("nil redis in production errors", func(t *testing.T) {
		t.Setenv("APP_ENV", "production")
		_, err := CheckRateLimit(ctx, nil, "create_post", "user:1", 1, time.Minute)
		assert.Error(t, err)
	})

	t.Run("counts per caller within window", func(t *testing.T) {
		t.Setenv("APP_ENV", "production")
		mr, rdb := newTestRedis(t)

		for i := 0; i < 2; i++ {
			allowed, err := CheckRateLimit(ctx, rdb, "create_post", "user:1", 2, time.Minute)
			require.NoError(t, err)
			assert.True(t, allowed)
		}
		allowed, err := CheckRateLimit(ctx, rdb, "create_post", "user:1", 2, time.Minute)
		require.NoError(t, err)
		assert.False(t, allowed)

		other, err := CheckRateLimit(ctx, rdb, "create_post", "user:2", 2, time.Minute)
		require.NoError(t, err)
		assert.True(t, other)

		assert.True(t, mr.TTL("rl:create_post:user:1") > 0)

		mr.FastForward(2 * time.Minute)
		allowed, err = CheckRateLimit(ctx, rdb, "create_post", "user:1", 2, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	t.Run("limit exceeded returns 429", func(t *testing.T) {
		t.Setenv("APP_ENV", "production")
		_, rdb := newTestRedis(t)

		app := fiber.New()
		app.Post("/comments", RateLimit(rdb, 1, time.Minute, "create_comment"), func(c *fiber.Ctx) error {
			return c.SendStatus(fiber.StatusCreated)
		})

		first, err := app.Test(httptest.NewRequest(http.MethodPost, "/comments", nil))
		require.NoError(t, err)
		_ = first.Body.Close()
		assert.Equal(t, http.StatusCreated, first.StatusCode)

		second, err := app.Test(httptest.NewRequest(http.MethodPost, "/comments", nil))
		require.NoError(t, err)
		_ = second.Body.Close()
		assert.Equal(t, http.StatusTooManyRequests, second.StatusCode)
	})

	t.Run("FailOpen with nil redis in production", func(t *testing.T) {
		t.Setenv("APP_ENV", "production")
		app := fiber.New()
		app.Get("/test", RateLimit(nil, 1, time.Minute), func(c *fiber.Ctx) error {
			return c.SendStatus(fiber.StatusOK)
		})

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/test", nil))
		assert.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		_ = resp.Body.Close()
	})

	t.Run("FailClosed with nil redis in production", func(t *testing.T) {
		t.Setenv("APP_ENV", "production")
		app := fiber.New()
		app.Get("/sensitive", RateLimitWithPolicy(nil, 1, time.Minute, FailClosed), func(c *fiber.Ctx) error {
			return c.SendStatus(fiber.StatusOK)
		})

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/sensitive", nil))
		assert.NoError(t, err)
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		_ = resp.Body.Close()
	})
}
