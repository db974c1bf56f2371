package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"

	"github.com/kashmau/track-fitness/internal/config"
)

func rateCfg() config.RateLimitConfig {
	return config.RateLimitConfig{
		Enabled:        true,
		Capacity:       2,
		RefillTokens:   1,
		RefillInterval: time.Minute,
		TTL:            10 * time.Minute,
		KeyStrategy:    "ip_route",
		Prefix:         "test-rl",
	}
}

func newLimitedEcho(cfg config.RateLimitConfig, rdb *redis.Client) *echo.Echo {
	e := echo.New()
	e.POST("/loginUser", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, NewTokenBucket(cfg, rdb))
	e.POST("/register", func(c echo.Context) error { return c.NoContent(http.StatusCreated) }, NewTokenBucket(cfg, rdb))
	return e
}

func post(e *echo.Echo, path, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, nil)
	req.RemoteAddr = ip + ":5555"
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestTokenBucketBlocksAfterCapacity(t *testing.T) {
	mr := miniredis.RunT(t)
	e := newLimitedEcho(rateCfg(), redis.NewClient(&redis.Options{Addr: mr.Addr()}))

	first := post(e, "/loginUser", "10.0.0.1")
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "2", first.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, http.StatusOK, post(e, "/loginUser", "10.0.0.1").Code)

	blocked := post(e, "/loginUser", "10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, blocked.Code)
	assert.NotEmpty(t, blocked.Header().Get("Retry-After"))

	// other callers and other routes have their own buckets
	assert.Equal(t, http.StatusOK, post(e, "/loginUser", "10.0.0.2").Code)
	assert.Equal(t, http.StatusCreated, post(e, "/register", "10.0.0.1").Code)
}

func TestTokenBucketFailsOpen(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	e := newLimitedEcho(rateCfg(), rdb)
	mr.Close()

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, post(e, "/loginUser", "10.0.0.1").Code)
	}
}

func TestTokenBucketDisabled(t *testing.T) {
	cfg := rateCfg()
	cfg.Enabled = false
	e := newLimitedEcho(cfg, nil)

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, post(e, "/loginUser", "10.0.0.1").Code)
	}
}

func TestBuildRateKey(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/loginUser", nil)
	req.RemoteAddr = "10.0.0.9:1234"
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/loginUser")

	cfg := rateCfg()
	assert.Equal(t, "test-rl:ip:10.0.0.9:route:POST /loginUser", buildRateKey(cfg, c))
	cfg.KeyStrategy = "user"
	assert.Equal(t, "test-rl:user:anon", buildRateKey(cfg, c))
}
