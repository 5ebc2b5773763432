package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/campus-portal/internal/config"
	"github.com/iliyamo/campus-portal/internal/utils"
)

const secret = "mw-secret"

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func bearer(t *testing.T, userID, role string) string {
	t.Helper()
	tok, err := utils.NewAccessToken(secret, userID, role, 5)
	require.NoError(t, err)
	return "Bearer " + tok.Token
}

func serve(e *echo.Echo, method, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if auth != "" {
		req.Header.Set(echo.HeaderAuthorization, auth)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func whoami(c echo.Context) error {
	id, _ := CurrentUserID(c)
	return c.JSON(http.StatusOK, echo.Map{"id": id, "role": CurrentRole(c)})
}

func TestJWTAuth(t *testing.T) {
	e := echo.New()
	e.GET("/me", whoami, JWTAuth(secret))

	rec := serve(e, http.MethodGet, "/me", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(e, http.MethodGet, "/me", "Bearer not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(e, http.MethodGet, "/me", "Basic abc")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(e, http.MethodGet, "/me", bearer(t, "u1", "student"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":"u1","role":"student"}`, rec.Body.String())
}

func TestRequireRole(t *testing.T) {
	e := echo.New()
	e.GET("/admin", whoami, JWTAuth(secret), RequireRole("admin", "principal"))

	assert.Equal(t, http.StatusForbidden, serve(e, http.MethodGet, "/admin", bearer(t, "u1", "student")).Code)
	assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/admin", bearer(t, "u2", "principal")).Code)
}

func TestTokenBucketLimits(t *testing.T) {
	_, rdb := newRedis(t)
	cfg := config.RateLimitConfig{
		Enabled:        true,
		Capacity:       2,
		RefillTokens:   1,
		RefillInterval: time.Hour,
		TTL:            time.Hour,
		KeyStrategy:    "user_route",
		Prefix:         "test:rl",
	}
	e := echo.New()
	e.GET("/ping", whoami, JWTAuth(secret), NewTokenBucket(cfg, rdb))
	ana, ben := bearer(t, "ana", "student"), bearer(t, "ben", "student")

	for i := 0; i < 2; i++ {
		rec := serve(e, http.MethodGet, "/ping", ana)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	}
	rec := serve(e, http.MethodGet, "/ping", ana)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "retry_after")

	// buckets are per user
	assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/ping", ben).Code)
}

func TestTokenBucketFailsOpen(t *testing.T) {
	mr, rdb := newRedis(t)
	cfg := config.RateLimitConfig{Enabled: true, Capacity: 1, RefillTokens: 1, RefillInterval: time.Hour, TTL: time.Hour, Prefix: "test:rl"}
	e := echo.New()
	e.GET("/ping", whoami, NewTokenBucket(cfg, rdb))
	mr.Close()

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/ping", "").Code)
	}
}

func TestTokenBucketPassThroughWithoutRedis(t *testing.T) {
	e := echo.New()
	e.GET("/ping", whoami, NewTokenBucket(config.RateLimitConfig{Enabled: true, Capacity: 1}, nil))
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/ping", "").Code)
	}
}

func TestRedisCache(t *testing.T) {
	_, rdb := newRedis(t)
	cfg := config.CacheConfig{
		Enabled:      true,
		Methods:      map[string]bool{http.MethodGet: true},
		TTL:          time.Minute,
		KeyStrategy:  "route_query",
		Prefix:       "test:cache",
		MaxBodyBytes: 1 << 10,
	}
	var calls atomic.Int32
	e := echo.New()
	e.GET("/board", func(c echo.Context) error {
		n := calls.Add(1)
		return c.JSON(http.StatusOK, echo.Map{"call": n})
	}, NewRedisCache(cfg, rdb))

	first := serve(e, http.MethodGet, "/board?limit=5", "")
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))

	second := serve(e, http.MethodGet, "/board?limit=5", "")
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.True(t, strings.HasPrefix(second.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON))

	other := serve(e, http.MethodGet, "/board?limit=6", "")
	assert.Equal(t, "MISS", other.Header().Get("X-Cache"))
	assert.Equal(t, int32(2), calls.Load())
}

func TestRedisCacheSkipsErrorsAndLargeBodies(t *testing.T) {
	_, rdb := newRedis(t)
	cfg := config.CacheConfig{Enabled: true, Methods: map[string]bool{http.MethodGet: true}, TTL: time.Minute, Prefix: "test:cache", MaxBodyBytes: 8}
	var calls atomic.Int32
	e := echo.New()
	e.GET("/big", func(c echo.Context) error {
		calls.Add(1)
		return c.String(http.StatusOK, strings.Repeat("x", 64))
	}, NewRedisCache(cfg, rdb))
	e.GET("/fail", func(c echo.Context) error {
		calls.Add(1)
		return c.String(http.StatusServiceUnavailable, "down")
	}, NewRedisCache(cfg, rdb))

	for i := 0; i < 2; i++ {
		assert.Equal(t, "MISS", serve(e, http.MethodGet, "/big", "").Header().Get("X-Cache"))
		assert.Equal(t, "MISS", serve(e, http.MethodGet, "/fail", "").Header().Get("X-Cache"))
	}
	assert.Equal(t, int32(4), calls.Load())
}

func TestCacheKeyIncludesSubject(t *testing.T) {
	cfg := config.CacheConfig{Prefix: "p", KeyStrategy: "route"}
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/x", nil), httptest.NewRecorder())
	c.SetPath("/x")
	anon := cacheKey(cfg, c)
	c.Set(ctxUserID, "u1")
	assert.NotEqual(t, anon, cacheKey(cfg, c))
}

func TestEntryRoundTrip(t *testing.T) {
	hdr := http.Header{"Content-Type": []string{"application/json"}}
	bs, err := encodeEntry(http.StatusOK, hdr, []byte(`{"a":1}`))
	require.NoError(t, err)
	status, got, body, ok := decodeEntry(bs)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, hdr, got)
	assert.Equal(t, `{"a":1}`, string(body))

	_, _, _, ok = decodeEntry([]byte{1, 2})
	assert.False(t, ok)
}

func TestRateKeyStrategies(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/messages", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/v1/messages")
	c.Set(ctxUserID, "u1")

	assert.Equal(t, "rl:user:u1:route:POST /v1/messages", rateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: "user_route"}, c))
	assert.Equal(t, "rl:ip:10.0.0.1", rateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: "ip"}, c))
	assert.Equal(t, "rl:ip:10.0.0.1:user:u1:route:POST /v1/messages", rateKey(config.RateLimitConfig{Prefix: "rl"}, c))
}
