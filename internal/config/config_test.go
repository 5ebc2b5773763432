package config

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setBase(t *testing.T) {
	t.Helper()
	for k, v := range map[string]string{
		"APP_ENV":                "test",
		"APP_PORT":               "8080",
		"JWT_SECRET":             "s3cret",
		"ACCESS_TOKEN_TTL_MIN":   "15",
		"REFRESH_TOKEN_TTL_DAYS": "7",
		"BCRYPT_COST":            "10",
		"STORE_BACKEND":          "",
		"DB_USER":                "",
		"DB_HOST":                "",
		"DB_PORT":                "",
		"DB_NAME":                "",
		"COOLDOWN_STUDY_ROOM":    "",
		"COOLDOWN_DEFAULT":       "",
		"EVENTS_ENABLED":         "",
	} {
		t.Setenv(k, v)
	}
}

func TestLoadMemoryBackend(t *testing.T) {
	setBase(t)
	t.Setenv("STORE_BACKEND", "memory")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, BackendMemory, cfg.StoreBackend)
	assert.Equal(t, 15, cfg.AccessTTLMin)
	assert.Equal(t, 60*time.Minute, cfg.StudyRoomCooldown)
	assert.Equal(t, 30*time.Minute, cfg.DefaultCooldown)
	assert.False(t, cfg.AllowStaffSignup)
	assert.False(t, cfg.EventsEnabled)
}

func TestLoadMySQLRequiresDB(t *testing.T) {
	setBase(t)

	_, err := Load()
	require.Error(t, err)
	for _, k := range []string{"DB_USER", "DB_HOST", "DB_PORT", "DB_NAME"} {
		assert.ErrorContains(t, err, k)
	}

	t.Setenv("DB_USER", "campus")
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_PORT", "3306")
	t.Setenv("DB_NAME", "campus")
	t.Setenv("DB_AUTO_MIGRATE", "true")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, BackendMySQL, cfg.StoreBackend)
	assert.True(t, cfg.DBAutoMigrate)
}

func TestLoadReportsEveryProblem(t *testing.T) {
	setBase(t)
	t.Setenv("STORE_BACKEND", "sqlite")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("BCRYPT_COST", "high")
	t.Setenv("COOLDOWN_DEFAULT", "-5m")

	_, err := Load()
	require.Error(t, err)
	assert.ErrorContains(t, err, "JWT_SECRET")
	assert.ErrorContains(t, err, "BCRYPT_COST")
	assert.ErrorContains(t, err, "STORE_BACKEND")
	assert.ErrorContains(t, err, "cooldowns")
}

func TestLoadCooldownOverrides(t *testing.T) {
	setBase(t)
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("COOLDOWN_STUDY_ROOM", "90m")
	t.Setenv("COOLDOWN_DEFAULT", "10m")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 90*time.Minute, cfg.StudyRoomCooldown)
	assert.Equal(t, 10*time.Minute, cfg.DefaultCooldown)
}

func TestLoadRejectsMalformedCooldown(t *testing.T) {
	setBase(t)
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("COOLDOWN_STUDY_ROOM", "60")
	t.Setenv("COOLDOWN_DEFAULT", "half an hour")

	_, err := Load()
	require.Error(t, err)
	assert.ErrorContains(t, err, "COOLDOWN_STUDY_ROOM")
	assert.ErrorContains(t, err, "COOLDOWN_DEFAULT")
}

func TestRateLimitNormalized(t *testing.T) {
	c := RateLimitConfig{Capacity: 0, RefillTokens: -1, RefillInterval: 0, TTL: time.Second}.normalized()
	assert.Equal(t, 1, c.Capacity)
	assert.Equal(t, 1, c.RefillTokens)
	assert.Equal(t, time.Second, c.RefillInterval)
	assert.Equal(t, 5*time.Second, c.TTL)
}

func TestLoadRateLimitBurst(t *testing.T) {
	t.Setenv("RATE_LIMIT_BURST", "5")
	t.Setenv("RATE_LIMIT_REFILL_EVERY", "2s")
	c := LoadRateLimitConfig()
	assert.Equal(t, 5, c.Capacity)
	assert.Equal(t, 1, c.RefillTokens)
	assert.Equal(t, 2*time.Second, c.RefillInterval)
}

func TestParseMethods(t *testing.T) {
	assert.Equal(t, map[string]bool{"GET": true, "HEAD": true}, parseMethods(" get, HEAD ,,"))
}

func TestRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)
	t.Setenv("REDIS_HOST", mr.Host())
	t.Setenv("REDIS_PORT", mr.Port())

	cfg := LoadRedisConfig()
	assert.Equal(t, mr.Addr(), cfg.Addr)
	client := NewRedisClient(cfg)
	require.NotNil(t, client)
	_ = client.Close()

	mr.Close()
	assert.Nil(t, NewRedisClient(cfg))
}
