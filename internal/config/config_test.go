package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRateLimitConfig_Defaults(t *testing.T) {
	for _, k := range []string{"RATE_LIMIT_ENABLED", "RATE_LIMIT_BURST", "RATE_LIMIT_EVERY", "RATE_LIMIT_PREFIX"} {
		t.Setenv(k, "")
	}
	cfg := LoadRateLimitConfig()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 10, cfg.Burst)
	assert.Equal(t, 6*time.Second, cfg.Every)
	assert.Equal(t, "rl:tokens", cfg.Prefix)
	assert.Equal(t, time.Minute, cfg.TTL())
}

func TestLoadRateLimitConfig_ClampsBadValues(t *testing.T) {
	t.Setenv("RATE_LIMIT_ENABLED", "off")
	t.Setenv("RATE_LIMIT_BURST", "0")
	t.Setenv("RATE_LIMIT_EVERY", "not-a-duration")

	cfg := LoadRateLimitConfig()
	assert.False(t, cfg.Enabled)
	assert.Equal(t, 1, cfg.Burst)
	assert.Equal(t, 6*time.Second, cfg.Every)

	t.Setenv("RATE_LIMIT_EVERY", "0s")
	assert.Equal(t, time.Second, LoadRateLimitConfig().Every)
}

func TestLoadRedisConfig_HostPortWinsOverAddr(t *testing.T) {
	t.Setenv("REDIS_ADDR", "cache:6380")
	t.Setenv("REDIS_HOST", "redis")
	t.Setenv("REDIS_PORT", "6379")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("REDIS_TLS", "1")

	cfg := LoadRedisConfig()
	assert.Equal(t, "redis:6379", cfg.Addr)
	assert.Equal(t, 2, cfg.DB)
	assert.True(t, cfg.TLS)
}

func TestLoad_ReadsEnvironment(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	t.Setenv("APP_PORT", "8080")
	t.Setenv("DB_USER", "app")
	t.Setenv("DB_PASS", "")
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_PORT", "3306")
	t.Setenv("DB_NAME", "pipelines")
	t.Setenv("DB_MIGRATE", "false")
	t.Setenv("JWT_SECRET", "jwt")
	t.Setenv("TOKEN_HASH_KEY", "salt")
	t.Setenv("RABBITMQ_URL", "")
	t.Setenv("AMQP_URL", "amqp://broker:5672/")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "dev", cfg.Env)
	assert.False(t, cfg.DBMigrate)
	assert.Equal(t, "salt", cfg.TokenHashKey)
	assert.Equal(t, "amqp://broker:5672/", cfg.AMQPURL)
	assert.Equal(t, "logs", cfg.AuditLogDir)
}

func TestLoad_ReportsEveryMissingVariable(t *testing.T) {
	for _, k := range []string{"APP_ENV", "APP_PORT", "DB_USER", "DB_HOST", "DB_PORT", "DB_NAME", "JWT_SECRET", "TOKEN_HASH_KEY"} {
		t.Setenv(k, "x")
	}
	t.Setenv("JWT_SECRET", "")
	t.Setenv("TOKEN_HASH_KEY", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
	assert.Contains(t, err.Error(), "TOKEN_HASH_KEY")
	assert.NotContains(t, err.Error(), "APP_ENV")
}

func TestLoadDotEnv_DoesNotOverrideEnvironment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("APP_PORT=9999\nPIPELINE_TOKENS_TEST_ONLY=from-file\n"), 0o600))
	t.Setenv("APP_PORT", "8080")
	t.Setenv("PIPELINE_TOKENS_TEST_ONLY", "")
	require.NoError(t, os.Unsetenv("PIPELINE_TOKENS_TEST_ONLY"))

	LoadDotEnv(path, filepath.Join(dir, "missing.env"))

	assert.Equal(t, "8080", os.Getenv("APP_PORT"))
	assert.Equal(t, "from-file", os.Getenv("PIPELINE_TOKENS_TEST_ONLY"))
}
