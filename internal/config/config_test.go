package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "0123456789abcdef0123456789abcdef"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", secret)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, "postgres", cfg.DatabaseDriver)
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, "DEFAULT", cfg.DefaultStoreCode)
	assert.Equal(t, "en", cfg.DefaultLanguage)
	assert.Contains(t, cfg.Warnings(), "REDIS_ADDR is empty, store cache disabled")
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", secret)
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("JWT_TTL", "90m")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("STORE_CACHE_TTL", "not-a-duration")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.DatabaseDriver)
	assert.Equal(t, 90*time.Minute, cfg.JWTTTL)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, 10*time.Minute, cfg.StoreCacheTTL)
}

func TestLoadRejectsWeakSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "short")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidateDriver(t *testing.T) {
	cfg := &Config{JWTSecret: secret, JWTTTL: time.Hour, DatabaseDriver: "mysql"}
	assert.EqualError(t, cfg.Validate(), `unsupported DB_DRIVER "mysql"`)
}
