package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"DATABASE_URL", "SEED", "TOKEN_TTL", "LISTEN_ADDR", "CORS_ORIGINS",
		"JWT_SECRET", "LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8001", cfg.Server.ListenAddr)
	assert.Equal(t, []string{"http://localhost:3000", "http://localhost:8001"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "file::memory:?cache=shared", cfg.Database.URL)
	assert.True(t, cfg.Database.Seed)
	assert.Empty(t, cfg.Auth.JWTSecret)
	assert.Equal(t, 15*time.Minute, cfg.Auth.TokenTTL)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())

	t.Setenv("DATABASE_URL", "techshop.db")
	t.Setenv("SEED", "false")
	t.Setenv("TOKEN_TTL", "1h")
	t.Setenv("LISTEN_ADDR", "127.0.0.1:9000")
	t.Setenv("CORS_ORIGINS", " https://shop.example.com , ,http://localhost:5173")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "console")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.Server.ListenAddr)
	assert.Equal(t, []string{"https://shop.example.com", "http://localhost:5173"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "techshop.db", cfg.Database.URL)
	assert.False(t, cfg.Database.Seed)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.Equal(t, time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "Seed", key: "SEED", val: "sometimes"},
		{name: "TokenTTL", key: "TOKEN_TTL", val: "fifteen"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Chdir(t.TempDir())
			t.Setenv(tt.key, tt.val)

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestLoad_BlankCORSOriginsKeepDefaults(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())
	t.Setenv("CORS_ORIGINS", " , ")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultCORSOrigins(), cfg.Server.CORSOrigins)
}
