package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:34116", cfg.HTTPAddr)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, "data/gamehost.db", cfg.DBPath)
	assert.Empty(t, cfg.RedisURL)
	assert.Empty(t, cfg.SubmitURL)
	assert.Equal(t, 10*time.Second, cfg.SubmitTimeout)
	assert.Equal(t, 3, cfg.InitialLives)
	assert.True(t, cfg.SeedDemo)
	assert.Empty(t, cfg.AllowedOrigins)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9000")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("SUBMIT_TIMEOUT", "3s")
	t.Setenv("GAME_ALLOWED_ORIGINS", "https://games.example,http://localhost:5173")
	t.Setenv("INITIAL_LIVES", "5")
	t.Setenv("SEED_DEMO", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.HTTPAddr)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
	assert.Equal(t, 3*time.Second, cfg.SubmitTimeout)
	assert.Equal(t, []string{"https://games.example", "http://localhost:5173"}, cfg.AllowedOrigins)
	assert.Equal(t, 5, cfg.InitialLives)
	assert.False(t, cfg.SeedDemo)
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{"lives too high", "INITIAL_LIVES", "11"},
		{"lives negative", "INITIAL_LIVES", "-1"},
		{"zero timeout", "SUBMIT_TIMEOUT", "0s"},
		{"bad duration", "SUBMIT_TIMEOUT", "soon"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
