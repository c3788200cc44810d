package config

import (
	"bytes"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"DEFAULT_MAX_PLAYERS", "SEND_BUFFER_SIZE", "MAX_MESSAGE_SIZE", "WRITE_WAIT",
		"PONG_WAIT", "CHAT_MAX_LENGTH", "JWT_SECRET", "LOG_LEVEL", "ALLOWED_ORIGINS",
	} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.DefaultMaxPlayers)
	assert.Equal(t, 256, cfg.SendBufferSize)
	assert.Equal(t, int64(65536), cfg.MaxMessageSize)
	assert.Equal(t, 10*time.Second, cfg.WriteWait)
	assert.Equal(t, 60*time.Second, cfg.PongWait)
	assert.Equal(t, 54*time.Second, cfg.PingPeriod())
	assert.Equal(t, 500, cfg.ChatMaxLength)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.Origins())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DEFAULT_MAX_PLAYERS", "6")
	t.Setenv("PONG_WAIT", "30s")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 6, cfg.DefaultMaxPlayers)
	assert.Equal(t, 30*time.Second, cfg.PongWait)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Origins())
	assert.Equal(t, "s3cret", cfg.JWTSecret)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"zero capacity", "DEFAULT_MAX_PLAYERS", "0"},
		{"zero buffer", "SEND_BUFFER_SIZE", "0"},
		{"pong shorter than write", "PONG_WAIT", "5s"},
		{"unknown level", "LOG_LEVEL", "loud"},
		{"not a number", "CHAT_MAX_LENGTH", "lots"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger("warn", false, &buf)
	assert.Equal(t, zerolog.WarnLevel, log.GetLevel())

	log.Info().Msg("hidden")
	assert.Empty(t, buf.String())
	log.Warn().Msg("shown")
	assert.Contains(t, buf.String(), `"message":"shown"`)

	assert.Equal(t, zerolog.InfoLevel, NewLogger("nonsense", false, &buf).GetLevel())
	assert.Equal(t, zerolog.DebugLevel, NewLogger("error", true, &buf).GetLevel())
}
