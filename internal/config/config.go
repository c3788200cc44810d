// Package config loads the server's tuning knobs from the environment.
package config

import (
	"strings"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
	"github.com/rotisserie/eris"
)

// Config holds everything the server reads from the environment. Listen
// address, catalog directory and tunnel settings are command-line flags.
type Config struct {
	DefaultMaxPlayers int           `env:"DEFAULT_MAX_PLAYERS,default=4" validate:"min=1"`
	SendBufferSize    int           `env:"SEND_BUFFER_SIZE,default=256" validate:"min=1"`
	MaxMessageSize    int64         `env:"MAX_MESSAGE_SIZE,default=65536" validate:"min=512"`
	WriteWait         time.Duration `env:"WRITE_WAIT,default=10s" validate:"min=1ms"`
	PongWait          time.Duration `env:"PONG_WAIT,default=60s" validate:"gtfield=WriteWait"`
	ChatMaxLength     int           `env:"CHAT_MAX_LENGTH,default=500" validate:"min=0"`
	JWTSecret         string        `env:"JWT_SECRET"`
	LogLevel          string        `env:"LOG_LEVEL,default=info" validate:"oneof=trace debug info warn error"`
	AllowedOrigins    string        `env:"ALLOWED_ORIGINS"`
}

// PingPeriod is how often the transport pings a peer. It must be shorter
// than PongWait.
func (c Config) PingPeriod() time.Duration {
	return c.PongWait * 9 / 10
}

// Origins returns the allowed WebSocket origins. Empty allows any origin.
func (c Config) Origins() []string {
	var origins []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// Load reads the configuration from the process environment
func Load() (Config, error) {
	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return Config{}, eris.Wrap(err, "failed to read environment")
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, eris.Wrap(err, "invalid configuration")
	}
	return cfg, nil
}
