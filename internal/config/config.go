// Package config loads process settings from the environment, optionally
// seeded from .env files.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"

	"github.com/DoyleJ11/draftline/internal/timer"
)

type Config struct {
	Env      string `env:"DRAFT_ENV" envDefault:"development"`
	LogLevel string `env:"DRAFT_LOG_LEVEL" envDefault:"info"`

	BindHost    string `env:"DRAFT_BIND_HOST" envDefault:"127.0.0.1"`
	SessionPort int    `env:"DRAFT_SESSION_PORT" envDefault:"0"`
	Autostart   bool   `env:"DRAFT_AUTOSTART" envDefault:"false"`
	ControlAddr string `env:"DRAFT_CONTROL_ADDR" envDefault:"127.0.0.1:7420"`

	TimerSeconds int  `env:"DRAFT_TIMER_SECONDS" envDefault:"30"`
	DevTimer     bool `env:"DRAFT_DEV_TIMER" envDefault:"false"`

	OriginPatterns  []string      `env:"DRAFT_ORIGIN_PATTERNS" envDefault:"*" envSeparator:","`
	WriteTimeout    time.Duration `env:"DRAFT_WRITE_TIMEOUT" envDefault:"3s"`
	OutboxSize      int           `env:"DRAFT_OUTBOX_SIZE" envDefault:"16"`
	ShutdownTimeout time.Duration `env:"DRAFT_SHUTDOWN_TIMEOUT" envDefault:"5s"`
}

// Load reads the given .env files, if present, then parses the environment.
// Variables already set in the environment win over file values.
func Load(files ...string) (Config, error) {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.SessionPort < 0 || c.SessionPort > 65535 {
		return fmt.Errorf("DRAFT_SESSION_PORT out of range: %d", c.SessionPort)
	}
	if _, _, err := net.SplitHostPort(c.ControlAddr); err != nil {
		return fmt.Errorf("DRAFT_CONTROL_ADDR: %w", err)
	}
	if c.TimerSeconds <= 0 {
		return fmt.Errorf("DRAFT_TIMER_SECONDS must be positive: %d", c.TimerSeconds)
	}
	if c.OutboxSize <= 0 {
		return fmt.Errorf("DRAFT_OUTBOX_SIZE must be positive: %d", c.OutboxSize)
	}
	if c.WriteTimeout <= 0 || c.ShutdownTimeout <= 0 {
		return errors.New("DRAFT_WRITE_TIMEOUT and DRAFT_SHUTDOWN_TIMEOUT must be positive")
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("DRAFT_LOG_LEVEL: %w", err)
	}
	return nil
}

// TimerDuration is the per-turn countdown, shortened when DevTimer is set.
func (c Config) TimerDuration() int {
	if c.DevTimer {
		return timer.DevSeconds
	}
	return c.TimerSeconds
}
