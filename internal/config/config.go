// Package config loads node settings from the environment and the genesis
// state from YAML.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/eigerco/poe/pkg/db"
	"github.com/eigerco/poe/pkg/db/bolt"
	"github.com/eigerco/poe/pkg/db/pebble"
	"github.com/eigerco/poe/pkg/log"
)

// Storage backends.
const (
	BackendPebble = "pebble"
	BackendBolt   = "bolt"
)

var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config controls where state lives and how the node logs.
type Config struct {
	DataDir   string        `env:"POE_DATA_DIR"   envDefault:"./data"`
	Backend   string        `env:"POE_DB_BACKEND" envDefault:"pebble"`
	LogLevel  string        `env:"POE_LOG_LEVEL"  envDefault:"info"`
	LogFormat string        `env:"POE_LOG_FORMAT" envDefault:"console"`
	BlockTime time.Duration `env:"POE_BLOCK_TIME" envDefault:"5s"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load reads Config from the environment and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("%w: empty data dir", ErrInvalidConfig)
	}
	if c.Backend != BackendPebble && c.Backend != BackendBolt {
		return fmt.Errorf("%w: unknown backend %q", ErrInvalidConfig, c.Backend)
	}
	if c.BlockTime <= 0 {
		return fmt.Errorf("%w: block time must be positive, got %s", ErrInvalidConfig, c.BlockTime)
	}
	if _, err := c.LogOptions(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// LogOptions translates the log settings for log.Init.
func (c Config) LogOptions() (log.Options, error) {
	level, err := log.ParseLogLevel(c.LogLevel)
	if err != nil {
		return log.Options{}, err
	}
	typ, err := log.ParseLoggerType(c.LogFormat)
	if err != nil {
		return log.Options{}, err
	}
	return log.Options{LogLevel: level, Type: typ}, nil
}

// OpenStore opens the configured backend under DataDir.
func (c Config) OpenStore() (db.KVStore, error) {
	switch c.Backend {
	case BackendPebble:
		return pebble.Open(filepath.Join(c.DataDir, "pebble"))
	case BackendBolt:
		return bolt.Open(filepath.Join(c.DataDir, "poe.db"))
	default:
		return nil, fmt.Errorf("%w: unknown backend %q", ErrInvalidConfig, c.Backend)
	}
}
