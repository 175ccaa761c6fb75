// Package config loads tool defaults from the environment. Command-line
// flags override whatever is set here.
package config

import (
	"fmt"
	"path/filepath"

	"github.com/caarlos0/env/v11"
)

// Config holds the defaults shared by the checksum and seed tools.
type Config struct {
	DataDir       string `env:"SHARDSUM_DATA_DIR" envDefault:"./data"`
	Engine        string `env:"SHARDSUM_ENGINE" envDefault:"pebble"`
	Hash          string `env:"SHARDSUM_HASH" envDefault:"siphash"`
	ProgressEvery int    `env:"SHARDSUM_PROGRESS_EVERY" envDefault:"100000"`
}

// Load parses Config from environment variables.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.ProgressEvery <= 0 {
		return Config{}, fmt.Errorf("SHARDSUM_PROGRESS_EVERY must be positive, got %d", cfg.ProgressEvery)
	}
	return cfg, nil
}

// LogFile is the name of the log engine's file inside DataDir.
const LogFile = "shard.log"

// StorePath is the default store location for engine. The log engine keeps
// a single file inside DataDir; pebble uses DataDir itself.
func (c Config) StorePath(engine string) string {
	if engine == "log" {
		return filepath.Join(c.DataDir, LogFile)
	}
	return c.DataDir
}
