// Package config loads hnprep settings from a TOML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"

	"github.com/pelletier/go-toml/v2"

	"hnprep/internal/bucket"
)

// Config is the on-disk configuration
type Config struct {
	DB      string  `toml:"db"`
	Prepare Prepare `toml:"prepare"`
}

// Prepare holds defaults for the prepare command
type Prepare struct {
	Salt         string `toml:"salt"`
	MaxBucket    int    `toml:"max_bucket"`
	Seed         int64  `toml:"seed"`
	IncludeRoots bool   `toml:"include_roots"`
	Shuffle      bool   `toml:"shuffle"`
	Workers      int    `toml:"workers"`
}

// Default returns the settings that reproduce the published dataset split
func Default() Config {
	return Config{
		Prepare: Prepare{
			Salt:      bucket.DefaultSalt,
			MaxBucket: 50,
			Seed:      7191,
			Shuffle:   true,
			Workers:   runtime.NumCPU(),
		},
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks value ranges
func (c Config) Validate() error {
	p := c.Prepare
	if p.MaxBucket < 0 || p.MaxBucket > bucket.NumBuckets {
		return fmt.Errorf("max_bucket must be in [0, %d], got %d", bucket.NumBuckets, p.MaxBucket)
	}
	if p.Salt == "" {
		return errors.New("salt must not be empty")
	}
	if p.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", p.Workers)
	}
	return nil
}

// Save writes the config as TOML to path
func Save(path string, cfg Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
