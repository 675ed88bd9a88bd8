// Package config loads runtime settings from TUNEQUIZ_* environment
// variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/abhisek/tunequiz/internal/media"
	"github.com/abhisek/tunequiz/internal/progress"
	"github.com/abhisek/tunequiz/internal/session"
	"github.com/abhisek/tunequiz/internal/store"
)

// Prefix is prepended to every variable name.
const Prefix = "TUNEQUIZ_"

// Config holds the runtime configuration.
type Config struct {
	// DBPath overrides the SQLite database location.
	DBPath string `env:"DB"`

	// CatalogPath is the playlist catalog JSON file.
	CatalogPath string `env:"CATALOG"`

	RevealDelay   time.Duration `env:"REVEAL_DELAY" envDefault:"1s"`
	FallbackClip  time.Duration `env:"FALLBACK_CLIP" envDefault:"30s"`
	FetchTimeout  time.Duration `env:"FETCH_TIMEOUT" envDefault:"20s"`
	MaxAssetBytes int64         `env:"MAX_ASSET_BYTES" envDefault:"33554432"`

	// ProgressPolicy is "overwrite" or "keep-best".
	ProgressPolicy string `env:"PROGRESS_POLICY" envDefault:"overwrite"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile  string `env:"LOG_FILE"`
}

// Load reads the configuration from the process environment.
func Load() (*Config, error) {
	return parse(env.Options{Prefix: Prefix})
}

// LoadFrom reads the configuration from environ instead of the process
// environment. Keys include the prefix.
func LoadFrom(environ map[string]string) (*Config, error) {
	return parse(env.Options{Prefix: Prefix, Environment: environ})
}

func parse(opts env.Options) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports settings that parse but cannot be used.
func (c *Config) Validate() error {
	var errs []error
	if c.RevealDelay < 0 {
		errs = append(errs, fmt.Errorf("%sREVEAL_DELAY must not be negative", Prefix))
	}
	if c.FallbackClip <= 0 {
		errs = append(errs, fmt.Errorf("%sFALLBACK_CLIP must be positive", Prefix))
	}
	if c.FetchTimeout < 0 {
		errs = append(errs, fmt.Errorf("%sFETCH_TIMEOUT must not be negative", Prefix))
	}
	if c.MaxAssetBytes <= 0 {
		errs = append(errs, fmt.Errorf("%sMAX_ASSET_BYTES must be positive", Prefix))
	}
	if _, err := progress.ParsePolicy(c.ProgressPolicy); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Policy returns the parsed progress write policy.
func (c *Config) Policy() progress.Policy {
	p, _ := progress.ParsePolicy(c.ProgressPolicy)
	return p
}

// Session returns the session timing settings.
func (c *Config) Session() session.Config {
	return session.Config{
		Reveal:       c.RevealDelay,
		FallbackClip: c.FallbackClip,
	}
}

// HTTP returns the media fetch settings.
func (c *Config) HTTP() media.HTTPConfig {
	cfg := media.DefaultHTTPConfig()
	cfg.Timeout = c.FetchTimeout
	cfg.MaxBytes = c.MaxAssetBytes
	return cfg
}

// ResolveDBPath returns DBPath if set, else the default database location.
// The parent directory is created.
func (c *Config) ResolveDBPath() (string, error) {
	if c.DBPath != "" {
		return c.DBPath, store.EnsureDir(c.DBPath)
	}
	return store.DefaultDBPath()
}

// ResolveCatalogPath returns CatalogPath if set, else
// $XDG_DATA_HOME/tunequiz/catalog.json.
func (c *Config) ResolveCatalogPath() (string, error) {
	if c.CatalogPath != "" {
		return c.CatalogPath, nil
	}
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "tunequiz", "catalog.json"), nil
}
