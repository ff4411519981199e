// Package config loads server settings from a TOML or YAML file, the
// environment, and defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Default values.
const (
	DefaultAddr          = "127.0.0.1:4567"
	DefaultSessionStore  = "memory"
	DefaultSessionTTL    = 24 * time.Hour
	DefaultSweepInterval = 5 * time.Minute
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "text"
	EnvPrefix            = "TODOLISTS_"
)

// Config holds the full configuration for the server and CLI.
type Config struct {
	Addr    string `toml:"addr" yaml:"addr"`
	DataDir string `toml:"data_dir" yaml:"data_dir"`

	// Sessions
	SessionStore  string        `toml:"session_store" yaml:"session_store"` // memory or sqlite
	SessionTTL    time.Duration `toml:"session_ttl" yaml:"session_ttl"`
	SweepInterval time.Duration `toml:"sweep_interval" yaml:"sweep_interval"`
	SessionSecret string        `toml:"session_secret" yaml:"session_secret"`

	// HTTP
	CSRF           bool `toml:"csrf" yaml:"csrf"`
	SecureCookies  bool `toml:"secure_cookies" yaml:"secure_cookies"`
	RenderMarkdown bool `toml:"render_markdown" yaml:"render_markdown"`

	Log LogConfig `toml:"log" yaml:"log"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `toml:"level" yaml:"level"`   // debug, info, warn, error
	Format string `toml:"format" yaml:"format"` // text, json, logfmt
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Addr:          DefaultAddr,
		DataDir:       defaultDataDir(),
		SessionStore:  DefaultSessionStore,
		SessionTTL:    DefaultSessionTTL,
		SweepInterval: DefaultSweepInterval,
		CSRF:          true,
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".todolists"
	}
	return filepath.Join(home, ".todolists")
}

// Load reads defaults, then the file at path (when non-empty), then env overrides.
func Load(path string) (*Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}
	if err := ApplyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return fmt.Errorf("parse config %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parse config %s: %w", path, err)
		}
	default:
		return fmt.Errorf("config %s: unsupported extension (expected .toml, .yaml or .yml)", path)
	}
	return nil
}

// ApplyEnv overrides cfg from TODOLISTS_* variables found by lookup.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	dur := func(key string, dst *time.Duration) error {
		v, ok := lookup(EnvPrefix + key)
		if !ok || strings.TrimSpace(v) == "" {
			return nil
		}
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
		}
		*dst = d
		return nil
	}
	boolean := func(key string, dst *bool) error {
		v, ok := lookup(EnvPrefix + key)
		if !ok || strings.TrimSpace(v) == "" {
			return nil
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
		}
		*dst = b
		return nil
	}

	str("ADDR", &cfg.Addr)
	str("DATA_DIR", &cfg.DataDir)
	str("SESSION_STORE", &cfg.SessionStore)
	str("SESSION_SECRET", &cfg.SessionSecret)
	str("LOG_LEVEL", &cfg.Log.Level)
	str("LOG_FORMAT", &cfg.Log.Format)

	return errors.Join(
		dur("SESSION_TTL", &cfg.SessionTTL),
		dur("SWEEP_INTERVAL", &cfg.SweepInterval),
		boolean("CSRF", &cfg.CSRF),
		boolean("SECURE_COOKIES", &cfg.SecureCookies),
		boolean("RENDER_MARKDOWN", &cfg.RenderMarkdown),
	)
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Addr) == "" {
		errs = append(errs, errors.New("addr is empty"))
	}
	switch c.SessionStore {
	case "memory":
	case "sqlite":
		if strings.TrimSpace(c.DataDir) == "" {
			errs = append(errs, errors.New("data_dir is required for the sqlite session store"))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid session_store %q (expected memory|sqlite)", c.SessionStore))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, fmt.Errorf("session_ttl must be positive, got %s", c.SessionTTL))
	}
	if c.SweepInterval < 0 {
		errs = append(errs, fmt.Errorf("sweep_interval must not be negative, got %s", c.SweepInterval))
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("invalid log level %q", c.Log.Level))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json", "logfmt":
	default:
		errs = append(errs, fmt.Errorf("invalid log format %q (expected text|json|logfmt)", c.Log.Format))
	}
	return errors.Join(errs...)
}

// SessionDBPath is where the sqlite session store lives.
func (c *Config) SessionDBPath() string {
	return filepath.Join(c.DataDir, "sessions.sqlite")
}

// SecretKeyPath is where a generated session secret is kept.
func (c *Config) SecretKeyPath() string {
	return filepath.Join(c.DataDir, "web", "secret.key")
}
