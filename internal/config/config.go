// Package config handles loading and managing snipe configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/1ts-org/snipe/internal/filter"
	"github.com/1ts-org/snipe/internal/message"
)

// Config represents the snipe configuration.
type Config struct {
	// DefaultFilter is filter source installed when a view's stack
	// resets and no registry default is set.
	DefaultFilter string `toml:"default_filter"`

	Log      LogConfig      `toml:"log"`
	Registry RegistryConfig `toml:"registry"`

	// Rules are the decoration rules: filter text plus the style handed
	// back to the view layer when it matches.
	Rules []Rule `toml:"rules"`

	// HomeDir is computed, not read from the file.
	HomeDir string `toml:"-"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `toml:"level"` // debug, info, warn, error
}

// RegistryConfig holds filter registry storage configuration.
type RegistryConfig struct {
	Path string `toml:"path"` // filter database (default: <home>/filters.db)
}

// Rule is one decoration rule from the config file.
type Rule struct {
	Filter     string `toml:"filter"`
	Foreground string `toml:"foreground"`
	Background string `toml:"background"`
	Bold       bool   `toml:"bold"`
}

// Style converts the rule's style fields to a filter.Style.
func (r Rule) Style() filter.Style {
	return filter.Style{Foreground: r.Foreground, Background: r.Background, Bold: r.Bold}
}

// DefaultHome returns the default snipe home directory. Respects the
// SNIPE_HOME environment variable.
func DefaultHome() string {
	if h := os.Getenv("SNIPE_HOME"); h != "" {
		return h
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".snipe"
	}
	return filepath.Join(home, ".snipe")
}

// Load reads the configuration from the specified file. If path is empty,
// the default location (<home>/config.toml) is used; a missing config
// file is not an error, just defaults. homeDir overrides SNIPE_HOME when
// non-empty.
func Load(path, homeDir string) (*Config, error) {
	if homeDir == "" {
		homeDir = DefaultHome()
	}
	cfg := &Config{HomeDir: homeDir}

	if path == "" {
		path = filepath.Join(homeDir, "config.toml")
		if _, err := os.Stat(path); os.IsNotExist(err) {
			cfg.applyDefaults()
			return cfg, nil
		}
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Registry.Path == "" {
		c.Registry.Path = filepath.Join(c.HomeDir, "filters.db")
	}
}

// EnsureHomeDir creates the home directory if needed.
func (c *Config) EnsureHomeDir() error {
	return os.MkdirAll(c.HomeDir, 0o755)
}

// ConfigFilePath returns the path of the config file in the home dir.
func (c *Config) ConfigFilePath() string {
	return filepath.Join(c.HomeDir, "config.toml")
}

// LogLevel converts the configured level name to a slog level.
func (c *Config) LogLevel() slog.Level {
	switch c.Log.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// DecorateStack installs the config's decoration rules onto the stack.
// A rule whose filter text does not parse or validate is logged and
// skipped; bad config decorates less, it never breaks startup.
func (c *Config) DecorateStack(s *filter.Stack, logger *slog.Logger) {
	for _, rule := range c.Rules {
		f, err := filter.Parse(rule.Filter)
		if err == nil {
			err = filter.Validate(f, message.KnownField)
		}
		if err != nil {
			logger.Warn("skipping decoration rule", "filter", rule.Filter, "error", err)
			continue
		}
		s.AddDecoration(f, rule.Style())
	}
}
