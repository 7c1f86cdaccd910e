// Package config loads the application configuration from a YAML file.
//
// Secrets never live in the file: the Telegram bot token comes from the
// TELEGRAM_BOT_TOKEN environment variable (a .env file is honored).
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full application configuration.
type Config struct {
	DatabasePath string `yaml:"database_path"`
	ReportPath   string `yaml:"report_path"`
	// CriteriaPath points to a criteria JSON file; empty means the shipped
	// default rule set.
	CriteriaPath string `yaml:"criteria_path"`

	UserAgent           string `yaml:"user_agent"`
	RequestDelaySeconds int    `yaml:"request_delay_seconds"`

	Sources map[string]SourceConfig `yaml:"sources"`

	Telegram TelegramConfig `yaml:"telegram"`
}

// SourceConfig configures one listing provider.
type SourceConfig struct {
	Enabled bool     `yaml:"enabled"`
	URLs    []string `yaml:"urls"`
	// Path enables a file-backed source instead of HTTP polling.
	Path string `yaml:"path"`
}

// TelegramConfig configures the notifier. The bot token is environment-only.
type TelegramConfig struct {
	Enabled bool   `yaml:"enabled"`
	ChatID  string `yaml:"chat_id"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		DatabasePath:        "gtswatch.db",
		ReportPath:          "reports/latest.md",
		UserAgent:           "gtswatch/1.0 (+https://github.com/fwagner/gtswatch)",
		RequestDelaySeconds: 2,
		Sources:             map[string]SourceConfig{},
	}
}

// Load reads the configuration from path. A missing file yields the
// defaults; a present but unparsable file is an error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.RequestDelaySeconds < 1 {
		cfg.RequestDelaySeconds = 1
	}
	return cfg, nil
}

// RequestDelay returns the per-request pacing interval.
func (c *Config) RequestDelay() time.Duration {
	return time.Duration(c.RequestDelaySeconds) * time.Second
}

// EnabledSources returns the names of the sources that should be polled.
func (c *Config) EnabledSources() []string {
	var names []string
	for name, sc := range c.Sources {
		if sc.Enabled {
			names = append(names, name)
		}
	}
	return names
}
