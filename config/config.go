// Package config loads the server's YAML configuration on top of built-in
// defaults. The file path comes from main.go's -config flag; no other
// command-line flag overrides a config value.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the realtime server.
type Config struct {
	// Network
	BindAddress string `yaml:"bind_address"`
	Port        int    `yaml:"port"`

	// Account Store
	Store    string         `yaml:"store"` // "postgres" or "memory"
	Database DatabaseConfig `yaml:"database"`

	// Moderation
	Moderation ModerationConfig `yaml:"moderation"`

	// Chat pipeline thresholds (spec defaults; see ChatConfig)
	Chat ChatConfig `yaml:"chat"`

	// Logging
	LogLevel string `yaml:"log_level"` // debug, info, warn, error
}

// DatabaseConfig holds PostgreSQL connection parameters for the Account Store.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// ModerationConfig holds the outbound webhook delivery settings.
type ModerationConfig struct {
	WebhookURL      string        `yaml:"webhook_url"`
	BaseURL         string        `yaml:"base_url"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	AdminToken      string        `yaml:"admin_token"`
	BroadcastPeriod int           `yaml:"broadcast_period_subticks"` // in 1Hz subticks, spec default 300; not read by gameloop, which uses its own webhookCadence constant
}

// ChatConfig holds the spam/scream thresholds from spec.md §4.6. These
// fields are loaded but not read: the chat pipeline uses the constants
// declared in package chat, so changing them here has no effect.
type ChatConfig struct {
	SpamWindow           time.Duration `yaml:"spam_window"`
	SpamThreshold        int           `yaml:"spam_threshold"`
	ExcessiveSpamWindow  time.Duration `yaml:"excessive_spam_window"`
	ExcessiveSpamThresh  int           `yaml:"excessive_spam_threshold"`
	ExcessiveSpamMuteFor time.Duration `yaml:"excessive_spam_mute_for"`
	ScreamingMinLen      int           `yaml:"screaming_min_len"`
	ScreamingRatio       float64       `yaml:"screaming_ratio"`
}

// Default returns the configuration described by spec.md, used whenever a
// config file is absent (e.g. local dev, tests).
func Default() *Config {
	return &Config{
		BindAddress: "0.0.0.0",
		Port:        8080,
		Store:       "memory",
		Database: DatabaseConfig{
			Host:    "localhost",
			Port:    5432,
			User:    "sm64js",
			DBName:  "sm64js",
			SSLMode: "disable",
		},
		Moderation: ModerationConfig{
			RequestTimeout:  15 * time.Second,
			BroadcastPeriod: 300,
		},
		Chat: ChatConfig{
			SpamWindow:           15 * time.Second,
			SpamThreshold:        3,
			ExcessiveSpamWindow:  60 * time.Second,
			ExcessiveSpamThresh:  30,
			ExcessiveSpamMuteFor: 300 * time.Second,
			ScreamingMinLen:      5,
			ScreamingRatio:       0.7,
		},
		LogLevel: "info",
	}
}

// Load reads a YAML config file from path, falling back to Default() values
// for any field left unset in the file. An empty path returns Default().
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %q: %w", path, err)
	}
	return cfg, nil
}
