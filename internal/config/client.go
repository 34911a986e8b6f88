package config

import (
	"path/filepath"
	"time"
)

// Client is the configuration of the stock CLI.
type Client struct {
	RemoteURL     string        `yaml:"remote_url"`
	RemoteKey     string        `yaml:"remote_key"`
	DBPath        string        `yaml:"db_path"`
	RemoteTimeout time.Duration `yaml:"remote_timeout"`
	SyncSchedule  string        `yaml:"sync_schedule"`
	LogLevel      string        `yaml:"log_level"`
}

// LoadClient reads dir/config.yaml, .env and the STOCK_* environment.
// The database defaults to dir/stock.db.
func LoadClient(dir, envFile string) (*Client, error) {
	cfg := &Client{
		DBPath:        filepath.Join(dir, "stock.db"),
		RemoteTimeout: 10 * time.Second,
		SyncSchedule:  "@every 5m",
		LogLevel:      "warn",
	}
	if err := loadYAML(filepath.Join(dir, "config.yaml"), cfg); err != nil {
		return nil, err
	}
	if err := loadEnvFile(envFile); err != nil {
		return nil, err
	}

	overrideString(&cfg.RemoteURL, "STOCK_REMOTE_URL")
	overrideString(&cfg.RemoteKey, "STOCK_REMOTE_KEY")
	overrideString(&cfg.DBPath, "STOCK_DB_PATH")
	overrideString(&cfg.SyncSchedule, "STOCK_SYNC_SCHEDULE")
	overrideString(&cfg.LogLevel, "STOCK_LOG_LEVEL")
	if err := overrideDuration(&cfg.RemoteTimeout, "STOCK_REMOTE_TIMEOUT"); err != nil {
		return nil, err
	}
	return cfg, nil
}

// RemoteConfigured reports whether both the endpoint and the key are real values.
func (c *Client) RemoteConfigured() bool {
	return !IsPlaceholder(c.RemoteURL) && !IsPlaceholder(c.RemoteKey)
}
