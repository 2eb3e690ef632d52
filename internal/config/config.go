// Package config loads saldo-certo settings from an optional YAML file and
// SALDOCERTO_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/dvloznov/saldo-certo/internal/logger"
)

// EnvPrefix is stripped from environment variables before mapping them to
// config keys.
const EnvPrefix = "SALDOCERTO_"

// Storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverBigQuery = "bigquery"
)

// Config holds the complete saldo-certo configuration.
type Config struct {
	Telegram TelegramConfig `koanf:"telegram"`
	Server   ServerConfig   `koanf:"server"`
	Storage  StorageConfig  `koanf:"storage"`
	Export   ExportConfig   `koanf:"export"`
	Session  SessionConfig  `koanf:"session"`
	Log      logger.Config  `koanf:"log"`
}

// TelegramConfig holds the bot credentials. An empty token disables the bot.
type TelegramConfig struct {
	Token       string        `koanf:"token"`
	PollTimeout time.Duration `koanf:"poll_timeout"`
}

// ServerConfig holds HTTP API configuration.
type ServerConfig struct {
	Port            int           `koanf:"port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	APIToken        string        `koanf:"api_token"` // empty disables bearer auth
}

// StorageConfig selects and configures the persistence backend.
type StorageConfig struct {
	Driver          string `koanf:"driver"`
	SQLitePath      string `koanf:"sqlite_path"`
	BigQueryProject string `koanf:"bigquery_project"`
	BigQueryDataset string `koanf:"bigquery_dataset"`
}

// ExportConfig configures CSV archiving. An empty bucket disables it.
type ExportConfig struct {
	Bucket     string `koanf:"bucket"`
	Workers    int    `koanf:"workers"`
	QueueSize  int    `koanf:"queue_size"`
	MaxRetries int    `koanf:"max_retries"`
}

// SessionConfig bounds pending category prompts.
type SessionConfig struct {
	PendingTTL time.Duration `koanf:"pending_ttl"`
	MaxPending int           `koanf:"max_pending"`
}

// Load reads configuration with precedence env > file > defaults. An empty
// path skips the file.
//
//	SALDOCERTO_TELEGRAM_TOKEN       -> telegram.token
//	SALDOCERTO_STORAGE_SQLITE_PATH  -> storage.sqlite_path
//	SALDOCERTO_SESSION_PENDING_TTL  -> session.pending_ttl
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("Load: read config file: %w", err)
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("Load: parse config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("Load: environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("Load: unmarshal: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("Load: %w", err)
	}
	return &cfg, nil
}

// envKey maps SALDOCERTO_SECTION_FIELD_NAME to section.field_name.
func envKey(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	section, field, ok := strings.Cut(lower, "_")
	if !ok {
		return lower
	}
	return section + "." + field
}

func applyDefaults(cfg *Config) {
	if cfg.Telegram.PollTimeout == 0 {
		cfg.Telegram.PollTimeout = 10 * time.Second
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}

	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = DriverSQLite
	}
	if cfg.Storage.SQLitePath == "" {
		cfg.Storage.SQLitePath = "saldo.db"
	}
	if cfg.Storage.BigQueryDataset == "" {
		cfg.Storage.BigQueryDataset = "saldo_certo"
	}

	if cfg.Export.Workers == 0 {
		cfg.Export.Workers = 2
	}
	if cfg.Export.QueueSize == 0 {
		cfg.Export.QueueSize = 100
	}
	if cfg.Export.MaxRetries == 0 {
		cfg.Export.MaxRetries = 3
	}

	if cfg.Session.PendingTTL == 0 {
		cfg.Session.PendingTTL = 30 * time.Minute
	}
	if cfg.Session.MaxPending == 0 {
		cfg.Session.MaxPending = 10
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = logger.FormatConsole
	}
}

// Validate checks that the configuration can be used to start the services.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be 1-65535)", c.Server.Port)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return errors.New("shutdown timeout must be positive")
	}
	if c.Telegram.PollTimeout <= 0 {
		return errors.New("telegram poll timeout must be positive")
	}

	switch c.Storage.Driver {
	case DriverSQLite:
		if c.Storage.SQLitePath == "" {
			return errors.New("sqlite path required for sqlite driver")
		}
	case DriverBigQuery:
		if c.Storage.BigQueryProject == "" {
			return errors.New("bigquery project required for bigquery driver")
		}
		if c.Storage.BigQueryDataset == "" {
			return errors.New("bigquery dataset required for bigquery driver")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	if c.Export.Workers < 1 {
		return fmt.Errorf("invalid export workers: %d", c.Export.Workers)
	}
	if c.Export.QueueSize < 1 {
		return fmt.Errorf("invalid export queue size: %d", c.Export.QueueSize)
	}
	if c.Export.MaxRetries < 0 {
		return fmt.Errorf("invalid export max retries: %d", c.Export.MaxRetries)
	}

	if c.Session.PendingTTL <= 0 {
		return errors.New("pending ttl must be positive")
	}
	if c.Session.MaxPending < 1 {
		return fmt.Errorf("invalid max pending: %d", c.Session.MaxPending)
	}

	if _, err := logger.NewFromConfig(c.Log, io.Discard); err != nil {
		return fmt.Errorf("invalid log config: %w", err)
	}
	return nil
}
