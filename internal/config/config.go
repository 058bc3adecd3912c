package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Journal backends.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName         string        `env:"APP_NAME" envDefault:"BankJournal"`
	AppEnv          string        `env:"APP_ENV" envDefault:"development"`
	Port            string        `env:"PORT" envDefault:"8080"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat       string        `env:"LOG_FORMAT" envDefault:"json"`
	JournalBackend  string        `env:"JOURNAL_BACKEND"`
	DatabaseURL     string        `env:"DATABASE_URL"`
	SQLitePath      string        `env:"SQLITE_PATH" envDefault:"bankjournal.db"`
	RedisURL        string        `env:"REDIS_URL"`
	EventsChannel   string        `env:"EVENTS_CHANNEL" envDefault:"bankjournal.events"`
	APIKeyHash      string        `env:"API_KEY_HASH"`
	MailboxSize     int           `env:"MAILBOX_SIZE" envDefault:"64"`
	NotifyQueueSize int           `env:"NOTIFY_QUEUE_SIZE" envDefault:"1024"`
	ShutdownPeriod  time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	IdempotencyTTL  time.Duration `env:"IDEMPOTENCY_TTL" envDefault:"24h"`
}

// Load reads an optional .env file and then the environment. Variables that
// are already set win over the file.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return Parse()
}

// Parse populates a Config from the environment only.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.JournalBackend = strings.ToLower(strings.TrimSpace(cfg.JournalBackend))
	if cfg.JournalBackend == "" {
		cfg.JournalBackend = BackendMemory
		if cfg.DatabaseURL != "" {
			cfg.JournalBackend = BackendPostgres
		}
	}

	switch cfg.JournalBackend {
	case BackendMemory:
		if !cfg.IsDev() {
			return Config{}, fmt.Errorf("JOURNAL_BACKEND=memory is only allowed when APP_ENV is a development environment")
		}
	case BackendPostgres:
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("DATABASE_URL must be set")
		}
	case BackendSQLite:
		if strings.TrimSpace(cfg.SQLitePath) == "" {
			return Config{}, fmt.Errorf("SQLITE_PATH must be set")
		}
	default:
		return Config{}, fmt.Errorf("invalid JOURNAL_BACKEND %q", cfg.JournalBackend)
	}

	if cfg.MailboxSize <= 0 {
		return Config{}, fmt.Errorf("MAILBOX_SIZE must be positive")
	}
	if cfg.NotifyQueueSize <= 0 {
		return Config{}, fmt.Errorf("NOTIFY_QUEUE_SIZE must be positive")
	}

	return cfg, nil
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

// IsDev reports whether the app runs in a local development environment.
func (c Config) IsDev() bool {
	switch strings.ToLower(c.AppEnv) {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}
