package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Supported database drivers
const (
	DriverSQLite   = "sqlite"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

// Config holds all application configuration
type Config struct {
	DB     DBConfig
	Binder BinderConfig
	Server ServerConfig
	Bot    BotConfig
	Stats  StatsConfig
	Log    LogConfig
}

// DBConfig holds database configuration
type DBConfig struct {
	Driver   string `envconfig:"DB_DRIVER" default:"sqlite"`
	Path     string `envconfig:"DB_PATH" default:"quickpad.db"`
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     int    `envconfig:"DB_PORT" default:"3306"`
	User     string `envconfig:"DB_USER" default:"root"`
	Password string `envconfig:"DB_PASSWORD"`
	Database string `envconfig:"DB_NAME" default:"quickpad_db"`
	MaxConns int    `envconfig:"DB_MAX_CONNS" default:"10"`
}

// BinderConfig holds presentation binder configuration
type BinderConfig struct {
	GracePeriod time.Duration `envconfig:"BINDER_GRACE_PERIOD" default:"5s"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port          int           `envconfig:"SERVER_PORT" default:"8080"`
	SaveRateLimit float64       `envconfig:"SERVER_SAVE_RATE_LIMIT" default:"5"`
	SaveTimeout   time.Duration `envconfig:"SERVER_SAVE_TIMEOUT" default:"10s"`
}

// BotConfig holds Telegram bot configuration. The bot is disabled when Token is empty.
type BotConfig struct {
	Token     string `envconfig:"BOT_TOKEN"`
	ListLimit int    `envconfig:"BOT_LIST_LIMIT" default:"10"`
}

// StatsConfig holds the stats scheduler configuration
type StatsConfig struct {
	Interval time.Duration `envconfig:"STATS_INTERVAL" default:"1m"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `envconfig:"LOG_LEVEL" default:"info"`
}

// Enabled reports whether the Telegram front-end should start
func (c *BotConfig) Enabled() bool {
	return c.Token != ""
}

// DSN returns the data source name for the configured driver
func (c *DBConfig) DSN() string {
	switch c.Driver {
	case DriverMySQL:
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			c.User, c.Password, c.Host, c.Port, c.Database)
	case DriverPostgres:
		return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
			c.Host, c.User, c.Password, c.Database, c.Port)
	default:
		return fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", c.Path)
	}
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg.DB); err != nil {
		return nil, fmt.Errorf("failed to load db config: %w", err)
	}

	if err := envconfig.Process("", &cfg.Binder); err != nil {
		return nil, fmt.Errorf("failed to load binder config: %w", err)
	}

	if err := envconfig.Process("", &cfg.Server); err != nil {
		return nil, fmt.Errorf("failed to load server config: %w", err)
	}

	if err := envconfig.Process("", &cfg.Bot); err != nil {
		return nil, fmt.Errorf("failed to load bot config: %w", err)
	}

	if err := envconfig.Process("", &cfg.Stats); err != nil {
		return nil, fmt.Errorf("failed to load stats config: %w", err)
	}

	if err := envconfig.Process("", &cfg.Log); err != nil {
		return nil, fmt.Errorf("failed to load log config: %w", err)
	}

	return &cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.DB.Driver {
	case DriverSQLite:
		if c.DB.Path == "" {
			return fmt.Errorf("DB_PATH is required for the sqlite driver")
		}
	case DriverMySQL, DriverPostgres:
		if c.DB.Password == "" {
			return fmt.Errorf("DB_PASSWORD is required for the %s driver", c.DB.Driver)
		}
	default:
		return fmt.Errorf("DB_DRIVER must be one of sqlite, mysql, postgres")
	}
	if c.DB.MaxConns <= 0 {
		return fmt.Errorf("DB_MAX_CONNS must be positive")
	}
	if c.Binder.GracePeriod < 0 {
		return fmt.Errorf("BINDER_GRACE_PERIOD must not be negative")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("SERVER_PORT must be between 1 and 65535")
	}
	if c.Server.SaveRateLimit <= 0 {
		return fmt.Errorf("SERVER_SAVE_RATE_LIMIT must be positive")
	}
	if c.Server.SaveTimeout <= 0 {
		return fmt.Errorf("SERVER_SAVE_TIMEOUT must be positive")
	}
	if c.Bot.ListLimit <= 0 {
		return fmt.Errorf("BOT_LIST_LIMIT must be positive")
	}
	if c.Stats.Interval <= 0 {
		return fmt.Errorf("STATS_INTERVAL must be positive")
	}
	return nil
}
