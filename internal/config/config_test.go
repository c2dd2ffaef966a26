package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_DefaultValues(t *testing.T) {
	os.Unsetenv("DB_DRIVER")
	os.Unsetenv("BOT_TOKEN")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	// Test DB defaults
	if cfg.DB.Driver != DriverSQLite {
		t.Errorf("DB.Driver = %v, want %v", cfg.DB.Driver, DriverSQLite)
	}
	if cfg.DB.Path != "quickpad.db" {
		t.Errorf("DB.Path = %v, want %v", cfg.DB.Path, "quickpad.db")
	}
	if cfg.DB.Port != 3306 {
		t.Errorf("DB.Port = %v, want %v", cfg.DB.Port, 3306)
	}
	if cfg.DB.Database != "quickpad_db" {
		t.Errorf("DB.Database = %v, want %v", cfg.DB.Database, "quickpad_db")
	}
	if cfg.DB.MaxConns != 10 {
		t.Errorf("DB.MaxConns = %v, want %v", cfg.DB.MaxConns, 10)
	}

	// Test Binder defaults
	if cfg.Binder.GracePeriod != 5*time.Second {
		t.Errorf("Binder.GracePeriod = %v, want %v", cfg.Binder.GracePeriod, 5*time.Second)
	}

	// Test Server defaults
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %v, want %v", cfg.Server.Port, 8080)
	}
	if cfg.Server.SaveRateLimit != 5 {
		t.Errorf("Server.SaveRateLimit = %v, want %v", cfg.Server.SaveRateLimit, 5)
	}
	if cfg.Server.SaveTimeout != 10*time.Second {
		t.Errorf("Server.SaveTimeout = %v, want %v", cfg.Server.SaveTimeout, 10*time.Second)
	}

	// Test Bot defaults
	if cfg.Bot.Enabled() {
		t.Error("Bot.Enabled() = true without BOT_TOKEN")
	}
	if cfg.Bot.ListLimit != 10 {
		t.Errorf("Bot.ListLimit = %v, want %v", cfg.Bot.ListLimit, 10)
	}

	if cfg.Stats.Interval != time.Minute {
		t.Errorf("Stats.Interval = %v, want %v", cfg.Stats.Interval, time.Minute)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %v, want %v", cfg.Log.Level, "info")
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() on defaults error = %v", err)
	}
}

func TestLoad_Overrides(t *testing.T) {
	os.Setenv("DB_DRIVER", "mysql")
	os.Setenv("DB_PASSWORD", "secret")
	os.Setenv("BINDER_GRACE_PERIOD", "250ms")
	os.Setenv("BOT_TOKEN", "test-token-123")
	defer func() {
		os.Unsetenv("DB_DRIVER")
		os.Unsetenv("DB_PASSWORD")
		os.Unsetenv("BINDER_GRACE_PERIOD")
		os.Unsetenv("BOT_TOKEN")
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.DB.Driver != DriverMySQL {
		t.Errorf("DB.Driver = %v, want %v", cfg.DB.Driver, DriverMySQL)
	}
	if cfg.Binder.GracePeriod != 250*time.Millisecond {
		t.Errorf("Binder.GracePeriod = %v, want %v", cfg.Binder.GracePeriod, 250*time.Millisecond)
	}
	if !cfg.Bot.Enabled() {
		t.Error("Bot.Enabled() = false with BOT_TOKEN set")
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	os.Setenv("BINDER_GRACE_PERIOD", "soon")
	defer os.Unsetenv("BINDER_GRACE_PERIOD")

	_, err := Load()
	if err == nil {
		t.Error("Load() expected error for malformed BINDER_GRACE_PERIOD, got nil")
	}
}

func validConfig() Config {
	return Config{
		DB:     DBConfig{Driver: DriverSQLite, Path: "quickpad.db", MaxConns: 10},
		Binder: BinderConfig{GracePeriod: 5 * time.Second},
		Server: ServerConfig{Port: 8080, SaveRateLimit: 5, SaveTimeout: 10 * time.Second},
		Bot:    BotConfig{ListLimit: 10},
		Stats:  StatsConfig{Interval: time.Minute},
		Log:    LogConfig{Level: "info"},
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid config", mutate: func(c *Config) {}, wantErr: false},
		{name: "unknown driver", mutate: func(c *Config) { c.DB.Driver = "oracle" }, wantErr: true},
		{name: "sqlite without path", mutate: func(c *Config) { c.DB.Path = "" }, wantErr: true},
		{name: "mysql without password", mutate: func(c *Config) { c.DB.Driver = DriverMySQL }, wantErr: true},
		{
			name: "postgres with password",
			mutate: func(c *Config) {
				c.DB.Driver = DriverPostgres
				c.DB.Password = "pass"
			},
			wantErr: false,
		},
		{name: "invalid max conns", mutate: func(c *Config) { c.DB.MaxConns = 0 }, wantErr: true},
		{name: "negative grace period", mutate: func(c *Config) { c.Binder.GracePeriod = -time.Second }, wantErr: true},
		{name: "zero grace period", mutate: func(c *Config) { c.Binder.GracePeriod = 0 }, wantErr: false},
		{name: "invalid port", mutate: func(c *Config) { c.Server.Port = 0 }, wantErr: true},
		{name: "invalid rate limit", mutate: func(c *Config) { c.Server.SaveRateLimit = 0 }, wantErr: true},
		{name: "invalid save timeout", mutate: func(c *Config) { c.Server.SaveTimeout = 0 }, wantErr: true},
		{name: "invalid list limit", mutate: func(c *Config) { c.Bot.ListLimit = 0 }, wantErr: true},
		{name: "invalid stats interval", mutate: func(c *Config) { c.Stats.Interval = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDBConfig_DSN(t *testing.T) {
	tests := []struct {
		name string
		cfg  DBConfig
		want string
	}{
		{
			name: "sqlite",
			cfg:  DBConfig{Driver: DriverSQLite, Path: "/tmp/q.db"},
			want: "file:/tmp/q.db?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)",
		},
		{
			name: "mysql",
			cfg:  DBConfig{Driver: DriverMySQL, Host: "localhost", Port: 3306, User: "root", Password: "secret", Database: "testdb"},
			want: "root:secret@tcp(localhost:3306)/testdb?charset=utf8mb4&parseTime=True&loc=Local",
		},
		{
			name: "postgres",
			cfg:  DBConfig{Driver: DriverPostgres, Host: "db", Port: 5432, User: "pg", Password: "secret", Database: "testdb"},
			want: "host=db user=pg password=secret dbname=testdb port=5432 sslmode=disable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.DSN(); got != tt.want {
				t.Errorf("DSN() = %v, want %v", got, tt.want)
			}
		})
	}
}
