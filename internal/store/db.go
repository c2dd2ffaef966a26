package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/user/quickpad-go/internal/config"
	"github.com/user/quickpad-go/internal/model"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB owns the store file (or server connection), its schema, and the change
// signal observers wait on.
type DB struct {
	db *gorm.DB

	mu      sync.Mutex
	changed chan struct{}
}

// Open connects to the configured database, checks the schema identity and
// migrates the videos table.
func Open(cfg *config.DBConfig) (*DB, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		closePool(db)
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pool
	sqlDB.SetMaxOpenConns(cfg.MaxConns)
	sqlDB.SetMaxIdleConns(max(cfg.MaxConns/2, 1))
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := ensureSchema(db); err != nil {
		closePool(db)
		return nil, err
	}

	return &DB{db: db, changed: make(chan struct{})}, nil
}

// closePool releases the connections behind db, whether or not gorm can
// expose them as a *sql.DB.
func closePool(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
		return
	}
	if closer, ok := db.ConnPool.(io.Closer); ok {
		_ = closer.Close()
	}
}

func dialectorFor(cfg *config.DBConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		// ensure parent directory exists to avoid SQLITE_CANTOPEN errors
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		return sqlite.Open(cfg.DSN()), nil
	case config.DriverMySQL:
		return mysql.Open(cfg.DSN()), nil
	case config.DriverPostgres:
		return postgres.Open(cfg.DSN()), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// ensureSchema stamps a fresh database with the current schema identity, or
// refuses one stamped with another version before touching its tables.
func ensureSchema(db *gorm.DB) error {
	if err := db.AutoMigrate(&model.SchemaInfo{}); err != nil {
		return fmt.Errorf("failed to migrate schema info: %w", err)
	}

	var info model.SchemaInfo
	err := db.Where("name = ?", model.SchemaName).Take(&info).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		info = model.SchemaInfo{Name: model.SchemaName, Version: model.SchemaVersion}
		if err := db.Create(&info).Error; err != nil {
			return fmt.Errorf("failed to stamp schema version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("failed to read schema version: %w", err)
	case info.Version != model.SchemaVersion:
		return fmt.Errorf("%w: %s is at version %d, this build reads version %d",
			ErrSchemaMismatch, info.Name, info.Version, model.SchemaVersion)
	}

	if err := db.AutoMigrate(&model.Video{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// Changes returns a channel that is closed on the next committed write.
func (d *DB) Changes() <-chan struct{} {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.changed
}

// NotifyChanged wakes every goroutine waiting on Changes. It never blocks.
func (d *DB) NotifyChanged() {
	d.mu.Lock()
	defer d.mu.Unlock()
	close(d.changed)
	d.changed = make(chan struct{})
}

// Gorm returns the underlying gorm.DB instance
func (d *DB) Gorm() *gorm.DB {
	return d.db
}

// Ping checks database connectivity
func (d *DB) Ping(ctx context.Context) error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying db: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the database connection
func (d *DB) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying db: %w", err)
	}
	return sqlDB.Close()
}
