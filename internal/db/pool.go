package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/CyanTarantula/trend-pulse/internal/config"
)

// sqlitePrefix marks a DATABASE_URL that points at a SQLite file.
const sqlitePrefix = "sqlite:"

var ErrNoRows = sql.ErrNoRows

type Pool struct {
	gdb    *gorm.DB
	sqlDB  *sql.DB
	driver string
}

func NewPool(ctx context.Context, cfg *config.Config) (*Pool, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	if err := cfg.RequireDatabase(); err != nil {
		return nil, err
	}

	dialector, driver := dialectorFor(cfg.DatabaseURL)
	logLevel := resolveGormLogLevel(cfg.LogLevel, cfg.Environment)

	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("open gorm database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("get gorm sql db: %w", err)
	}

	maxOpen := int(cfg.DBMaxConns)
	if maxOpen <= 0 {
		maxOpen = 4
	}
	if driver == "sqlite" {
		// SQLite allows a single writer and ":memory:" is per connection.
		maxOpen = 1
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(max(1, min(int(cfg.DBMinConns), maxOpen)))
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	pool := &Pool{
		gdb:    gdb,
		sqlDB:  sqlDB,
		driver: driver,
	}
	if err := pool.autoMigrate(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("auto-migrate schema: %w", err)
	}

	return pool, nil
}

func dialectorFor(databaseURL string) (gorm.Dialector, string) {
	trimmed := strings.TrimSpace(databaseURL)
	if strings.HasPrefix(strings.ToLower(trimmed), sqlitePrefix) {
		return sqlite.Open(sqlitePath(trimmed)), "sqlite"
	}
	return postgres.Open(trimmed), "postgres"
}

// sqlitePath turns "sqlite:trends.db" or "sqlite://trends.db" into a file path.
func sqlitePath(databaseURL string) string {
	path := databaseURL[len(sqlitePrefix):]
	path = strings.TrimPrefix(path, "//")
	if path == "" {
		return "trend-pulse.db"
	}
	return path
}

// Driver names the SQL backend in use: "postgres" or "sqlite".
func (p *Pool) Driver() string {
	if p == nil {
		return ""
	}
	return p.driver
}

func (p *Pool) Ping(ctx context.Context) error {
	if p == nil || p.sqlDB == nil {
		return fmt.Errorf("database pool is not initialized")
	}
	return p.sqlDB.PingContext(ctx)
}

func (p *Pool) Close() error {
	if p == nil || p.sqlDB == nil {
		return nil
	}
	return p.sqlDB.Close()
}

func (p *Pool) ready() error {
	if p == nil || p.gdb == nil {
		return fmt.Errorf("database pool is not initialized")
	}
	return nil
}

func IsNoRows(err error) bool {
	return errors.Is(err, ErrNoRows) || errors.Is(err, gorm.ErrRecordNotFound)
}

func resolveGormLogLevel(appLogLevel, environment string) logger.LogLevel {
	level := strings.ToLower(strings.TrimSpace(appLogLevel))
	switch level {
	case "trace", "debug":
		return logger.Info
	case "warn", "warning", "info", "":
		return logger.Warn
	case "error":
		return logger.Error
	case "silent":
		return logger.Silent
	default:
		if strings.EqualFold(strings.TrimSpace(environment), "local") {
			return logger.Warn
		}
		return logger.Error
	}
}
