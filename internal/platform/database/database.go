package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"account-service/internal/config"
)

const (
	defaultMaxOpenConns = 5
	defaultIdleTimeout  = 10 * time.Second
	acquireTimeout      = 30 * time.Second
	slowQueryThreshold  = 200 * time.Millisecond
)

// Dialector picks the gorm driver for the configured dialect.
func Dialector(dialect, url string) (gorm.Dialector, error) {
	switch dialect {
	case config.DialectMySQL:
		return mysql.Open(url), nil
	case config.DialectPostgres:
		return postgres.Open(url), nil
	default:
		return nil, fmt.Errorf("unsupported database dialect %q", dialect)
	}
}

// GormConfig returns the shared gorm settings. Verbose logs every
// statement, otherwise gorm stays silent.
func GormConfig(log *slog.Logger, verbose bool) *gorm.Config {
	level := logger.Silent
	if verbose {
		level = logger.Info
	}
	return &gorm.Config{
		Logger: logger.New(slog.NewLogLogger(log.Handler(), slog.LevelInfo), logger.Config{
			SlowThreshold:             slowQueryThreshold,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
		}),
		// Unique index violations surface as gorm.ErrDuplicatedKey.
		TranslateError:         true,
		SkipDefaultTransaction: true,
	}
}

func New(ctx context.Context, cfg config.DatabaseConfig, log *slog.Logger, verbose bool) (*gorm.DB, error) {
	dialector, err := Dialector(cfg.Dialect, cfg.URL)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, GormConfig(log, verbose))
	if err != nil {
		return nil, fmt.Errorf("open %s failed: %w", cfg.Dialect, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get %s sql db failed: %w", cfg.Dialect, err)
	}

	maxOpen := cfg.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = defaultMaxOpenConns
	}
	idle := cfg.IdleTimeout
	if idle <= 0 {
		idle = defaultIdleTimeout
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxOpen)
	sqlDB.SetConnMaxIdleTime(idle)
	sqlDB.SetConnMaxLifetime(1 * time.Hour)

	pingCtx, cancel := context.WithTimeout(ctx, acquireTimeout)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping %s failed: %w", cfg.Dialect, err)
	}

	log.InfoContext(ctx, "database connection established", "dialect", cfg.Dialect)
	return db, nil
}
