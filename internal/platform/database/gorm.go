// File: internal/platform/database/gorm.go
package database

import (
	"fmt"
	"time"

	"blood_donation_dashboard/internal/config"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// NewGORM opens the local state store. It holds the persisted session and UI preferences,
// never backend data.
func NewGORM(cfg *config.Config, logger *zap.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.StateDBDriver {
	case "postgres":
		dialector = postgres.Open(cfg.StateDBDSN)
	case "sqlite", "":
		dialector = sqlite.Open(cfg.StateDBDSN)
	default:
		return nil, fmt.Errorf("unsupported state store driver %q", cfg.StateDBDriver)
	}

	newLogger := gormlogger.New(
		zap.NewStdLog(logger.Named("gorm")),
		gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormLogLevel(cfg.LogLevel),
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:      newLogger,
		PrepareStmt: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open state store: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	if cfg.StateDBDriver != "postgres" {
		// sqlite allows one writer; a single connection also keeps :memory: databases alive.
		sqlDB.SetMaxOpenConns(1)
	}
	if err = sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping state store: %w", err)
	}

	logger.Info("State store opened", zap.String("driver", dialector.Name()))
	return db, nil
}

func gormLogLevel(level string) gormlogger.LogLevel {
	switch level {
	case "silent", "fatal", "panic":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "debug":
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}

// CloseGORMDB closes the state store connection.
func CloseGORMDB(db *gorm.DB, logger *zap.Logger) {
	if db == nil {
		return
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Error("Error getting underlying SQL DB for closing", zap.Error(err))
		return
	}
	if err := sqlDB.Close(); err != nil {
		logger.Error("Error closing state store", zap.Error(err))
		return
	}
	logger.Info("State store closed.")
}
