// File: cmd/server/providers.go
package main

import (
	"blood_donation_dashboard/internal/config"
	"blood_donation_dashboard/internal/platform/database"
	"blood_donation_dashboard/internal/platform/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// provideLogger builds the root logger; its cleanup flushes buffered entries.
func provideLogger(cfg *config.Config) (*zap.Logger, func(), error) {
	l, err := logger.New(cfg)
	if err != nil {
		return nil, nil, err
	}
	return l, logger.Cleanup(l), nil
}

// provideDatabase opens the local state store; its cleanup closes the connection.
func provideDatabase(cfg *config.Config, l *zap.Logger) (*gorm.DB, func(), error) {
	db, err := database.NewGORM(cfg, l)
	if err != nil {
		return nil, nil, err
	}
	return db, func() {
		l.Info("Executing cleanup tasks...")
		database.CloseGORMDB(db, l)
	}, nil
}
