package main

import (
	"database/sql"
	"flag"

	"storefront-be/internal/config"
	"storefront-be/internal/db"
	"storefront-be/internal/logger"

	"go.uber.org/zap"
)

var migrateFunc = db.Migrate

func main() {
	mode := flag.String("mode", "up", "migration mode: up, down or status")
	flag.Parse()

	cfg := config.LoadConfig()
	if err := logger.Init(logger.Options{Env: cfg.AppEnv, Level: cfg.LogLevel}); err != nil {
		logger.L().Fatal("failed to init logger", zap.Error(err))
	}
	defer logger.Sync()

	database, err := db.NewDatabase(cfg)
	if err != nil {
		logger.L().Fatal("failed to connect db", zap.Error(err))
	}
	defer database.Close()

	if err := run(database, *mode); err != nil {
		logger.L().Fatal("migration failed", zap.String("mode", *mode), zap.Error(err))
	}
}

func run(database *sql.DB, mode string) error {
	if err := migrateFunc(database, mode); err != nil {
		return err
	}
	logger.L().Info("migration finished", zap.String("mode", mode))
	return nil
}
