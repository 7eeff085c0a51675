package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"time"

	_ "github.com/lib/pq"

	"github.com/denimhub/dashboard/internal/config"
	"github.com/denimhub/dashboard/internal/database"
)

// migrate applies the embedded migrations, or with "status" prints the current version.
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	sqlDB, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		logger.Error("failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	defer sqlDB.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if len(os.Args) > 1 && os.Args[1] == "status" {
		if err := database.MigrationStatus(ctx, sqlDB, logger); err != nil {
			logger.Error("failed to read migration status", slog.Any("error", err))
			os.Exit(1)
		}
		return
	}

	if err := database.RunMigrations(ctx, sqlDB); err != nil {
		logger.Error("failed to apply migrations", slog.Any("error", err))
		os.Exit(1)
	}
	if err := database.MigrationStatus(ctx, sqlDB, logger); err != nil {
		logger.Error("failed to read migration status", slog.Any("error", err))
		os.Exit(1)
	}
}
