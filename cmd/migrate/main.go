package main

import (
	"log/slog"
	"os"

	"github.com/nikhilm/hourglass-goal-service/internal/config"
	"github.com/nikhilm/hourglass-goal-service/internal/db"
	"github.com/nikhilm/hourglass-goal-service/internal/logger"
)

// Applies or rolls back schema migrations outside the server process:
//
//	go run ./cmd/migrate up
//	go run ./cmd/migrate down
func main() {
	cfg := config.Load()

	logger.Init(cfg.IsDevelopment(), "")

	direction := "up"
	if len(os.Args) > 1 {
		direction = os.Args[1]
	}

	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		slog.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer func() {
		closeErr := db.Close(database)
		if closeErr != nil {
			slog.Error("failed to close database", "error", closeErr)
		}
	}()

	switch direction {
	case "up":
		err = db.RunMigrations(database.DB, cfg.DBDriver)
	case "down":
		err = db.MigrateDown(database.DB, cfg.DBDriver)
	default:
		slog.Error("unknown direction, expected up or down", "direction", direction)
		os.Exit(1)
	}

	if err != nil {
		slog.Error("migration failed", "direction", direction, "error", err)
		os.Exit(1)
	}
}
