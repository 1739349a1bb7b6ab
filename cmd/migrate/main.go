package main

import (
	"context"
	"errors"
	"flag"
	"log"

	"github.com/alexivanou/foodmap-api/internal/config"
	"github.com/alexivanou/foodmap-api/internal/database"
	"github.com/golang-migrate/migrate/v4"
	"go.uber.org/zap"
)

func main() {
	var (
		command = flag.String("command", "up", "Migration command: up, down, steps, force or version")
		dir     = flag.String("dir", "migrations", "Directory holding the sqlite/ and postgres/ migration sets")
		steps   = flag.Int("n", 0, "Steps to apply for -command=steps (negative rolls back)")
		version = flag.Int("version", -1, "Version to record for -command=force")
	)
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	db, err := database.Connect(context.Background(), cfg.DB)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	m, err := database.NewMigrator(db, cfg.DB, *dir)
	if err != nil {
		logger.Fatal("Failed to create migration instance", zap.Error(err))
	}

	switch *command {
	case "up":
		logger.Info("Running migrations UP")
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			logger.Fatal("Migration up failed", zap.Error(err))
		}
	case "down":
		logger.Info("Running migrations DOWN")
		if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			logger.Fatal("Migration down failed", zap.Error(err))
		}
	case "steps":
		if *steps == 0 {
			logger.Fatal("-n is required for steps")
		}
		logger.Info("Applying migration steps", zap.Int("steps", *steps))
		if err := m.Steps(*steps); err != nil {
			logger.Fatal("Migration steps failed", zap.Error(err))
		}
	case "force":
		if *version < 0 {
			logger.Fatal("-version is required for force")
		}
		logger.Warn("Forcing migration version, dirty flag cleared", zap.Int("version", *version))
		if err := m.Force(*version); err != nil {
			logger.Fatal("Force failed", zap.Error(err))
		}
	case "version":
		v, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			logger.Info("No migrations applied")
			return
		}
		if err != nil {
			logger.Fatal("Failed to get version", zap.Error(err))
		}
		logger.Info("Migration version", zap.Uint("version", v), zap.Bool("dirty", dirty))
	default:
		logger.Fatal("Unknown command", zap.String("command", *command))
	}

	logger.Info("Migration command completed successfully")
}
