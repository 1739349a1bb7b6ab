package main

import (
	"context"
	"fmt"
	"log"

	"github.com/alexivanou/foodmap-api/internal/config"
	"github.com/alexivanou/foodmap-api/internal/database"
	"github.com/alexivanou/foodmap-api/internal/model"
	"github.com/alexivanou/foodmap-api/internal/repository"
	"github.com/alexivanou/foodmap-api/internal/seeder"
	"go.uber.org/zap"
)

func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	ctx := context.Background()
	db, err := database.Connect(ctx, cfg.DB)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatal("Failed to ping database", zap.Error(err))
	}
	logger.Info("Connected to database", zap.String("type", string(cfg.DB.Type)))

	// Memory databases start without a schema
	if cfg.DB.IsMemory() {
		if err := database.Migrate(db, cfg.DB, "migrations"); err != nil {
			logger.Fatal("Failed to run migration", zap.Error(err))
		}
	}

	empty, err := repository.IsDatabaseEmpty(ctx, db)
	if err != nil {
		logger.Fatal("Failed to inspect database", zap.Error(err))
	}
	if !empty {
		logger.Warn("Restaurants table is not empty, seeding appends to existing data")
	}

	repos := repository.NewRepositories(db, cfg.DB.Type)
	parser := seeder.NewParser(cfg.Seeder)

	logger.Info("Starting data import...", zap.String("file", cfg.Seeder.DataFile))
	total, err := parser.Process(func(batch []model.Restaurant) error {
		if err := repos.Restaurant.BulkInsertRestaurants(ctx, batch); err != nil {
			return fmt.Errorf("failed to insert restaurants batch: %w", err)
		}
		logger.Debug("Inserted batch", zap.Int("size", len(batch)))
		return nil
	})
	if err != nil {
		logger.Fatal("Failed to import restaurants", zap.Error(err), zap.Int("inserted", total))
	}

	logger.Info("Data import completed successfully!", zap.Int("restaurants", total))
}
