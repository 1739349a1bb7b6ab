package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexivanou/foodmap-api/internal/api"
	"github.com/alexivanou/foodmap-api/internal/cart"
	"github.com/alexivanou/foodmap-api/internal/config"
	"github.com/alexivanou/foodmap-api/internal/database"
	"github.com/alexivanou/foodmap-api/internal/model"
	"github.com/alexivanou/foodmap-api/internal/repository"
	"github.com/alexivanou/foodmap-api/internal/seeder"
	"github.com/alexivanou/foodmap-api/internal/service"
	"github.com/alexivanou/foodmap-api/internal/stats"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	db, err := database.Connect(context.Background(), cfg.DB)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatal("Failed to ping database", zap.Error(err))
	}
	logger.Info("Connected to database", zap.String("type", string(cfg.DB.Type)))

	ctx := context.Background()
	if err := database.Migrate(db, cfg.DB, "migrations"); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	repos := repository.NewRepositories(db, cfg.DB.Type)

	isEmpty, err := repository.IsDatabaseEmpty(ctx, db)
	if err != nil {
		logger.Warn("Failed to check if database is empty", zap.Error(err))
	} else if isEmpty {
		logger.Info("Database is empty, auto-seeding data...")
		if err := autoSeedDatabase(ctx, repos, cfg, logger); err != nil {
			logger.Fatal("Failed to auto-seed database", zap.Error(err))
		}
		logger.Info("Database seeded successfully")
	}

	svc := service.NewService(repos.Restaurant, repos.User, repos.Order, cart.NewStore(logger))
	statsCollector := stats.NewCollector(db, cfg.DB)
	router := api.NewRouter(svc, statsCollector, logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Starting server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

func autoSeedDatabase(ctx context.Context, repos *repository.Container, cfg *config.Config, logger *zap.Logger) error {
	parser := seeder.NewParser(cfg.Seeder)

	logger.Info("Importing restaurants...", zap.String("file", cfg.Seeder.DataFile))
	total, err := parser.Process(func(batch []model.Restaurant) error {
		return repos.Restaurant.BulkInsertRestaurants(ctx, batch)
	})
	if err != nil {
		return fmt.Errorf("failed to import restaurants: %w", err)
	}

	logger.Info("Imported restaurants", zap.Int("count", total))
	return nil
}
