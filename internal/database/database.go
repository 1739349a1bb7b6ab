package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alexivanou/foodmap-api/internal/config"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib" // Postgres driver for database/sql
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// Connect creates a database connection based on configuration using sqlx
func Connect(ctx context.Context, cfg config.DBConfig) (*sqlx.DB, error) {
	var driverName string
	var dsn string

	if cfg.IsMemory() {
		driverName = "sqlite3"
		dsn = cfg.DSN()
	} else {
		driverName = "pgx"
		dsn = cfg.DSN()
	}

	db, err := sqlx.ConnectContext(ctx, driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Specific settings for SQLite to enable Foreign Keys
	if cfg.IsMemory() {
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
		// Shared-cache memory databases report SQLITE_LOCKED across connections
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(25)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	return db, nil
}

// NewMigrator builds a migrate instance for migrationsDir/<sqlite|postgres>.
// migrationsDir is a plain path, e.g. "migrations" or "../../migrations".
func NewMigrator(db *sqlx.DB, cfg config.DBConfig, migrationsDir string) (*migrate.Migrate, error) {
	if cfg.IsMemory() {
		// Use driver instance directly to avoid DSN parsing issues with in-memory SQLite
		driver, err := sqlite3.WithInstance(db.DB, &sqlite3.Config{})
		if err != nil {
			return nil, fmt.Errorf("could not create sqlite driver: %w", err)
		}
		m, err := migrate.NewWithDatabaseInstance("file://"+migrationsDir+"/sqlite", "sqlite3", driver)
		if err != nil {
			return nil, fmt.Errorf("could not create migrate instance: %w", err)
		}
		return m, nil
	}

	m, err := migrate.New("file://"+migrationsDir+"/postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("could not create migrate instance: %w", err)
	}
	return m, nil
}

// Migrate applies all pending migrations
func Migrate(db *sqlx.DB, cfg config.DBConfig, migrationsDir string) error {
	m, err := NewMigrator(db, cfg, migrationsDir)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}
