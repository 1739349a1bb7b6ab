//go:build integration
// +build integration

package repository

import (
	"context"
	"os"
	"testing"

	"github.com/alexivanou/foodmap-api/internal/config"
	"github.com/alexivanou/foodmap-api/internal/database"
	"github.com/alexivanou/foodmap-api/internal/geo"
	"github.com/alexivanou/foodmap-api/internal/model"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestDB connects to a running PostgreSQL instance and applies migrations
func setupTestDB(t *testing.T) *sqlx.DB {
	cfg := config.DBConfig{
		Type:     config.DBTypePostgreSQL,
		Host:     getenv("TEST_DB_HOST", "localhost"),
		Port:     getenv("TEST_DB_PORT", "5432"),
		User:     getenv("TEST_DB_USER", "foodmap"),
		Password: getenv("TEST_DB_PASSWORD", "foodmap_password"),
		Name:     getenv("TEST_DB_NAME", "foodmap_test"),
		SSLMode:  "disable",
	}
	db, err := database.Connect(context.Background(), cfg)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db, cfg, "../../migrations"))

	_, err = db.Exec("TRUNCATE reviews, menu_items, orders, addresses, users, restaurants")
	require.NoError(t, err)
	return db
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func TestPostgresRepository_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	db := setupTestDB(t)
	defer db.Close()

	repos := NewRepositories(db, config.DBTypePostgreSQL)
	ctx := context.Background()
	require.NoError(t, repos.Restaurant.BulkInsertRestaurants(ctx, hyderabadCafes()))

	t.Run("FindNear", func(t *testing.T) {
		center := geo.Location{Lat: 17.4239, Lng: 78.4738}
		got, err := repos.Restaurant.FindNear(ctx, model.ProximityQuery{ReferencePoint: center, MaxDistanceMeters: 15000})
		require.NoError(t, err)
		assert.Equal(t, []string{"Mirosa", "Era Bistro", "PS Cheese Cafe"}, names(got))
		require.NotNil(t, got[0].DistanceMeters)
		assert.InDelta(t, 3167, *got[0].DistanceMeters, 50)
	})

	t.Run("SearchByName", func(t *testing.T) {
		got, err := repos.Restaurant.SearchByName(ctx, "CAFE")
		require.NoError(t, err)
		assert.Equal(t, []string{"PS Cheese Cafe"}, names(got))
	})
}
