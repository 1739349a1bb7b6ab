package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/alexivanou/foodmap-api/internal/config"
	"github.com/alexivanou/foodmap-api/internal/geo"
	"github.com/alexivanou/foodmap-api/internal/model"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
)

// ErrDuplicate is returned when a unique constraint rejects a write
var ErrDuplicate = errors.New("duplicate record")

// RestaurantRepository defines operations for restaurants
type RestaurantRepository interface {
	ListRestaurants(ctx context.Context) ([]model.Restaurant, error)
	// FindNear returns located restaurants within the query radius, nearest first
	FindNear(ctx context.Context, q model.ProximityQuery) ([]model.Restaurant, error)
	SearchByName(ctx context.Context, term string) ([]model.Restaurant, error)
	GetRestaurantByID(ctx context.Context, id string) (*model.Restaurant, error)
	GetMenuItem(ctx context.Context, restaurantID, itemID string) (*model.MenuItem, error)
	CreateRestaurant(ctx context.Context, r *model.Restaurant) error
	UpdateRestaurant(ctx context.Context, r *model.Restaurant) error
	ReplaceMenu(ctx context.Context, restaurantID string, menu []model.MenuItem) error
	DeleteRestaurant(ctx context.Context, id string) error
	AddReview(ctx context.Context, review *model.Review) error
	BulkInsertRestaurants(ctx context.Context, restaurants []model.Restaurant) error
}

// UserRepository defines operations for user profiles
type UserRepository interface {
	CreateUser(ctx context.Context, u *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	UpdateProfile(ctx context.Context, id, name, phone string) error
	UpdatePreferences(ctx context.Context, id string, prefs model.Preferences) error
	ReplaceAddresses(ctx context.Context, userID string, addresses []model.Address) error
}

// OrderRepository defines operations for orders
type OrderRepository interface {
	CreateOrder(ctx context.Context, o *model.Order) error
	ListOrdersByUser(ctx context.Context, userID string) ([]model.Order, error)
}

// Container holds all repositories
type Container struct {
	Restaurant RestaurantRepository
	User       UserRepository
	Order      OrderRepository
}

// NewRepositories creates repository implementations based on DB type
func NewRepositories(db *sqlx.DB, dbType config.DBType) *Container {
	store := &restaurantStore{db: db}
	c := &Container{
		User:  &userStore{db: db},
		Order: &orderStore{db: db},
	}

	if dbType == config.DBTypePostgreSQL {
		c.Restaurant = &pgRestaurantRepository{restaurantStore: store}
		return c
	}

	// Default to SQLite
	c.Restaurant = &sqliteRestaurantRepository{restaurantStore: store, index: geo.NewIndex()}
	return c
}

// IsDatabaseEmpty reports whether the restaurants table has no rows. A
// missing table counts as empty; any other error is returned.
func IsDatabaseEmpty(ctx context.Context, db *sqlx.DB) (bool, error) {
	var count int
	err := db.GetContext(ctx, &count, "SELECT COUNT(*) FROM restaurants")
	if isMissingTable(err) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return count == 0, nil
}

func isMissingTable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "42P01"
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return strings.Contains(liteErr.Error(), "no such table")
	}
	return false
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
