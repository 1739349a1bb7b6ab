package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alexivanou/foodmap-api/internal/model"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const restaurantColumns = "id, name, address, cuisine, images, lng, lat, owner_id, created_at"

// restaurantRow flattens the optional location into nullable columns
type restaurantRow struct {
	model.Restaurant
	Lng sql.NullFloat64 `db:"lng"`
	Lat sql.NullFloat64 `db:"lat"`
}

func toRow(r *model.Restaurant) restaurantRow {
	row := restaurantRow{Restaurant: *r}
	if loc, ok := r.GeoLocation(); ok {
		row.Lng = sql.NullFloat64{Float64: loc.Lng, Valid: true}
		row.Lat = sql.NullFloat64{Float64: loc.Lat, Valid: true}
	}
	return row
}

func (row restaurantRow) restaurant() model.Restaurant {
	r := row.Restaurant
	r.Location = nil
	if row.Lng.Valid && row.Lat.Valid {
		r.Location = &model.GeoPoint{Type: "Point", Coordinates: []float64{row.Lng.Float64, row.Lat.Float64}}
	}
	if r.Images == nil {
		r.Images = model.StringList{}
	}
	return r
}

// restaurantStore holds the SQL shared by both backends. Queries are written
// with '?' placeholders and rebound for the active driver.
type restaurantStore struct {
	db *sqlx.DB
}

func (r *restaurantStore) selectRestaurants(ctx context.Context, q string, args ...any) ([]model.Restaurant, error) {
	var rows []restaurantRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(q), args...); err != nil {
		return nil, err
	}
	restaurants := make([]model.Restaurant, 0, len(rows))
	for _, row := range rows {
		restaurants = append(restaurants, row.restaurant())
	}
	if err := r.loadDetails(ctx, restaurants); err != nil {
		return nil, err
	}
	return restaurants, nil
}

// loadDetails attaches menus and reviews with one query each
func (r *restaurantStore) loadDetails(ctx context.Context, restaurants []model.Restaurant) error {
	if len(restaurants) == 0 {
		return nil
	}
	ids := make([]string, 0, len(restaurants))
	pos := make(map[string]int, len(restaurants))
	for i := range restaurants {
		ids = append(ids, restaurants[i].ID)
		pos[restaurants[i].ID] = i
		restaurants[i].Menu = []model.MenuItem{}
		restaurants[i].Reviews = []model.Review{}
	}

	q, args, err := sqlx.In(`SELECT * FROM menu_items WHERE restaurant_id IN (?) ORDER BY restaurant_id, position`, ids)
	if err != nil {
		return err
	}
	var items []model.MenuItem
	if err := r.db.SelectContext(ctx, &items, r.db.Rebind(q), args...); err != nil {
		return fmt.Errorf("load menu items: %w", err)
	}
	for _, it := range items {
		i := pos[it.RestaurantID]
		restaurants[i].Menu = append(restaurants[i].Menu, it)
	}

	q, args, err = sqlx.In(`SELECT * FROM reviews WHERE restaurant_id IN (?) ORDER BY created_at DESC`, ids)
	if err != nil {
		return err
	}
	var reviews []model.Review
	if err := r.db.SelectContext(ctx, &reviews, r.db.Rebind(q), args...); err != nil {
		return fmt.Errorf("load reviews: %w", err)
	}
	for _, rv := range reviews {
		i := pos[rv.RestaurantID]
		restaurants[i].Reviews = append(restaurants[i].Reviews, rv)
	}
	return nil
}

func (r *restaurantStore) ListRestaurants(ctx context.Context) ([]model.Restaurant, error) {
	return r.selectRestaurants(ctx, "SELECT "+restaurantColumns+" FROM restaurants ORDER BY created_at DESC")
}

func (r *restaurantStore) SearchByName(ctx context.Context, term string) ([]model.Restaurant, error) {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(term)
	q := "SELECT " + restaurantColumns + ` FROM restaurants
		WHERE LOWER(name) LIKE '%' || LOWER(?) || '%' ESCAPE '\'
		ORDER BY name`
	return r.selectRestaurants(ctx, q, escaped)
}

func (r *restaurantStore) GetRestaurantByID(ctx context.Context, id string) (*model.Restaurant, error) {
	restaurants, err := r.selectByIDs(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	if len(restaurants) == 0 {
		return nil, nil
	}
	return &restaurants[0], nil
}

// idChunkSize keeps IN (...) lists below SQLite's bound-variable limit
var idChunkSize = 500

func (r *restaurantStore) selectByIDs(ctx context.Context, ids []string) ([]model.Restaurant, error) {
	out := make([]model.Restaurant, 0, len(ids))
	for i := 0; i < len(ids); i += idChunkSize {
		end := i + idChunkSize
		if end > len(ids) {
			end = len(ids)
		}
		q, args, err := sqlx.In("SELECT "+restaurantColumns+" FROM restaurants WHERE id IN (?)", ids[i:end])
		if err != nil {
			return nil, err
		}
		found, err := r.selectRestaurants(ctx, q, args...)
		if err != nil {
			return nil, err
		}
		out = append(out, found...)
	}
	return out, nil
}

func (r *restaurantStore) GetMenuItem(ctx context.Context, restaurantID, itemID string) (*model.MenuItem, error) {
	var item model.MenuItem
	q := r.db.Rebind("SELECT * FROM menu_items WHERE restaurant_id = ? AND id = ?")
	if err := r.db.GetContext(ctx, &item, q, restaurantID, itemID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

func (r *restaurantStore) CreateRestaurant(ctx context.Context, rest *model.Restaurant) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := insertRestaurant(ctx, tx, rest); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *restaurantStore) BulkInsertRestaurants(ctx context.Context, restaurants []model.Restaurant) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for i := range restaurants {
		if err := insertRestaurant(ctx, tx, &restaurants[i]); err != nil {
			return fmt.Errorf("insert restaurant %q: %w", restaurants[i].Name, err)
		}
	}
	return tx.Commit()
}

func insertRestaurant(ctx context.Context, tx *sqlx.Tx, rest *model.Restaurant) error {
	if rest.ID == "" {
		rest.ID = uuid.NewString()
	}
	if rest.Date.IsZero() {
		rest.Date = time.Now().UTC()
	}
	if rest.Images == nil {
		rest.Images = model.StringList{}
	}

	_, err := tx.NamedExecContext(ctx, `
		INSERT INTO restaurants (id, name, address, cuisine, images, lng, lat, owner_id, created_at)
		VALUES (:id, :name, :address, :cuisine, :images, :lng, :lat, :owner_id, :created_at)`,
		toRow(rest))
	if err != nil {
		return err
	}
	return insertMenu(ctx, tx, rest.ID, rest.Menu)
}

func insertMenu(ctx context.Context, tx *sqlx.Tx, restaurantID string, menu []model.MenuItem) error {
	if len(menu) == 0 {
		return nil
	}
	for i := range menu {
		if menu[i].ID == "" {
			menu[i].ID = uuid.NewString()
		}
		menu[i].RestaurantID = restaurantID
		menu[i].Position = i
	}
	_, err := tx.NamedExecContext(ctx, `
		INSERT INTO menu_items (id, restaurant_id, position, name, description, price, category)
		VALUES (:id, :restaurant_id, :position, :name, :description, :price, :category)`,
		menu)
	return err
}

func (r *restaurantStore) UpdateRestaurant(ctx context.Context, rest *model.Restaurant) error {
	_, err := r.db.NamedExecContext(ctx, `
		UPDATE restaurants
		SET name = :name, address = :address, cuisine = :cuisine, images = :images, lng = :lng, lat = :lat
		WHERE id = :id`,
		toRow(rest))
	return err
}

func (r *restaurantStore) ReplaceMenu(ctx context.Context, restaurantID string, menu []model.MenuItem) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM menu_items WHERE restaurant_id = ?"), restaurantID); err != nil {
		return err
	}
	if err := insertMenu(ctx, tx, restaurantID, menu); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *restaurantStore) DeleteRestaurant(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Children are removed explicitly; SQLite only cascades with foreign_keys on
	// for the connection that ran the PRAGMA.
	for _, q := range []string{
		"DELETE FROM menu_items WHERE restaurant_id = ?",
		"DELETE FROM reviews WHERE restaurant_id = ?",
		"DELETE FROM restaurants WHERE id = ?",
	} {
		if _, err := tx.ExecContext(ctx, tx.Rebind(q), id); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *restaurantStore) AddReview(ctx context.Context, review *model.Review) error {
	if review.ID == "" {
		review.ID = uuid.NewString()
	}
	if review.Date.IsZero() {
		review.Date = time.Now().UTC()
	}
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO reviews (id, restaurant_id, user_id, rating, comment, created_at)
		VALUES (:id, :restaurant_id, :user_id, :rating, :comment, :created_at)`,
		review)
	return err
}
