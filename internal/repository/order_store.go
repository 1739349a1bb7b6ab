package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/alexivanou/foodmap-api/internal/model"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type orderStore struct {
	db *sqlx.DB
}

type orderRow struct {
	model.Order
	RestaurantName    sql.NullString `db:"restaurant_name"`
	RestaurantAddress sql.NullString `db:"restaurant_address"`
	RestaurantCuisine sql.NullString `db:"restaurant_cuisine"`
}

func (r *orderStore) CreateOrder(ctx context.Context, o *model.Order) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if o.Status == "" {
		o.Status = model.OrderPending
	}
	if o.Date.IsZero() {
		o.Date = time.Now().UTC()
	}
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO orders (id, user_id, restaurant_id, items, total, status, created_at)
		VALUES (:id, :user_id, :restaurant_id, :items, :total, :status, :created_at)`,
		o)
	return err
}

// ListOrdersByUser returns the user's orders newest first with a summary of
// the restaurant, which may since have been deleted.
func (r *orderStore) ListOrdersByUser(ctx context.Context, userID string) ([]model.Order, error) {
	q := r.db.Rebind(`
		SELECT o.id, o.user_id, o.restaurant_id, o.items, o.total, o.status, o.created_at,
			r.name AS restaurant_name, r.address AS restaurant_address, r.cuisine AS restaurant_cuisine
		FROM orders o
		LEFT JOIN restaurants r ON r.id = o.restaurant_id
		WHERE o.user_id = ?
		ORDER BY o.created_at DESC`)
	var rows []orderRow
	if err := r.db.SelectContext(ctx, &rows, q, userID); err != nil {
		return nil, err
	}

	orders := make([]model.Order, 0, len(rows))
	for _, row := range rows {
		o := row.Order
		if row.RestaurantName.Valid {
			o.Restaurant = &model.RestaurantSummary{
				ID:      o.RestaurantID,
				Name:    row.RestaurantName.String,
				Address: row.RestaurantAddress.String,
				Cuisine: row.RestaurantCuisine.String,
			}
		}
		orders = append(orders, o)
	}
	return orders, nil
}
