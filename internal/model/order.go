package model

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Order statuses
const (
	OrderPending    = "Pending"
	OrderInProgress = "In Progress"
	OrderCompleted  = "Completed"
	OrderCancelled  = "Cancelled"
)

// OrderItem is a line of an order
type OrderItem struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

// Order is a placed order
type Order struct {
	ID           string             `json:"id" db:"id"`
	UserID       string             `json:"user" db:"user_id"`
	RestaurantID string             `json:"restaurantId" db:"restaurant_id"`
	Restaurant   *RestaurantSummary `json:"restaurant,omitempty" db:"-"`
	Items        OrderItems         `json:"items" db:"items"`
	Total        float64            `json:"total" db:"total"`
	Status       string             `json:"status" db:"status"`
	Date         time.Time          `json:"date" db:"created_at"`
}

// RestaurantSummary is the restaurant projection embedded in orders
type RestaurantSummary struct {
	ID      string `json:"id" db:"id"`
	Name    string `json:"name" db:"name"`
	Address string `json:"address" db:"address"`
	Cuisine string `json:"cuisine" db:"cuisine"`
}

// OrderTotal sums price times quantity
func OrderTotal(items []OrderItem) float64 {
	var total float64
	for _, it := range items {
		total += it.Price * float64(it.Quantity)
	}
	return math.Round(total*100) / 100
}

// ValidateOrderItems checks that an order has at least one well-formed line
func ValidateOrderItems(items []OrderItem) error {
	if len(items) == 0 {
		return errors.New("order must contain at least one item")
	}
	for _, it := range items {
		if it.Name == "" {
			return errors.New("order item name is required")
		}
		if it.Quantity <= 0 {
			return fmt.Errorf("order item %q must have a positive quantity", it.Name)
		}
		if it.Price < 0 || math.IsNaN(it.Price) || math.IsInf(it.Price, 0) {
			return fmt.Errorf("order item %q has an invalid price", it.Name)
		}
	}
	return nil
}
