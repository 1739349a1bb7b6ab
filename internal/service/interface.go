package service

import (
	"context"

	"github.com/alexivanou/foodmap-api/internal/cart"
	"github.com/alexivanou/foodmap-api/internal/model"
)

// ServiceInterface defines the service interface for testing
type ServiceInterface interface {
	FindNearby(ctx context.Context, q model.ProximityQuery) ([]model.Restaurant, error)
	ListRestaurants(ctx context.Context) ([]model.Restaurant, error)
	SearchRestaurants(ctx context.Context, term string) ([]model.Restaurant, error)
	GetRestaurant(ctx context.Context, id string) (*model.Restaurant, error)
	CreateRestaurant(ctx context.Context, userID string, req model.RestaurantRequest) (*model.Restaurant, error)
	UpdateRestaurant(ctx context.Context, userID, id string, req model.RestaurantRequest) (*model.Restaurant, error)
	DeleteRestaurant(ctx context.Context, userID, id string) error
	AddReview(ctx context.Context, userID, id string, req model.ReviewRequest) ([]model.Review, error)

	CreateOrder(ctx context.Context, userID string, req model.CreateOrderRequest) (*model.Order, error)
	ListOrders(ctx context.Context, userID string) ([]model.Order, error)

	CreateUser(ctx context.Context, userID string, req model.CreateUserRequest) (*model.User, error)
	GetProfile(ctx context.Context, userID string) (*model.User, error)
	UpdateProfile(ctx context.Context, userID string, req model.UpdateProfileRequest) (*model.User, error)
	UpdatePreferences(ctx context.Context, userID string, prefs model.Preferences) (*model.User, error)
	AddAddress(ctx context.Context, userID string, addr model.Address) (*model.User, error)
	UpdateAddress(ctx context.Context, userID, addressID string, addr model.Address) (*model.User, error)
	DeleteAddress(ctx context.Context, userID, addressID string) (*model.User, error)
	SetDefaultAddress(ctx context.Context, userID, addressID string) (*model.User, error)

	GetCart(ctx context.Context, userID string) cart.Snapshot
	AddToCart(ctx context.Context, userID string, req model.CartItemRequest) (cart.Snapshot, error)
	RemoveFromCart(ctx context.Context, userID, menuItemID string) cart.Snapshot
	ClearCart(ctx context.Context, userID string) cart.Snapshot
	Checkout(ctx context.Context, userID string) ([]model.Order, error)
}

var _ ServiceInterface = (*Service)(nil)
