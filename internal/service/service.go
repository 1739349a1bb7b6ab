package service

import (
	"errors"
	"fmt"

	"github.com/alexivanou/foodmap-api/internal/cart"
	"github.com/alexivanou/foodmap-api/internal/repository"
)

var (
	// ErrInvalidQuery is returned for malformed proximity or search input
	ErrInvalidQuery = errors.New("invalid query")
	// ErrServiceUnavailable wraps storage failures; callers may retry
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("user not authorized")
	ErrValidation         = errors.New("validation failed")
)

// Service provides business logic for the API
type Service struct {
	restaurantRepo repository.RestaurantRepository
	userRepo       repository.UserRepository
	orderRepo      repository.OrderRepository
	carts          *cart.Store
}

// NewService creates a new service instance
func NewService(
	restaurantRepo repository.RestaurantRepository,
	userRepo repository.UserRepository,
	orderRepo repository.OrderRepository,
	carts *cart.Store,
) *Service {
	if carts == nil {
		carts = cart.NewStore(nil)
	}
	return &Service{
		restaurantRepo: restaurantRepo,
		userRepo:       userRepo,
		orderRepo:      orderRepo,
		carts:          carts,
	}
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrServiceUnavailable, err)
}

func invalid(base error, msg string) error {
	return fmt.Errorf("%w: %s", base, msg)
}
