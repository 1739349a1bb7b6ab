package service

import (
	"context"

	"github.com/alexivanou/foodmap-api/internal/cart"
	"github.com/alexivanou/foodmap-api/internal/model"
)

// CreateOrder places an order. The total is recomputed from the items.
func (s *Service) CreateOrder(ctx context.Context, userID string, req model.CreateOrderRequest) (*model.Order, error) {
	if req.Restaurant == "" {
		return nil, invalid(ErrValidation, "restaurant is required")
	}
	if err := model.ValidateOrderItems(req.Items); err != nil {
		return nil, invalid(ErrValidation, err.Error())
	}
	r, err := s.GetRestaurant(ctx, req.Restaurant)
	if err != nil {
		return nil, err
	}

	o := &model.Order{
		UserID:       userID,
		RestaurantID: r.ID,
		Restaurant:   summarize(r),
		Items:        model.OrderItems(req.Items),
		Total:        model.OrderTotal(req.Items),
		Status:       model.OrderPending,
	}
	if err := s.orderRepo.CreateOrder(ctx, o); err != nil {
		return nil, unavailable("create order", err)
	}
	return o, nil
}

// ListOrders returns the user's orders, newest first
func (s *Service) ListOrders(ctx context.Context, userID string) ([]model.Order, error) {
	orders, err := s.orderRepo.ListOrdersByUser(ctx, userID)
	if err != nil {
		return nil, unavailable("list orders", err)
	}
	return orders, nil
}

// GetCart returns the user's cart contents
func (s *Service) GetCart(_ context.Context, userID string) cart.Snapshot {
	return s.carts.For(userID).Snapshot()
}

// AddToCart resolves the menu item and adds it to the user's cart
func (s *Service) AddToCart(ctx context.Context, userID string, req model.CartItemRequest) (cart.Snapshot, error) {
	if req.RestaurantID == "" || req.MenuItemID == "" {
		return cart.Snapshot{}, invalid(ErrValidation, "restaurantId and menuItemId are required")
	}
	if req.Quantity < 0 {
		return cart.Snapshot{}, invalid(ErrValidation, "quantity must not be negative")
	}
	r, err := s.GetRestaurant(ctx, req.RestaurantID)
	if err != nil {
		return cart.Snapshot{}, err
	}
	item, err := s.restaurantRepo.GetMenuItem(ctx, r.ID, req.MenuItemID)
	if err != nil {
		return cart.Snapshot{}, unavailable("get menu item", err)
	}
	if item == nil {
		return cart.Snapshot{}, invalid(ErrNotFound, "menu item not found")
	}

	return s.carts.For(userID).Add(cart.Line{
		MenuItemID:     item.ID,
		RestaurantID:   r.ID,
		RestaurantName: r.Name,
		Name:           item.Name,
		Price:          item.Price,
		Quantity:       req.Quantity,
	}), nil
}

// RemoveFromCart takes one unit of a menu item out of the cart
func (s *Service) RemoveFromCart(_ context.Context, userID, menuItemID string) cart.Snapshot {
	return s.carts.For(userID).Remove(menuItemID)
}

// ClearCart empties the user's cart
func (s *Service) ClearCart(_ context.Context, userID string) cart.Snapshot {
	return s.carts.For(userID).Clear()
}

// Checkout places one order per restaurant in the cart. Each restaurant's
// lines leave the cart as soon as its order is placed, so a failed checkout
// can be retried without ordering twice.
func (s *Service) Checkout(ctx context.Context, userID string) ([]model.Order, error) {
	c := s.carts.For(userID)
	snap := c.Snapshot()
	if len(snap.Items) == 0 {
		return nil, invalid(ErrValidation, "cart is empty")
	}

	var orders []model.Order
	for _, group := range snap.GroupByRestaurant() {
		items := make([]model.OrderItem, 0, len(group))
		for _, l := range group {
			items = append(items, model.OrderItem{Name: l.Name, Price: l.Price, Quantity: l.Quantity})
		}
		o, err := s.CreateOrder(ctx, userID, model.CreateOrderRequest{Restaurant: group[0].RestaurantID, Items: items})
		if err != nil {
			return orders, err
		}
		c.Take(group)
		orders = append(orders, *o)
	}
	return orders, nil
}

func summarize(r *model.Restaurant) *model.RestaurantSummary {
	return &model.RestaurantSummary{ID: r.ID, Name: r.Name, Address: r.Address, Cuisine: r.Cuisine}
}
