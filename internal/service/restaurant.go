package service

import (
	"context"
	"strings"

	"github.com/alexivanou/foodmap-api/internal/model"
)

// FindNearby returns located restaurants within q.MaxDistanceMeters of the
// reference point, nearest first.
func (s *Service) FindNearby(ctx context.Context, q model.ProximityQuery) ([]model.Restaurant, error) {
	if err := q.Validate(); err != nil {
		return nil, invalid(ErrInvalidQuery, err.Error())
	}

	restaurants, err := s.restaurantRepo.FindNear(ctx, q)
	if err != nil {
		return nil, unavailable("find nearby restaurants", err)
	}
	return restaurants, nil
}

// ListRestaurants returns every restaurant, newest first
func (s *Service) ListRestaurants(ctx context.Context) ([]model.Restaurant, error) {
	restaurants, err := s.restaurantRepo.ListRestaurants(ctx)
	if err != nil {
		return nil, unavailable("list restaurants", err)
	}
	return restaurants, nil
}

// SearchRestaurants matches names case-insensitively
func (s *Service) SearchRestaurants(ctx context.Context, term string) ([]model.Restaurant, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, invalid(ErrInvalidQuery, "search term is required")
	}
	restaurants, err := s.restaurantRepo.SearchByName(ctx, term)
	if err != nil {
		return nil, unavailable("search restaurants", err)
	}
	return restaurants, nil
}

// GetRestaurant returns a single restaurant or ErrNotFound
func (s *Service) GetRestaurant(ctx context.Context, id string) (*model.Restaurant, error) {
	r, err := s.restaurantRepo.GetRestaurantByID(ctx, id)
	if err != nil {
		return nil, unavailable("get restaurant", err)
	}
	if r == nil {
		return nil, invalid(ErrNotFound, "restaurant not found")
	}
	return r, nil
}

// CreateRestaurant stores a new restaurant owned by userID
func (s *Service) CreateRestaurant(ctx context.Context, userID string, req model.RestaurantRequest) (*model.Restaurant, error) {
	switch {
	case strings.TrimSpace(req.Name) == "":
		return nil, invalid(ErrValidation, "name is required")
	case strings.TrimSpace(req.Address) == "":
		return nil, invalid(ErrValidation, "address is required")
	case strings.TrimSpace(req.Cuisine) == "":
		return nil, invalid(ErrValidation, "cuisine is required")
	}
	if err := validateDetails(req); err != nil {
		return nil, err
	}

	r := &model.Restaurant{
		Name:     req.Name,
		Address:  req.Address,
		Cuisine:  req.Cuisine,
		Images:   model.StringList(req.Images),
		Location: normalizePoint(req.Location),
		OwnerID:  userID,
		Menu:     req.Menu,
		Reviews:  []model.Review{},
	}
	if r.Menu == nil {
		r.Menu = []model.MenuItem{}
	}
	if err := s.restaurantRepo.CreateRestaurant(ctx, r); err != nil {
		return nil, unavailable("create restaurant", err)
	}
	return r, nil
}

// UpdateRestaurant applies the non-empty fields of req. Only the owner may
// update a restaurant.
func (s *Service) UpdateRestaurant(ctx context.Context, userID, id string, req model.RestaurantRequest) (*model.Restaurant, error) {
	r, err := s.ownedRestaurant(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := validateDetails(req); err != nil {
		return nil, err
	}

	if req.Name != "" {
		r.Name = req.Name
	}
	if req.Address != "" {
		r.Address = req.Address
	}
	if req.Cuisine != "" {
		r.Cuisine = req.Cuisine
	}
	if req.Location != nil {
		r.Location = normalizePoint(req.Location)
	}
	if req.Images != nil {
		r.Images = model.StringList(req.Images)
	}
	if err := s.restaurantRepo.UpdateRestaurant(ctx, r); err != nil {
		return nil, unavailable("update restaurant", err)
	}
	if req.Menu != nil {
		if err := s.restaurantRepo.ReplaceMenu(ctx, r.ID, req.Menu); err != nil {
			return nil, unavailable("replace menu", err)
		}
		r.Menu = req.Menu
	}
	return r, nil
}

// DeleteRestaurant removes a restaurant owned by userID
func (s *Service) DeleteRestaurant(ctx context.Context, userID, id string) error {
	if _, err := s.ownedRestaurant(ctx, userID, id); err != nil {
		return err
	}
	if err := s.restaurantRepo.DeleteRestaurant(ctx, id); err != nil {
		return unavailable("delete restaurant", err)
	}
	return nil
}

// AddReview records a rating and returns the restaurant's reviews, newest first
func (s *Service) AddReview(ctx context.Context, userID, id string, req model.ReviewRequest) ([]model.Review, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return nil, invalid(ErrValidation, "rating must be between 1 and 5")
	}
	r, err := s.GetRestaurant(ctx, id)
	if err != nil {
		return nil, err
	}

	review := model.Review{RestaurantID: r.ID, UserID: userID, Rating: req.Rating, Comment: req.Comment}
	if err := s.restaurantRepo.AddReview(ctx, &review); err != nil {
		return nil, unavailable("add review", err)
	}
	return append([]model.Review{review}, r.Reviews...), nil
}

func (s *Service) ownedRestaurant(ctx context.Context, userID, id string) (*model.Restaurant, error) {
	r, err := s.GetRestaurant(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.OwnerID != userID {
		return nil, ErrForbidden
	}
	return r, nil
}

func validateDetails(req model.RestaurantRequest) error {
	if req.Location != nil {
		if err := req.Location.Validate(); err != nil {
			return invalid(ErrValidation, err.Error())
		}
	}
	for _, item := range req.Menu {
		if err := item.Validate(); err != nil {
			return invalid(ErrValidation, err.Error())
		}
	}
	return nil
}

func normalizePoint(p *model.GeoPoint) *model.GeoPoint {
	if p == nil {
		return nil
	}
	loc, ok := p.Location()
	if !ok {
		return nil
	}
	return model.NewGeoPoint(loc)
}
