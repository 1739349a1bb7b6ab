package service

import (
	"context"
	"errors"
	"strings"

	"github.com/alexivanou/foodmap-api/internal/model"
	"github.com/alexivanou/foodmap-api/internal/repository"
)

// CreateUser registers the profile of an authenticated user
func (s *Service) CreateUser(ctx context.Context, userID string, req model.CreateUserRequest) (*model.User, error) {
	switch {
	case strings.TrimSpace(req.Name) == "":
		return nil, invalid(ErrValidation, "name is required")
	case !strings.Contains(req.Email, "@"):
		return nil, invalid(ErrValidation, "a valid email is required")
	}

	u := &model.User{
		ID:          userID,
		Name:        req.Name,
		Email:       strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:       req.Phone,
		Role:        model.RoleUser,
		Addresses:   []model.Address{},
		Preferences: model.DefaultPreferences(),
	}
	if err := s.userRepo.CreateUser(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, invalid(ErrValidation, "user already exists")
		}
		return nil, unavailable("create user", err)
	}
	return u, nil
}

// GetProfile returns the user with addresses and preferences
func (s *Service) GetProfile(ctx context.Context, userID string) (*model.User, error) {
	u, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, unavailable("get user", err)
	}
	if u == nil {
		return nil, invalid(ErrNotFound, "user not found")
	}
	return u, nil
}

// UpdateProfile sets name and phone
func (s *Service) UpdateProfile(ctx context.Context, userID string, req model.UpdateProfileRequest) (*model.User, error) {
	u, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, invalid(ErrValidation, "name is required")
	}
	if err := s.userRepo.UpdateProfile(ctx, userID, req.Name, req.Phone); err != nil {
		return nil, unavailable("update profile", err)
	}
	u.Name, u.Phone = req.Name, req.Phone
	return u, nil
}

// UpdatePreferences replaces the user's preferences
func (s *Service) UpdatePreferences(ctx context.Context, userID string, prefs model.Preferences) (*model.User, error) {
	u, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if prefs.Cuisine == nil {
		prefs.Cuisine = []string{}
	}
	if prefs.DietaryRestrictions == nil {
		prefs.DietaryRestrictions = []string{}
	}
	if err := s.userRepo.UpdatePreferences(ctx, userID, prefs); err != nil {
		return nil, unavailable("update preferences", err)
	}
	u.Preferences = prefs
	return u, nil
}

// AddAddress appends an address. The first address becomes the default and
// a new default address clears the flag on the others.
func (s *Service) AddAddress(ctx context.Context, userID string, addr model.Address) (*model.User, error) {
	if err := addr.Validate(); err != nil {
		return nil, invalid(ErrValidation, err.Error())
	}
	u, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	addr.ID = ""
	if len(u.Addresses) == 0 {
		addr.IsDefault = true
	}
	u.Addresses = append(u.Addresses, addr)
	if addr.IsDefault {
		markDefault(u.Addresses, len(u.Addresses)-1)
	}
	return s.saveAddresses(ctx, u)
}

// UpdateAddress replaces the fields of an existing address
func (s *Service) UpdateAddress(ctx context.Context, userID, addressID string, addr model.Address) (*model.User, error) {
	if err := addr.Validate(); err != nil {
		return nil, invalid(ErrValidation, err.Error())
	}
	u, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	i := findAddress(u.Addresses, addressID)
	if i < 0 {
		return nil, invalid(ErrNotFound, "address not found")
	}

	addr.ID = addressID
	u.Addresses[i] = addr
	if addr.IsDefault {
		markDefault(u.Addresses, i)
	}
	ensureDefault(u.Addresses)
	return s.saveAddresses(ctx, u)
}

// DeleteAddress removes an address; if it was the default the first
// remaining address is promoted.
func (s *Service) DeleteAddress(ctx context.Context, userID, addressID string) (*model.User, error) {
	u, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	i := findAddress(u.Addresses, addressID)
	if i < 0 {
		return nil, invalid(ErrNotFound, "address not found")
	}

	u.Addresses = append(u.Addresses[:i], u.Addresses[i+1:]...)
	ensureDefault(u.Addresses)
	return s.saveAddresses(ctx, u)
}

// SetDefaultAddress makes addressID the only default address
func (s *Service) SetDefaultAddress(ctx context.Context, userID, addressID string) (*model.User, error) {
	u, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	i := findAddress(u.Addresses, addressID)
	if i < 0 {
		return nil, invalid(ErrNotFound, "address not found")
	}
	markDefault(u.Addresses, i)
	return s.saveAddresses(ctx, u)
}

func (s *Service) saveAddresses(ctx context.Context, u *model.User) (*model.User, error) {
	if err := s.userRepo.ReplaceAddresses(ctx, u.ID, u.Addresses); err != nil {
		return nil, unavailable("save addresses", err)
	}
	return u, nil
}

func findAddress(addrs []model.Address, id string) int {
	for i := range addrs {
		if addrs[i].ID == id {
			return i
		}
	}
	return -1
}

func markDefault(addrs []model.Address, idx int) {
	for i := range addrs {
		addrs[i].IsDefault = i == idx
	}
}

// ensureDefault keeps exactly one default while any address exists
func ensureDefault(addrs []model.Address) {
	if len(addrs) == 0 {
		return
	}
	for i := range addrs {
		if addrs[i].IsDefault {
			markDefault(addrs, i)
			return
		}
	}
	addrs[0].IsDefault = true
}
