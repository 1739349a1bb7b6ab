package service

import (
	"context"

	"github.com/alexivanou/foodmap-api/internal/model"
	"github.com/stretchr/testify/mock"
)

// MockRestaurantRepository implements repository.RestaurantRepository interface
type MockRestaurantRepository struct {
	mock.Mock
}

func (m *MockRestaurantRepository) ListRestaurants(ctx context.Context) ([]model.Restaurant, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Restaurant), args.Error(1)
}

func (m *MockRestaurantRepository) FindNear(ctx context.Context, q model.ProximityQuery) ([]model.Restaurant, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Restaurant), args.Error(1)
}

func (m *MockRestaurantRepository) SearchByName(ctx context.Context, term string) ([]model.Restaurant, error) {
	args := m.Called(ctx, term)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Restaurant), args.Error(1)
}

func (m *MockRestaurantRepository) GetRestaurantByID(ctx context.Context, id string) (*model.Restaurant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Restaurant), args.Error(1)
}

func (m *MockRestaurantRepository) GetMenuItem(ctx context.Context, restaurantID, itemID string) (*model.MenuItem, error) {
	args := m.Called(ctx, restaurantID, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.MenuItem), args.Error(1)
}

func (m *MockRestaurantRepository) CreateRestaurant(ctx context.Context, r *model.Restaurant) error {
	return m.Called(ctx, r).Error(0)
}

func (m *MockRestaurantRepository) UpdateRestaurant(ctx context.Context, r *model.Restaurant) error {
	return m.Called(ctx, r).Error(0)
}

func (m *MockRestaurantRepository) ReplaceMenu(ctx context.Context, restaurantID string, menu []model.MenuItem) error {
	return m.Called(ctx, restaurantID, menu).Error(0)
}

func (m *MockRestaurantRepository) DeleteRestaurant(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockRestaurantRepository) AddReview(ctx context.Context, review *model.Review) error {
	return m.Called(ctx, review).Error(0)
}

func (m *MockRestaurantRepository) BulkInsertRestaurants(ctx context.Context, restaurants []model.Restaurant) error {
	return m.Called(ctx, restaurants).Error(0)
}

// MockUserRepository implements repository.UserRepository interface
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) CreateUser(ctx context.Context, u *model.User) error {
	return m.Called(ctx, u).Error(0)
}

func (m *MockUserRepository) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) UpdateProfile(ctx context.Context, id, name, phone string) error {
	return m.Called(ctx, id, name, phone).Error(0)
}

func (m *MockUserRepository) UpdatePreferences(ctx context.Context, id string, prefs model.Preferences) error {
	return m.Called(ctx, id, prefs).Error(0)
}

func (m *MockUserRepository) ReplaceAddresses(ctx context.Context, userID string, addresses []model.Address) error {
	return m.Called(ctx, userID, addresses).Error(0)
}

// MockOrderRepository implements repository.OrderRepository interface
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) CreateOrder(ctx context.Context, o *model.Order) error {
	return m.Called(ctx, o).Error(0)
}

func (m *MockOrderRepository) ListOrdersByUser(ctx context.Context, userID string) ([]model.Order, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Order), args.Error(1)
}

type mocks struct {
	restaurants *MockRestaurantRepository
	users       *MockUserRepository
	orders      *MockOrderRepository
}

func newTestService() (*Service, mocks) {
	m := mocks{
		restaurants: new(MockRestaurantRepository),
		users:       new(MockUserRepository),
		orders:      new(MockOrderRepository),
	}
	return NewService(m.restaurants, m.users, m.orders, nil), m
}
