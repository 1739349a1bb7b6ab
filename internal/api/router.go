package api

import (
	"net/http"

	"github.com/alexivanou/foodmap-api/internal/service"
	"github.com/alexivanou/foodmap-api/internal/stats"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// NewRouter creates a new HTTP router
func NewRouter(service service.ServiceInterface, statsCollector *stats.Collector, logger *zap.Logger) *mux.Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	handler := NewHandler(service, logger)
	statsHandler := NewStatsHandler(statsCollector, logger)
	auth := func(fn http.HandlerFunc) http.Handler { return RequireUser(fn) }

	router := mux.NewRouter()
	router.Use(RequestLogger(logger))

	// Health check
	router.HandleFunc("/health", handler.HealthCheck).Methods("GET")

	api := router.PathPrefix("/api").Subrouter()

	// Restaurants; fixed paths come before {id}
	api.HandleFunc("/restaurants", handler.ListRestaurants).Methods("GET")
	api.HandleFunc("/restaurants/nearby", handler.FindNearby).Methods("GET")
	api.HandleFunc("/restaurants/search", handler.SearchRestaurants).Methods("GET")
	api.HandleFunc("/restaurants/{id}", handler.GetRestaurant).Methods("GET")
	api.Handle("/restaurants", auth(handler.CreateRestaurant)).Methods("POST")
	api.Handle("/restaurants/{id}", auth(handler.UpdateRestaurant)).Methods("PUT")
	api.Handle("/restaurants/{id}", auth(handler.DeleteRestaurant)).Methods("DELETE")
	api.Handle("/restaurants/{id}/reviews", auth(handler.AddReview)).Methods("POST")

	// Orders
	api.Handle("/orders", auth(handler.CreateOrder)).Methods("POST")
	api.Handle("/orders", auth(handler.ListOrders)).Methods("GET")

	// Users
	api.Handle("/users", auth(handler.CreateUser)).Methods("POST")
	api.Handle("/users/profile", auth(handler.GetProfile)).Methods("GET")
	api.Handle("/users/profile", auth(handler.UpdateProfile)).Methods("PUT")
	api.Handle("/users/preferences", auth(handler.UpdatePreferences)).Methods("PUT")
	api.Handle("/users/addresses", auth(handler.AddAddress)).Methods("POST")
	api.Handle("/users/addresses/{addressId}", auth(handler.UpdateAddress)).Methods("PUT")
	api.Handle("/users/addresses/{addressId}", auth(handler.DeleteAddress)).Methods("DELETE")
	api.Handle("/users/addresses/{addressId}/default", auth(handler.SetDefaultAddress)).Methods("PUT")

	// Cart
	api.Handle("/cart", auth(handler.GetCart)).Methods("GET")
	api.Handle("/cart", auth(handler.ClearCart)).Methods("DELETE")
	api.Handle("/cart/items", auth(handler.AddCartItem)).Methods("POST")
	api.Handle("/cart/items/{menuItemId}", auth(handler.RemoveCartItem)).Methods("DELETE")
	api.Handle("/cart/checkout", auth(handler.Checkout)).Methods("POST")

	if statsCollector != nil {
		api.HandleFunc("/stats", statsHandler.GetStats).Methods("GET")
	}

	return router
}
