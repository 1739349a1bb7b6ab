package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/alexivanou/foodmap-api/internal/geo"
	"github.com/alexivanou/foodmap-api/internal/model"
	"github.com/alexivanou/foodmap-api/internal/service"
	"github.com/gorilla/mux"
)

// ListRestaurants handles GET /api/restaurants
func (h *Handler) ListRestaurants(w http.ResponseWriter, r *http.Request) {
	restaurants, err := h.service.ListRestaurants(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeRestaurants(w, restaurants)
}

// FindNearby handles GET /api/restaurants/nearby
func (h *Handler) FindNearby(w http.ResponseWriter, r *http.Request) {
	q, err := parseProximityQuery(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	restaurants, err := h.service.FindNearby(r.Context(), q)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeRestaurants(w, restaurants)
}

// parseProximityQuery reads lng, lat, maxDistance and the optional limit
func parseProximityQuery(r *http.Request) (model.ProximityQuery, error) {
	values := r.URL.Query()
	var q model.ProximityQuery

	parse := func(name string) (float64, error) {
		raw := values.Get(name)
		if raw == "" {
			return 0, fmt.Errorf("%w: parameter '%s' is required", service.ErrInvalidQuery, name)
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: invalid %s parameter", service.ErrInvalidQuery, name)
		}
		return v, nil
	}

	lng, err := parse("lng")
	if err != nil {
		return q, err
	}
	lat, err := parse("lat")
	if err != nil {
		return q, err
	}
	maxDistance, err := parse("maxDistance")
	if err != nil {
		return q, err
	}

	q.ReferencePoint = geo.Location{Lng: lng, Lat: lat}
	q.MaxDistanceMeters = maxDistance

	if raw := values.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return q, fmt.Errorf("%w: invalid limit parameter", service.ErrInvalidQuery)
		}
		q.Limit = limit
	}
	return q, nil
}

// SearchRestaurants handles GET /api/restaurants/search
func (h *Handler) SearchRestaurants(w http.ResponseWriter, r *http.Request) {
	restaurants, err := h.service.SearchRestaurants(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeRestaurants(w, restaurants)
}

// GetRestaurant handles GET /api/restaurants/{id}
func (h *Handler) GetRestaurant(w http.ResponseWriter, r *http.Request) {
	restaurant, err := h.service.GetRestaurant(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, restaurant)
}

// CreateRestaurant handles POST /api/restaurants
func (h *Handler) CreateRestaurant(w http.ResponseWriter, r *http.Request) {
	var req model.RestaurantRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	restaurant, err := h.service.CreateRestaurant(r.Context(), UserID(r.Context()), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, restaurant)
}

// UpdateRestaurant handles PUT /api/restaurants/{id}
func (h *Handler) UpdateRestaurant(w http.ResponseWriter, r *http.Request) {
	var req model.RestaurantRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	restaurant, err := h.service.UpdateRestaurant(r.Context(), UserID(r.Context()), mux.Vars(r)["id"], req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, restaurant)
}

// DeleteRestaurant handles DELETE /api/restaurants/{id}
func (h *Handler) DeleteRestaurant(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteRestaurant(r.Context(), UserID(r.Context()), mux.Vars(r)["id"]); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, message("Restaurant removed"))
}

// AddReview handles POST /api/restaurants/{id}/reviews
func (h *Handler) AddReview(w http.ResponseWriter, r *http.Request) {
	var req model.ReviewRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	reviews, err := h.service.AddReview(r.Context(), UserID(r.Context()), mux.Vars(r)["id"], req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, reviews)
}

func (h *Handler) writeRestaurants(w http.ResponseWriter, restaurants []model.Restaurant) {
	if restaurants == nil {
		restaurants = []model.Restaurant{}
	}
	h.writeJSON(w, http.StatusOK, restaurants)
}
