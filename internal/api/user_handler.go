package api

import (
	"net/http"

	"github.com/alexivanou/foodmap-api/internal/model"
	"github.com/gorilla/mux"
)

// CreateUser handles POST /api/users
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req model.CreateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	user, err := h.service.CreateUser(r.Context(), UserID(r.Context()), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, user)
}

// GetProfile handles GET /api/users/profile
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.GetProfile(r.Context(), UserID(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, user)
}

// UpdateProfile handles PUT /api/users/profile
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	user, err := h.service.UpdateProfile(r.Context(), UserID(r.Context()), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, user)
}

// UpdatePreferences handles PUT /api/users/preferences
func (h *Handler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	var prefs model.Preferences
	if err := decodeJSON(w, r, &prefs); err != nil {
		h.writeError(w, r, err)
		return
	}
	user, err := h.service.UpdatePreferences(r.Context(), UserID(r.Context()), prefs)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, user)
}

// AddAddress handles POST /api/users/addresses
func (h *Handler) AddAddress(w http.ResponseWriter, r *http.Request) {
	var addr model.Address
	if err := decodeJSON(w, r, &addr); err != nil {
		h.writeError(w, r, err)
		return
	}
	user, err := h.service.AddAddress(r.Context(), UserID(r.Context()), addr)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, user)
}

// UpdateAddress handles PUT /api/users/addresses/{addressId}
func (h *Handler) UpdateAddress(w http.ResponseWriter, r *http.Request) {
	var addr model.Address
	if err := decodeJSON(w, r, &addr); err != nil {
		h.writeError(w, r, err)
		return
	}
	user, err := h.service.UpdateAddress(r.Context(), UserID(r.Context()), mux.Vars(r)["addressId"], addr)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, user)
}

// DeleteAddress handles DELETE /api/users/addresses/{addressId}
func (h *Handler) DeleteAddress(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.DeleteAddress(r.Context(), UserID(r.Context()), mux.Vars(r)["addressId"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, user)
}

// SetDefaultAddress handles PUT /api/users/addresses/{addressId}/default
func (h *Handler) SetDefaultAddress(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.SetDefaultAddress(r.Context(), UserID(r.Context()), mux.Vars(r)["addressId"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, user)
}
