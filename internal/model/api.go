package model

// RestaurantRequest is the body of create and update restaurant calls.
// On update, empty fields are left unchanged.
type RestaurantRequest struct {
	Name     string     `json:"name"`
	Address  string     `json:"address"`
	Cuisine  string     `json:"cuisine"`
	Location *GeoPoint  `json:"location,omitempty"`
	Images   []string   `json:"images,omitempty"`
	Menu     []MenuItem `json:"menu,omitempty"`
}

// ReviewRequest is the body of the add review call
type ReviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// CreateOrderRequest is the body of the create order call
type CreateOrderRequest struct {
	Restaurant string      `json:"restaurant"`
	Items      []OrderItem `json:"items"`
	Total      float64     `json:"total"`
}

// CreateUserRequest registers a profile for the authenticated user id
type CreateUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

// UpdateProfileRequest is the body of the update profile call
type UpdateProfileRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// CartItemRequest adds a menu item to the cart
type CartItemRequest struct {
	RestaurantID string `json:"restaurantId"`
	MenuItemID   string `json:"menuItemId"`
	Quantity     int    `json:"quantity"`
}

// MessageResponse is a plain acknowledgement
type MessageResponse struct {
	Msg string `json:"msg"`
}
