package model

import (
	"errors"
	"time"
)

// User roles
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Address types
const (
	AddressHome  = "home"
	AddressWork  = "work"
	AddressOther = "other"
)

// User is a customer profile. Credentials live in the upstream auth service.
type User struct {
	ID          string      `json:"id" db:"id"`
	Name        string      `json:"name" db:"name"`
	Email       string      `json:"email" db:"email"`
	Phone       string      `json:"phone,omitempty" db:"phone"`
	Role        string      `json:"role" db:"role"`
	Addresses   []Address   `json:"addresses" db:"-"`
	Preferences Preferences `json:"preferences" db:"preferences"`
	Date        time.Time   `json:"date" db:"created_at"`
}

// Address is a delivery address of a user
type Address struct {
	ID        string `json:"id" db:"id"`
	UserID    string `json:"-" db:"user_id"`
	Position  int    `json:"-" db:"position"`
	Street    string `json:"street" db:"street"`
	Area      string `json:"area" db:"area"`
	City      string `json:"city" db:"city"`
	State     string `json:"state" db:"state"`
	Pincode   string `json:"pincode" db:"pincode"`
	Landmark  string `json:"landmark,omitempty" db:"landmark"`
	Type      string `json:"type" db:"type"`
	IsDefault bool   `json:"isDefault" db:"is_default"`
}

// Validate checks required address fields and normalizes the type
func (a *Address) Validate() error {
	switch {
	case a.Street == "":
		return errors.New("street is required")
	case a.Area == "":
		return errors.New("area is required")
	case a.City == "":
		return errors.New("city is required")
	case a.State == "":
		return errors.New("state is required")
	case a.Pincode == "":
		return errors.New("pincode is required")
	}
	switch a.Type {
	case "":
		a.Type = AddressHome
	case AddressHome, AddressWork, AddressOther:
	default:
		return errors.New("address type must be one of home, work, other")
	}
	return nil
}

// NotificationSettings toggles notification channels
type NotificationSettings struct {
	Email bool `json:"email"`
	SMS   bool `json:"sms"`
	Push  bool `json:"push"`
}

// Preferences holds user food and notification preferences
type Preferences struct {
	Cuisine              []string             `json:"cuisine"`
	DietaryRestrictions  []string             `json:"dietaryRestrictions"`
	DeliveryInstructions string               `json:"deliveryInstructions,omitempty"`
	NotificationSettings NotificationSettings `json:"notificationSettings"`
}

// DefaultPreferences enables every notification channel
func DefaultPreferences() Preferences {
	return Preferences{
		Cuisine:              []string{},
		DietaryRestrictions:  []string{},
		NotificationSettings: NotificationSettings{Email: true, SMS: true, Push: true},
	}
}
