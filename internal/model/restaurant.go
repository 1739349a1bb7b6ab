package model

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/alexivanou/foodmap-api/internal/geo"
)

// GeoPoint is the GeoJSON representation of a location: coordinates are
// ordered [lng, lat].
type GeoPoint struct {
	Type        string    `json:"type" yaml:"type"`
	Coordinates []float64 `json:"coordinates" yaml:"coordinates"`
}

// NewGeoPoint builds a GeoJSON point from a location
func NewGeoPoint(loc geo.Location) *GeoPoint {
	return &GeoPoint{Type: "Point", Coordinates: []float64{loc.Lng, loc.Lat}}
}

// Location converts the point; ok is false for malformed coordinates
func (p *GeoPoint) Location() (geo.Location, bool) {
	if p == nil || len(p.Coordinates) != 2 {
		return geo.Location{}, false
	}
	return geo.Location{Lng: p.Coordinates[0], Lat: p.Coordinates[1]}, true
}

// Validate checks the GeoJSON shape and coordinate ranges
func (p *GeoPoint) Validate() error {
	if p.Type != "" && p.Type != "Point" {
		return fmt.Errorf("%w: location type must be Point", geo.ErrInvalidLocation)
	}
	loc, ok := p.Location()
	if !ok {
		return fmt.Errorf("%w: coordinates must be [lng, lat]", geo.ErrInvalidLocation)
	}
	return loc.Validate()
}

// Restaurant represents a restaurant in the directory
type Restaurant struct {
	ID      string     `json:"id" db:"id"`
	Name    string     `json:"name" db:"name"`
	Address string     `json:"address" db:"address"`
	Cuisine string     `json:"cuisine" db:"cuisine"`
	Images  StringList `json:"images" db:"images"`
	// Location is nil for restaurants that were never placed on the map
	Location *GeoPoint  `json:"location,omitempty" db:"-"`
	OwnerID  string     `json:"owner,omitempty" db:"owner_id"`
	Menu     []MenuItem `json:"menu" db:"-"`
	Reviews  []Review   `json:"reviews" db:"-"`
	Date     time.Time  `json:"date" db:"created_at"`
	// DistanceMeters is set on proximity results only
	DistanceMeters *float64 `json:"distance_meters,omitempty" db:"-"`
}

// GeoLocation implements geo.Locatable
func (r Restaurant) GeoLocation() (geo.Location, bool) {
	return r.Location.Location()
}

// AverageRating returns the mean review rating rounded to one decimal
func (r Restaurant) AverageRating() float64 {
	if len(r.Reviews) == 0 {
		return 0
	}
	sum := 0
	for _, rv := range r.Reviews {
		sum += rv.Rating
	}
	return math.Round(float64(sum)/float64(len(r.Reviews))*10) / 10
}

// MenuItem is a dish offered by a restaurant
type MenuItem struct {
	ID           string  `json:"id" db:"id" yaml:"id,omitempty"`
	RestaurantID string  `json:"-" db:"restaurant_id" yaml:"-"`
	Position     int     `json:"-" db:"position" yaml:"-"`
	Name         string  `json:"name" db:"name" yaml:"name"`
	Description  string  `json:"description" db:"description" yaml:"description"`
	Price        float64 `json:"price" db:"price" yaml:"price"`
	Category     string  `json:"category" db:"category" yaml:"category"`
}

// Validate checks required menu item fields
func (m MenuItem) Validate() error {
	switch {
	case m.Name == "":
		return errors.New("menu item name is required")
	case m.Description == "":
		return errors.New("menu item description is required")
	case m.Category == "":
		return errors.New("menu item category is required")
	case m.Price < 0 || math.IsNaN(m.Price) || math.IsInf(m.Price, 0):
		return fmt.Errorf("menu item %q has an invalid price", m.Name)
	}
	return nil
}

// Review is a user rating of a restaurant
type Review struct {
	ID           string    `json:"id" db:"id"`
	RestaurantID string    `json:"-" db:"restaurant_id"`
	UserID       string    `json:"user" db:"user_id"`
	Rating       int       `json:"rating" db:"rating"`
	Comment      string    `json:"comment" db:"comment"`
	Date         time.Time `json:"date" db:"created_at"`
}

// ProximityQuery asks for entities within MaxDistanceMeters of ReferencePoint
type ProximityQuery struct {
	ReferencePoint    geo.Location
	MaxDistanceMeters float64
	// Limit caps the result count; 0 means unbounded
	Limit int
}

// ErrInvalidDistance is returned for non-positive or non-finite radii
var ErrInvalidDistance = errors.New("maxDistance must be a positive finite number")

// Validate checks the reference point and radius
func (q ProximityQuery) Validate() error {
	if err := q.ReferencePoint.Validate(); err != nil {
		return err
	}
	if math.IsNaN(q.MaxDistanceMeters) || math.IsInf(q.MaxDistanceMeters, 0) || q.MaxDistanceMeters <= 0 {
		return ErrInvalidDistance
	}
	if q.Limit < 0 {
		return errors.New("limit must not be negative")
	}
	return nil
}
