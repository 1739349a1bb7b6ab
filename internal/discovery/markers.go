package discovery

import (
	"github.com/alexivanou/foodmap-api/internal/geo"
	"github.com/alexivanou/foodmap-api/internal/model"
)

// Marker is one restaurant pin
type Marker struct {
	ID             string       `json:"id" yaml:"id"`
	Label          string       `json:"label" yaml:"label"`
	Location       geo.Location `json:"location" yaml:"location"`
	DistanceMeters float64      `json:"distance_meters" yaml:"distance_meters"`
}

// MarkerSet holds at most one marker per entity id plus a separate
// reference-point marker. Insertion order is kept.
type MarkerSet struct {
	center *geo.Location
	order  []string
	byID   map[string]Marker
}

// NewMarkerSet creates an empty set
func NewMarkerSet() *MarkerSet {
	return &MarkerSet{byID: make(map[string]Marker)}
}

// Clear drops every marker including the center
func (s *MarkerSet) Clear() {
	s.center = nil
	s.order = s.order[:0]
	clear(s.byID)
}

// SetCenter places the reference-point marker
func (s *MarkerSet) SetCenter(loc geo.Location) {
	s.center = &loc
}

// Center returns the reference-point marker
func (s *MarkerSet) Center() (geo.Location, bool) {
	if s.center == nil {
		return geo.Location{}, false
	}
	return *s.center, true
}

// Add inserts m; it reports false when a marker with the same id exists
func (s *MarkerSet) Add(m Marker) bool {
	if _, ok := s.byID[m.ID]; ok {
		return false
	}
	s.byID[m.ID] = m
	s.order = append(s.order, m.ID)
	return true
}

// Len returns the number of entity markers
func (s *MarkerSet) Len() int {
	return len(s.order)
}

// Markers returns the entity markers in insertion order
func (s *MarkerSet) Markers() []Marker {
	out := make([]Marker, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out
}

// MarkerFor builds the pin for a restaurant; ok is false when it has no location
func MarkerFor(center geo.Location, r model.Restaurant) (Marker, bool) {
	loc, ok := r.GeoLocation()
	if !ok {
		return Marker{}, false
	}
	return Marker{
		ID:             r.ID,
		Label:          r.Name,
		Location:       loc,
		DistanceMeters: geo.Haversine(center, loc),
	}, true
}

// FilterForDisplay keeps the restaurants within radiusMeters of center,
// nearest first, with DistanceMeters set. When nothing is within the
// radius but candidates is not empty and showAllWhenEmpty is set, every
// candidate is returned instead and fellBack is true.
func FilterForDisplay(center geo.Location, candidates []model.Restaurant, radiusMeters float64, showAllWhenEmpty bool) (out []model.Restaurant, fellBack bool) {
	out = geo.FilterWithinRadius(center, candidates, radiusMeters)
	if len(out) == 0 && len(candidates) > 0 && showAllWhenEmpty {
		out = append([]model.Restaurant(nil), candidates...)
		fellBack = true
	}
	withDistances(center, out)
	geo.SortByDistance(center, out)
	return out, fellBack
}

func withDistances(center geo.Location, rs []model.Restaurant) {
	for i := range rs {
		if loc, ok := rs[i].GeoLocation(); ok {
			d := geo.Haversine(center, loc)
			rs[i].DistanceMeters = &d
		}
	}
}
