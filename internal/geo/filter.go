package geo

import (
	"math"
	"sort"
)

// Locatable is anything that may carry a location. Entities that report
// ok == false are never considered within any radius.
type Locatable interface {
	GeoLocation() (loc Location, ok bool)
}

// FilterWithinRadius keeps the candidates whose location lies within
// radiusMeters of center. Input order is preserved.
func FilterWithinRadius[T Locatable](center Location, candidates []T, radiusMeters float64) []T {
	out := make([]T, 0, len(candidates))
	for _, c := range candidates {
		loc, ok := c.GeoLocation()
		if !ok {
			continue
		}
		if Haversine(center, loc) <= radiusMeters {
			out = append(out, c)
		}
	}
	return out
}

// Located drops candidates without a location.
func Located[T Locatable](candidates []T) []T {
	out := make([]T, 0, len(candidates))
	for _, c := range candidates {
		if _, ok := c.GeoLocation(); ok {
			out = append(out, c)
		}
	}
	return out
}

// SortByDistance orders items by ascending distance from center. Items
// without a location sort last. The sort is stable.
func SortByDistance[T Locatable](center Location, items []T) {
	dist := func(t T) float64 {
		loc, ok := t.GeoLocation()
		if !ok {
			return math.Inf(1)
		}
		return Haversine(center, loc)
	}
	sort.SliceStable(items, func(i, j int) bool {
		return dist(items[i]) < dist(items[j])
	})
}

// Bounds is a lat/lng rectangle. MinLng may be greater than 180 or less
// than -180 when a box built around a point crosses the antimeridian; use
// Split before querying storage.
type Bounds struct {
	MinLat float64 `json:"min_lat" yaml:"min_lat"`
	MinLng float64 `json:"min_lng" yaml:"min_lng"`
	MaxLat float64 `json:"max_lat" yaml:"max_lat"`
	MaxLng float64 `json:"max_lng" yaml:"max_lng"`
}

// BoundingBox returns a rectangle that contains every point within
// radiusMeters of center.
func BoundingBox(center Location, radiusMeters float64) Bounds {
	latDelta := (radiusMeters / EarthRadiusMeters) * 180 / math.Pi
	b := Bounds{
		MinLat: math.Max(center.Lat-latDelta, -90),
		MaxLat: math.Min(center.Lat+latDelta, 90),
	}

	// Near the poles or for huge radii every longitude is reachable.
	cosLat := math.Cos(center.Lat * math.Pi / 180)
	if b.MinLat == -90 || b.MaxLat == 90 || cosLat < 1e-9 {
		b.MinLng, b.MaxLng = -180, 180
		return b
	}
	lngDelta := latDelta / cosLat
	if lngDelta >= 180 {
		b.MinLng, b.MaxLng = -180, 180
		return b
	}
	b.MinLng = center.Lng - lngDelta
	b.MaxLng = center.Lng + lngDelta
	return b
}

// Split normalizes b into one or two boxes within [-180, 180] longitude.
func (b Bounds) Split() []Bounds {
	switch {
	case b.MinLng < -180:
		return []Bounds{
			{MinLat: b.MinLat, MaxLat: b.MaxLat, MinLng: -180, MaxLng: b.MaxLng},
			{MinLat: b.MinLat, MaxLat: b.MaxLat, MinLng: b.MinLng + 360, MaxLng: 180},
		}
	case b.MaxLng > 180:
		return []Bounds{
			{MinLat: b.MinLat, MaxLat: b.MaxLat, MinLng: b.MinLng, MaxLng: 180},
			{MinLat: b.MinLat, MaxLat: b.MaxLat, MinLng: -180, MaxLng: b.MaxLng - 360},
		}
	default:
		return []Bounds{b}
	}
}

// Contains reports whether loc lies inside b (inclusive).
func (b Bounds) Contains(loc Location) bool {
	return loc.Lat >= b.MinLat && loc.Lat <= b.MaxLat &&
		loc.Lng >= b.MinLng && loc.Lng <= b.MaxLng
}

// BoundsOf returns the smallest rectangle containing all points.
// ok is false when points is empty.
func BoundsOf(points []Location) (b Bounds, ok bool) {
	if len(points) == 0 {
		return Bounds{}, false
	}
	b = Bounds{MinLat: points[0].Lat, MaxLat: points[0].Lat, MinLng: points[0].Lng, MaxLng: points[0].Lng}
	for _, p := range points[1:] {
		b.MinLat = math.Min(b.MinLat, p.Lat)
		b.MaxLat = math.Max(b.MaxLat, p.Lat)
		b.MinLng = math.Min(b.MinLng, p.Lng)
		b.MaxLng = math.Max(b.MaxLng, p.Lng)
	}
	return b, true
}

// Pad grows b by ratio of its height and width on every side. Latitudes
// stop at the poles; longitudes may pass ±180 as in BoundingBox.
func (b Bounds) Pad(ratio float64) Bounds {
	dLat := (b.MaxLat - b.MinLat) * ratio
	dLng := (b.MaxLng - b.MinLng) * ratio
	return Bounds{
		MinLat: math.Max(b.MinLat-dLat, -90),
		MaxLat: math.Min(b.MaxLat+dLat, 90),
		MinLng: b.MinLng - dLng,
		MaxLng: b.MaxLng + dLng,
	}
}

// Center returns the midpoint of b.
func (b Bounds) Center() Location {
	return Location{Lat: (b.MinLat + b.MaxLat) / 2, Lng: (b.MinLng + b.MaxLng) / 2}
}
