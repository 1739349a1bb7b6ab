// Package geo holds the geographic primitives shared by the proximity
// query service and the discovery client: WGS-84 points, great-circle
// distance, radius filtering, bounding boxes and an R-tree point index.
package geo

import (
	"errors"
	"fmt"
	"math"
)

// EarthRadiusMeters is the mean Earth radius used for haversine distances.
const EarthRadiusMeters = 6371000.0

// ErrInvalidLocation is returned when a coordinate is outside WGS-84 ranges.
var ErrInvalidLocation = errors.New("invalid location")

// Location is a geographic point in degrees.
type Location struct {
	Lng float64 `json:"lng" yaml:"lng"`
	Lat float64 `json:"lat" yaml:"lat"`
}

// Validate checks that the point is finite and inside lng [-180,180], lat [-90,90].
func (l Location) Validate() error {
	if math.IsNaN(l.Lng) || math.IsInf(l.Lng, 0) || math.IsNaN(l.Lat) || math.IsInf(l.Lat, 0) {
		return fmt.Errorf("%w: coordinates must be finite numbers", ErrInvalidLocation)
	}
	if l.Lng < -180 || l.Lng > 180 {
		return fmt.Errorf("%w: longitude %v out of range [-180, 180]", ErrInvalidLocation, l.Lng)
	}
	if l.Lat < -90 || l.Lat > 90 {
		return fmt.Errorf("%w: latitude %v out of range [-90, 90]", ErrInvalidLocation, l.Lat)
	}
	return nil
}

func (l Location) String() string {
	return fmt.Sprintf("(%.6f, %.6f)", l.Lat, l.Lng)
}

// Haversine returns the great-circle distance between a and b in meters.
func Haversine(a, b Location) float64 {
	phi1 := a.Lat * math.Pi / 180
	phi2 := b.Lat * math.Pi / 180
	dPhi := (b.Lat - a.Lat) * math.Pi / 180
	dLambda := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return EarthRadiusMeters * c
}
