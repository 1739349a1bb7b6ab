// Package discovery drives the "restaurants near me" view: it resolves a
// reference point, queries the proximity service, re-filters the
// candidates by exact great-circle distance and reconciles the map's
// marker set with the result.
package discovery

import (
	"context"
	"errors"
	"time"

	"github.com/alexivanou/foodmap-api/internal/config"
	"github.com/alexivanou/foodmap-api/internal/geo"
	"github.com/alexivanou/foodmap-api/internal/model"
)

var (
	// ErrGeolocationDenied means no device position could be obtained.
	// The controller masks it by using the default reference point.
	ErrGeolocationDenied = errors.New("geolocation denied")
	// ErrMapNotReady means the map was still initializing when the
	// context ended. It is never shown to the user.
	ErrMapNotReady = errors.New("map not ready")
	// ErrSuperseded is returned to callers whose query was replaced by a
	// newer one before it finished.
	ErrSuperseded = errors.New("query superseded")
	// ErrClosed is returned by a controller after Close.
	ErrClosed = errors.New("controller closed")
)

// State of the discovery view
type State int

const (
	Idle State = iota
	LocatingUser
	Querying
	Rendering
	Ready
	Error
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case LocatingUser:
		return "locating_user"
	case Querying:
		return "querying"
	case Rendering:
		return "rendering"
	case Ready:
		return "ready"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalText renders the state name in JSON and YAML output
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Finder is the proximity query service as seen by the view
type Finder interface {
	FindNear(ctx context.Context, q model.ProximityQuery) ([]model.Restaurant, error)
	All(ctx context.Context) ([]model.Restaurant, error)
	Search(ctx context.Context, term string) ([]model.Restaurant, error)
}

// PositionOptions bound a position request
type PositionOptions struct {
	// Timeout is the longest the controller waits for a position
	Timeout time.Duration
	// MaximumAge is how old a cached position may be and still be used
	MaximumAge time.Duration
}

// Position is a located fix
type Position struct {
	Location  geo.Location
	Timestamp time.Time
}

// Locator provides the device position
type Locator interface {
	CurrentPosition(ctx context.Context, opts PositionOptions) (Position, error)
}

// MapView is the map widget. Ready is closed once the widget can accept
// marker operations; the controller never calls the other methods before.
type MapView interface {
	Ready() <-chan struct{}
	ClearMarkers()
	SetCenterMarker(loc geo.Location)
	AddMarker(m Marker)
	FitToMarkers()
}

// Options tune the controller
type Options struct {
	RadiusMeters float64
	// DefaultPoint is used when no position can be obtained
	DefaultPoint geo.Location
	Position     PositionOptions
	// Debounce delays the query after SetRadius; the last radius wins
	Debounce time.Duration
	// ShowAllWhenEmpty renders every candidate when none is within the
	// radius but the service returned some
	ShowAllWhenEmpty bool
}

// DefaultOptions returns the stock discovery settings
func DefaultOptions() Options {
	return Options{
		RadiusMeters: 10000,
		DefaultPoint: geo.Location{Lat: 28.6139, Lng: 77.2090},
		Position: PositionOptions{
			Timeout:    20 * time.Second,
			MaximumAge: 60 * time.Second,
		},
		Debounce:         300 * time.Millisecond,
		ShowAllWhenEmpty: true,
	}
}

// OptionsFromConfig maps the environment configuration onto Options
func OptionsFromConfig(cfg config.DiscoveryConfig) Options {
	opts := DefaultOptions()
	if cfg.RadiusMeters > 0 {
		opts.RadiusMeters = cfg.RadiusMeters
	}
	def := geo.Location{Lat: cfg.DefaultLat, Lng: cfg.DefaultLng}
	if def.Validate() == nil && (def.Lat != 0 || def.Lng != 0) {
		opts.DefaultPoint = def
	}
	if cfg.GeoTimeout > 0 {
		opts.Position.Timeout = cfg.GeoTimeout
	}
	if cfg.GeoMaxAge > 0 {
		opts.Position.MaximumAge = cfg.GeoMaxAge
	}
	if cfg.Debounce > 0 {
		opts.Debounce = cfg.Debounce
	}
	opts.ShowAllWhenEmpty = cfg.ShowAllWhenEmpty
	return opts
}

// Snapshot is the observable view state
type Snapshot struct {
	State     State        `json:"state" yaml:"state"`
	Reference geo.Location `json:"reference" yaml:"reference"`
	// Located is false when Reference is the default point
	Located      bool               `json:"located" yaml:"located"`
	RadiusMeters float64            `json:"radius_meters" yaml:"radius_meters"`
	Restaurants  []model.Restaurant `json:"restaurants" yaml:"-"`
	Markers      []Marker           `json:"markers" yaml:"markers"`
	// Candidates is how many restaurants the service returned
	Candidates int `json:"candidates" yaml:"candidates"`
	// FellBack is set when the radius filter emptied the set and all
	// candidates are shown instead
	FellBack bool `json:"fell_back" yaml:"fell_back"`
	// Degraded is set when the proximity query failed and every
	// restaurant was loaded instead
	Degraded   bool   `json:"degraded" yaml:"degraded"`
	Message    string `json:"message,omitempty" yaml:"message,omitempty"`
	Generation uint64 `json:"generation" yaml:"generation"`
}
