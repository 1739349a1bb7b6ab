// Package mapview is a terminal map: it keeps the markers placed by the
// discovery controller and prints them as a table, JSON or YAML.
package mapview

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"text/tabwriter"

	"github.com/alexivanou/foodmap-api/internal/discovery"
	"github.com/alexivanou/foodmap-api/internal/geo"
	"gopkg.in/yaml.v3"
)

// viewportPadding grows the fitted bounds on every side
const viewportPadding = 0.1

// Format represents output encoding.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ParseFormat validates format values.
func ParseFormat(v string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(v))) {
	case "", FormatTable:
		return FormatTable, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatYAML:
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported format %q", v)
	}
}

// Map implements discovery.MapView
type Map struct {
	ready     chan struct{}
	readyOnce sync.Once

	mu       sync.Mutex
	center   *geo.Location
	order    []string
	markers  map[string]discovery.Marker
	viewport *geo.Bounds
	dropped  int
}

var _ discovery.MapView = (*Map)(nil)

// New creates a map that is not ready until Init completes
func New() *Map {
	return &Map{
		ready:   make(chan struct{}),
		markers: make(map[string]discovery.Marker),
	}
}

// Init runs setup in the background and marks the map ready when it
// succeeds. The returned channel yields setup's error, if any.
func (m *Map) Init(ctx context.Context, setup func(context.Context) error) <-chan error {
	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		if setup != nil {
			if err := setup(ctx); err != nil {
				errc <- fmt.Errorf("initialize map: %w", err)
				return
			}
		}
		m.readyOnce.Do(func() { close(m.ready) })
	}()
	return errc
}

// Ready is closed once the map accepts marker operations
func (m *Map) Ready() <-chan struct{} {
	return m.ready
}

func (m *Map) isReady() bool {
	select {
	case <-m.ready:
		return true
	default:
		return false
	}
}

// ClearMarkers removes every marker and the viewport
func (m *Map) ClearMarkers() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.isReady() {
		m.dropped++
		return
	}
	m.center = nil
	m.order = nil
	m.markers = make(map[string]discovery.Marker)
	m.viewport = nil
}

// SetCenterMarker places the reference-point marker
func (m *Map) SetCenterMarker(loc geo.Location) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.isReady() {
		m.dropped++
		return
	}
	m.center = &loc
}

// AddMarker adds or replaces the marker with the same id
func (m *Map) AddMarker(mk discovery.Marker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.isReady() {
		m.dropped++
		return
	}
	if _, ok := m.markers[mk.ID]; !ok {
		m.order = append(m.order, mk.ID)
	}
	m.markers[mk.ID] = mk
}

// FitToMarkers sets the viewport to the padded bounds of all markers
func (m *Map) FitToMarkers() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.isReady() {
		m.dropped++
		return
	}
	points := make([]geo.Location, 0, len(m.order)+1)
	if m.center != nil {
		points = append(points, *m.center)
	}
	for _, id := range m.order {
		points = append(points, m.markers[id].Location)
	}
	b, ok := geo.BoundsOf(points)
	if !ok {
		m.viewport = nil
		return
	}
	padded := b.Pad(viewportPadding)
	m.viewport = &padded
}

// Markers returns the placed markers in insertion order
func (m *Map) Markers() []discovery.Marker {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]discovery.Marker, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.markers[id])
	}
	return out
}

// Center returns the reference-point marker
func (m *Map) Center() (geo.Location, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.center == nil {
		return geo.Location{}, false
	}
	return *m.center, true
}

// Viewport returns the bounds set by the last FitToMarkers
func (m *Map) Viewport() (geo.Bounds, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.viewport == nil {
		return geo.Bounds{}, false
	}
	return *m.viewport, true
}

// Dropped counts operations received before the map was ready
func (m *Map) Dropped() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dropped
}

// view is the serialized form of the map
type view struct {
	Center   *geo.Location      `json:"center,omitempty" yaml:"center,omitempty"`
	Viewport *geo.Bounds        `json:"viewport,omitempty" yaml:"viewport,omitempty"`
	Markers  []discovery.Marker `json:"markers" yaml:"markers"`
}

func (m *Map) view() view {
	v := view{Markers: m.Markers()}
	if c, ok := m.Center(); ok {
		v.Center = &c
	}
	if b, ok := m.Viewport(); ok {
		v.Viewport = &b
	}
	return v
}

// Render writes the map to w
func (m *Map) Render(w io.Writer, format Format) error {
	v := m.view()
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("marshal json: %w", err)
		}
		return nil
	case FormatYAML:
		bytes, err := yaml.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshal yaml: %w", err)
		}
		_, err = w.Write(bytes)
		return err
	case FormatTable, "":
		return renderTable(w, v)
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}

func renderTable(w io.Writer, v view) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if v.Center != nil {
		fmt.Fprintf(tw, "You are here:\t%s\n", v.Center)
	}
	if v.Viewport != nil {
		fmt.Fprintf(tw, "Viewport:\t(%.4f, %.4f) - (%.4f, %.4f)\n",
			v.Viewport.MinLat, v.Viewport.MinLng, v.Viewport.MaxLat, v.Viewport.MaxLng)
	}
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "#\tNAME\tDISTANCE\tLAT\tLNG")
	for i, mk := range v.Markers {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%.6f\t%.6f\n", i+1, mk.Label, FormatDistance(mk.DistanceMeters), mk.Location.Lat, mk.Location.Lng)
	}
	if len(v.Markers) == 0 {
		fmt.Fprintln(tw, "-\tno restaurants\t\t\t")
	}
	return tw.Flush()
}

// FormatDistance prints meters below 1 km and kilometers above
func FormatDistance(meters float64) string {
	if meters < 1000 {
		return fmt.Sprintf("%.0f m", meters)
	}
	return fmt.Sprintf("%.1f km", meters/1000)
}
