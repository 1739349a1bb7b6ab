package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alexivanou/foodmap-api/internal/client"
	"github.com/alexivanou/foodmap-api/internal/config"
	"github.com/alexivanou/foodmap-api/internal/discovery"
	"github.com/alexivanou/foodmap-api/internal/geo"
	"github.com/alexivanou/foodmap-api/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var restaurants = []model.Restaurant{
	{ID: "ps", Name: "PS Cheese Cafe", Location: model.NewGeoPoint(geo.Location{Lng: 78.397324, Lat: 17.441384})},
	{ID: "mirosa", Name: "Mirosa", Location: model.NewGeoPoint(geo.Location{Lng: 78.474838, Lat: 17.395436})},
}

type geocoderFunc func(ctx context.Context, address string) (geo.Location, error)

func (f geocoderFunc) Get(ctx context.Context, address string) (geo.Location, error) {
	return f(ctx, address)
}

func testDeps(t *testing.T, handler http.HandlerFunc) (dependencies, string) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return dependencies{
		config: config.DiscoveryConfig{
			APIBaseURL:       server.URL + "/api",
			RadiusMeters:     10000,
			DefaultLat:       28.6139,
			DefaultLng:       77.2090,
			ShowAllWhenEmpty: true,
		},
		newFinder: func(baseURL string, opts ...client.Option) discovery.Finder {
			return client.New(baseURL, append(opts, client.WithRetryDelay(time.Millisecond))...)
		},
		geocoder: geocoderFunc(func(context.Context, string) (geo.Location, error) {
			return geo.Location{Lat: 17.4239, Lng: 78.4738}, nil
		}),
	}, server.URL
}

func execute(t *testing.T, deps dependencies, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand(deps)
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

type rendered struct {
	Center  geo.Location       `json:"center"`
	Markers []discovery.Marker `json:"markers"`
}

func TestDiscover_NearbyFromCoordinates(t *testing.T) {
	deps, _ := testDeps(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/restaurants/nearby", r.URL.Path)
		assert.Equal(t, "15000", r.URL.Query().Get("maxDistance"))
		_ = json.NewEncoder(w).Encode(restaurants)
	})

	out, stderr, err := execute(t, deps, "--lat", "17.4239", "--lng", "78.4738", "--radius", "15000", "--format", "json")
	require.NoError(t, err)
	assert.Empty(t, stderr)

	var got rendered
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, geo.Location{Lat: 17.4239, Lng: 78.4738}, got.Center)
	require.Len(t, got.Markers, 2)
	assert.Equal(t, "mirosa", got.Markers[0].ID)
	assert.Equal(t, "ps", got.Markers[1].ID)
}

func TestDiscover_AddressAndTable(t *testing.T) {
	deps, _ := testDeps(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "17.4239", r.URL.Query().Get("lat"))
		_ = json.NewEncoder(w).Encode(restaurants)
	})

	out, _, err := execute(t, deps, "--address", "Himayatnagar, Hyderabad", "-r", "15000")
	require.NoError(t, err)
	assert.Contains(t, out, "You are here:")
	assert.Contains(t, out, "Mirosa")
	assert.Contains(t, out, "PS Cheese Cafe")
}

func TestDiscover_DefaultPointAndFallback(t *testing.T) {
	deps, _ := testDeps(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "28.6139", r.URL.Query().Get("lat"))
		_ = json.NewEncoder(w).Encode(restaurants)
	})

	out, stderr, err := execute(t, deps, "-f", "json")
	require.NoError(t, err)
	assert.Contains(t, stderr, "using default point")
	assert.Contains(t, stderr, "showing all 2 results")

	var got rendered
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Len(t, got.Markers, 2)

	out, _, err = execute(t, deps, "-f", "json", "--no-fallback")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Empty(t, got.Markers)
}

func TestDiscover_DegradedShowsMessage(t *testing.T) {
	deps, _ := testDeps(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/restaurants/nearby" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(restaurants)
	})

	_, stderr, err := execute(t, deps, "--lat", "17.4239", "--lng", "78.4738")
	require.NoError(t, err)
	assert.Contains(t, stderr, "Invalid search area")
}

func TestDiscover_Search(t *testing.T) {
	deps, _ := testDeps(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/restaurants/search", r.URL.Path)
		assert.Equal(t, "mirosa", r.URL.Query().Get("q"))
		_ = json.NewEncoder(w).Encode(restaurants[1:])
	})

	out, _, err := execute(t, deps, "-q", "mirosa", "-f", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "label: Mirosa")
}

func TestDiscover_InvalidFlags(t *testing.T) {
	deps, _ := testDeps(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s", r.URL)
	})

	tests := []struct {
		name string
		args []string
	}{
		{"format", []string{"--format", "xml"}},
		{"lat without lng", []string{"--lat", "17"}},
		{"address with coordinates", []string{"--lat", "17", "--lng", "78", "--address", "x"}},
		{"out of range", []string{"--lat", "95", "--lng", "78"}},
		{"positional args", []string{"extra"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, deps, tt.args...)
			assert.Error(t, err)
		})
	}
}
