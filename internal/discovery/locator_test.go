package discovery

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alexivanou/foodmap-api/internal/config"
	"github.com/alexivanou/foodmap-api/internal/geo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingLocator struct {
	calls int
	loc   geo.Location
	err   error
}

func (l *countingLocator) CurrentPosition(context.Context, PositionOptions) (Position, error) {
	l.calls++
	if l.err != nil {
		return Position{}, l.err
	}
	return Position{Location: l.loc}, nil
}

func TestCachedLocator_HonoursMaximumAge(t *testing.T) {
	source := &countingLocator{loc: himayatnagar}
	cached := NewCachedLocator(source)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	cached.now = func() time.Time { return now }
	opts := PositionOptions{MaximumAge: time.Minute}

	pos, err := cached.CurrentPosition(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, himayatnagar, pos.Location)
	assert.Equal(t, now, pos.Timestamp)

	now = now.Add(59 * time.Second)
	_, err = cached.CurrentPosition(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, 1, source.calls)

	now = now.Add(2 * time.Second)
	_, err = cached.CurrentPosition(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, 2, source.calls)

	_, err = cached.CurrentPosition(context.Background(), PositionOptions{})
	require.NoError(t, err)
	assert.Equal(t, 3, source.calls, "zero MaximumAge always asks the source")
}

func TestCachedLocator_ErrorsAreNotCached(t *testing.T) {
	source := &countingLocator{err: ErrGeolocationDenied}
	cached := NewCachedLocator(source)
	opts := PositionOptions{MaximumAge: time.Minute}

	_, err := cached.CurrentPosition(context.Background(), opts)
	assert.ErrorIs(t, err, ErrGeolocationDenied)
	_, err = cached.CurrentPosition(context.Background(), opts)
	assert.ErrorIs(t, err, ErrGeolocationDenied)
	assert.Equal(t, 2, source.calls)
}

type geocoderFunc func(ctx context.Context, address string) (geo.Location, error)

func (f geocoderFunc) Get(ctx context.Context, address string) (geo.Location, error) {
	return f(ctx, address)
}

func TestAddressLocator(t *testing.T) {
	l := AddressLocator{
		Address: "Himayatnagar, Hyderabad",
		Geocoder: geocoderFunc(func(_ context.Context, address string) (geo.Location, error) {
			assert.Equal(t, "Himayatnagar, Hyderabad", address)
			return himayatnagar, nil
		}),
	}
	pos, err := l.CurrentPosition(context.Background(), PositionOptions{})
	require.NoError(t, err)
	assert.Equal(t, himayatnagar, pos.Location)

	lookupErr := errors.New("no match")
	l.Geocoder = geocoderFunc(func(context.Context, string) (geo.Location, error) {
		return geo.Location{}, lookupErr
	})
	_, err = l.CurrentPosition(context.Background(), PositionOptions{})
	assert.ErrorIs(t, err, ErrGeolocationDenied)
	assert.ErrorIs(t, err, lookupErr)
}

func TestFixedLocator_InvalidPoint(t *testing.T) {
	_, err := FixedLocator{Location: geo.Location{Lat: 91}}.CurrentPosition(context.Background(), PositionOptions{})
	assert.ErrorIs(t, err, ErrGeolocationDenied)
}

func TestLocate_RejectsOutOfRangeFix(t *testing.T) {
	bad := LocatorFunc(func(context.Context, PositionOptions) (Position, error) {
		return Position{Location: geo.Location{Lng: 200}}, nil
	})
	_, err := locate(context.Background(), bad, PositionOptions{Timeout: time.Second})
	assert.ErrorIs(t, err, ErrGeolocationDenied)
}

func TestOptionsFromConfig(t *testing.T) {
	opts := OptionsFromConfig(config.DiscoveryConfig{
		RadiusMeters:     2500,
		DefaultLat:       17.4239,
		DefaultLng:       78.4738,
		GeoTimeout:       5 * time.Second,
		GeoMaxAge:        30 * time.Second,
		Debounce:         100 * time.Millisecond,
		ShowAllWhenEmpty: false,
	})
	assert.Equal(t, 2500.0, opts.RadiusMeters)
	assert.Equal(t, himayatnagar, opts.DefaultPoint)
	assert.Equal(t, 5*time.Second, opts.Position.Timeout)
	assert.Equal(t, 30*time.Second, opts.Position.MaximumAge)
	assert.Equal(t, 100*time.Millisecond, opts.Debounce)
	assert.False(t, opts.ShowAllWhenEmpty)

	defaults := OptionsFromConfig(config.DiscoveryConfig{DefaultLat: 123, ShowAllWhenEmpty: true})
	assert.Equal(t, DefaultOptions(), defaults)
}

func TestMarkerSet(t *testing.T) {
	s := NewMarkerSet()
	_, ok := s.Center()
	assert.False(t, ok)

	s.SetCenter(himayatnagar)
	assert.True(t, s.Add(Marker{ID: "a", Label: "A"}))
	assert.True(t, s.Add(Marker{ID: "b", Label: "B"}))
	assert.False(t, s.Add(Marker{ID: "a", Label: "A again"}))
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, "A", s.Markers()[0].Label)

	center, ok := s.Center()
	require.True(t, ok)
	assert.Equal(t, himayatnagar, center)

	s.Clear()
	assert.Equal(t, 0, s.Len())
	_, ok = s.Center()
	assert.False(t, ok)
	assert.True(t, s.Add(Marker{ID: "a"}))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "locating_user", LocatingUser.String())
	b, err := Ready.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "ready", string(b))
}
