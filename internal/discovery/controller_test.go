package discovery

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/alexivanou/foodmap-api/internal/geo"
	"github.com/alexivanou/foodmap-api/internal/model"
	"github.com/alexivanou/foodmap-api/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	himayatnagar = geo.Location{Lat: 17.4239, Lng: 78.4738}

	psCheese = model.Restaurant{ID: "ps", Name: "PS Cheese Cafe",
		Location: model.NewGeoPoint(geo.Location{Lng: 78.397324, Lat: 17.441384})}
	mirosa = model.Restaurant{ID: "mirosa", Name: "Mirosa Cafe & Kitchen",
		Location: model.NewGeoPoint(geo.Location{Lng: 78.474838, Lat: 17.395436})}
	eraBistro = model.Restaurant{ID: "era", Name: "Era Bistro",
		Location: model.NewGeoPoint(geo.Location{Lng: 78.4086, Lat: 17.4316})}
	ghostKitchen = model.Restaurant{ID: "ghost", Name: "Ghost Kitchen"}
)

type fakeFinder struct {
	mu        sync.Mutex
	near      func(ctx context.Context, call int, q model.ProximityQuery) ([]model.Restaurant, error)
	all       func(ctx context.Context) ([]model.Restaurant, error)
	search    func(ctx context.Context, term string) ([]model.Restaurant, error)
	nearCalls []model.ProximityQuery
	allCalls  int
	terms     []string
}

func (f *fakeFinder) FindNear(ctx context.Context, q model.ProximityQuery) ([]model.Restaurant, error) {
	f.mu.Lock()
	f.nearCalls = append(f.nearCalls, q)
	call := len(f.nearCalls)
	f.mu.Unlock()
	if f.near == nil {
		return nil, nil
	}
	return f.near(ctx, call, q)
}

func (f *fakeFinder) All(ctx context.Context) ([]model.Restaurant, error) {
	f.mu.Lock()
	f.allCalls++
	f.mu.Unlock()
	if f.all == nil {
		return nil, nil
	}
	return f.all(ctx)
}

func (f *fakeFinder) Search(ctx context.Context, term string) ([]model.Restaurant, error) {
	f.mu.Lock()
	f.terms = append(f.terms, term)
	f.mu.Unlock()
	if f.search == nil {
		return nil, nil
	}
	return f.search(ctx, term)
}

func (f *fakeFinder) queries() []model.ProximityQuery {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.ProximityQuery(nil), f.nearCalls...)
}

func (f *fakeFinder) allCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.allCalls
}

type fakeView struct {
	ready chan struct{}

	mu      sync.Mutex
	ops     []string
	center  *geo.Location
	markers []Marker
}

func newFakeView(ready bool) *fakeView {
	v := &fakeView{ready: make(chan struct{})}
	if ready {
		close(v.ready)
	}
	return v
}

func (v *fakeView) Ready() <-chan struct{} { return v.ready }

func (v *fakeView) ClearMarkers() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.ops = append(v.ops, "clear")
	v.center = nil
	v.markers = nil
}

func (v *fakeView) SetCenterMarker(loc geo.Location) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.ops = append(v.ops, "center")
	v.center = &loc
}

func (v *fakeView) AddMarker(m Marker) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.ops = append(v.ops, "add:"+m.ID)
	v.markers = append(v.markers, m)
}

func (v *fakeView) FitToMarkers() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.ops = append(v.ops, "fit")
}

func (v *fakeView) recorded() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]string(nil), v.ops...)
}

func (v *fakeView) markerIDs() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	ids := make([]string, 0, len(v.markers))
	for _, m := range v.markers {
		ids = append(ids, m.ID)
	}
	return ids
}

// stateLog records every state the controller reports
type stateLog struct {
	mu     sync.Mutex
	states []State
	snaps  chan Snapshot
}

func watch(c *Controller) *stateLog {
	l := &stateLog{snaps: make(chan Snapshot, 64)}
	c.OnChange(func(s Snapshot) {
		l.mu.Lock()
		l.states = append(l.states, s.State)
		l.mu.Unlock()
		l.snaps <- s
	})
	return l
}

func (l *stateLog) all() []State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]State(nil), l.states...)
}

func (l *stateLog) waitFor(t *testing.T, want State) Snapshot {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case s := <-l.snaps:
			if s.State == want {
				return s
			}
		case <-timeout:
			t.Fatalf("state %s not reached; saw %v", want, l.all())
		}
	}
}

func testOptions() Options {
	opts := DefaultOptions()
	opts.Position.Timeout = 50 * time.Millisecond
	opts.Debounce = 20 * time.Millisecond
	return opts
}

func markerIDs(ms []Marker) []string {
	ids := make([]string, 0, len(ms))
	for _, m := range ms {
		ids = append(ids, m.ID)
	}
	return ids
}

func TestFilterForDisplay_Scenarios(t *testing.T) {
	tests := []struct {
		name         string
		radius       float64
		showAll      bool
		candidates   []model.Restaurant
		wantIDs      []string
		wantFellBack bool
	}{
		{name: "9.4km away excluded at 5km", radius: 5000, candidates: []model.Restaurant{psCheese}, wantIDs: []string{}},
		{name: "9.4km away included at 15km", radius: 15000, candidates: []model.Restaurant{psCheese}, wantIDs: []string{"ps"}},
		{name: "fallback shows everything", radius: 5000, showAll: true, candidates: []model.Restaurant{psCheese}, wantIDs: []string{"ps"}, wantFellBack: true},
		{name: "no fallback for empty input", radius: 5000, showAll: true, candidates: nil, wantIDs: []string{}},
		{
			name:       "nearest first, unlocated dropped",
			radius:     15000,
			candidates: []model.Restaurant{psCheese, ghostKitchen, eraBistro, mirosa},
			wantIDs:    []string{"mirosa", "era", "ps"},
		},
		{
			name:       "unlocated excluded at infinite radius",
			radius:     math.Inf(1),
			candidates: []model.Restaurant{ghostKitchen, psCheese},
			wantIDs:    []string{"ps"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, fellBack := FilterForDisplay(himayatnagar, tt.candidates, tt.radius, tt.showAll)
			ids := make([]string, 0, len(got))
			for _, r := range got {
				ids = append(ids, r.ID)
				require.NotNil(t, r.DistanceMeters)
			}
			assert.Equal(t, tt.wantIDs, ids)
			assert.Equal(t, tt.wantFellBack, fellBack)
		})
	}
}

func TestFilterForDisplay_DoesNotMutateInput(t *testing.T) {
	candidates := []model.Restaurant{psCheese, mirosa}
	_, _ = FilterForDisplay(himayatnagar, candidates, 15000, true)
	assert.Equal(t, "ps", candidates[0].ID)
	assert.Nil(t, candidates[0].DistanceMeters)
}

func TestController_Activate_UsesDevicePosition(t *testing.T) {
	finder := &fakeFinder{near: func(context.Context, int, model.ProximityQuery) ([]model.Restaurant, error) {
		return []model.Restaurant{psCheese, mirosa, ghostKitchen}, nil
	}}
	view := newFakeView(true)
	c := New(finder, FixedLocator{Location: himayatnagar}, view, testOptions(), nil)
	log := watch(c)

	require.NoError(t, c.Activate(context.Background()))

	snap := c.Snapshot()
	assert.Equal(t, Ready, snap.State)
	assert.True(t, snap.Located)
	assert.Equal(t, himayatnagar, snap.Reference)
	assert.Equal(t, 3, snap.Candidates)
	assert.False(t, snap.FellBack)
	assert.Empty(t, snap.Message)
	assert.Equal(t, []string{"mirosa", "ps"}, markerIDs(snap.Markers))
	assert.InDelta(t, 3167, snap.Markers[0].DistanceMeters, 5)

	assert.Equal(t, []string{"clear", "center", "add:mirosa", "add:ps", "fit"}, view.recorded())
	assert.Equal(t, []State{LocatingUser, Querying, Rendering, Ready}, log.all())

	queries := finder.queries()
	require.Len(t, queries, 1)
	assert.Equal(t, himayatnagar, queries[0].ReferencePoint)
	assert.Equal(t, 10000.0, queries[0].MaxDistanceMeters)
}

func TestController_Activate_GeolocationDenied(t *testing.T) {
	finder := &fakeFinder{}
	c := New(finder, nil, newFakeView(true), testOptions(), nil)

	require.NoError(t, c.Activate(context.Background()))

	snap := c.Snapshot()
	assert.Equal(t, Ready, snap.State)
	assert.False(t, snap.Located)
	assert.Empty(t, snap.Message)
	assert.Equal(t, geo.Location{Lat: 28.6139, Lng: 77.2090}, snap.Reference)
	require.Len(t, finder.queries(), 1)
	assert.Equal(t, snap.Reference, finder.queries()[0].ReferencePoint)
}

func TestController_Activate_LocatorTimeout(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	slow := LocatorFunc(func(context.Context, PositionOptions) (Position, error) {
		<-block
		return Position{Location: himayatnagar}, nil
	})

	finder := &fakeFinder{}
	c := New(finder, slow, newFakeView(true), testOptions(), nil)

	start := time.Now()
	require.NoError(t, c.Activate(context.Background()))
	assert.Less(t, time.Since(start), time.Second)

	snap := c.Snapshot()
	assert.False(t, snap.Located)
	assert.Equal(t, DefaultOptions().DefaultPoint, snap.Reference)
}

func TestController_QueryFailure_FallsBackToAll(t *testing.T) {
	finder := &fakeFinder{
		near: func(context.Context, int, model.ProximityQuery) ([]model.Restaurant, error) {
			return nil, fmt.Errorf("find near: %w", service.ErrServiceUnavailable)
		},
		all: func(context.Context) ([]model.Restaurant, error) {
			return []model.Restaurant{psCheese, ghostKitchen, mirosa}, nil
		},
	}
	c := New(finder, FixedLocator{Location: himayatnagar}, newFakeView(true), testOptions(), nil)
	log := watch(c)

	require.NoError(t, c.Activate(context.Background()))

	snap := c.Snapshot()
	assert.Equal(t, Ready, snap.State)
	assert.True(t, snap.Degraded)
	assert.Equal(t, msgLoadFailed, snap.Message)
	assert.Len(t, snap.Restaurants, 3)
	assert.Equal(t, []string{"ps", "mirosa"}, markerIDs(snap.Markers))
	assert.Equal(t, []State{LocatingUser, Querying, Error, Rendering, Ready}, log.all())
	assert.Equal(t, 1, finder.allCount())
}

func TestController_QueryAndFallbackFailure(t *testing.T) {
	nearErr := fmt.Errorf("find near: %w", service.ErrServiceUnavailable)
	allErr := errors.New("connection refused")
	finder := &fakeFinder{
		near: func(context.Context, int, model.ProximityQuery) ([]model.Restaurant, error) { return nil, nearErr },
		all:  func(context.Context) ([]model.Restaurant, error) { return nil, allErr },
	}
	view := newFakeView(true)
	c := New(finder, nil, view, testOptions(), nil)

	err := c.Activate(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, service.ErrServiceUnavailable))
	assert.True(t, errors.Is(err, allErr))

	snap := c.Snapshot()
	assert.Equal(t, Error, snap.State)
	assert.Equal(t, msgUnreachable, snap.Message)
	assert.Empty(t, view.recorded())
}

func TestController_InvalidQueryMessage(t *testing.T) {
	finder := &fakeFinder{
		near: func(context.Context, int, model.ProximityQuery) ([]model.Restaurant, error) {
			return nil, fmt.Errorf("%w: maxDistance must be positive", service.ErrInvalidQuery)
		},
		all: func(context.Context) ([]model.Restaurant, error) { return []model.Restaurant{mirosa}, nil },
	}
	c := New(finder, nil, newFakeView(true), testOptions(), nil)

	require.NoError(t, c.Refresh(context.Background()))
	assert.Equal(t, msgInvalidQuery, c.Snapshot().Message)
}

func TestController_MapNotReady_DeferredUntilReady(t *testing.T) {
	finder := &fakeFinder{near: func(context.Context, int, model.ProximityQuery) ([]model.Restaurant, error) {
		return []model.Restaurant{mirosa, eraBistro, psCheese}, nil
	}}
	view := newFakeView(false)
	c := New(finder, FixedLocator{Location: himayatnagar}, view, testOptions(), nil)
	log := watch(c)

	done := make(chan error, 1)
	go func() { done <- c.Activate(context.Background()) }()

	log.waitFor(t, Rendering)
	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, view.recorded(), "no marker operations before the map is ready")
	assert.Equal(t, Rendering, c.Snapshot().State)

	close(view.ready)
	require.NoError(t, <-done)

	assert.Equal(t, []string{"mirosa", "era", "ps"}, view.markerIDs())
	assert.Equal(t, Ready, c.Snapshot().State)
}

func TestController_MapNotReady_ContextEnds(t *testing.T) {
	c := New(&fakeFinder{}, nil, newFakeView(false), testOptions(), nil)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	err := c.Refresh(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMapNotReady))
	assert.Empty(t, c.Snapshot().Message)
}

func TestController_StaleQueryIgnored(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	finder := &fakeFinder{near: func(_ context.Context, call int, _ model.ProximityQuery) ([]model.Restaurant, error) {
		if call == 1 {
			close(started)
			// Ignores cancellation and answers late
			<-release
			return []model.Restaurant{psCheese}, nil
		}
		return []model.Restaurant{mirosa}, nil
	}}
	view := newFakeView(true)
	opts := testOptions()
	opts.RadiusMeters = 15000
	opts.DefaultPoint = himayatnagar
	c := New(finder, nil, view, opts, nil)

	first := make(chan error, 1)
	go func() { first <- c.Refresh(context.Background()) }()
	<-started

	require.NoError(t, c.Refresh(context.Background()))
	assert.Equal(t, []string{"mirosa"}, view.markerIDs())

	close(release)
	assert.ErrorIs(t, <-first, ErrSuperseded)

	snap := c.Snapshot()
	assert.Equal(t, Ready, snap.State)
	assert.Equal(t, []string{"mirosa"}, markerIDs(snap.Markers))
	assert.Equal(t, []string{"mirosa"}, view.markerIDs())
	assert.Equal(t, uint64(2), snap.Generation)
}

func TestController_StaleQueryCancelled(t *testing.T) {
	cancelled := make(chan struct{})
	finder := &fakeFinder{near: func(ctx context.Context, call int, _ model.ProximityQuery) ([]model.Restaurant, error) {
		if call == 1 {
			<-ctx.Done()
			close(cancelled)
			return nil, ctx.Err()
		}
		return []model.Restaurant{mirosa}, nil
	}}
	c := New(finder, nil, newFakeView(true), testOptions(), nil)

	first := make(chan error, 1)
	go func() { first <- c.Refresh(context.Background()) }()
	require.Eventually(t, func() bool { return len(finder.queries()) == 1 }, time.Second, time.Millisecond)

	require.NoError(t, c.Refresh(context.Background()))
	<-cancelled
	assert.ErrorIs(t, <-first, ErrSuperseded)
	assert.Equal(t, 0, finder.allCount(), "a superseded query must not take the fallback path")
}

func TestController_SetRadius_Debounced(t *testing.T) {
	finder := &fakeFinder{}
	c := New(finder, nil, newFakeView(true), testOptions(), nil)
	defer c.Close()
	log := watch(c)

	require.NoError(t, c.SetRadius(1000))
	require.NoError(t, c.SetRadius(2000))
	require.NoError(t, c.SetRadius(15000))

	snap := log.waitFor(t, Ready)
	assert.Equal(t, 15000.0, snap.RadiusMeters)

	time.Sleep(60 * time.Millisecond)
	queries := finder.queries()
	require.Len(t, queries, 1)
	assert.Equal(t, 15000.0, queries[0].MaxDistanceMeters)
}

func TestController_SetRadius_Invalid(t *testing.T) {
	c := New(&fakeFinder{}, nil, newFakeView(true), testOptions(), nil)
	defer c.Close()

	for _, r := range []float64{0, -5, math.NaN(), math.Inf(1)} {
		err := c.SetRadius(r)
		assert.ErrorIs(t, err, service.ErrInvalidQuery, "radius %v", r)
	}
	assert.Equal(t, 10000.0, c.Snapshot().RadiusMeters)
}

func TestController_Close_StopsPendingQuery(t *testing.T) {
	finder := &fakeFinder{}
	c := New(finder, nil, newFakeView(true), testOptions(), nil)

	require.NoError(t, c.SetRadius(5000))
	c.Close()

	time.Sleep(60 * time.Millisecond)
	assert.Empty(t, finder.queries())
}

func TestController_DeadlineIsNotAnOutage(t *testing.T) {
	finder := &fakeFinder{near: func(ctx context.Context, _ int, _ model.ProximityQuery) ([]model.Restaurant, error) {
		<-ctx.Done()
		return nil, fmt.Errorf("failed after 1 attempts: %w", ctx.Err())
	}}
	c := New(finder, nil, newFakeView(true), testOptions(), nil)
	defer c.Close()
	log := watch(c)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	err := c.Refresh(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Zero(t, finder.allCount())

	snap := c.Snapshot()
	assert.Equal(t, Idle, snap.State)
	assert.Empty(t, snap.Message)
	assert.NotContains(t, log.all(), Error)
}

func TestController_CancelledFallbackKeepsEarlierMarkers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	finder := &fakeFinder{
		near: func(_ context.Context, call int, _ model.ProximityQuery) ([]model.Restaurant, error) {
			if call == 1 {
				return []model.Restaurant{mirosa}, nil
			}
			return nil, errors.New("boom")
		},
		all: func(context.Context) ([]model.Restaurant, error) {
			cancel()
			return nil, context.Canceled
		},
	}
	opts := testOptions()
	opts.DefaultPoint = himayatnagar
	c := New(finder, nil, newFakeView(true), opts, nil)
	defer c.Close()

	require.NoError(t, c.Refresh(context.Background()))

	err := c.Refresh(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	snap := c.Snapshot()
	assert.Equal(t, Ready, snap.State)
	assert.Empty(t, snap.Message)
	assert.Equal(t, []string{"mirosa"}, markerIDs(snap.Markers))
}

func TestController_ClosedControllerStaysPut(t *testing.T) {
	finder := &fakeFinder{}
	c := New(finder, nil, newFakeView(true), testOptions(), nil)
	c.Close()

	assert.ErrorIs(t, c.SetRadius(5000), ErrClosed)
	assert.ErrorIs(t, c.Refresh(context.Background()), ErrClosed)
	assert.ErrorIs(t, c.Activate(context.Background()), ErrClosed)
	assert.ErrorIs(t, c.Search(context.Background(), "cafe"), ErrClosed)

	time.Sleep(60 * time.Millisecond)
	snap := c.Snapshot()
	assert.Equal(t, Idle, snap.State)
	assert.Equal(t, 10000.0, snap.RadiusMeters)
	assert.Empty(t, finder.queries())
}

func TestController_Search(t *testing.T) {
	finder := &fakeFinder{search: func(_ context.Context, term string) ([]model.Restaurant, error) {
		return []model.Restaurant{ghostKitchen, eraBistro}, nil
	}}
	c := New(finder, nil, newFakeView(true), testOptions(), nil)

	require.NoError(t, c.Search(context.Background(), "  bistro "))

	snap := c.Snapshot()
	assert.Equal(t, Ready, snap.State)
	assert.Len(t, snap.Restaurants, 2)
	// Era Bistro is ~1250 km from the default point; search ignores the radius
	assert.Equal(t, []string{"era"}, markerIDs(snap.Markers))
	assert.Equal(t, []string{"bistro"}, finder.terms)
	assert.Empty(t, finder.queries())
}

func TestController_Search_Errors(t *testing.T) {
	finder := &fakeFinder{search: func(context.Context, string) ([]model.Restaurant, error) {
		return nil, service.ErrServiceUnavailable
	}}
	c := New(finder, nil, newFakeView(true), testOptions(), nil)

	assert.ErrorIs(t, c.Search(context.Background(), " "), service.ErrInvalidQuery)
	assert.Empty(t, finder.terms)

	err := c.Search(context.Background(), "cafe")
	assert.ErrorIs(t, err, service.ErrServiceUnavailable)
	snap := c.Snapshot()
	assert.Equal(t, Error, snap.State)
	assert.Equal(t, msgSearchFailed, snap.Message)
	assert.Equal(t, 0, finder.allCount())
}

func TestController_DuplicateIDsProduceOneMarker(t *testing.T) {
	finder := &fakeFinder{near: func(context.Context, int, model.ProximityQuery) ([]model.Restaurant, error) {
		return []model.Restaurant{mirosa, mirosa}, nil
	}}
	view := newFakeView(true)
	c := New(finder, FixedLocator{Location: himayatnagar}, view, testOptions(), nil)

	require.NoError(t, c.Activate(context.Background()))
	assert.Equal(t, []string{"mirosa"}, view.markerIDs())
}

func TestController_RerenderClearsPreviousMarkers(t *testing.T) {
	finder := &fakeFinder{near: func(_ context.Context, call int, _ model.ProximityQuery) ([]model.Restaurant, error) {
		if call == 1 {
			return []model.Restaurant{mirosa, psCheese}, nil
		}
		return []model.Restaurant{eraBistro}, nil
	}}
	view := newFakeView(true)
	c := New(finder, FixedLocator{Location: himayatnagar}, view, testOptions(), nil)

	require.NoError(t, c.Activate(context.Background()))
	require.NoError(t, c.Refresh(context.Background()))

	assert.Equal(t, []string{"era"}, view.markerIDs())
	assert.Equal(t, []string{"era"}, markerIDs(c.Snapshot().Markers))
}

func TestController_OnChangeUnsubscribe(t *testing.T) {
	c := New(&fakeFinder{}, nil, newFakeView(true), testOptions(), nil)
	calls := 0
	cancel := c.OnChange(func(Snapshot) { calls++ })

	require.NoError(t, c.Refresh(context.Background()))
	seen := calls
	assert.Positive(t, seen)

	cancel()
	require.NoError(t, c.Refresh(context.Background()))
	assert.Equal(t, seen, calls)
}
