package discovery

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/alexivanou/foodmap-api/internal/geo"
	"github.com/alexivanou/foodmap-api/internal/model"
	"github.com/alexivanou/foodmap-api/internal/service"
	"go.uber.org/zap"
)

// User-visible messages
const (
	msgLoadFailed   = "Failed to load restaurants. Please try again."
	msgInvalidQuery = "Invalid search area. Please adjust the radius and try again."
	msgUnreachable  = "Unable to load restaurants. Please check your connection."
	msgSearchFailed = "Failed to search restaurants. Please try again."
)

// Controller owns the discovery view state and its marker set. All
// methods are safe for concurrent use; only the most recent query may
// change the markers or the state.
type Controller struct {
	finder  Finder
	locator Locator
	view    MapView
	opts    Options
	logger  *zap.Logger

	// ctx scopes debounced queries; cancelled by Close
	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	state       State
	reference   geo.Location
	located     bool
	radius      float64
	generation  uint64
	inflight    context.CancelFunc
	debounce    *time.Timer
	markers     *MarkerSet
	restaurants []model.Restaurant
	candidates  int
	fellBack    bool
	degraded    bool
	message     string
	listeners   map[int]func(Snapshot)
	nextID      int
	closed      bool
}

// New creates a controller. locator may be nil when the platform has no
// position source.
func New(finder Finder, locator Locator, view MapView, opts Options, logger *zap.Logger) *Controller {
	if locator == nil {
		locator = NoLocator
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.RadiusMeters <= 0 {
		opts.RadiusMeters = DefaultOptions().RadiusMeters
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		finder:    finder,
		locator:   locator,
		view:      view,
		opts:      opts,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
		state:     Idle,
		reference: opts.DefaultPoint,
		radius:    opts.RadiusMeters,
		markers:   NewMarkerSet(),
		listeners: make(map[int]func(Snapshot)),
	}
}

// OnChange registers fn for every state change. The returned func
// unregisters it.
func (c *Controller) OnChange(fn func(Snapshot)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.listeners, id)
	}
}

// Snapshot returns the current view state
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Activate resolves the reference point and runs the first proximity
// query. A missing or failing position source is not an error: the
// default point is used instead.
func (c *Controller) Activate(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	gen := c.bumpLocked()
	c.state = LocatingUser
	c.message = ""
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.emit(snap)

	pos, err := locate(ctx, c.locator, c.opts.Position)
	if ctx.Err() != nil {
		return c.abandon(gen, ctx.Err())
	}
	located := err == nil
	ref := pos.Location
	if err != nil {
		c.logger.Info("Using default reference point",
			zap.Stringer("point", c.opts.DefaultPoint),
			zap.Error(err),
		)
		ref = c.opts.DefaultPoint
	}

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return ErrSuperseded
	}
	c.reference = ref
	c.located = located
	c.mu.Unlock()

	return c.run(ctx, "", false)
}

// Refresh re-runs the proximity query for the current point and radius
func (c *Controller) Refresh(ctx context.Context) error {
	return c.run(ctx, "", false)
}

// Search shows the restaurants whose name matches term, without radius
// filtering.
func (c *Controller) Search(ctx context.Context, term string) error {
	term = strings.TrimSpace(term)
	if term == "" {
		return fmt.Errorf("%w: search term is required", service.ErrInvalidQuery)
	}
	return c.run(ctx, term, true)
}

// SetRadius changes the radius and schedules a query after the debounce
// delay. Calls within the delay collapse into one query for the last value.
func (c *Controller) SetRadius(radiusMeters float64) error {
	if radiusMeters <= 0 || math.IsNaN(radiusMeters) || math.IsInf(radiusMeters, 0) {
		return fmt.Errorf("%w: radius must be a positive number", service.ErrInvalidQuery)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	c.radius = radiusMeters
	if c.debounce != nil {
		c.debounce.Stop()
	}
	c.debounce = time.AfterFunc(c.opts.Debounce, func() {
		if err := c.Refresh(c.ctx); err != nil && !errors.Is(err, ErrSuperseded) && !errors.Is(err, context.Canceled) {
			c.logger.Warn("Debounced query failed", zap.Error(err))
		}
	})
	return nil
}

// Close stops pending debounced queries and cancels the one in flight
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	if c.debounce != nil {
		c.debounce.Stop()
	}
	if c.inflight != nil {
		c.inflight()
	}
	c.mu.Unlock()
	c.cancel()
}

func (c *Controller) run(ctx context.Context, term string, search bool) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	gen := c.bumpLocked()
	qctx, cancel := context.WithCancel(ctx)
	c.inflight = cancel
	ref, radius := c.reference, c.radius
	c.state = Querying
	c.message = ""
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.emit(snap)
	defer cancel()

	var (
		restaurants []model.Restaurant
		candidates  []model.Restaurant
		fellBack    bool
		degraded    bool
		err         error
	)
	if search {
		candidates, err = c.finder.Search(qctx, term)
		if err == nil {
			restaurants = append([]model.Restaurant(nil), candidates...)
			withDistances(ref, restaurants)
		}
	} else {
		candidates, err = c.finder.FindNear(qctx, model.ProximityQuery{
			ReferencePoint:    ref,
			MaxDistanceMeters: radius,
		})
		if err == nil {
			restaurants, fellBack = FilterForDisplay(ref, candidates, radius, c.opts.ShowAllWhenEmpty)
		}
	}

	if err != nil {
		if !c.isCurrent(gen) {
			return ErrSuperseded
		}
		if cerr := cancellation(qctx, err); cerr != nil {
			return c.abandon(gen, cerr)
		}
		if search {
			c.logger.Warn("Restaurant search failed", zap.String("term", term), zap.Error(err))
			c.fail(gen, msgSearchFailed)
			return err
		}

		c.logger.Warn("Proximity query failed, loading all restaurants", zap.Error(err))
		if !c.fail(gen, messageFor(err)) {
			return ErrSuperseded
		}
		all, allErr := c.finder.All(qctx)
		if allErr != nil {
			if !c.isCurrent(gen) {
				return ErrSuperseded
			}
			if cerr := cancellation(qctx, allErr); cerr != nil {
				return c.abandon(gen, cerr)
			}
			c.logger.Error("Loading all restaurants failed", zap.Error(allErr))
			c.fail(gen, msgUnreachable)
			return errors.Join(err, allErr)
		}
		candidates = all
		restaurants = append([]model.Restaurant(nil), all...)
		withDistances(ref, restaurants)
		degraded = true
	}

	return c.render(qctx, gen, ref, restaurants, len(candidates), fellBack, degraded)
}

// render waits for the map, then rebuilds the marker set from scratch
func (c *Controller) render(ctx context.Context, gen uint64, ref geo.Location, restaurants []model.Restaurant, candidates int, fellBack, degraded bool) error {
	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return ErrSuperseded
	}
	c.state = Rendering
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.emit(snap)

	select {
	case <-c.view.Ready():
	case <-ctx.Done():
		if !c.isCurrent(gen) {
			return ErrSuperseded
		}
		c.logger.Debug("Map did not become ready", zap.Error(ErrMapNotReady))
		return c.abandon(gen, fmt.Errorf("%w: %w", ErrMapNotReady, ctx.Err()))
	}

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return ErrSuperseded
	}
	c.markers.Clear()
	c.view.ClearMarkers()
	c.markers.SetCenter(ref)
	c.view.SetCenterMarker(ref)
	for _, r := range restaurants {
		m, ok := MarkerFor(ref, r)
		if !ok {
			continue
		}
		if c.markers.Add(m) {
			c.view.AddMarker(m)
		}
	}
	c.view.FitToMarkers()

	c.restaurants = restaurants
	c.candidates = candidates
	c.fellBack = fellBack
	c.degraded = degraded
	c.state = Ready
	snap = c.snapshotLocked()
	c.mu.Unlock()
	c.emit(snap)

	c.logger.Debug("Rendered markers",
		zap.Int("markers", len(snap.Markers)),
		zap.Int("candidates", candidates),
		zap.Bool("fell_back", fellBack),
		zap.Bool("degraded", degraded),
	)
	return nil
}

// fail moves the current generation to Error; it reports false if gen is stale
func (c *Controller) fail(gen uint64, message string) bool {
	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return false
	}
	c.state = Error
	c.message = message
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.emit(snap)
	return true
}

// abandon ends the current generation without a user-visible message. The
// state returns to Ready when markers from an earlier query are still shown.
func (c *Controller) abandon(gen uint64, err error) error {
	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return ErrSuperseded
	}
	if _, shown := c.markers.Center(); shown {
		c.state = Ready
	} else {
		c.state = Idle
	}
	c.message = ""
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.emit(snap)
	c.logger.Debug("Query abandoned", zap.Error(err))
	return err
}

// cancellation reports the context error behind err, if the query was
// cancelled or ran out of time rather than failing.
func cancellation(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}

func (c *Controller) isCurrent(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return gen == c.generation
}

// bumpLocked starts a new generation and cancels the previous query
func (c *Controller) bumpLocked() uint64 {
	c.generation++
	if c.inflight != nil {
		c.inflight()
		c.inflight = nil
	}
	return c.generation
}

func (c *Controller) snapshotLocked() Snapshot {
	return Snapshot{
		State:        c.state,
		Reference:    c.reference,
		Located:      c.located,
		RadiusMeters: c.radius,
		Restaurants:  append([]model.Restaurant(nil), c.restaurants...),
		Markers:      c.markers.Markers(),
		Candidates:   c.candidates,
		FellBack:     c.fellBack,
		Degraded:     c.degraded,
		Message:      c.message,
		Generation:   c.generation,
	}
}

func (c *Controller) emit(snap Snapshot) {
	c.mu.Lock()
	listeners := make([]func(Snapshot), 0, len(c.listeners))
	for _, fn := range c.listeners {
		listeners = append(listeners, fn)
	}
	c.mu.Unlock()
	for _, fn := range listeners {
		fn(snap)
	}
}

func messageFor(err error) string {
	if errors.Is(err, service.ErrInvalidQuery) {
		return msgInvalidQuery
	}
	return msgLoadFailed
}
