package discovery

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/alexivanou/foodmap-api/internal/geo"
)

// LocatorFunc adapts a function to Locator
type LocatorFunc func(ctx context.Context, opts PositionOptions) (Position, error)

func (f LocatorFunc) CurrentPosition(ctx context.Context, opts PositionOptions) (Position, error) {
	return f(ctx, opts)
}

// NoLocator is used when the platform has no position source
var NoLocator Locator = LocatorFunc(func(context.Context, PositionOptions) (Position, error) {
	return Position{}, ErrGeolocationDenied
})

// FixedLocator always reports the same point
type FixedLocator struct {
	Location geo.Location
}

func (l FixedLocator) CurrentPosition(ctx context.Context, _ PositionOptions) (Position, error) {
	if err := l.Location.Validate(); err != nil {
		return Position{}, fmt.Errorf("%w: %w", ErrGeolocationDenied, err)
	}
	return Position{Location: l.Location, Timestamp: time.Now()}, nil
}

// Geocoder resolves a free-form address
type Geocoder interface {
	Get(ctx context.Context, address string) (geo.Location, error)
}

// AddressLocator reports the geocoded position of a fixed address
type AddressLocator struct {
	Geocoder Geocoder
	Address  string
}

func (l AddressLocator) CurrentPosition(ctx context.Context, _ PositionOptions) (Position, error) {
	loc, err := l.Geocoder.Get(ctx, l.Address)
	if err != nil {
		return Position{}, fmt.Errorf("%w: %w", ErrGeolocationDenied, err)
	}
	return Position{Location: loc, Timestamp: time.Now()}, nil
}

// CachedLocator reuses the last fix while it is younger than MaximumAge
type CachedLocator struct {
	source Locator
	now    func() time.Time

	mu   sync.Mutex
	last *Position
}

// NewCachedLocator wraps source
func NewCachedLocator(source Locator) *CachedLocator {
	return &CachedLocator{source: source, now: time.Now}
}

func (l *CachedLocator) CurrentPosition(ctx context.Context, opts PositionOptions) (Position, error) {
	l.mu.Lock()
	if l.last != nil && opts.MaximumAge > 0 && l.now().Sub(l.last.Timestamp) <= opts.MaximumAge {
		pos := *l.last
		l.mu.Unlock()
		return pos, nil
	}
	l.mu.Unlock()

	pos, err := l.source.CurrentPosition(ctx, opts)
	if err != nil {
		return Position{}, err
	}
	if pos.Timestamp.IsZero() {
		pos.Timestamp = l.now()
	}

	l.mu.Lock()
	l.last = &pos
	l.mu.Unlock()
	return pos, nil
}

// locate asks loc for a position, giving up after opts.Timeout even if
// loc ignores its context.
func locate(ctx context.Context, loc Locator, opts PositionOptions) (Position, error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	type result struct {
		pos Position
		err error
	}
	done := make(chan result, 1)
	go func() {
		pos, err := loc.CurrentPosition(ctx, opts)
		done <- result{pos, err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return Position{}, r.err
		}
		if err := r.pos.Location.Validate(); err != nil {
			return Position{}, fmt.Errorf("%w: %w", ErrGeolocationDenied, err)
		}
		return r.pos, nil
	case <-ctx.Done():
		return Position{}, fmt.Errorf("%w: %w", ErrGeolocationDenied, ctx.Err())
	}
}
