package cart

import (
	"sync"

	"go.uber.org/zap"
)

// Store keeps one cart per user id
type Store struct {
	mu     sync.Mutex
	carts  map[string]*Cart
	logger *zap.Logger
}

// NewStore creates an empty store. A nil logger disables change logging.
func NewStore(logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{carts: make(map[string]*Cart), logger: logger}
}

// For returns the user's cart, creating it on first use
func (s *Store) For(userID string) *Cart {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.carts[userID]
	if !ok {
		c = New()
		c.Subscribe(func(snap Snapshot) {
			s.logger.Debug("cart changed",
				zap.String("user", userID),
				zap.Int("count", snap.Count),
				zap.Float64("total", snap.Total),
			)
		})
		s.carts[userID] = c
	}
	return c
}

// Len returns the number of carts held
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.carts)
}
