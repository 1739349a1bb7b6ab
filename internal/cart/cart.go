// Package cart holds per-user shopping carts in process memory. A Cart is a
// small observable state container: every mutation produces a Snapshot that
// is delivered to subscribers.
package cart

import (
	"math"
	"sync"
)

// Line is one menu item in the cart
type Line struct {
	MenuItemID     string  `json:"menuItemId"`
	RestaurantID   string  `json:"restaurantId"`
	RestaurantName string  `json:"restaurantName"`
	Name           string  `json:"name"`
	Price          float64 `json:"price"`
	Quantity       int     `json:"quantity"`
}

// Snapshot is an immutable view of the cart
type Snapshot struct {
	Items []Line  `json:"items"`
	Total float64 `json:"total"`
	Count int     `json:"count"`
}

// Listener receives a snapshot after every mutation
type Listener func(Snapshot)

// Cart is safe for concurrent use
type Cart struct {
	mu        sync.Mutex
	lines     []Line
	listeners map[int]Listener
	nextID    int
}

// New creates an empty cart
func New() *Cart {
	return &Cart{listeners: make(map[int]Listener)}
}

// Add puts quantity units of the line's menu item in the cart. Lines for the
// same menu item are merged.
func (c *Cart) Add(line Line) Snapshot {
	if line.Quantity <= 0 {
		line.Quantity = 1
	}
	return c.mutate(func() {
		for i := range c.lines {
			if c.lines[i].MenuItemID == line.MenuItemID {
				c.lines[i].Quantity += line.Quantity
				return
			}
		}
		c.lines = append(c.lines, line)
	})
}

// Remove takes one unit of the menu item out; unknown ids are ignored
func (c *Cart) Remove(menuItemID string) Snapshot {
	return c.mutate(func() {
		for i := range c.lines {
			if c.lines[i].MenuItemID != menuItemID {
				continue
			}
			c.lines[i].Quantity--
			if c.lines[i].Quantity <= 0 {
				c.lines = append(c.lines[:i], c.lines[i+1:]...)
			}
			return
		}
	})
}

// Clear empties the cart
func (c *Cart) Clear() Snapshot {
	return c.mutate(func() {
		c.lines = nil
	})
}

// Take removes the given quantities, as returned by an earlier Snapshot.
// Units added since then stay in the cart.
func (c *Cart) Take(lines []Line) Snapshot {
	return c.mutate(func() {
		for _, taken := range lines {
			for i := range c.lines {
				if c.lines[i].MenuItemID != taken.MenuItemID {
					continue
				}
				c.lines[i].Quantity -= taken.Quantity
				if c.lines[i].Quantity <= 0 {
					c.lines = append(c.lines[:i], c.lines[i+1:]...)
				}
				break
			}
		}
	})
}

// Snapshot returns the current contents
func (c *Cart) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Subscribe registers fn for future mutations and returns a cancel func
func (c *Cart) Subscribe(fn Listener) func() {
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

func (c *Cart) mutate(fn func()) Snapshot {
	c.mu.Lock()
	fn()
	snap := c.snapshotLocked()
	listeners := make([]Listener, 0, len(c.listeners))
	for _, l := range c.listeners {
		listeners = append(listeners, l)
	}
	c.mu.Unlock()

	for _, l := range listeners {
		l(snap)
	}
	return snap
}

func (c *Cart) snapshotLocked() Snapshot {
	items := make([]Line, len(c.lines))
	copy(items, c.lines)
	var total float64
	count := 0
	for _, l := range items {
		total += l.Price * float64(l.Quantity)
		count += l.Quantity
	}
	return Snapshot{Items: items, Total: math.Round(total*100) / 100, Count: count}
}

// GroupByRestaurant splits the lines per restaurant, keeping first-seen order
func (s Snapshot) GroupByRestaurant() [][]Line {
	idx := make(map[string]int)
	var groups [][]Line
	for _, l := range s.Items {
		i, ok := idx[l.RestaurantID]
		if !ok {
			i = len(groups)
			idx[l.RestaurantID] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], l)
	}
	return groups
}
