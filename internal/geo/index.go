package geo

import (
	"fmt"
	"sync"

	"github.com/dhconnelly/rtreego"
)

const (
	tolerance   = 1e-7
	minChildren = 25
	maxChildren = 50
	dimensions  = 2
)

// indexItem wraps an entity id for R-Tree indexing. Dimension 0 is
// longitude, dimension 1 is latitude.
type indexItem struct {
	id   string
	loc  Location
	rect *rtreego.Rect
}

func (it *indexItem) Bounds() *rtreego.Rect {
	return it.rect
}

// Index is a thread-safe R-Tree of entity locations keyed by id.
type Index struct {
	mu    sync.RWMutex
	tree  *rtreego.Rtree
	items map[string]*indexItem
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{
		tree:  rtreego.NewTree(dimensions, minChildren, maxChildren),
		items: make(map[string]*indexItem),
	}
}

// Put inserts or moves the entry for id.
func (x *Index) Put(id string, loc Location) {
	x.mu.Lock()
	defer x.mu.Unlock()

	if old, ok := x.items[id]; ok {
		x.tree.Delete(old)
	}
	item := &indexItem{
		id:   id,
		loc:  loc,
		rect: rtreego.Point{loc.Lng, loc.Lat}.ToRect(tolerance),
	}
	x.tree.Insert(item)
	x.items[id] = item
}

// Remove drops id from the index; unknown ids are ignored.
func (x *Index) Remove(id string) {
	x.mu.Lock()
	defer x.mu.Unlock()

	if old, ok := x.items[id]; ok {
		x.tree.Delete(old)
		delete(x.items, id)
	}
}

// Len returns the number of indexed entries.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.items)
}

// Reset empties the index.
func (x *Index) Reset() {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.tree = rtreego.NewTree(dimensions, minChildren, maxChildren)
	x.items = make(map[string]*indexItem)
}

// Hit is an index search result.
type Hit struct {
	ID             string
	Location       Location
	DistanceMeters float64
}

// SearchRadius returns the ids within radiusMeters of center. Candidates
// come from the bounding box and are trimmed by haversine distance.
func (x *Index) SearchRadius(center Location, radiusMeters float64) ([]Hit, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	var hits []Hit
	for _, box := range BoundingBox(center, radiusMeters).Split() {
		width := box.MaxLng - box.MinLng
		height := box.MaxLat - box.MinLat
		if width <= 0 || height <= 0 {
			continue
		}
		rect, err := rtreego.NewRect(rtreego.Point{box.MinLng, box.MinLat}, []float64{width, height})
		if err != nil {
			return nil, fmt.Errorf("invalid radius search: %w", err)
		}
		for _, s := range x.tree.SearchIntersect(rect) {
			item, ok := s.(*indexItem)
			if !ok {
				continue
			}
			d := Haversine(center, item.loc)
			if d <= radiusMeters {
				hits = append(hits, Hit{ID: item.id, Location: item.loc, DistanceMeters: d})
			}
		}
	}
	return hits, nil
}
