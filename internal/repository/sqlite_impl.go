package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/alexivanou/foodmap-api/internal/geo"
	"github.com/alexivanou/foodmap-api/internal/model"
)

// sqliteRestaurantRepository answers proximity queries from an in-process
// R-Tree. The index is loaded from the table on first use and kept in step
// with every write made through this repository.
type sqliteRestaurantRepository struct {
	*restaurantStore

	index   *geo.Index
	mu      sync.Mutex
	indexed bool
}

type locationRow struct {
	ID  string  `db:"id"`
	Lng float64 `db:"lng"`
	Lat float64 `db:"lat"`
}

func (r *sqliteRestaurantRepository) ensureIndex(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.indexed {
		return nil
	}

	var rows []locationRow
	q := "SELECT id, lng, lat FROM restaurants WHERE lng IS NOT NULL AND lat IS NOT NULL"
	if err := r.db.SelectContext(ctx, &rows, q); err != nil {
		return fmt.Errorf("load location index: %w", err)
	}
	r.index.Reset()
	for _, row := range rows {
		r.index.Put(row.ID, geo.Location{Lng: row.Lng, Lat: row.Lat})
	}
	r.indexed = true
	return nil
}

// track updates the index after a committed write
func (r *sqliteRestaurantRepository) track(rest *model.Restaurant) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.indexed {
		return
	}
	if loc, ok := rest.GeoLocation(); ok {
		r.index.Put(rest.ID, loc)
		return
	}
	r.index.Remove(rest.ID)
}

func (r *sqliteRestaurantRepository) FindNear(ctx context.Context, q model.ProximityQuery) ([]model.Restaurant, error) {
	if err := r.ensureIndex(ctx); err != nil {
		return nil, err
	}

	hits, err := r.index.SearchRadius(q.ReferencePoint, q.MaxDistanceMeters)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].DistanceMeters < hits[j].DistanceMeters })
	if q.Limit > 0 && len(hits) > q.Limit {
		hits = hits[:q.Limit]
	}

	ids := make([]string, 0, len(hits))
	for _, h := range hits {
		ids = append(ids, h.ID)
	}
	found, err := r.selectByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]model.Restaurant, len(found))
	for _, rest := range found {
		byID[rest.ID] = rest
	}
	results := make([]model.Restaurant, 0, len(hits))
	for _, h := range hits {
		rest, ok := byID[h.ID]
		if !ok {
			// Removed by another writer since the index was loaded
			continue
		}
		d := h.DistanceMeters
		rest.DistanceMeters = &d
		results = append(results, rest)
	}
	return results, nil
}

func (r *sqliteRestaurantRepository) CreateRestaurant(ctx context.Context, rest *model.Restaurant) error {
	if err := r.restaurantStore.CreateRestaurant(ctx, rest); err != nil {
		return err
	}
	r.track(rest)
	return nil
}

func (r *sqliteRestaurantRepository) BulkInsertRestaurants(ctx context.Context, restaurants []model.Restaurant) error {
	// SQLite variable limit workaround: keep each transaction small
	chunkSize := 100
	for i := 0; i < len(restaurants); i += chunkSize {
		end := i + chunkSize
		if end > len(restaurants) {
			end = len(restaurants)
		}
		batch := restaurants[i:end]
		if err := r.restaurantStore.BulkInsertRestaurants(ctx, batch); err != nil {
			return err
		}
		for j := range batch {
			r.track(&batch[j])
		}
	}
	return nil
}

func (r *sqliteRestaurantRepository) UpdateRestaurant(ctx context.Context, rest *model.Restaurant) error {
	if err := r.restaurantStore.UpdateRestaurant(ctx, rest); err != nil {
		return err
	}
	r.track(rest)
	return nil
}

func (r *sqliteRestaurantRepository) DeleteRestaurant(ctx context.Context, id string) error {
	if err := r.restaurantStore.DeleteRestaurant(ctx, id); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.indexed {
		r.index.Remove(id)
	}
	return nil
}
