package repository

import (
	"context"

	"github.com/alexivanou/foodmap-api/internal/geo"
	"github.com/alexivanou/foodmap-api/internal/model"
)

// --- PostgreSQL Implementation ---

type pgRestaurantRepository struct {
	*restaurantStore
}

type pgNearRow struct {
	restaurantRow
	Distance float64 `db:"distance"`
}

// FindNear prefilters on the (lat, lng) index with a bounding box and orders
// by great-circle distance computed in SQL.
func (r *pgRestaurantRepository) FindNear(ctx context.Context, q model.ProximityQuery) ([]model.Restaurant, error) {
	boxes := geo.BoundingBox(q.ReferencePoint, q.MaxDistanceMeters).Split()
	// A second, empty longitude range keeps the statement shape fixed
	second := geo.Bounds{MinLng: 1, MaxLng: 0}
	if len(boxes) > 1 {
		second = boxes[1]
	}
	first := boxes[0]

	var limit any
	if q.Limit > 0 {
		limit = q.Limit
	}

	query := `
		SELECT id, name, address, cuisine, images, lng, lat, owner_id, created_at, distance
		FROM (
			SELECT r.*,
				$1 * 2 * ASIN(SQRT(
					POWER(SIN(RADIANS(r.lat - $2) / 2), 2) +
					COS(RADIANS($2)) * COS(RADIANS(r.lat)) * POWER(SIN(RADIANS(r.lng - $3) / 2), 2)
				)) AS distance
			FROM restaurants r
			WHERE r.lat IS NOT NULL AND r.lng IS NOT NULL
				AND r.lat BETWEEN $4 AND $5
				AND ((r.lng BETWEEN $6 AND $7) OR (r.lng BETWEEN $8 AND $9))
		) candidates
		WHERE distance <= $10
		ORDER BY distance ASC
		LIMIT $11
	`
	var rows []pgNearRow
	err := r.db.SelectContext(ctx, &rows, query,
		geo.EarthRadiusMeters, q.ReferencePoint.Lat, q.ReferencePoint.Lng,
		first.MinLat, first.MaxLat,
		first.MinLng, first.MaxLng, second.MinLng, second.MaxLng,
		q.MaxDistanceMeters, limit,
	)
	if err != nil {
		return nil, err
	}

	results := make([]model.Restaurant, 0, len(rows))
	for _, row := range rows {
		rest := row.restaurant()
		d := row.Distance
		rest.DistanceMeters = &d
		results = append(results, rest)
	}
	if err := r.loadDetails(ctx, results); err != nil {
		return nil, err
	}
	return results, nil
}
