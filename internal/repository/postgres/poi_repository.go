package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/route-context-service/internal/domain"
	"github.com/route-context-service/internal/domain/repository"
	"github.com/route-context-service/internal/pkg/errors"
)

type poiRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewPOIRepository(db *DB) repository.POIRepository {
	return &poiRepository{
		db:     db.DB,
		logger: db.logger,
	}
}

// GetNearby возвращает POI-кандидатов в радиусе от точки, отсортированных
// по удалённости.
func (r *poiRepository) GetNearby(
	ctx context.Context,
	lat, lon, radiusKm float64,
	categories []string,
	limit int,
) ([]domain.CandidateLocation, error) {
	query := `
		WITH point AS (
			SELECT ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography AS geom
		)
		SELECT
			id, name, category, lat, lon, tags,
			ST_Distance(geometry::geography, point.geom) AS distance
		FROM pois, point
		WHERE ST_DWithin(geometry::geography, point.geom, $3)
	`

	// Convert radius from km to meters
	radiusMeters := radiusKm * 1000
	args := []interface{}{lon, lat, radiusMeters}
	argIdx := 4

	if len(categories) > 0 {
		query += fmt.Sprintf(" AND category = ANY($%d)", argIdx)
		args = append(args, pq.Array(categories))
		argIdx++
	}

	query += fmt.Sprintf(" ORDER BY distance LIMIT $%d", argIdx)
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to get nearby POIs", zap.Error(err))
		return nil, errors.ErrDatabaseError
	}
	defer rows.Close()

	var candidates []domain.CandidateLocation
	for rows.Next() {
		var c domain.CandidateLocation
		var name *string
		var tagsJSON []byte
		var distance float64

		err := rows.Scan(&c.ID, &name, &c.Category, &c.Lat, &c.Lon, &tagsJSON, &distance)
		if err != nil {
			r.logger.Error("Failed to scan POI", zap.Error(err))
			continue
		}
		c.Name = name
		c.Source = "poi_database"

		if len(tagsJSON) > 0 {
			tags := make(map[string]string)
			if err := json.Unmarshal(tagsJSON, &tags); err != nil {
				r.logger.Warn("Failed to unmarshal tags", zap.String("id", c.ID), zap.Error(err))
			} else {
				c.Tags = tags
			}
		}

		candidates = append(candidates, c)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("POI rows iteration failed", zap.Error(err))
		return nil, errors.ErrDatabaseError
	}

	return candidates, nil
}
