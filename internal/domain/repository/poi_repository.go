package repository

import (
	"context"

	"github.com/route-context-service/internal/domain"
)

// POIRepository - источник точек интереса-кандидатов, когда вызывающая
// сторона не передала свои candidate_locations
type POIRepository interface {
	GetNearby(ctx context.Context, lat, lon, radiusKm float64, categories []string, limit int) ([]domain.CandidateLocation, error)
}
