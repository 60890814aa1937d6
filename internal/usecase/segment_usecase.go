package usecase

import (
	"time"

	"go.uber.org/zap"

	"github.com/route-context-service/internal/domain"
	"github.com/route-context-service/internal/pkg/utils"
)

const minAvgSpeedKmh = 5.0

// SegmentUsecase - разбиение маршрута на сегменты с оценкой ETA
type SegmentUsecase struct {
	logger *zap.Logger
}

// NewSegmentUsecase - создание нового SegmentUsecase
func NewSegmentUsecase(logger *zap.Logger) *SegmentUsecase {
	return &SegmentUsecase{logger: logger}
}

// BuildSegments expands a route into per-leg segments with cumulative
// distance and an arrival estimate derived from a constant average speed.
// Speeds below the floor are clamped so ETA stays finite.
func (uc *SegmentUsecase) BuildSegments(route domain.Route, avgSpeedKmh float64, departure *time.Time) []domain.Segment {
	if avgSpeedKmh < minAvgSpeedKmh {
		avgSpeedKmh = minAvgSpeedKmh
	}

	segments := make([]domain.Segment, 0, len(route.Stops))
	cumulative := 0.0
	for i := 1; i < len(route.Stops); i++ {
		from, to := route.Stops[i-1], route.Stops[i]
		distance := utils.HaversineDistance(from.Lat, from.Lon, to.Lat, to.Lon)
		cumulative += distance
		midLat, midLon := utils.Midpoint(from.Lat, from.Lon, to.Lat, to.Lon)

		seg := domain.Segment{
			Index:        i - 1,
			FromStopID:   from.ID,
			ToStopID:     to.ID,
			Start:        domain.Point{Lat: from.Lat, Lon: from.Lon},
			End:          domain.Point{Lat: to.Lat, Lon: to.Lon},
			Midpoint:     domain.Point{Lat: midLat, Lon: midLon},
			DistanceKm:   distance,
			CumulativeKm: cumulative,
			ETAMin:       cumulative / avgSpeedKmh * 60.0,
		}
		if departure != nil {
			eta := departure.Add(time.Duration(seg.ETAMin * float64(time.Minute)))
			seg.ETA = &eta
		}
		segments = append(segments, seg)
	}

	return segments
}
