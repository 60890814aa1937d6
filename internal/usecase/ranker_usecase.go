package usecase

import (
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/route-context-service/internal/domain"
	"github.com/route-context-service/internal/pkg/utils"
)

const (
	proximityWeight = 0.65
	categoryWeight  = 0.35

	// Candidates outside the requested categories are kept but strongly
	// demoted instead of dropped.
	unmatchedCategoryScore = 0.25
)

// RankParams - параметры ранжирования кандидатов вдоль маршрута
type RankParams struct {
	CorridorRadiusKm float64
	TopK             int
	Categories       []string
}

// RankerUsecase - отбор и ранжирование семантических локаций вдоль маршрута
type RankerUsecase struct {
	logger *zap.Logger
}

// NewRankerUsecase - создание нового RankerUsecase
func NewRankerUsecase(logger *zap.Logger) *RankerUsecase {
	return &RankerUsecase{logger: logger}
}

// Rank keeps candidates within the route corridor and orders them by
// relevance. Ties resolve to the smaller detour, then to input order.
func (uc *RankerUsecase) Rank(candidates []domain.CandidateLocation, segments []domain.Segment, params RankParams) []domain.SemanticLocation {
	if len(candidates) == 0 || len(segments) == 0 {
		return []domain.SemanticLocation{}
	}

	categoryFilter := make(map[string]bool, len(params.Categories))
	for _, c := range params.Categories {
		categoryFilter[c] = true
	}

	ranked := make([]domain.SemanticLocation, 0, len(candidates))
	for i := range candidates {
		cand := candidates[i]

		nearestIdx := -1
		nearestDist := math.Inf(1)
		for _, seg := range segments {
			d := utils.PointToSegmentDistance(
				cand.Lat, cand.Lon,
				seg.Start.Lat, seg.Start.Lon,
				seg.End.Lat, seg.End.Lon)
			if d < nearestDist {
				nearestDist = d
				nearestIdx = seg.Index
			}
		}
		if nearestDist > params.CorridorRadiusKm {
			continue
		}

		seg := segments[nearestIdx]
		detour := utils.HaversineDistance(cand.Lat, cand.Lon, seg.Start.Lat, seg.Start.Lon) +
			utils.HaversineDistance(cand.Lat, cand.Lon, seg.End.Lat, seg.End.Lon) -
			seg.DistanceKm
		if detour < 0 {
			detour = 0
		}

		category := cand.InferCategory()
		categoryScore := 1.0
		if len(categoryFilter) > 0 && !categoryFilter[category] {
			categoryScore = unmatchedCategoryScore
		}

		proximity := 1.0 - nearestDist/params.CorridorRadiusKm
		if proximity < 0 {
			proximity = 0
		}
		score := (proximityWeight*proximity + categoryWeight*categoryScore) / (1.0 + detour)

		ranked = append(ranked, domain.SemanticLocation{
			ID:                  cand.ID,
			Name:                cand.Name,
			Lat:                 cand.Lat,
			Lon:                 cand.Lon,
			Source:              cand.Source,
			Category:            category,
			DistanceToRouteKm:   roundKm(nearestDist),
			DetourKm:            roundKm(detour),
			NearestSegmentIndex: nearestIdx,
			RelevanceScore:      math.Round(score*10000) / 10000,
			Tags:                cand.Tags,
		})
	}

	sort.SliceStable(ranked, func(a, b int) bool {
		if ranked[a].RelevanceScore != ranked[b].RelevanceScore {
			return ranked[a].RelevanceScore > ranked[b].RelevanceScore
		}
		return ranked[a].DetourKm < ranked[b].DetourKm
	})

	if params.TopK > 0 && len(ranked) > params.TopK {
		ranked = ranked[:params.TopK]
	}

	uc.logger.Debug("ranked semantic candidates",
		zap.Int("candidates", len(candidates)),
		zap.Int("kept", len(ranked)))

	return ranked
}

func roundKm(v float64) float64 {
	return math.Round(v*1000) / 1000
}
