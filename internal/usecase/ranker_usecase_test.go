package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/route-context-service/internal/domain"
)

func rankerSegments() []domain.Segment {
	// Straight corridor heading north from the depot.
	return []domain.Segment{
		{
			Index:      0,
			Start:      domain.Point{Lat: 41.38, Lon: 2.17},
			End:        domain.Point{Lat: 41.42, Lon: 2.17},
			DistanceKm: 4.45,
		},
		{
			Index:      1,
			Start:      domain.Point{Lat: 41.42, Lon: 2.17},
			End:        domain.Point{Lat: 41.46, Lon: 2.17},
			DistanceKm: 4.45,
		},
	}
}

func TestRank_FiltersOutsideCorridor(t *testing.T) {
	uc := NewRankerUsecase(zap.NewNop())

	candidates := []domain.CandidateLocation{
		{ID: "on-route", Lat: 41.40, Lon: 2.171},
		// Roughly 50 km east of the corridor.
		{ID: "far-away", Lat: 41.40, Lon: 2.77},
	}

	ranked := uc.Rank(candidates, rankerSegments(), RankParams{
		CorridorRadiusKm: 5.0,
		TopK:             8,
	})

	require.Len(t, ranked, 1)
	assert.Equal(t, "on-route", ranked[0].ID)
}

func TestRank_CloserCandidateScoresHigher(t *testing.T) {
	uc := NewRankerUsecase(zap.NewNop())

	candidates := []domain.CandidateLocation{
		{ID: "near", Lat: 41.40, Lon: 2.172},
		{ID: "edge", Lat: 41.40, Lon: 2.181},
	}

	ranked := uc.Rank(candidates, rankerSegments(), RankParams{
		CorridorRadiusKm: 1.2,
		TopK:             8,
	})

	require.Len(t, ranked, 2)
	assert.Equal(t, "near", ranked[0].ID)
	assert.Equal(t, "edge", ranked[1].ID)
	assert.Greater(t, ranked[0].RelevanceScore, ranked[1].RelevanceScore)
	assert.Less(t, ranked[0].DistanceToRouteKm, ranked[1].DistanceToRouteKm)
}

func TestRank_CategoryFilterDemotesUnmatched(t *testing.T) {
	uc := NewRankerUsecase(zap.NewNop())

	// Same position, different categories: the matched one must win.
	candidates := []domain.CandidateLocation{
		{ID: "cafe", Lat: 41.40, Lon: 2.172, Category: "food"},
		{ID: "gas", Lat: 41.40, Lon: 2.172, Category: "fuel"},
	}

	ranked := uc.Rank(candidates, rankerSegments(), RankParams{
		CorridorRadiusKm: 1.2,
		TopK:             8,
		Categories:       []string{"fuel"},
	})

	require.Len(t, ranked, 2)
	assert.Equal(t, "gas", ranked[0].ID)
	assert.Equal(t, "cafe", ranked[1].ID)
	assert.Greater(t, ranked[0].RelevanceScore, ranked[1].RelevanceScore)
}

func TestRank_CategoryInferredFromTags(t *testing.T) {
	uc := NewRankerUsecase(zap.NewNop())

	candidates := []domain.CandidateLocation{
		{ID: "station", Lat: 41.40, Lon: 2.172, Tags: map[string]string{"amenity": "fuel"}},
		{ID: "mystery", Lat: 41.40, Lon: 2.172},
	}

	ranked := uc.Rank(candidates, rankerSegments(), RankParams{
		CorridorRadiusKm: 1.2,
		TopK:             8,
	})

	require.Len(t, ranked, 2)
	byID := map[string]domain.SemanticLocation{}
	for _, loc := range ranked {
		byID[loc.ID] = loc
	}
	assert.Equal(t, "fuel", byID["station"].Category)
	assert.Equal(t, domain.CategoryOther, byID["mystery"].Category)
}

func TestRank_TopKTruncates(t *testing.T) {
	uc := NewRankerUsecase(zap.NewNop())

	candidates := make([]domain.CandidateLocation, 0, 10)
	for i := 0; i < 10; i++ {
		candidates = append(candidates, domain.CandidateLocation{
			ID:  string(rune('a' + i)),
			Lat: 41.39 + float64(i)*0.005,
			Lon: 2.172,
		})
	}

	ranked := uc.Rank(candidates, rankerSegments(), RankParams{
		CorridorRadiusKm: 1.2,
		TopK:             3,
	})

	assert.Len(t, ranked, 3)
}

func TestRank_TieBreaksByDetourThenInputOrder(t *testing.T) {
	uc := NewRankerUsecase(zap.NewNop())

	// Identical coordinates give identical score and detour, so input
	// order must be preserved.
	candidates := []domain.CandidateLocation{
		{ID: "first", Lat: 41.40, Lon: 2.172},
		{ID: "second", Lat: 41.40, Lon: 2.172},
	}

	ranked := uc.Rank(candidates, rankerSegments(), RankParams{
		CorridorRadiusKm: 1.2,
		TopK:             8,
	})

	require.Len(t, ranked, 2)
	assert.Equal(t, "first", ranked[0].ID)
	assert.Equal(t, "second", ranked[1].ID)
}

func TestRank_DetourNeverNegative(t *testing.T) {
	uc := NewRankerUsecase(zap.NewNop())

	// A candidate sitting on the segment line has zero detour.
	candidates := []domain.CandidateLocation{
		{ID: "inline", Lat: 41.40, Lon: 2.17},
	}

	ranked := uc.Rank(candidates, rankerSegments(), RankParams{
		CorridorRadiusKm: 1.2,
		TopK:             8,
	})

	require.Len(t, ranked, 1)
	assert.GreaterOrEqual(t, ranked[0].DetourKm, 0.0)
	assert.InDelta(t, 0.0, ranked[0].DetourKm, 0.05)
}

func TestRank_EmptyInputs(t *testing.T) {
	uc := NewRankerUsecase(zap.NewNop())

	assert.Empty(t, uc.Rank(nil, rankerSegments(), RankParams{CorridorRadiusKm: 1.2, TopK: 8}))
	assert.Empty(t, uc.Rank([]domain.CandidateLocation{{ID: "x", Lat: 41.4, Lon: 2.17}}, nil, RankParams{CorridorRadiusKm: 1.2, TopK: 8}))
}
