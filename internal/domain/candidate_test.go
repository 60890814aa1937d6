package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInferCategory(t *testing.T) {
	tests := []struct {
		name      string
		candidate CandidateLocation
		want      string
	}{
		{
			name:      "explicit category wins over tags",
			candidate: CandidateLocation{Category: "Fuel", Tags: map[string]string{"amenity": "restaurant"}},
			want:      "fuel",
		},
		{
			name:      "explicit category is trimmed and lowercased",
			candidate: CandidateLocation{Category: "  Rest_Area  "},
			want:      "rest_area",
		},
		{
			name:      "amenity tag mapped",
			candidate: CandidateLocation{Tags: map[string]string{"amenity": "fuel"}},
			want:      "fuel",
		},
		{
			name:      "tourism tag mapped",
			candidate: CandidateLocation{Tags: map[string]string{"tourism": "hotel"}},
			want:      "lodging",
		},
		{
			name:      "shop tag mapped",
			candidate: CandidateLocation{Tags: map[string]string{"shop": "supermarket"}},
			want:      "grocery",
		},
		{
			name:      "highway services mapped",
			candidate: CandidateLocation{Tags: map[string]string{"highway": "services"}},
			want:      "rest_area",
		},
		{
			name:      "amenity checked before shop",
			candidate: CandidateLocation{Tags: map[string]string{"amenity": "cafe", "shop": "convenience"}},
			want:      "food",
		},
		{
			name:      "unknown tag value falls back to other",
			candidate: CandidateLocation{Tags: map[string]string{"amenity": "bench"}},
			want:      CategoryOther,
		},
		{
			name:      "no hints at all",
			candidate: CandidateLocation{},
			want:      CategoryOther,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.candidate.InferCategory())
		})
	}
}
