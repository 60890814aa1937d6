package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fp(v float64) *float64 { return &v }

func TestForecastSlotCount(t *testing.T) {
	tests := []struct {
		name        string
		windowHours int
		intervalMin int
		want        int
	}{
		{"default window", 24, 120, 12},
		{"uneven division rounds up", 24, 90, 16},
		{"single slot", 1, 60, 1},
		{"interval longer than window", 1, 120, 1},
		{"zero window", 0, 120, 0},
		{"zero interval", 24, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ForecastSlotCount(tt.windowHours, tt.intervalMin))
		})
	}
}

func TestWeatherSeverityScore(t *testing.T) {
	t.Run("clear weather scores zero", func(t *testing.T) {
		assert.Equal(t, 0.0, WeatherSeverityScore("clear", nil, nil, nil))
	})

	t.Run("precipitation contributes linearly", func(t *testing.T) {
		assert.InDelta(t, 3.6, WeatherSeverityScore("", fp(2.0), nil, nil), 1e-9)
	})

	t.Run("wind counts only above threshold", func(t *testing.T) {
		assert.Equal(t, 0.0, WeatherSeverityScore("", nil, fp(25.0), nil))
		assert.InDelta(t, 1.0, WeatherSeverityScore("", nil, fp(33.0), nil), 1e-9)
	})

	t.Run("probability accepts percent scale", func(t *testing.T) {
		fromFraction := WeatherSeverityScore("", nil, nil, fp(0.8))
		fromPercent := WeatherSeverityScore("", nil, nil, fp(80.0))
		assert.InDelta(t, 2.0, fromFraction, 1e-9)
		assert.Equal(t, fromFraction, fromPercent)
	})

	t.Run("condition keyword bonuses", func(t *testing.T) {
		assert.InDelta(t, 8.0, WeatherSeverityScore("Thunderstorm", nil, nil, nil), 1e-9)
		assert.InDelta(t, 5.0, WeatherSeverityScore("light snow", nil, nil, nil), 1e-9)
		assert.InDelta(t, 5.0, WeatherSeverityScore("heavy rain", nil, nil, nil), 1e-9)
		assert.InDelta(t, 3.0, WeatherSeverityScore("rain showers", nil, nil, nil), 1e-9)
		assert.InDelta(t, 2.0, WeatherSeverityScore("fog", nil, nil, nil), 1e-9)
	})

	t.Run("severe condition dominates over rain keyword", func(t *testing.T) {
		// "storm" branch wins even though the text also contains "rain".
		assert.InDelta(t, 8.0, WeatherSeverityScore("rain storm", nil, nil, nil), 1e-9)
	})
}

func TestCongestionLevelFromJamFactor(t *testing.T) {
	assert.Nil(t, CongestionLevelFromJamFactor(nil))

	low := CongestionLevelFromJamFactor(fp(2.0))
	require.NotNil(t, low)
	assert.Equal(t, "low", *low)

	medium := CongestionLevelFromJamFactor(fp(4.0))
	require.NotNil(t, medium)
	assert.Equal(t, "medium", *medium)

	high := CongestionLevelFromJamFactor(fp(7.0))
	require.NotNil(t, high)
	assert.Equal(t, "high", *high)
}

func TestUnknownForecasts(t *testing.T) {
	wf := UnknownWeatherForecast(24, 120, SourceNotProvided)
	assert.Equal(t, ContextStatusUnknown, wf.Status)
	assert.Nil(t, wf.WorstCaseScore)
	assert.Empty(t, wf.Slots)

	tf := UnknownTrafficForecast(24, 120, SourceNotProvided)
	assert.Equal(t, ContextStatusUnknown, tf.Status)
	assert.Nil(t, tf.WorstCaseDelayRatio)
}
