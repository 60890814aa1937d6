package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/route-context-service/internal/domain"
)

// MockContextProvider is a mock of ContextProvider
type MockContextProvider struct {
	mock.Mock
}

func (m *MockContextProvider) FetchWeather(ctx context.Context, lat, lon float64, at time.Time) (*domain.WeatherContext, *domain.WeatherForecast, error) {
	args := m.Called(ctx, lat, lon, at)
	var weather *domain.WeatherContext
	var forecast *domain.WeatherForecast
	if args.Get(0) != nil {
		weather = args.Get(0).(*domain.WeatherContext)
	}
	if args.Get(1) != nil {
		forecast = args.Get(1).(*domain.WeatherForecast)
	}
	return weather, forecast, args.Error(2)
}

func (m *MockContextProvider) FetchTraffic(ctx context.Context, lat, lon float64) (*domain.TrafficContext, error) {
	args := m.Called(ctx, lat, lon)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TrafficContext), args.Error(1)
}

func (m *MockContextProvider) FetchTrafficForecast(ctx context.Context, origin, destination domain.Point, at time.Time) (*domain.TrafficForecast, error) {
	args := m.Called(ctx, origin, destination, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TrafficForecast), args.Error(1)
}

func (m *MockContextProvider) Stats() domain.ProviderStats {
	args := m.Called()
	return args.Get(0).(domain.ProviderStats)
}

func strPtr(s string) *string { return &s }

func testSegments() []domain.Segment {
	return []domain.Segment{
		{
			Index:      0,
			FromStopID: domain.DepotStopID,
			ToStopID:   "c1",
			Start:      domain.Point{Lat: 41.38, Lon: 2.17},
			End:        domain.Point{Lat: 41.42, Lon: 2.19},
			Midpoint:   domain.Point{Lat: 41.40, Lon: 2.18},
			DistanceKm: 4.7,
			ETAMin:     7.0,
		},
	}
}

func TestMatchSegments_UsesClosestObservation(t *testing.T) {
	uc := NewContextUsecase(zap.NewNop(), 4)
	departure := time.Date(2026, 8, 29, 8, 0, 0, 0, time.UTC)

	near := domain.WeatherObservation{
		Lat: 41.40, Lon: 2.18,
		Time:         departure.Add(10 * time.Minute),
		TemperatureC: floatPtr(18.0),
		Condition:    strPtr("rain"),
		Source:       domain.SourceUserSupplied,
	}
	far := domain.WeatherObservation{
		Lat: 41.90, Lon: 2.60,
		Time:         departure,
		TemperatureC: floatPtr(30.0),
		Source:       domain.SourceUserSupplied,
	}

	result := uc.MatchSegments(context.Background(), testSegments(), ContextParams{
		Departure:        &departure,
		CorridorRadiusKm: 1.2,
		Weather:          []domain.WeatherObservation{far, near},
	})

	require.Len(t, result, 1)
	weather := result[0].Weather
	require.NotNil(t, weather)
	assert.Equal(t, domain.ContextStatusObserved, weather.Status)
	assert.Equal(t, domain.SourceUserSupplied, weather.Source)
	require.NotNil(t, weather.TemperatureC)
	assert.Equal(t, 18.0, *weather.TemperatureC)
	require.NotNil(t, weather.TimeOffsetMin)
	assert.InDelta(t, 3.0, *weather.TimeOffsetMin, 1e-6)
}

func TestMatchSegments_NoDataIsUnknown(t *testing.T) {
	uc := NewContextUsecase(zap.NewNop(), 4)

	result := uc.MatchSegments(context.Background(), testSegments(), ContextParams{
		CorridorRadiusKm: 1.2,
	})

	require.Len(t, result, 1)
	assert.Equal(t, domain.ContextStatusUnknown, result[0].Weather.Status)
	assert.Equal(t, domain.SourceNotProvided, result[0].Weather.Source)
	assert.Equal(t, domain.ContextStatusUnknown, result[0].Traffic.Status)
}

func TestMatchSegments_ProviderFallbackWhenObservationTooFar(t *testing.T) {
	uc := NewContextUsecase(zap.NewNop(), 4)
	provider := new(MockContextProvider)

	// Observation sits well outside twice the corridor radius.
	farObs := domain.WeatherObservation{
		Lat: 42.00, Lon: 3.00,
		Time:   time.Date(2026, 8, 29, 8, 0, 0, 0, time.UTC),
		Source: domain.SourceUserSupplied,
	}

	provided := &domain.WeatherContext{
		Status:       domain.ContextStatusObserved,
		Source:       domain.SourceProviderLive,
		TemperatureC: floatPtr(21.0),
	}
	provider.On("FetchWeather", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(provided, (*domain.WeatherForecast)(nil), nil)
	provider.On("FetchTraffic", mock.Anything, mock.Anything, mock.Anything).
		Return(&domain.TrafficContext{Status: domain.ContextStatusObserved, Source: domain.SourceProviderLive}, nil)

	result := uc.MatchSegments(context.Background(), testSegments(), ContextParams{
		UseProvider:      true,
		Provider:         provider,
		CorridorRadiusKm: 1.2,
		Weather:          []domain.WeatherObservation{farObs},
	})

	require.Len(t, result, 1)
	assert.Equal(t, domain.SourceProviderLive, result[0].Weather.Source)
	require.NotNil(t, result[0].Weather.TemperatureC)
	assert.Equal(t, 21.0, *result[0].Weather.TemperatureC)
	provider.AssertCalled(t, "FetchWeather", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestMatchSegments_CloseObservationKeepsRealtimeMatch(t *testing.T) {
	uc := NewContextUsecase(zap.NewNop(), 4)
	provider := new(MockContextProvider)

	forecast := &domain.WeatherForecast{
		Status: domain.ContextStatusForecasted,
		Source: domain.SourceProviderSim,
		Slots:  []domain.WeatherForecastSlot{{SeverityScore: 2.1}},
	}
	provider.On("FetchWeather", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&domain.WeatherContext{
			Status:       domain.ContextStatusObserved,
			Source:       domain.SourceProviderSim,
			TemperatureC: floatPtr(30.0),
		}, forecast, nil)

	closeWeather := domain.WeatherObservation{
		Lat: 41.40, Lon: 2.18,
		TemperatureC: floatPtr(16.0),
		Source:       domain.SourceUserSupplied,
	}
	closeTraffic := domain.TrafficObservation{
		Lat: 41.40, Lon: 2.18,
		JamFactor: floatPtr(2.0),
		Source:    domain.SourceUserSupplied,
	}

	result := uc.MatchSegments(context.Background(), testSegments(), ContextParams{
		UseProvider:      true,
		Provider:         provider,
		CorridorRadiusKm: 1.2,
		Weather:          []domain.WeatherObservation{closeWeather},
		Traffic:          []domain.TrafficObservation{closeTraffic},
	})

	require.Len(t, result, 1)

	// The realtime match stays with the close user observation, only the
	// forecast summary comes from the provider.
	weather := result[0].Weather
	assert.Equal(t, domain.SourceUserSupplied, weather.Source)
	require.NotNil(t, weather.TemperatureC)
	assert.Equal(t, 16.0, *weather.TemperatureC)
	require.NotNil(t, weather.Forecast)
	require.NotNil(t, weather.Forecast.WorstCaseScore)
	assert.InDelta(t, 2.1, *weather.Forecast.WorstCaseScore, 1e-9)

	assert.Equal(t, domain.SourceUserSupplied, result[0].Traffic.Source)
	provider.AssertNotCalled(t, "FetchTraffic", mock.Anything, mock.Anything, mock.Anything)
}

func TestMatchSegments_ProviderFailureDegrades(t *testing.T) {
	uc := NewContextUsecase(zap.NewNop(), 4)
	provider := new(MockContextProvider)

	providerErr := errors.New("upstream timeout")
	provider.On("FetchWeather", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, nil, providerErr)
	provider.On("FetchTraffic", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, providerErr)

	farObs := domain.WeatherObservation{
		Lat: 42.00, Lon: 3.00,
		TemperatureC: floatPtr(12.0),
		Source:       domain.SourceUserSupplied,
	}

	result := uc.MatchSegments(context.Background(), testSegments(), ContextParams{
		UseProvider:      true,
		Provider:         provider,
		CorridorRadiusKm: 1.2,
		Weather:          []domain.WeatherObservation{farObs},
	})

	require.Len(t, result, 1)

	// The far observation is kept with the provider error recorded.
	weather := result[0].Weather
	assert.Equal(t, domain.SourceUserSupplied, weather.Source)
	assert.Equal(t, "upstream timeout", weather.ProviderError)
	require.NotNil(t, weather.TemperatureC)
	assert.Equal(t, 12.0, *weather.TemperatureC)

	// Nothing local for traffic, so it degrades to unknown.
	traffic := result[0].Traffic
	assert.Equal(t, domain.ContextStatusUnknown, traffic.Status)
	assert.Equal(t, "upstream timeout", traffic.ProviderError)
}

func TestMatchSegments_TrafficForecastAttached(t *testing.T) {
	uc := NewContextUsecase(zap.NewNop(), 4)
	provider := new(MockContextProvider)
	departure := time.Date(2026, 8, 29, 8, 0, 0, 0, time.UTC)

	forecast := &domain.TrafficForecast{
		Status:      domain.ContextStatusForecasted,
		Source:      domain.SourceProviderSim,
		WindowHours: 24,
		IntervalMin: 120,
		Slots: []domain.TrafficForecastSlot{
			{DurationSeconds: 600, BaseDurationSeconds: 500, DelaySeconds: 100, DelayRatio: 1.2},
			{DurationSeconds: 900, BaseDurationSeconds: 500, DelaySeconds: 400, DelayRatio: 1.8},
		},
	}
	provider.On("FetchWeather", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&domain.WeatherContext{Status: domain.ContextStatusObserved, Source: domain.SourceProviderSim}, (*domain.WeatherForecast)(nil), nil)
	provider.On("FetchTraffic", mock.Anything, mock.Anything, mock.Anything).
		Return(&domain.TrafficContext{Status: domain.ContextStatusObserved, Source: domain.SourceProviderSim}, nil)
	provider.On("FetchTrafficForecast", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(forecast, nil)

	result := uc.MatchSegments(context.Background(), testSegments(), ContextParams{
		Departure:        &departure,
		UseProvider:      true,
		Provider:         provider,
		CorridorRadiusKm: 1.2,
	})

	require.Len(t, result, 1)
	traffic := result[0].Traffic
	require.NotNil(t, traffic.Forecast)

	// Worst case picks the slot with the highest delay ratio.
	require.NotNil(t, traffic.Forecast.WorstCaseDelayRatio)
	assert.InDelta(t, 1.8, *traffic.Forecast.WorstCaseDelayRatio, 1e-9)
	require.NotNil(t, traffic.Forecast.WorstCaseDelaySeconds)
	assert.Equal(t, 400, *traffic.Forecast.WorstCaseDelaySeconds)
	assert.Equal(t, 2, traffic.Forecast.EvaluatedSlots)
}

func TestSummarizeTrafficForecast_IndependentMaxima(t *testing.T) {
	forecast := &domain.TrafficForecast{
		Slots: []domain.TrafficForecastSlot{
			{DelaySeconds: 100, DelayRatio: 1.5},
			{DelaySeconds: 500, DelayRatio: 1.2},
		},
	}

	summarizeTrafficForecast(forecast)

	// The worst ratio and the worst absolute delay come from different slots.
	require.NotNil(t, forecast.WorstCaseDelayRatio)
	assert.InDelta(t, 1.5, *forecast.WorstCaseDelayRatio, 1e-9)
	require.NotNil(t, forecast.WorstCaseDelaySeconds)
	assert.Equal(t, 500, *forecast.WorstCaseDelaySeconds)
	assert.Equal(t, 2, forecast.EvaluatedSlots)
}

func TestSummarizeWeatherForecast(t *testing.T) {
	forecast := &domain.WeatherForecast{
		Slots: []domain.WeatherForecastSlot{
			{SeverityScore: 1.5},
			{SeverityScore: 7.2},
			{SeverityScore: 0.3},
		},
	}

	summarizeWeatherForecast(forecast)

	require.NotNil(t, forecast.WorstCaseScore)
	assert.InDelta(t, 7.2, *forecast.WorstCaseScore, 1e-9)
	assert.Equal(t, 3, forecast.EvaluatedSlots)
}

func TestMatchPoint_EqualDistanceTieBreaksByEarlierTimestamp(t *testing.T) {
	uc := NewContextUsecase(zap.NewNop(), 4)

	later := domain.WeatherObservation{
		Lat: 41.40, Lon: 2.19,
		Time:         time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC),
		TemperatureC: floatPtr(21.0),
		Source:       domain.SourceUserSupplied,
	}
	earlier := domain.WeatherObservation{
		Lat: 41.40, Lon: 2.17,
		Time:         time.Date(2026, 8, 29, 9, 0, 0, 0, time.UTC),
		TemperatureC: floatPtr(15.0),
		Source:       domain.SourceUserSupplied,
	}

	// No reference time, so the score is spatial only and both candidates
	// sit symmetrically around the query point.
	weather, _ := uc.matchPoint(context.Background(), 41.40, 2.18, nil, ContextParams{
		CorridorRadiusKm: 1.2,
		Weather:          []domain.WeatherObservation{later, earlier},
	})

	require.NotNil(t, weather)
	require.NotNil(t, weather.TemperatureC)
	assert.Equal(t, 15.0, *weather.TemperatureC)
}
