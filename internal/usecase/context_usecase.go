package usecase

import (
	"context"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/route-context-service/internal/domain"
	"github.com/route-context-service/internal/domain/repository"
	"github.com/route-context-service/internal/pkg/utils"
)

// matchTimeWeightMin normalizes the temporal offset against the spatial
// distance: 90 minutes of offset weigh as much as one kilometer.
const matchTimeWeightMin = 90.0

// matchEpsilonKm absorbs floating point noise in haversine distances so
// that symmetric observations actually tie.
const matchEpsilonKm = 1e-9

// ContextParams - параметры сопоставления наблюдений с маршрутом.
// Provider выбирается на уровне запроса (live или simulated).
type ContextParams struct {
	Departure        *time.Time
	UseProvider      bool
	Provider         repository.ContextProvider
	CorridorRadiusKm float64
	Weather          []domain.WeatherObservation
	Traffic          []domain.TrafficObservation
}

// ContextUsecase - сопоставление погодно-транспортного контекста сегментам
type ContextUsecase struct {
	logger      *zap.Logger
	concurrency int
}

// NewContextUsecase - создание нового ContextUsecase
func NewContextUsecase(logger *zap.Logger, concurrency int) *ContextUsecase {
	if concurrency < 1 {
		concurrency = 1
	}
	return &ContextUsecase{
		logger:      logger,
		concurrency: concurrency,
	}
}

// MatchSegments attaches weather and traffic context to every segment.
// Segments are processed concurrently under a bounded semaphore; a provider
// failure degrades only the segment it happened on.
func (uc *ContextUsecase) MatchSegments(ctx context.Context, segments []domain.Segment, params ContextParams) []domain.SegmentContext {
	result := make([]domain.SegmentContext, len(segments))
	sem := make(chan struct{}, uc.concurrency)
	var wg sync.WaitGroup

	for i := range segments {
		wg.Add(1)
		sem <- struct{}{}
		go func(idx int) {
			defer wg.Done()
			defer func() { <-sem }()

			seg := segments[idx]
			at := segmentTime(seg, params.Departure)
			weather, traffic := uc.matchPoint(ctx, seg.Midpoint.Lat, seg.Midpoint.Lon, at, params)
			if params.UseProvider && params.Provider != nil && at != nil {
				uc.attachTrafficForecast(ctx, params.Provider, traffic, seg, *at)
			}
			result[idx] = domain.SegmentContext{
				Segment: seg,
				Weather: weather,
				Traffic: traffic,
			}
		}(i)
	}
	wg.Wait()

	return result
}

func segmentTime(seg domain.Segment, departure *time.Time) *time.Time {
	if departure == nil {
		return nil
	}
	t := departure.Add(time.Duration(seg.ETAMin * float64(time.Minute)))
	return &t
}

func (uc *ContextUsecase) matchPoint(ctx context.Context, lat, lon float64, at *time.Time, params ContextParams) (*domain.WeatherContext, *domain.TrafficContext) {
	weather := uc.matchWeather(ctx, lat, lon, at, params)
	traffic := uc.matchTraffic(ctx, lat, lon, at, params)
	return weather, traffic
}

func (uc *ContextUsecase) matchWeather(ctx context.Context, lat, lon float64, at *time.Time, params ContextParams) *domain.WeatherContext {
	best, spatial, offset := bestWeatherObservation(params.Weather, lat, lon, at)

	var matched *domain.WeatherContext
	if best != nil {
		observedAt := best.Time
		matched = &domain.WeatherContext{
			Status:              domain.ContextStatusObserved,
			Source:              best.Source,
			TemperatureC:        best.TemperatureC,
			PrecipitationMm:     best.PrecipitationMm,
			WindKph:             best.WindKph,
			Condition:           best.Condition,
			ObservedAtUTC:       &observedAt,
			DistanceKmToSegment: floatPtr(spatial),
		}
		if offset != nil {
			matched.TimeOffsetMin = floatPtr(*offset)
		}
	}

	if !uc.shouldQueryProvider(params, best, spatial, offset) {
		result := matched
		if result == nil {
			result = domain.UnknownWeatherContext(domain.SourceNotProvided)
		}
		// The forecast summary is part of the segment contract whenever the
		// provider is on, no matter which realtime match won.
		if params.UseProvider && params.Provider != nil {
			uc.attachWeatherForecast(ctx, params.Provider, result, lat, lon, at)
		}
		return result
	}

	queryAt := time.Now().UTC()
	if at != nil {
		queryAt = *at
	}
	provided, forecast, err := params.Provider.FetchWeather(ctx, lat, lon, queryAt)
	if err != nil {
		uc.logger.Warn("weather provider query failed, degrading to best local match",
			zap.Float64("lat", lat),
			zap.Float64("lon", lon),
			zap.Error(err))
		if matched != nil {
			matched.ProviderError = err.Error()
			return matched
		}
		unknown := domain.UnknownWeatherContext(domain.SourceNotProvided)
		unknown.ProviderError = err.Error()
		return unknown
	}
	if forecast != nil {
		summarizeWeatherForecast(forecast)
	}
	provided.Forecast = forecast
	return provided
}

func (uc *ContextUsecase) matchTraffic(ctx context.Context, lat, lon float64, at *time.Time, params ContextParams) *domain.TrafficContext {
	best, spatial, offset := bestTrafficObservation(params.Traffic, lat, lon, at)

	var matched *domain.TrafficContext
	if best != nil {
		observedAt := best.Time
		level := best.CongestionLevel
		if level == nil {
			level = domain.CongestionLevelFromJamFactor(best.JamFactor)
		}
		matched = &domain.TrafficContext{
			Status:              domain.ContextStatusObserved,
			Source:              best.Source,
			CongestionLevel:     level,
			SpeedKmh:            best.SpeedKmh,
			JamFactor:           best.JamFactor,
			IncidentCount:       best.IncidentCount,
			ObservedAtUTC:       &observedAt,
			DistanceKmToSegment: floatPtr(spatial),
		}
		if offset != nil {
			matched.TimeOffsetMin = floatPtr(*offset)
		}
	}

	needProvider := params.UseProvider && params.Provider != nil &&
		(best == nil ||
			spatial > 2*params.CorridorRadiusKm ||
			(offset != nil && math.Abs(*offset) > matchTimeWeightMin))
	if !needProvider {
		if matched != nil {
			return matched
		}
		return domain.UnknownTrafficContext(domain.SourceNotProvided)
	}

	provided, err := params.Provider.FetchTraffic(ctx, lat, lon)
	if err != nil {
		uc.logger.Warn("traffic provider query failed, degrading to best local match",
			zap.Float64("lat", lat),
			zap.Float64("lon", lon),
			zap.Error(err))
		if matched != nil {
			matched.ProviderError = err.Error()
			return matched
		}
		unknown := domain.UnknownTrafficContext(domain.SourceNotProvided)
		unknown.ProviderError = err.Error()
		return unknown
	}
	return provided
}

// attachWeatherForecast дозапрашивает прогноз, когда сопоставление выиграло
// пользовательское наблюдение. Текущая сводка провайдера при этом
// отбрасывается.
func (uc *ContextUsecase) attachWeatherForecast(ctx context.Context, provider repository.ContextProvider, weather *domain.WeatherContext, lat, lon float64, at *time.Time) {
	queryAt := time.Now().UTC()
	if at != nil {
		queryAt = *at
	}
	_, forecast, err := provider.FetchWeather(ctx, lat, lon, queryAt)
	if err != nil {
		uc.logger.Warn("weather forecast query failed",
			zap.Float64("lat", lat),
			zap.Float64("lon", lon),
			zap.Error(err))
		if weather.ProviderError == "" {
			weather.ProviderError = err.Error()
		}
		return
	}
	if forecast != nil {
		summarizeWeatherForecast(forecast)
	}
	weather.Forecast = forecast
}

func (uc *ContextUsecase) attachTrafficForecast(ctx context.Context, provider repository.ContextProvider, traffic *domain.TrafficContext, seg domain.Segment, at time.Time) {
	if traffic == nil {
		return
	}
	forecast, err := provider.FetchTrafficForecast(ctx, seg.Start, seg.End, at)
	if err != nil {
		uc.logger.Warn("traffic forecast query failed",
			zap.Int("segment", seg.Index),
			zap.Error(err))
		if traffic.ProviderError == "" {
			traffic.ProviderError = err.Error()
		}
		return
	}
	if forecast != nil {
		summarizeTrafficForecast(forecast)
	}
	traffic.Forecast = forecast
}

// shouldQueryProvider decides whether a matched user observation is close
// enough in space and time, or whether the provider has to be asked.
func (uc *ContextUsecase) shouldQueryProvider(params ContextParams, best *domain.WeatherObservation, spatial float64, offset *float64) bool {
	if !params.UseProvider || params.Provider == nil {
		return false
	}
	if best == nil {
		return true
	}
	if spatial > 2*params.CorridorRadiusKm {
		return true
	}
	if offset != nil && math.Abs(*offset) > matchTimeWeightMin {
		return true
	}
	return false
}

func bestWeatherObservation(observations []domain.WeatherObservation, lat, lon float64, at *time.Time) (*domain.WeatherObservation, float64, *float64) {
	var best *domain.WeatherObservation
	bestScore := math.Inf(1)
	bestSpatial := 0.0
	var bestOffset *float64

	for i := range observations {
		o := &observations[i]
		spatial := utils.HaversineDistance(lat, lon, o.Lat, o.Lon)
		score := spatial
		var offset *float64
		if at != nil {
			minutes := o.Time.Sub(*at).Minutes()
			offset = floatPtr(minutes)
			score += math.Abs(minutes) / matchTimeWeightMin
		}
		if betterMatch(score, spatial, o.Time, best == nil, bestScore, bestSpatial, bestTime(best)) {
			best = o
			bestScore = score
			bestSpatial = spatial
			bestOffset = offset
		}
	}
	return best, bestSpatial, bestOffset
}

func bestTrafficObservation(observations []domain.TrafficObservation, lat, lon float64, at *time.Time) (*domain.TrafficObservation, float64, *float64) {
	var best *domain.TrafficObservation
	bestScore := math.Inf(1)
	bestSpatial := 0.0
	var bestOffset *float64

	for i := range observations {
		o := &observations[i]
		spatial := utils.HaversineDistance(lat, lon, o.Lat, o.Lon)
		score := spatial
		var offset *float64
		if at != nil {
			minutes := o.Time.Sub(*at).Minutes()
			offset = floatPtr(minutes)
			score += math.Abs(minutes) / matchTimeWeightMin
		}
		if betterMatch(score, spatial, o.Time, best == nil, bestScore, bestSpatial, bestTrafficTime(best)) {
			best = o
			bestScore = score
			bestSpatial = spatial
			bestOffset = offset
		}
	}
	return best, bestSpatial, bestOffset
}

// betterMatch: минимальный score, при равенстве ближе по расстоянию,
// дальше ранний timestamp.
func betterMatch(score, spatial float64, at time.Time, noBest bool, bestScore, bestSpatial float64, bestAt time.Time) bool {
	if noBest || score < bestScore-matchEpsilonKm {
		return true
	}
	if score > bestScore+matchEpsilonKm {
		return false
	}
	if math.Abs(spatial-bestSpatial) > matchEpsilonKm {
		return spatial < bestSpatial
	}
	return at.Before(bestAt)
}

func bestTime(o *domain.WeatherObservation) time.Time {
	if o == nil {
		return time.Time{}
	}
	return o.Time
}

func bestTrafficTime(o *domain.TrafficObservation) time.Time {
	if o == nil {
		return time.Time{}
	}
	return o.Time
}

func summarizeWeatherForecast(f *domain.WeatherForecast) {
	if len(f.Slots) == 0 {
		return
	}
	worst := 0.0
	for _, slot := range f.Slots {
		if slot.SeverityScore > worst {
			worst = slot.SeverityScore
		}
	}
	f.WorstCaseScore = floatPtr(worst)
	f.EvaluatedSlots = len(f.Slots)
}

func summarizeTrafficForecast(f *domain.TrafficForecast) {
	if len(f.Slots) == 0 {
		return
	}
	worstRatio := math.Inf(-1)
	worstDelay := 0
	for _, slot := range f.Slots {
		if slot.DelayRatio > worstRatio {
			worstRatio = slot.DelayRatio
		}
		// Worst ratio and worst absolute delay may come from different
		// slots, the two maxima are tracked independently.
		if slot.DelaySeconds > worstDelay {
			worstDelay = slot.DelaySeconds
		}
	}
	f.WorstCaseDelayRatio = floatPtr(worstRatio)
	f.WorstCaseDelaySeconds = &worstDelay
	f.EvaluatedSlots = len(f.Slots)
}

func floatPtr(v float64) *float64 {
	return &v
}
