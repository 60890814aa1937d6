package contextprovider

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math"
	"math/rand"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/route-context-service/internal/config"
	"github.com/route-context-service/internal/domain"
	"github.com/route-context-service/internal/domain/repository"
	"github.com/route-context-service/internal/pkg/utils"
)

// simulator - детерминированный провайдер без сети. Одинаковые координаты
// и часовой интервал всегда дают одинаковый ответ, что делает прогоны
// воспроизводимыми.
type simulator struct {
	cfg    config.ProviderConfig
	logger *zap.Logger

	weatherQueries atomic.Int64
	trafficQueries atomic.Int64
	routingQueries atomic.Int64
}

// NewSimulator создает симулированный контекст-провайдер
func NewSimulator(cfg config.ProviderConfig, logger *zap.Logger) repository.ContextProvider {
	if cfg.SimulatorSeed == "" {
		cfg.SimulatorSeed = "route-context"
	}
	if cfg.ForecastIntervalMin < minForecastIntervalMin {
		cfg.ForecastIntervalMin = minForecastIntervalMin
	}
	return &simulator{cfg: cfg, logger: logger}
}

// rngFor выдает ГПСЧ, засеянный хешем от координат (округлённых до
// ~1 км) и часового интервала.
func (s *simulator) rngFor(kind string, lat, lon float64, at time.Time) *rand.Rand {
	bucket := at.UTC().Truncate(time.Hour).Unix()
	key := fmt.Sprintf("%s:%s:%.2f:%.2f:%d", s.cfg.SimulatorSeed, kind, lat, lon, bucket)
	sum := sha256.Sum256([]byte(key))
	seed := int64(binary.BigEndian.Uint64(sum[:8]))
	return rand.New(rand.NewSource(seed))
}

func (s *simulator) FetchWeather(_ context.Context, lat, lon float64, at time.Time) (*domain.WeatherContext, *domain.WeatherForecast, error) {
	s.weatherQueries.Add(1)

	weather := s.weatherAt(lat, lon, at)
	weather.Status = domain.ContextStatusObserved
	observedAt := at.UTC().Truncate(time.Hour)
	weather.ObservedAtUTC = &observedAt

	forecast := &domain.WeatherForecast{
		Status:      domain.ContextStatusForecasted,
		Source:      domain.SourceProviderSim,
		WindowHours: s.cfg.ForecastWindowHours,
		IntervalMin: s.cfg.ForecastIntervalMin,
	}
	slots := domain.ForecastSlotCount(s.cfg.ForecastWindowHours, s.cfg.ForecastIntervalMin)
	for i := 0; i < slots; i++ {
		start := at.UTC().Add(time.Duration(i*s.cfg.ForecastIntervalMin) * time.Minute)
		slot := s.weatherAt(lat, lon, start)
		condition := ""
		if slot.Condition != nil {
			condition = *slot.Condition
		}
		rng := s.rngFor("precip-prob", lat, lon, start)
		probability := clamp01(rng.Float64()*0.4 + precipToProb(slot.PrecipitationMm))
		forecast.Slots = append(forecast.Slots, domain.WeatherForecastSlot{
			StartUTC:                 start,
			EndUTC:                   start.Add(time.Duration(s.cfg.ForecastIntervalMin) * time.Minute),
			TemperatureC:             slot.TemperatureC,
			PrecipitationMm:          slot.PrecipitationMm,
			PrecipitationProbability: &probability,
			WindKph:                  slot.WindKph,
			Condition:                condition,
			SeverityScore:            domain.WeatherSeverityScore(condition, slot.PrecipitationMm, slot.WindKph, &probability),
		})
	}

	return weather, forecast, nil
}

// weatherAt строит погодный снимок для точки и момента времени: суточная
// синусоида температуры плюс шум, осадки с вероятностью ~25%.
func (s *simulator) weatherAt(lat, lon float64, at time.Time) *domain.WeatherContext {
	rng := s.rngFor("weather", lat, lon, at)
	hour := float64(at.UTC().Hour())

	temperature := 12.0 + 8.0*math.Sin((hour-9.0)/24.0*2.0*math.Pi) + rng.NormFloat64()*2.0
	wind := math.Abs(14.0 + rng.NormFloat64()*9.0)

	precipitation := 0.0
	condition := "clear"
	roll := rng.Float64()
	switch {
	case roll < 0.05:
		precipitation = 4.0 + rng.Float64()*8.0
		condition = "heavy rain"
	case roll < 0.15:
		precipitation = 0.8 + rng.Float64()*3.0
		condition = "rain"
	case roll < 0.25:
		precipitation = rng.Float64() * 0.6
		condition = "light drizzle"
	case roll < 0.35:
		condition = "fog"
	case roll < 0.60:
		condition = "partly cloudy"
	}
	if temperature < 0 && precipitation > 0 {
		condition = "snow"
	}

	temperature = roundSim(temperature)
	precipitation = roundSim(precipitation)
	wind = roundSim(wind)

	return &domain.WeatherContext{
		Status:          domain.ContextStatusForecasted,
		Source:          domain.SourceProviderSim,
		TemperatureC:    &temperature,
		PrecipitationMm: &precipitation,
		WindKph:         &wind,
		Condition:       &condition,
	}
}

func (s *simulator) FetchTraffic(_ context.Context, lat, lon float64) (*domain.TrafficContext, error) {
	s.trafficQueries.Add(1)

	now := time.Now().UTC()
	traffic := s.trafficAt(lat, lon, now)
	observedAt := now.Truncate(time.Hour)
	traffic.ObservedAtUTC = &observedAt
	return traffic, nil
}

// trafficAt строит транспортный снимок: базовая загрузка с гауссовыми
// пиками в утренний и вечерний час пик. Около 30% ответов приходит без
// данных о скорости и инцидентах, как у реальных flow-эндпоинтов на
// малозагруженных дорогах.
func (s *simulator) trafficAt(lat, lon float64, at time.Time) *domain.TrafficContext {
	rng := s.rngFor("traffic", lat, lon, at)
	hour := float64(at.UTC().Hour()) + float64(at.UTC().Minute())/60.0

	jam := 1.5 +
		4.0*math.Exp(-math.Pow(hour-8.5, 2)/3.0) +
		5.0*math.Exp(-math.Pow(hour-18.0, 2)/3.0) +
		rng.NormFloat64()*1.2
	if jam < 0 {
		jam = 0
	}
	if jam > 10 {
		jam = 10
	}
	jam = roundSim(jam)

	traffic := &domain.TrafficContext{
		Status:          domain.ContextStatusObserved,
		Source:          domain.SourceProviderSim,
		JamFactor:       &jam,
		CongestionLevel: domain.CongestionLevelFromJamFactor(&jam),
	}

	// Sparse flow: speed and incident fields are omitted on a 30% roll.
	if rng.Float64() >= 0.3 {
		speed := roundSim(math.Max(5.0, 62.0-jam*5.0+rng.NormFloat64()*6.0))
		incidents := 0
		if jam > 6.5 {
			incidents = rng.Intn(3) + 1
		}
		traffic.SpeedKmh = &speed
		traffic.IncidentCount = &incidents
	}

	return traffic
}

func (s *simulator) FetchTrafficForecast(_ context.Context, origin, destination domain.Point, at time.Time) (*domain.TrafficForecast, error) {
	forecast := &domain.TrafficForecast{
		Status:      domain.ContextStatusForecasted,
		Source:      domain.SourceProviderSim,
		WindowHours: s.cfg.ForecastWindowHours,
		IntervalMin: s.cfg.ForecastIntervalMin,
	}

	distanceKm := utils.HaversineDistance(origin.Lat, origin.Lon, destination.Lat, destination.Lon)
	baseSeconds := int(distanceKm / 45.0 * 3600.0)
	if baseSeconds < 30 {
		baseSeconds = 30
	}
	midLat, midLon := utils.Midpoint(origin.Lat, origin.Lon, destination.Lat, destination.Lon)

	slots := domain.ForecastSlotCount(s.cfg.ForecastWindowHours, s.cfg.ForecastIntervalMin)
	for i := 0; i < slots; i++ {
		departure := at.UTC().Add(time.Duration(i*s.cfg.ForecastIntervalMin) * time.Minute)
		s.routingQueries.Add(1)

		traffic := s.trafficAt(midLat, midLon, departure)
		jam := *traffic.JamFactor
		duration := int(float64(baseSeconds) * (1.0 + jam/10.0*0.8))

		forecast.Slots = append(forecast.Slots, domain.TrafficForecastSlot{
			DepartureUTC:        departure,
			DurationSeconds:     duration,
			BaseDurationSeconds: baseSeconds,
			DelaySeconds:        duration - baseSeconds,
			DelayRatio:          float64(duration) / float64(baseSeconds),
		})
	}

	return forecast, nil
}

func (s *simulator) Stats() domain.ProviderStats {
	return domain.ProviderStats{
		WeatherQueries: s.weatherQueries.Load(),
		TrafficQueries: s.trafficQueries.Load(),
		RoutingQueries: s.routingQueries.Load(),
		Simulated:      true,
	}
}

func roundSim(v float64) float64 {
	return math.Round(v*10) / 10
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func precipToProb(precipitation *float64) float64 {
	if precipitation == nil || *precipitation <= 0 {
		return 0.05
	}
	return clamp01(0.3 + *precipitation/10.0)
}
