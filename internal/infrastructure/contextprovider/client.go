package contextprovider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/route-context-service/internal/config"
	"github.com/route-context-service/internal/domain"
	"github.com/route-context-service/internal/domain/repository"
)

const minForecastIntervalMin = 30

type client struct {
	httpClient *http.Client
	cfg        config.ProviderConfig
	cache      repository.CacheRepository
	logger     *zap.Logger

	cacheHits      atomic.Int64
	httpRequests   atomic.Int64
	weatherQueries atomic.Int64
	trafficQueries atomic.Int64
	routingQueries atomic.Int64
	errorCount     atomic.Int64
}

// NewLiveClient создает клиент живого контекст-провайдера. cache может
// быть nil, тогда каждый вызов уходит по сети.
func NewLiveClient(cfg config.ProviderConfig, cache repository.CacheRepository, logger *zap.Logger) repository.ContextProvider {
	if cfg.ForecastIntervalMin < minForecastIntervalMin {
		cfg.ForecastIntervalMin = minForecastIntervalMin
	}
	return &client{
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		cfg:        cfg,
		cache:      cache,
		logger:     logger,
	}
}

// weatherAPIResponse - схема ответа погодного эндпоинта
type weatherAPIResponse struct {
	Current struct {
		TemperatureC    *float64 `json:"temperature_c"`
		PrecipitationMm *float64 `json:"precipitation_mm"`
		WindKph         *float64 `json:"wind_kph"`
		Condition       *string  `json:"condition"`
		ObservedAtUTC   *string  `json:"observed_at_utc"`
	} `json:"current"`
	Hourly []struct {
		StartUTC                 string   `json:"start_utc"`
		TemperatureC             *float64 `json:"temperature_c"`
		PrecipitationMm          *float64 `json:"precipitation_mm"`
		PrecipitationProbability *float64 `json:"precipitation_probability"`
		WindKph                  *float64 `json:"wind_kph"`
		Condition                *string  `json:"condition"`
	} `json:"hourly"`
}

// trafficAPIResponse - схема ответа транспортного эндпоинта
type trafficAPIResponse struct {
	JamFactor     *float64 `json:"jam_factor"`
	SpeedKmh      *float64 `json:"speed_kmh"`
	IncidentCount *int     `json:"incident_count"`
	ObservedAtUTC *string  `json:"observed_at_utc"`
}

// routingAPIResponse - схема ответа маршрутного эндпоинта
type routingAPIResponse struct {
	DurationSeconds     int `json:"duration_seconds"`
	BaseDurationSeconds int `json:"base_duration_seconds"`
}

func (c *client) FetchWeather(ctx context.Context, lat, lon float64, at time.Time) (*domain.WeatherContext, *domain.WeatherForecast, error) {
	c.weatherQueries.Add(1)

	hours := c.cfg.ForecastWindowHours
	url := fmt.Sprintf("%s/v1/weather?lat=%.5f&lon=%.5f&at=%s&forecast_hours=%d&key=%s",
		c.cfg.WeatherBaseURL, lat, lon, at.UTC().Format(time.RFC3339), hours, c.cfg.APIKey)
	cacheKey := fmt.Sprintf("provider:weather:%.3f:%.3f:%d", lat, lon, at.UTC().Truncate(time.Hour).Unix())

	var apiResp weatherAPIResponse
	if err := c.getJSON(ctx, url, cacheKey, &apiResp); err != nil {
		c.errorCount.Add(1)
		return nil, nil, err
	}

	weather := &domain.WeatherContext{
		Status:          domain.ContextStatusForecasted,
		Source:          domain.SourceProviderLive,
		TemperatureC:    apiResp.Current.TemperatureC,
		PrecipitationMm: apiResp.Current.PrecipitationMm,
		WindKph:         apiResp.Current.WindKph,
		Condition:       apiResp.Current.Condition,
	}
	if apiResp.Current.ObservedAtUTC != nil {
		if t, err := time.Parse(time.RFC3339, *apiResp.Current.ObservedAtUTC); err == nil {
			utc := t.UTC()
			weather.ObservedAtUTC = &utc
			weather.Status = domain.ContextStatusObserved
		}
	}

	forecast := &domain.WeatherForecast{
		Status:      domain.ContextStatusForecasted,
		Source:      domain.SourceProviderLive,
		WindowHours: hours,
		IntervalMin: c.cfg.ForecastIntervalMin,
	}
	for _, h := range apiResp.Hourly {
		start, err := time.Parse(time.RFC3339, h.StartUTC)
		if err != nil {
			continue
		}
		condition := ""
		if h.Condition != nil {
			condition = *h.Condition
		}
		forecast.Slots = append(forecast.Slots, domain.WeatherForecastSlot{
			StartUTC:                 start.UTC(),
			EndUTC:                   start.UTC().Add(time.Duration(c.cfg.ForecastIntervalMin) * time.Minute),
			TemperatureC:             h.TemperatureC,
			PrecipitationMm:          h.PrecipitationMm,
			PrecipitationProbability: h.PrecipitationProbability,
			WindKph:                  h.WindKph,
			Condition:                condition,
			SeverityScore:            domain.WeatherSeverityScore(condition, h.PrecipitationMm, h.WindKph, h.PrecipitationProbability),
		})
	}
	if len(forecast.Slots) == 0 {
		forecast = domain.UnknownWeatherForecast(hours, c.cfg.ForecastIntervalMin, domain.SourceProviderLive)
	}

	return weather, forecast, nil
}

func (c *client) FetchTraffic(ctx context.Context, lat, lon float64) (*domain.TrafficContext, error) {
	c.trafficQueries.Add(1)

	url := fmt.Sprintf("%s/v1/traffic/flow?lat=%.5f&lon=%.5f&radius_m=%d&key=%s",
		c.cfg.TrafficBaseURL, lat, lon, c.cfg.TrafficRadiusM, c.cfg.APIKey)
	cacheKey := fmt.Sprintf("provider:traffic:%.3f:%.3f", lat, lon)

	var apiResp trafficAPIResponse
	if err := c.getJSON(ctx, url, cacheKey, &apiResp); err != nil {
		c.errorCount.Add(1)
		return nil, err
	}

	traffic := &domain.TrafficContext{
		Status:          domain.ContextStatusObserved,
		Source:          domain.SourceProviderLive,
		CongestionLevel: domain.CongestionLevelFromJamFactor(apiResp.JamFactor),
		SpeedKmh:        apiResp.SpeedKmh,
		JamFactor:       apiResp.JamFactor,
		IncidentCount:   apiResp.IncidentCount,
	}
	if apiResp.ObservedAtUTC != nil {
		if t, err := time.Parse(time.RFC3339, *apiResp.ObservedAtUTC); err == nil {
			utc := t.UTC()
			traffic.ObservedAtUTC = &utc
		}
	}
	return traffic, nil
}

// FetchTrafficForecast делает по одному маршрутному запросу на слот окна
// прогноза, меняя время выезда.
func (c *client) FetchTrafficForecast(ctx context.Context, origin, destination domain.Point, at time.Time) (*domain.TrafficForecast, error) {
	hours := c.cfg.ForecastWindowHours
	interval := c.cfg.ForecastIntervalMin
	slots := domain.ForecastSlotCount(hours, interval)

	forecast := &domain.TrafficForecast{
		Status:      domain.ContextStatusForecasted,
		Source:      domain.SourceProviderLive,
		WindowHours: hours,
		IntervalMin: interval,
	}

	for i := 0; i < slots; i++ {
		departure := at.UTC().Add(time.Duration(i*interval) * time.Minute)
		c.routingQueries.Add(1)

		url := fmt.Sprintf("%s/v1/route?from=%.5f,%.5f&to=%.5f,%.5f&departure=%s&key=%s",
			c.cfg.RoutingBaseURL,
			origin.Lat, origin.Lon,
			destination.Lat, destination.Lon,
			departure.Format(time.RFC3339), c.cfg.APIKey)
		cacheKey := fmt.Sprintf("provider:route:%.3f:%.3f:%.3f:%.3f:%d",
			origin.Lat, origin.Lon, destination.Lat, destination.Lon, departure.Unix())

		var apiResp routingAPIResponse
		if err := c.getJSON(ctx, url, cacheKey, &apiResp); err != nil {
			c.errorCount.Add(1)
			// One failed slot invalidates the whole forecast, partial
			// windows would skew the worst case summary.
			return nil, err
		}

		delay := apiResp.DurationSeconds - apiResp.BaseDurationSeconds
		ratio := 1.0
		if apiResp.BaseDurationSeconds > 0 {
			ratio = float64(apiResp.DurationSeconds) / float64(apiResp.BaseDurationSeconds)
		}
		forecast.Slots = append(forecast.Slots, domain.TrafficForecastSlot{
			DepartureUTC:        departure,
			DurationSeconds:     apiResp.DurationSeconds,
			BaseDurationSeconds: apiResp.BaseDurationSeconds,
			DelaySeconds:        delay,
			DelayRatio:          ratio,
		})
	}

	return forecast, nil
}

func (c *client) Stats() domain.ProviderStats {
	return domain.ProviderStats{
		CacheHits:      c.cacheHits.Load(),
		HTTPRequests:   c.httpRequests.Load(),
		WeatherQueries: c.weatherQueries.Load(),
		TrafficQueries: c.trafficQueries.Load(),
		RoutingQueries: c.routingQueries.Load(),
		Errors:         c.errorCount.Load(),
	}
}

// getJSON достает ответ из кеша снимков или делает HTTP-запрос и кеширует
// сырой ответ.
func (c *client) getJSON(ctx context.Context, url, cacheKey string, out interface{}) error {
	if c.cache != nil {
		if cached, err := c.cache.Get(ctx, cacheKey); err == nil && len(cached) > 0 {
			if err := json.Unmarshal(cached, out); err == nil {
				c.cacheHits.Add(1)
				return nil
			}
		}
	}

	c.httpRequests.Add(1)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.Error("context provider returned error",
			zap.Int("status_code", resp.StatusCode),
			zap.String("body", string(body)))
		return fmt.Errorf("provider error: status %d", resp.StatusCode)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, cacheKey, body, c.cfg.SnapshotCacheTTL); err != nil {
			c.logger.Warn("failed to cache provider snapshot", zap.String("key", cacheKey), zap.Error(err))
		}
	}
	return nil
}
