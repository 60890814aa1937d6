package dto

import (
	"time"

	"github.com/route-context-service/internal/domain"
)

// PointRequest - координаты точки в запросе
type PointRequest struct {
	Lat float64 `json:"lat" validate:"min=-90,max=90"`
	Lon float64 `json:"lon" validate:"min=-180,max=180"`
}

// CustomerRequest - клиент с объёмом заказа
type CustomerRequest struct {
	ID     string  `json:"id" validate:"required"`
	Lat    float64 `json:"lat" validate:"min=-90,max=90"`
	Lon    float64 `json:"lon" validate:"min=-180,max=180"`
	Demand float64 `json:"demand" validate:"min=0"`
}

// FleetRequest - параметры парка машин
type FleetRequest struct {
	Vehicles int     `json:"vehicles" validate:"required,min=1"`
	Capacity float64 `json:"capacity" validate:"required,gt=0"`
}

// CandidateLocationRequest - кандидат для семантического слоя
type CandidateLocationRequest struct {
	ID       string            `json:"id"`
	Name     *string           `json:"name,omitempty"`
	Lat      float64           `json:"lat" validate:"min=-90,max=90"`
	Lon      float64           `json:"lon" validate:"min=-180,max=180"`
	Category string            `json:"category,omitempty"`
	Tags     map[string]string `json:"tags,omitempty"`
}

// WeatherObservationRequest - пользовательское наблюдение погоды
type WeatherObservationRequest struct {
	Lat             float64  `json:"lat" validate:"min=-90,max=90"`
	Lon             float64  `json:"lon" validate:"min=-180,max=180"`
	TimeUTC         string   `json:"time_utc" validate:"required"`
	TemperatureC    *float64 `json:"temperature_c,omitempty"`
	PrecipitationMm *float64 `json:"precipitation_mm,omitempty"`
	WindKph         *float64 `json:"wind_kph,omitempty"`
	Condition       *string  `json:"condition,omitempty"`
}

// TrafficObservationRequest - пользовательское наблюдение трафика
type TrafficObservationRequest struct {
	Lat             float64  `json:"lat" validate:"min=-90,max=90"`
	Lon             float64  `json:"lon" validate:"min=-180,max=180"`
	TimeUTC         string   `json:"time_utc" validate:"required"`
	CongestionLevel *string  `json:"congestion_level,omitempty" validate:"omitempty,oneof=low medium high"`
	SpeedKmh        *float64 `json:"speed_kmh,omitempty"`
	JamFactor       *float64 `json:"jam_factor,omitempty"`
	IncidentCount   *int     `json:"incident_count,omitempty"`
}

// SemanticOptionsRequest - настройки семантического слоя, все поля опциональны
type SemanticOptionsRequest struct {
	CorridorRadiusKm *float64 `json:"corridor_radius_km,omitempty" validate:"omitempty,gt=0"`
	TopK             *int     `json:"top_k,omitempty" validate:"omitempty,min=1"`
	Categories       []string `json:"categories,omitempty"`
	AvgSpeedKmh      *float64 `json:"avg_speed_kmh,omitempty" validate:"omitempty,gt=0"`
}

// SolveRequest - запрос на построение и обогащение маршрутов
type SolveRequest struct {
	Depot                PointRequest                `json:"depot" validate:"required"`
	Customers            []CustomerRequest           `json:"customers" validate:"dive"`
	Fleet                FleetRequest                `json:"fleet" validate:"required"`
	DepartureTimeUTC     *string                     `json:"departure_time_utc,omitempty"`
	IncludeSemanticLayer *bool                       `json:"include_semantic_layer,omitempty"`
	CandidateLocations   []CandidateLocationRequest  `json:"candidate_locations,omitempty" validate:"dive"`
	Semantic             *SemanticOptionsRequest     `json:"semantic,omitempty"`
	WeatherObservations  []WeatherObservationRequest `json:"weather_observations,omitempty" validate:"dive"`
	TrafficObservations  []TrafficObservationRequest `json:"traffic_observations,omitempty" validate:"dive"`
	UseContextProvider   bool                        `json:"use_context_provider"`
	ProviderDataSource   string                      `json:"provider_data_source,omitempty" validate:"omitempty,oneof=live simulated"`
	PipelineMode         string                      `json:"pipeline_mode,omitempty" validate:"omitempty,oneof=postprocessing before_vrp"`
	ProviderTimeoutSec   *int                        `json:"provider_timeout_sec,omitempty" validate:"omitempty,min=1,max=120"`
	TrafficRadiusM       *int                        `json:"traffic_radius_m,omitempty" validate:"omitempty,min=50,max=10000"`
	ForecastWindowHours  *int                        `json:"forecast_window_hours,omitempty" validate:"omitempty,min=1,max=72"`
	ForecastIntervalMin  *int                        `json:"forecast_interval_min,omitempty" validate:"omitempty,min=30,max=720"`
}

// SemanticLayerEnabled: семантический слой включён по умолчанию,
// выключается явным include_semantic_layer=false.
func (r *SolveRequest) SemanticLayerEnabled() bool {
	return r.IncludeSemanticLayer == nil || *r.IncludeSemanticLayer
}

// ToCustomers converts request customers to domain customers.
func (r *SolveRequest) ToCustomers() []domain.Customer {
	customers := make([]domain.Customer, 0, len(r.Customers))
	for _, c := range r.Customers {
		customers = append(customers, domain.Customer{
			ID:     c.ID,
			Lat:    c.Lat,
			Lon:    c.Lon,
			Demand: c.Demand,
		})
	}
	return customers
}

// ToCandidates converts request candidates to domain candidates.
func (r *SolveRequest) ToCandidates() []domain.CandidateLocation {
	candidates := make([]domain.CandidateLocation, 0, len(r.CandidateLocations))
	for _, c := range r.CandidateLocations {
		candidates = append(candidates, domain.CandidateLocation{
			ID:       c.ID,
			Name:     c.Name,
			Lat:      c.Lat,
			Lon:      c.Lon,
			Category: c.Category,
			Tags:     c.Tags,
			Source:   "request",
		})
	}
	return candidates
}

// ParseDeparture returns the requested departure time or nil when absent.
func (r *SolveRequest) ParseDeparture() (*time.Time, error) {
	if r.DepartureTimeUTC == nil || *r.DepartureTimeUTC == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, *r.DepartureTimeUTC)
	if err != nil {
		return nil, err
	}
	utc := t.UTC()
	return &utc, nil
}

func parseObservationTime(raw string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// WeatherObservationFromRequest converts a standalone observation request.
func WeatherObservationFromRequest(req WeatherObservationRequest) (*domain.WeatherObservation, error) {
	t, err := parseObservationTime(req.TimeUTC)
	if err != nil {
		return nil, err
	}
	return &domain.WeatherObservation{
		Lat:             req.Lat,
		Lon:             req.Lon,
		Time:            t,
		TemperatureC:    req.TemperatureC,
		PrecipitationMm: req.PrecipitationMm,
		WindKph:         req.WindKph,
		Condition:       req.Condition,
		Source:          domain.SourceUserSupplied,
	}, nil
}

// TrafficObservationFromRequest converts a standalone observation request.
func TrafficObservationFromRequest(req TrafficObservationRequest) (*domain.TrafficObservation, error) {
	t, err := parseObservationTime(req.TimeUTC)
	if err != nil {
		return nil, err
	}
	return &domain.TrafficObservation{
		Lat:             req.Lat,
		Lon:             req.Lon,
		Time:            t,
		CongestionLevel: req.CongestionLevel,
		SpeedKmh:        req.SpeedKmh,
		JamFactor:       req.JamFactor,
		IncidentCount:   req.IncidentCount,
		Source:          domain.SourceUserSupplied,
	}, nil
}

// ToWeatherObservations converts request observations to domain observations.
func (r *SolveRequest) ToWeatherObservations() ([]domain.WeatherObservation, error) {
	observations := make([]domain.WeatherObservation, 0, len(r.WeatherObservations))
	for _, o := range r.WeatherObservations {
		t, err := parseObservationTime(o.TimeUTC)
		if err != nil {
			return nil, err
		}
		observations = append(observations, domain.WeatherObservation{
			Lat:             o.Lat,
			Lon:             o.Lon,
			Time:            t,
			TemperatureC:    o.TemperatureC,
			PrecipitationMm: o.PrecipitationMm,
			WindKph:         o.WindKph,
			Condition:       o.Condition,
			Source:          domain.SourceUserSupplied,
		})
	}
	return observations, nil
}

// ToTrafficObservations converts request observations to domain observations.
func (r *SolveRequest) ToTrafficObservations() ([]domain.TrafficObservation, error) {
	observations := make([]domain.TrafficObservation, 0, len(r.TrafficObservations))
	for _, o := range r.TrafficObservations {
		t, err := parseObservationTime(o.TimeUTC)
		if err != nil {
			return nil, err
		}
		observations = append(observations, domain.TrafficObservation{
			Lat:             o.Lat,
			Lon:             o.Lon,
			Time:            t,
			CongestionLevel: o.CongestionLevel,
			SpeedKmh:        o.SpeedKmh,
			JamFactor:       o.JamFactor,
			IncidentCount:   o.IncidentCount,
			Source:          domain.SourceUserSupplied,
		})
	}
	return observations, nil
}
