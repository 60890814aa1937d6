package domain

import "time"

// Segment - одно направленное ребро решённого маршрута с производными
// величинами: длина, середина, накопленное расстояние и ETA прибытия
// в конечную остановку.
type Segment struct {
	Index        int        `json:"segment_index"`
	FromStopID   string     `json:"from_stop_id"`
	ToStopID     string     `json:"to_stop_id"`
	Start        Point      `json:"start"`
	End          Point      `json:"end"`
	Midpoint     Point      `json:"midpoint"`
	DistanceKm   float64    `json:"distance_km"`
	CumulativeKm float64    `json:"cumulative_distance_km"`
	ETAMin       float64    `json:"eta_min_from_departure"`
	ETA          *time.Time `json:"eta_utc,omitempty"`
}

// WeatherContext - погодный контекст сегмента: сопоставленное наблюдение
// (или снимок провайдера) плюс сводка прогноза.
type WeatherContext struct {
	Status              string           `json:"status"`
	Source              string           `json:"source"`
	TemperatureC        *float64         `json:"temperature_c"`
	PrecipitationMm     *float64         `json:"precipitation_mm"`
	WindKph             *float64         `json:"wind_kph"`
	Condition           *string          `json:"condition"`
	ObservedAtUTC       *time.Time       `json:"observed_at_utc"`
	DistanceKmToSegment *float64         `json:"distance_km_to_segment,omitempty"`
	TimeOffsetMin       *float64         `json:"time_offset_min,omitempty"`
	ProviderError       string           `json:"provider_error,omitempty"`
	Forecast            *WeatherForecast `json:"forecast,omitempty"`
}

// TrafficContext - контекст трафика сегмента
type TrafficContext struct {
	Status              string           `json:"status"`
	Source              string           `json:"source"`
	CongestionLevel     *string          `json:"congestion_level"`
	SpeedKmh            *float64         `json:"speed_kmh"`
	JamFactor           *float64         `json:"jam_factor,omitempty"`
	IncidentCount       *int             `json:"incident_count"`
	ObservedAtUTC       *time.Time       `json:"observed_at_utc"`
	DistanceKmToSegment *float64         `json:"distance_km_to_segment,omitempty"`
	TimeOffsetMin       *float64         `json:"time_offset_min,omitempty"`
	ProviderError       string           `json:"provider_error,omitempty"`
	Forecast            *TrafficForecast `json:"forecast,omitempty"`
}

// SegmentContext объединяет сегмент с его погодным и транспортным
// контекстом. Создаётся этапом обогащения и после этого не мутируется.
type SegmentContext struct {
	Segment
	Weather *WeatherContext `json:"weather"`
	Traffic *TrafficContext `json:"traffic"`
}

// UnknownWeatherContext - контекст-заглушка при отсутствии данных
func UnknownWeatherContext(source string) *WeatherContext {
	return &WeatherContext{
		Status: ContextStatusUnknown,
		Source: source,
	}
}

// UnknownTrafficContext - контекст-заглушка при отсутствии данных
func UnknownTrafficContext(source string) *TrafficContext {
	return &TrafficContext{
		Status: ContextStatusUnknown,
		Source: source,
	}
}
