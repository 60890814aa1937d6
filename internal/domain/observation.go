package domain

import (
	"math"
	"strings"
	"time"
)

// WeatherObservation - точечное наблюдение погоды, поставляется вызывающей
// стороной или внешним провайдером. Для ядра данные read-only.
type WeatherObservation struct {
	Lat             float64   `json:"lat"`
	Lon             float64   `json:"lon"`
	Time            time.Time `json:"time_utc"`
	TemperatureC    *float64  `json:"temperature_c,omitempty"`
	PrecipitationMm *float64  `json:"precipitation_mm,omitempty"`
	WindKph         *float64  `json:"wind_kph,omitempty"`
	Condition       *string   `json:"condition,omitempty"`
	Source          string    `json:"source,omitempty"`
}

// TrafficObservation - точечное наблюдение трафика
type TrafficObservation struct {
	Lat             float64   `json:"lat"`
	Lon             float64   `json:"lon"`
	Time            time.Time `json:"time_utc"`
	CongestionLevel *string   `json:"congestion_level,omitempty"`
	SpeedKmh        *float64  `json:"speed_kmh,omitempty"`
	JamFactor       *float64  `json:"jam_factor,omitempty"`
	IncidentCount   *int      `json:"incident_count,omitempty"`
	Source          string    `json:"source,omitempty"`
}

// WeatherForecastSlot - один слот погодного прогноза
type WeatherForecastSlot struct {
	StartUTC                 time.Time `json:"start_utc"`
	EndUTC                   time.Time `json:"end_utc"`
	TemperatureC             *float64  `json:"temperature_c,omitempty"`
	PrecipitationMm          *float64  `json:"precipitation_mm,omitempty"`
	PrecipitationProbability *float64  `json:"precipitation_probability,omitempty"`
	WindKph                  *float64  `json:"wind_kph,omitempty"`
	Condition                string    `json:"condition,omitempty"`
	SeverityScore            float64   `json:"severity_score"`
}

// TrafficForecastSlot - один слот прогноза трафика для сегмента
type TrafficForecastSlot struct {
	DepartureUTC        time.Time `json:"departure_utc"`
	DurationSeconds     int       `json:"duration_seconds"`
	BaseDurationSeconds int       `json:"base_duration_seconds"`
	DelaySeconds        int       `json:"delay_seconds"`
	DelayRatio          float64   `json:"delay_ratio"`
}

// WeatherForecast - сводка прогноза погоды за окно: худший случай по
// severity score и полная последовательность слотов для инспекции.
type WeatherForecast struct {
	Status         string                `json:"status"`
	Source         string                `json:"source"`
	WindowHours    int                   `json:"window_hours"`
	IntervalMin    int                   `json:"interval_min"`
	WorstCaseScore *float64              `json:"worst_case_score"`
	Slots          []WeatherForecastSlot `json:"slots,omitempty"`
	EvaluatedSlots int                   `json:"evaluated_slots"`
}

// TrafficForecast - сводка прогноза трафика за окно: худшие delay ratio и
// delay seconds плюс все слоты.
type TrafficForecast struct {
	Status                string                `json:"status"`
	Source                string                `json:"source"`
	WindowHours           int                   `json:"window_hours"`
	IntervalMin           int                   `json:"interval_min"`
	WorstCaseDelayRatio   *float64              `json:"worst_case_delay_ratio"`
	WorstCaseDelaySeconds *int                  `json:"worst_case_delay_seconds"`
	Slots                 []TrafficForecastSlot `json:"slots,omitempty"`
	EvaluatedSlots        int                   `json:"evaluated_slots"`
}

// ForecastSlotCount возвращает количество слотов прогноза:
// ceil(windowHours*60 / intervalMin).
func ForecastSlotCount(windowHours, intervalMin int) int {
	if windowHours <= 0 || intervalMin <= 0 {
		return 0
	}
	return (windowHours*60 + intervalMin - 1) / intervalMin
}

// UnknownWeatherForecast - прогноз-заглушка при недоступности данных
func UnknownWeatherForecast(windowHours, intervalMin int, source string) *WeatherForecast {
	return &WeatherForecast{
		Status:      ContextStatusUnknown,
		Source:      source,
		WindowHours: windowHours,
		IntervalMin: intervalMin,
	}
}

// UnknownTrafficForecast - прогноз-заглушка при недоступности данных
func UnknownTrafficForecast(windowHours, intervalMin int, source string) *TrafficForecast {
	return &TrafficForecast{
		Status:      ContextStatusUnknown,
		Source:      source,
		WindowHours: windowHours,
		IntervalMin: intervalMin,
	}
}

// WeatherSeverityScore оценивает тяжесть погодных условий одним числом.
// Нормализованная шкала общая для live и simulated провайдеров:
// осадки и вероятность осадков дают основной вклад, ветер учитывается
// только выше 25 км/ч, ключевые слова условия добавляют фиксированный бонус.
func WeatherSeverityScore(condition string, precipitationMm, windKph, precipitationProbability *float64) float64 {
	score := 0.0
	if precipitationMm != nil && *precipitationMm > 0 {
		score += *precipitationMm * 1.8
	}
	if precipitationProbability != nil {
		p := *precipitationProbability
		if p > 1.0 {
			p /= 100.0
		}
		if p < 0 {
			p = 0
		}
		if p > 1 {
			p = 1
		}
		score += p * 2.5
	}
	if windKph != nil && *windKph > 25.0 {
		score += (*windKph - 25.0) / 8.0
	}

	normalized := strings.ToLower(condition)
	switch {
	case containsAny(normalized, "thunder", "hail", "tornado", "storm"):
		score += 8.0
	case containsAny(normalized, "freezing", "blizzard", "sleet", "snow"):
		score += 5.0
	case strings.Contains(normalized, "heavy rain"):
		score += 5.0
	case strings.Contains(normalized, "rain"):
		score += 3.0
	case strings.Contains(normalized, "fog"):
		score += 2.0
	}
	return math.Round(score*1000) / 1000
}

func containsAny(s string, tokens ...string) bool {
	for _, token := range tokens {
		if strings.Contains(s, token) {
			return true
		}
	}
	return false
}

// CongestionLevelFromJamFactor переводит jam factor (0..10) в уровень:
// <4 low, <7 medium, иначе high.
func CongestionLevelFromJamFactor(jamFactor *float64) *string {
	if jamFactor == nil {
		return nil
	}
	var level string
	switch {
	case *jamFactor < 4.0:
		level = "low"
	case *jamFactor < 7.0:
		level = "medium"
	default:
		level = "high"
	}
	return &level
}
