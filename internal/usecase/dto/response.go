package dto

import (
	"time"

	"github.com/route-context-service/internal/domain"
)

// RouteResponse - маршрут одной машины с сегментами и контекстом
type RouteResponse struct {
	Vehicle         int                       `json:"vehicle"`
	Stops           []domain.Stop             `json:"stops"`
	Load            float64                   `json:"load"`
	DistanceKm      float64                   `json:"distance_km"`
	ServedIDs       []string                  `json:"served_customer_ids"`
	TotalETAMin     *float64                  `json:"total_eta_min,omitempty"`
	ArrivalTimeUTC  *time.Time                `json:"arrival_time_utc,omitempty"`
	Segments        []domain.SegmentContext   `json:"segments,omitempty"`
	SemanticContext []domain.SemanticLocation `json:"semantic_context,omitempty"`
}

// ProviderSummaryResponse - статистика обращений к контекст-провайдеру
type ProviderSummaryResponse struct {
	DataSource     string `json:"data_source"`
	CacheHits      int64  `json:"cache_hits"`
	HTTPRequests   int64  `json:"http_requests"`
	WeatherQueries int64  `json:"weather_queries"`
	TrafficQueries int64  `json:"traffic_queries"`
	RoutingQueries int64  `json:"routing_queries"`
	Errors         int64  `json:"errors"`
}

// SolveResponse - результат решения и обогащения
type SolveResponse struct {
	Routes           []RouteResponse          `json:"routes"`
	TotalDistanceKm  float64                  `json:"total_distance_km"`
	VehiclesUsed     int                      `json:"vehicles_used"`
	CustomersServed  int                      `json:"customers_served"`
	DepartureTimeUTC *time.Time               `json:"departure_time_utc,omitempty"`
	PipelineMode     string                   `json:"pipeline_mode"`
	ContextSource    string                   `json:"context_source"`
	Provider         *ProviderSummaryResponse `json:"provider,omitempty"`
}
