package domain

// ProviderStats - счётчики работы контекст-провайдера за время жизни клиента
type ProviderStats struct {
	CacheHits      int64 `json:"cache_hits"`
	HTTPRequests   int64 `json:"http_requests"`
	WeatherQueries int64 `json:"weather_queries"`
	TrafficQueries int64 `json:"traffic_queries"`
	RoutingQueries int64 `json:"routing_queries"`
	Errors         int64 `json:"errors"`
	Simulated      bool  `json:"simulated"`
}
