package repository

import (
	"context"
	"time"

	"github.com/route-context-service/internal/domain"
)

// CacheRepository - кеш снимков провайдера и rolling-набора наблюдений
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)

	// AddWeatherObservation добавляет наблюдение в rolling-набор
	AddWeatherObservation(ctx context.Context, obs *domain.WeatherObservation) error

	// AddTrafficObservation добавляет наблюдение в rolling-набор
	AddTrafficObservation(ctx context.Context, obs *domain.TrafficObservation) error

	// RecentWeatherObservations возвращает накопленные наблюдения погоды
	RecentWeatherObservations(ctx context.Context, limit int) ([]domain.WeatherObservation, error)

	// RecentTrafficObservations возвращает накопленные наблюдения трафика
	RecentTrafficObservations(ctx context.Context, limit int) ([]domain.TrafficObservation, error)
}
