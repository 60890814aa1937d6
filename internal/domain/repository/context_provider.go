package repository

import (
	"context"
	"time"

	"github.com/route-context-service/internal/domain"
)

// ContextProvider - нормализованный интерфейс внешнего провайдера
// погодно-транспортного контекста. Live и simulated реализации разделяют
// одну схему, matcher не различает, кто за интерфейсом.
//
// Все вызовы идемпотентны и безопасны для повторов; таймаут задаётся
// контекстом вызывающей стороны.
type ContextProvider interface {
	// FetchWeather возвращает снимок погоды и сводку прогноза для точки
	// на указанный момент времени.
	FetchWeather(ctx context.Context, lat, lon float64, at time.Time) (*domain.WeatherContext, *domain.WeatherForecast, error)

	// FetchTraffic возвращает снимок трафика вокруг точки (радиус задаётся
	// конфигурацией клиента).
	FetchTraffic(ctx context.Context, lat, lon float64) (*domain.TrafficContext, error)

	// FetchTrafficForecast возвращает прогноз трафика для ребра маршрута
	// начиная с указанного момента.
	FetchTrafficForecast(ctx context.Context, origin, destination domain.Point, at time.Time) (*domain.TrafficForecast, error)

	// Stats возвращает счётчики клиента
	Stats() domain.ProviderStats
}
