package domain

import "github.com/google/uuid"

// Stream names (должны совпадать с публикующими сервисами)
const (
	StreamObservationIngest = "stream:observations:ingest"
)

// Виды наблюдений в событиях ingest-стрима
const (
	ObservationKindWeather = "weather"
	ObservationKindTraffic = "traffic"
)

// ObservationIngestEvent - входящее событие с наблюдением погоды или трафика.
// Воркер складывает наблюдения в rolling-набор, который solve-путь может
// использовать как пользовательские наблюдения (pre-fetch режим).
type ObservationIngestEvent struct {
	EventID uuid.UUID           `json:"event_id"`
	Kind    string              `json:"kind"`
	Weather *WeatherObservation `json:"weather,omitempty"`
	Traffic *TrafficObservation `json:"traffic,omitempty"`
}

// StreamMessage - сообщение из Redis Stream
type StreamMessage struct {
	ID   string
	Data string
}
