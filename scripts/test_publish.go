//go:build ignore
// +build ignore

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

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

type ObservationIngestEvent struct {
	EventID uuid.UUID           `json:"event_id"`
	Kind    string              `json:"kind"`
	Weather *WeatherObservation `json:"weather,omitempty"`
}

func ptr[T any](v T) *T {
	return &v
}

func main() {
	redisAddr := flag.String("redis", "localhost:6379", "Redis address for streams")
	lat := flag.Float64("lat", 41.3874, "observation latitude")
	lon := flag.Float64("lon", 2.1686, "observation longitude")
	flag.Parse()

	client := redis.NewClient(&redis.Options{
		Addr: *redisAddr,
	})
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	event := ObservationIngestEvent{
		EventID: uuid.New(),
		Kind:    "weather",
		Weather: &WeatherObservation{
			Lat:             *lat,
			Lon:             *lon,
			Time:            time.Now().UTC(),
			TemperatureC:    ptr(17.5),
			PrecipitationMm: ptr(2.4),
			WindKph:         ptr(22.0),
			Condition:       ptr("rain"),
			Source:          "user_observations",
		},
	}

	payload, err := json.Marshal(event)
	if err != nil {
		log.Fatalf("marshal event: %v", err)
	}

	id, err := client.XAdd(ctx, &redis.XAddArgs{
		Stream: "stream:observations:ingest",
		Values: map[string]interface{}{"data": string(payload)},
	}).Result()
	if err != nil {
		log.Fatalf("publish event: %v", err)
	}

	fmt.Printf("published event %s as message %s\n", event.EventID, id)
}
