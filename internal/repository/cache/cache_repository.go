package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/route-context-service/internal/domain"
	"github.com/route-context-service/internal/domain/repository"
)

const (
	weatherObservationsKey = "observations:weather"
	trafficObservationsKey = "observations:traffic"

	// Rolling window bounds for ingested observations.
	observationListCap = 5000
	observationTTL     = 48 * time.Hour
)

type cacheRepository struct {
	client *redis.Client
	logger *zap.Logger
}

func NewCacheRepository(redis *Redis) repository.CacheRepository {
	return &cacheRepository{
		client: redis.Client(),
		logger: redis.logger,
	}
}

func (r *cacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil // Cache miss
	}
	if err != nil {
		r.logger.Error("Failed to get from cache", zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("cache get error: %w", err)
	}

	r.logger.Debug("Cache hit", zap.String("key", key))
	return val, nil
}

func (r *cacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	err := r.client.Set(ctx, key, value, ttl).Err()
	if err != nil {
		r.logger.Error("Failed to set cache", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("cache set error: %w", err)
	}

	r.logger.Debug("Cache set", zap.String("key", key), zap.Duration("ttl", ttl))
	return nil
}

func (r *cacheRepository) Delete(ctx context.Context, key string) error {
	err := r.client.Del(ctx, key).Err()
	if err != nil {
		r.logger.Error("Failed to delete from cache", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("cache delete error: %w", err)
	}

	r.logger.Debug("Cache deleted", zap.String("key", key))
	return nil
}

func (r *cacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	val, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		r.logger.Error("Failed to check cache existence", zap.String("key", key), zap.Error(err))
		return false, fmt.Errorf("cache exists error: %w", err)
	}

	return val > 0, nil
}

// AddWeatherObservation пишет наблюдение в rolling-список с усечением
func (r *cacheRepository) AddWeatherObservation(ctx context.Context, obs *domain.WeatherObservation) error {
	return r.pushObservation(ctx, weatherObservationsKey, obs)
}

// AddTrafficObservation пишет наблюдение в rolling-список с усечением
func (r *cacheRepository) AddTrafficObservation(ctx context.Context, obs *domain.TrafficObservation) error {
	return r.pushObservation(ctx, trafficObservationsKey, obs)
}

func (r *cacheRepository) pushObservation(ctx context.Context, key string, obs interface{}) error {
	payload, err := json.Marshal(obs)
	if err != nil {
		return fmt.Errorf("failed to marshal observation: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.LPush(ctx, key, payload)
	pipe.LTrim(ctx, key, 0, observationListCap-1)
	pipe.Expire(ctx, key, observationTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.Error("Failed to push observation", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("observation push error: %w", err)
	}

	return nil
}

func (r *cacheRepository) RecentWeatherObservations(ctx context.Context, limit int) ([]domain.WeatherObservation, error) {
	raw, err := r.listObservations(ctx, weatherObservationsKey, limit)
	if err != nil {
		return nil, err
	}

	observations := make([]domain.WeatherObservation, 0, len(raw))
	for _, item := range raw {
		var obs domain.WeatherObservation
		if err := json.Unmarshal([]byte(item), &obs); err != nil {
			r.logger.Warn("Skipping malformed weather observation", zap.Error(err))
			continue
		}
		observations = append(observations, obs)
	}
	return observations, nil
}

func (r *cacheRepository) RecentTrafficObservations(ctx context.Context, limit int) ([]domain.TrafficObservation, error) {
	raw, err := r.listObservations(ctx, trafficObservationsKey, limit)
	if err != nil {
		return nil, err
	}

	observations := make([]domain.TrafficObservation, 0, len(raw))
	for _, item := range raw {
		var obs domain.TrafficObservation
		if err := json.Unmarshal([]byte(item), &obs); err != nil {
			r.logger.Warn("Skipping malformed traffic observation", zap.Error(err))
			continue
		}
		observations = append(observations, obs)
	}
	return observations, nil
}

func (r *cacheRepository) listObservations(ctx context.Context, key string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = observationListCap
	}
	raw, err := r.client.LRange(ctx, key, 0, int64(limit-1)).Result()
	if err != nil {
		r.logger.Error("Failed to read observations", zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("observation read error: %w", err)
	}
	return raw, nil
}
