package repository

import (
	"context"

	"github.com/route-context-service/internal/domain"
)

// StreamRepository - чтение/публикация событий наблюдений через Redis Streams
type StreamRepository interface {
	// CreateConsumerGroup создаёт consumer group для стрима
	CreateConsumerGroup(ctx context.Context, stream, group string) error

	// ConsumeBatch читает до count сообщений без блокировки на пустом стриме
	ConsumeBatch(ctx context.Context, stream, group, consumer string, count int) ([]domain.StreamMessage, error)

	// AckMessage подтверждает обработку сообщения
	AckMessage(ctx context.Context, stream, group, messageID string) error

	// Publish публикует событие в стрим
	Publish(ctx context.Context, stream string, event interface{}) error
}
