package observation

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/route-context-service/internal/domain"
	"github.com/route-context-service/internal/domain/repository"
	"github.com/route-context-service/internal/worker"
)

const (
	maxBatchSize    = 50                     // максимум сообщений за раз
	emptyQueueSleep = 100 * time.Millisecond // пауза если очередь пуста
)

// ObservationIngestWorker читает события наблюдений из стрима и складывает
// их в rolling-набор в Redis. Накопленные наблюдения подмешиваются в
// solve-запросы как дополнительный источник контекста.
type ObservationIngestWorker struct {
	*worker.BaseWorker
	streamRepo   repository.StreamRepository
	cacheRepo    repository.CacheRepository
	consumerName string
	maxRetries   int
}

// NewObservationIngestWorker создает новый ObservationIngestWorker
func NewObservationIngestWorker(
	streamRepo repository.StreamRepository,
	cacheRepo repository.CacheRepository,
	consumerGroup string,
	maxRetries int,
	logger *zap.Logger,
) *ObservationIngestWorker {
	hostname, _ := os.Hostname()
	consumerName := fmt.Sprintf("%s-%d", hostname, os.Getpid())

	return &ObservationIngestWorker{
		BaseWorker:   worker.NewBaseWorker("observation-ingest", consumerGroup, logger),
		streamRepo:   streamRepo,
		cacheRepo:    cacheRepo,
		consumerName: consumerName,
		maxRetries:   maxRetries,
	}
}

// Start запускает воркер
func (w *ObservationIngestWorker) Start(ctx context.Context) error {
	logger := w.Logger()
	logger.Info("Starting ObservationIngestWorker (batch mode)",
		zap.String("consumer_group", w.ConsumerGroup()),
		zap.String("consumer_name", w.consumerName),
		zap.Int("max_batch_size", maxBatchSize))

	if err := w.streamRepo.CreateConsumerGroup(ctx, domain.StreamObservationIngest, w.ConsumerGroup()); err != nil {
		logger.Error("Failed to create consumer group", zap.Error(err))
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	for {
		select {
		case <-w.StopChan():
			logger.Info("Worker stopped")
			return nil

		case <-ctx.Done():
			logger.Info("Context cancelled")
			return ctx.Err()

		default:
			processed, err := w.processBatch(ctx)
			if err != nil {
				logger.Error("Failed to process batch", zap.Error(err))
				time.Sleep(time.Second) // пауза при ошибке
				continue
			}

			if processed == 0 {
				time.Sleep(emptyQueueSleep)
			}
		}
	}
}

// processBatch читает и обрабатывает batch сообщений.
// Возвращает количество обработанных сообщений.
func (w *ObservationIngestWorker) processBatch(ctx context.Context) (int, error) {
	logger := w.Logger()

	messages, err := w.streamRepo.ConsumeBatch(
		ctx,
		domain.StreamObservationIngest,
		w.ConsumerGroup(),
		w.consumerName,
		maxBatchSize,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to consume batch: %w", err)
	}

	if len(messages) == 0 {
		return 0, nil // очередь пуста
	}

	logger.Info("Processing batch", zap.Int("message_count", len(messages)))

	processed := 0
	for _, msg := range messages {
		if err := w.processMessage(ctx, msg); err != nil {
			// Сообщение не ack-ается и будет перечитано; после maxRetries
			// его подберёт ручная разборка pending-списка.
			logger.Error("Failed to process message",
				zap.String("message_id", msg.ID),
				zap.Error(err))
			continue
		}

		if err := w.streamRepo.AckMessage(ctx, domain.StreamObservationIngest, w.ConsumerGroup(), msg.ID); err != nil {
			logger.Error("Failed to ack message",
				zap.String("message_id", msg.ID),
				zap.Error(err))
			continue
		}
		processed++
	}

	return processed, nil
}

func (w *ObservationIngestWorker) processMessage(ctx context.Context, msg domain.StreamMessage) error {
	var event domain.ObservationIngestEvent
	if err := json.Unmarshal([]byte(msg.Data), &event); err != nil {
		return fmt.Errorf("failed to unmarshal event: %w", err)
	}

	switch event.Kind {
	case domain.ObservationKindWeather:
		if event.Weather == nil {
			return fmt.Errorf("weather event %s has no payload", event.EventID)
		}
		if event.Weather.Source == "" {
			event.Weather.Source = domain.SourceUserSupplied
		}
		return w.cacheRepo.AddWeatherObservation(ctx, event.Weather)

	case domain.ObservationKindTraffic:
		if event.Traffic == nil {
			return fmt.Errorf("traffic event %s has no payload", event.EventID)
		}
		if event.Traffic.Source == "" {
			event.Traffic.Source = domain.SourceUserSupplied
		}
		return w.cacheRepo.AddTrafficObservation(ctx, event.Traffic)

	default:
		return fmt.Errorf("unknown observation kind %q in event %s", event.Kind, event.EventID)
	}
}
