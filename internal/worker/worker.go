package worker

import (
	"context"
)

// Worker - общий интерфейс фоновых обработчиков сервиса, сейчас это
// ingest-воркер потока наблюдений
type Worker interface {
	// Start запускает воркер
	Start(ctx context.Context) error

	// Stop останавливает воркер
	Stop() error

	// Name возвращает имя воркера
	Name() string
}
