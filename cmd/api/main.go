package main

// @title Route Context Service API
// @version 1.0.0
// @description Сервис планирования маршрутов доставки с контекстным обогащением. Решает задачу маршрутизации парка машин (метод экономий Кларка-Райта), разбивает маршруты на сегменты с ETA и добавляет семантический слой: погодно-транспортный контекст сегментов и ранжированные точки интереса вдоль коридора маршрута.
// @description
// @description Основные возможности:
// @description - Построение маршрутов с ограничением по вместимости машин
// @description - Пер-сегментная оценка времени прибытия
// @description - Сопоставление пользовательских наблюдений погоды и трафика сегментам
// @description - Live и симулированный контекст-провайдер с прогнозами
// @description - Ранжирование точек интереса вдоль коридора маршрута

// @contact.name API Support
// @contact.email support@route-context-service.com

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /
// @schemes http https

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	_ "github.com/route-context-service/docs/swagger"
	"github.com/route-context-service/internal/config"
	httpDelivery "github.com/route-context-service/internal/delivery/http"
	"github.com/route-context-service/internal/delivery/http/handler"
	"github.com/route-context-service/internal/domain/repository"
	"github.com/route-context-service/internal/infrastructure/contextprovider"
	"github.com/route-context-service/internal/pkg/logger"
	"github.com/route-context-service/internal/repository/cache"
	"github.com/route-context-service/internal/repository/postgres"
	redisRepo "github.com/route-context-service/internal/repository/redis"
	"github.com/route-context-service/internal/usecase"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// 2. Initialize logger
	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting Route Context Service")
	log.Info("Configuration loaded",
		zap.String("env", cfg.Server.Env),
		zap.String("server_addr", cfg.GetServerAddr()),
		zap.String("provider_data_source", cfg.Provider.DataSource),
	)

	// 3. Connect to Redis (optional)
	var redisClient *cache.Redis
	var cacheRepo repository.CacheRepository
	var streamRepo repository.StreamRepository
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedis(&cfg.Redis, log)
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Error("Failed to close Redis connection", zap.Error(err))
			}
		}()
		cacheRepo = cache.NewCacheRepository(redisClient)
		streamRepo = redisRepo.NewStreamRepository(redisClient.Client(), log)
	} else {
		log.Warn("Redis disabled, provider snapshots and observation ingest are unavailable")
	}

	// 4. Connect to PostgreSQL (optional)
	var poiRepo repository.POIRepository
	if cfg.Database.Enabled {
		db, err := postgres.New(&cfg.Database, log)
		if err != nil {
			log.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
		}
		defer func() {
			if err := db.Close(); err != nil {
				log.Error("Failed to close PostgreSQL connection", zap.Error(err))
			}
		}()
		poiRepo = postgres.NewPOIRepository(db)
	} else {
		log.Warn("PostgreSQL disabled, POI candidates must come from requests")
	}

	// 5. Context provider factories (requests may override timeout and
	// forecast settings)
	simFactory := func(pc config.ProviderConfig) repository.ContextProvider {
		return contextprovider.NewSimulator(pc, log)
	}
	var liveFactory usecase.ProviderFactory
	if cfg.Provider.APIKey != "" {
		liveFactory = func(pc config.ProviderConfig) repository.ContextProvider {
			return contextprovider.NewLiveClient(pc, cacheRepo, log)
		}
	} else {
		log.Warn("Provider API key not set, live data source is unavailable")
	}

	// 6. Initialize Use Cases
	solverUC := usecase.NewSolverUsecase(log)
	segmentUC := usecase.NewSegmentUsecase(log)
	contextUC := usecase.NewContextUsecase(log, cfg.Semantic.ProviderConcurrency)
	rankerUC := usecase.NewRankerUsecase(log)

	solveUC := usecase.NewSolveUsecase(
		solverUC,
		segmentUC,
		contextUC,
		rankerUC,
		poiRepo,
		cacheRepo,
		liveFactory,
		simFactory,
		cfg.Provider,
		cfg.Semantic,
		cfg.Provider.DataSource,
		log,
	)

	log.Info("Use cases initialized")

	// 7. Initialize Handlers
	solveHandler := handler.NewSolveHandler(solveUC, log)
	var observationHandler *handler.ObservationHandler
	if streamRepo != nil {
		observationHandler = handler.NewObservationHandler(streamRepo, log)
	}

	// 8. Start HTTP server
	server := httpDelivery.NewServer(cfg, log, solveHandler, observationHandler)

	go func() {
		if err := server.Start(); err != nil {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// 9. Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited")
}
