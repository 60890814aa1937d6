package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/route-context-service/internal/domain"
	"github.com/route-context-service/internal/domain/repository"
	"github.com/route-context-service/internal/pkg/errors"
	"github.com/route-context-service/internal/pkg/utils"
	"github.com/route-context-service/internal/pkg/validator"
	"github.com/route-context-service/internal/usecase/dto"
)

// ObservationHandler - приём наблюдений погоды и трафика. События уходят
// в Redis Stream, воркер складывает их в rolling-набор.
type ObservationHandler struct {
	streamRepo repository.StreamRepository
	logger     *zap.Logger
}

// NewObservationHandler - создание нового ObservationHandler
func NewObservationHandler(streamRepo repository.StreamRepository, logger *zap.Logger) *ObservationHandler {
	return &ObservationHandler{
		streamRepo: streamRepo,
		logger:     logger,
	}
}

// SubmitWeather godoc
// @Summary Приём наблюдения погоды
// @Description Публикует пользовательское наблюдение погоды в ingest-стрим. Наблюдение станет доступно solve-запросам после обработки воркером.
// @Tags Observations
// @Accept json
// @Produce json
// @Param request body dto.WeatherObservationRequest true "Наблюдение погоды"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 500 {object} utils.ErrorResponse
// @Router /api/v1/observations/weather [post]
func (h *ObservationHandler) SubmitWeather(c *fiber.Ctx) error {
	var req dto.WeatherObservationRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, errors.ErrValidation.WithReason("invalid request body"))
	}
	if err := validator.Validate(&req); err != nil {
		return utils.SendError(c, errors.ErrValidation.WithReason(err.Error()))
	}

	obs, err := dto.WeatherObservationFromRequest(req)
	if err != nil {
		return utils.SendError(c, errors.ErrValidation.WithReason("time_utc: "+err.Error()))
	}

	event := domain.ObservationIngestEvent{
		EventID: uuid.New(),
		Kind:    domain.ObservationKindWeather,
		Weather: obs,
	}
	if err := h.streamRepo.Publish(c.Context(), domain.StreamObservationIngest, event); err != nil {
		h.logger.Error("Failed to publish weather observation", zap.Error(err))
		return utils.SendError(c, errors.ErrCacheError)
	}

	return utils.SendSuccess(c, fiber.Map{"event_id": event.EventID}, nil)
}

// SubmitTraffic godoc
// @Summary Приём наблюдения трафика
// @Description Публикует пользовательское наблюдение трафика в ingest-стрим.
// @Tags Observations
// @Accept json
// @Produce json
// @Param request body dto.TrafficObservationRequest true "Наблюдение трафика"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 500 {object} utils.ErrorResponse
// @Router /api/v1/observations/traffic [post]
func (h *ObservationHandler) SubmitTraffic(c *fiber.Ctx) error {
	var req dto.TrafficObservationRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, errors.ErrValidation.WithReason("invalid request body"))
	}
	if err := validator.Validate(&req); err != nil {
		return utils.SendError(c, errors.ErrValidation.WithReason(err.Error()))
	}

	obs, err := dto.TrafficObservationFromRequest(req)
	if err != nil {
		return utils.SendError(c, errors.ErrValidation.WithReason("time_utc: "+err.Error()))
	}

	event := domain.ObservationIngestEvent{
		EventID: uuid.New(),
		Kind:    domain.ObservationKindTraffic,
		Traffic: obs,
	}
	if err := h.streamRepo.Publish(c.Context(), domain.StreamObservationIngest, event); err != nil {
		h.logger.Error("Failed to publish traffic observation", zap.Error(err))
		return utils.SendError(c, errors.ErrCacheError)
	}

	return utils.SendSuccess(c, fiber.Map{"event_id": event.EventID}, nil)
}
