package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/route-context-service/internal/pkg/errors"
	"github.com/route-context-service/internal/pkg/utils"
	"github.com/route-context-service/internal/usecase"
	"github.com/route-context-service/internal/usecase/dto"
)

// SolveHandler - обработчик запросов на построение маршрутов
type SolveHandler struct {
	solveUC *usecase.SolveUsecase
	logger  *zap.Logger
}

// NewSolveHandler - создание нового SolveHandler
func NewSolveHandler(solveUC *usecase.SolveUsecase, logger *zap.Logger) *SolveHandler {
	return &SolveHandler{
		solveUC: solveUC,
		logger:  logger,
	}
}

// Solve godoc
// @Summary Построение маршрутов доставки с контекстным обогащением
// @Description Решает задачу маршрутизации (метод экономий Кларка-Райта), разбивает маршруты на сегменты с ETA и, опционально, добавляет семантический слой: погодно-транспортный контекст сегментов и ранжированные точки интереса вдоль коридора.
// @Tags Solve
// @Accept json
// @Produce json
// @Param request body dto.SolveRequest true "Депо, клиенты, парк машин и настройки обогащения"
// @Success 200 {object} utils.SuccessResponse{data=dto.SolveResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 422 {object} utils.ErrorResponse
// @Failure 500 {object} utils.ErrorResponse
// @Router /api/v1/solve [post]
func (h *SolveHandler) Solve(c *fiber.Ctx) error {
	var req dto.SolveRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, errors.ErrValidation.WithReason("invalid request body"))
	}

	result, err := h.solveUC.Solve(c.Context(), &req)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, result, &utils.Meta{
		Total: len(result.Routes),
	})
}
