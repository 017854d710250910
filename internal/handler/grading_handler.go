package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/examhub/examhub-api/internal/dto"
	"github.com/examhub/examhub-api/internal/grading"
	"github.com/examhub/examhub-api/internal/service"
	"github.com/examhub/examhub-api/internal/utils"
)

// GradingHandler wires the essay grading endpoint.
type GradingHandler struct {
	service service.GradingService
	logger  zerolog.Logger
}

// NewGradingHandler constructs the handler.
func NewGradingHandler(service service.GradingService, logger zerolog.Logger) *GradingHandler {
	return &GradingHandler{
		service: service,
		logger:  logger.With().Str("component", "grading_handler").Logger(),
	}
}

// Register attaches grading routes to the router group.
func (h *GradingHandler) Register(router fiber.Router) {
	router.Post("/:id/grade", h.gradeEssays)
}

func (h *GradingHandler) gradeEssays(c *fiber.Ctx) error {
	submissionID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	var payload dto.GradeEssaysRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	detail, err := h.service.GradeEssays(c.UserContext(), submissionID, payload, activityActorFromContext(c))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSubmissionNotFound):
			return utils.SendError(c, fiber.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrAnswerNotFound),
			errors.Is(err, service.ErrNotEssayAnswer),
			errors.Is(err, service.ErrFeedbackTooLong),
			errors.Is(err, grading.ErrScoreOutOfRange),
			isValidationError(err):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		default:
			requestLogger(h.logger, c).Error().Err(err).Msg("failed to grade essays")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to grade essays")
		}
	}

	return utils.SendSuccess(c, "grades saved", detail)
}
