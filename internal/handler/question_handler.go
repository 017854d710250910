package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/examhub/examhub-api/internal/dto"
	"github.com/examhub/examhub-api/internal/service"
	"github.com/examhub/examhub-api/internal/utils"
)

// QuestionHandler wires instructor question management endpoints.
type QuestionHandler struct {
	service service.QuestionService
	logger  zerolog.Logger
}

// NewQuestionHandler constructs the handler.
func NewQuestionHandler(service service.QuestionService, logger zerolog.Logger) *QuestionHandler {
	return &QuestionHandler{
		service: service,
		logger:  logger.With().Str("component", "question_handler").Logger(),
	}
}

// RegisterExamRoutes attaches per-exam question routes.
func (h *QuestionHandler) RegisterExamRoutes(router fiber.Router) {
	router.Get("/:id/questions", h.list)
	router.Post("/:id/questions/mcq", h.addMCQ)
	router.Post("/:id/questions/essay", h.addEssay)
}

// RegisterQuestionRoutes attaches per-question routes.
func (h *QuestionHandler) RegisterQuestionRoutes(router fiber.Router) {
	router.Put("/:id/mcq", h.updateMCQ)
	router.Put("/:id/essay", h.updateEssay)
	router.Delete("/:id", h.delete)
}

func (h *QuestionHandler) list(c *fiber.Ctx) error {
	examID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	questions, err := h.service.ListForInstructor(c.UserContext(), examID)
	if err != nil {
		return h.handleError(c, err, "failed to list questions")
	}

	return utils.SendSuccess(c, "questions", questions)
}

func (h *QuestionHandler) addMCQ(c *fiber.Ctx) error {
	examID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	var payload dto.MCQQuestionRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	question, err := h.service.AddMCQ(c.UserContext(), examID, payload, activityActorFromContext(c))
	if err != nil {
		return h.handleError(c, err, "failed to add question")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "question created", question)
}

func (h *QuestionHandler) addEssay(c *fiber.Ctx) error {
	examID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	var payload dto.EssayQuestionRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	question, err := h.service.AddEssay(c.UserContext(), examID, payload, activityActorFromContext(c))
	if err != nil {
		return h.handleError(c, err, "failed to add question")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "question created", question)
}

func (h *QuestionHandler) updateMCQ(c *fiber.Ctx) error {
	questionID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	var payload dto.MCQQuestionRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	question, err := h.service.UpdateMCQ(c.UserContext(), questionID, payload, activityActorFromContext(c))
	if err != nil {
		return h.handleError(c, err, "failed to update question")
	}

	return utils.SendSuccess(c, "question updated", question)
}

func (h *QuestionHandler) updateEssay(c *fiber.Ctx) error {
	questionID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	var payload dto.EssayQuestionRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	question, err := h.service.UpdateEssay(c.UserContext(), questionID, payload, activityActorFromContext(c))
	if err != nil {
		return h.handleError(c, err, "failed to update question")
	}

	return utils.SendSuccess(c, "question updated", question)
}

func (h *QuestionHandler) delete(c *fiber.Ctx) error {
	questionID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	if err := h.service.Delete(c.UserContext(), questionID, activityActorFromContext(c)); err != nil {
		return h.handleError(c, err, "failed to delete question")
	}

	return utils.SendSuccess(c, "question deleted", fiber.Map{"id": questionID})
}

func (h *QuestionHandler) handleError(c *fiber.Ctx, err error, message string) error {
	switch {
	case errors.Is(err, service.ErrExamNotFound), errors.Is(err, service.ErrQuestionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrDuplicateQuestionText), errors.Is(err, service.ErrExamLocked):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrInvalidQuestion), isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg(message)
		return utils.SendError(c, fiber.StatusInternalServerError, message)
	}
}
