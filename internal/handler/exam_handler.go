package handler

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/examhub/examhub-api/internal/dto"
	"github.com/examhub/examhub-api/internal/service"
	"github.com/examhub/examhub-api/internal/utils"
)

// ExamHandler wires instructor exam management endpoints.
type ExamHandler struct {
	service service.ExamService
	logger  zerolog.Logger
}

// NewExamHandler constructs the handler.
func NewExamHandler(service service.ExamService, logger zerolog.Logger) *ExamHandler {
	return &ExamHandler{
		service: service,
		logger:  logger.With().Str("component", "exam_handler").Logger(),
	}
}

// Register attaches exam management routes to the router group.
func (h *ExamHandler) Register(router fiber.Router) {
	router.Post("", h.create)
	router.Get("", h.list)
	router.Get("/search", h.search)
	router.Get("/:id", h.get)
	router.Patch("/:id", h.update)
	router.Delete("/:id", h.delete)
}

func (h *ExamHandler) create(c *fiber.Ctx) error {
	var payload dto.ExamCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	actor := activityActorFromContext(c)
	exam, err := h.service.Create(c.UserContext(), payload, actor)
	if err != nil {
		return h.handleError(c, err, "failed to create exam")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "exam created", exam)
}

func (h *ExamHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	var payload dto.ExamUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	actor := activityActorFromContext(c)
	exam, err := h.service.Update(c.UserContext(), id, payload, actor)
	if err != nil {
		return h.handleError(c, err, "failed to update exam")
	}

	return utils.SendSuccess(c, "exam updated", exam)
}

func (h *ExamHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	actor := activityActorFromContext(c)
	if err := h.service.Delete(c.UserContext(), id, actor); err != nil {
		return h.handleError(c, err, "failed to delete exam")
	}

	return utils.SendSuccess(c, "exam deleted", fiber.Map{"id": id})
}

func (h *ExamHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	exam, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return h.handleError(c, err, "failed to fetch exam")
	}

	return utils.SendSuccess(c, "exam", exam)
}

func (h *ExamHandler) list(c *fiber.Ctx) error {
	if code := strings.TrimSpace(c.Query("code")); code != "" {
		exam, err := h.service.GetByCode(c.UserContext(), code)
		if err != nil {
			return h.handleError(c, err, "failed to fetch exam")
		}
		return utils.SendSuccess(c, "exam", exam)
	}

	courseID, err := parseQueryUint(c, "course_id")
	if err != nil || courseID == 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "course_id query parameter required")
	}

	exams, err := h.service.ListByCourse(c.UserContext(), courseID)
	if err != nil {
		return h.handleError(c, err, "failed to list exams")
	}

	return utils.SendSuccess(c, "exams", exams)
}

func (h *ExamHandler) search(c *fiber.Ctx) error {
	title := strings.TrimSpace(c.Query("title"))
	if title == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "title query parameter required")
	}

	exams, err := h.service.Search(c.UserContext(), title)
	if err != nil {
		return h.handleError(c, err, "failed to search exams")
	}

	return utils.SendSuccess(c, "exams", exams)
}

func (h *ExamHandler) handleError(c *fiber.Ctx, err error, message string) error {
	switch {
	case errors.Is(err, service.ErrExamNotFound), errors.Is(err, service.ErrCourseNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrExamCodeTaken),
		errors.Is(err, service.ErrExamScheduleOverlap),
		errors.Is(err, service.ErrExamLocked):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrInvalidExamSchedule), isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg(message)
		return utils.SendError(c, fiber.StatusInternalServerError, message)
	}
}
