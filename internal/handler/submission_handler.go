package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/examhub/examhub-api/internal/service"
	"github.com/examhub/examhub-api/internal/utils"
)

// SubmissionHandler wires submission read endpoints for both roles.
type SubmissionHandler struct {
	service service.SubmissionService
	logger  zerolog.Logger
}

// NewSubmissionHandler constructs the handler.
func NewSubmissionHandler(service service.SubmissionService, logger zerolog.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		service: service,
		logger:  logger.With().Str("component", "submission_handler").Logger(),
	}
}

// RegisterInstructorRoutes attaches instructor-facing submission routes.
func (h *SubmissionHandler) RegisterInstructorRoutes(router fiber.Router) {
	router.Get("/:id", h.detail)
}

// RegisterRosterRoute attaches the per-exam roster route.
func (h *SubmissionHandler) RegisterRosterRoute(router fiber.Router) {
	router.Get("/:id/roster", h.roster)
}

// RegisterStudentRoutes attaches student-facing submission routes.
func (h *SubmissionHandler) RegisterStudentRoutes(router fiber.Router) {
	router.Get("/submissions/:id", h.mySubmission)
	router.Get("/exams/:id/result", h.myResult)
}

func (h *SubmissionHandler) detail(c *fiber.Ctx) error {
	submissionID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	detail, err := h.service.GetDetail(c.UserContext(), submissionID)
	if err != nil {
		return h.handleError(c, err, "failed to fetch submission")
	}

	return utils.SendSuccess(c, "submission", detail)
}

func (h *SubmissionHandler) roster(c *fiber.Ctx) error {
	examID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	roster, err := h.service.Roster(c.UserContext(), examID)
	if err != nil {
		return h.handleError(c, err, "failed to build roster")
	}

	return utils.SendSuccess(c, "roster", roster)
}

func (h *SubmissionHandler) mySubmission(c *fiber.Ctx) error {
	submissionID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	studentID := userIDFromContext(c)
	if studentID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	detail, err := h.service.GetForStudent(c.UserContext(), submissionID, studentID)
	if err != nil {
		return h.handleError(c, err, "failed to fetch submission")
	}

	return utils.SendSuccess(c, "submission", detail)
}

func (h *SubmissionHandler) myResult(c *fiber.Ctx) error {
	examID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	studentID := userIDFromContext(c)
	if studentID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	result, err := h.service.GetResultForStudent(c.UserContext(), examID, studentID)
	if err != nil {
		return h.handleError(c, err, "failed to fetch result")
	}

	return utils.SendSuccess(c, "result", result)
}

func (h *SubmissionHandler) handleError(c *fiber.Ctx, err error, message string) error {
	switch {
	case errors.Is(err, service.ErrSubmissionNotFound), errors.Is(err, service.ErrExamNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg(message)
		return utils.SendError(c, fiber.StatusInternalServerError, message)
	}
}
