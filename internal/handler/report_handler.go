package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/examhub/examhub-api/internal/service"
	"github.com/examhub/examhub-api/internal/utils"
)

// ReportHandler wires the reporting endpoints.
type ReportHandler struct {
	service service.ReportService
	logger  zerolog.Logger
}

// NewReportHandler constructs the handler.
func NewReportHandler(service service.ReportService, logger zerolog.Logger) *ReportHandler {
	return &ReportHandler{
		service: service,
		logger:  logger.With().Str("component", "report_handler").Logger(),
	}
}

// RegisterExamRoutes attaches per-exam report routes.
func (h *ReportHandler) RegisterExamRoutes(router fiber.Router) {
	router.Get("/:id/performance", h.performance)
}

// RegisterCourseRoutes attaches per-course report routes.
func (h *ReportHandler) RegisterCourseRoutes(router fiber.Router) {
	router.Get("/:id/completed-exams", h.completedExams)
}

func (h *ReportHandler) performance(c *fiber.Ctx) error {
	examID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	report, err := h.service.Performance(c.UserContext(), examID)
	if err != nil {
		if errors.Is(err, service.ErrExamNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, err.Error())
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to build performance report")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to build performance report")
	}

	return utils.SendSuccess(c, "performance report", report)
}

func (h *ReportHandler) completedExams(c *fiber.Ctx) error {
	courseID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	completed, err := h.service.CompletedExams(c.UserContext(), courseID)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to list completed exams")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list completed exams")
	}

	return utils.SendSuccess(c, "completed exams", completed)
}
