package handler

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/examhub/examhub-api/internal/dto"
	"github.com/examhub/examhub-api/internal/middleware"
	"github.com/examhub/examhub-api/internal/observability"
	"github.com/examhub/examhub-api/internal/service"
	"github.com/examhub/examhub-api/internal/utils"
)

const timerTickInterval = time.Second

// TakeExamHandler wires the student exam-taking endpoints, including the live
// countdown websocket.
type TakeExamHandler struct {
	service service.TakeExamService
	logger  zerolog.Logger
}

// NewTakeExamHandler constructs the handler.
func NewTakeExamHandler(service service.TakeExamService, logger zerolog.Logger) *TakeExamHandler {
	return &TakeExamHandler{
		service: service,
		logger:  logger.With().Str("component", "take_exam_handler").Logger(),
	}
}

// Register attaches exam-taking routes to the router group.
func (h *TakeExamHandler) Register(router fiber.Router) {
	router.Get("/:id/availability", h.availability)
	router.Get("/:id/questions", h.questions)
	router.Get("/:id/duration", h.duration)
	router.Post("/:id/submit", h.submit)

	router.Use("/:id/timer", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			ctx := c.UserContext()
			if ctx == nil {
				ctx = context.Background()
			}
			c.Locals("request_ctx", middleware.ContextWithCorrelation(ctx, middleware.GetCorrelationID(c)))
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	router.Get("/:id/timer", websocket.New(h.timer))
}

func (h *TakeExamHandler) availability(c *fiber.Ctx) error {
	examID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	availability, err := h.service.Availability(c.UserContext(), examID)
	if err != nil {
		return h.handleError(c, err, "failed to check availability")
	}

	return utils.SendSuccess(c, "availability", availability)
}

func (h *TakeExamHandler) questions(c *fiber.Ctx) error {
	examID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	studentID := userIDFromContext(c)
	if studentID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	questions, err := h.service.Questions(c.UserContext(), examID, studentID)
	if err != nil {
		return h.handleError(c, err, "failed to fetch questions")
	}

	return utils.SendSuccess(c, "questions", questions)
}

func (h *TakeExamHandler) duration(c *fiber.Ctx) error {
	examID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	duration, err := h.service.DurationInfo(c.UserContext(), examID)
	if err != nil {
		return h.handleError(c, err, "failed to fetch duration")
	}

	return utils.SendSuccess(c, "duration", duration)
}

func (h *TakeExamHandler) submit(c *fiber.Ctx) error {
	examID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	studentID := userIDFromContext(c)
	if studentID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	var payload dto.SubmitExamRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	result, err := h.service.Submit(c.UserContext(), examID, studentID, payload)
	if err != nil {
		return h.handleError(c, err, "failed to submit exam")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "exam submitted", result)
}

// timer streams the remaining seconds once per second until the window closes
// or the client disconnects.
func (h *TakeExamHandler) timer(conn *websocket.Conn) {
	defer func() { _ = conn.Close() }()

	examID, err := parseUintString(conn.Params("id"))
	if err != nil || examID == 0 {
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "invalid exam id"))
		return
	}

	ctx, _ := conn.Locals("request_ctx").(context.Context)
	if ctx == nil {
		ctx = context.Background()
	}

	observability.TimerClientsActive().Inc()
	defer observability.TimerClientsActive().Dec()
	h.logger.Info().Uint("exam_id", examID).Msg("timer websocket connected")

	ticker := time.NewTicker(timerTickInterval)
	defer ticker.Stop()

	for {
		duration, err := h.service.DurationInfo(ctx, examID)
		if err != nil {
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "exam unavailable"))
			return
		}

		payload, err := json.Marshal(duration)
		if err != nil {
			return
		}
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
		if duration.RemainingSeconds <= 0 {
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "exam ended"))
			return
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
	}
}

func (h *TakeExamHandler) handleError(c *fiber.Ctx, err error, message string) error {
	switch {
	case errors.Is(err, service.ErrExamNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrExamNotStarted),
		errors.Is(err, service.ErrLateSubmission),
		errors.Is(err, service.ErrNotEnrolled):
		return utils.SendError(c, fiber.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrAlreadySubmitted):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrUnknownQuestion), isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg(message)
		return utils.SendError(c, fiber.StatusInternalServerError, message)
	}
}
