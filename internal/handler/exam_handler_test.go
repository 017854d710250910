package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/examhub/examhub-api/internal/handler"
	"github.com/examhub/examhub-api/internal/models"
	"github.com/examhub/examhub-api/internal/repository"
	"github.com/examhub/examhub-api/internal/service"
)

func openHandlerTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.Course{},
		&models.Student{},
		&models.Enrollment{},
		&models.Exam{},
		&models.Question{},
		&models.QuestionOption{},
		&models.Submission{},
		&models.Answer{},
	))

	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})

	return db
}

func newExamTestApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	db := openHandlerTestDB(t)
	course := models.Course{Code: "CS101", Name: "Intro to CS", InstructorID: 9}
	require.NoError(t, db.Create(&course).Error)

	validate := validator.New(validator.WithRequiredStructEnabled())
	svc := service.NewExamService(
		repository.NewExamRepository(db),
		repository.NewCourseRepository(db),
		repository.NewSubmissionRepository(db),
		validate, nil, time.UTC, zerolog.Nop(),
	)
	h := handler.NewExamHandler(svc, zerolog.Nop())

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user_id", uint(9))
		c.Locals("user_role", "instructor")
		return c.Next()
	})
	h.Register(app.Group("/api/v1/exams"))
	return app, db
}

func postJSON(t *testing.T, app *fiber.App, path string, payload interface{}) *http.Response {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestExamHandler_Create(t *testing.T) {
	app, _ := newExamTestApp(t)

	resp := postJSON(t, app, "/api/v1/exams", fiber.Map{
		"title":      "Final Exam",
		"code":       "CS101-FINAL",
		"course_id":  1,
		"date":       time.Now().UTC().AddDate(0, 1, 0).Format("2006-01-02"),
		"start_time": "09:00",
		"end_time":   "12:00",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var envelope struct {
		Success bool `json:"success"`
		Data    struct {
			ID     uint   `json:"id"`
			Code   string `json:"code"`
			Status string `json:"status"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	require.True(t, envelope.Success)
	require.Equal(t, "CS101-FINAL", envelope.Data.Code)
	require.Equal(t, models.ExamStatusScheduled, envelope.Data.Status)
}

func TestExamHandler_CreateDuplicateCode(t *testing.T) {
	app, _ := newExamTestApp(t)

	payload := fiber.Map{
		"title":      "Final Exam",
		"code":       "CS101-FINAL",
		"course_id":  1,
		"date":       time.Now().UTC().AddDate(0, 1, 0).Format("2006-01-02"),
		"start_time": "09:00",
		"end_time":   "12:00",
	}
	resp := postJSON(t, app, "/api/v1/exams", payload)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	payload["start_time"] = "13:00"
	payload["end_time"] = "15:00"
	resp = postJSON(t, app, "/api/v1/exams", payload)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestExamHandler_CreateOverlapRejected(t *testing.T) {
	app, _ := newExamTestApp(t)

	date := time.Now().UTC().AddDate(0, 1, 0).Format("2006-01-02")
	resp := postJSON(t, app, "/api/v1/exams", fiber.Map{
		"title": "Final Exam", "code": "CS101-FINAL", "course_id": 1,
		"date": date, "start_time": "09:00", "end_time": "12:00",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = postJSON(t, app, "/api/v1/exams", fiber.Map{
		"title": "Retake", "code": "CS101-RETAKE", "course_id": 1,
		"date": date, "start_time": "11:00", "end_time": "13:00",
	})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestExamHandler_CreateInvalidSchedule(t *testing.T) {
	app, _ := newExamTestApp(t)

	resp := postJSON(t, app, "/api/v1/exams", fiber.Map{
		"title": "Final Exam", "code": "CS101-FINAL", "course_id": 1,
		"date": time.Now().UTC().AddDate(0, 1, 0).Format("2006-01-02"),
		"start_time": "12:00", "end_time": "09:00",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestExamHandler_GetNotFound(t *testing.T) {
	app, _ := newExamTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/exams/999", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}
