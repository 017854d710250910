package dto

import (
	"time"

	"github.com/examhub/examhub-api/internal/models"
)

// ExamCreateRequest describes the payload for scheduling a new exam.
type ExamCreateRequest struct {
	Title     string `json:"title" validate:"required,max=255"`
	Code      string `json:"code" validate:"required,max=50"`
	CourseID  uint   `json:"course_id" validate:"required,gt=0"`
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime string `json:"start_time" validate:"required,datetime=15:04"`
	EndTime   string `json:"end_time" validate:"required,datetime=15:04"`
}

// ExamUpdateRequest describes a schedule change for an exam with no submissions yet.
type ExamUpdateRequest struct {
	Title     *string `json:"title" validate:"omitempty,max=255"`
	Code      *string `json:"code" validate:"omitempty,max=50"`
	Date      *string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	StartTime *string `json:"start_time" validate:"omitempty,datetime=15:04"`
	EndTime   *string `json:"end_time" validate:"omitempty,datetime=15:04"`
	Status    *string `json:"status" validate:"omitempty,oneof=scheduled completed"`
}

// ExamResponse is returned to API clients when viewing exams.
type ExamResponse struct {
	ID         uint      `json:"id"`
	Title      string    `json:"title"`
	Code       string    `json:"code"`
	CourseID   uint      `json:"course_id"`
	CourseName string    `json:"course_name,omitempty"`
	Date       string    `json:"date"`
	StartTime  string    `json:"start_time"`
	EndTime    string    `json:"end_time"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// NewExamResponse converts an Exam model into a DTO.
func NewExamResponse(model models.Exam) ExamResponse {
	response := ExamResponse{
		ID:        model.ID,
		Title:     model.Title,
		Code:      model.Code,
		CourseID:  model.CourseID,
		Date:      model.Date.Format("2006-01-02"),
		StartTime: model.StartTime,
		EndTime:   model.EndTime,
		Status:    model.Status,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}

	if model.Course.ID != 0 {
		response.CourseName = model.Course.Name
	}

	return response
}

// NewExamResponseSlice converts exam models into DTOs.
func NewExamResponseSlice(exams []models.Exam) []ExamResponse {
	responses := make([]ExamResponse, 0, len(exams))
	for _, exam := range exams {
		responses = append(responses, NewExamResponse(exam))
	}

	return responses
}
