package dto

import (
	"time"

	"github.com/examhub/examhub-api/internal/models"
)

// EssayGradeInput is one instructor-supplied essay score.
type EssayGradeInput struct {
	AnswerID uint    `json:"answer_id" validate:"required,gt=0"`
	Score    float64 `json:"score" validate:"gte=0"`
	Feedback string  `json:"feedback" validate:"omitempty,max=5000"`
}

// GradeEssaysRequest carries a batch of essay grades for one submission.
// An empty grade list with only overall feedback is a legal save.
type GradeEssaysRequest struct {
	Grades          []EssayGradeInput `json:"grades" validate:"dive"`
	OverallFeedback *string           `json:"overall_feedback" validate:"omitempty,max=5000"`
}

// AnswerDetailResponse is one answer within a submission detail view.
type AnswerDetailResponse struct {
	AnswerID       uint     `json:"answer_id"`
	QuestionID     uint     `json:"question_id"`
	QuestionText   string   `json:"question_text"`
	Type           string   `json:"type"`
	Marks          float64  `json:"marks"`
	SelectedOption *int     `json:"selected_option,omitempty"`
	EssayText      *string  `json:"essay_text,omitempty"`
	Score          *float64 `json:"score"`
	IsCorrect      *bool    `json:"is_correct,omitempty"`
	Feedback       string   `json:"feedback,omitempty"`
}

// SubmissionDetailResponse is the full view of one submission.
type SubmissionDetailResponse struct {
	ID              uint                   `json:"id"`
	ExamID          uint                   `json:"exam_id"`
	ExamTitle       string                 `json:"exam_title"`
	StudentID       uint                   `json:"student_id"`
	StudentName     string                 `json:"student_name,omitempty"`
	StudentEmail    string                 `json:"student_email,omitempty"`
	SubmittedAt     time.Time              `json:"submitted_at"`
	Status          string                 `json:"status"`
	TotalScore      float64                `json:"total_score"`
	MaxScore        float64                `json:"max_score"`
	Percentage      float64                `json:"percentage"`
	LetterGrade     string                 `json:"letter_grade"`
	OverallFeedback string                 `json:"overall_feedback"`
	Answers         []AnswerDetailResponse `json:"answers"`
}

// Roster entry status values.
const (
	RosterStatusSubmitted = "submitted"
	RosterStatusMissed    = "missed"
)

// RosterEntryResponse is one row of the per-exam roster. Missed entries carry
// no submission fields at all.
type RosterEntryResponse struct {
	StudentID     uint       `json:"student_id"`
	StudentName   string     `json:"student_name"`
	StudentEmail  string     `json:"student_email"`
	StudentNumber string     `json:"student_number,omitempty"`
	Status        string     `json:"status"`
	SubmissionID  *uint      `json:"submission_id,omitempty"`
	SubmittedAt   *time.Time `json:"submitted_at,omitempty"`
	Score         *float64   `json:"score,omitempty"`
	MaxScore      *float64   `json:"max_score,omitempty"`
	LetterGrade   *string    `json:"letter_grade,omitempty"`
}

// NewSubmissionDetailResponse converts a Submission model with preloaded
// answers into the detail DTO.
func NewSubmissionDetailResponse(model models.Submission) SubmissionDetailResponse {
	response := SubmissionDetailResponse{
		ID:              model.ID,
		ExamID:          model.ExamID,
		StudentID:       model.StudentID,
		SubmittedAt:     model.SubmittedAt,
		Status:          model.Status,
		TotalScore:      model.TotalScore,
		MaxScore:        model.MaxScore,
		LetterGrade:     model.LetterGrade,
		OverallFeedback: model.OverallFeedback,
	}

	if model.MaxScore > 0 {
		response.Percentage = model.TotalScore / model.MaxScore * 100
	}

	if model.Exam.ID != 0 {
		response.ExamTitle = model.Exam.Title
	}

	if model.Student.ID != 0 {
		response.StudentName = model.Student.Name
		response.StudentEmail = model.Student.Email
	}

	for _, answer := range model.Answers {
		response.Answers = append(response.Answers, AnswerDetailResponse{
			AnswerID:       answer.ID,
			QuestionID:     answer.QuestionID,
			QuestionText:   answer.Question.Text,
			Type:           answer.Question.Type,
			Marks:          answer.Question.Marks,
			SelectedOption: answer.SelectedOption,
			EssayText:      answer.EssayText,
			Score:          answer.Score,
			IsCorrect:      answer.IsCorrect,
			Feedback:       answer.Feedback,
		})
	}

	return response
}

// NewSubmissionResultResponse converts a Submission into the compact result DTO.
func NewSubmissionResultResponse(model models.Submission) SubmissionResultResponse {
	response := SubmissionResultResponse{
		SubmissionID: model.ID,
		Status:       model.Status,
		TotalScore:   model.TotalScore,
		MaxScore:     model.MaxScore,
		LetterGrade:  model.LetterGrade,
		SubmittedAt:  model.SubmittedAt,
	}

	for _, answer := range model.Answers {
		result := AnswerResultResponse{
			QuestionID: answer.QuestionID,
			Type:       answer.Question.Type,
			MaxScore:   answer.Question.Marks,
			Score:      answer.Score,
			IsCorrect:  answer.IsCorrect,
		}
		if answer.Question.IsEssay() && answer.Score == nil {
			result.Pending = true
		}
		response.Results = append(response.Results, result)
	}

	return response
}
