package dto

import "time"

// AnswerInput is one answered question within a submit payload. Exactly one of
// SelectedOption or EssayText is expected depending on the question type;
// omitted questions count as unanswered.
type AnswerInput struct {
	QuestionID     uint    `json:"question_id" validate:"required,gt=0"`
	SelectedOption *int    `json:"selected_option" validate:"omitempty,gte=0"`
	EssayText      *string `json:"essay_text"`
}

// SubmitExamRequest is the payload handed in when a student finishes an exam.
type SubmitExamRequest struct {
	Answers []AnswerInput `json:"answers" validate:"dive"`
}

// AnswerResultResponse reports the per-question outcome of a submit.
type AnswerResultResponse struct {
	QuestionID uint     `json:"question_id"`
	Type       string   `json:"type"`
	IsCorrect  *bool    `json:"is_correct,omitempty"`
	Score      *float64 `json:"score,omitempty"`
	MaxScore   float64  `json:"max_score"`
	Pending    bool     `json:"pending,omitempty"`
}

// SubmissionResultResponse is returned after submitting or grading.
type SubmissionResultResponse struct {
	SubmissionID uint                   `json:"submission_id"`
	Status       string                 `json:"status"`
	TotalScore   float64                `json:"total_score"`
	MaxScore     float64                `json:"max_score"`
	LetterGrade  string                 `json:"letter_grade"`
	SubmittedAt  time.Time              `json:"submitted_at"`
	Results      []AnswerResultResponse `json:"results,omitempty"`
}

// AvailabilityResponse reports whether an exam can be taken right now.
type AvailabilityResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Availability status values.
const (
	AvailabilityNotStarted = "not_started"
	AvailabilityAvailable  = "available"
	AvailabilityEnded      = "ended"
)

// DurationResponse carries the timing data the exam-taking page and the live
// timer stream rely on.
type DurationResponse struct {
	DurationSeconds  int    `json:"duration_seconds"`
	RemainingSeconds int    `json:"remaining_seconds"`
	Date             string `json:"date"`
	StartTime        string `json:"start_time"`
	EndTime          string `json:"end_time"`
}
