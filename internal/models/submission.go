package models

import "time"

// Submission is one student's single attempt at an exam. At most one row ever
// exists per (exam, student) pair, enforced by the unique index. Rows are never
// deleted; grading mutates them forward only.
type Submission struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	ExamID          uint      `gorm:"uniqueIndex:idx_submission_exam_student;not null" json:"exam_id"`
	StudentID       uint      `gorm:"uniqueIndex:idx_submission_exam_student;not null" json:"student_id"`
	SubmittedAt     time.Time `gorm:"not null" json:"submitted_at"`
	Status          string    `gorm:"size:32;not null" json:"status"`
	TotalScore      float64   `gorm:"not null" json:"total_score"`
	MaxScore        float64   `gorm:"not null" json:"max_score"`
	LetterGrade     string    `gorm:"size:8" json:"letter_grade"`
	OverallFeedback string    `gorm:"size:5000" json:"overall_feedback"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	Exam            Exam      `json:"exam"`
	Student         Student   `json:"student"`
	Answers         []Answer  `gorm:"constraint:OnDelete:CASCADE" json:"answers"`
}

const (
	// SubmissionStatusInProgress marks an attempt that was opened but not yet handed in.
	SubmissionStatusInProgress = "in_progress"
	// SubmissionStatusPending marks a handed-in attempt awaiting essay review.
	SubmissionStatusPending = "pending"
	// SubmissionStatusGraded marks an attempt with every answer scored.
	SubmissionStatusGraded = "graded"
)

// IsGraded reports whether grading has fully completed.
func (s Submission) IsGraded() bool {
	return s.Status == SubmissionStatusGraded
}

// Answer holds one student's response to one question of the exam, one row per
// question whether answered or not. For MCQ the earned score and correctness
// are derived at submit time; for essays Score stays nil until an instructor
// grades the answer.
type Answer struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	SubmissionID   uint      `gorm:"uniqueIndex:idx_answer_submission_question;not null" json:"submission_id"`
	QuestionID     uint      `gorm:"uniqueIndex:idx_answer_submission_question;not null" json:"question_id"`
	SelectedOption *int      `json:"selected_option"`
	EssayText      *string   `gorm:"type:text" json:"essay_text"`
	Score          *float64  `json:"score"`
	IsCorrect      *bool     `json:"is_correct"`
	Feedback       string    `gorm:"size:5000" json:"feedback"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	Question       Question  `json:"question"`
}

// EarnedScore returns the score counted toward the submission total. Ungraded
// essays contribute zero.
func (a Answer) EarnedScore() float64 {
	if a.Score == nil {
		return 0
	}
	return *a.Score
}
