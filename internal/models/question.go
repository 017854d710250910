package models

import "time"

// Question belongs to an exam and is either auto-graded multiple choice or a
// manually graded essay. MCQ questions carry their options; essays carry an
// optional rubric for the grader.
type Question struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	ExamID    uint             `gorm:"index;not null" json:"exam_id"`
	Type      string           `gorm:"size:16;not null" json:"type"`
	Text      string           `gorm:"type:text;not null" json:"text"`
	Marks     float64          `gorm:"not null" json:"marks"`
	Rubric    string           `gorm:"type:text" json:"rubric"`
	Options   []QuestionOption `gorm:"constraint:OnDelete:CASCADE" json:"options"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// QuestionOption is one MCQ choice. Exactly one option per question is correct.
type QuestionOption struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	QuestionID uint   `gorm:"index;not null" json:"question_id"`
	Position   int    `gorm:"not null" json:"position"`
	Text       string `gorm:"size:512;not null" json:"text"`
	IsCorrect  bool   `gorm:"not null;default:false" json:"-"`
}

const (
	// QuestionTypeMCQ marks an auto-graded multiple choice question.
	QuestionTypeMCQ = "mcq"
	// QuestionTypeEssay marks a free-text question requiring manual grading.
	QuestionTypeEssay = "essay"
)

// IsMCQ reports whether the question is auto-graded.
func (q Question) IsMCQ() bool {
	return q.Type == QuestionTypeMCQ
}

// IsEssay reports whether the question needs manual grading.
func (q Question) IsEssay() bool {
	return q.Type == QuestionTypeEssay
}

// CorrectIndex returns the position of the correct option, or -1 when the
// question has none (essays, or malformed data).
func (q Question) CorrectIndex() int {
	for _, option := range q.Options {
		if option.IsCorrect {
			return option.Position
		}
	}
	return -1
}
