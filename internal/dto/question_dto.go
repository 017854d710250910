package dto

import "github.com/examhub/examhub-api/internal/models"

// MCQQuestionRequest describes the payload for creating or updating an MCQ question.
type MCQQuestionRequest struct {
	Text               string   `json:"text" validate:"required"`
	Marks              float64  `json:"marks" validate:"required,gte=1"`
	Options            []string `json:"options" validate:"required,min=2,dive,required"`
	CorrectOptionIndex int      `json:"correct_option_index" validate:"gte=0"`
}

// EssayQuestionRequest describes the payload for creating or updating an essay question.
type EssayQuestionRequest struct {
	Text   string  `json:"text" validate:"required"`
	Marks  float64 `json:"marks" validate:"required,gte=1"`
	Rubric string  `json:"rubric" validate:"omitempty,max=5000"`
}

// QuestionOptionResponse is one MCQ choice as seen by instructors.
type QuestionOptionResponse struct {
	Position  int    `json:"position"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

// QuestionResponse is the instructor view of a question, correct flags included.
type QuestionResponse struct {
	ID      uint                     `json:"id"`
	ExamID  uint                     `json:"exam_id"`
	Type    string                   `json:"type"`
	Text    string                   `json:"text"`
	Marks   float64                  `json:"marks"`
	Rubric  string                   `json:"rubric,omitempty"`
	Options []QuestionOptionResponse `json:"options,omitempty"`
}

// StudentOptionResponse is one MCQ choice with the answer key stripped.
type StudentOptionResponse struct {
	Position int    `json:"position"`
	Text     string `json:"text"`
}

// StudentQuestionResponse is the exam-taking view of a question.
type StudentQuestionResponse struct {
	ID      uint                    `json:"id"`
	Type    string                  `json:"type"`
	Text    string                  `json:"text"`
	Marks   float64                 `json:"marks"`
	Options []StudentOptionResponse `json:"options,omitempty"`
}

// NewQuestionResponse converts a Question model into the instructor DTO.
func NewQuestionResponse(model models.Question) QuestionResponse {
	response := QuestionResponse{
		ID:     model.ID,
		ExamID: model.ExamID,
		Type:   model.Type,
		Text:   model.Text,
		Marks:  model.Marks,
		Rubric: model.Rubric,
	}

	for _, option := range model.Options {
		response.Options = append(response.Options, QuestionOptionResponse{
			Position:  option.Position,
			Text:      option.Text,
			IsCorrect: option.IsCorrect,
		})
	}

	return response
}

// NewStudentQuestionResponse converts a Question model into the student DTO.
func NewStudentQuestionResponse(model models.Question) StudentQuestionResponse {
	response := StudentQuestionResponse{
		ID:    model.ID,
		Type:  model.Type,
		Text:  model.Text,
		Marks: model.Marks,
	}

	for _, option := range model.Options {
		response.Options = append(response.Options, StudentOptionResponse{
			Position: option.Position,
			Text:     option.Text,
		})
	}

	return response
}

// NewStudentQuestionResponseSlice converts question models into student DTOs.
func NewStudentQuestionResponseSlice(questions []models.Question) []StudentQuestionResponse {
	responses := make([]StudentQuestionResponse, 0, len(questions))
	for _, question := range questions {
		responses = append(responses, NewStudentQuestionResponse(question))
	}

	return responses
}
