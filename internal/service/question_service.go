package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/examhub/examhub-api/internal/dto"
	"github.com/examhub/examhub-api/internal/models"
	"github.com/examhub/examhub-api/internal/repository"
)

// ErrQuestionNotFound indicates the question does not exist.
var ErrQuestionNotFound = errors.New("question not found")

// ErrDuplicateQuestionText indicates the exam already contains a question
// with the same text.
var ErrDuplicateQuestionText = errors.New("question text already exists in this exam")

// ErrInvalidQuestion indicates the question payload fails a domain rule
// that struct validation cannot express.
var ErrInvalidQuestion = errors.New("invalid question")

// QuestionService manages exam questions for instructors.
type QuestionService interface {
	AddMCQ(ctx context.Context, examID uint, payload dto.MCQQuestionRequest, actor ActivityActor) (dto.QuestionResponse, error)
	AddEssay(ctx context.Context, examID uint, payload dto.EssayQuestionRequest, actor ActivityActor) (dto.QuestionResponse, error)
	UpdateMCQ(ctx context.Context, questionID uint, payload dto.MCQQuestionRequest, actor ActivityActor) (dto.QuestionResponse, error)
	UpdateEssay(ctx context.Context, questionID uint, payload dto.EssayQuestionRequest, actor ActivityActor) (dto.QuestionResponse, error)
	Delete(ctx context.Context, questionID uint, actor ActivityActor) error
	ListForInstructor(ctx context.Context, examID uint) ([]dto.QuestionResponse, error)
}

type questionService struct {
	repo        repository.QuestionRepository
	exams       repository.ExamRepository
	submissions repository.SubmissionRepository
	validator   *validator.Validate
	activity    ActivityRecorder
	logger      zerolog.Logger
}

// NewQuestionService constructs the question service.
func NewQuestionService(repo repository.QuestionRepository, exams repository.ExamRepository, submissions repository.SubmissionRepository, validator *validator.Validate, activity ActivityRecorder, logger zerolog.Logger) QuestionService {
	return &questionService{
		repo:        repo,
		exams:       exams,
		submissions: submissions,
		validator:   validator,
		activity:    activity,
		logger:      logger.With().Str("component", "question_service").Logger(),
	}
}

func (s *questionService) AddMCQ(ctx context.Context, examID uint, payload dto.MCQQuestionRequest, actor ActivityActor) (dto.QuestionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.QuestionResponse{}, err
	}
	if err := s.ensureExamEditable(ctx, examID); err != nil {
		return dto.QuestionResponse{}, err
	}

	question, err := buildMCQ(examID, payload)
	if err != nil {
		return dto.QuestionResponse{}, err
	}
	if err := s.ensureUniqueText(ctx, examID, question.Text, 0); err != nil {
		return dto.QuestionResponse{}, err
	}

	if err := s.repo.Create(ctx, &question); err != nil {
		return dto.QuestionResponse{}, err
	}

	s.recordActivity(ctx, actor, "question.created", question.ID, examID)
	return dto.NewQuestionResponse(question), nil
}

func (s *questionService) AddEssay(ctx context.Context, examID uint, payload dto.EssayQuestionRequest, actor ActivityActor) (dto.QuestionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.QuestionResponse{}, err
	}
	if err := s.ensureExamEditable(ctx, examID); err != nil {
		return dto.QuestionResponse{}, err
	}

	text := strings.TrimSpace(payload.Text)
	if text == "" {
		return dto.QuestionResponse{}, fmt.Errorf("%w: text must not be blank", ErrInvalidQuestion)
	}
	if err := s.ensureUniqueText(ctx, examID, text, 0); err != nil {
		return dto.QuestionResponse{}, err
	}

	question := models.Question{
		ExamID: examID,
		Type:   models.QuestionTypeEssay,
		Text:   text,
		Marks:  payload.Marks,
		Rubric: strings.TrimSpace(payload.Rubric),
	}
	if err := s.repo.Create(ctx, &question); err != nil {
		return dto.QuestionResponse{}, err
	}

	s.recordActivity(ctx, actor, "question.created", question.ID, examID)
	return dto.NewQuestionResponse(question), nil
}

func (s *questionService) UpdateMCQ(ctx context.Context, questionID uint, payload dto.MCQQuestionRequest, actor ActivityActor) (dto.QuestionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.QuestionResponse{}, err
	}

	existing, err := s.getQuestion(ctx, questionID)
	if err != nil {
		return dto.QuestionResponse{}, err
	}
	if !existing.IsMCQ() {
		return dto.QuestionResponse{}, fmt.Errorf("%w: question %d is not multiple choice", ErrInvalidQuestion, questionID)
	}
	if err := s.ensureExamEditable(ctx, existing.ExamID); err != nil {
		return dto.QuestionResponse{}, err
	}

	question, err := buildMCQ(existing.ExamID, payload)
	if err != nil {
		return dto.QuestionResponse{}, err
	}
	if err := s.ensureUniqueText(ctx, existing.ExamID, question.Text, existing.ID); err != nil {
		return dto.QuestionResponse{}, err
	}

	question.ID = existing.ID
	if err := s.repo.Update(ctx, &question); err != nil {
		return dto.QuestionResponse{}, err
	}

	s.recordActivity(ctx, actor, "question.updated", question.ID, existing.ExamID)
	return dto.NewQuestionResponse(question), nil
}

func (s *questionService) UpdateEssay(ctx context.Context, questionID uint, payload dto.EssayQuestionRequest, actor ActivityActor) (dto.QuestionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.QuestionResponse{}, err
	}

	existing, err := s.getQuestion(ctx, questionID)
	if err != nil {
		return dto.QuestionResponse{}, err
	}
	if !existing.IsEssay() {
		return dto.QuestionResponse{}, fmt.Errorf("%w: question %d is not an essay", ErrInvalidQuestion, questionID)
	}
	if err := s.ensureExamEditable(ctx, existing.ExamID); err != nil {
		return dto.QuestionResponse{}, err
	}

	text := strings.TrimSpace(payload.Text)
	if text == "" {
		return dto.QuestionResponse{}, fmt.Errorf("%w: text must not be blank", ErrInvalidQuestion)
	}
	if err := s.ensureUniqueText(ctx, existing.ExamID, text, existing.ID); err != nil {
		return dto.QuestionResponse{}, err
	}

	existing.Text = text
	existing.Marks = payload.Marks
	existing.Rubric = strings.TrimSpace(payload.Rubric)
	if err := s.repo.Update(ctx, &existing); err != nil {
		return dto.QuestionResponse{}, err
	}

	s.recordActivity(ctx, actor, "question.updated", existing.ID, existing.ExamID)
	return dto.NewQuestionResponse(existing), nil
}

func (s *questionService) Delete(ctx context.Context, questionID uint, actor ActivityActor) error {
	existing, err := s.getQuestion(ctx, questionID)
	if err != nil {
		return err
	}
	if err := s.ensureExamEditable(ctx, existing.ExamID); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, existing.ID); err != nil {
		return err
	}

	s.recordActivity(ctx, actor, "question.deleted", existing.ID, existing.ExamID)
	return nil
}

func (s *questionService) ListForInstructor(ctx context.Context, examID uint) ([]dto.QuestionResponse, error) {
	if _, err := s.exams.GetByID(ctx, examID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrExamNotFound
		}
		return nil, err
	}

	questions, err := s.repo.ListByExam(ctx, examID)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.QuestionResponse, 0, len(questions))
	for _, question := range questions {
		responses = append(responses, dto.NewQuestionResponse(question))
	}
	return responses, nil
}

func (s *questionService) getQuestion(ctx context.Context, questionID uint) (models.Question, error) {
	question, err := s.repo.GetByID(ctx, questionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Question{}, ErrQuestionNotFound
		}
		return models.Question{}, err
	}
	return question, nil
}

// ensureExamEditable verifies the exam exists and has no submissions.
// Once a student has submitted, the question set is frozen.
func (s *questionService) ensureExamEditable(ctx context.Context, examID uint) error {
	if _, err := s.exams.GetByID(ctx, examID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrExamNotFound
		}
		return err
	}

	locked, err := s.submissions.ExistsForExam(ctx, examID)
	if err != nil {
		return err
	}
	if locked {
		return ErrExamLocked
	}
	return nil
}

func (s *questionService) ensureUniqueText(ctx context.Context, examID uint, text string, excludeID uint) error {
	exists, err := s.repo.TextExists(ctx, examID, text, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return ErrDuplicateQuestionText
	}
	return nil
}

// buildMCQ assembles an MCQ question model, enforcing the option rules:
// at least two options, no duplicates after trimming and case folding,
// and a correct index that points at a real option.
func buildMCQ(examID uint, payload dto.MCQQuestionRequest) (models.Question, error) {
	text := strings.TrimSpace(payload.Text)
	if text == "" {
		return models.Question{}, fmt.Errorf("%w: text must not be blank", ErrInvalidQuestion)
	}

	options := make([]models.QuestionOption, 0, len(payload.Options))
	seen := make(map[string]struct{}, len(payload.Options))
	for position, raw := range payload.Options {
		optionText := strings.TrimSpace(raw)
		if optionText == "" {
			return models.Question{}, fmt.Errorf("%w: option %d must not be blank", ErrInvalidQuestion, position)
		}
		key := strings.ToLower(optionText)
		if _, dup := seen[key]; dup {
			return models.Question{}, fmt.Errorf("%w: duplicate option %q", ErrInvalidQuestion, optionText)
		}
		seen[key] = struct{}{}
		options = append(options, models.QuestionOption{
			Position:  position,
			Text:      optionText,
			IsCorrect: position == payload.CorrectOptionIndex,
		})
	}

	if len(options) < 2 {
		return models.Question{}, fmt.Errorf("%w: at least two options required", ErrInvalidQuestion)
	}
	if payload.CorrectOptionIndex < 0 || payload.CorrectOptionIndex >= len(options) {
		return models.Question{}, fmt.Errorf("%w: correct option index %d out of range", ErrInvalidQuestion, payload.CorrectOptionIndex)
	}

	return models.Question{
		ExamID:  examID,
		Type:    models.QuestionTypeMCQ,
		Text:    text,
		Marks:   payload.Marks,
		Options: options,
	}, nil
}

func (s *questionService) recordActivity(ctx context.Context, actor ActivityActor, action string, questionID, examID uint) {
	if s.activity == nil {
		return
	}
	_, _ = s.activity.Record(ctx, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     action,
		EntityType: "question",
		EntityID:   &questionID,
		Metadata:   map[string]interface{}{"exam_id": examID},
	})
}
