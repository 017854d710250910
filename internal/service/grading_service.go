package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/examhub/examhub-api/internal/dto"
	"github.com/examhub/examhub-api/internal/grading"
	"github.com/examhub/examhub-api/internal/models"
	"github.com/examhub/examhub-api/internal/observability"
	"github.com/examhub/examhub-api/internal/repository"
)

// ErrSubmissionNotFound indicates the submission does not exist.
var ErrSubmissionNotFound = errors.New("submission not found")

// ErrAnswerNotFound indicates a graded answer id does not belong to the submission.
var ErrAnswerNotFound = errors.New("answer not found in submission")

// ErrNotEssayAnswer indicates a grade targets an auto-graded answer.
var ErrNotEssayAnswer = errors.New("answer is not an essay")

// ErrFeedbackTooLong indicates feedback exceeds the stored column size.
var ErrFeedbackTooLong = errors.New("feedback exceeds maximum length")

const maxFeedbackLength = 5000

// GradingService applies instructor essay grades to submissions. MCQ scores
// are never touched here; they were fixed at submit time.
type GradingService interface {
	GradeEssays(ctx context.Context, submissionID uint, payload dto.GradeEssaysRequest, actor ActivityActor) (dto.SubmissionDetailResponse, error)
}

type gradingService struct {
	submissions repository.SubmissionRepository
	questions   repository.QuestionRepository
	validator   *validator.Validate
	activity    ActivityRecorder
	notifier    GradedNotifier
	policy      *bluemonday.Policy
	logger      zerolog.Logger
	tracer      trace.Tracer
}

// NewGradingService constructs the grading service.
func NewGradingService(submissions repository.SubmissionRepository, questions repository.QuestionRepository, validator *validator.Validate, activity ActivityRecorder, notifier GradedNotifier, logger zerolog.Logger) GradingService {
	return &gradingService{
		submissions: submissions,
		questions:   questions,
		validator:   validator,
		activity:    activity,
		notifier:    notifier,
		policy:      bluemonday.StrictPolicy(),
		logger:      logger.With().Str("component", "grading_service").Logger(),
		tracer:      otel.Tracer("github.com/examhub/examhub-api/internal/service/grading"),
	}
}

// GradeEssays scores a batch of essay answers on one submission. Re-grading
// an answer overwrites its previous score; grades already recorded but absent
// from the batch are kept. The whole submission total is recomputed from the
// stored answers after the batch applies, and the status moves to graded once
// every essay has a score.
func (s *gradingService) GradeEssays(ctx context.Context, submissionID uint, payload dto.GradeEssaysRequest, actor ActivityActor) (dto.SubmissionDetailResponse, error) {
	ctx, span := s.tracer.Start(ctx, "grading.essays", trace.WithAttributes(
		attribute.Int64("grading.submission_id", int64(submissionID)),
		attribute.Int64("grading.actor_id", int64(actor.ID)),
		attribute.Int("grading.batch_size", len(payload.Grades)),
	))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.SubmissionDetailResponse{}, err
	}

	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionDetailResponse{}, ErrSubmissionNotFound
		}
		span.RecordError(err)
		return dto.SubmissionDetailResponse{}, err
	}

	answersByID := make(map[uint]*models.Answer, len(submission.Answers))
	for i := range submission.Answers {
		answersByID[submission.Answers[i].ID] = &submission.Answers[i]
	}

	for _, grade := range payload.Grades {
		answer, ok := answersByID[grade.AnswerID]
		if !ok {
			return dto.SubmissionDetailResponse{}, fmt.Errorf("%w: answer %d", ErrAnswerNotFound, grade.AnswerID)
		}
		if !answer.Question.IsEssay() {
			return dto.SubmissionDetailResponse{}, fmt.Errorf("%w: answer %d", ErrNotEssayAnswer, grade.AnswerID)
		}
		if err := grading.ValidateEssayScore(answer.Question, grade.Score); err != nil {
			return dto.SubmissionDetailResponse{}, fmt.Errorf("%w: answer %d", err, grade.AnswerID)
		}

		feedback := strings.TrimSpace(s.policy.Sanitize(grade.Feedback))
		if len(feedback) > maxFeedbackLength {
			return dto.SubmissionDetailResponse{}, ErrFeedbackTooLong
		}

		if err := s.submissions.UpdateAnswerScore(ctx, answer.ID, grade.Score, feedback); err != nil {
			span.RecordError(err)
			return dto.SubmissionDetailResponse{}, err
		}
		score := grade.Score
		answer.Score = &score
		answer.Feedback = feedback
	}

	if payload.OverallFeedback != nil {
		feedback := strings.TrimSpace(s.policy.Sanitize(*payload.OverallFeedback))
		if len(feedback) > maxFeedbackLength {
			return dto.SubmissionDetailResponse{}, ErrFeedbackTooLong
		}
		submission.OverallFeedback = feedback
	}

	questions, err := s.questions.ListByExam(ctx, submission.ExamID)
	if err != nil {
		span.RecordError(err)
		return dto.SubmissionDetailResponse{}, err
	}

	totals := grading.Aggregate(questions, submission.Answers)
	submission.TotalScore = totals.Total
	submission.MaxScore = totals.Max

	wasGraded := submission.IsGraded()
	if essaysFullyGraded(submission.Answers) {
		submission.Status = models.SubmissionStatusGraded
		submission.LetterGrade = grading.LetterForTotals(totals)
	}

	if err := s.submissions.Update(ctx, &submission); err != nil {
		span.RecordError(err)
		return dto.SubmissionDetailResponse{}, err
	}

	observability.EssayGradesTotal().Add(float64(len(payload.Grades)))
	s.logger.Info().
		Uint("submission_id", submission.ID).
		Int("graded_answers", len(payload.Grades)).
		Str("status", submission.Status).
		Float64("total_score", submission.TotalScore).
		Msg("essay grades applied")

	if s.activity != nil {
		_, _ = s.activity.Record(ctx, ActivityEntry{
			ActorID:    actor.ID,
			ActorRole:  actor.Role,
			Action:     "submission.graded",
			EntityType: "submission",
			EntityID:   &submission.ID,
			Metadata: map[string]interface{}{
				"exam_id":     submission.ExamID,
				"student_id":  submission.StudentID,
				"batch_size":  len(payload.Grades),
				"total_score": submission.TotalScore,
				"status":      submission.Status,
			},
		})
	}

	if submission.IsGraded() && !wasGraded && s.notifier != nil {
		s.notifier.NotifyGraded(ctx, submission, submission.Exam)
	}

	stored, err := s.submissions.GetByID(ctx, submission.ID)
	if err != nil {
		return dto.NewSubmissionDetailResponse(submission), nil
	}

	span.SetAttributes(attribute.String("grading.status", stored.Status))
	return dto.NewSubmissionDetailResponse(stored), nil
}

// essaysFullyGraded reports whether every essay answer carries a score.
func essaysFullyGraded(answers []models.Answer) bool {
	for _, answer := range answers {
		if answer.Question.IsEssay() && answer.Score == nil {
			return false
		}
	}
	return true
}
