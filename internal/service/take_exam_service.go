package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/examhub/examhub-api/internal/dto"
	"github.com/examhub/examhub-api/internal/grading"
	"github.com/examhub/examhub-api/internal/models"
	"github.com/examhub/examhub-api/internal/observability"
	"github.com/examhub/examhub-api/internal/repository"
)

// ErrExamNotStarted indicates the exam window has not opened yet.
var ErrExamNotStarted = errors.New("exam has not started")

// ErrLateSubmission indicates the exam window already closed.
var ErrLateSubmission = errors.New("submission after exam end time")

// ErrAlreadySubmitted indicates the student already handed in this exam.
var ErrAlreadySubmitted = errors.New("exam already submitted")

// ErrNotEnrolled indicates the student is not enrolled in the exam's course.
var ErrNotEnrolled = errors.New("student not enrolled in course")

// ErrUnknownQuestion indicates an answer references a question outside the exam.
var ErrUnknownQuestion = errors.New("answer references unknown question")

// TakeExamService covers the student-facing exam flow: availability, the
// question paper, the live timer data and the single submit.
type TakeExamService interface {
	Availability(ctx context.Context, examID uint) (dto.AvailabilityResponse, error)
	Questions(ctx context.Context, examID, studentID uint) ([]dto.StudentQuestionResponse, error)
	DurationInfo(ctx context.Context, examID uint) (dto.DurationResponse, error)
	Submit(ctx context.Context, examID, studentID uint, payload dto.SubmitExamRequest) (dto.SubmissionResultResponse, error)
}

type takeExamService struct {
	submissions repository.SubmissionRepository
	exams       repository.ExamRepository
	questions   repository.QuestionRepository
	students    repository.StudentRepository
	validator   *validator.Validate
	notifier    GradedNotifier
	location    *time.Location
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewTakeExamService constructs the exam-taking service.
func NewTakeExamService(submissions repository.SubmissionRepository, exams repository.ExamRepository, questions repository.QuestionRepository, students repository.StudentRepository, validator *validator.Validate, notifier GradedNotifier, location *time.Location, logger zerolog.Logger) TakeExamService {
	if location == nil {
		location = time.Local
	}
	return &takeExamService{
		submissions: submissions,
		exams:       exams,
		questions:   questions,
		students:    students,
		validator:   validator,
		notifier:    notifier,
		location:    location,
		logger:      logger.With().Str("component", "take_exam_service").Logger(),
		tracer:      otel.Tracer("github.com/examhub/examhub-api/internal/service/takeexam"),
		now:         time.Now,
	}
}

func (s *takeExamService) Availability(ctx context.Context, examID uint) (dto.AvailabilityResponse, error) {
	window, _, err := s.examWindow(ctx, examID)
	if err != nil {
		return dto.AvailabilityResponse{}, err
	}

	now := s.now().In(s.location)
	switch {
	case window.IsBeforeStart(now):
		return dto.AvailabilityResponse{
			Status:  dto.AvailabilityNotStarted,
			Message: fmt.Sprintf("Exam opens at %s", window.StartAt.Format("2006-01-02 15:04")),
		}, nil
	case window.IsAfterEnd(now):
		return dto.AvailabilityResponse{
			Status:  dto.AvailabilityEnded,
			Message: fmt.Sprintf("Exam closed at %s", window.EndAt.Format("2006-01-02 15:04")),
		}, nil
	default:
		return dto.AvailabilityResponse{
			Status:  dto.AvailabilityAvailable,
			Message: fmt.Sprintf("Exam is open until %s", window.EndAt.Format("15:04")),
		}, nil
	}
}

func (s *takeExamService) Questions(ctx context.Context, examID, studentID uint) ([]dto.StudentQuestionResponse, error) {
	window, exam, err := s.examWindow(ctx, examID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureEnrolled(ctx, exam.CourseID, studentID); err != nil {
		return nil, err
	}

	now := s.now().In(s.location)
	if window.IsBeforeStart(now) {
		return nil, ErrExamNotStarted
	}

	questions, err := s.questions.ListByExam(ctx, examID)
	if err != nil {
		return nil, err
	}
	return dto.NewStudentQuestionResponseSlice(questions), nil
}

func (s *takeExamService) DurationInfo(ctx context.Context, examID uint) (dto.DurationResponse, error) {
	window, exam, err := s.examWindow(ctx, examID)
	if err != nil {
		return dto.DurationResponse{}, err
	}

	now := s.now().In(s.location)
	return dto.DurationResponse{
		DurationSeconds:  int(window.Duration().Seconds()),
		RemainingSeconds: int(window.Remaining(now).Seconds()),
		Date:             exam.Date.Format("2006-01-02"),
		StartTime:        exam.StartTime,
		EndTime:          exam.EndTime,
	}, nil
}

// Submit hands in the student's single attempt. The exam window is checked
// against the clock first, MCQ answers are scored on the spot, essays are
// stored unscored and the submission lands in pending until every essay is
// graded. The unique (exam, student) index is the arbiter for concurrent
// double submits.
func (s *takeExamService) Submit(ctx context.Context, examID, studentID uint, payload dto.SubmitExamRequest) (dto.SubmissionResultResponse, error) {
	spanCtx, span := s.tracer.Start(ctx, "exam.submit", trace.WithAttributes(
		attribute.Int64("exam.id", int64(examID)),
		attribute.Int64("student.id", int64(studentID)),
	))
	defer span.End()
	ctx = spanCtx

	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResultResponse{}, err
	}

	window, exam, err := s.examWindow(ctx, examID)
	if err != nil {
		return dto.SubmissionResultResponse{}, err
	}
	if err := s.ensureEnrolled(ctx, exam.CourseID, studentID); err != nil {
		return dto.SubmissionResultResponse{}, err
	}

	now := s.now().In(s.location)
	if window.IsBeforeStart(now) {
		observability.SubmissionsTotal().WithLabelValues("rejected_not_started").Inc()
		return dto.SubmissionResultResponse{}, ErrExamNotStarted
	}
	if window.IsAfterEnd(now) {
		observability.SubmissionsTotal().WithLabelValues("rejected_late").Inc()
		s.logger.Warn().
			Uint("exam_id", examID).
			Uint("student_id", studentID).
			Int("minutes_late", window.MinutesLate(now)).
			Msg("late submission rejected")
		return dto.SubmissionResultResponse{}, ErrLateSubmission
	}

	if _, err := s.submissions.GetByExamAndStudent(ctx, examID, studentID); err == nil {
		return dto.SubmissionResultResponse{}, ErrAlreadySubmitted
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.SubmissionResultResponse{}, err
	}

	questions, err := s.questions.ListByExam(ctx, examID)
	if err != nil {
		return dto.SubmissionResultResponse{}, err
	}

	answers, hasEssay, err := buildAnswers(questions, payload.Answers)
	if err != nil {
		return dto.SubmissionResultResponse{}, err
	}

	totals := grading.Aggregate(questions, answers)
	submission := models.Submission{
		ExamID:      examID,
		StudentID:   studentID,
		SubmittedAt: now,
		TotalScore:  totals.Total,
		MaxScore:    totals.Max,
		Answers:     answers,
	}
	if hasEssay {
		submission.Status = models.SubmissionStatusPending
	} else {
		submission.Status = models.SubmissionStatusGraded
		submission.LetterGrade = grading.LetterForTotals(totals)
	}

	if err := s.submissions.Create(ctx, &submission); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.SubmissionResultResponse{}, ErrAlreadySubmitted
		}
		return dto.SubmissionResultResponse{}, err
	}

	observability.SubmissionsTotal().WithLabelValues("accepted").Inc()
	s.logger.Info().
		Uint("exam_id", examID).
		Uint("student_id", studentID).
		Uint("submission_id", submission.ID).
		Str("status", submission.Status).
		Float64("total_score", submission.TotalScore).
		Msg("submission accepted")

	if submission.IsGraded() && s.notifier != nil {
		s.notifier.NotifyGraded(ctx, submission, exam)
	}

	stored, err := s.submissions.GetByID(ctx, submission.ID)
	if err != nil {
		return dto.NewSubmissionResultResponse(submission), nil
	}
	return dto.NewSubmissionResultResponse(stored), nil
}

// examWindow loads the exam and resolves its window, mapping missing rows to
// ErrExamNotFound.
func (s *takeExamService) examWindow(ctx context.Context, examID uint) (models.ExamWindow, models.Exam, error) {
	exam, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.ExamWindow{}, models.Exam{}, ErrExamNotFound
		}
		return models.ExamWindow{}, models.Exam{}, err
	}

	window, err := exam.Window(s.location)
	if err != nil {
		return models.ExamWindow{}, models.Exam{}, err
	}
	return window, exam, nil
}

func (s *takeExamService) ensureEnrolled(ctx context.Context, courseID, studentID uint) error {
	enrolled, err := s.students.IsEnrolled(ctx, courseID, studentID)
	if err != nil {
		return err
	}
	if !enrolled {
		return ErrNotEnrolled
	}
	return nil
}

// buildAnswers produces exactly one Answer row per exam question, scored for
// MCQ and left unscored for essays. Answers that reference questions outside
// the exam are rejected.
func buildAnswers(questions []models.Question, inputs []dto.AnswerInput) ([]models.Answer, bool, error) {
	byQuestion := make(map[uint]dto.AnswerInput, len(inputs))
	known := make(map[uint]struct{}, len(questions))
	for _, question := range questions {
		known[question.ID] = struct{}{}
	}
	for _, input := range inputs {
		if _, ok := known[input.QuestionID]; !ok {
			return nil, false, fmt.Errorf("%w: question %d", ErrUnknownQuestion, input.QuestionID)
		}
		byQuestion[input.QuestionID] = input
	}

	answers := make([]models.Answer, 0, len(questions))
	hasEssay := false
	for _, question := range questions {
		answer := models.Answer{QuestionID: question.ID}
		input, answered := byQuestion[question.ID]

		switch {
		case question.IsMCQ():
			var selected *int
			if answered {
				selected = input.SelectedOption
			}
			result := grading.ScoreChoice(question, selected)
			answer.SelectedOption = selected
			answer.Score = &result.Earned
			answer.IsCorrect = &result.IsCorrect
			answer.Feedback = result.Feedback
		case question.IsEssay():
			hasEssay = true
			if answered {
				answer.EssayText = input.EssayText
			}
		}

		answers = append(answers, answer)
	}
	return answers, hasEssay, nil
}
