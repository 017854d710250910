package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/examhub/examhub-api/internal/dto"
	"github.com/examhub/examhub-api/internal/models"
	"github.com/examhub/examhub-api/internal/repository"
)

// ErrExamNotFound indicates the exam does not exist.
var ErrExamNotFound = errors.New("exam not found")

// ErrCourseNotFound indicates the exam's course does not exist.
var ErrCourseNotFound = errors.New("course not found")

// ErrExamCodeTaken indicates another exam already uses the requested code.
var ErrExamCodeTaken = errors.New("exam code already in use")

// ErrExamScheduleOverlap indicates the exam window collides with another exam
// in the same course on the same date.
var ErrExamScheduleOverlap = errors.New("exam schedule overlaps an existing exam")

// ErrExamLocked indicates the exam already has submissions and can no longer
// be modified or deleted.
var ErrExamLocked = errors.New("exam has submissions and is locked")

// ErrInvalidExamSchedule indicates the date or time fields are not a valid
// schedule.
var ErrInvalidExamSchedule = errors.New("invalid exam schedule")

var examCodePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

const (
	maxExamCodeLength  = 50
	maxExamTitleLength = 255
)

// ExamService manages exam definitions for instructors.
type ExamService interface {
	Create(ctx context.Context, payload dto.ExamCreateRequest, actor ActivityActor) (dto.ExamResponse, error)
	Update(ctx context.Context, id uint, payload dto.ExamUpdateRequest, actor ActivityActor) (dto.ExamResponse, error)
	Delete(ctx context.Context, id uint, actor ActivityActor) error
	Get(ctx context.Context, id uint) (dto.ExamResponse, error)
	GetByCode(ctx context.Context, code string) (dto.ExamResponse, error)
	ListByCourse(ctx context.Context, courseID uint) ([]dto.ExamResponse, error)
	Search(ctx context.Context, title string) ([]dto.ExamResponse, error)
}

type examService struct {
	repo        repository.ExamRepository
	courses     repository.CourseRepository
	submissions repository.SubmissionRepository
	validator   *validator.Validate
	activity    ActivityRecorder
	location    *time.Location
	logger      zerolog.Logger
	now         func() time.Time
}

// NewExamService constructs the exam service.
func NewExamService(repo repository.ExamRepository, courses repository.CourseRepository, submissions repository.SubmissionRepository, validator *validator.Validate, activity ActivityRecorder, location *time.Location, logger zerolog.Logger) ExamService {
	if location == nil {
		location = time.Local
	}
	return &examService{
		repo:        repo,
		courses:     courses,
		submissions: submissions,
		validator:   validator,
		activity:    activity,
		location:    location,
		logger:      logger.With().Str("component", "exam_service").Logger(),
		now:         time.Now,
	}
}

func (s *examService) Create(ctx context.Context, payload dto.ExamCreateRequest, actor ActivityActor) (dto.ExamResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ExamResponse{}, err
	}

	code := strings.TrimSpace(payload.Code)
	title := strings.TrimSpace(payload.Title)
	if err := validateExamCode(code); err != nil {
		return dto.ExamResponse{}, err
	}
	if title == "" || len(title) > maxExamTitleLength {
		return dto.ExamResponse{}, fmt.Errorf("%w: title must be 1-%d characters", ErrInvalidExamSchedule, maxExamTitleLength)
	}

	date, err := time.ParseInLocation("2006-01-02", payload.Date, s.location)
	if err != nil {
		return dto.ExamResponse{}, fmt.Errorf("%w: %v", ErrInvalidExamSchedule, err)
	}

	exam := models.Exam{
		Code:      code,
		Title:     title,
		CourseID:  payload.CourseID,
		Date:      date,
		StartTime: payload.StartTime,
		EndTime:   payload.EndTime,
		Status:    models.ExamStatusScheduled,
	}
	if err := s.validateSchedule(ctx, &exam, 0); err != nil {
		return dto.ExamResponse{}, err
	}

	if _, err := s.courses.GetByID(ctx, payload.CourseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ExamResponse{}, ErrCourseNotFound
		}
		return dto.ExamResponse{}, err
	}

	taken, err := s.repo.CodeExists(ctx, code, 0)
	if err != nil {
		return dto.ExamResponse{}, err
	}
	if taken {
		return dto.ExamResponse{}, ErrExamCodeTaken
	}

	if err := s.repo.Create(ctx, &exam); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.ExamResponse{}, ErrExamCodeTaken
		}
		return dto.ExamResponse{}, err
	}

	s.recordActivity(ctx, actor, "exam.created", exam.ID, map[string]interface{}{
		"code":      exam.Code,
		"course_id": exam.CourseID,
		"date":      exam.Date.Format("2006-01-02"),
	})
	s.logger.Info().Uint("exam_id", exam.ID).Str("code", exam.Code).Msg("exam created")

	created, err := s.repo.GetByID(ctx, exam.ID)
	if err != nil {
		return dto.NewExamResponse(exam), nil
	}
	return dto.NewExamResponse(created), nil
}

func (s *examService) Update(ctx context.Context, id uint, payload dto.ExamUpdateRequest, actor ActivityActor) (dto.ExamResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ExamResponse{}, err
	}

	exam, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ExamResponse{}, ErrExamNotFound
		}
		return dto.ExamResponse{}, err
	}

	locked, err := s.submissions.ExistsForExam(ctx, exam.ID)
	if err != nil {
		return dto.ExamResponse{}, err
	}
	if locked {
		return dto.ExamResponse{}, ErrExamLocked
	}

	changed := make([]string, 0)

	if payload.Code != nil {
		code := strings.TrimSpace(*payload.Code)
		if err := validateExamCode(code); err != nil {
			return dto.ExamResponse{}, err
		}
		if code != exam.Code {
			taken, err := s.repo.CodeExists(ctx, code, exam.ID)
			if err != nil {
				return dto.ExamResponse{}, err
			}
			if taken {
				return dto.ExamResponse{}, ErrExamCodeTaken
			}
			exam.Code = code
			changed = append(changed, "code")
		}
	}
	if payload.Title != nil {
		title := strings.TrimSpace(*payload.Title)
		if title == "" || len(title) > maxExamTitleLength {
			return dto.ExamResponse{}, fmt.Errorf("%w: title must be 1-%d characters", ErrInvalidExamSchedule, maxExamTitleLength)
		}
		exam.Title = title
		changed = append(changed, "title")
	}
	if payload.Date != nil {
		date, err := time.ParseInLocation("2006-01-02", *payload.Date, s.location)
		if err != nil {
			return dto.ExamResponse{}, fmt.Errorf("%w: %v", ErrInvalidExamSchedule, err)
		}
		exam.Date = date
		changed = append(changed, "date")
	}
	if payload.StartTime != nil {
		exam.StartTime = *payload.StartTime
		changed = append(changed, "start_time")
	}
	if payload.EndTime != nil {
		exam.EndTime = *payload.EndTime
		changed = append(changed, "end_time")
	}
	if payload.Status != nil {
		status := strings.ToLower(strings.TrimSpace(*payload.Status))
		if status != models.ExamStatusScheduled && status != models.ExamStatusCompleted {
			return dto.ExamResponse{}, fmt.Errorf("%w: unknown status %q", ErrInvalidExamSchedule, status)
		}
		exam.Status = status
		changed = append(changed, "status")
	}

	if err := s.validateSchedule(ctx, &exam, exam.ID); err != nil {
		return dto.ExamResponse{}, err
	}

	if err := s.repo.Update(ctx, &exam); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.ExamResponse{}, ErrExamCodeTaken
		}
		return dto.ExamResponse{}, err
	}

	s.recordActivity(ctx, actor, "exam.updated", exam.ID, map[string]interface{}{
		"changed_fields": changed,
	})

	updated, err := s.repo.GetByID(ctx, exam.ID)
	if err != nil {
		return dto.NewExamResponse(exam), nil
	}
	return dto.NewExamResponse(updated), nil
}

func (s *examService) Delete(ctx context.Context, id uint, actor ActivityActor) error {
	exam, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrExamNotFound
		}
		return err
	}

	locked, err := s.submissions.ExistsForExam(ctx, exam.ID)
	if err != nil {
		return err
	}
	if locked {
		return ErrExamLocked
	}

	if err := s.repo.Delete(ctx, exam.ID); err != nil {
		return err
	}

	s.recordActivity(ctx, actor, "exam.deleted", exam.ID, map[string]interface{}{
		"code": exam.Code,
	})
	s.logger.Info().Uint("exam_id", exam.ID).Msg("exam deleted")
	return nil
}

func (s *examService) Get(ctx context.Context, id uint) (dto.ExamResponse, error) {
	exam, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ExamResponse{}, ErrExamNotFound
		}
		return dto.ExamResponse{}, err
	}
	return dto.NewExamResponse(exam), nil
}

func (s *examService) GetByCode(ctx context.Context, code string) (dto.ExamResponse, error) {
	exam, err := s.repo.GetByCode(ctx, strings.TrimSpace(code))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ExamResponse{}, ErrExamNotFound
		}
		return dto.ExamResponse{}, err
	}
	return dto.NewExamResponse(exam), nil
}

func (s *examService) ListByCourse(ctx context.Context, courseID uint) ([]dto.ExamResponse, error) {
	exams, err := s.repo.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	return dto.NewExamResponseSlice(exams), nil
}

func (s *examService) Search(ctx context.Context, title string) ([]dto.ExamResponse, error) {
	exams, err := s.repo.SearchByTitle(ctx, strings.TrimSpace(title), 20)
	if err != nil {
		return nil, err
	}
	return dto.NewExamResponseSlice(exams), nil
}

// validateSchedule checks the time fields and the per-course overlap rule.
// excludeID skips the exam itself when updating.
func (s *examService) validateSchedule(ctx context.Context, exam *models.Exam, excludeID uint) error {
	window, err := exam.Window(s.location)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidExamSchedule, err)
	}
	if !window.EndAt.After(window.StartAt) {
		return fmt.Errorf("%w: end time must be after start time", ErrInvalidExamSchedule)
	}

	today := s.now().In(s.location)
	examDay := time.Date(exam.Date.Year(), exam.Date.Month(), exam.Date.Day(), 0, 0, 0, 0, s.location)
	startOfToday := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, s.location)
	if examDay.Before(startOfToday) {
		return fmt.Errorf("%w: exam date must not be in the past", ErrInvalidExamSchedule)
	}

	overlap, err := s.repo.OverlapExists(ctx, exam.CourseID, exam.Date, exam.StartTime, exam.EndTime, excludeID)
	if err != nil {
		return err
	}
	if overlap {
		return ErrExamScheduleOverlap
	}
	return nil
}

func validateExamCode(code string) error {
	if code == "" || len(code) > maxExamCodeLength {
		return fmt.Errorf("%w: code must be 1-%d characters", ErrInvalidExamSchedule, maxExamCodeLength)
	}
	if !examCodePattern.MatchString(code) {
		return fmt.Errorf("%w: code may only contain letters, digits, hyphen and underscore", ErrInvalidExamSchedule)
	}
	return nil
}

func (s *examService) recordActivity(ctx context.Context, actor ActivityActor, action string, examID uint, metadata map[string]interface{}) {
	if s.activity == nil {
		return
	}
	_, _ = s.activity.Record(ctx, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     action,
		EntityType: "exam",
		EntityID:   &examID,
		Metadata:   metadata,
	})
}
