package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/examhub/examhub-api/internal/models"
)

// SubmissionRepository defines data operations for submissions and their answers.
type SubmissionRepository interface {
	Create(ctx context.Context, submission *models.Submission) error
	GetByID(ctx context.Context, id uint) (models.Submission, error)
	GetByExamAndStudent(ctx context.Context, examID, studentID uint) (models.Submission, error)
	ExistsForExam(ctx context.Context, examID uint) (bool, error)
	ListByExam(ctx context.Context, examID uint) ([]models.Submission, error)
	ListGradedByExam(ctx context.Context, examID uint) ([]models.Submission, error)
	Update(ctx context.Context, submission *models.Submission) error
	UpdateAnswerScore(ctx context.Context, answerID uint, score float64, feedback string) error
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository instantiates the repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Submission{}).
		Preload("Exam").
		Preload("Student").
		Preload("Answers", func(db *gorm.DB) *gorm.DB {
			return db.Order("question_id ASC")
		}).
		Preload("Answers.Question").
		Preload("Answers.Question.Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		})
}

// Create persists the submission together with its answer rows. The unique
// index on (exam_id, student_id) makes this the race arbiter for duplicate
// submits; callers translate gorm.ErrDuplicatedKey into the conflict error.
func (r *submissionRepository) Create(ctx context.Context, submission *models.Submission) error {
	return r.db.WithContext(ctx).Create(submission).Error
}

func (r *submissionRepository) GetByID(ctx context.Context, id uint) (models.Submission, error) {
	var submission models.Submission
	if err := r.baseQuery(ctx).First(&submission, id).Error; err != nil {
		return models.Submission{}, err
	}

	return submission, nil
}

func (r *submissionRepository) GetByExamAndStudent(ctx context.Context, examID, studentID uint) (models.Submission, error) {
	var submission models.Submission
	if err := r.baseQuery(ctx).
		Where("exam_id = ?", examID).
		Where("student_id = ?", studentID).
		First(&submission).Error; err != nil {
		return models.Submission{}, err
	}

	return submission, nil
}

func (r *submissionRepository) ExistsForExam(ctx context.Context, examID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Submission{}).
		Where("exam_id = ?", examID).
		Count(&count).Error; err != nil {
		return false, err
	}

	return count > 0, nil
}

func (r *submissionRepository) ListByExam(ctx context.Context, examID uint) ([]models.Submission, error) {
	var submissions []models.Submission
	if err := r.db.WithContext(ctx).Model(&models.Submission{}).
		Preload("Student").
		Where("exam_id = ?", examID).
		Order("submitted_at ASC").
		Find(&submissions).Error; err != nil {
		return nil, err
	}

	return submissions, nil
}

func (r *submissionRepository) ListGradedByExam(ctx context.Context, examID uint) ([]models.Submission, error) {
	var submissions []models.Submission
	if err := r.db.WithContext(ctx).Model(&models.Submission{}).
		Where("exam_id = ?", examID).
		Where("status = ?", models.SubmissionStatusGraded).
		Find(&submissions).Error; err != nil {
		return nil, err
	}

	return submissions, nil
}

func (r *submissionRepository) Update(ctx context.Context, submission *models.Submission) error {
	return r.db.WithContext(ctx).Omit("Answers", "Exam", "Student").Save(submission).Error
}

// UpdateAnswerScore applies a single essay grade atomically; aggregation is
// recomputed by the caller from the full answer set afterwards.
func (r *submissionRepository) UpdateAnswerScore(ctx context.Context, answerID uint, score float64, feedback string) error {
	return r.db.WithContext(ctx).Model(&models.Answer{}).
		Where("id = ?", answerID).
		Updates(map[string]interface{}{"score": score, "feedback": feedback}).Error
}
