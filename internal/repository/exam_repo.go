package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/examhub/examhub-api/internal/models"
)

// ExamRepository defines data operations for exams.
type ExamRepository interface {
	GetByID(ctx context.Context, id uint) (models.Exam, error)
	GetByCode(ctx context.Context, code string) (models.Exam, error)
	ListByCourse(ctx context.Context, courseID uint) ([]models.Exam, error)
	SearchByTitle(ctx context.Context, term string, limit int) ([]models.Exam, error)
	Create(ctx context.Context, exam *models.Exam) error
	Update(ctx context.Context, exam *models.Exam) error
	Delete(ctx context.Context, id uint) error
	CodeExists(ctx context.Context, code string, excludeID uint) (bool, error)
	OverlapExists(ctx context.Context, courseID uint, date time.Time, startTime, endTime string, excludeID uint) (bool, error)
}

type examRepository struct {
	db *gorm.DB
}

// NewExamRepository instantiates the repository.
func NewExamRepository(db *gorm.DB) ExamRepository {
	return &examRepository{db: db}
}

func (r *examRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Exam{}).Preload("Course")
}

func (r *examRepository) GetByID(ctx context.Context, id uint) (models.Exam, error) {
	var exam models.Exam
	if err := r.baseQuery(ctx).First(&exam, id).Error; err != nil {
		return models.Exam{}, err
	}

	return exam, nil
}

func (r *examRepository) GetByCode(ctx context.Context, code string) (models.Exam, error) {
	var exam models.Exam
	if err := r.baseQuery(ctx).Where("code = ?", code).First(&exam).Error; err != nil {
		return models.Exam{}, err
	}

	return exam, nil
}

func (r *examRepository) ListByCourse(ctx context.Context, courseID uint) ([]models.Exam, error) {
	var exams []models.Exam
	if err := r.baseQuery(ctx).
		Where("course_id = ?", courseID).
		Order("date DESC, start_time DESC").
		Find(&exams).Error; err != nil {
		return nil, err
	}

	return exams, nil
}

func (r *examRepository) SearchByTitle(ctx context.Context, term string, limit int) ([]models.Exam, error) {
	if limit <= 0 {
		limit = 100
	}

	var exams []models.Exam
	if err := r.baseQuery(ctx).
		Where("LOWER(title) LIKE LOWER(?)", "%"+term+"%").
		Order("date DESC, start_time DESC").
		Limit(limit).
		Find(&exams).Error; err != nil {
		return nil, err
	}

	return exams, nil
}

func (r *examRepository) Create(ctx context.Context, exam *models.Exam) error {
	return r.db.WithContext(ctx).Create(exam).Error
}

func (r *examRepository) Update(ctx context.Context, exam *models.Exam) error {
	return r.db.WithContext(ctx).Save(exam).Error
}

func (r *examRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Exam{}, id).Error
}

func (r *examRepository) CodeExists(ctx context.Context, code string, excludeID uint) (bool, error) {
	query := r.db.WithContext(ctx).Model(&models.Exam{}).Where("code = ?", code)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}

	return count > 0, nil
}

// OverlapExists reports whether another exam of the same course shares any part
// of the [startTime, endTime) range on the given date. The lexical comparison
// is sound because times are zero-padded "HH:MM" strings.
func (r *examRepository) OverlapExists(ctx context.Context, courseID uint, date time.Time, startTime, endTime string, excludeID uint) (bool, error) {
	query := r.db.WithContext(ctx).Model(&models.Exam{}).
		Where("course_id = ?", courseID).
		Where("date = ?", date.Format("2006-01-02")).
		Where("start_time < ?", endTime).
		Where("end_time > ?", startTime)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}

	return count > 0, nil
}
