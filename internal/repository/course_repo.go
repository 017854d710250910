package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/examhub/examhub-api/internal/models"
)

// CourseRepository defines read operations for courses.
type CourseRepository interface {
	GetByID(ctx context.Context, id uint) (models.Course, error)
	ListByInstructor(ctx context.Context, instructorID uint) ([]models.Course, error)
}

type courseRepository struct {
	db *gorm.DB
}

// NewCourseRepository instantiates the repository.
func NewCourseRepository(db *gorm.DB) CourseRepository {
	return &courseRepository{db: db}
}

func (r *courseRepository) GetByID(ctx context.Context, id uint) (models.Course, error) {
	var course models.Course
	if err := r.db.WithContext(ctx).First(&course, id).Error; err != nil {
		return models.Course{}, err
	}

	return course, nil
}

func (r *courseRepository) ListByInstructor(ctx context.Context, instructorID uint) ([]models.Course, error) {
	var courses []models.Course
	if err := r.db.WithContext(ctx).Model(&models.Course{}).
		Where("instructor_id = ?", instructorID).
		Order("code ASC").
		Find(&courses).Error; err != nil {
		return nil, err
	}

	return courses, nil
}
