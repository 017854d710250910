package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/examhub/examhub-api/internal/models"
)

// StudentRepository defines read operations for students and enrollments.
type StudentRepository interface {
	GetByID(ctx context.Context, id uint) (models.Student, error)
	ListEnrolledByCourse(ctx context.Context, courseID uint) ([]models.Student, error)
	IsEnrolled(ctx context.Context, courseID, studentID uint) (bool, error)
}

type studentRepository struct {
	db *gorm.DB
}

// NewStudentRepository instantiates the repository.
func NewStudentRepository(db *gorm.DB) StudentRepository {
	return &studentRepository{db: db}
}

func (r *studentRepository) GetByID(ctx context.Context, id uint) (models.Student, error) {
	var student models.Student
	if err := r.db.WithContext(ctx).First(&student, id).Error; err != nil {
		return models.Student{}, err
	}

	return student, nil
}

func (r *studentRepository) ListEnrolledByCourse(ctx context.Context, courseID uint) ([]models.Student, error) {
	var students []models.Student
	if err := r.db.WithContext(ctx).Model(&models.Student{}).
		Joins("JOIN enrollments ON enrollments.student_id = students.id").
		Where("enrollments.course_id = ?", courseID).
		Order("students.email ASC").
		Find(&students).Error; err != nil {
		return nil, err
	}

	return students, nil
}

func (r *studentRepository) IsEnrolled(ctx context.Context, courseID, studentID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Enrollment{}).
		Where("course_id = ?", courseID).
		Where("student_id = ?", studentID).
		Count(&count).Error; err != nil {
		return false, err
	}

	return count > 0, nil
}
