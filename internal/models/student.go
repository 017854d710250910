package models

import "time"

// Student represents an enrolled learner identity.
type Student struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Name          string    `gorm:"size:255;not null" json:"name"`
	Email         string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	StudentNumber string    `gorm:"size:64;index" json:"student_number"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Course groups exams and enrollments under one instructor.
type Course struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Code         string    `gorm:"size:50;uniqueIndex;not null" json:"code"`
	Name         string    `gorm:"size:255;not null" json:"name"`
	InstructorID uint      `gorm:"index;not null" json:"instructor_id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Enrollment links a student to a course. One row per (course, student) pair.
type Enrollment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CourseID  uint      `gorm:"uniqueIndex:idx_enrollment_course_student;not null" json:"course_id"`
	StudentID uint      `gorm:"uniqueIndex:idx_enrollment_course_student;not null" json:"student_id"`
	CreatedAt time.Time `json:"created_at"`
	Student   Student   `json:"student"`
}
