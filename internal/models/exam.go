package models

import (
	"fmt"
	"time"
)

// Exam represents a scheduled exam within a course. Start and end times are
// stored as wall-clock "HH:MM" strings on the exam date; Window combines them
// into absolute instants in the deployment timezone.
type Exam struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	Code      string    `gorm:"size:50;uniqueIndex;not null" json:"code"`
	CourseID  uint      `gorm:"index;not null" json:"course_id"`
	Date      time.Time `gorm:"type:date;not null" json:"date"`
	StartTime string    `gorm:"size:5;not null" json:"start_time"`
	EndTime   string    `gorm:"size:5;not null" json:"end_time"`
	Status    string    `gorm:"size:32;not null;default:scheduled" json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Course    Course    `json:"course"`
}

const (
	// ExamStatusScheduled marks an exam that has not yet concluded.
	ExamStatusScheduled = "scheduled"
	// ExamStatusCompleted marks an exam whose window has closed.
	ExamStatusCompleted = "completed"
)

// Window builds the exam's time window in the given location.
func (e Exam) Window(loc *time.Location) (ExamWindow, error) {
	start, err := combineDateTime(e.Date, e.StartTime, loc)
	if err != nil {
		return ExamWindow{}, fmt.Errorf("invalid start time: %w", err)
	}
	end, err := combineDateTime(e.Date, e.EndTime, loc)
	if err != nil {
		return ExamWindow{}, fmt.Errorf("invalid end time: %w", err)
	}
	return ExamWindow{StartAt: start, EndAt: end}, nil
}

func combineDateTime(date time.Time, clock string, loc *time.Location) (time.Time, error) {
	parsed, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, err
	}
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(date.Year(), date.Month(), date.Day(), parsed.Hour(), parsed.Minute(), 0, 0, loc), nil
}

// ExamWindow is the value type answering all temporal questions about an exam.
// Both boundaries are inclusive: a submission at exactly EndAt is on time.
type ExamWindow struct {
	StartAt time.Time
	EndAt   time.Time
}

// IsOpen reports whether now falls within [StartAt, EndAt].
func (w ExamWindow) IsOpen(now time.Time) bool {
	return !now.Before(w.StartAt) && !now.After(w.EndAt)
}

// IsBeforeStart reports whether the exam has not opened yet.
func (w ExamWindow) IsBeforeStart(now time.Time) bool {
	return now.Before(w.StartAt)
}

// IsAfterEnd reports whether the exam window has closed.
func (w ExamWindow) IsAfterEnd(now time.Time) bool {
	return now.After(w.EndAt)
}

// Duration returns the total length of the window.
func (w ExamWindow) Duration() time.Duration {
	return w.EndAt.Sub(w.StartAt)
}

// Remaining returns the time left until the window closes, never negative.
func (w ExamWindow) Remaining(now time.Time) time.Duration {
	remaining := w.EndAt.Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// MinutesLate returns how many whole minutes past the end now is, zero when on time.
func (w ExamWindow) MinutesLate(now time.Time) int {
	if !now.After(w.EndAt) {
		return 0
	}
	return int(now.Sub(w.EndAt) / time.Minute)
}
