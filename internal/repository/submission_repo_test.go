package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/examhub/examhub-api/internal/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.Course{},
		&models.Student{},
		&models.Enrollment{},
		&models.Exam{},
		&models.Question{},
		&models.QuestionOption{},
		&models.Submission{},
		&models.Answer{},
	))

	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})

	return db
}

func seedExamAndStudent(t *testing.T, db *gorm.DB) (models.Exam, models.Student) {
	t.Helper()

	course := models.Course{Code: "CS101", Name: "Intro to CS", InstructorID: 9}
	require.NoError(t, db.Create(&course).Error)

	student := models.Student{Name: "Aina", Email: "aina@example.com", StudentNumber: "S-001"}
	require.NoError(t, db.Create(&student).Error)
	require.NoError(t, db.Create(&models.Enrollment{CourseID: course.ID, StudentID: student.ID}).Error)

	exam := models.Exam{
		Title:     "Midterm",
		Code:      "CS101-MID",
		CourseID:  course.ID,
		Date:      time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		StartTime: "09:00",
		EndTime:   "11:00",
		Status:    models.ExamStatusScheduled,
	}
	require.NoError(t, db.Create(&exam).Error)

	return exam, student
}

func TestSubmissionRepositoryDuplicatePairRejected(t *testing.T) {
	db := openTestDB(t)
	exam, student := seedExamAndStudent(t, db)
	repo := NewSubmissionRepository(db)

	first := models.Submission{
		ExamID:      exam.ID,
		StudentID:   student.ID,
		SubmittedAt: time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC),
		Status:      models.SubmissionStatusGraded,
		TotalScore:  10,
		MaxScore:    10,
		LetterGrade: "A+",
	}
	require.NoError(t, repo.Create(context.Background(), &first))

	second := models.Submission{
		ExamID:      exam.ID,
		StudentID:   student.ID,
		SubmittedAt: time.Date(2026, 3, 10, 10, 30, 0, 0, time.UTC),
		Status:      models.SubmissionStatusGraded,
	}
	err := repo.Create(context.Background(), &second)
	require.Error(t, err)
	require.True(t, errors.Is(err, gorm.ErrDuplicatedKey))
}

func TestSubmissionRepositoryRoundTripWithAnswers(t *testing.T) {
	db := openTestDB(t)
	exam, student := seedExamAndStudent(t, db)
	repo := NewSubmissionRepository(db)

	question := models.Question{
		ExamID: exam.ID,
		Type:   models.QuestionTypeMCQ,
		Text:   "2 + 2 = ?",
		Marks:  5,
		Options: []models.QuestionOption{
			{Position: 0, Text: "3"},
			{Position: 1, Text: "4", IsCorrect: true},
		},
	}
	require.NoError(t, db.Create(&question).Error)

	selected := 1
	score := 5.0
	correct := true
	submission := models.Submission{
		ExamID:      exam.ID,
		StudentID:   student.ID,
		SubmittedAt: time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC),
		Status:      models.SubmissionStatusGraded,
		TotalScore:  5,
		MaxScore:    5,
		LetterGrade: "A+",
		Answers: []models.Answer{
			{QuestionID: question.ID, SelectedOption: &selected, Score: &score, IsCorrect: &correct, Feedback: "Correct"},
		},
	}
	require.NoError(t, repo.Create(context.Background(), &submission))

	loaded, err := repo.GetByExamAndStudent(context.Background(), exam.ID, student.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Answers, 1)
	require.Equal(t, question.ID, loaded.Answers[0].QuestionID)
	require.Equal(t, 5.0, loaded.Answers[0].EarnedScore())
	require.Equal(t, "Midterm", loaded.Exam.Title)

	exists, err := repo.ExistsForExam(context.Background(), exam.ID)
	require.NoError(t, err)
	require.True(t, exists)
}

func TestSubmissionRepositoryUpdateAnswerScore(t *testing.T) {
	db := openTestDB(t)
	exam, student := seedExamAndStudent(t, db)
	repo := NewSubmissionRepository(db)

	question := models.Question{ExamID: exam.ID, Type: models.QuestionTypeEssay, Text: "Explain TCP.", Marks: 10}
	require.NoError(t, db.Create(&question).Error)

	essay := "TCP is connection oriented."
	submission := models.Submission{
		ExamID:      exam.ID,
		StudentID:   student.ID,
		SubmittedAt: time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC),
		Status:      models.SubmissionStatusPending,
		MaxScore:    10,
		Answers: []models.Answer{
			{QuestionID: question.ID, EssayText: &essay},
		},
	}
	require.NoError(t, repo.Create(context.Background(), &submission))

	require.NoError(t, repo.UpdateAnswerScore(context.Background(), submission.Answers[0].ID, 8, "Solid coverage"))

	loaded, err := repo.GetByID(context.Background(), submission.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded.Answers[0].Score)
	require.Equal(t, 8.0, *loaded.Answers[0].Score)
	require.Equal(t, "Solid coverage", loaded.Answers[0].Feedback)
}
