package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/examhub/examhub-api/internal/dto"
	"github.com/examhub/examhub-api/internal/models"
)

func gradedSubmissionFixture() models.Submission {
	return models.Submission{
		ID:          60,
		ExamID:      1,
		StudentID:   3,
		SubmittedAt: time.Date(2026, time.September, 10, 10, 45, 0, 0, time.UTC),
		Status:      models.SubmissionStatusGraded,
		TotalScore:  28,
		MaxScore:    35,
		LetterGrade: "A",
		Student:     models.Student{ID: 3, Name: "Dana", Email: "dana@example.edu"},
		Exam:        examFixture(),
	}
}

func newSubmissionFixture(t *testing.T) (SubmissionService, *fakeSubmissionRepo, *fakeStudentRepo) {
	t.Helper()

	submissions := newFakeSubmissionRepo(gradedSubmissionFixture())
	exams := newFakeExamRepo(examFixture())
	students := newFakeStudentRepo()
	students.addEnrollment(7, models.Student{ID: 3, Name: "Dana", Email: "dana@example.edu"})
	students.addEnrollment(7, models.Student{ID: 4, Name: "Eli", Email: "eli@example.edu"})

	svc := NewSubmissionService(submissions, exams, students, testLogger())
	return svc, submissions, students
}

func TestGetForStudent(t *testing.T) {
	svc, _, _ := newSubmissionFixture(t)

	detail, err := svc.GetForStudent(context.Background(), 60, 3)
	require.NoError(t, err)
	require.Equal(t, uint(60), detail.ID)
	require.Equal(t, 28.0, detail.TotalScore)
	require.Equal(t, "A", detail.LetterGrade)
}

func TestGetForStudentForeignOwnerHidden(t *testing.T) {
	svc, _, _ := newSubmissionFixture(t)

	// student 4 asking for student 3's submission gets not-found, not forbidden
	_, err := svc.GetForStudent(context.Background(), 60, 4)
	require.ErrorIs(t, err, ErrSubmissionNotFound)
}

func TestGetResultForStudent(t *testing.T) {
	svc, _, _ := newSubmissionFixture(t)

	result, err := svc.GetResultForStudent(context.Background(), 1, 3)
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusGraded, result.Status)
	require.Equal(t, "A", result.LetterGrade)
}

func TestGetResultForStudentNoAttempt(t *testing.T) {
	svc, _, _ := newSubmissionFixture(t)

	_, err := svc.GetResultForStudent(context.Background(), 1, 4)
	require.ErrorIs(t, err, ErrSubmissionNotFound)
}

func TestRosterSplitsSubmittedAndMissed(t *testing.T) {
	svc, _, _ := newSubmissionFixture(t)

	roster, err := svc.Roster(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, roster, 2)

	byStudent := make(map[uint]dto.RosterEntryResponse, len(roster))
	for _, entry := range roster {
		byStudent[entry.StudentID] = entry
	}

	submitted := byStudent[3]
	require.Equal(t, dto.RosterStatusSubmitted, submitted.Status)
	require.NotNil(t, submitted.SubmissionID)
	require.Equal(t, uint(60), *submitted.SubmissionID)
	require.NotNil(t, submitted.Score)
	require.Equal(t, 28.0, *submitted.Score)
	require.NotNil(t, submitted.LetterGrade)

	missed := byStudent[4]
	require.Equal(t, dto.RosterStatusMissed, missed.Status)
	require.Nil(t, missed.SubmissionID)
	require.Nil(t, missed.SubmittedAt)
	require.Nil(t, missed.Score)
	require.Nil(t, missed.LetterGrade)
}

func TestRosterUnknownExam(t *testing.T) {
	svc, _, _ := newSubmissionFixture(t)

	_, err := svc.Roster(context.Background(), 404)
	require.ErrorIs(t, err, ErrExamNotFound)
}
