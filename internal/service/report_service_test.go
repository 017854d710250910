package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/examhub/examhub-api/internal/models"
)

func gradedSubmission(id, studentID uint, total float64) models.Submission {
	return models.Submission{
		ID:          id,
		ExamID:      1,
		StudentID:   studentID,
		SubmittedAt: time.Date(2026, time.September, 10, 10, 30, 0, 0, time.UTC),
		Status:      models.SubmissionStatusGraded,
		TotalScore:  total,
		MaxScore:    35,
	}
}

func newReportFixture(t *testing.T, cache *redis.Client, submissions ...models.Submission) ReportService {
	t.Helper()

	exams := newFakeExamRepo(examFixture())
	questions := newFakeQuestionRepo(questionFixtures()...)
	subRepo := newFakeSubmissionRepo(submissions...)
	students := newFakeStudentRepo()
	students.addEnrollment(7, models.Student{ID: 3, Name: "Dana"})
	students.addEnrollment(7, models.Student{ID: 4, Name: "Eli"})
	students.addEnrollment(7, models.Student{ID: 5, Name: "Finn"})

	return NewReportService(exams, questions, subRepo, students, cache, time.Minute, 0, testLogger())
}

func TestPerformanceReportStats(t *testing.T) {
	// 31.5/35 = 90%, 17.5/35 = 50%, 7/35 = 20%
	svc := newReportFixture(t, nil,
		gradedSubmission(60, 3, 31.5),
		gradedSubmission(61, 4, 17.5),
		gradedSubmission(62, 5, 7),
	)

	report, err := svc.Performance(context.Background(), 1)
	require.NoError(t, err)
	require.False(t, report.CacheHit)
	require.Equal(t, 35.0, report.ExamInfo.TotalPoints)

	stats := report.Statistics
	require.Equal(t, 3, stats.TotalStudents)
	require.Equal(t, 3, stats.Submitted)
	require.Equal(t, 3, stats.Graded)
	require.InDelta(t, 53.33, stats.AverageScore, 0.01)
	require.Equal(t, 90.0, stats.HighestScore)
	require.Equal(t, 20.0, stats.LowestScore)
	require.InDelta(t, 66.67, stats.PassRate, 0.01)
}

func TestPerformanceReportDistribution(t *testing.T) {
	svc := newReportFixture(t, nil,
		gradedSubmission(60, 3, 31.5), // 90% -> A+
		gradedSubmission(61, 4, 17.5), // 50% -> D
		gradedSubmission(62, 5, 7),    // 20% -> F
	)

	report, err := svc.Performance(context.Background(), 1)
	require.NoError(t, err)

	require.Len(t, report.GradeDistribution, 6)
	counts := make(map[string]int)
	for _, bucket := range report.GradeDistribution {
		counts[bucket.Grade] = bucket.Count
	}
	require.Equal(t, 1, counts["A+"])
	require.Equal(t, 1, counts["D"])
	require.Equal(t, 1, counts["F"])
	require.Equal(t, 0, counts["B"])

	require.Len(t, report.ScoreRanges, 10)
	require.Equal(t, "90-100", report.ScoreRanges[0].Range)
	require.Equal(t, 1, report.ScoreRanges[0].Count)
	require.Equal(t, "50-59", report.ScoreRanges[4].Range)
	require.Equal(t, 1, report.ScoreRanges[4].Count)
	require.Equal(t, "20-29", report.ScoreRanges[7].Range)
	require.Equal(t, 1, report.ScoreRanges[7].Count)
}

func TestPerformanceReportExcludesPending(t *testing.T) {
	pending := gradedSubmission(61, 4, 10)
	pending.Status = models.SubmissionStatusPending

	svc := newReportFixture(t, nil, gradedSubmission(60, 3, 31.5), pending)

	report, err := svc.Performance(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, 2, report.Statistics.Submitted)
	require.Equal(t, 1, report.Statistics.Graded)
	require.Equal(t, 90.0, report.Statistics.AverageScore)
}

func TestPerformanceReportNoGradedSubmissions(t *testing.T) {
	svc := newReportFixture(t, nil)

	report, err := svc.Performance(context.Background(), 1)
	require.NoError(t, err)

	stats := report.Statistics
	require.Equal(t, 3, stats.TotalStudents)
	require.Equal(t, 0, stats.Submitted)
	require.Equal(t, 0, stats.Graded)
	require.Zero(t, stats.AverageScore)
	require.Zero(t, stats.HighestScore)
	require.Zero(t, stats.LowestScore)
	require.Zero(t, stats.PassRate)

	require.Len(t, report.GradeDistribution, 6)
	for _, bucket := range report.GradeDistribution {
		require.Zero(t, bucket.Count)
		require.Zero(t, bucket.Percentage)
	}
	require.Len(t, report.ScoreRanges, 10)
	for _, entry := range report.ScoreRanges {
		require.Zero(t, entry.Count)
	}
}

func TestPerformanceReportCached(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { cache.Close() })

	svc := newReportFixture(t, cache, gradedSubmission(60, 3, 31.5))

	first, err := svc.Performance(context.Background(), 1)
	require.NoError(t, err)
	require.False(t, first.CacheHit)

	second, err := svc.Performance(context.Background(), 1)
	require.NoError(t, err)
	require.True(t, second.CacheHit)
	require.Equal(t, first.Statistics, second.Statistics)
	require.Equal(t, first.ExamInfo, second.ExamInfo)
}

func TestPerformanceReportUnknownExam(t *testing.T) {
	svc := newReportFixture(t, nil)

	_, err := svc.Performance(context.Background(), 404)
	require.ErrorIs(t, err, ErrExamNotFound)
}

func TestCompletedExamsFiltersScheduled(t *testing.T) {
	scheduled := examFixture()

	completed := examFixture()
	completed.ID = 2
	completed.Code = "CS101-FINAL"
	completed.Title = "Final"
	completed.Status = models.ExamStatusCompleted

	exams := newFakeExamRepo(scheduled, completed)
	questions := newFakeQuestionRepo()
	submissions := newFakeSubmissionRepo(models.Submission{
		ID: 70, ExamID: 2, StudentID: 3, Status: models.SubmissionStatusGraded,
		TotalScore: 28, MaxScore: 35,
	})
	students := newFakeStudentRepo()
	students.addEnrollment(7, models.Student{ID: 3, Name: "Dana"})

	svc := NewReportService(exams, questions, submissions, students, nil, time.Minute, 0, testLogger())

	rows, err := svc.CompletedExams(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, uint(2), rows[0].ID)
	require.Equal(t, 1, rows[0].Submitted)
	require.Equal(t, 1, rows[0].Graded)
	require.Equal(t, 80.0, rows[0].AverageScore)
}
