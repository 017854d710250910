package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/examhub/examhub-api/internal/dto"
	"github.com/examhub/examhub-api/internal/grading"
	"github.com/examhub/examhub-api/internal/models"
)

func pendingSubmissionFixture() (models.Submission, []models.Question) {
	questions := questionFixtures()
	mcqScoreFull := 10.0
	mcqScoreZero := 0.0
	correct := true
	incorrect := false

	submission := models.Submission{
		ID:          50,
		ExamID:      1,
		StudentID:   3,
		SubmittedAt: time.Date(2026, time.September, 10, 10, 45, 0, 0, time.UTC),
		Status:      models.SubmissionStatusPending,
		TotalScore:  10,
		MaxScore:    35,
		Exam:        examFixture(),
		Answers: []models.Answer{
			{ID: 101, SubmissionID: 50, QuestionID: 10, Score: &mcqScoreFull, IsCorrect: &correct, Question: questions[0]},
			{ID: 102, SubmissionID: 50, QuestionID: 11, Score: &mcqScoreZero, IsCorrect: &incorrect, Question: questions[1]},
			{ID: 103, SubmissionID: 50, QuestionID: 12, Question: questions[2]},
		},
	}
	return submission, questions
}

func newGradingFixture(t *testing.T) (GradingService, *fakeSubmissionRepo, *fakeRecorder, *fakeNotifier) {
	t.Helper()

	submission, questions := pendingSubmissionFixture()
	submissions := newFakeSubmissionRepo(submission)
	questionRepo := newFakeQuestionRepo(questions...)
	recorder := &fakeRecorder{}
	notifier := &fakeNotifier{}
	validate := validator.New(validator.WithRequiredStructEnabled())

	svc := NewGradingService(submissions, questionRepo, validate, recorder, notifier, testLogger())
	return svc, submissions, recorder, notifier
}

func TestGradeEssaysCompletesSubmission(t *testing.T) {
	svc, repo, recorder, notifier := newGradingFixture(t)

	detail, err := svc.GradeEssays(context.Background(), 50, dto.GradeEssaysRequest{
		Grades: []dto.EssayGradeInput{{AnswerID: 103, Score: 15, Feedback: "Thorough answer."}},
	}, ActivityActor{ID: 9, Role: "instructor"})
	require.NoError(t, err)

	require.Equal(t, models.SubmissionStatusGraded, detail.Status)
	require.Equal(t, 25.0, detail.TotalScore)
	require.Equal(t, 35.0, detail.MaxScore)
	require.Equal(t, "B", detail.LetterGrade)
	require.Equal(t, 15.0, repo.answerScores[103])
	require.Len(t, recorder.entries, 1)
	require.Equal(t, "submission.graded", recorder.entries[0].Action)
	require.Equal(t, []uint{50}, notifier.notified)
}

func TestGradeEssaysPartialBatchStaysPending(t *testing.T) {
	submission, questions := pendingSubmissionFixture()
	extraEssay := models.Question{ID: 13, ExamID: 1, Type: models.QuestionTypeEssay, Text: "Discuss", Marks: 5}
	questions = append(questions, extraEssay)
	submission.MaxScore = 40
	submission.Answers = append(submission.Answers, models.Answer{ID: 104, SubmissionID: 50, QuestionID: 13, Question: extraEssay})

	submissions := newFakeSubmissionRepo(submission)
	questionRepo := newFakeQuestionRepo(questions...)
	validate := validator.New(validator.WithRequiredStructEnabled())
	svc := NewGradingService(submissions, questionRepo, validate, nil, nil, testLogger())

	detail, err := svc.GradeEssays(context.Background(), 50, dto.GradeEssaysRequest{
		Grades: []dto.EssayGradeInput{{AnswerID: 103, Score: 12}},
	}, ActivityActor{ID: 9, Role: "instructor"})
	require.NoError(t, err)

	require.Equal(t, models.SubmissionStatusPending, detail.Status)
	require.Equal(t, 22.0, detail.TotalScore)
	require.Empty(t, detail.LetterGrade)
}

func TestGradeEssaysRegradeOverwrites(t *testing.T) {
	svc, repo, _, notifier := newGradingFixture(t)

	_, err := svc.GradeEssays(context.Background(), 50, dto.GradeEssaysRequest{
		Grades: []dto.EssayGradeInput{{AnswerID: 103, Score: 8}},
	}, ActivityActor{ID: 9, Role: "instructor"})
	require.NoError(t, err)

	detail, err := svc.GradeEssays(context.Background(), 50, dto.GradeEssaysRequest{
		Grades: []dto.EssayGradeInput{{AnswerID: 103, Score: 12}},
	}, ActivityActor{ID: 9, Role: "instructor"})
	require.NoError(t, err)

	require.Equal(t, 12.0, repo.answerScores[103])
	require.Equal(t, 22.0, detail.TotalScore)
	// Already graded after the first call; the second must not notify again.
	require.Equal(t, []uint{50}, notifier.notified)
}

func TestGradeEssaysScoreOutOfRange(t *testing.T) {
	svc, repo, _, _ := newGradingFixture(t)

	_, err := svc.GradeEssays(context.Background(), 50, dto.GradeEssaysRequest{
		Grades: []dto.EssayGradeInput{{AnswerID: 103, Score: 15.5}},
	}, ActivityActor{ID: 9, Role: "instructor"})
	require.ErrorIs(t, err, grading.ErrScoreOutOfRange)
	require.Empty(t, repo.answerScores)
}

func TestGradeEssaysRejectsMCQTarget(t *testing.T) {
	svc, _, _, _ := newGradingFixture(t)

	_, err := svc.GradeEssays(context.Background(), 50, dto.GradeEssaysRequest{
		Grades: []dto.EssayGradeInput{{AnswerID: 101, Score: 5}},
	}, ActivityActor{ID: 9, Role: "instructor"})
	require.ErrorIs(t, err, ErrNotEssayAnswer)
}

func TestGradeEssaysUnknownAnswer(t *testing.T) {
	svc, _, _, _ := newGradingFixture(t)

	_, err := svc.GradeEssays(context.Background(), 50, dto.GradeEssaysRequest{
		Grades: []dto.EssayGradeInput{{AnswerID: 999, Score: 5}},
	}, ActivityActor{ID: 9, Role: "instructor"})
	require.ErrorIs(t, err, ErrAnswerNotFound)
}

func TestGradeEssaysSubmissionNotFound(t *testing.T) {
	svc, _, _, _ := newGradingFixture(t)

	_, err := svc.GradeEssays(context.Background(), 404, dto.GradeEssaysRequest{}, ActivityActor{ID: 9})
	require.ErrorIs(t, err, ErrSubmissionNotFound)
}

func TestGradeEssaysSanitizesFeedback(t *testing.T) {
	svc, repo, _, _ := newGradingFixture(t)

	_, err := svc.GradeEssays(context.Background(), 50, dto.GradeEssaysRequest{
		Grades: []dto.EssayGradeInput{{AnswerID: 103, Score: 10, Feedback: "<script>alert(1)</script>Good work"}},
	}, ActivityActor{ID: 9, Role: "instructor"})
	require.NoError(t, err)
	require.NotContains(t, repo.answerFeedback[103], "<script>")
	require.Contains(t, repo.answerFeedback[103], "Good work")
}

func TestGradeEssaysOverallFeedbackSaved(t *testing.T) {
	svc, repo, _, _ := newGradingFixture(t)

	feedback := "Solid overall, revise chapter 4."
	detail, err := svc.GradeEssays(context.Background(), 50, dto.GradeEssaysRequest{
		OverallFeedback: &feedback,
	}, ActivityActor{ID: 9, Role: "instructor"})
	require.NoError(t, err)
	require.Equal(t, feedback, detail.OverallFeedback)
	require.Len(t, repo.updated, 1)
	require.Equal(t, feedback, repo.updated[0].OverallFeedback)
}

func TestGradeEssaysFeedbackTooLong(t *testing.T) {
	submission, questions := pendingSubmissionFixture()
	submissions := newFakeSubmissionRepo(submission)
	questionRepo := newFakeQuestionRepo(questions...)
	validate := validator.New(validator.WithRequiredStructEnabled())
	svc := NewGradingService(submissions, questionRepo, validate, nil, nil, testLogger())

	oversized := strings.Repeat("x", 5001)
	_, err := svc.GradeEssays(context.Background(), 50, dto.GradeEssaysRequest{
		OverallFeedback: &oversized,
	}, ActivityActor{ID: 9})
	require.Error(t, err)
}
