package grading

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/examhub/examhub-api/internal/models"
)

func mcqQuestion(marks float64, correct int) models.Question {
	options := []models.QuestionOption{
		{Position: 0, Text: "red"},
		{Position: 1, Text: "green"},
		{Position: 2, Text: "blue"},
	}
	options[correct].IsCorrect = true
	return models.Question{Type: models.QuestionTypeMCQ, Marks: marks, Options: options}
}

func TestScoreChoiceAllOrNothing(t *testing.T) {
	question := mcqQuestion(5, 1)

	right := 1
	result := ScoreChoice(question, &right)
	require.True(t, result.IsCorrect)
	require.Equal(t, 5.0, result.Earned)

	wrong := 2
	result = ScoreChoice(question, &wrong)
	require.False(t, result.IsCorrect)
	require.Zero(t, result.Earned)
}

func TestScoreChoiceUnanswered(t *testing.T) {
	question := mcqQuestion(5, 0)

	result := ScoreChoice(question, nil)
	require.False(t, result.IsCorrect)
	require.Zero(t, result.Earned)
	require.Equal(t, "Not answered", result.Feedback)
}

func TestScoreChoiceNeverPartial(t *testing.T) {
	question := mcqQuestion(7, 2)
	for selected := 0; selected < 3; selected++ {
		selected := selected
		result := ScoreChoice(question, &selected)
		require.Contains(t, []float64{0, question.Marks}, result.Earned)
	}
}

func TestValidateEssayScore(t *testing.T) {
	question := models.Question{Type: models.QuestionTypeEssay, Marks: 10}

	require.NoError(t, ValidateEssayScore(question, 0))
	require.NoError(t, ValidateEssayScore(question, 7.5))
	require.NoError(t, ValidateEssayScore(question, 10))
	require.ErrorIs(t, ValidateEssayScore(question, 10.5), ErrScoreOutOfRange)
	require.ErrorIs(t, ValidateEssayScore(question, -1), ErrScoreOutOfRange)
}

func TestAggregateCountsEveryQuestion(t *testing.T) {
	questions := []models.Question{
		{ID: 1, Type: models.QuestionTypeMCQ, Marks: 5},
		{ID: 2, Type: models.QuestionTypeMCQ, Marks: 5},
		{ID: 3, Type: models.QuestionTypeEssay, Marks: 10},
	}
	five := 5.0
	answers := []models.Answer{
		{QuestionID: 1, Score: &five},
		{QuestionID: 2, Score: &five},
		{QuestionID: 3}, // essay not graded yet
	}

	totals := Aggregate(questions, answers)
	require.Equal(t, 10.0, totals.Total)
	require.Equal(t, 20.0, totals.Max)
	require.Equal(t, 50.0, totals.Percentage)
	require.LessOrEqual(t, totals.Total, totals.Max)
}

func TestAggregateEmptyExam(t *testing.T) {
	totals := Aggregate(nil, nil)
	require.Zero(t, totals.Total)
	require.Zero(t, totals.Max)
	require.Zero(t, totals.Percentage)
	require.Equal(t, "N/A", LetterForTotals(totals))
}

func TestLetterTable(t *testing.T) {
	cases := map[float64]string{
		100: "A+",
		90:  "A+",
		89:  "A",
		80:  "A",
		75:  "B",
		65:  "C",
		55:  "D",
		49:  "F",
		0:   "F",
	}
	for percentage, expected := range cases {
		require.Equal(t, expected, Letter(percentage), "percentage %v", percentage)
	}
}
