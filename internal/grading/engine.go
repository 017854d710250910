// Package grading holds the pure scoring rules for exam submissions. Nothing
// here touches the clock, the database, or the network, so the same inputs
// always produce the same scores and re-grading is safe to repeat.
package grading

import (
	"errors"
	"fmt"

	"github.com/examhub/examhub-api/internal/models"
)

// ErrScoreOutOfRange indicates an essay score outside [0, question.Marks].
var ErrScoreOutOfRange = errors.New("essay score out of range")

// ChoiceResult is the outcome of auto-grading one MCQ answer.
type ChoiceResult struct {
	Earned    float64
	IsCorrect bool
	Feedback  string
}

// ScoreChoice grades a single MCQ answer against the question's correct
// option. Scores are all-or-nothing: full marks on an exact match, zero
// otherwise. A nil selection is an unanswered question and always scores zero.
func ScoreChoice(question models.Question, selected *int) ChoiceResult {
	if selected == nil {
		return ChoiceResult{Feedback: "Not answered"}
	}
	if *selected == question.CorrectIndex() {
		return ChoiceResult{Earned: question.Marks, IsCorrect: true, Feedback: "Correct"}
	}
	return ChoiceResult{Feedback: "Incorrect"}
}

// ValidateEssayScore checks an instructor-supplied score against the
// question's mark allocation.
func ValidateEssayScore(question models.Question, score float64) error {
	if score < 0 || score > question.Marks {
		return fmt.Errorf("%w: %g not in [0, %g]", ErrScoreOutOfRange, score, question.Marks)
	}
	return nil
}

// Totals aggregates a full answer set.
type Totals struct {
	Total      float64
	Max        float64
	Percentage float64
}

// Aggregate recomputes submission totals from the complete answer set and the
// exam's full question list. Max always covers every question of the exam,
// answered or not; ungraded essays contribute zero to the total. Recomputing
// from scratch (rather than incrementally) keeps concurrent per-answer grading
// from losing updates.
func Aggregate(questions []models.Question, answers []models.Answer) Totals {
	totals := Totals{}
	for _, question := range questions {
		totals.Max += question.Marks
	}
	for _, answer := range answers {
		totals.Total += answer.EarnedScore()
	}
	if totals.Max > 0 {
		totals.Percentage = totals.Total / totals.Max * 100
	}
	return totals
}

// Letter maps a percentage to the fixed letter-grade table. The cutoffs follow
// the grade calculator the reporting screens already assume: >=90 A+, >=80 A,
// >=70 B, >=60 C, >=50 D, else F.
func Letter(percentage float64) string {
	switch {
	case percentage >= 90:
		return "A+"
	case percentage >= 80:
		return "A"
	case percentage >= 70:
		return "B"
	case percentage >= 60:
		return "C"
	case percentage >= 50:
		return "D"
	default:
		return "F"
	}
}

// LetterForTotals returns the letter grade for aggregated totals, "N/A" when
// the exam carries no marks at all.
func LetterForTotals(totals Totals) string {
	if totals.Max == 0 {
		return "N/A"
	}
	return Letter(totals.Percentage)
}

// DefaultPassingPercent is the pass threshold used when no override is configured.
const DefaultPassingPercent = 50.0
