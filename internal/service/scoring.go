package service

import (
	"math"

	"github.com/yourusername/lms-quiz-api/internal/domain/entity"
)

// AttemptTotals is the outcome of grading a whole attempt
type AttemptTotals struct {
	Score         int
	TotalPoints   int
	Percentage    int
	Passed        bool
	PendingManual bool
}

// GradeAnswer grades a single answer against its question. Full points for a
// correct response, zero otherwise; there is no partial credit.
// Answers to questions the engine cannot grade (essays, short answers without
// accepted answers) are marked pending manual with a nil verdict.
func GradeAnswer(question *entity.Question, answer *entity.AttemptAnswer) {
	if !question.IsAutoGradable() {
		answer.IsCorrect = nil
		answer.PointsEarned = 0
		answer.PendingManual = true
		return
	}

	var correct bool
	if question.IsChoiceType() {
		correct = selectionMatches(question, answer.SelectedOptionIDs)
	} else {
		correct = question.MatchesAcceptedAnswer(answer.TextAnswer)
	}

	answer.IsCorrect = &correct
	answer.PendingManual = false
	if correct {
		answer.PointsEarned = question.PointValue
	} else {
		answer.PointsEarned = 0
	}
}

// selectionMatches compares the selected option set against the correct set.
// Multiple-choice requires the exact set: a missing or extra option means
// zero points.
func selectionMatches(question *entity.Question, selected entity.UintArray) bool {
	correctIDs := question.CorrectOptionIDs()
	if len(selected) != len(correctIDs) {
		return false
	}
	for _, id := range selected {
		if _, ok := correctIDs[id]; !ok {
			return false
		}
	}
	return true
}

// GradeAttempt grades every saved answer in place and returns the attempt
// totals. Unanswered questions earn zero points but still count toward the
// total. The percentage is score/total rounded to the nearest integer; an
// empty quiz grades to 0%.
func GradeAttempt(questions []entity.Question, answers []entity.AttemptAnswer, passingScore int) AttemptTotals {
	questionByID := make(map[uint]*entity.Question, len(questions))
	for i := range questions {
		questionByID[questions[i].ID] = &questions[i]
	}

	totals := AttemptTotals{}
	for i := range questions {
		totals.TotalPoints += questions[i].PointValue
	}

	for i := range answers {
		question, ok := questionByID[answers[i].QuestionID]
		if !ok {
			continue // answer to a question no longer in the quiz
		}
		GradeAnswer(question, &answers[i])
		totals.Score += answers[i].PointsEarned
		if answers[i].PendingManual {
			totals.PendingManual = true
		}
	}

	totals.Percentage = ScorePercentage(totals.Score, totals.TotalPoints)
	totals.Passed = totals.Percentage >= passingScore
	return totals
}

// ScorePercentage converts a score into a 0..100 integer percentage
func ScorePercentage(score, totalPoints int) int {
	if totalPoints <= 0 {
		return 0
	}
	return int(math.Round(float64(score) / float64(totalPoints) * 100))
}
