// Package grading contains the pure scoring rules for assignments and
// multiple choice practice problems. Nothing here touches persistence; the
// caller decides what to do with the computed fields.
package grading

import (
	"math"

	"github.com/classboard/classboard-api/internal/models"
)

// AnswerInput is a learner-supplied answer to one assignment question.
type AnswerInput struct {
	QuestionID string
	Answer     string
}

// MCQAnswerInput is a learner-supplied option choice for one MCQ question.
type MCQAnswerInput struct {
	QuestionID       string
	SelectedOptionID string
}

// GradeAnswers scores supplied answers against the assignment's question list.
// Correctness is exact, case-sensitive string equality. Answers referencing
// questions not in the list are silently ignored. Returns the graded answers
// and the total points earned.
func GradeAnswers(questions []models.Question, answers []AnswerInput) ([]models.Answer, int) {
	byID := make(map[string]models.Question, len(questions))
	for _, question := range questions {
		byID[question.ID] = question
	}

	graded := make([]models.Answer, 0, len(answers))
	earned := 0
	for _, answer := range answers {
		question, ok := byID[answer.QuestionID]
		if !ok {
			continue
		}

		result := models.Answer{
			QuestionID: answer.QuestionID,
			Answer:     answer.Answer,
		}
		if answer.Answer == question.CorrectAnswer {
			result.IsCorrect = true
			result.PointsEarned = question.Points
			earned += question.Points
		}
		graded = append(graded, result)
	}

	return graded, earned
}

// GradeMCQ scores option selections against a DPP's question list. A question
// must have exactly one option marked correct to be scoreable; malformed
// questions (zero or multiple correct options) earn zero marks instead of
// failing the whole grade.
func GradeMCQ(questions []models.MCQQuestion, answers []MCQAnswerInput) ([]models.MCQAnswer, int) {
	byID := make(map[string]models.MCQQuestion, len(questions))
	for _, question := range questions {
		byID[question.ID] = question
	}

	graded := make([]models.MCQAnswer, 0, len(answers))
	earned := 0
	for _, answer := range answers {
		question, ok := byID[answer.QuestionID]
		if !ok {
			continue
		}

		result := models.MCQAnswer{
			QuestionID:       answer.QuestionID,
			SelectedOptionID: answer.SelectedOptionID,
		}
		if correctID, ok := uniqueCorrectOption(question.Options); ok && answer.SelectedOptionID == correctID {
			result.IsCorrect = true
			result.MarksEarned = question.Marks
			earned += question.Marks
		}
		graded = append(graded, result)
	}

	return graded, earned
}

// Percentage converts an earned/total pair into a percentage rounded to two
// decimal places. A zero or negative total yields zero.
func Percentage(earned, total int) float64 {
	return ScorePercentage(float64(earned), float64(total))
}

// ScorePercentage is Percentage over fractional scores, for manual grades
// that are not whole points.
func ScorePercentage(score, max float64) float64 {
	if max <= 0 {
		return 0
	}
	return math.Round(score/max*10000) / 100
}

// TotalPoints sums the point values of an assignment's questions.
func TotalPoints(questions []models.Question) int {
	total := 0
	for _, question := range questions {
		total += question.Points
	}
	return total
}

// MaxScore sums the marks of a DPP's MCQ questions.
func MaxScore(questions []models.MCQQuestion) int {
	total := 0
	for _, question := range questions {
		total += question.Marks
	}
	return total
}

// MaxFileScore sums the point values of a file DPP's attachments.
func MaxFileScore(files []models.PracticeFile) int {
	total := 0
	for _, file := range files {
		total += file.Points
	}
	return total
}

func uniqueCorrectOption(options []models.MCQOption) (string, bool) {
	id := ""
	count := 0
	for _, option := range options {
		if option.IsCorrect {
			id = option.ID
			count++
		}
	}
	if count != 1 {
		return "", false
	}
	return id, true
}
