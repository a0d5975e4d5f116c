package ai

import "context"

// OptionCount is the number of options every generated question must carry.
const OptionCount = 4

// Option is one candidate answer of a generated question.
type Option struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

// Question is a validated four-option multiple choice question.
type Question struct {
	Text        string   `json:"text"`
	Options     []Option `json:"options"`
	Explanation string   `json:"explanation"`
	Difficulty  string   `json:"difficulty"`
	Marks       int      `json:"marks"`
}

// GenerateRequest describes what kind of questions to produce. Either Topic
// or DocumentText must be set; when both are present the document wins.
type GenerateRequest struct {
	Topic        string
	DocumentText string
	Count        int
	Difficulty   string
}

// Generator produces multiple choice questions for a request.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) ([]Question, error)
}

// DefaultMarks returns the point value associated with a difficulty tier.
func DefaultMarks(difficulty string) int {
	switch difficulty {
	case "medium":
		return 2
	case "hard":
		return 3
	default:
		return 1
	}
}

// NormalizeDifficulty maps unknown difficulty strings to the easy tier.
func NormalizeDifficulty(difficulty string) string {
	switch difficulty {
	case "easy", "medium", "hard":
		return difficulty
	default:
		return "easy"
	}
}
