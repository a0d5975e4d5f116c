package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// TemplateGenerator synthesizes placeholder questions without any external
// call. It always returns exactly the requested count, so callers can rely on
// it when every completion model has failed.
type TemplateGenerator struct{}

// NewTemplateGenerator constructs the local fallback generator.
func NewTemplateGenerator() *TemplateGenerator {
	return &TemplateGenerator{}
}

// Generate produces req.Count templated questions for the requested topic and
// difficulty. The first option of each question is the sole correct one.
func (g *TemplateGenerator) Generate(_ context.Context, req GenerateRequest) ([]Question, error) {
	count := req.Count
	if count <= 0 {
		count = 1
	}

	topic := strings.TrimSpace(req.Topic)
	if topic == "" {
		topic = "the provided material"
	}

	difficulty := NormalizeDifficulty(req.Difficulty)
	marks := DefaultMarks(difficulty)

	questions := make([]Question, 0, count)
	for i := 1; i <= count; i++ {
		options := []Option{
			{ID: uuid.NewString(), Text: fmt.Sprintf("Key concept %d of %s", i, topic), IsCorrect: true},
			{ID: uuid.NewString(), Text: fmt.Sprintf("Unrelated statement about %s", topic)},
			{ID: uuid.NewString(), Text: fmt.Sprintf("Common misconception about %s", topic)},
			{ID: uuid.NewString(), Text: "None of the above"},
		}

		questions = append(questions, Question{
			Text:        fmt.Sprintf("Question %d: Which statement about %s is accurate?", i, topic),
			Options:     options,
			Explanation: fmt.Sprintf("This placeholder question covers %s. Review the material and replace it before publishing.", topic),
			Difficulty:  difficulty,
			Marks:       marks,
		})
	}

	return questions, nil
}
