package dto

import "github.com/classboard/classboard-api/pkg/ai"

// QuestionGenerateRequest asks for AI-generated MCQ questions. Either Topic
// or DocumentText must be provided.
type QuestionGenerateRequest struct {
	Topic        string `json:"topic" validate:"required_without=DocumentText"`
	DocumentText string `json:"document_text" validate:"required_without=Topic"`
	Count        int    `json:"count" validate:"omitempty,gt=0"`
	Difficulty   string `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
}

// GeneratedOptionResponse serializes one option of a generated question.
type GeneratedOptionResponse struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

// GeneratedQuestionResponse serializes one generated question.
type GeneratedQuestionResponse struct {
	Text        string                    `json:"text"`
	Options     []GeneratedOptionResponse `json:"options"`
	Explanation string                    `json:"explanation"`
	Difficulty  string                    `json:"difficulty"`
	Marks       int                       `json:"marks"`
}

// NewGeneratedQuestionResponseSlice converts generator output into DTOs.
func NewGeneratedQuestionResponseSlice(questions []ai.Question) []GeneratedQuestionResponse {
	responses := make([]GeneratedQuestionResponse, 0, len(questions))
	for _, question := range questions {
		item := GeneratedQuestionResponse{
			Text:        question.Text,
			Explanation: question.Explanation,
			Difficulty:  question.Difficulty,
			Marks:       question.Marks,
		}
		for _, option := range question.Options {
			item.Options = append(item.Options, GeneratedOptionResponse{
				ID:        option.ID,
				Text:      option.Text,
				IsCorrect: option.IsCorrect,
			})
		}
		responses = append(responses, item)
	}

	return responses
}
