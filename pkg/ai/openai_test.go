package ai

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
)

type scriptedClient struct {
	responses map[string]string
	errors    map[string]error
	calls     []string
}

func (s *scriptedClient) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	s.calls = append(s.calls, req.Model)
	if err, ok := s.errors[req.Model]; ok {
		return openai.ChatCompletionResponse{}, err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: s.responses[req.Model]}},
		},
	}, nil
}

func newTestGenerator(client completionClient, models []string) *OpenAIGenerator {
	return &OpenAIGenerator{
		client: client,
		cfg: OpenAIConfig{
			Models:         models,
			MaxTokens:      256,
			AttemptTimeout: time.Second,
			ExcerptLimit:   100,
		},
		tracer: otel.Tracer("test"),
		logger: zerolog.Nop(),
	}
}

func TestGenerateAdvancesPastFailingModels(t *testing.T) {
	client := &scriptedClient{
		errors: map[string]error{
			"model-a": fmt.Errorf("timeout"),
			"model-b": fmt.Errorf("rate limited"),
		},
		responses: map[string]string{
			"model-c": `{"questions":[{"text":"Q1","options":[{"text":"x","is_correct":true},{"text":"y"},{"text":"z"},{"text":"w"}]}]}`,
		},
	}
	generator := newTestGenerator(client, []string{"model-a", "model-b", "model-c"})

	questions, err := generator.Generate(context.Background(), GenerateRequest{Topic: "Cells", Count: 1, Difficulty: "easy"})
	require.NoError(t, err)
	require.Len(t, questions, 1)
	require.Equal(t, []string{"model-a", "model-b", "model-c"}, client.calls)
}

func TestGenerateTreatsMalformedBodyAsFailure(t *testing.T) {
	client := &scriptedClient{
		responses: map[string]string{
			"model-a": "I could not produce questions, sorry!",
			"model-b": `{"questions":[{"text":"Q1"}]}`,
		},
	}
	generator := newTestGenerator(client, []string{"model-a", "model-b"})

	questions, err := generator.Generate(context.Background(), GenerateRequest{Topic: "Cells", Count: 1, Difficulty: "easy"})
	require.NoError(t, err)
	require.Len(t, questions, 1)
	require.Equal(t, []string{"model-a", "model-b"}, client.calls)
}

func TestGenerateFailsWhenAllModelsFail(t *testing.T) {
	client := &scriptedClient{
		errors: map[string]error{
			"model-a": fmt.Errorf("boom"),
			"model-b": fmt.Errorf("boom"),
		},
	}
	generator := newTestGenerator(client, []string{"model-a", "model-b"})

	_, err := generator.Generate(context.Background(), GenerateRequest{Topic: "Cells", Count: 3})
	require.Error(t, err)
	require.Equal(t, []string{"model-a", "model-b"}, client.calls)
}

func TestBuildUserPromptTruncatesDocument(t *testing.T) {
	generator := newTestGenerator(&scriptedClient{}, []string{"m"})

	long := make([]byte, 500)
	for i := range long {
		long[i] = 'x'
	}

	prompt := generator.buildUserPrompt(GenerateRequest{DocumentText: string(long), Count: 2, Difficulty: "medium"})
	require.LessOrEqual(t, len(prompt), 100+120, "document excerpt should be capped at the configured budget")
}
