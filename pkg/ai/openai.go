package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	generationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "classboard",
		Subsystem: "ai",
		Name:      "generation_duration_seconds",
		Help:      "Duration of question generation attempts per model",
	}, []string{"model"})

	generationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "classboard",
		Subsystem: "ai",
		Name:      "generation_failures_total",
		Help:      "Number of failed question generation attempts per model",
	}, []string{"model"})
)

// completionClient is the slice of the OpenAI client the generator needs.
// Narrowed to an interface so tests can exercise the fallback order.
type completionClient interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIConfig defines configuration options for the OpenAI question generator.
type OpenAIConfig struct {
	APIKey         string
	Models         []string
	MaxTokens      int
	Temperature    float32
	AttemptTimeout time.Duration
	ExcerptLimit   int
	Logger         zerolog.Logger
}

// OpenAIGenerator implements Generator against the OpenAI chat completion API,
// trying an ordered list of models and stopping at the first success.
type OpenAIGenerator struct {
	client completionClient
	cfg    OpenAIConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewOpenAIGenerator builds a generator using the provided configuration.
func NewOpenAIGenerator(cfg OpenAIConfig) (*OpenAIGenerator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	if len(cfg.Models) == 0 {
		cfg.Models = []string{"gpt-4o-mini", "gpt-4o", "gpt-3.5-turbo"}
	}

	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 2048
	}

	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = 30 * time.Second
	}

	if cfg.ExcerptLimit <= 0 {
		cfg.ExcerptLimit = 8000
	}

	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	config := openai.DefaultConfig(cfg.APIKey)
	client := openai.NewClientWithConfig(config)

	return &OpenAIGenerator{
		client: client,
		cfg:    cfg,
		tracer: otel.Tracer("github.com/classboard/classboard-api/pkg/ai/openai"),
		logger: logger,
	}, nil
}

// Generate tries each configured model in order and returns the questions
// parsed from the first successful, repairable response. It returns an error
// only when every model attempt has failed.
func (g *OpenAIGenerator) Generate(parent context.Context, req GenerateRequest) ([]Question, error) {
	ctx, span := g.tracer.Start(parent, "openai.generate", trace.WithAttributes(
		attribute.Int("question.count", req.Count),
		attribute.String("question.difficulty", req.Difficulty),
	))
	defer span.End()

	prompt := g.buildUserPrompt(req)

	var lastErr error
	for _, model := range g.cfg.Models {
		questions, err := g.attempt(ctx, model, prompt, req)
		if err != nil {
			lastErr = err
			generationFailures.WithLabelValues(model).Inc()
			g.logger.Warn().Err(err).Str("model", model).Msg("question generation attempt failed")
			continue
		}

		span.SetAttributes(attribute.String("model.used", model))
		return questions, nil
	}

	err := fmt.Errorf("all models failed: %w", lastErr)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return nil, err
}

func (g *OpenAIGenerator) attempt(parent context.Context, model, prompt string, req GenerateRequest) ([]Question, error) {
	ctx, cancel := context.WithTimeout(parent, g.cfg.AttemptTimeout)
	defer cancel()

	start := time.Now()
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		MaxTokens:   g.cfg.MaxTokens,
		Temperature: g.cfg.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: generatorSystemPrompt()},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	generationDuration.WithLabelValues(model).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("model %s: %w", model, err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("model %s: no choices returned", model)
	}

	questions, err := RepairResponse(resp.Choices[0].Message.Content, req)
	if err != nil {
		return nil, fmt.Errorf("model %s: %w", model, err)
	}

	return questions, nil
}

func generatorSystemPrompt() string {
	return "You are a question generator for a classroom platform. Respond with a JSON object of the form " +
		`{"questions":[{"text":"...","options":[{"text":"...","is_correct":true}],"explanation":"...","difficulty":"easy|medium|hard","marks":1}]}. ` +
		"Every question must have exactly 4 options with exactly one marked correct. Return JSON only."
}

func (g *OpenAIGenerator) buildUserPrompt(req GenerateRequest) string {
	builder := strings.Builder{}
	fmt.Fprintf(&builder, "Generate %d multiple choice questions at %s difficulty", req.Count, NormalizeDifficulty(req.Difficulty))

	if doc := strings.TrimSpace(req.DocumentText); doc != "" {
		if len(doc) > g.cfg.ExcerptLimit {
			doc = doc[:g.cfg.ExcerptLimit]
		}
		builder.WriteString(" based on the following material:\n\n")
		builder.WriteString(doc)
	} else {
		fmt.Fprintf(&builder, " on the topic %q.", strings.TrimSpace(req.Topic))
	}

	builder.WriteString("\nReturn JSON.")
	return builder.String()
}
