package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/classboard/classboard-api/internal/dto"
	"github.com/classboard/classboard-api/pkg/ai"
)

// QuestionService produces MCQ drafts for teachers to review before use.
type QuestionService interface {
	Generate(ctx context.Context, teacherID uint, payload dto.QuestionGenerateRequest) ([]dto.GeneratedQuestionResponse, error)
}

type questionService struct {
	generator ai.Generator
	fallback  ai.Generator
	validator *validator.Validate
	maxCount  int
	logger    zerolog.Logger
}

// NewQuestionService composes the primary generator with a local fallback.
// Generation never fails outright: when every remote model errors out the
// fallback fills the request with templated questions instead.
func NewQuestionService(generator ai.Generator, fallback ai.Generator, validate *validator.Validate, maxCount int, logger zerolog.Logger) QuestionService {
	if fallback == nil {
		fallback = ai.NewTemplateGenerator()
	}
	if maxCount <= 0 {
		maxCount = 20
	}

	return &questionService{
		generator: generator,
		fallback:  fallback,
		validator: validate,
		maxCount:  maxCount,
		logger:    logger.With().Str("component", "question_service").Logger(),
	}
}

func (s *questionService) Generate(ctx context.Context, teacherID uint, payload dto.QuestionGenerateRequest) ([]dto.GeneratedQuestionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return nil, err
	}

	count := payload.Count
	if count <= 0 {
		count = 5
	}
	if count > s.maxCount {
		count = s.maxCount
	}

	req := ai.GenerateRequest{
		Topic:        payload.Topic,
		DocumentText: payload.DocumentText,
		Count:        count,
		Difficulty:   ai.NormalizeDifficulty(payload.Difficulty),
	}

	questions, err := s.tryGenerate(ctx, req)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Uint("teacher_id", teacherID).
		Str("topic", req.Topic).
		Int("requested", count).
		Int("generated", len(questions)).
		Msg("questions generated")

	return dto.NewGeneratedQuestionResponseSlice(questions), nil
}

func (s *questionService) tryGenerate(ctx context.Context, req ai.GenerateRequest) ([]ai.Question, error) {
	if s.generator != nil {
		questions, err := s.generator.Generate(ctx, req)
		if err == nil && len(questions) > 0 {
			return questions, nil
		}
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil, err
			}
			s.logger.Warn().Err(err).Str("topic", req.Topic).Msg("remote generation failed, using local fallback")
		}
	}

	return s.fallback.Generate(ctx, req)
}
