package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/classboard/classboard-api/internal/dto"
	"github.com/classboard/classboard-api/internal/models"
	"github.com/classboard/classboard-api/internal/repository"
)

// AnalyticsService aggregates class performance for teachers.
type AnalyticsService interface {
	AssignmentAnalytics(ctx context.Context, assignmentID, teacherID uint) (dto.AssignmentAnalyticsResponse, error)
	DPPAnalytics(ctx context.Context, dppID, teacherID uint) (dto.DPPAnalyticsResponse, error)
}

type analyticsService struct {
	assignments repository.AssignmentRepository
	submissions repository.SubmissionRepository
	dpps        repository.DPPRepository
	cache       *redis.Client
	cacheTTL    time.Duration
	logger      zerolog.Logger
}

// NewAnalyticsService builds the aggregator. The cache client may be nil, in
// which case every call recomputes from the database.
func NewAnalyticsService(assignments repository.AssignmentRepository, submissions repository.SubmissionRepository, dpps repository.DPPRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) AnalyticsService {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}

	return &analyticsService{
		assignments: assignments,
		submissions: submissions,
		dpps:        dpps,
		cache:       cache,
		cacheTTL:    ttl,
		logger:      logger.With().Str("component", "analytics_service").Logger(),
	}
}

func (s *analyticsService) AssignmentAnalytics(ctx context.Context, assignmentID, teacherID uint) (dto.AssignmentAnalyticsResponse, error) {
	assignment, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssignmentAnalyticsResponse{}, ErrAssignmentNotFound
		}
		return dto.AssignmentAnalyticsResponse{}, err
	}
	if assignment.TeacherID != teacherID {
		return dto.AssignmentAnalyticsResponse{}, ErrAccessDenied
	}

	cacheKey := fmt.Sprintf("analytics:assignment:%d", assignmentID)
	if cached, ok := s.readCache(ctx, cacheKey); ok {
		var response dto.AssignmentAnalyticsResponse
		if err := json.Unmarshal(cached, &response); err == nil {
			return response, nil
		}
	}

	submissions, err := s.submissions.List(ctx, repository.SubmissionFilter{AssignmentID: &assignmentID})
	if err != nil {
		return dto.AssignmentAnalyticsResponse{}, err
	}

	response := buildAssignmentAnalytics(assignment, submissions)
	s.writeCache(ctx, cacheKey, response)

	return response, nil
}

func (s *analyticsService) DPPAnalytics(ctx context.Context, dppID, teacherID uint) (dto.DPPAnalyticsResponse, error) {
	dpp, err := s.dpps.GetByID(ctx, dppID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.DPPAnalyticsResponse{}, ErrDPPNotFound
		}
		return dto.DPPAnalyticsResponse{}, err
	}
	if dpp.TeacherID != teacherID {
		return dto.DPPAnalyticsResponse{}, ErrAccessDenied
	}

	cacheKey := fmt.Sprintf("analytics:dpp:%d", dppID)
	if cached, ok := s.readCache(ctx, cacheKey); ok {
		var response dto.DPPAnalyticsResponse
		if err := json.Unmarshal(cached, &response); err == nil {
			return response, nil
		}
	}

	submissions, err := s.dpps.ListSubmissions(ctx, dppID)
	if err != nil {
		return dto.DPPAnalyticsResponse{}, err
	}

	response := buildDPPAnalytics(dpp, submissions)
	s.writeCache(ctx, cacheKey, response)

	return response, nil
}

func (s *analyticsService) readCache(ctx context.Context, key string) ([]byte, bool) {
	if s.cache == nil {
		return nil, false
	}

	cached, err := s.cache.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("failed to read analytics cache")
		}
		return nil, false
	}

	s.logger.Debug().Str("key", key).Msg("analytics cache hit")
	return []byte(cached), true
}

func (s *analyticsService) writeCache(ctx context.Context, key string, value any) {
	if s.cache == nil {
		return
	}

	payload, err := json.Marshal(value)
	if err != nil {
		return
	}

	if err := s.cache.Set(ctx, key, payload, s.cacheTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("failed to store analytics cache")
	}
}

func buildAssignmentAnalytics(assignment models.Assignment, submissions []models.Submission) dto.AssignmentAnalyticsResponse {
	response := dto.AssignmentAnalyticsResponse{
		AssignmentID:    assignment.ID,
		SubmissionCount: len(submissions),
	}

	questions := assignment.QuestionList()
	questionStats := make(map[string]*dto.QuestionStat, len(questions))
	order := make([]string, 0, len(questions))
	for _, question := range questions {
		questionStats[question.ID] = &dto.QuestionStat{QuestionID: question.ID, Text: question.Text}
		order = append(order, question.ID)
	}

	var percentageTotal float64
	for _, submission := range submissions {
		if submission.IsLate {
			response.LateCount++
		}
		if submission.IsGraded() {
			response.GradedCount++
			if submission.Percentage != nil {
				percentageTotal += *submission.Percentage
			}
		}

		for _, answer := range submission.AnswerList() {
			stat, ok := questionStats[answer.QuestionID]
			if !ok {
				continue
			}
			stat.Attempts++
			if answer.IsCorrect {
				stat.Correct++
			}
		}
	}

	if response.GradedCount > 0 {
		response.AveragePercentage = percentageTotal / float64(response.GradedCount)
	}

	for _, id := range order {
		stat := questionStats[id]
		if stat.Attempts > 0 {
			stat.CorrectRate = float64(stat.Correct) / float64(stat.Attempts) * 100
		}
		response.QuestionStats = append(response.QuestionStats, *stat)
	}

	return response
}

func buildDPPAnalytics(dpp models.DailyPracticeProblem, submissions []models.DPPSubmission) dto.DPPAnalyticsResponse {
	response := dto.DPPAnalyticsResponse{
		DPPID:           dpp.ID,
		SubmissionCount: len(submissions),
		MaxScore:        dpp.MaxScore,
	}

	questions := dpp.QuestionList()
	questionStats := make(map[string]*dto.QuestionStat, len(questions))
	difficultyByQuestion := make(map[string]string, len(questions))
	order := make([]string, 0, len(questions))
	for _, question := range questions {
		questionStats[question.ID] = &dto.QuestionStat{QuestionID: question.ID, Text: question.Text}
		difficultyByQuestion[question.ID] = question.Difficulty
		order = append(order, question.ID)
	}

	difficultyStats := map[string]*dto.DifficultyStat{}

	var scoreTotal int
	for _, submission := range submissions {
		scoreTotal += submission.Score

		for _, answer := range submission.AnswerList() {
			stat, ok := questionStats[answer.QuestionID]
			if !ok {
				continue
			}
			stat.Attempts++
			if answer.IsCorrect {
				stat.Correct++
			}

			difficulty := difficultyByQuestion[answer.QuestionID]
			tier, ok := difficultyStats[difficulty]
			if !ok {
				tier = &dto.DifficultyStat{Difficulty: difficulty}
				difficultyStats[difficulty] = tier
			}
			tier.Attempts++
			if answer.IsCorrect {
				tier.Correct++
			}
		}
	}

	if len(submissions) > 0 {
		response.AverageScore = float64(scoreTotal) / float64(len(submissions))
	}

	for _, id := range order {
		stat := questionStats[id]
		if stat.Attempts > 0 {
			stat.CorrectRate = float64(stat.Correct) / float64(stat.Attempts) * 100
		}
		response.QuestionStats = append(response.QuestionStats, *stat)
	}

	for _, difficulty := range []string{models.DifficultyEasy, models.DifficultyMedium, models.DifficultyHard} {
		tier, ok := difficultyStats[difficulty]
		if !ok {
			continue
		}
		if tier.Attempts > 0 {
			tier.CorrectRate = float64(tier.Correct) / float64(tier.Attempts) * 100
		}
		response.DifficultyStats = append(response.DifficultyStats, *tier)
	}

	return response
}
