package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/classboard/classboard-api/internal/dto"
	"github.com/classboard/classboard-api/internal/grading"
	"github.com/classboard/classboard-api/internal/models"
	"github.com/classboard/classboard-api/internal/repository"
)

// ErrAssignmentNotFound indicates an assignment could not be found.
var ErrAssignmentNotFound = errors.New("assignment not found")

// ErrAlreadyPublished indicates the assignment is already visible to students.
var ErrAlreadyPublished = errors.New("assignment already published")

// AssignmentService orchestrates assignment workflows for teachers and students.
type AssignmentService interface {
	Create(ctx context.Context, teacherID uint, payload dto.AssignmentCreateRequest) (dto.AssignmentResponse, error)
	Update(ctx context.Context, id, teacherID uint, payload dto.AssignmentUpdateRequest) (dto.AssignmentResponse, error)
	Publish(ctx context.Context, id, teacherID uint) (dto.AssignmentResponse, error)
	Delete(ctx context.Context, id, teacherID uint) error
	GetForTeacher(ctx context.Context, id, teacherID uint) (dto.AssignmentResponse, error)
	GetForStudent(ctx context.Context, id, studentID uint) (dto.AssignmentResponse, error)
	ListForTeacher(ctx context.Context, teacherID uint, classroomID *uint) ([]dto.AssignmentResponse, error)
	ListForStudent(ctx context.Context, classroomID, studentID uint) ([]dto.AssignmentResponse, error)
}

type assignmentService struct {
	assignments repository.AssignmentRepository
	classrooms  repository.ClassroomRepository
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	events      EventPublisher
	logger      zerolog.Logger
	now         func() time.Time
}

// NewAssignmentService constructs an AssignmentService instance.
func NewAssignmentService(assignmentRepo repository.AssignmentRepository, classroomRepo repository.ClassroomRepository, validate *validator.Validate, events EventPublisher, logger zerolog.Logger) AssignmentService {
	return &assignmentService{
		assignments: assignmentRepo,
		classrooms:  classroomRepo,
		validator:   validate,
		sanitizer:   bluemonday.UGCPolicy(),
		events:      events,
		logger:      logger.With().Str("component", "assignment_service").Logger(),
		now:         time.Now,
	}
}

func (s *assignmentService) Create(ctx context.Context, teacherID uint, payload dto.AssignmentCreateRequest) (dto.AssignmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AssignmentResponse{}, err
	}

	classroom, err := s.classrooms.GetByID(ctx, payload.ClassroomID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssignmentResponse{}, ErrClassroomNotFound
		}
		return dto.AssignmentResponse{}, err
	}
	if !classroom.IsOwnedBy(teacherID) {
		return dto.AssignmentResponse{}, ErrAccessDenied
	}

	dueDate, err := time.Parse(time.RFC3339, payload.DueDate)
	if err != nil {
		return dto.AssignmentResponse{}, fmt.Errorf("invalid due date: %w", err)
	}

	questions := buildQuestions(payload.Questions)

	assignment := models.Assignment{
		ClassroomID:         payload.ClassroomID,
		TeacherID:           teacherID,
		Title:               payload.Title,
		Description:         s.sanitizer.Sanitize(payload.Description),
		Type:                payload.Type,
		DueDate:             dueDate,
		AllowLateSubmission: payload.AllowLateSubmission,
		TargetLevels:        joinLevels(payload.TargetLevels),
	}
	assignment.SetQuestions(questions)

	// total points always derives from the questions when present
	if len(questions) > 0 {
		assignment.TotalPoints = grading.TotalPoints(questions)
	} else {
		assignment.TotalPoints = payload.TotalPoints
	}

	if err := s.assignments.Create(ctx, &assignment); err != nil {
		return dto.AssignmentResponse{}, err
	}

	s.logger.Info().Uint("assignment_id", assignment.ID).Str("type", assignment.Type).Msg("assignment created")

	return dto.NewAssignmentResponse(assignment, true), nil
}

func (s *assignmentService) Update(ctx context.Context, id, teacherID uint, payload dto.AssignmentUpdateRequest) (dto.AssignmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AssignmentResponse{}, err
	}

	assignment, err := s.getOwned(ctx, id, teacherID)
	if err != nil {
		return dto.AssignmentResponse{}, err
	}

	if payload.Title != nil {
		assignment.Title = *payload.Title
	}
	if payload.Description != nil {
		assignment.Description = s.sanitizer.Sanitize(*payload.Description)
	}
	if payload.DueDate != nil {
		dueDate, err := time.Parse(time.RFC3339, *payload.DueDate)
		if err != nil {
			return dto.AssignmentResponse{}, fmt.Errorf("invalid due date: %w", err)
		}
		assignment.DueDate = dueDate
	}
	if payload.AllowLateSubmission != nil {
		assignment.AllowLateSubmission = *payload.AllowLateSubmission
	}
	if payload.TargetLevels != nil {
		assignment.TargetLevels = joinLevels(payload.TargetLevels)
	}
	if payload.Questions != nil {
		questions := buildQuestions(payload.Questions)
		assignment.SetQuestions(questions)
		assignment.TotalPoints = grading.TotalPoints(questions)
	}

	if err := s.assignments.Update(ctx, &assignment); err != nil {
		return dto.AssignmentResponse{}, err
	}

	s.logger.Info().Uint("assignment_id", assignment.ID).Msg("assignment updated")

	return dto.NewAssignmentResponse(assignment, true), nil
}

func (s *assignmentService) Publish(ctx context.Context, id, teacherID uint) (dto.AssignmentResponse, error) {
	assignment, err := s.getOwned(ctx, id, teacherID)
	if err != nil {
		return dto.AssignmentResponse{}, err
	}

	if assignment.Published {
		return dto.AssignmentResponse{}, ErrAlreadyPublished
	}

	now := s.now()
	assignment.Published = true
	assignment.PublishedAt = &now

	if err := s.assignments.Update(ctx, &assignment); err != nil {
		return dto.AssignmentResponse{}, err
	}

	if err := s.classrooms.IncrementAssignmentCount(ctx, assignment.ClassroomID); err != nil {
		s.logger.Warn().Err(err).Uint("classroom_id", assignment.ClassroomID).Msg("failed to bump assignment counter")
	}

	if s.events != nil {
		s.events.Publish(ctx, Event{
			Type:        EventAssignmentPublished,
			ClassroomID: assignment.ClassroomID,
			EntityID:    assignment.ID,
			ActorID:     teacherID,
		})
	}

	s.logger.Info().Uint("assignment_id", assignment.ID).Msg("assignment published")

	return dto.NewAssignmentResponse(assignment, true), nil
}

func (s *assignmentService) Delete(ctx context.Context, id, teacherID uint) error {
	if _, err := s.getOwned(ctx, id, teacherID); err != nil {
		return err
	}

	if err := s.assignments.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAssignmentNotFound
		}
		return err
	}

	s.logger.Info().Uint("assignment_id", id).Msg("assignment deleted with submissions")

	return nil
}

func (s *assignmentService) GetForTeacher(ctx context.Context, id, teacherID uint) (dto.AssignmentResponse, error) {
	assignment, err := s.getOwned(ctx, id, teacherID)
	if err != nil {
		return dto.AssignmentResponse{}, err
	}

	return dto.NewAssignmentResponse(assignment, true), nil
}

func (s *assignmentService) GetForStudent(ctx context.Context, id, studentID uint) (dto.AssignmentResponse, error) {
	assignment, err := s.assignments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssignmentResponse{}, ErrAssignmentNotFound
		}
		return dto.AssignmentResponse{}, err
	}

	level, err := authorizeStudent(ctx, s.classrooms, assignment.ClassroomID, studentID)
	if err != nil {
		return dto.AssignmentResponse{}, err
	}

	if !assignment.Published || !assignment.TargetsLevel(level) {
		return dto.AssignmentResponse{}, ErrAssignmentNotFound
	}

	return dto.NewAssignmentResponse(assignment, false), nil
}

func (s *assignmentService) ListForTeacher(ctx context.Context, teacherID uint, classroomID *uint) ([]dto.AssignmentResponse, error) {
	filter := repository.AssignmentFilter{TeacherID: &teacherID, ClassroomID: classroomID}
	assignments, _, err := s.assignments.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	return dto.NewAssignmentResponseSlice(assignments, true), nil
}

func (s *assignmentService) ListForStudent(ctx context.Context, classroomID, studentID uint) ([]dto.AssignmentResponse, error) {
	level, err := authorizeStudent(ctx, s.classrooms, classroomID, studentID)
	if err != nil {
		return nil, err
	}

	filter := repository.AssignmentFilter{ClassroomID: &classroomID, PublishedOnly: true}
	assignments, _, err := s.assignments.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	visible := make([]models.Assignment, 0, len(assignments))
	for _, assignment := range assignments {
		if assignment.TargetsLevel(level) {
			visible = append(visible, assignment)
		}
	}

	return dto.NewAssignmentResponseSlice(visible, false), nil
}

func (s *assignmentService) getOwned(ctx context.Context, id, teacherID uint) (models.Assignment, error) {
	assignment, err := s.assignments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Assignment{}, ErrAssignmentNotFound
		}
		return models.Assignment{}, err
	}
	if assignment.TeacherID != teacherID {
		return models.Assignment{}, ErrAccessDenied
	}
	return assignment, nil
}

func buildQuestions(payloads []dto.QuestionPayload) []models.Question {
	questions := make([]models.Question, 0, len(payloads))
	for _, payload := range payloads {
		id := payload.ID
		if id == "" {
			id = uuid.NewString()
		}
		questions = append(questions, models.Question{
			ID:            id,
			Text:          payload.Text,
			Options:       payload.Options,
			CorrectAnswer: payload.CorrectAnswer,
			Points:        payload.Points,
		})
	}
	return questions
}

func joinLevels(levels []string) string {
	result := ""
	for i, level := range levels {
		if i > 0 {
			result += ","
		}
		result += level
	}
	return result
}
