package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/classboard/classboard-api/internal/dto"
	"github.com/classboard/classboard-api/internal/grading"
	"github.com/classboard/classboard-api/internal/models"
	"github.com/classboard/classboard-api/internal/repository"
)

// ErrSubmissionNotFound indicates a submission could not be found.
var ErrSubmissionNotFound = errors.New("submission not found")

// ErrDeadlinePassed indicates the due date is over and late work is disallowed.
var ErrDeadlinePassed = errors.New("deadline has passed")

// ErrAlreadySubmitted indicates the student has already handed in this assignment.
var ErrAlreadySubmitted = errors.New("already submitted")

// ErrNotSubmitted indicates the submission has not been handed in yet.
var ErrNotSubmitted = errors.New("submission not handed in yet")

// ErrScoreOutOfRange indicates a manual grade outside the allowed bounds.
var ErrScoreOutOfRange = errors.New("score must be between 0 and maxScore")

// ErrNotGraded indicates the submission has no grade to return yet.
var ErrNotGraded = errors.New("submission not graded yet")

// SubmissionService enforces the submission lifecycle: a record is created on
// the first student write, frozen for the student once submitted, and only
// grade fields change afterwards.
type SubmissionService interface {
	SaveDraft(ctx context.Context, assignmentID, studentID uint, payload dto.DraftRequest) (dto.SubmissionResponse, error)
	Submit(ctx context.Context, assignmentID, studentID uint, payload dto.SubmitRequest) (dto.SubmissionResponse, error)
	Grade(ctx context.Context, submissionID, teacherID uint, payload dto.GradeRequest) (dto.SubmissionResponse, error)
	Return(ctx context.Context, submissionID, teacherID uint) (dto.SubmissionResponse, error)
	Get(ctx context.Context, id uint) (dto.SubmissionResponse, error)
	List(ctx context.Context, filter dto.SubmissionFilter) ([]dto.SubmissionResponse, error)
}

type submissionService struct {
	submissions repository.SubmissionRepository
	assignments repository.AssignmentRepository
	classrooms  repository.ClassroomRepository
	validator   *validator.Validate
	events      EventPublisher
	tracer      trace.Tracer
	logger      zerolog.Logger
	now         func() time.Time
}

// NewSubmissionService constructs a SubmissionService instance.
func NewSubmissionService(subRepo repository.SubmissionRepository, assignmentRepo repository.AssignmentRepository, classroomRepo repository.ClassroomRepository, validate *validator.Validate, events EventPublisher, logger zerolog.Logger) SubmissionService {
	return &submissionService{
		submissions: subRepo,
		assignments: assignmentRepo,
		classrooms:  classroomRepo,
		validator:   validate,
		events:      events,
		tracer:      otel.Tracer("github.com/classboard/classboard-api/internal/service/submission"),
		logger:      logger.With().Str("component", "submission_service").Logger(),
		now:         time.Now,
	}
}

func (s *submissionService) SaveDraft(ctx context.Context, assignmentID, studentID uint, payload dto.DraftRequest) (dto.SubmissionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, err
	}

	assignment, err := s.loadAssignmentForStudent(ctx, assignmentID, studentID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	existing, err := s.submissions.GetByAssignmentAndStudent(ctx, assignmentID, studentID)
	switch {
	case err == nil:
		if existing.IsFinal() {
			return dto.SubmissionResponse{}, ErrAlreadySubmitted
		}
		existing.Content = payload.Content
		existing.SetAnswers(ungraded(payload.Answers))
		if err := s.submissions.UpdateDraft(ctx, &existing); err != nil {
			if errors.Is(err, repository.ErrSubmissionConflict) {
				return dto.SubmissionResponse{}, ErrAlreadySubmitted
			}
			return dto.SubmissionResponse{}, err
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		draft := models.Submission{
			AssignmentID: assignment.ID,
			StudentID:    studentID,
			Content:      payload.Content,
			Status:       models.SubmissionStatusInProgress,
		}
		draft.SetAnswers(ungraded(payload.Answers))
		if err := s.submissions.CreateIfAbsent(ctx, &draft); err != nil {
			if errors.Is(err, repository.ErrSubmissionConflict) {
				return dto.SubmissionResponse{}, ErrAlreadySubmitted
			}
			return dto.SubmissionResponse{}, err
		}
		existing = draft
	default:
		return dto.SubmissionResponse{}, err
	}

	saved, err := s.submissions.GetByID(ctx, existing.ID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	return dto.NewSubmissionResponse(saved), nil
}

// Submit hands the student's work in. Auto-gradable types are scored
// synchronously in the same write, so the record lands directly in graded.
func (s *submissionService) Submit(ctx context.Context, assignmentID, studentID uint, payload dto.SubmitRequest) (dto.SubmissionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "submission.submit", trace.WithAttributes(
		attribute.Int64("assignment_id", int64(assignmentID)),
		attribute.Int64("student_id", int64(studentID)),
	))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.SubmissionResponse{}, err
	}

	assignment, err := s.loadAssignmentForStudent(ctx, assignmentID, studentID)
	if err != nil {
		span.RecordError(err)
		return dto.SubmissionResponse{}, err
	}

	now := s.now()
	isLate := assignment.IsPastDue(now)
	if isLate && !assignment.AllowLateSubmission {
		span.SetStatus(codes.Error, "deadline_passed")
		return dto.SubmissionResponse{}, ErrDeadlinePassed
	}

	submission := models.Submission{
		AssignmentID: assignment.ID,
		StudentID:    studentID,
		Content:      payload.Content,
		Status:       models.SubmissionStatusSubmitted,
		IsLate:       isLate,
		SubmittedAt:  &now,
	}
	submission.SetAnswers(ungraded(payload.Answers))

	if assignment.IsAutoGradable() {
		s.applyAutoGrade(&submission, assignment, payload.Answers, now)
	}

	// Insert-if-absent keyed on (assignment, student); an occupied slot means
	// either a draft to promote or a completed submission to reject.
	err = s.submissions.CreateIfAbsent(ctx, &submission)
	if errors.Is(err, repository.ErrSubmissionConflict) {
		existing, lookupErr := s.submissions.GetByAssignmentAndStudent(ctx, assignmentID, studentID)
		if lookupErr != nil {
			return dto.SubmissionResponse{}, lookupErr
		}
		if existing.IsFinal() {
			span.SetStatus(codes.Error, "already_submitted")
			return dto.SubmissionResponse{}, ErrAlreadySubmitted
		}

		submission.ID = existing.ID
		if err := s.submissions.UpdateDraft(ctx, &submission); err != nil {
			if errors.Is(err, repository.ErrSubmissionConflict) {
				span.SetStatus(codes.Error, "already_submitted")
				return dto.SubmissionResponse{}, ErrAlreadySubmitted
			}
			return dto.SubmissionResponse{}, err
		}
	} else if err != nil {
		span.RecordError(err)
		return dto.SubmissionResponse{}, err
	}

	saved, err := s.submissions.GetByID(ctx, submission.ID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	if saved.IsGraded() && s.events != nil {
		s.events.Publish(ctx, Event{
			Type:        EventSubmissionGraded,
			ClassroomID: assignment.ClassroomID,
			EntityID:    saved.ID,
			ActorID:     assignment.TeacherID,
		})
	}

	s.logger.Info().
		Uint("submission_id", saved.ID).
		Str("status", saved.Status).
		Bool("is_late", saved.IsLate).
		Msg("submission handed in")

	return dto.NewSubmissionResponse(saved), nil
}

// Grade applies a teacher's manual score. Permitted any time after submit and
// overwrites an earlier grade.
func (s *submissionService) Grade(ctx context.Context, submissionID, teacherID uint, payload dto.GradeRequest) (dto.SubmissionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "submission.grade", trace.WithAttributes(
		attribute.Int64("submission_id", int64(submissionID)),
		attribute.Int64("teacher_id", int64(teacherID)),
	))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		return dto.SubmissionResponse{}, err
	}

	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	if submission.Assignment.TeacherID != teacherID {
		return dto.SubmissionResponse{}, ErrAccessDenied
	}

	if !submission.IsFinal() {
		return dto.SubmissionResponse{}, ErrNotSubmitted
	}

	maxScore := float64(submission.Assignment.TotalPoints)
	if maxScore <= 0 {
		maxScore = 100
	}
	if payload.Score < 0 || payload.Score > maxScore {
		span.SetStatus(codes.Error, "score_out_of_range")
		return dto.SubmissionResponse{}, ErrScoreOutOfRange
	}

	now := s.now()
	score := payload.Score
	percentage := grading.ScorePercentage(score, maxScore)
	submission.Score = &score
	submission.Percentage = &percentage
	submission.Feedback = payload.Feedback
	submission.Status = models.SubmissionStatusGraded
	submission.GradedBy = &teacherID
	submission.GradedAt = &now

	if err := s.submissions.Update(ctx, &submission); err != nil {
		return dto.SubmissionResponse{}, err
	}

	if s.events != nil {
		s.events.Publish(ctx, Event{
			Type:        EventSubmissionGraded,
			ClassroomID: submission.Assignment.ClassroomID,
			EntityID:    submission.ID,
			ActorID:     teacherID,
		})
	}

	s.logger.Info().Uint("submission_id", submission.ID).Float64("score", score).Msg("submission graded")

	return dto.NewSubmissionResponse(submission), nil
}

func (s *submissionService) Return(ctx context.Context, submissionID, teacherID uint) (dto.SubmissionResponse, error) {
	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	if submission.Assignment.TeacherID != teacherID {
		return dto.SubmissionResponse{}, ErrAccessDenied
	}

	if submission.Status != models.SubmissionStatusGraded {
		return dto.SubmissionResponse{}, ErrNotGraded
	}

	submission.Status = models.SubmissionStatusReturned
	if err := s.submissions.Update(ctx, &submission); err != nil {
		return dto.SubmissionResponse{}, err
	}

	s.logger.Info().Uint("submission_id", submission.ID).Msg("submission returned to student")

	return dto.NewSubmissionResponse(submission), nil
}

func (s *submissionService) Get(ctx context.Context, id uint) (dto.SubmissionResponse, error) {
	submission, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	return dto.NewSubmissionResponse(submission), nil
}

func (s *submissionService) List(ctx context.Context, filter dto.SubmissionFilter) ([]dto.SubmissionResponse, error) {
	if err := s.validator.Struct(filter); err != nil {
		return nil, err
	}

	submissions, err := s.submissions.List(ctx, repository.SubmissionFilter{
		AssignmentID: filter.AssignmentID,
		StudentID:    filter.StudentID,
		Status:       filter.Status,
	})
	if err != nil {
		return nil, err
	}

	return dto.NewSubmissionResponseSlice(submissions), nil
}

func (s *submissionService) loadAssignmentForStudent(ctx context.Context, assignmentID, studentID uint) (models.Assignment, error) {
	assignment, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Assignment{}, ErrAssignmentNotFound
		}
		return models.Assignment{}, err
	}

	if !assignment.Published {
		return models.Assignment{}, ErrAssignmentNotFound
	}

	if _, err := authorizeStudent(ctx, s.classrooms, assignment.ClassroomID, studentID); err != nil {
		return models.Assignment{}, err
	}

	return assignment, nil
}

func (s *submissionService) applyAutoGrade(submission *models.Submission, assignment models.Assignment, answers []dto.AnswerPayload, now time.Time) {
	inputs := make([]grading.AnswerInput, 0, len(answers))
	for _, answer := range answers {
		inputs = append(inputs, grading.AnswerInput{QuestionID: answer.QuestionID, Answer: answer.Answer})
	}

	graded, earned := grading.GradeAnswers(assignment.QuestionList(), inputs)
	score := float64(earned)
	percentage := grading.Percentage(earned, assignment.TotalPoints)

	submission.SetAnswers(graded)
	submission.Score = &score
	submission.Percentage = &percentage
	submission.Status = models.SubmissionStatusGraded
	gradedBy := assignment.TeacherID
	submission.GradedBy = &gradedBy
	submission.GradedAt = &now
}

func ungraded(answers []dto.AnswerPayload) []models.Answer {
	result := make([]models.Answer, 0, len(answers))
	for _, answer := range answers {
		result = append(result, models.Answer{QuestionID: answer.QuestionID, Answer: answer.Answer})
	}
	return result
}
