package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/classboard/classboard-api/internal/dto"
	"github.com/classboard/classboard-api/internal/models"
	"github.com/classboard/classboard-api/internal/repository"
)

// ErrClassroomNotFound indicates a classroom could not be found.
var ErrClassroomNotFound = errors.New("classroom not found")

// ErrAccessDenied indicates the actor lacks ownership or enrollment.
var ErrAccessDenied = errors.New("access denied")

// ErrAlreadyEnrolled indicates the student is already in the classroom.
var ErrAlreadyEnrolled = errors.New("student already enrolled")

// ClassroomService manages classrooms and enrollments.
type ClassroomService interface {
	Create(ctx context.Context, teacherID uint, payload dto.ClassroomCreateRequest) (dto.ClassroomResponse, error)
	ListForTeacher(ctx context.Context, teacherID uint) ([]dto.ClassroomResponse, error)
	Get(ctx context.Context, id, teacherID uint) (dto.ClassroomResponse, error)
	Enroll(ctx context.Context, classroomID, teacherID uint, payload dto.EnrollRequest) (dto.ClassroomResponse, error)
}

type classroomService struct {
	classrooms repository.ClassroomRepository
	validator  *validator.Validate
	logger     zerolog.Logger
}

// NewClassroomService constructs a ClassroomService instance.
func NewClassroomService(repo repository.ClassroomRepository, validate *validator.Validate, logger zerolog.Logger) ClassroomService {
	return &classroomService{
		classrooms: repo,
		validator:  validate,
		logger:     logger.With().Str("component", "classroom_service").Logger(),
	}
}

func (s *classroomService) Create(ctx context.Context, teacherID uint, payload dto.ClassroomCreateRequest) (dto.ClassroomResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ClassroomResponse{}, err
	}

	classroom := models.Classroom{
		Name:      payload.Name,
		Subject:   payload.Subject,
		TeacherID: teacherID,
	}

	if err := s.classrooms.Create(ctx, &classroom); err != nil {
		return dto.ClassroomResponse{}, err
	}

	s.logger.Info().Uint("classroom_id", classroom.ID).Uint("teacher_id", teacherID).Msg("classroom created")

	return dto.NewClassroomResponse(classroom), nil
}

func (s *classroomService) ListForTeacher(ctx context.Context, teacherID uint) ([]dto.ClassroomResponse, error) {
	classrooms, err := s.classrooms.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, err
	}

	return dto.NewClassroomResponseSlice(classrooms), nil
}

func (s *classroomService) Get(ctx context.Context, id, teacherID uint) (dto.ClassroomResponse, error) {
	classroom, err := s.classrooms.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ClassroomResponse{}, ErrClassroomNotFound
		}
		return dto.ClassroomResponse{}, err
	}

	if !classroom.IsOwnedBy(teacherID) {
		return dto.ClassroomResponse{}, ErrAccessDenied
	}

	return dto.NewClassroomResponse(classroom), nil
}

func (s *classroomService) Enroll(ctx context.Context, classroomID, teacherID uint, payload dto.EnrollRequest) (dto.ClassroomResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ClassroomResponse{}, err
	}

	classroom, err := s.classrooms.GetByID(ctx, classroomID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ClassroomResponse{}, ErrClassroomNotFound
		}
		return dto.ClassroomResponse{}, err
	}

	if !classroom.IsOwnedBy(teacherID) {
		return dto.ClassroomResponse{}, ErrAccessDenied
	}

	enrollment := models.Enrollment{
		ClassroomID: classroomID,
		StudentID:   payload.StudentID,
		Level:       payload.Level,
	}
	if err := s.classrooms.Enroll(ctx, &enrollment); err != nil {
		if errors.Is(err, repository.ErrDuplicateEnrollment) {
			return dto.ClassroomResponse{}, ErrAlreadyEnrolled
		}
		return dto.ClassroomResponse{}, err
	}

	updated, err := s.classrooms.GetByID(ctx, classroomID)
	if err != nil {
		return dto.ClassroomResponse{}, err
	}

	s.logger.Info().Uint("classroom_id", classroomID).Uint("student_id", payload.StudentID).Msg("student enrolled")

	return dto.NewClassroomResponse(updated), nil
}

// authorizeStudent verifies the student is enrolled in the classroom and
// returns their enrollment level.
func authorizeStudent(ctx context.Context, classrooms repository.ClassroomRepository, classroomID, studentID uint) (string, error) {
	enrollment, err := classrooms.GetEnrollment(ctx, classroomID, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrAccessDenied
		}
		return "", err
	}
	return enrollment.Level, nil
}
