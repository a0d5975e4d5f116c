package dto

import (
	"time"

	"github.com/classboard/classboard-api/internal/models"
)

// ClassroomCreateRequest describes the payload for creating a classroom.
type ClassroomCreateRequest struct {
	Name    string `json:"name" validate:"required,min=3"`
	Subject string `json:"subject" validate:"omitempty,min=2"`
}

// EnrollRequest adds a student to a classroom at a level.
type EnrollRequest struct {
	StudentID uint   `json:"student_id" validate:"required,gt=0"`
	Level     string `json:"level" validate:"required,oneof=beginner intermediate advanced"`
}

// EnrollmentResponse serializes one classroom enrollment.
type EnrollmentResponse struct {
	StudentID uint   `json:"student_id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Level     string `json:"level"`
}

// ClassroomResponse is the serialized representation returned to API clients.
type ClassroomResponse struct {
	ID              uint                 `json:"id"`
	Name            string               `json:"name"`
	Subject         string               `json:"subject"`
	TeacherID       uint                 `json:"teacher_id"`
	AssignmentCount int                  `json:"assignment_count"`
	Enrollments     []EnrollmentResponse `json:"enrollments,omitempty"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
}

// NewClassroomResponse converts a model into a DTO.
func NewClassroomResponse(model models.Classroom) ClassroomResponse {
	response := ClassroomResponse{
		ID:              model.ID,
		Name:            model.Name,
		Subject:         model.Subject,
		TeacherID:       model.TeacherID,
		AssignmentCount: model.AssignmentCount,
		CreatedAt:       model.CreatedAt,
		UpdatedAt:       model.UpdatedAt,
	}

	for _, enrollment := range model.Enrollments {
		response.Enrollments = append(response.Enrollments, EnrollmentResponse{
			StudentID: enrollment.StudentID,
			Name:      enrollment.Student.Name,
			Email:     enrollment.Student.Email,
			Level:     enrollment.Level,
		})
	}

	return response
}

// NewClassroomResponseSlice converts a slice of models into DTOs.
func NewClassroomResponseSlice(classrooms []models.Classroom) []ClassroomResponse {
	responses := make([]ClassroomResponse, 0, len(classrooms))
	for _, classroom := range classrooms {
		responses = append(responses, NewClassroomResponse(classroom))
	}

	return responses
}
