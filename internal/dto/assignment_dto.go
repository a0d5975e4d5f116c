package dto

import (
	"time"

	"github.com/classboard/classboard-api/internal/models"
)

// QuestionPayload describes one question of an assignment create/update request.
type QuestionPayload struct {
	ID            string   `json:"id"`
	Text          string   `json:"text" validate:"required,min=3"`
	Options       []string `json:"options" validate:"omitempty,min=2,dive,required"`
	CorrectAnswer string   `json:"correct_answer" validate:"required"`
	Points        int      `json:"points" validate:"required,gt=0"`
}

// AssignmentCreateRequest describes the payload for creating a new assignment.
type AssignmentCreateRequest struct {
	ClassroomID         uint              `json:"classroom_id" validate:"required,gt=0"`
	Title               string            `json:"title" validate:"required,min=3"`
	Description         string            `json:"description" validate:"omitempty,min=10"`
	Type                string            `json:"type" validate:"required,oneof=assignment quiz test"`
	Questions           []QuestionPayload `json:"questions" validate:"omitempty,dive"`
	TotalPoints         int               `json:"total_points" validate:"omitempty,gte=0"`
	DueDate             string            `json:"due_date" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	AllowLateSubmission bool              `json:"allow_late_submission"`
	TargetLevels        []string          `json:"target_levels" validate:"omitempty,dive,oneof=beginner intermediate advanced"`
}

// AssignmentUpdateRequest describes the payload for updating an assignment.
type AssignmentUpdateRequest struct {
	Title               *string           `json:"title" validate:"omitempty,min=3"`
	Description         *string           `json:"description" validate:"omitempty,min=10"`
	Questions           []QuestionPayload `json:"questions" validate:"omitempty,dive"`
	DueDate             *string           `json:"due_date" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	AllowLateSubmission *bool             `json:"allow_late_submission"`
	TargetLevels        []string          `json:"target_levels" validate:"omitempty,dive,oneof=beginner intermediate advanced"`
}

// QuestionResponse serializes a question. CorrectAnswer is omitted from
// student-facing views.
type QuestionResponse struct {
	ID            string   `json:"id"`
	Text          string   `json:"text"`
	Options       []string `json:"options,omitempty"`
	CorrectAnswer string   `json:"correct_answer,omitempty"`
	Points        int      `json:"points"`
}

// AssignmentResponse is the serialized representation returned to API clients.
type AssignmentResponse struct {
	ID                  uint               `json:"id"`
	ClassroomID         uint               `json:"classroom_id"`
	TeacherID           uint               `json:"teacher_id"`
	Title               string             `json:"title"`
	Description         string             `json:"description"`
	Type                string             `json:"type"`
	Questions           []QuestionResponse `json:"questions,omitempty"`
	TotalPoints         int                `json:"total_points"`
	DueDate             time.Time          `json:"due_date"`
	AllowLateSubmission bool               `json:"allow_late_submission"`
	TargetLevels        []string           `json:"target_levels,omitempty"`
	Published           bool               `json:"published"`
	PublishedAt         *time.Time         `json:"published_at"`
	CreatedAt           time.Time          `json:"created_at"`
	UpdatedAt           time.Time          `json:"updated_at"`
}

// NewAssignmentResponse converts a model into a DTO. The correct answers are
// included only when includeAnswers is true (teacher views).
func NewAssignmentResponse(model models.Assignment, includeAnswers bool) AssignmentResponse {
	response := AssignmentResponse{
		ID:                  model.ID,
		ClassroomID:         model.ClassroomID,
		TeacherID:           model.TeacherID,
		Title:               model.Title,
		Description:         model.Description,
		Type:                model.Type,
		TotalPoints:         model.TotalPoints,
		DueDate:             model.DueDate,
		AllowLateSubmission: model.AllowLateSubmission,
		TargetLevels:        model.TargetLevelList(),
		Published:           model.Published,
		PublishedAt:         model.PublishedAt,
		CreatedAt:           model.CreatedAt,
		UpdatedAt:           model.UpdatedAt,
	}

	for _, question := range model.QuestionList() {
		item := QuestionResponse{
			ID:      question.ID,
			Text:    question.Text,
			Options: question.Options,
			Points:  question.Points,
		}
		if includeAnswers {
			item.CorrectAnswer = question.CorrectAnswer
		}
		response.Questions = append(response.Questions, item)
	}

	return response
}

// NewAssignmentResponseSlice converts a slice of models into DTOs.
func NewAssignmentResponseSlice(assignments []models.Assignment, includeAnswers bool) []AssignmentResponse {
	responses := make([]AssignmentResponse, 0, len(assignments))
	for _, assignment := range assignments {
		responses = append(responses, NewAssignmentResponse(assignment, includeAnswers))
	}

	return responses
}
