package dto

import (
	"time"

	"github.com/classboard/classboard-api/internal/models"
)

// AnswerPayload is one answered question in a submit request.
type AnswerPayload struct {
	QuestionID string `json:"question_id" validate:"required"`
	Answer     string `json:"answer" validate:"required"`
}

// SubmitRequest hands in a student's work for an assignment.
type SubmitRequest struct {
	Content string          `json:"content"`
	Answers []AnswerPayload `json:"answers" validate:"omitempty,dive"`
}

// DraftRequest saves work in progress without handing it in.
type DraftRequest struct {
	Content string          `json:"content"`
	Answers []AnswerPayload `json:"answers" validate:"omitempty,dive"`
}

// GradeRequest is a teacher's manual grade for a submission.
type GradeRequest struct {
	Score    float64 `json:"score" validate:"gte=0"`
	Feedback string  `json:"feedback" validate:"omitempty,min=3"`
}

// SubmissionFilter describes query string filters for listing submissions.
type SubmissionFilter struct {
	AssignmentID *uint   `query:"assignment_id"`
	StudentID    *uint   `query:"student_id"`
	Status       *string `query:"status" validate:"omitempty,oneof=in-progress submitted graded returned"`
}

// AnswerResponse serializes one graded answer.
type AnswerResponse struct {
	QuestionID   string `json:"question_id"`
	Answer       string `json:"answer"`
	IsCorrect    bool   `json:"is_correct"`
	PointsEarned int    `json:"points_earned"`
}

// AssignmentLite summarizes an assignment in submission responses.
type AssignmentLite struct {
	ID          uint      `json:"id"`
	Title       string    `json:"title"`
	Type        string    `json:"type"`
	TotalPoints int       `json:"total_points"`
	DueDate     time.Time `json:"due_date"`
}

// StudentLite summarizes a student without exposing full profile data.
type StudentLite struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// SubmissionResponse is returned to API clients when viewing submissions.
type SubmissionResponse struct {
	ID           uint             `json:"id"`
	AssignmentID uint             `json:"assignment_id"`
	StudentID    uint             `json:"student_id"`
	Content      string           `json:"content,omitempty"`
	Answers      []AnswerResponse `json:"answers,omitempty"`
	Status       string           `json:"status"`
	IsLate       bool             `json:"is_late"`
	Score        *float64         `json:"score"`
	Percentage   *float64         `json:"percentage"`
	Feedback     string           `json:"feedback"`
	GradedBy     *uint            `json:"graded_by"`
	GradedAt     *time.Time       `json:"graded_at"`
	SubmittedAt  *time.Time       `json:"submitted_at"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
	Assignment   AssignmentLite   `json:"assignment"`
	Student      StudentLite      `json:"student"`
}

// NewSubmissionResponse converts a Submission model into a DTO.
func NewSubmissionResponse(model models.Submission) SubmissionResponse {
	response := SubmissionResponse{
		ID:           model.ID,
		AssignmentID: model.AssignmentID,
		StudentID:    model.StudentID,
		Content:      model.Content,
		Status:       model.Status,
		IsLate:       model.IsLate,
		Score:        model.Score,
		Percentage:   model.Percentage,
		Feedback:     model.Feedback,
		GradedBy:     model.GradedBy,
		GradedAt:     model.GradedAt,
		SubmittedAt:  model.SubmittedAt,
		CreatedAt:    model.CreatedAt,
		UpdatedAt:    model.UpdatedAt,
	}

	for _, answer := range model.AnswerList() {
		response.Answers = append(response.Answers, AnswerResponse{
			QuestionID:   answer.QuestionID,
			Answer:       answer.Answer,
			IsCorrect:    answer.IsCorrect,
			PointsEarned: answer.PointsEarned,
		})
	}

	if model.Assignment.ID != 0 {
		response.Assignment = AssignmentLite{
			ID:          model.Assignment.ID,
			Title:       model.Assignment.Title,
			Type:        model.Assignment.Type,
			TotalPoints: model.Assignment.TotalPoints,
			DueDate:     model.Assignment.DueDate,
		}
	}

	if model.Student.ID != 0 {
		response.Student = StudentLite{
			ID:    model.Student.ID,
			Name:  model.Student.Name,
			Email: model.Student.Email,
		}
	}

	return response
}

// NewSubmissionResponseSlice converts submission models into DTOs.
func NewSubmissionResponseSlice(submissions []models.Submission) []SubmissionResponse {
	responses := make([]SubmissionResponse, 0, len(submissions))
	for _, submission := range submissions {
		responses = append(responses, NewSubmissionResponse(submission))
	}

	return responses
}
