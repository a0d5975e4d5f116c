package dto

import (
	"time"

	"github.com/classboard/classboard-api/internal/models"
)

// MCQOptionPayload is one option of an MCQ question in a create request.
type MCQOptionPayload struct {
	Text      string `json:"text" validate:"required"`
	IsCorrect bool   `json:"is_correct"`
}

// MCQQuestionPayload is one MCQ question in a DPP create request.
type MCQQuestionPayload struct {
	Text        string             `json:"text" validate:"required,min=3"`
	Options     []MCQOptionPayload `json:"options" validate:"required,min=2,dive"`
	Marks       int                `json:"marks" validate:"omitempty,gt=0"`
	Difficulty  string             `json:"difficulty" validate:"required,oneof=easy medium hard"`
	Explanation string             `json:"explanation"`
}

// PracticeFilePayload is one attachment of a file DPP create request.
type PracticeFilePayload struct {
	Name       string `json:"name" validate:"required"`
	URL        string `json:"url" validate:"required,url"`
	Difficulty string `json:"difficulty" validate:"required,oneof=easy medium hard"`
	Points     int    `json:"points" validate:"required,gt=0"`
}

// DPPCreateRequest describes the payload for creating a daily practice problem.
// A DPP is visible to students as soon as it is created.
type DPPCreateRequest struct {
	ClassroomID uint                  `json:"classroom_id" validate:"required,gt=0"`
	Title       string                `json:"title" validate:"required,min=3"`
	Type        string                `json:"type" validate:"required,oneof=mcq file"`
	Questions   []MCQQuestionPayload  `json:"questions" validate:"omitempty,dive"`
	Files       []PracticeFilePayload `json:"files" validate:"omitempty,dive"`
	DueDate     string                `json:"due_date" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	MaxFiles    int                   `json:"max_files" validate:"omitempty,gt=0,lte=20"`
}

// MCQAnswerPayload is one option selection in an MCQ submit request.
type MCQAnswerPayload struct {
	QuestionID       string `json:"question_id" validate:"required"`
	SelectedOptionID string `json:"selected_option_id" validate:"required"`
}

// MCQSubmitRequest hands in a student's option choices for an MCQ DPP.
type MCQSubmitRequest struct {
	Answers []MCQAnswerPayload `json:"answers" validate:"required,min=1,dive"`
}

// DPPGradeRequest is a teacher's score for a file-type DPP submission.
type DPPGradeRequest struct {
	Score int `json:"score" validate:"gte=0"`
}

// MCQOptionResponse serializes an option. IsCorrect is only included in
// teacher views.
type MCQOptionResponse struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct,omitempty"`
}

// MCQQuestionResponse serializes one MCQ question.
type MCQQuestionResponse struct {
	ID          string              `json:"id"`
	Text        string              `json:"text"`
	Options     []MCQOptionResponse `json:"options"`
	Marks       int                 `json:"marks"`
	Difficulty  string              `json:"difficulty"`
	Explanation string              `json:"explanation,omitempty"`
}

// PracticeFileResponse serializes one practice attachment.
type PracticeFileResponse struct {
	Name       string `json:"name"`
	URL        string `json:"url"`
	Difficulty string `json:"difficulty"`
	Points     int    `json:"points"`
}

// DPPResponse is the serialized daily practice problem.
type DPPResponse struct {
	ID          uint                   `json:"id"`
	ClassroomID uint                   `json:"classroom_id"`
	TeacherID   uint                   `json:"teacher_id"`
	Title       string                 `json:"title"`
	Type        string                 `json:"type"`
	Questions   []MCQQuestionResponse  `json:"questions,omitempty"`
	Files       []PracticeFileResponse `json:"files,omitempty"`
	MaxScore    int                    `json:"max_score"`
	DueDate     time.Time              `json:"due_date"`
	MaxFiles    int                    `json:"max_files"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

// MCQAnswerResponse serializes one graded option selection.
type MCQAnswerResponse struct {
	QuestionID       string `json:"question_id"`
	SelectedOptionID string `json:"selected_option_id"`
	IsCorrect        bool   `json:"is_correct"`
	MarksEarned      int    `json:"marks_earned"`
}

// SubmittedFileResponse serializes one uploaded file record.
type SubmittedFileResponse struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Size int64  `json:"size"`
}

// DPPSubmissionResponse is returned when viewing a DPP submission.
type DPPSubmissionResponse struct {
	ID          uint                    `json:"id"`
	DPPID       uint                    `json:"dpp_id"`
	StudentID   uint                    `json:"student_id"`
	Answers     []MCQAnswerResponse     `json:"answers,omitempty"`
	Files       []SubmittedFileResponse `json:"files,omitempty"`
	Score       int                     `json:"score"`
	MaxScore    int                     `json:"max_score"`
	IsLate      bool                    `json:"is_late"`
	SubmittedAt time.Time               `json:"submitted_at"`
	GradedAt    *time.Time              `json:"graded_at"`
	Student     StudentLite             `json:"student"`
}

// NewDPPResponse converts a model into a DTO. Option correctness flags are
// included only when includeAnswers is true.
func NewDPPResponse(model models.DailyPracticeProblem, includeAnswers bool) DPPResponse {
	response := DPPResponse{
		ID:          model.ID,
		ClassroomID: model.ClassroomID,
		TeacherID:   model.TeacherID,
		Title:       model.Title,
		Type:        model.Type,
		MaxScore:    model.MaxScore,
		DueDate:     model.DueDate,
		MaxFiles:    model.MaxFiles,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}

	for _, question := range model.QuestionList() {
		item := MCQQuestionResponse{
			ID:         question.ID,
			Text:       question.Text,
			Marks:      question.Marks,
			Difficulty: question.Difficulty,
		}
		if includeAnswers {
			item.Explanation = question.Explanation
		}
		for _, option := range question.Options {
			optionResponse := MCQOptionResponse{ID: option.ID, Text: option.Text}
			if includeAnswers {
				optionResponse.IsCorrect = option.IsCorrect
			}
			item.Options = append(item.Options, optionResponse)
		}
		response.Questions = append(response.Questions, item)
	}

	for _, file := range model.FileList() {
		response.Files = append(response.Files, PracticeFileResponse{
			Name:       file.Name,
			URL:        file.URL,
			Difficulty: file.Difficulty,
			Points:     file.Points,
		})
	}

	return response
}

// NewDPPResponseSlice converts DPP models into DTOs.
func NewDPPResponseSlice(dpps []models.DailyPracticeProblem, includeAnswers bool) []DPPResponse {
	responses := make([]DPPResponse, 0, len(dpps))
	for _, dpp := range dpps {
		responses = append(responses, NewDPPResponse(dpp, includeAnswers))
	}

	return responses
}

// NewDPPSubmissionResponse converts a DPP submission model into a DTO.
func NewDPPSubmissionResponse(model models.DPPSubmission) DPPSubmissionResponse {
	response := DPPSubmissionResponse{
		ID:          model.ID,
		DPPID:       model.DPPID,
		StudentID:   model.StudentID,
		Score:       model.Score,
		MaxScore:    model.MaxScore,
		IsLate:      model.IsLate,
		SubmittedAt: model.SubmittedAt,
		GradedAt:    model.GradedAt,
	}

	for _, answer := range model.AnswerList() {
		response.Answers = append(response.Answers, MCQAnswerResponse{
			QuestionID:       answer.QuestionID,
			SelectedOptionID: answer.SelectedOptionID,
			IsCorrect:        answer.IsCorrect,
			MarksEarned:      answer.MarksEarned,
		})
	}

	for _, file := range model.FileSubmissionList() {
		response.Files = append(response.Files, SubmittedFileResponse{
			Name: file.Name,
			URL:  file.URL,
			Size: file.Size,
		})
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

// NewDPPSubmissionResponseSlice converts DPP submission models into DTOs.
func NewDPPSubmissionResponseSlice(submissions []models.DPPSubmission) []DPPSubmissionResponse {
	responses := make([]DPPSubmissionResponse, 0, len(submissions))
	for _, submission := range submissions {
		responses = append(responses, NewDPPSubmissionResponse(submission))
	}

	return responses
}
