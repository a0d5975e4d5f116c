package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

const (
	// SubmissionStatusInProgress indicates a draft the student can still edit.
	SubmissionStatusInProgress = "in-progress"
	// SubmissionStatusSubmitted indicates the work is handed in and frozen for the student.
	SubmissionStatusSubmitted = "submitted"
	// SubmissionStatusGraded indicates the submission has been scored.
	SubmissionStatusGraded = "graded"
	// SubmissionStatusReturned indicates graded work handed back to the student.
	SubmissionStatusReturned = "returned"
)

// Answer is one answered question inside a submission.
type Answer struct {
	QuestionID   string `json:"question_id"`
	Answer       string `json:"answer"`
	IsCorrect    bool   `json:"is_correct"`
	PointsEarned int    `json:"points_earned"`
}

// Submission is a student's response to an assignment. At most one row exists
// per (assignment, student) pair, enforced by the composite unique index.
type Submission struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	AssignmentID uint           `gorm:"not null;uniqueIndex:idx_assignment_student" json:"assignment_id"`
	StudentID    uint           `gorm:"not null;uniqueIndex:idx_assignment_student" json:"student_id"`
	Content      string         `gorm:"type:text" json:"content"`
	Answers      datatypes.JSON `gorm:"type:json" json:"-"`
	Status       string         `gorm:"size:32;not null;default:in-progress" json:"status"`
	IsLate       bool           `gorm:"not null;default:false" json:"is_late"`
	Score        *float64       `json:"score"`
	Percentage   *float64       `json:"percentage"`
	Feedback     string         `gorm:"type:text" json:"feedback"`
	GradedBy     *uint          `json:"graded_by"`
	GradedAt     *time.Time     `json:"graded_at"`
	SubmittedAt  *time.Time     `json:"submitted_at"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	Assignment   Assignment     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"assignment,omitempty"`
	Student      Student        `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"student,omitempty"`
}

// SetAnswers serializes the answer list into the JSON storage column.
func (s *Submission) SetAnswers(answers []Answer) {
	data, err := json.Marshal(answers)
	if err != nil {
		s.Answers = datatypes.JSON([]byte("[]"))
		return
	}
	s.Answers = datatypes.JSON(data)
}

// AnswerList deserializes the stored answers into a Go slice.
func (s Submission) AnswerList() []Answer {
	if len(s.Answers) == 0 {
		return nil
	}

	var answers []Answer
	if err := json.Unmarshal(s.Answers, &answers); err != nil {
		return nil
	}

	return answers
}

// IsFinal reports whether the student can no longer modify the submission.
func (s Submission) IsFinal() bool {
	switch s.Status {
	case SubmissionStatusSubmitted, SubmissionStatusGraded, SubmissionStatusReturned:
		return true
	default:
		return false
	}
}

// IsGraded reports whether the submission carries a final grade.
func (s Submission) IsGraded() bool {
	return s.Status == SubmissionStatusGraded || s.Status == SubmissionStatusReturned
}
