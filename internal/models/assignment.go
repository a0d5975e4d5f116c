package models

import (
	"encoding/json"
	"strings"
	"time"

	"gorm.io/datatypes"
)

const (
	// AssignmentTypeAssignment is a free-form assignment graded manually.
	AssignmentTypeAssignment = "assignment"
	// AssignmentTypeQuiz is an auto-gradable multiple choice quiz.
	AssignmentTypeQuiz = "quiz"
	// AssignmentTypeTest is an auto-gradable test.
	AssignmentTypeTest = "test"
)

// Question is a single question embedded in an assignment.
type Question struct {
	ID            string   `json:"id"`
	Text          string   `json:"text"`
	Options       []string `json:"options,omitempty"`
	CorrectAnswer string   `json:"correct_answer"`
	Points        int      `json:"points"`
}

// Assignment represents classwork published by a teacher to a classroom.
type Assignment struct {
	ID                  uint           `gorm:"primaryKey" json:"id"`
	ClassroomID         uint           `gorm:"not null;index" json:"classroom_id"`
	TeacherID           uint           `gorm:"not null;index" json:"teacher_id"`
	Title               string         `gorm:"size:255;not null" json:"title"`
	Description         string         `gorm:"type:text" json:"description"`
	Type                string         `gorm:"size:32;not null;default:assignment" json:"type"`
	Questions           datatypes.JSON `gorm:"type:json" json:"-"`
	TotalPoints         int            `gorm:"not null;default:0" json:"total_points"`
	DueDate             time.Time      `gorm:"not null" json:"due_date"`
	AllowLateSubmission bool           `gorm:"not null;default:false" json:"allow_late_submission"`
	TargetLevels        string         `gorm:"type:text" json:"target_levels"`
	Published           bool           `gorm:"not null;default:false" json:"published"`
	PublishedAt         *time.Time     `json:"published_at"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
	Submissions         []Submission   `gorm:"foreignKey:AssignmentID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// SetQuestions serializes the question list into the JSON storage column.
func (a *Assignment) SetQuestions(questions []Question) {
	data, err := json.Marshal(questions)
	if err != nil {
		a.Questions = datatypes.JSON([]byte("[]"))
		return
	}
	a.Questions = datatypes.JSON(data)
}

// QuestionList deserializes the stored questions into a Go slice.
func (a Assignment) QuestionList() []Question {
	if len(a.Questions) == 0 {
		return nil
	}

	var questions []Question
	if err := json.Unmarshal(a.Questions, &questions); err != nil {
		return nil
	}

	return questions
}

// IsPastDue returns true when the assignment deadline has already passed.
func (a Assignment) IsPastDue(reference time.Time) bool {
	return reference.After(a.DueDate)
}

// IsAutoGradable reports whether submissions can be scored by exact matching.
func (a Assignment) IsAutoGradable() bool {
	return a.Type != AssignmentTypeAssignment
}

// TargetLevelList returns the target levels as a slice of strings.
func (a Assignment) TargetLevelList() []string {
	if a.TargetLevels == "" {
		return nil
	}

	parts := strings.Split(a.TargetLevels, ",")
	levels := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			levels = append(levels, trimmed)
		}
	}
	return levels
}

// TargetsLevel reports whether the assignment is visible to students at the
// given level. An assignment with no target levels is visible to everyone.
func (a Assignment) TargetsLevel(level string) bool {
	targets := a.TargetLevelList()
	if len(targets) == 0 {
		return true
	}
	for _, target := range targets {
		if target == level {
			return true
		}
	}
	return false
}

// IsValidAssignmentType reports whether the supplied type is recognized.
func IsValidAssignmentType(kind string) bool {
	switch kind {
	case AssignmentTypeAssignment, AssignmentTypeQuiz, AssignmentTypeTest:
		return true
	default:
		return false
	}
}
