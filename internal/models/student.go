package models

import "time"

const (
	// LevelBeginner marks students in the introductory tier.
	LevelBeginner = "beginner"
	// LevelIntermediate marks students in the middle tier.
	LevelIntermediate = "intermediate"
	// LevelAdvanced marks students in the top tier.
	LevelAdvanced = "advanced"
)

// Student represents a learner enrolled in classrooms.
type Student struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Email     string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Level     string    `gorm:"size:32;not null;default:beginner" json:"level"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsValidLevel reports whether the supplied level is one of the known tiers.
func IsValidLevel(level string) bool {
	switch level {
	case LevelBeginner, LevelIntermediate, LevelAdvanced:
		return true
	default:
		return false
	}
}
