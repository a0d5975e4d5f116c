package models

import "time"

// Classroom groups enrolled students under one teacher.
type Classroom struct {
	ID              uint         `gorm:"primaryKey" json:"id"`
	Name            string       `gorm:"size:255;not null" json:"name"`
	Subject         string       `gorm:"size:255" json:"subject"`
	TeacherID       uint         `gorm:"not null;index" json:"teacher_id"`
	AssignmentCount int          `gorm:"not null;default:0" json:"assignment_count"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
	Enrollments     []Enrollment `gorm:"foreignKey:ClassroomID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"enrollments,omitempty"`
}

// Enrollment links a student to a classroom at a given level.
type Enrollment struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ClassroomID uint      `gorm:"not null;uniqueIndex:idx_classroom_student" json:"classroom_id"`
	StudentID   uint      `gorm:"not null;uniqueIndex:idx_classroom_student" json:"student_id"`
	Level       string    `gorm:"size:32;not null;default:beginner" json:"level"`
	CreatedAt   time.Time `json:"created_at"`
	Student     Student   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"student,omitempty"`
}

// IsOwnedBy reports whether the classroom belongs to the given teacher.
func (c Classroom) IsOwnedBy(teacherID uint) bool {
	return c.TeacherID == teacherID
}
