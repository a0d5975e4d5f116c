package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/classboard/classboard-api/internal/models"
)

// ClassroomRepository defines persistence operations for classrooms and enrollments.
type ClassroomRepository interface {
	ListByTeacher(ctx context.Context, teacherID uint) ([]models.Classroom, error)
	GetByID(ctx context.Context, id uint) (models.Classroom, error)
	Create(ctx context.Context, classroom *models.Classroom) error
	Update(ctx context.Context, classroom *models.Classroom) error
	IncrementAssignmentCount(ctx context.Context, id uint) error
	Enroll(ctx context.Context, enrollment *models.Enrollment) error
	GetEnrollment(ctx context.Context, classroomID, studentID uint) (models.Enrollment, error)
}

// ErrDuplicateEnrollment indicates the student is already enrolled in the classroom.
var ErrDuplicateEnrollment = errors.New("student already enrolled")

type classroomRepository struct {
	db *gorm.DB
}

// NewClassroomRepository instantiates a GORM-backed repository.
func NewClassroomRepository(db *gorm.DB) ClassroomRepository {
	return &classroomRepository{db: db}
}

func (r *classroomRepository) ListByTeacher(ctx context.Context, teacherID uint) ([]models.Classroom, error) {
	var classrooms []models.Classroom
	if err := r.db.WithContext(ctx).
		Where("teacher_id = ?", teacherID).
		Order("created_at DESC").
		Find(&classrooms).Error; err != nil {
		return nil, err
	}

	return classrooms, nil
}

func (r *classroomRepository) GetByID(ctx context.Context, id uint) (models.Classroom, error) {
	var classroom models.Classroom
	if err := r.db.WithContext(ctx).
		Preload("Enrollments").
		Preload("Enrollments.Student").
		First(&classroom, id).Error; err != nil {
		return models.Classroom{}, err
	}

	return classroom, nil
}

func (r *classroomRepository) Create(ctx context.Context, classroom *models.Classroom) error {
	return r.db.WithContext(ctx).Create(classroom).Error
}

func (r *classroomRepository) Update(ctx context.Context, classroom *models.Classroom) error {
	return r.db.WithContext(ctx).Save(classroom).Error
}

func (r *classroomRepository) IncrementAssignmentCount(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).
		Model(&models.Classroom{}).
		Where("id = ?", id).
		UpdateColumn("assignment_count", gorm.Expr("assignment_count + 1")).Error
}

func (r *classroomRepository) Enroll(ctx context.Context, enrollment *models.Enrollment) error {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "classroom_id"}, {Name: "student_id"}},
			DoNothing: true,
		}).
		Create(enrollment)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrDuplicateEnrollment
	}
	return nil
}

func (r *classroomRepository) GetEnrollment(ctx context.Context, classroomID, studentID uint) (models.Enrollment, error) {
	var enrollment models.Enrollment
	if err := r.db.WithContext(ctx).
		Where("classroom_id = ?", classroomID).
		Where("student_id = ?", studentID).
		First(&enrollment).Error; err != nil {
		return models.Enrollment{}, err
	}

	return enrollment, nil
}
