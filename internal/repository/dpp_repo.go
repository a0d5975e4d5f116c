package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/classboard/classboard-api/internal/models"
)

// DPPFilter narrows daily practice problem listings.
type DPPFilter struct {
	ClassroomID *uint
	TeacherID   *uint
	Type        *string
}

// DPPRepository defines persistence operations for daily practice problems.
type DPPRepository interface {
	List(ctx context.Context, filter DPPFilter) ([]models.DailyPracticeProblem, error)
	GetByID(ctx context.Context, id uint) (models.DailyPracticeProblem, error)
	Create(ctx context.Context, dpp *models.DailyPracticeProblem) error
	Update(ctx context.Context, dpp *models.DailyPracticeProblem) error
	Delete(ctx context.Context, id uint) error
	ListSubmissions(ctx context.Context, dppID uint) ([]models.DPPSubmission, error)
	GetSubmission(ctx context.Context, dppID, studentID uint) (models.DPPSubmission, error)
	GetSubmissionByID(ctx context.Context, id uint) (models.DPPSubmission, error)
	// CreateSubmissionIfAbsent inserts the submission only when the student
	// has not already submitted for this DPP; ErrSubmissionConflict otherwise.
	CreateSubmissionIfAbsent(ctx context.Context, submission *models.DPPSubmission) error
	UpdateSubmission(ctx context.Context, submission *models.DPPSubmission) error
	DeleteSubmission(ctx context.Context, id uint) error
}

type dppRepository struct {
	db *gorm.DB
}

// NewDPPRepository instantiates a GORM-backed repository.
func NewDPPRepository(db *gorm.DB) DPPRepository {
	return &dppRepository{db: db}
}

func (r *dppRepository) List(ctx context.Context, filter DPPFilter) ([]models.DailyPracticeProblem, error) {
	query := r.db.WithContext(ctx).Model(&models.DailyPracticeProblem{})

	if filter.ClassroomID != nil {
		query = query.Where("classroom_id = ?", *filter.ClassroomID)
	}

	if filter.TeacherID != nil {
		query = query.Where("teacher_id = ?", *filter.TeacherID)
	}

	if filter.Type != nil {
		query = query.Where("type = ?", *filter.Type)
	}

	var dpps []models.DailyPracticeProblem
	if err := query.Order("due_date ASC").Find(&dpps).Error; err != nil {
		return nil, err
	}

	return dpps, nil
}

func (r *dppRepository) GetByID(ctx context.Context, id uint) (models.DailyPracticeProblem, error) {
	var dpp models.DailyPracticeProblem
	if err := r.db.WithContext(ctx).First(&dpp, id).Error; err != nil {
		return models.DailyPracticeProblem{}, err
	}

	return dpp, nil
}

func (r *dppRepository) Create(ctx context.Context, dpp *models.DailyPracticeProblem) error {
	return r.db.WithContext(ctx).Create(dpp).Error
}

func (r *dppRepository) Update(ctx context.Context, dpp *models.DailyPracticeProblem) error {
	return r.db.WithContext(ctx).Save(dpp).Error
}

func (r *dppRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("dpp_id = ?", id).Delete(&models.DPPSubmission{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&models.DailyPracticeProblem{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *dppRepository) ListSubmissions(ctx context.Context, dppID uint) ([]models.DPPSubmission, error) {
	var submissions []models.DPPSubmission
	if err := r.db.WithContext(ctx).
		Preload("Student").
		Where("dpp_id = ?", dppID).
		Order("submitted_at ASC").
		Find(&submissions).Error; err != nil {
		return nil, err
	}

	return submissions, nil
}

func (r *dppRepository) GetSubmission(ctx context.Context, dppID, studentID uint) (models.DPPSubmission, error) {
	var submission models.DPPSubmission
	if err := r.db.WithContext(ctx).
		Where("dpp_id = ?", dppID).
		Where("student_id = ?", studentID).
		First(&submission).Error; err != nil {
		return models.DPPSubmission{}, err
	}

	return submission, nil
}

func (r *dppRepository) GetSubmissionByID(ctx context.Context, id uint) (models.DPPSubmission, error) {
	var submission models.DPPSubmission
	if err := r.db.WithContext(ctx).Preload("Student").First(&submission, id).Error; err != nil {
		return models.DPPSubmission{}, err
	}

	return submission, nil
}

func (r *dppRepository) CreateSubmissionIfAbsent(ctx context.Context, submission *models.DPPSubmission) error {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "dpp_id"}, {Name: "student_id"}},
			DoNothing: true,
		}).
		Create(submission)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrSubmissionConflict
	}
	return nil
}

func (r *dppRepository) UpdateSubmission(ctx context.Context, submission *models.DPPSubmission) error {
	return r.db.WithContext(ctx).Save(submission).Error
}

func (r *dppRepository) DeleteSubmission(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.DPPSubmission{}, id).Error
}
