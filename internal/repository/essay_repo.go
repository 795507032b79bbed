package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/truskill-essay-api/internal/models"
)

// EssayRepository is the durable store of essay submissions.
type EssayRepository interface {
	Create(ctx context.Context, essay *models.Essay) error
	ListByStudent(ctx context.Context, studentID uint) ([]models.Essay, error)
	GetByID(ctx context.Context, id uint) (models.Essay, error)
	ListForCollege(ctx context.Context, collegeName string) ([]models.CollegeEssayReport, error)
}

type essayRepository struct {
	db *gorm.DB
}

// NewEssayRepository instantiates the repository.
func NewEssayRepository(db *gorm.DB) EssayRepository {
	return &essayRepository{db: db}
}

// Create inserts the essay inside a transaction so concurrent submissions are serialised by the database.
func (r *essayRepository) Create(ctx context.Context, essay *models.Essay) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(essay).Error
	})
}

// ListByStudent returns the student's essays, newest submission first.
func (r *essayRepository) ListByStudent(ctx context.Context, studentID uint) ([]models.Essay, error) {
	var essays []models.Essay
	if err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("submission_time DESC").
		Order("id DESC").
		Find(&essays).Error; err != nil {
		return nil, err
	}

	return essays, nil
}

func (r *essayRepository) GetByID(ctx context.Context, id uint) (models.Essay, error) {
	var essay models.Essay
	if err := r.db.WithContext(ctx).First(&essay, id).Error; err != nil {
		return models.Essay{}, err
	}

	return essay, nil
}

// ListForCollege returns every essay written by students of the college, newest submission first.
func (r *essayRepository) ListForCollege(ctx context.Context, collegeName string) ([]models.CollegeEssayReport, error) {
	var reports []models.CollegeEssayReport
	if err := r.db.WithContext(ctx).
		Table("essays AS e").
		Select(`e.id AS essay_id, e.title AS essay_title, e.submission_time, e.overall_rating, e.feedback, e.content_markdown,
			s.id AS student_id, s.username AS student_username, s.college_name,
			sp.full_name AS student_full_name, sp.department AS student_department,
			sp.branch AS student_branch, sp.roll_number AS student_roll_number`).
		Joins("JOIN students s ON s.id = e.student_id").
		Joins("LEFT JOIN student_profiles sp ON sp.user_id = s.id").
		Where("s.college_name = ? AND s.user_type = ?", collegeName, models.UserTypeStudent).
		Order("e.submission_time DESC").
		Order("e.id DESC").
		Scan(&reports).Error; err != nil {
		return nil, err
	}

	return reports, nil
}
