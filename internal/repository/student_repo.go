package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/truskill-essay-api/internal/models"
)

// StudentRepository provides read access to student accounts and profiles.
type StudentRepository interface {
	GetByID(ctx context.Context, id uint) (models.Student, error)
	GetProfile(ctx context.Context, userID uint) (models.StudentProfile, error)
}

type studentRepository struct {
	db *gorm.DB
}

// NewStudentRepository constructs a student repository.
func NewStudentRepository(db *gorm.DB) StudentRepository {
	return &studentRepository{db: db}
}

func (r *studentRepository) GetByID(ctx context.Context, id uint) (models.Student, error) {
	var student models.Student
	if err := r.db.WithContext(ctx).Preload("Profile").First(&student, id).Error; err != nil {
		return models.Student{}, err
	}

	return student, nil
}

func (r *studentRepository) GetProfile(ctx context.Context, userID uint) (models.StudentProfile, error) {
	var profile models.StudentProfile
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return models.StudentProfile{}, err
	}

	return profile, nil
}
