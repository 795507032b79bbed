package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/truskill-essay-api/internal/dto"
	"github.com/noah-isme/truskill-essay-api/internal/repository"
)

// ErrStudentNotFound indicates the account or its profile does not exist.
var ErrStudentNotFound = errors.New("student not found")

// StudentProfileService exposes the read-only profile view.
type StudentProfileService interface {
	GetProfile(ctx context.Context, userID uint) (dto.StudentProfileResponse, error)
}

type studentProfileService struct {
	students repository.StudentRepository
	logger   zerolog.Logger
}

// NewStudentProfileService constructs the profile reader.
func NewStudentProfileService(students repository.StudentRepository, logger zerolog.Logger) StudentProfileService {
	return &studentProfileService{
		students: students,
		logger:   logger.With().Str("component", "student_profile_service").Logger(),
	}
}

func (s *studentProfileService) GetProfile(ctx context.Context, userID uint) (dto.StudentProfileResponse, error) {
	student, err := s.students.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.StudentProfileResponse{}, ErrStudentNotFound
		}
		s.logger.Error().Err(err).Uint("user_id", userID).Msg("failed to load student profile")
		return dto.StudentProfileResponse{}, err
	}

	return dto.NewStudentProfileResponse(student), nil
}
