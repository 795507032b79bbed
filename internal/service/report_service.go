package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/truskill-essay-api/internal/dto"
	"github.com/noah-isme/truskill-essay-api/internal/models"
	"github.com/noah-isme/truskill-essay-api/internal/repository"
)

var (
	// ErrCollegeRequired indicates no college could be resolved for the report.
	ErrCollegeRequired = errors.New("college name is required")
	// ErrReportForbidden indicates the caller may not read the requested college.
	ErrReportForbidden = errors.New("report belongs to another college")
)

// ReportService serves the college essay reports read by admins.
type ReportService interface {
	CollegeEssays(ctx context.Context, viewer EssayViewer, collegeName string) (dto.CollegeReportResponse, error)
}

type reportService struct {
	essays   repository.EssayRepository
	students repository.StudentRepository
	logger   zerolog.Logger
}

// NewReportService constructs the college report reader.
func NewReportService(essays repository.EssayRepository, students repository.StudentRepository, logger zerolog.Logger) ReportService {
	return &reportService{
		essays:   essays,
		students: students,
		logger:   logger.With().Str("component", "report_service").Logger(),
	}
}

// CollegeEssays lists a college's essays. College admins are pinned to their own college;
// super admins name the college they want.
func (s *reportService) CollegeEssays(ctx context.Context, viewer EssayViewer, collegeName string) (dto.CollegeReportResponse, error) {
	college, err := s.resolveCollege(ctx, viewer, strings.TrimSpace(collegeName))
	if err != nil {
		return dto.CollegeReportResponse{}, err
	}

	rows, err := s.essays.ListForCollege(ctx, college)
	if err != nil {
		s.logger.Error().Err(err).Str("college", college).Msg("failed to load college report")
		return dto.CollegeReportResponse{}, err
	}

	return dto.NewCollegeReportResponse(college, rows), nil
}

func (s *reportService) resolveCollege(ctx context.Context, viewer EssayViewer, requested string) (string, error) {
	switch viewer.Role {
	case models.UserTypeSuperAdmin:
		if requested == "" {
			return "", ErrCollegeRequired
		}
		return requested, nil
	case models.UserTypeCollegeAdmin:
		account, err := s.students.GetByID(ctx, viewer.UserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return "", ErrReportForbidden
			}
			return "", err
		}
		own := strings.TrimSpace(account.CollegeName)
		if own == "" {
			return "", ErrCollegeRequired
		}
		if requested != "" && requested != own {
			return "", ErrReportForbidden
		}
		return own, nil
	default:
		return "", ErrReportForbidden
	}
}
