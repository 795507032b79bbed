package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/truskill-essay-api/internal/middleware"
	"github.com/noah-isme/truskill-essay-api/internal/service"
	"github.com/noah-isme/truskill-essay-api/internal/utils"
)

// ReportHandler exposes college essay reports to admins.
type ReportHandler struct {
	service service.ReportService
	logger  zerolog.Logger
}

// NewReportHandler builds a report handler instance.
func NewReportHandler(service service.ReportService, logger zerolog.Logger) *ReportHandler {
	return &ReportHandler{
		service: service,
		logger:  logger.With().Str("component", "report_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *ReportHandler) Register(router fiber.Router) {
	router.Get("/essays", middleware.WithAuth(h.collegeEssays, middleware.AuthRoleAdmin))
}

func (h *ReportHandler) collegeEssays(c *fiber.Ctx) error {
	userID, _ := middleware.UserID(c)
	viewer := service.EssayViewer{UserID: userID, Role: middleware.UserRole(c)}

	report, err := h.service.CollegeEssays(c.UserContext(), viewer, c.Query("college"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCollegeRequired):
			return utils.Fail(c, fiber.StatusBadRequest, "college is required", nil)
		case errors.Is(err, service.ErrReportForbidden):
			return utils.Fail(c, fiber.StatusForbidden, "insufficient permissions", nil)
		default:
			logger := middleware.RequestLogger(c, h.logger)
			logger.Error().Err(err).Msg("failed to load college report")
			return utils.Fail(c, fiber.StatusInternalServerError, "internal server error", nil)
		}
	}

	return utils.OK(c, report, "college report retrieved", fiber.Map{"count": len(report.Essays)})
}
