package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/truskill-essay-api/internal/middleware"
	"github.com/noah-isme/truskill-essay-api/internal/service"
	"github.com/noah-isme/truskill-essay-api/internal/utils"
)

// ProfileHandler exposes the caller's read-only student profile.
type ProfileHandler struct {
	service service.StudentProfileService
	logger  zerolog.Logger
}

// NewProfileHandler builds a profile handler instance.
func NewProfileHandler(service service.StudentProfileService, logger zerolog.Logger) *ProfileHandler {
	return &ProfileHandler{
		service: service,
		logger:  logger.With().Str("component", "profile_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *ProfileHandler) Register(router fiber.Router) {
	router.Get("/profile", middleware.WithAuth(h.get, middleware.AuthRoleStudent))
}

func (h *ProfileHandler) get(c *fiber.Ctx) error {
	userID, _ := middleware.UserID(c)

	profile, err := h.service.GetProfile(c.UserContext(), userID)
	if err != nil {
		if errors.Is(err, service.ErrStudentNotFound) {
			return utils.Fail(c, fiber.StatusNotFound, "student not found", nil)
		}
		logger := middleware.RequestLogger(c, h.logger)
		logger.Error().Err(err).Msg("failed to load profile")
		return utils.Fail(c, fiber.StatusInternalServerError, "internal server error", nil)
	}

	return utils.OK(c, profile, "profile retrieved", nil)
}
