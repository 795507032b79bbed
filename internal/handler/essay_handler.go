package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/truskill-essay-api/internal/dto"
	"github.com/noah-isme/truskill-essay-api/internal/middleware"
	"github.com/noah-isme/truskill-essay-api/internal/service"
	"github.com/noah-isme/truskill-essay-api/internal/utils"
)

// EssayHandler serves essay submission and history endpoints.
type EssayHandler struct {
	service service.EssayService
	logger  zerolog.Logger
}

// NewEssayHandler builds an essay handler instance.
func NewEssayHandler(service service.EssayService, logger zerolog.Logger) *EssayHandler {
	return &EssayHandler{
		service: service,
		logger:  logger.With().Str("component", "essay_handler").Logger(),
	}
}

// Register attaches the routes. submitGuard runs before submission, typically the rate limiter.
func (h *EssayHandler) Register(router fiber.Router, submitGuard fiber.Handler) {
	submit := middleware.WithAuth(h.submit, middleware.AuthRoleStudent)
	if submitGuard != nil {
		router.Post("", middleware.WithAuth(submitGuard, middleware.AuthRoleStudent), submit)
	} else {
		router.Post("", submit)
	}
	router.Get("", middleware.WithAuth(h.list, middleware.AuthRoleAny))
	router.Get("/:id", middleware.WithAuth(h.get, middleware.AuthRoleAny))
}

func (h *EssayHandler) submit(c *fiber.Ctx) error {
	studentID, _ := middleware.UserID(c)

	var payload dto.EssaySubmitRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "invalid request body", nil)
	}

	outcome, err := h.service.Submit(c.UserContext(), studentID, payload)
	if err != nil {
		if errors.Is(err, service.ErrRejectedEmpty) {
			return utils.Fail(c, fiber.StatusUnprocessableEntity, outcome.Message, outcome)
		}
		return h.handleError(c, err)
	}

	return utils.Respond(c, fiber.StatusCreated, outcome, outcome.Message, nil)
}

func (h *EssayHandler) list(c *fiber.Ctx) error {
	studentID, _ := middleware.UserID(c)

	essays, err := h.service.ListForStudent(c.UserContext(), studentID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.OK(c, essays, "essays retrieved", fiber.Map{"count": len(essays)})
}

func (h *EssayHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	userID, _ := middleware.UserID(c)
	viewer := service.EssayViewer{UserID: userID, Role: middleware.UserRole(c)}

	essay, err := h.service.Get(c.UserContext(), id, viewer)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.OK(c, essay, "essay retrieved", nil)
}

func (h *EssayHandler) handleError(c *fiber.Ctx, err error) error {
	if details, ok := validationDetails(err); ok {
		return utils.Fail(c, fiber.StatusBadRequest, "invalid essay payload", details)
	}

	switch {
	case errors.Is(err, service.ErrEssayNotFound):
		return utils.Fail(c, fiber.StatusNotFound, "essay not found", nil)
	case errors.Is(err, service.ErrEssayForbidden):
		return utils.Fail(c, fiber.StatusForbidden, "insufficient permissions", nil)
	case errors.Is(err, service.ErrEssayPersistence):
		logger := middleware.RequestLogger(c, h.logger)
		logger.Error().Err(err).Msg("essay could not be saved")
		return utils.Fail(c, fiber.StatusInternalServerError, "Error saving essay. Please try again.", nil)
	default:
		logger := middleware.RequestLogger(c, h.logger)
		logger.Error().Err(err).Msg("internal server error")
		return utils.Fail(c, fiber.StatusInternalServerError, "internal server error", nil)
	}
}
