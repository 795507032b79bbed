package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/truskill-essay-api/internal/models"
	"github.com/noah-isme/truskill-essay-api/internal/utils"
)

// Route guards understood by WithAuth.
const (
	AuthRoleAny     = "any"
	AuthRoleStudent = "student"
	AuthRoleAdmin   = "admin"
)

// WithAuth wraps a handler so it only runs for an authenticated caller holding the role.
// AuthRoleAdmin admits college and super admins.
func WithAuth(handler fiber.Handler, role string) fiber.Handler {
	if role == "" {
		role = AuthRoleAny
	}

	return func(c *fiber.Ctx) error {
		if _, ok := UserID(c); !ok {
			return utils.Fail(c, fiber.StatusUnauthorized, "authentication required", nil)
		}

		if !roleAllows(role, UserRole(c)) {
			return utils.Fail(c, fiber.StatusForbidden, "insufficient permissions", nil)
		}

		return handler(c)
	}
}

func roleAllows(required, current string) bool {
	switch required {
	case AuthRoleAny:
		return true
	case AuthRoleStudent:
		return current == models.UserTypeStudent
	case AuthRoleAdmin:
		return current == models.UserTypeCollegeAdmin || current == models.UserTypeSuperAdmin
	default:
		return current == required
	}
}
