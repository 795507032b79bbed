package middleware

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/truskill-essay-api/internal/utils"
)

// Locals keys populated by Authenticate.
const (
	LocalUserID   = "user_id"
	LocalUserRole = "user_role"
)

// Claims are the token fields the essay API reads. The subject carries the user id.
type Claims struct {
	Role     string `json:"role,omitempty"`
	UserType string `json:"user_type,omitempty"`
	jwt.RegisteredClaims
}

// IssueToken signs an HS256 token for the user.
func IssueToken(secret string, userID uint, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// Authenticate validates the bearer token and stores the caller's id and role in request locals.
func Authenticate(secret string) fiber.Handler {
	keyFunc := func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return []byte(secret), nil
	}

	return func(c *fiber.Ctx) error {
		tokenString, err := bearerToken(c.Get(fiber.HeaderAuthorization))
		if err != nil {
			return utils.Fail(c, fiber.StatusUnauthorized, err.Error(), nil)
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, keyFunc)
		if err != nil || !token.Valid {
			return utils.Fail(c, fiber.StatusUnauthorized, "invalid token", nil)
		}

		userID, err := strconv.ParseUint(claims.Subject, 10, 64)
		if err != nil || userID == 0 {
			return utils.Fail(c, fiber.StatusUnauthorized, "invalid token subject", nil)
		}

		role := claims.Role
		if role == "" {
			role = claims.UserType
		}

		c.Locals(LocalUserID, uint(userID))
		c.Locals(LocalUserRole, normalizeRole(role))

		return c.Next()
	}
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", errors.New("authorization header missing")
	}

	const bearer = "bearer "
	if len(header) < len(bearer) || !strings.EqualFold(header[:len(bearer)], bearer) {
		return "", errors.New("invalid authorization header")
	}

	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", errors.New("invalid token")
	}
	return token, nil
}

// UserID returns the authenticated caller's id.
func UserID(c *fiber.Ctx) (uint, bool) {
	id, ok := c.Locals(LocalUserID).(uint)
	return id, ok && id != 0
}

// UserRole returns the authenticated caller's normalised role.
func UserRole(c *fiber.Ctx) string {
	return normalizeRole(c.Locals(LocalUserRole))
}

func normalizeRole(value interface{}) string {
	switch v := value.(type) {
	case string:
		return strings.ToLower(strings.TrimSpace(v))
	case fmt.Stringer:
		return strings.ToLower(strings.TrimSpace(v.String()))
	default:
		return ""
	}
}
