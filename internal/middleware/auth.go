package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/clintonochieng072-gif/ClintonStack-websites-sub002/internal/auth"
	"github.com/clintonochieng072-gif/ClintonStack-websites-sub002/internal/model"
	"github.com/clintonochieng072-gif/ClintonStack-websites-sub002/internal/response"
)

const (
	UserIDKey = "user_id"
	RoleKey   = "role"
)

// RequireAuth validates the bearer JWT and stores the caller's id and role.
func RequireAuth(tokens *auth.TokenIssuer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			return response.Error(c, fiber.StatusUnauthorized, response.CodeAuth, "missing bearer token")
		}

		claims, err := tokens.Parse(strings.TrimSpace(token))
		if err != nil {
			return response.Error(c, fiber.StatusUnauthorized, response.CodeAuth, "invalid or expired token")
		}

		c.Locals(UserIDKey, claims.ID())
		c.Locals(RoleKey, claims.Role)

		return c.Next()
	}
}

func GetUserID(c *fiber.Ctx) uuid.UUID {
	userID, ok := c.Locals(UserIDKey).(uuid.UUID)
	if !ok {
		return uuid.Nil
	}
	return userID
}

func GetRole(c *fiber.Ctx) model.Role {
	role, ok := c.Locals(RoleKey).(model.Role)
	if !ok {
		return ""
	}
	return role
}
