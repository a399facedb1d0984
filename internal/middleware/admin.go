package middleware

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/clintonochieng072-gif/ClintonStack-websites-sub002/internal/auth"
	"github.com/clintonochieng072-gif/ClintonStack-websites-sub002/internal/model"
	"github.com/clintonochieng072-gif/ClintonStack-websites-sub002/internal/repository"
	"github.com/clintonochieng072-gif/ClintonStack-websites-sub002/internal/response"
)

// UserLookup loads the current state of a user.
type UserLookup interface {
	GetUser(ctx context.Context, id uuid.UUID) (*model.User, error)
}

// RequirePermission re-reads the caller's role from the database, so a role
// change takes effect before the token expires, and consults the policy.
func RequirePermission(users UserLookup, perm auth.Permission) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := GetUserID(c)
		if userID == uuid.Nil {
			return response.Error(c, fiber.StatusUnauthorized, response.CodeAuth, "unauthorized")
		}

		user, err := users.GetUser(c.Context(), userID)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return response.Error(c, fiber.StatusUnauthorized, response.CodeAuth, "unauthorized")
			}
			return response.Error(c, fiber.StatusInternalServerError, response.CodeServer, "failed to check permissions")
		}

		if !auth.Allow(user.Role, perm) {
			return response.Error(c, fiber.StatusForbidden, response.CodeForbidden, "access denied")
		}

		c.Locals(RoleKey, user.Role)

		return c.Next()
	}
}
