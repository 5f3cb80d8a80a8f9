package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/wheelchair-racer/wr_api/shared"
)

// UserID returns the authenticated user set by the auth middleware.
func UserID(c *fiber.Ctx) string {
	userID, _ := c.Locals(shared.UserID).(string)
	return userID
}

func UserRole(c *fiber.Ctx) string {
	role, _ := c.Locals(shared.UserRole).(string)
	return role
}

func IsAdmin(c *fiber.Ctx) bool {
	return UserRole(c) == shared.RoleAdmin
}

// RequireRole must run after the authentication middleware.
func RequireRole(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if UserID(c) == "" {
			return shared.NewUnauthorizedError(nil, "Unauthorized")
		}
		if UserRole(c) != role {
			return shared.NewForbiddenError(nil, "Insufficient permissions")
		}
		return c.Next()
	}
}
