package middleware

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"storefront/internal/models"
	"storefront/internal/services"
)

// SessionCookieName is the HTTP-only cookie carrying the session token.
const SessionCookieName = "storefront_session"

// SessionRequired is a Fiber middleware that validates the session cookie and
// stores the caller's identity in Locals for downstream handlers.
func SessionRequired(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := c.Cookies(SessionCookieName)
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Not authenticated",
			})
		}

		claims, err := authService.ValidateToken(tokenString)
		if err != nil {
			log.Printf("Session token validation failed: %v", err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Invalid or expired session",
			})
		}

		c.Locals("user_id", claims["user_id"])
		c.Locals("role", claims["role"])

		return c.Next()
	}
}

// AdminOnly rejects callers whose session role is not ADMIN. It must run
// after SessionRequired.
func AdminOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, _ := c.Locals("role").(string)
		if role != string(models.RoleAdmin) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"message": "Admin access required",
			})
		}
		return c.Next()
	}
}

// UserID extracts the authenticated user's ID from the request context.
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals("user_id").(string)
	return id
}
