package middleware

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"
)

// AdminKeyHeader carries the admin API key.
const AdminKeyHeader = "X-Admin-Key"

// AdminKeyMiddleware admits requests whose X-Admin-Key matches key. With no
// key configured the admin surface is disabled.
func AdminKeyMiddleware(key string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if key == "" {
			return fiber.NewError(fiber.StatusForbidden, "Admin access is disabled.")
		}

		provided := c.Get(AdminKeyHeader)
		if provided == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(key)) != 1 {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid admin key.")
		}
		return c.Next()
	}
}
