package middleware

import (
	"errors"

	"dvente/util"

	"github.com/gofiber/fiber/v2"
)

// RequireAuth checks the bearer access token and stores the user id in
// c.Locals("user_id").
func RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := util.ExtractUserIDFromToken(c.Get(fiber.HeaderAuthorization))
		if err != nil {
			msg := "invalid or expired token"
			if errors.Is(err, util.ErrMissingBearer) {
				msg = "missing authorization header"
			}
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": msg})
		}

		c.Locals("user_id", userID)
		return c.Next()
	}
}
