package controller

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func errorJSON(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"error": msg})
}

// currentUserID reads the id put in Locals by the bearer middleware.
func currentUserID(c *fiber.Ctx) (uuid.UUID, bool) {
	id, ok := c.Locals("user_id").(uuid.UUID)
	return id, ok && id != uuid.Nil
}
