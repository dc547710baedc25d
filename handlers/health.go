package handlers

import (
	"github.com/gofiber/fiber/v2"
)

// HandleCheckHealth reports server liveness.
func HandleCheckHealth(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":  "UP",
		"message": "Backend server is running.",
	})
}
