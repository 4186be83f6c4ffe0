package controller

import (
	"github.com/appditto/capture-server/models"
	"github.com/gofiber/fiber/v2"
)

var ServerError = models.MessageResponse{
	Message: "Server error",
}

func ErrInternalServerError(c *fiber.Ctx) error {
	return c.Status(fiber.StatusInternalServerError).JSON(&ServerError)
}

func ErrBadRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(&models.MessageResponse{
		Message: message,
	})
}

func ErrNotFound(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusNotFound).JSON(&models.MessageResponse{
		Message: message,
	})
}
