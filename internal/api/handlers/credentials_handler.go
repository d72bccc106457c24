package handlers

import (
	"log/slog"

	"github.com/arjndr/postpilot/internal/service"
	"github.com/arjndr/postpilot/internal/transfer"
	"github.com/gofiber/fiber/v2"
)

type CredentialsHandler struct {
	s service.CredentialsService
}

func NewCredentialsHandler(s service.CredentialsService) *CredentialsHandler {
	return &CredentialsHandler{s: s}
}

func (h *CredentialsHandler) SaveCredentials(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var cu transfer.CredentialsUpdate
	if err := c.BodyParser(&cu); err != nil {
		slog.Info(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	if err := h.s.Save(c.Context(), userID, &cu); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Twitter account connected",
	})
}

func (h *CredentialsHandler) CredentialsStatus(c *fiber.Ctx) error {
	userID := GetUserID(c)

	status, err := h.s.Status(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to fetch credentials status",
		})
	}

	return c.Status(fiber.StatusOK).JSON(status)
}

func (h *CredentialsHandler) RemoveCredentials(c *fiber.Ctx) error {
	userID := GetUserID(c)

	if err := h.s.Remove(c.Context(), userID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to remove credentials",
		})
	}

	return c.SendStatus(fiber.StatusOK)
}
