package handlers

import (
	"github.com/arjndr/postpilot/internal/service"
	"github.com/gofiber/fiber/v2"
)

type CapturedHandler struct {
	s service.CapturedPostService
}

func NewCapturedHandler(s service.CapturedPostService) *CapturedHandler {
	return &CapturedHandler{s: s}
}

func (h *CapturedHandler) ListCaptured(c *fiber.Ctx) error {
	userID := GetUserID(c)

	posts, err := h.s.List(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to list captured posts",
		})
	}

	return c.Status(fiber.StatusOK).JSON(posts)
}
