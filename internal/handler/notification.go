package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/clintonochieng072-gif/ClintonStack-websites-sub002/internal/middleware"
	"github.com/clintonochieng072-gif/ClintonStack-websites-sub002/internal/model"
)

func (h *Handler) GetNotifications(c *fiber.Ctx) error {
	notifications, err := h.notifySvc.List(c.Context(), middleware.GetUserID(c))
	if err != nil {
		return handleError(c, h.logger, err)
	}
	if notifications == nil {
		notifications = []model.Notification{}
	}
	return c.JSON(fiber.Map{
		"notifications": notifications,
	})
}

func (h *Handler) MarkNotificationRead(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return handleError(c, h.logger, errInvalidID)
	}

	if err := h.notifySvc.MarkRead(c.Context(), middleware.GetUserID(c), id); err != nil {
		return handleError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{"success": true})
}
