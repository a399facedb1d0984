package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/clintonochieng072-gif/ClintonStack-websites-sub002/internal/middleware"
	"github.com/clintonochieng072-gif/ClintonStack-websites-sub002/internal/model"
)

func (h *Handler) GetSite(c *fiber.Ctx) error {
	site, err := h.siteSvc.GetOrCreate(c.Context(), middleware.GetUserID(c))
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return c.JSON(site)
}

type SelectNicheRequest struct {
	Niche model.Niche `json:"niche"`
}

func (h *Handler) SelectNiche(c *fiber.Ctx) error {
	var req SelectNicheRequest
	if err := c.BodyParser(&req); err != nil {
		return handleError(c, h.logger, errInvalidBody)
	}

	site, err := h.siteSvc.SelectNiche(c.Context(), middleware.GetUserID(c), req.Niche)
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return c.JSON(site)
}

type SaveDraftRequest struct {
	Title  *string      `json:"title"`
	Blocks model.Blocks `json:"blocks"`
}

func (h *Handler) SaveDraft(c *fiber.Ctx) error {
	var req SaveDraftRequest
	if err := c.BodyParser(&req); err != nil {
		return handleError(c, h.logger, errInvalidBody)
	}

	site, err := h.siteSvc.SaveDraft(c.Context(), middleware.GetUserID(c), req.Title, req.Blocks)
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return c.JSON(site)
}

func (h *Handler) PublishSite(c *fiber.Ctx) error {
	site, err := h.siteSvc.Publish(c.Context(), middleware.GetUserID(c))
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{
		"message": "Site published",
		"slug":    site.Slug,
		"site":    site,
	})
}

// PublicSite renders the published copy of a site. No auth.
func (h *Handler) PublicSite(c *fiber.Ctx) error {
	site, err := h.siteSvc.GetPublished(c.Context(), c.Params("slug"))
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return c.JSON(site)
}
