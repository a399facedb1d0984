package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/clintonochieng072-gif/ClintonStack-websites-sub002/internal/middleware"
	"github.com/clintonochieng072-gif/ClintonStack-websites-sub002/internal/model"
	"github.com/clintonochieng072-gif/ClintonStack-websites-sub002/internal/service"
)

type RegisterRequest struct {
	Email        string `json:"email"`
	Name         string `json:"name"`
	Password     string `json:"password"`
	ReferralCode string `json:"referralCode"`
}

func (h *Handler) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return handleError(c, h.logger, errInvalidBody)
	}
	if req.ReferralCode == "" {
		req.ReferralCode = c.Query("ref")
	}

	res, err := h.userSvc.Register(c.Context(), service.RegisterInput{
		Email:        req.Email,
		Name:         req.Name,
		Password:     req.Password,
		ReferralCode: req.ReferralCode,
	})
	if err != nil {
		return handleError(c, h.logger, err)
	}

	return c.Status(fiber.StatusCreated).JSON(res)
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return handleError(c, h.logger, errInvalidBody)
	}

	res, err := h.userSvc.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		return handleError(c, h.logger, err)
	}

	return c.JSON(res)
}

func (h *Handler) GetMe(c *fiber.Ctx) error {
	user, err := h.userSvc.GetUser(c.Context(), middleware.GetUserID(c))
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return c.JSON(user)
}

type UpdateRoleRequest struct {
	Role model.Role `json:"role"`
}

// UpdateRole lets a client become an affiliate. A fresh token carrying the new
// role is returned.
func (h *Handler) UpdateRole(c *fiber.Ctx) error {
	var req UpdateRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return handleError(c, h.logger, errInvalidBody)
	}

	userID := middleware.GetUserID(c)
	res, err := h.userSvc.UpdateRole(c.Context(), userID, userID, req.Role)
	if err != nil {
		return handleError(c, h.logger, err)
	}

	return c.JSON(res)
}
