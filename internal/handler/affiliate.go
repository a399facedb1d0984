package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clintonochieng072-gif/ClintonStack-websites-sub002/internal/middleware"
	"github.com/clintonochieng072-gif/ClintonStack-websites-sub002/internal/service"
)

func (h *Handler) GetAffiliateStats(c *fiber.Ctx) error {
	stats, err := h.affiliateSvc.GetDashboardStats(c.Context(), middleware.GetUserID(c))
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return c.JSON(stats)
}

func (h *Handler) GetAffiliateBalance(c *fiber.Ctx) error {
	balance, err := h.affiliateSvc.GetBalance(c.Context(), middleware.GetUserID(c))
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return c.JSON(balance)
}

func (h *Handler) GetBalanceTransactions(c *fiber.Ctx) error {
	page, pageSize := pageParams(c)
	transactions, err := h.affiliateSvc.BalanceHistory(c.Context(), middleware.GetUserID(c), page, pageSize)
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{
		"transactions": transactions,
	})
}

func (h *Handler) GetReferrals(c *fiber.Ctx) error {
	referrals, err := h.affiliateSvc.ListReferrals(c.Context(), middleware.GetUserID(c))
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{
		"referrals": referrals,
	})
}

func (h *Handler) GetReferralCommission(c *fiber.Ctx) error {
	referredUserID, err := uuid.Parse(c.Params("userId"))
	if err != nil {
		return handleError(c, h.logger, errInvalidID)
	}

	commission, err := h.affiliateSvc.ReferralCommission(c.Context(), middleware.GetUserID(c), referredUserID)
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return c.JSON(commission)
}

type WithdrawRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	PhoneNumber string          `json:"phoneNumber"`
	MpesaName   string          `json:"mpesaName"`
}

func (h *Handler) Withdraw(c *fiber.Ctx) error {
	var req WithdrawRequest
	if err := c.BodyParser(&req); err != nil {
		return handleError(c, h.logger, errInvalidBody)
	}

	w, err := h.withdrawalSvc.Create(c.Context(), service.CreateWithdrawalInput{
		UserID:      middleware.GetUserID(c),
		Amount:      req.Amount,
		PhoneNumber: req.PhoneNumber,
		MpesaName:   req.MpesaName,
	})
	if err != nil {
		return handleError(c, h.logger, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":      "Withdrawal request submitted and awaiting approval",
		"withdrawalId": w.ID,
	})
}

func (h *Handler) GetMyWithdrawals(c *fiber.Ctx) error {
	withdrawals, err := h.withdrawalSvc.ListForUser(c.Context(), middleware.GetUserID(c))
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{
		"withdrawals": withdrawals,
	})
}

type PayoutDetailsRequest struct {
	MpesaName  string `json:"mpesaName"`
	MpesaPhone string `json:"mpesaPhone"`
}

func (h *Handler) UpdatePayoutDetails(c *fiber.Ctx) error {
	var req PayoutDetailsRequest
	if err := c.BodyParser(&req); err != nil {
		return handleError(c, h.logger, errInvalidBody)
	}

	affiliate, err := h.userSvc.UpdatePayoutDetails(c.Context(), middleware.GetUserID(c), req.MpesaName, req.MpesaPhone)
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return c.JSON(affiliate)
}
