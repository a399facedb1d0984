package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/clintonochieng072-gif/ClintonStack-websites-sub002/internal/middleware"
	"github.com/clintonochieng072-gif/ClintonStack-websites-sub002/internal/model"
	"github.com/clintonochieng072-gif/ClintonStack-websites-sub002/internal/service"
)

// AdminHandler handles admin panel requests
type AdminHandler struct {
	withdrawalSvc *service.WithdrawalService
	paymentSvc    *service.PaymentService
	commissionSvc *service.CommissionService
	userSvc       *service.UserService
	adminSvc      *service.AdminService
	logger        *zap.Logger
}

func NewAdminHandler(
	withdrawalSvc *service.WithdrawalService,
	paymentSvc *service.PaymentService,
	commissionSvc *service.CommissionService,
	userSvc *service.UserService,
	adminSvc *service.AdminService,
	logger *zap.Logger,
) *AdminHandler {
	return &AdminHandler{
		withdrawalSvc: withdrawalSvc,
		paymentSvc:    paymentSvc,
		commissionSvc: commissionSvc,
		userSvc:       userSvc,
		adminSvc:      adminSvc,
		logger:        logger,
	}
}

// --- Withdrawals ---

// ListWithdrawals serves both /withdrawals and /withdrawals/list.
func (h *AdminHandler) ListWithdrawals(c *fiber.Ctx) error {
	page, pageSize := pageParams(c)
	result, err := h.withdrawalSvc.List(c.Context(), c.Query("status"), page, pageSize)
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return c.JSON(result)
}

type ProcessWithdrawalRequest struct {
	WithdrawalID  uuid.UUID              `json:"withdrawalId"`
	Action        model.WithdrawalAction `json:"action"`
	TransactionID string                 `json:"transactionId"`
	Reason        string                 `json:"reason"`
}

// ProcessWithdrawal is the single approve/reject endpoint; "deny" is accepted as
// a synonym of reject.
func (h *AdminHandler) ProcessWithdrawal(c *fiber.Ctx) error {
	var req ProcessWithdrawalRequest
	if err := c.BodyParser(&req); err != nil {
		return handleError(c, h.logger, errInvalidBody)
	}
	if req.WithdrawalID == uuid.Nil {
		return handleError(c, h.logger, errInvalidID)
	}

	w, err := h.withdrawalSvc.Process(c.Context(), service.ProcessWithdrawalInput{
		AdminID:       middleware.GetUserID(c),
		WithdrawalID:  req.WithdrawalID,
		Action:        req.Action,
		TransactionID: req.TransactionID,
		Reason:        req.Reason,
	})
	if err != nil {
		return handleError(c, h.logger, err)
	}

	message := "Withdrawal rejected"
	if w.Status == model.WithdrawalStatusCompleted {
		message = "Withdrawal approved"
	}
	return c.JSON(fiber.Map{
		"message":    message,
		"withdrawal": w,
	})
}

// --- Payments ---

func (h *AdminHandler) ListPendingPayments(c *fiber.Ctx) error {
	payments, err := h.paymentSvc.ListPendingManual(c.Context())
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{
		"payments": payments,
	})
}

func (h *AdminHandler) ApprovePayment(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return handleError(c, h.logger, errInvalidID)
	}

	adminID := middleware.GetUserID(c)
	result, err := h.paymentSvc.Confirm(c.Context(), id, &adminID)
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return c.JSON(result)
}

type RejectPaymentRequest struct {
	Reason string `json:"reason"`
}

func (h *AdminHandler) RejectPayment(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return handleError(c, h.logger, errInvalidID)
	}

	var req RejectPaymentRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return handleError(c, h.logger, errInvalidBody)
		}
	}
	if req.Reason == "" {
		req.Reason = "rejected by admin"
	}

	adminID := middleware.GetUserID(c)
	payment, err := h.paymentSvc.Fail(c.Context(), id, req.Reason, &adminID)
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return c.JSON(payment)
}

// ExpireStalePayments fails STK pushes that never got a final callback.
func (h *AdminHandler) ExpireStalePayments(c *fiber.Ctx) error {
	expired, err := h.paymentSvc.ExpireStale(c.Context())
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{
		"expired": expired,
	})
}

// --- Commissions ---

type CreateCommissionRequest struct {
	AffiliateID uuid.UUID       `json:"affiliateId"`
	PaymentID   uuid.UUID       `json:"paymentId"`
	Amount      decimal.Decimal `json:"amount"`
}

// CreateCommission backfills a commission for a completed referred payment.
func (h *AdminHandler) CreateCommission(c *fiber.Ctx) error {
	var req CreateCommissionRequest
	if err := c.BodyParser(&req); err != nil {
		return handleError(c, h.logger, errInvalidBody)
	}
	if req.AffiliateID == uuid.Nil || req.PaymentID == uuid.Nil {
		return handleError(c, h.logger, errInvalidID)
	}

	commission, err := h.commissionSvc.CreateFromPayment(c.Context(), req.AffiliateID, req.PaymentID, req.Amount)
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return c.Status(fiber.StatusCreated).JSON(commission)
}

func (h *AdminHandler) MarkCommissionPaid(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return handleError(c, h.logger, errInvalidID)
	}

	commission, err := h.commissionSvc.MarkPaid(c.Context(), middleware.GetUserID(c), id)
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return c.JSON(commission)
}

// --- Users ---

func (h *AdminHandler) UpdateUserRole(c *fiber.Ctx) error {
	targetID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return handleError(c, h.logger, errInvalidID)
	}

	var req UpdateRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return handleError(c, h.logger, errInvalidBody)
	}

	res, err := h.userSvc.UpdateRole(c.Context(), middleware.GetUserID(c), targetID, req.Role)
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return c.JSON(res.User)
}

// --- Logs ---

func (h *AdminHandler) GetAuditLogs(c *fiber.Ctx) error {
	page, pageSize := pageParams(c)
	logs, err := h.adminSvc.ListAuditLogs(c.Context(), page, pageSize)
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{
		"logs": logs,
	})
}

// --- Settings ---

func (h *AdminHandler) GetSettings(c *fiber.Ctx) error {
	settings, err := h.adminSvc.GetSettings(c.Context())
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return c.JSON(settings)
}

type SetWithdrawalMinimumRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

func (h *AdminHandler) SetWithdrawalMinimum(c *fiber.Ctx) error {
	var req SetWithdrawalMinimumRequest
	if err := c.BodyParser(&req); err != nil {
		return handleError(c, h.logger, errInvalidBody)
	}

	if err := h.withdrawalSvc.SetMinimumAmount(c.Context(), middleware.GetUserID(c), req.Amount); err != nil {
		return handleError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"amount":  req.Amount.StringFixed(2),
	})
}
