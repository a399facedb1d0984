package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clintonochieng072-gif/ClintonStack-websites-sub002/internal/middleware"
	"github.com/clintonochieng072-gif/ClintonStack-websites-sub002/internal/model"
	"github.com/clintonochieng072-gif/ClintonStack-websites-sub002/internal/service"
)

type STKPushRequest struct {
	Provider    model.PaymentProvider `json:"provider"`
	PhoneNumber string                `json:"phoneNumber"`
	Amount      decimal.Decimal       `json:"amount"`
	Product     string                `json:"product"`
}

func (h *Handler) InitiateSTKPush(c *fiber.Ctx) error {
	var req STKPushRequest
	if err := c.BodyParser(&req); err != nil {
		return handleError(c, h.logger, errInvalidBody)
	}

	payment, err := h.paymentSvc.InitiateSTKPush(c.Context(), service.STKPushInput{
		UserID:   middleware.GetUserID(c),
		Provider: model.PaymentProvider(strings.ToLower(string(req.Provider))),
		Phone:    req.PhoneNumber,
		Amount:   req.Amount,
		Product:  req.Product,
	})
	if err != nil {
		return handleError(c, h.logger, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"message": "Check your phone to complete the payment",
		"payment": ownerView(payment),
	})
}

type ManualPaymentRequest struct {
	MpesaCode   string          `json:"mpesaCode"`
	PhoneNumber string          `json:"phoneNumber"`
	Amount      decimal.Decimal `json:"amount"`
	Product     string          `json:"product"`
}

func (h *Handler) SubmitManualPayment(c *fiber.Ctx) error {
	var req ManualPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return handleError(c, h.logger, errInvalidBody)
	}

	payment, err := h.paymentSvc.SubmitManualPayment(c.Context(), service.ManualPaymentInput{
		UserID:    middleware.GetUserID(c),
		MpesaCode: req.MpesaCode,
		Phone:     req.PhoneNumber,
		Amount:    req.Amount,
		Product:   req.Product,
	})
	if err != nil {
		return handleError(c, h.logger, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Payment submitted for verification",
		"payment": payment,
	})
}

func (h *Handler) GetPayment(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return handleError(c, h.logger, errInvalidID)
	}

	payment, err := h.paymentSvc.GetPayment(c.Context(), middleware.GetUserID(c), middleware.GetRole(c), id)
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return c.JSON(ownerView(payment))
}

func (h *Handler) GetMyPayments(c *fiber.Ctx) error {
	payments, err := h.paymentSvc.ListUserPayments(c.Context(), middleware.GetUserID(c))
	if err != nil {
		return handleError(c, h.logger, err)
	}
	views := make([]*model.Payment, len(payments))
	for i := range payments {
		views[i] = ownerView(&payments[i])
	}
	return c.JSON(fiber.Map{
		"payments": views,
	})
}

// ownerView hides the provider reference of gateway payments; it is the only
// key a callback carries. Manual payments keep the code the payer typed.
func ownerView(p *model.Payment) *model.Payment {
	if p.Provider == model.PaymentProviderManual {
		return p
	}
	view := *p
	view.ExternalRef = nil
	return &view
}
