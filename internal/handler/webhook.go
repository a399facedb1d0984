package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/clintonochieng072-gif/ClintonStack-websites-sub002/internal/repository"
)

// PaymentWebhook receives asynchronous results from a payment provider at
// /webhook/:provider/:token. Unknown references are acknowledged so the provider
// stops retrying; a wrong token, a malformed body or an unconfigured provider is
// rejected.
func (h *Handler) PaymentWebhook(c *fiber.Ctx) error {
	provider := c.Params("provider")

	if err := h.paymentSvc.HandleCallback(c.Context(), provider, c.Params("token"), c.Body()); err != nil {
		if !errors.Is(err, repository.ErrPaymentNotFound) {
			return handleError(c, h.logger, err)
		}
		h.logger.Warn("callback for unknown payment", zap.String("provider", provider))
	}

	return c.JSON(fiber.Map{
		"ResultCode": 0,
		"ResultDesc": "Accepted",
	})
}
