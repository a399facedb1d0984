package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/clintonochieng072-gif/ClintonStack-websites-sub002/internal/gateway"
	"github.com/clintonochieng072-gif/ClintonStack-websites-sub002/internal/repository"
	"github.com/clintonochieng072-gif/ClintonStack-websites-sub002/internal/response"
	"github.com/clintonochieng072-gif/ClintonStack-websites-sub002/internal/service"
)

var (
	errInvalidBody = errors.New("invalid request body")
	errInvalidID   = errors.New("invalid id")
)

var errorStatuses = []struct {
	status int
	errs   []error
}{
	{fiber.StatusUnauthorized, []error{
		service.ErrInvalidCredentials,
		service.ErrNotAffiliate,
		service.ErrWebhookUnauthorized,
	}},
	{fiber.StatusForbidden, []error{
		service.ErrForbidden,
		service.ErrPaymentRequired,
	}},
	{fiber.StatusNotFound, []error{
		repository.ErrUserNotFound,
		repository.ErrAffiliateNotFound,
		repository.ErrReferralNotFound,
		repository.ErrCommissionNotFound,
		repository.ErrPaymentNotFound,
		repository.ErrWithdrawalNotFound,
		repository.ErrNotificationNotFound,
		repository.ErrSiteNotFound,
	}},
	{fiber.StatusConflict, []error{
		repository.ErrEmailTaken,
		repository.ErrDuplicateReferral,
		repository.ErrDuplicateExternalRef,
		repository.ErrPaymentNotPending,
		repository.ErrWithdrawalNotPending,
		repository.ErrCommissionNotPending,
		repository.ErrCommissionExists,
		service.ErrPaymentNotCompleted,
	}},
	{fiber.StatusTooManyRequests, []error{
		repository.ErrWithdrawalWindow,
	}},
	{fiber.StatusBadGateway, []error{
		service.ErrGatewayFailed,
	}},
	{fiber.StatusBadRequest, []error{
		errInvalidBody,
		errInvalidID,
		repository.ErrInsufficientBalance,
		service.ErrInvalidEmail,
		service.ErrWeakPassword,
		service.ErrNameRequired,
		service.ErrInvalidRole,
		service.ErrSelfReferral,
		service.ErrInvalidPhone,
		service.ErrMpesaNameRequired,
		service.ErrInvalidAmount,
		service.ErrCommissionTooLarge,
		service.ErrAmountBelowMinimum,
		service.ErrInvalidAction,
		service.ErrInvalidStatus,
		service.ErrInvalidProvider,
		service.ErrInvalidMpesaCode,
		service.ErrProductRequired,
		service.ErrInvalidNiche,
		service.ErrInvalidBlock,
		service.ErrEmptyDraft,
		gateway.ErrGatewayNotConfigured,
		gateway.ErrInvalidCallback,
		service.ErrCallbackAmountMismatch,
	}},
}

// statusFor maps a domain error onto an HTTP status; unknown errors are 500.
func statusFor(err error) int {
	for _, group := range errorStatuses {
		for _, target := range group.errs {
			if errors.Is(err, target) {
				return group.status
			}
		}
	}
	return fiber.StatusInternalServerError
}

// handleError writes the error envelope. Internal failures are logged and
// reported without their message.
func handleError(c *fiber.Ctx, logger *zap.Logger, err error) error {
	status := statusFor(err)
	message := err.Error()
	if status == fiber.StatusInternalServerError {
		logger.Error("request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err))
		message = "internal server error"
	}
	return response.Error(c, status, response.CodeForStatus(status), message)
}

// ErrorHandler is the fiber app error handler; it uses the same envelope.
func ErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return response.Error(c, fe.Code, response.CodeForStatus(fe.Code), fe.Message)
		}
		return handleError(c, logger, err)
	}
}
