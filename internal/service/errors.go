package service

import "errors"

var (
	ErrInvalidCredentials     = errors.New("invalid email or password")
	ErrInvalidEmail           = errors.New("invalid email address")
	ErrWeakPassword           = errors.New("password must be at least 8 characters")
	ErrNameRequired           = errors.New("name is required")
	ErrInvalidRole            = errors.New("invalid role")
	ErrForbidden              = errors.New("not allowed")
	ErrNotAffiliate           = errors.New("affiliate account required")
	ErrSelfReferral           = errors.New("cannot refer yourself")
	ErrReferralCodeExhausted  = errors.New("could not generate a unique referral code")
	ErrInvalidPhone           = errors.New("invalid M-Pesa phone number")
	ErrMpesaNameRequired      = errors.New("M-Pesa name is required")
	ErrInvalidAmount          = errors.New("amount must be greater than zero")
	ErrAmountBelowMinimum     = errors.New("amount is below the minimum withdrawal")
	ErrInvalidAction          = errors.New("action must be approve, reject or deny")
	ErrInvalidStatus          = errors.New("invalid status filter")
	ErrInvalidProvider        = errors.New("invalid payment provider")
	ErrInvalidMpesaCode       = errors.New("invalid M-Pesa transaction code")
	ErrProductRequired        = errors.New("product is required")
	ErrGatewayFailed          = errors.New("payment gateway request failed")
	ErrPaymentNotCompleted    = errors.New("payment is not completed")
	ErrCommissionTooLarge     = errors.New("commission exceeds the payment amount")
	ErrWebhookUnauthorized    = errors.New("invalid webhook token")
	ErrCallbackAmountMismatch = errors.New("callback amount does not match the payment")
	ErrInvalidNiche           = errors.New("invalid niche")
	ErrInvalidBlock           = errors.New("invalid content block")
	ErrPaymentRequired        = errors.New("payment required to publish")
	ErrEmptyDraft             = errors.New("draft has no content blocks")
)
