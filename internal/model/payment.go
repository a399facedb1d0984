package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentProvider string

const (
	PaymentProviderMpesa    PaymentProvider = "mpesa"
	PaymentProviderPayHero  PaymentProvider = "payhero"
	PaymentProviderIntaSend PaymentProvider = "intasend"
	PaymentProviderManual   PaymentProvider = "manual"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

const CurrencyKES = "KES"

type Payment struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	UserID        uuid.UUID       `json:"userId" db:"user_id"`
	Amount        decimal.Decimal `json:"amount" db:"amount"`
	Currency      string          `json:"currency" db:"currency"`
	Provider      PaymentProvider `json:"provider" db:"provider"`
	Product       string          `json:"product" db:"product"`
	PhoneNumber   string          `json:"phoneNumber" db:"phone_number"`
	Status        PaymentStatus   `json:"status" db:"status"`
	ExternalRef   *string         `json:"externalRef,omitempty" db:"external_ref"`
	FailureReason *string         `json:"failureReason,omitempty" db:"failure_reason"`
	CreatedAt     time.Time       `json:"createdAt" db:"created_at"`
	CompletedAt   *time.Time      `json:"completedAt,omitempty" db:"completed_at"`
}

// PaymentConfirmation is the outcome of confirming a payment.
type PaymentConfirmation struct {
	Payment    *Payment    `json:"payment"`
	Commission *Commission `json:"commission,omitempty"`
}
