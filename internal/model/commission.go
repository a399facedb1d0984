package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CommissionStatus string

const (
	CommissionStatusPending CommissionStatus = "pending"
	CommissionStatusPaid    CommissionStatus = "paid"
	CommissionStatusFailed  CommissionStatus = "failed"
)

type Commission struct {
	ID               uuid.UUID        `json:"id" db:"id"`
	AffiliateID      uuid.UUID        `json:"affiliateId" db:"affiliate_id"`
	PaymentID        uuid.UUID        `json:"paymentId" db:"payment_id"`
	ReferralID       *uuid.UUID       `json:"referralId,omitempty" db:"referral_id"`
	CommissionAmount decimal.Decimal  `json:"commissionAmount" db:"commission_amount"`
	Status           CommissionStatus `json:"status" db:"status"`
	CreatedAt        time.Time        `json:"createdAt" db:"created_at"`
	PaidAt           *time.Time       `json:"paidAt,omitempty" db:"paid_at"`
}

type CommissionStats struct {
	TotalCommissions   decimal.Decimal `json:"totalCommissions"`
	PendingCommissions decimal.Decimal `json:"pendingCommissions"`
	ProductStats       []ProductStat   `json:"productStats"`
}

// CommissionDraft describes the commission to attribute when a payment is confirmed.
type CommissionDraft struct {
	AffiliateID uuid.UUID
	ReferralID  *uuid.UUID
	Amount      decimal.Decimal
}
