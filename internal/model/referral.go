package model

import (
	"time"

	"github.com/google/uuid"
)

type ReferralStatus string

const (
	ReferralStatusActive    ReferralStatus = "active"
	ReferralStatusInactive  ReferralStatus = "inactive"
	ReferralStatusConverted ReferralStatus = "converted"
)

type Referral struct {
	ID                  uuid.UUID      `json:"id" db:"id"`
	AffiliateID         uuid.UUID      `json:"affiliateId" db:"affiliate_id"`
	ReferredUserID      uuid.UUID      `json:"referredUserId" db:"referred_user_id"`
	Status              ReferralStatus `json:"status" db:"status"`
	ClickTimestamp      time.Time      `json:"clickTimestamp" db:"click_timestamp"`
	ConversionTimestamp *time.Time     `json:"conversionTimestamp,omitempty" db:"conversion_timestamp"`
	CreatedAt           time.Time      `json:"createdAt" db:"created_at"`
}

type ReferralStats struct {
	Total     int `json:"total"`
	Converted int `json:"converted"`
}

// Display status of a referral, derived from whether a commission exists for it.
const (
	ReferralPaymentPending = "pending"
	ReferralPaymentPaid    = "paid"
)

// ReferralDetail is a referral joined with the referred user's public fields.
type ReferralDetail struct {
	Referral
	ReferredName  string `json:"referredName" db:"referred_name"`
	ReferredEmail string `json:"referredEmail" db:"referred_email"`
	PaymentStatus string `json:"paymentStatus" db:"-"`
}
