package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type AffiliateStatus string

const (
	AffiliateStatusActive   AffiliateStatus = "active"
	AffiliateStatusInactive AffiliateStatus = "inactive"
)

// DefaultCommissionRate is applied to affiliates created without an explicit rate.
var DefaultCommissionRate = decimal.RequireFromString("0.15")

type Affiliate struct {
	ID               uuid.UUID       `json:"id" db:"id"`
	UserID           uuid.UUID       `json:"userId" db:"user_id"`
	CommissionRate   decimal.Decimal `json:"commissionRate" db:"commission_rate"`
	AvailableBalance decimal.Decimal `json:"availableBalance" db:"available_balance"`
	TotalEarned      decimal.Decimal `json:"totalEarned" db:"total_earned"`
	PendingBalance   decimal.Decimal `json:"pendingBalance" db:"pending_balance"`
	Status           AffiliateStatus `json:"status" db:"status"`
	MpesaName        *string         `json:"mpesaName,omitempty" db:"mpesa_name"`
	MpesaPhone       *string         `json:"mpesaPhone,omitempty" db:"mpesa_phone"`
	CreatedAt        time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt        time.Time       `json:"updatedAt" db:"updated_at"`
}

type ProductStat struct {
	Product     string          `json:"product" db:"product"`
	Conversions int             `json:"conversions" db:"conversions"`
	Earnings    decimal.Decimal `json:"earnings" db:"earnings"`
}

// AffiliateStats is the dashboard payload of GET /api/affiliate/stats.
type AffiliateStats struct {
	TotalReferrals     int             `json:"totalReferrals"`
	ConvertedReferrals int             `json:"convertedReferrals"`
	TotalEarnings      decimal.Decimal `json:"totalEarnings"`
	PendingEarnings    decimal.Decimal `json:"pendingEarnings"`
	AvailableBalance   decimal.Decimal `json:"availableBalance"`
	ReferralCode       string          `json:"referralCode"`
	AffiliateID        uuid.UUID       `json:"affiliateId"`
	ProductStats       []ProductStat   `json:"productStats"`
}

type AffiliateBalance struct {
	AvailableBalance  decimal.Decimal     `json:"availableBalance"`
	TotalEarned       decimal.Decimal     `json:"totalEarned"`
	WithdrawalHistory []WithdrawalRequest `json:"withdrawalHistory"`
}
