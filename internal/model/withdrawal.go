package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WithdrawalStatus is the single state vocabulary used by every admin operation.
type WithdrawalStatus string

const (
	WithdrawalStatusPending   WithdrawalStatus = "pending"
	WithdrawalStatusCompleted WithdrawalStatus = "completed"
	WithdrawalStatusFailed    WithdrawalStatus = "failed"
)

type WithdrawalAction string

const (
	WithdrawalActionApprove WithdrawalAction = "approve"
	WithdrawalActionReject  WithdrawalAction = "reject"
	WithdrawalActionDeny    WithdrawalAction = "deny"
)

// Normalize folds the legacy "deny" vocabulary into reject.
func (a WithdrawalAction) Normalize() (WithdrawalAction, bool) {
	switch a {
	case WithdrawalActionApprove:
		return WithdrawalActionApprove, true
	case WithdrawalActionReject, WithdrawalActionDeny:
		return WithdrawalActionReject, true
	}
	return "", false
}

type WithdrawalRequest struct {
	ID            uuid.UUID        `json:"id" db:"id"`
	UserID        uuid.UUID        `json:"userId" db:"user_id"`
	Amount        decimal.Decimal  `json:"amount" db:"amount"`
	PhoneNumber   string           `json:"phoneNumber" db:"phone_number"`
	MpesaName     string           `json:"mpesaName" db:"mpesa_name"`
	Status        WithdrawalStatus `json:"status" db:"status"`
	TransactionID *string          `json:"transactionId,omitempty" db:"transaction_id"`
	FailureReason *string          `json:"failureReason,omitempty" db:"failure_reason"`
	ProcessedBy   *uuid.UUID       `json:"processedBy,omitempty" db:"processed_by"`
	ProcessedAt   *time.Time       `json:"processedAt,omitempty" db:"processed_at"`
	CreatedAt     time.Time        `json:"createdAt" db:"created_at"`
}

// WithdrawalDecision carries an admin's approve/reject of a pending request.
type WithdrawalDecision struct {
	WithdrawalID  uuid.UUID
	AdminID       uuid.UUID
	Approve       bool
	TransactionID *string
	Reason        *string
	// RestoreBalance credits the amount back on rejection.
	RestoreBalance bool
}

type WithdrawalPage struct {
	Withdrawals []WithdrawalRequest `json:"withdrawals"`
	Total       int                 `json:"total"`
	Page        int                 `json:"page"`
	PageSize    int                 `json:"pageSize"`
}
