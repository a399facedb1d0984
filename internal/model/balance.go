package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypeCommission        TransactionType = "commission"
	TransactionTypeWithdrawal        TransactionType = "withdrawal"
	TransactionTypeWithdrawalRestore TransactionType = "withdrawal_restore"
)

// BalanceTransaction records one change to an affiliate's available balance.
type BalanceTransaction struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	AffiliateID   uuid.UUID       `json:"affiliateId" db:"affiliate_id"`
	Amount        decimal.Decimal `json:"amount" db:"amount"` // positive = credit, negative = debit
	Type          TransactionType `json:"type" db:"type"`
	ReferenceID   *uuid.UUID      `json:"referenceId,omitempty" db:"reference_id"`
	BalanceBefore decimal.Decimal `json:"balanceBefore" db:"balance_before"`
	BalanceAfter  decimal.Decimal `json:"balanceAfter" db:"balance_after"`
	CreatedAt     time.Time       `json:"createdAt" db:"created_at"`
}
