package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/clintonochieng072-gif/ClintonStack-websites-sub002/internal/model"
)

var (
	ErrAffiliateNotFound   = errors.New("affiliate not found")
	ErrInsufficientBalance = errors.New("insufficient balance")
)

func (r *Repository) GetAffiliate(ctx context.Context, id uuid.UUID) (*model.Affiliate, error) {
	var affiliate model.Affiliate
	err := r.db.GetContext(ctx, &affiliate, "SELECT * FROM affiliates WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAffiliateNotFound
		}
		return nil, err
	}
	return &affiliate, nil
}

func (r *Repository) GetAffiliateByUserID(ctx context.Context, userID uuid.UUID) (*model.Affiliate, error) {
	var affiliate model.Affiliate
	err := r.db.GetContext(ctx, &affiliate, "SELECT * FROM affiliates WHERE user_id = $1", userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAffiliateNotFound
		}
		return nil, err
	}
	return &affiliate, nil
}

// EnsureAffiliate creates the affiliate record for a user if it is missing.
func (r *Repository) EnsureAffiliate(ctx context.Context, userID uuid.UUID, rate decimal.Decimal) (*model.Affiliate, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO affiliates (user_id, commission_rate, status)
		VALUES ($1, $2, 'active')
		ON CONFLICT (user_id) DO NOTHING`, userID, rate)
	if err != nil {
		return nil, err
	}
	return r.GetAffiliateByUserID(ctx, userID)
}

func (r *Repository) UpdatePayoutDetails(ctx context.Context, userID uuid.UUID, mpesaName, mpesaPhone string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE affiliates SET mpesa_name = $2, mpesa_phone = $3, updated_at = NOW()
		WHERE user_id = $1`, userID, mpesaName, mpesaPhone)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrAffiliateNotFound
	}
	return nil
}

// GetBalanceTransactions returns balance history for an affiliate, newest first.
func (r *Repository) GetBalanceTransactions(ctx context.Context, affiliateID uuid.UUID, limit, offset int) ([]model.BalanceTransaction, error) {
	var transactions []model.BalanceTransaction
	err := r.db.SelectContext(ctx, &transactions, `
		SELECT * FROM balance_transactions
		WHERE affiliate_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`,
		affiliateID, limit, offset)
	return transactions, err
}

// applyBalanceDelta changes an affiliate's available balance under a row lock and
// records the change. Commission credits also raise total_earned.
func applyBalanceDelta(ctx context.Context, tx *sqlx.Tx, affiliateID uuid.UUID, amount decimal.Decimal, txType model.TransactionType, referenceID *uuid.UUID) (decimal.Decimal, error) {
	var balanceBefore decimal.Decimal
	err := tx.GetContext(ctx, &balanceBefore, "SELECT available_balance FROM affiliates WHERE id = $1 FOR UPDATE", affiliateID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, ErrAffiliateNotFound
		}
		return decimal.Zero, fmt.Errorf("failed to get balance: %w", err)
	}

	balanceAfter := balanceBefore.Add(amount)
	if amount.IsNegative() && balanceAfter.IsNegative() {
		return balanceBefore, ErrInsufficientBalance
	}

	earned := decimal.Zero
	if txType == model.TransactionTypeCommission {
		earned = amount
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE affiliates
		SET available_balance = $1, total_earned = total_earned + $2, updated_at = NOW()
		WHERE id = $3`, balanceAfter, earned, affiliateID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to update balance: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO balance_transactions (affiliate_id, amount, type, reference_id, balance_before, balance_after)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		affiliateID, amount, txType, referenceID, balanceBefore, balanceAfter)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to create transaction record: %w", err)
	}

	return balanceAfter, nil
}
