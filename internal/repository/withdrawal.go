package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/clintonochieng072-gif/ClintonStack-websites-sub002/internal/model"
)

var (
	ErrWithdrawalNotFound   = errors.New("withdrawal not found")
	ErrWithdrawalNotPending = errors.New("withdrawal already processed")
	ErrWithdrawalWindow     = errors.New("withdrawal already requested in the last 24 hours")
)

// CreateWithdrawal inserts a pending request. The affiliate row is locked while
// the balance and the per-window limit are checked, so concurrent requests from
// the same user serialize.
func (r *Repository) CreateWithdrawal(ctx context.Context, w *model.WithdrawalRequest, affiliateID uuid.UUID, since time.Time) error {
	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		var available decimal.Decimal
		err := tx.GetContext(ctx, &available,
			"SELECT available_balance FROM affiliates WHERE id = $1 FOR UPDATE", affiliateID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrAffiliateNotFound
			}
			return err
		}
		if w.Amount.GreaterThan(available) {
			return ErrInsufficientBalance
		}

		var recent int
		err = tx.GetContext(ctx, &recent, `
			SELECT COUNT(*) FROM withdrawal_requests
			WHERE user_id = $1 AND created_at >= $2`, w.UserID, since)
		if err != nil {
			return err
		}
		if recent > 0 {
			return ErrWithdrawalWindow
		}

		err = tx.QueryRowContext(ctx, `
			INSERT INTO withdrawal_requests (user_id, amount, phone_number, mpesa_name, status)
			VALUES ($1, $2, $3, $4, 'pending')
			RETURNING id, status, created_at`,
			w.UserID, w.Amount, w.PhoneNumber, w.MpesaName,
		).Scan(&w.ID, &w.Status, &w.CreatedAt)
		if err != nil {
			return err
		}

		return logAudit(ctx, tx, w.UserID, model.AuditActionWithdrawalRequested, &w.ID, map[string]interface{}{
			"amount": w.Amount,
			"phone":  w.PhoneNumber,
		})
	})
}

// ProcessWithdrawal applies an admin decision to a pending request. Approval
// debits the affiliate; the transaction rolls back if the balance no longer
// covers the amount.
func (r *Repository) ProcessWithdrawal(ctx context.Context, d model.WithdrawalDecision) (*model.WithdrawalRequest, error) {
	var w model.WithdrawalRequest
	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		status := model.WithdrawalStatusFailed
		if d.Approve {
			status = model.WithdrawalStatusCompleted
		}

		err := tx.GetContext(ctx, &w, `
			UPDATE withdrawal_requests
			SET status = $2, transaction_id = $3, failure_reason = $4, processed_by = $5, processed_at = NOW()
			WHERE id = $1 AND status = 'pending'
			RETURNING *`,
			d.WithdrawalID, status, d.TransactionID, d.Reason, d.AdminID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				var exists bool
				if err := tx.GetContext(ctx, &exists,
					"SELECT EXISTS(SELECT 1 FROM withdrawal_requests WHERE id = $1)", d.WithdrawalID); err != nil {
					return err
				}
				if exists {
					return ErrWithdrawalNotPending
				}
				return ErrWithdrawalNotFound
			}
			return err
		}

		var affiliateID uuid.UUID
		if err := tx.GetContext(ctx, &affiliateID, "SELECT id FROM affiliates WHERE user_id = $1", w.UserID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrAffiliateNotFound
			}
			return err
		}

		action := model.AuditActionWithdrawalRejected
		switch {
		case d.Approve:
			action = model.AuditActionWithdrawalApproved
			if _, err := applyBalanceDelta(ctx, tx, affiliateID, w.Amount.Neg(), model.TransactionTypeWithdrawal, &w.ID); err != nil {
				return err
			}
		case d.RestoreBalance:
			if _, err := applyBalanceDelta(ctx, tx, affiliateID, w.Amount, model.TransactionTypeWithdrawalRestore, &w.ID); err != nil {
				return err
			}
		}

		return logAudit(ctx, tx, d.AdminID, action, &w.ID, map[string]interface{}{
			"user_id":        w.UserID,
			"amount":         w.Amount,
			"transaction_id": d.TransactionID,
			"reason":         d.Reason,
		})
	})
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *Repository) GetWithdrawal(ctx context.Context, id uuid.UUID) (*model.WithdrawalRequest, error) {
	var w model.WithdrawalRequest
	err := r.db.GetContext(ctx, &w, "SELECT * FROM withdrawal_requests WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrWithdrawalNotFound
		}
		return nil, err
	}
	return &w, nil
}

// ListWithdrawals returns requests newest first with the total matching count.
// An empty status lists every request.
func (r *Repository) ListWithdrawals(ctx context.Context, status model.WithdrawalStatus, limit, offset int) ([]model.WithdrawalRequest, int, error) {
	var total int
	err := r.db.GetContext(ctx, &total, `
		SELECT COUNT(*) FROM withdrawal_requests
		WHERE $1 = '' OR status = $1`, status)
	if err != nil {
		return nil, 0, err
	}

	var withdrawals []model.WithdrawalRequest
	err = r.db.SelectContext(ctx, &withdrawals, `
		SELECT * FROM withdrawal_requests
		WHERE $1 = '' OR status = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, status, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return withdrawals, total, nil
}

func (r *Repository) ListUserWithdrawals(ctx context.Context, userID uuid.UUID) ([]model.WithdrawalRequest, error) {
	var withdrawals []model.WithdrawalRequest
	err := r.db.SelectContext(ctx, &withdrawals, `
		SELECT * FROM withdrawal_requests
		WHERE user_id = $1
		ORDER BY created_at DESC`, userID)
	return withdrawals, err
}
