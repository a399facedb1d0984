package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/clintonochieng072-gif/ClintonStack-websites-sub002/internal/model"
)

var (
	ErrPaymentNotFound      = errors.New("payment not found")
	ErrPaymentNotPending    = errors.New("payment is not pending")
	ErrDuplicateExternalRef = errors.New("payment reference already used")
)

func (r *Repository) GetPayment(ctx context.Context, id uuid.UUID) (*model.Payment, error) {
	var payment model.Payment
	err := r.db.GetContext(ctx, &payment, "SELECT * FROM payments WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return &payment, nil
}

func (r *Repository) GetPaymentByExternalRef(ctx context.Context, provider model.PaymentProvider, ref string) (*model.Payment, error) {
	var payment model.Payment
	err := r.db.GetContext(ctx, &payment,
		"SELECT * FROM payments WHERE provider = $1 AND external_ref = $2", provider, ref)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return &payment, nil
}

func (r *Repository) GetUserPayments(ctx context.Context, userID uuid.UUID) ([]model.Payment, error) {
	var payments []model.Payment
	err := r.db.SelectContext(ctx, &payments,
		"SELECT * FROM payments WHERE user_id = $1 ORDER BY created_at DESC", userID)
	return payments, err
}

func (r *Repository) CreatePayment(ctx context.Context, payment *model.Payment) error {
	query := `
		INSERT INTO payments (user_id, amount, currency, provider, product, phone_number, status, external_ref)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		payment.UserID,
		payment.Amount,
		payment.Currency,
		payment.Provider,
		payment.Product,
		payment.PhoneNumber,
		payment.Status,
		payment.ExternalRef,
	).Scan(&payment.ID, &payment.CreatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicateExternalRef
	}
	return err
}

func (r *Repository) SetPaymentExternalRef(ctx context.Context, id uuid.UUID, ref string) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE payments SET external_ref = $2 WHERE id = $1", id, ref)
	if isUniqueViolation(err) {
		return ErrDuplicateExternalRef
	}
	return err
}

func (r *Repository) ListPendingPayments(ctx context.Context, provider model.PaymentProvider) ([]model.Payment, error) {
	var payments []model.Payment
	err := r.db.SelectContext(ctx, &payments, `
		SELECT * FROM payments
		WHERE status = 'pending' AND provider = $1
		ORDER BY created_at ASC`, provider)
	return payments, err
}

// ListStalePayments returns gateway payments still pending that were created
// before cutoff. Manual payments wait for an admin and are never stale.
func (r *Repository) ListStalePayments(ctx context.Context, cutoff time.Time) ([]model.Payment, error) {
	var payments []model.Payment
	err := r.db.SelectContext(ctx, &payments, `
		SELECT * FROM payments
		WHERE status = 'pending' AND provider <> 'manual' AND created_at < $1
		ORDER BY created_at ASC`, cutoff)
	return payments, err
}

// ConfirmPayment moves a pending payment to completed, marks the payer as paid and,
// when draft is set, records the affiliate's commission. adminID is set for manual
// approvals and produces an audit entry.
func (r *Repository) ConfirmPayment(ctx context.Context, id uuid.UUID, draft *model.CommissionDraft, adminID *uuid.UUID) (*model.PaymentConfirmation, error) {
	result := &model.PaymentConfirmation{}
	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		var payment model.Payment
		err := tx.GetContext(ctx, &payment, `
			UPDATE payments SET status = 'completed', completed_at = NOW()
			WHERE id = $1 AND status = 'pending'
			RETURNING *`, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return paymentStateError(ctx, tx, id)
			}
			return err
		}
		result.Payment = &payment

		if _, err := tx.ExecContext(ctx,
			"UPDATE users SET has_paid = TRUE, updated_at = NOW() WHERE id = $1", payment.UserID); err != nil {
			return err
		}

		if draft != nil {
			commission, err := insertCommission(ctx, tx, payment.ID, *draft)
			if err != nil {
				return err
			}
			result.Commission = commission
		}

		if adminID != nil {
			return logAudit(ctx, tx, *adminID, model.AuditActionPaymentApproved, &payment.ID, map[string]interface{}{
				"user_id": payment.UserID,
				"amount":  payment.Amount,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// FailPayment moves a pending payment to failed.
func (r *Repository) FailPayment(ctx context.Context, id uuid.UUID, reason string, adminID *uuid.UUID) (*model.Payment, error) {
	var payment model.Payment
	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &payment, `
			UPDATE payments SET status = 'failed', failure_reason = $2
			WHERE id = $1 AND status = 'pending'
			RETURNING *`, id, reason)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return paymentStateError(ctx, tx, id)
			}
			return err
		}

		if adminID != nil {
			return logAudit(ctx, tx, *adminID, model.AuditActionPaymentRejected, &payment.ID, map[string]interface{}{
				"user_id": payment.UserID,
				"reason":  reason,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func paymentStateError(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) error {
	var exists bool
	if err := tx.GetContext(ctx, &exists, "SELECT EXISTS(SELECT 1 FROM payments WHERE id = $1)", id); err != nil {
		return err
	}
	if exists {
		return ErrPaymentNotPending
	}
	return ErrPaymentNotFound
}
