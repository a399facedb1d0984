package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/clintonochieng072-gif/ClintonStack-websites-sub002/internal/model"
)

var (
	ErrCommissionNotFound   = errors.New("commission not found")
	ErrCommissionNotPending = errors.New("commission is not pending")
	ErrCommissionExists     = errors.New("commission already recorded for payment")
)

// FindCommissionForReferral returns the commission attributed to the referred
// user's referral, falling back to the oldest commission earned on the user's
// payments.
func (r *Repository) FindCommissionForReferral(ctx context.Context, affiliateID, referredUserID uuid.UUID) (*model.Commission, error) {
	var commission model.Commission
	err := r.db.GetContext(ctx, &commission, `
		SELECT c.* FROM commissions c
		INNER JOIN payments p ON p.id = c.payment_id
		LEFT JOIN referrals ref ON ref.id = c.referral_id
		WHERE c.affiliate_id = $1 AND (ref.referred_user_id = $2 OR p.user_id = $2)
		ORDER BY (ref.referred_user_id = $2) IS TRUE DESC, c.created_at ASC
		LIMIT 1`, affiliateID, referredUserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCommissionNotFound
		}
		return nil, err
	}
	return &commission, nil
}

// ListCommissionedUserIDs returns the payers that earned the affiliate at least
// one commission.
func (r *Repository) ListCommissionedUserIDs(ctx context.Context, affiliateID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.SelectContext(ctx, &ids, `
		SELECT DISTINCT p.user_id FROM commissions c
		INNER JOIN payments p ON p.id = c.payment_id
		WHERE c.affiliate_id = $1`, affiliateID)
	return ids, err
}

// CreateCommission records a commission for an already completed payment and
// credits the affiliate in one transaction.
func (r *Repository) CreateCommission(ctx context.Context, paymentID uuid.UUID, draft model.CommissionDraft) (*model.Commission, error) {
	var commission *model.Commission
	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		commission, err = insertCommission(ctx, tx, paymentID, draft)
		if err != nil {
			return err
		}
		if commission == nil {
			return ErrCommissionExists
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return commission, nil
}

// insertCommission writes a pending commission, credits the affiliate and marks
// the referral converted. It returns nil when the payment already has a commission.
func insertCommission(ctx context.Context, tx *sqlx.Tx, paymentID uuid.UUID, draft model.CommissionDraft) (*model.Commission, error) {
	var commission model.Commission
	err := tx.GetContext(ctx, &commission, `
		INSERT INTO commissions (affiliate_id, payment_id, referral_id, commission_amount, status)
		VALUES ($1, $2, $3, $4, 'pending')
		ON CONFLICT (payment_id) DO NOTHING
		RETURNING *`,
		draft.AffiliateID, paymentID, draft.ReferralID, draft.Amount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		if isForeignKeyViolation(err, "commissions_payment_id_fkey") {
			return nil, ErrPaymentNotFound
		}
		if isForeignKeyViolation(err, "commissions_affiliate_id_fkey") {
			return nil, ErrAffiliateNotFound
		}
		return nil, err
	}

	if _, err := applyBalanceDelta(ctx, tx, draft.AffiliateID, draft.Amount, model.TransactionTypeCommission, &commission.ID); err != nil {
		return nil, err
	}

	if draft.ReferralID != nil {
		if err := markReferralConverted(ctx, tx, *draft.ReferralID); err != nil {
			return nil, err
		}
	}

	return &commission, nil
}

func (r *Repository) GetCommissionStats(ctx context.Context, affiliateID uuid.UUID) (*model.CommissionStats, error) {
	stats := &model.CommissionStats{}
	err := r.db.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(commission_amount) FILTER (WHERE status = 'paid'), 0),
			COALESCE(SUM(commission_amount) FILTER (WHERE status = 'pending'), 0)
		FROM commissions WHERE affiliate_id = $1`, affiliateID).
		Scan(&stats.TotalCommissions, &stats.PendingCommissions)
	if err != nil {
		return nil, err
	}

	err = r.db.SelectContext(ctx, &stats.ProductStats, `
		SELECT p.product AS product, COUNT(*) AS conversions, COALESCE(SUM(c.commission_amount), 0) AS earnings
		FROM commissions c
		INNER JOIN payments p ON p.id = c.payment_id
		WHERE c.affiliate_id = $1 AND c.status <> 'failed'
		GROUP BY p.product
		ORDER BY p.product`, affiliateID)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

func (r *Repository) MarkCommissionPaid(ctx context.Context, id, adminID uuid.UUID) (*model.Commission, error) {
	var commission model.Commission
	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &commission, `
			UPDATE commissions SET status = 'paid', paid_at = NOW()
			WHERE id = $1 AND status = 'pending'
			RETURNING *`, id)
		if errors.Is(err, sql.ErrNoRows) {
			var exists bool
			if err := tx.GetContext(ctx, &exists, "SELECT EXISTS(SELECT 1 FROM commissions WHERE id = $1)", id); err != nil {
				return err
			}
			if exists {
				return ErrCommissionNotPending
			}
			return ErrCommissionNotFound
		}
		if err != nil {
			return err
		}

		return logAudit(ctx, tx, adminID, model.AuditActionCommissionPaid, &commission.ID, map[string]interface{}{
			"affiliate_id": commission.AffiliateID,
			"amount":       commission.CommissionAmount,
		})
	})
	if err != nil {
		return nil, err
	}
	return &commission, nil
}
