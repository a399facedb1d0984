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
	ErrReferralNotFound  = errors.New("referral not found")
	ErrDuplicateReferral = errors.New("user already has a referral")
)

func (r *Repository) CreateReferral(ctx context.Context, referral *model.Referral) error {
	query := `
		INSERT INTO referrals (affiliate_id, referred_user_id, status, click_timestamp)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		referral.AffiliateID,
		referral.ReferredUserID,
		referral.Status,
		referral.ClickTimestamp,
	).Scan(&referral.ID, &referral.CreatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicateReferral
	}
	return err
}

func (r *Repository) GetReferralByReferredUser(ctx context.Context, referredUserID uuid.UUID) (*model.Referral, error) {
	var referral model.Referral
	err := r.db.GetContext(ctx, &referral, "SELECT * FROM referrals WHERE referred_user_id = $1", referredUserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReferralNotFound
		}
		return nil, err
	}
	return &referral, nil
}

func (r *Repository) GetReferralStats(ctx context.Context, affiliateID uuid.UUID) (*model.ReferralStats, error) {
	stats := &model.ReferralStats{}
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE status = 'converted')
		FROM referrals WHERE affiliate_id = $1`, affiliateID).Scan(&stats.Total, &stats.Converted)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

func (r *Repository) ListReferralsByAffiliate(ctx context.Context, affiliateID uuid.UUID) ([]model.ReferralDetail, error) {
	var referrals []model.ReferralDetail
	query := `
		SELECT r.*, u.name AS referred_name, u.email AS referred_email
		FROM referrals r
		INNER JOIN users u ON u.id = r.referred_user_id
		WHERE r.affiliate_id = $1
		ORDER BY r.created_at DESC`
	err := r.db.SelectContext(ctx, &referrals, query, affiliateID)
	return referrals, err
}

// markReferralConverted keeps the first conversion timestamp.
func markReferralConverted(ctx context.Context, tx *sqlx.Tx, referralID uuid.UUID) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE referrals
		SET status = 'converted', conversion_timestamp = COALESCE(conversion_timestamp, NOW())
		WHERE id = $1`, referralID)
	return err
}
