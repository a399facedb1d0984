package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/clintonochieng072-gif/ClintonStack-websites-sub002/internal/metrics"
	"github.com/clintonochieng072-gif/ClintonStack-websites-sub002/internal/model"
	"github.com/clintonochieng072-gif/ClintonStack-websites-sub002/internal/repository"
)

type CommissionRepository interface {
	AffiliateStore
	ReferralStore
	CommissionStore
	GetPayment(ctx context.Context, id uuid.UUID) (*model.Payment, error)
}

type CommissionService struct {
	repo   CommissionRepository
	logger *zap.Logger
}

func NewCommissionService(repo CommissionRepository, logger *zap.Logger) *CommissionService {
	return &CommissionService{repo: repo, logger: logger}
}

func (s *CommissionService) FindForReferral(ctx context.Context, affiliateID, referredUserID uuid.UUID) (*model.Commission, error) {
	return s.repo.FindCommissionForReferral(ctx, affiliateID, referredUserID)
}

// Draft works out the commission owed for a payer's payment. It returns nil when
// the payer was not referred or the referring affiliate is inactive.
func (s *CommissionService) Draft(ctx context.Context, payerID uuid.UUID, amount decimal.Decimal) (*model.CommissionDraft, error) {
	referral, err := s.repo.GetReferralByReferredUser(ctx, payerID)
	if err != nil {
		if errors.Is(err, repository.ErrReferralNotFound) {
			return nil, nil
		}
		return nil, err
	}

	affiliate, err := s.repo.GetAffiliate(ctx, referral.AffiliateID)
	if err != nil {
		if errors.Is(err, repository.ErrAffiliateNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if affiliate.Status != model.AffiliateStatusActive {
		return nil, nil
	}

	commission := amount.Mul(affiliate.CommissionRate).Round(2)
	if !commission.IsPositive() {
		return nil, nil
	}

	return &model.CommissionDraft{
		AffiliateID: affiliate.ID,
		ReferralID:  &referral.ID,
		Amount:      commission,
	}, nil
}

// CreateFromPayment records a commission for a completed payment the affiliate
// referred and credits the affiliate's balance. It backfills commissions that
// were not drafted at confirmation time.
func (s *CommissionService) CreateFromPayment(ctx context.Context, affiliateID, paymentID uuid.UUID, amount decimal.Decimal) (*model.Commission, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	payment, err := s.repo.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.Status != model.PaymentStatusCompleted {
		return nil, ErrPaymentNotCompleted
	}
	if amount.GreaterThan(payment.Amount) {
		return nil, ErrCommissionTooLarge
	}

	referral, err := s.repo.GetReferralByReferredUser(ctx, payment.UserID)
	if err != nil {
		return nil, err
	}
	if referral.AffiliateID != affiliateID {
		return nil, repository.ErrReferralNotFound
	}

	commission, err := s.repo.CreateCommission(ctx, paymentID, model.CommissionDraft{
		AffiliateID: affiliateID,
		ReferralID:  &referral.ID,
		Amount:      amount,
	})
	if err != nil {
		return nil, err
	}

	metrics.CommissionsCreated.Inc()
	s.logger.Info("commission created",
		zap.String("commission_id", commission.ID.String()),
		zap.String("affiliate_id", affiliateID.String()),
		zap.String("payment_id", paymentID.String()),
		zap.Stringer("amount", amount))
	return commission, nil
}

func (s *CommissionService) GetStats(ctx context.Context, affiliateID uuid.UUID) (*model.CommissionStats, error) {
	stats, err := s.repo.GetCommissionStats(ctx, affiliateID)
	if err != nil {
		return nil, err
	}
	if stats.ProductStats == nil {
		stats.ProductStats = []model.ProductStat{}
	}
	return stats, nil
}

func (s *CommissionService) MarkPaid(ctx context.Context, adminID, commissionID uuid.UUID) (*model.Commission, error) {
	commission, err := s.repo.MarkCommissionPaid(ctx, commissionID, adminID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("commission marked paid",
		zap.String("commission_id", commissionID.String()),
		zap.String("admin_id", adminID.String()))
	return commission, nil
}
