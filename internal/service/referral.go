package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/clintonochieng072-gif/ClintonStack-websites-sub002/internal/model"
)

type ReferralRepository interface {
	AffiliateStore
	ReferralStore
	CommissionStore
}

type ReferralService struct {
	repo   ReferralRepository
	logger *zap.Logger
	now    func() time.Time
}

func NewReferralService(repo ReferralRepository, logger *zap.Logger) *ReferralService {
	return &ReferralService{repo: repo, logger: logger, now: time.Now}
}

// Record links a newly signed-up user to the affiliate whose code they used.
// A user can be referred at most once.
func (s *ReferralService) Record(ctx context.Context, affiliateID, referredUserID uuid.UUID) (*model.Referral, error) {
	affiliate, err := s.repo.GetAffiliate(ctx, affiliateID)
	if err != nil {
		return nil, err
	}
	if affiliate.UserID == referredUserID {
		return nil, ErrSelfReferral
	}

	now := s.now()
	referral := &model.Referral{
		AffiliateID:    affiliateID,
		ReferredUserID: referredUserID,
		Status:         model.ReferralStatusActive,
		ClickTimestamp: now,
	}
	if err := s.repo.CreateReferral(ctx, referral); err != nil {
		return nil, err
	}

	s.logger.Info("referral recorded",
		zap.String("affiliate_id", affiliateID.String()),
		zap.String("referred_user_id", referredUserID.String()))
	return referral, nil
}

func (s *ReferralService) GetStats(ctx context.Context, affiliateID uuid.UUID) (*model.ReferralStats, error) {
	return s.repo.GetReferralStats(ctx, affiliateID)
}

// ListByAffiliate returns the affiliate's referrals, newest first, each marked
// paid when a commission exists for the referred user.
func (s *ReferralService) ListByAffiliate(ctx context.Context, affiliateID uuid.UUID) ([]model.ReferralDetail, error) {
	referrals, err := s.repo.ListReferralsByAffiliate(ctx, affiliateID)
	if err != nil {
		return nil, err
	}

	paidUsers, err := s.repo.ListCommissionedUserIDs(ctx, affiliateID)
	if err != nil {
		return nil, err
	}
	paid := make(map[uuid.UUID]struct{}, len(paidUsers))
	for _, id := range paidUsers {
		paid[id] = struct{}{}
	}

	for i := range referrals {
		_, hasCommission := paid[referrals[i].ReferredUserID]
		if hasCommission || referrals[i].Status == model.ReferralStatusConverted {
			referrals[i].PaymentStatus = model.ReferralPaymentPaid
		} else {
			referrals[i].PaymentStatus = model.ReferralPaymentPending
		}
	}

	if referrals == nil {
		referrals = []model.ReferralDetail{}
	}
	return referrals, nil
}
