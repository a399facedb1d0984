package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/clintonochieng072-gif/ClintonStack-websites-sub002/internal/model"
)

// AffiliateService assembles the affiliate dashboard read models.
type AffiliateService struct {
	users       *UserService
	referrals   *ReferralService
	commissions *CommissionService
	withdrawals *WithdrawalService
	repo        AffiliateStore
	logger      *zap.Logger
}

func NewAffiliateService(
	repo AffiliateStore,
	users *UserService,
	referrals *ReferralService,
	commissions *CommissionService,
	withdrawals *WithdrawalService,
	logger *zap.Logger,
) *AffiliateService {
	return &AffiliateService{
		users:       users,
		referrals:   referrals,
		commissions: commissions,
		withdrawals: withdrawals,
		repo:        repo,
		logger:      logger,
	}
}

// affiliateFor loads the caller and repairs a missing affiliate record.
func (s *AffiliateService) affiliateFor(ctx context.Context, userID uuid.UUID) (*model.User, *model.Affiliate, error) {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	affiliate, err := s.users.EnsureAffiliate(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return user, affiliate, nil
}

func (s *AffiliateService) GetBalance(ctx context.Context, userID uuid.UUID) (*model.AffiliateBalance, error) {
	_, affiliate, err := s.affiliateFor(ctx, userID)
	if err != nil {
		return nil, err
	}

	history, err := s.withdrawals.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &model.AffiliateBalance{
		AvailableBalance:  affiliate.AvailableBalance,
		TotalEarned:       affiliate.TotalEarned,
		WithdrawalHistory: history,
	}, nil
}

func (s *AffiliateService) GetDashboardStats(ctx context.Context, userID uuid.UUID) (*model.AffiliateStats, error) {
	_, affiliate, err := s.affiliateFor(ctx, userID)
	if err != nil {
		return nil, err
	}

	code, err := s.users.GenerateUniqueReferralCode(ctx, userID)
	if err != nil {
		return nil, err
	}

	referralStats, err := s.referrals.GetStats(ctx, affiliate.ID)
	if err != nil {
		return nil, err
	}
	commissionStats, err := s.commissions.GetStats(ctx, affiliate.ID)
	if err != nil {
		return nil, err
	}

	return &model.AffiliateStats{
		TotalReferrals:     referralStats.Total,
		ConvertedReferrals: referralStats.Converted,
		TotalEarnings:      affiliate.TotalEarned,
		PendingEarnings:    commissionStats.PendingCommissions,
		AvailableBalance:   affiliate.AvailableBalance,
		ReferralCode:       code,
		AffiliateID:        affiliate.ID,
		ProductStats:       commissionStats.ProductStats,
	}, nil
}

func (s *AffiliateService) ListReferrals(ctx context.Context, userID uuid.UUID) ([]model.ReferralDetail, error) {
	_, affiliate, err := s.affiliateFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.referrals.ListByAffiliate(ctx, affiliate.ID)
}

// ReferralCommission returns the commission attributed to one referred user.
func (s *AffiliateService) ReferralCommission(ctx context.Context, userID, referredUserID uuid.UUID) (*model.Commission, error) {
	_, affiliate, err := s.affiliateFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.commissions.FindForReferral(ctx, affiliate.ID, referredUserID)
}

func (s *AffiliateService) BalanceHistory(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]model.BalanceTransaction, error) {
	_, affiliate, err := s.affiliateFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	page, pageSize = normalizePage(page, pageSize)
	transactions, err := s.repo.GetBalanceTransactions(ctx, affiliate.ID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}
	if transactions == nil {
		transactions = []model.BalanceTransaction{}
	}
	return transactions, nil
}
