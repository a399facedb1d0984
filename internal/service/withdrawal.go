package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/clintonochieng072-gif/ClintonStack-websites-sub002/internal/auth"
	"github.com/clintonochieng072-gif/ClintonStack-websites-sub002/internal/config"
	"github.com/clintonochieng072-gif/ClintonStack-websites-sub002/internal/metrics"
	"github.com/clintonochieng072-gif/ClintonStack-websites-sub002/internal/model"
	"github.com/clintonochieng072-gif/ClintonStack-websites-sub002/internal/repository"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type WithdrawalRepository interface {
	UserStore
	AffiliateStore
	WithdrawalStore
	SettingsStore
}

type WithdrawalService struct {
	repo     WithdrawalRepository
	cfg      config.AffiliateConfig
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time
}

func NewWithdrawalService(repo WithdrawalRepository, cfg config.AffiliateConfig, logger *zap.Logger) *WithdrawalService {
	return &WithdrawalService{repo: repo, cfg: cfg, logger: logger, now: time.Now}
}

func (s *WithdrawalService) SetNotifier(notifier Notifier) {
	s.notifier = notifier
}

type CreateWithdrawalInput struct {
	UserID      uuid.UUID
	Amount      decimal.Decimal
	PhoneNumber string
	MpesaName   string
}

// Create files a pending withdrawal request. The balance is only checked here;
// it is debited when an admin approves the request.
func (s *WithdrawalService) Create(ctx context.Context, in CreateWithdrawalInput) (*model.WithdrawalRequest, error) {
	user, err := s.repo.GetUser(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	if !auth.Allow(user.Role, auth.PermRequestWithdrawal) {
		return nil, ErrNotAffiliate
	}
	affiliate, err := s.repo.GetAffiliateByUserID(ctx, in.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrAffiliateNotFound) {
			return nil, ErrNotAffiliate
		}
		return nil, err
	}

	if !in.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	minimum := s.MinimumAmount(ctx)
	if in.Amount.LessThan(minimum) {
		return nil, fmt.Errorf("%w of KES %s", ErrAmountBelowMinimum, minimum.StringFixed(2))
	}
	if in.Amount.GreaterThan(affiliate.AvailableBalance) {
		return nil, repository.ErrInsufficientBalance
	}

	phoneInput := in.PhoneNumber
	if strings.TrimSpace(phoneInput) == "" && affiliate.MpesaPhone != nil {
		phoneInput = *affiliate.MpesaPhone
	}
	phone, err := NormalizePhone(phoneInput)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.MpesaName)
	if name == "" && affiliate.MpesaName != nil {
		name = *affiliate.MpesaName
	}
	if name == "" {
		return nil, ErrMpesaNameRequired
	}

	w := &model.WithdrawalRequest{
		UserID:      in.UserID,
		Amount:      in.Amount.Round(2),
		PhoneNumber: phone,
		MpesaName:   name,
	}
	since := s.now().Add(-s.cfg.WithdrawalWindow)
	if err := s.repo.CreateWithdrawal(ctx, w, affiliate.ID, since); err != nil {
		return nil, err
	}

	metrics.WithdrawalsCreated.Inc()
	s.logger.Info("withdrawal requested",
		zap.String("withdrawal_id", w.ID.String()),
		zap.String("user_id", in.UserID.String()),
		zap.Stringer("amount", w.Amount))

	if s.notifier != nil {
		s.notifier.NotifyAdmins(ctx, "New withdrawal request",
			fmt.Sprintf("%s requested a withdrawal of KES %s to %s", name, w.Amount.StringFixed(2), phone),
			model.NotificationWithdrawalRequest)
	}
	return w, nil
}

type ProcessWithdrawalInput struct {
	AdminID       uuid.UUID
	WithdrawalID  uuid.UUID
	Action        model.WithdrawalAction
	TransactionID string
	Reason        string
}

// Process approves or rejects a pending request exactly once. A second call on
// the same request fails with repository.ErrWithdrawalNotPending.
func (s *WithdrawalService) Process(ctx context.Context, in ProcessWithdrawalInput) (*model.WithdrawalRequest, error) {
	action, ok := in.Action.Normalize()
	if !ok {
		return nil, ErrInvalidAction
	}

	decision := model.WithdrawalDecision{
		WithdrawalID:   in.WithdrawalID,
		AdminID:        in.AdminID,
		Approve:        action == model.WithdrawalActionApprove,
		RestoreBalance: s.cfg.RestoreOnReject,
	}
	if tx := strings.TrimSpace(in.TransactionID); tx != "" {
		decision.TransactionID = &tx
	}
	if reason := strings.TrimSpace(in.Reason); reason != "" {
		decision.Reason = &reason
	}

	w, err := s.repo.ProcessWithdrawal(ctx, decision)
	if err != nil {
		return nil, err
	}

	outcome := "rejected"
	title := "Withdrawal rejected"
	message := fmt.Sprintf("Your withdrawal of KES %s was rejected", w.Amount.StringFixed(2))
	if decision.Approve {
		outcome = "approved"
		title = "Withdrawal approved"
		message = fmt.Sprintf("Your withdrawal of KES %s has been sent to %s", w.Amount.StringFixed(2), w.PhoneNumber)
	} else if decision.Reason != nil {
		message += ": " + *decision.Reason
	}

	metrics.WithdrawalsProcessed.WithLabelValues(outcome).Inc()
	s.logger.Info("withdrawal processed",
		zap.String("withdrawal_id", w.ID.String()),
		zap.String("admin_id", in.AdminID.String()),
		zap.String("outcome", outcome))

	if s.notifier != nil {
		s.notifier.Notify(ctx, w.UserID, title, message, model.NotificationWithdrawalUpdate)
	}
	return w, nil
}

func (s *WithdrawalService) List(ctx context.Context, status string, page, pageSize int) (*model.WithdrawalPage, error) {
	filter := model.WithdrawalStatus(strings.ToLower(strings.TrimSpace(status)))
	switch filter {
	case "", model.WithdrawalStatusPending, model.WithdrawalStatusCompleted, model.WithdrawalStatusFailed:
	default:
		return nil, ErrInvalidStatus
	}

	page, pageSize = normalizePage(page, pageSize)
	withdrawals, total, err := s.repo.ListWithdrawals(ctx, filter, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}
	if withdrawals == nil {
		withdrawals = []model.WithdrawalRequest{}
	}

	return &model.WithdrawalPage{
		Withdrawals: withdrawals,
		Total:       total,
		Page:        page,
		PageSize:    pageSize,
	}, nil
}

func (s *WithdrawalService) ListForUser(ctx context.Context, userID uuid.UUID) ([]model.WithdrawalRequest, error) {
	withdrawals, err := s.repo.ListUserWithdrawals(ctx, userID)
	if err != nil {
		return nil, err
	}
	if withdrawals == nil {
		withdrawals = []model.WithdrawalRequest{}
	}
	return withdrawals, nil
}

// MinimumAmount returns the admin-set minimum, falling back to configuration.
func (s *WithdrawalService) MinimumAmount(ctx context.Context) decimal.Decimal {
	value, err := s.repo.GetSettingDecimal(ctx, repository.SettingWithdrawalMinAmount)
	if err != nil {
		if !errors.Is(err, repository.ErrSettingNotFound) {
			s.logger.Warn("invalid withdrawal minimum setting, using default", zap.Error(err))
		}
		return s.cfg.MinWithdrawal
	}
	if !value.IsPositive() {
		return s.cfg.MinWithdrawal
	}
	return value
}

func (s *WithdrawalService) SetMinimumAmount(ctx context.Context, adminID uuid.UUID, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if err := s.repo.SetSetting(ctx, adminID, repository.SettingWithdrawalMinAmount, amount.StringFixed(2)); err != nil {
		return err
	}
	s.logger.Info("withdrawal minimum changed",
		zap.String("admin_id", adminID.String()),
		zap.Stringer("amount", amount))
	return nil
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}
