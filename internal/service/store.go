package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clintonochieng072-gif/ClintonStack-websites-sub002/internal/model"
	"github.com/clintonochieng072-gif/ClintonStack-websites-sub002/internal/repository"
)

type UserStore interface {
	GetUser(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByReferralCode(ctx context.Context, code string) (*model.User, error)
	CreateUser(ctx context.Context, user *model.User) error
	ReferralCodeExists(ctx context.Context, code string) (bool, error)
	AssignReferralCode(ctx context.Context, userID uuid.UUID, code string) (string, error)
	SetUserRole(ctx context.Context, userID uuid.UUID, role model.Role, rate decimal.Decimal) (*model.User, error)
	ListUserIDsByRole(ctx context.Context, role model.Role) ([]uuid.UUID, error)
}

type AffiliateStore interface {
	GetAffiliate(ctx context.Context, id uuid.UUID) (*model.Affiliate, error)
	GetAffiliateByUserID(ctx context.Context, userID uuid.UUID) (*model.Affiliate, error)
	EnsureAffiliate(ctx context.Context, userID uuid.UUID, rate decimal.Decimal) (*model.Affiliate, error)
	UpdatePayoutDetails(ctx context.Context, userID uuid.UUID, mpesaName, mpesaPhone string) error
	GetBalanceTransactions(ctx context.Context, affiliateID uuid.UUID, limit, offset int) ([]model.BalanceTransaction, error)
}

type ReferralStore interface {
	CreateReferral(ctx context.Context, referral *model.Referral) error
	GetReferralByReferredUser(ctx context.Context, referredUserID uuid.UUID) (*model.Referral, error)
	GetReferralStats(ctx context.Context, affiliateID uuid.UUID) (*model.ReferralStats, error)
	ListReferralsByAffiliate(ctx context.Context, affiliateID uuid.UUID) ([]model.ReferralDetail, error)
}

type CommissionStore interface {
	FindCommissionForReferral(ctx context.Context, affiliateID, referredUserID uuid.UUID) (*model.Commission, error)
	ListCommissionedUserIDs(ctx context.Context, affiliateID uuid.UUID) ([]uuid.UUID, error)
	CreateCommission(ctx context.Context, paymentID uuid.UUID, draft model.CommissionDraft) (*model.Commission, error)
	GetCommissionStats(ctx context.Context, affiliateID uuid.UUID) (*model.CommissionStats, error)
	MarkCommissionPaid(ctx context.Context, id, adminID uuid.UUID) (*model.Commission, error)
}

type PaymentStore interface {
	GetPayment(ctx context.Context, id uuid.UUID) (*model.Payment, error)
	GetPaymentByExternalRef(ctx context.Context, provider model.PaymentProvider, ref string) (*model.Payment, error)
	GetUserPayments(ctx context.Context, userID uuid.UUID) ([]model.Payment, error)
	CreatePayment(ctx context.Context, payment *model.Payment) error
	SetPaymentExternalRef(ctx context.Context, id uuid.UUID, ref string) error
	ListPendingPayments(ctx context.Context, provider model.PaymentProvider) ([]model.Payment, error)
	ListStalePayments(ctx context.Context, cutoff time.Time) ([]model.Payment, error)
	ConfirmPayment(ctx context.Context, id uuid.UUID, draft *model.CommissionDraft, adminID *uuid.UUID) (*model.PaymentConfirmation, error)
	FailPayment(ctx context.Context, id uuid.UUID, reason string, adminID *uuid.UUID) (*model.Payment, error)
}

type WithdrawalStore interface {
	CreateWithdrawal(ctx context.Context, w *model.WithdrawalRequest, affiliateID uuid.UUID, since time.Time) error
	ProcessWithdrawal(ctx context.Context, d model.WithdrawalDecision) (*model.WithdrawalRequest, error)
	ListWithdrawals(ctx context.Context, status model.WithdrawalStatus, limit, offset int) ([]model.WithdrawalRequest, int, error)
	ListUserWithdrawals(ctx context.Context, userID uuid.UUID) ([]model.WithdrawalRequest, error)
}

type NotificationStore interface {
	CreateNotifications(ctx context.Context, userIDs []uuid.UUID, title, message string, typ model.NotificationType) error
	ListNotifications(ctx context.Context, userID uuid.UUID, limit int) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, userID, id uuid.UUID) error
}

type AuditStore interface {
	LogAuditAction(ctx context.Context, actorID uuid.UUID, action string, targetID *uuid.UUID, details interface{}) error
	ListAuditLogs(ctx context.Context, limit, offset int) ([]model.AuditLog, error)
	ListAuditLogsByTarget(ctx context.Context, targetID uuid.UUID, limit int) ([]model.AuditLog, error)
}

type SettingsStore interface {
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, actorID uuid.UUID, key, value string) error
	GetSettingDecimal(ctx context.Context, key string) (decimal.Decimal, error)
	GetAllSettings(ctx context.Context) (map[string]string, error)
}

type SiteStore interface {
	GetSiteByUserID(ctx context.Context, userID uuid.UUID) (*model.Site, error)
	GetSiteBySlug(ctx context.Context, slug string) (*model.Site, error)
	CreateSite(ctx context.Context, site *model.Site) error
	UpdateSiteDraft(ctx context.Context, site *model.Site) error
	PublishSite(ctx context.Context, id uuid.UUID) (*model.Site, error)
}

// Store is everything the services need from persistence.
type Store interface {
	UserStore
	AffiliateStore
	ReferralStore
	CommissionStore
	PaymentStore
	WithdrawalStore
	NotificationStore
	AuditStore
	SettingsStore
	SiteStore
}

var _ Store = (*repository.Repository)(nil)
