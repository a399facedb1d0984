package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/clintonochieng072-gif/ClintonStack-websites-sub002/internal/auth"
	"github.com/clintonochieng072-gif/ClintonStack-websites-sub002/internal/config"
	"github.com/clintonochieng072-gif/ClintonStack-websites-sub002/internal/gateway"
	"github.com/clintonochieng072-gif/ClintonStack-websites-sub002/internal/model"
	"github.com/clintonochieng072-gif/ClintonStack-websites-sub002/internal/repository/memstore"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Millisecond)
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

const testWebhookToken = "hook-secret"

type testEnv struct {
	store       *memstore.Store
	clock       *testClock
	cfg         config.AffiliateConfig
	users       *UserService
	referrals   *ReferralService
	commissions *CommissionService
	withdrawals *WithdrawalService
	affiliates  *AffiliateService
	payments    *PaymentService
	notify      *NotificationService
	admin       *AdminService
	sites       *SiteService
	gateways    *gateway.Registry
}

func newTestEnv(t *testing.T, gateways ...gateway.Gateway) *testEnv {
	t.Helper()

	clock := &testClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	store := memstore.New()
	store.Now = clock.Now

	cfg := config.AffiliateConfig{
		DefaultCommissionRate: config.DefaultCommissionRate,
		MinWithdrawal:         config.DefaultMinWithdrawal,
		WithdrawalWindow:      config.WithdrawalWindow,
		RestoreOnReject:       config.DefaultRestoreOnReject,
		ReferralCodeLength:    8,
		ReferralCodeAttempts:  10,
	}
	logger := zap.NewNop()
	tokens := auth.NewTokenIssuer("test-secret", "clintonstack", time.Hour)

	env := &testEnv{store: store, clock: clock, cfg: cfg}
	env.notify = NewNotificationService(store, logger)
	env.referrals = NewReferralService(store, logger)
	env.referrals.now = clock.Now
	env.commissions = NewCommissionService(store, logger)
	env.users = NewUserService(store, env.referrals, tokens, cfg, logger)
	env.withdrawals = NewWithdrawalService(store, cfg, logger)
	env.withdrawals.now = clock.Now
	env.withdrawals.SetNotifier(env.notify)
	env.affiliates = NewAffiliateService(store, env.users, env.referrals, env.commissions, env.withdrawals, logger)
	env.gateways = gateway.NewRegistry(gateways...)
	env.payments = NewPaymentService(store, env.gateways, env.commissions, "https://api.example.com/", logger)
	env.payments.now = clock.Now
	env.payments.SetWebhookSecret(testWebhookToken)
	env.payments.SetNotifier(env.notify)
	env.admin = NewAdminService(store, env.withdrawals, logger)
	env.sites = NewSiteService(store, logger)
	return env
}

func (e *testEnv) register(t *testing.T, email, referralCode string) *model.User {
	t.Helper()
	res, err := e.users.Register(context.Background(), RegisterInput{
		Email:        email,
		Name:         "User " + email,
		Password:     "password123",
		ReferralCode: referralCode,
	})
	if err != nil {
		t.Fatalf("Register(%s) error = %v", email, err)
	}
	return res.User
}

func (e *testEnv) newAdmin(t *testing.T) *model.User {
	t.Helper()
	u := e.register(t, "admin-"+uuid.NewString()[:8]+"@example.com", "")
	if _, err := e.store.SetUserRole(context.Background(), u.ID, model.RoleAdmin, decimal.Zero); err != nil {
		t.Fatalf("SetUserRole() error = %v", err)
	}
	return u
}

// affiliate registers a user, promotes it and seeds its balance.
func (e *testEnv) affiliate(t *testing.T, email string, balance int64) (*model.User, *model.Affiliate) {
	t.Helper()
	ctx := context.Background()
	u := e.register(t, email, "")
	res, err := e.users.UpdateRole(ctx, u.ID, u.ID, model.RoleAffiliate)
	if err != nil {
		t.Fatalf("UpdateRole() error = %v", err)
	}
	a, err := e.store.GetAffiliateByUserID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetAffiliateByUserID() error = %v", err)
	}
	e.store.SetBalance(a.ID, decimal.NewFromInt(balance))
	a.AvailableBalance = decimal.NewFromInt(balance)
	return res.User, a
}

func (e *testEnv) balance(t *testing.T, affiliateID uuid.UUID) decimal.Decimal {
	t.Helper()
	a, err := e.store.GetAffiliate(context.Background(), affiliateID)
	if err != nil {
		t.Fatalf("GetAffiliate() error = %v", err)
	}
	return a.AvailableBalance
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
