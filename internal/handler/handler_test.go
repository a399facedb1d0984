package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/clintonochieng072-gif/ClintonStack-websites-sub002/internal/auth"
	"github.com/clintonochieng072-gif/ClintonStack-websites-sub002/internal/config"
	"github.com/clintonochieng072-gif/ClintonStack-websites-sub002/internal/gateway"
	"github.com/clintonochieng072-gif/ClintonStack-websites-sub002/internal/model"
	"github.com/clintonochieng072-gif/ClintonStack-websites-sub002/internal/repository"
	"github.com/clintonochieng072-gif/ClintonStack-websites-sub002/internal/repository/memstore"
	"github.com/clintonochieng072-gif/ClintonStack-websites-sub002/internal/response"
	"github.com/clintonochieng072-gif/ClintonStack-websites-sub002/internal/service"
)

type testServer struct {
	app   *fiber.App
	store *memstore.Store
}

const testWebhookToken = "hook-secret"

// stubGateway accepts callbacks of the form {"ref": "...", "ok": true, "amount": "100"}.
type stubGateway struct{}

func (stubGateway) Name() string { return "mpesa" }

func (stubGateway) STKPush(_ context.Context, req gateway.STKRequest) (*gateway.STKResponse, error) {
	return &gateway.STKResponse{ExternalRef: "ws_CO_" + req.Reference}, nil
}

func (stubGateway) ParseCallback(body []byte) (*gateway.CallbackResult, error) {
	var cb struct {
		Ref    string              `json:"ref"`
		OK     bool                `json:"ok"`
		Amount decimal.NullDecimal `json:"amount"`
	}
	if err := json.Unmarshal(body, &cb); err != nil || cb.Ref == "" {
		return nil, gateway.ErrInvalidCallback
	}
	return &gateway.CallbackResult{ExternalRef: cb.Ref, Success: cb.OK, Amount: cb.Amount}, nil
}

func newTestServer(t *testing.T, gateways ...gateway.Gateway) *testServer {
	t.Helper()

	store := memstore.New()
	logger := zap.NewNop()
	tokens := auth.NewTokenIssuer("test-secret", "clintonstack", time.Hour)
	cfg := config.AffiliateConfig{
		DefaultCommissionRate: config.DefaultCommissionRate,
		MinWithdrawal:         config.DefaultMinWithdrawal,
		WithdrawalWindow:      config.WithdrawalWindow,
		RestoreOnReject:       config.DefaultRestoreOnReject,
		ReferralCodeLength:    8,
		ReferralCodeAttempts:  10,
	}

	notifySvc := service.NewNotificationService(store, logger)
	referralSvc := service.NewReferralService(store, logger)
	commissionSvc := service.NewCommissionService(store, logger)
	userSvc := service.NewUserService(store, referralSvc, tokens, cfg, logger)
	withdrawalSvc := service.NewWithdrawalService(store, cfg, logger)
	withdrawalSvc.SetNotifier(notifySvc)
	affiliateSvc := service.NewAffiliateService(store, userSvc, referralSvc, commissionSvc, withdrawalSvc, logger)
	paymentSvc := service.NewPaymentService(store, gateway.NewRegistry(gateways...), commissionSvc, "http://localhost", logger)
	paymentSvc.SetNotifier(notifySvc)
	paymentSvc.SetWebhookSecret(testWebhookToken)
	adminSvc := service.NewAdminService(store, withdrawalSvc, logger)
	siteSvc := service.NewSiteService(store, logger)

	h := New(userSvc, affiliateSvc, withdrawalSvc, paymentSvc, siteSvc, notifySvc, logger)
	adminHandler := NewAdminHandler(withdrawalSvc, paymentSvc, commissionSvc, userSvc, adminSvc, logger)

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(logger)})
	Routes(app, h, adminHandler, tokens, store)

	return &testServer{app: app, store: store}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	raw, _ := io.ReadAll(resp.Body)
	return resp, raw
}

func (s *testServer) expect(t *testing.T, method, path, token string, body interface{}, status int, out interface{}) {
	t.Helper()
	resp, raw := s.do(t, method, path, token, body)
	if resp.StatusCode != status {
		t.Fatalf("%s %s status = %d, want %d; body %s", method, path, resp.StatusCode, status, raw)
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			t.Fatalf("%s %s: decode %s: %v", method, path, raw, err)
		}
	}
}

func (s *testServer) expectError(t *testing.T, method, path, token string, body interface{}, status int, code string) {
	t.Helper()
	var e response.ErrorBody
	s.expect(t, method, path, token, body, status, &e)
	if e.Code != code || e.Error == "" || e.Timestamp == "" {
		t.Errorf("%s %s error body = %+v, want code %s", method, path, e, code)
	}
}

type session struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

func (s *testServer) register(t *testing.T, email, referralCode string) session {
	t.Helper()
	var out session
	s.expect(t, "POST", "/api/auth/register", "", map[string]string{
		"email":        email,
		"name":         "User " + email,
		"password":     "password123",
		"referralCode": referralCode,
	}, fiber.StatusCreated, &out)
	return out
}

func (s *testServer) affiliate(t *testing.T, email string, balance int64) session {
	t.Helper()
	sess := s.register(t, email, "")
	var out session
	s.expect(t, "POST", "/api/user/role", sess.Token, map[string]string{"role": "affiliate"}, fiber.StatusOK, &out)
	a, err := s.store.GetAffiliateByUserID(context.Background(), out.User.ID)
	if err != nil {
		t.Fatalf("affiliate record: %v", err)
	}
	s.store.SetBalance(a.ID, decimal.NewFromInt(balance))
	return out
}

func (s *testServer) admin(t *testing.T) session {
	t.Helper()
	sess := s.register(t, "admin-"+uuid.NewString()[:8]+"@example.com", "")
	if _, err := s.store.SetUserRole(context.Background(), sess.User.ID, model.RoleAdmin, decimal.Zero); err != nil {
		t.Fatalf("SetUserRole() error = %v", err)
	}
	return sess
}

func TestWithdrawalEndpoints(t *testing.T) {
	s := newTestServer(t)
	aff := s.affiliate(t, "aff@example.com", 1000)
	admin := s.admin(t)

	var created struct {
		Message      string    `json:"message"`
		WithdrawalID uuid.UUID `json:"withdrawalId"`
	}
	s.expect(t, "POST", "/api/affiliate/withdraw", aff.Token, map[string]interface{}{
		"amount": 300, "phoneNumber": "0712345678", "mpesaName": "Jane Wanjiku",
	}, fiber.StatusCreated, &created)
	if created.WithdrawalID == uuid.Nil || created.Message == "" {
		t.Fatalf("withdraw response = %+v", created)
	}

	s.expectError(t, "POST", "/api/affiliate/withdraw", aff.Token, map[string]interface{}{
		"amount": 300, "phoneNumber": "0712345678", "mpesaName": "Jane Wanjiku",
	}, fiber.StatusTooManyRequests, response.CodeRateLimit)

	var page model.WithdrawalPage
	s.expect(t, "GET", "/api/admin/withdrawals/list?status=pending", admin.Token, nil, fiber.StatusOK, &page)
	if page.Total != 1 || page.Withdrawals[0].ID != created.WithdrawalID {
		t.Fatalf("pending page = %+v", page)
	}

	approve := map[string]string{"withdrawalId": created.WithdrawalID.String(), "action": "approve", "transactionId": "QHX1"}
	s.expect(t, "POST", "/api/admin/withdrawals/approve", admin.Token, approve, fiber.StatusOK, nil)
	s.expectError(t, "POST", "/api/admin/withdrawals", admin.Token, approve, fiber.StatusConflict, response.CodeConflict)

	var balance model.AffiliateBalance
	s.expect(t, "GET", "/api/affiliate/balance", aff.Token, nil, fiber.StatusOK, &balance)
	if !balance.AvailableBalance.Equal(decimal.NewFromInt(700)) {
		t.Errorf("availableBalance = %s, want 700", balance.AvailableBalance)
	}
	if len(balance.WithdrawalHistory) != 1 || balance.WithdrawalHistory[0].Status != model.WithdrawalStatusCompleted {
		t.Errorf("history = %+v", balance.WithdrawalHistory)
	}
}

func TestWithdrawalDenyAlias(t *testing.T) {
	s := newTestServer(t)
	aff := s.affiliate(t, "aff@example.com", 1000)
	admin := s.admin(t)

	var created struct {
		WithdrawalID uuid.UUID `json:"withdrawalId"`
	}
	s.expect(t, "POST", "/api/affiliate/withdraw", aff.Token, map[string]interface{}{
		"amount": "250.50", "phoneNumber": "0712345678", "mpesaName": "Jane",
	}, fiber.StatusCreated, &created)

	var out struct {
		Withdrawal model.WithdrawalRequest `json:"withdrawal"`
	}
	s.expect(t, "POST", "/api/admin/withdrawals", admin.Token, map[string]string{
		"withdrawalId": created.WithdrawalID.String(), "action": "deny", "reason": "wrong name",
	}, fiber.StatusOK, &out)
	if out.Withdrawal.Status != model.WithdrawalStatusFailed {
		t.Errorf("status = %s, want failed", out.Withdrawal.Status)
	}

	var balance model.AffiliateBalance
	s.expect(t, "GET", "/api/affiliate/balance", aff.Token, nil, fiber.StatusOK, &balance)
	if !balance.AvailableBalance.Equal(decimal.RequireFromString("1250.50")) {
		t.Errorf("availableBalance = %s, want 1250.50", balance.AvailableBalance)
	}

	s.expectError(t, "POST", "/api/admin/withdrawals", admin.Token, map[string]string{
		"withdrawalId": created.WithdrawalID.String(), "action": "cancel",
	}, fiber.StatusBadRequest, response.CodeValidation)
}

func TestWithdrawValidationErrors(t *testing.T) {
	s := newTestServer(t)
	aff := s.affiliate(t, "aff@example.com", 1000)
	client := s.register(t, "client@example.com", "")

	s.expectError(t, "POST", "/api/affiliate/withdraw", aff.Token, map[string]interface{}{
		"amount": 50, "phoneNumber": "0712345678", "mpesaName": "Jane",
	}, fiber.StatusBadRequest, response.CodeValidation)
	s.expectError(t, "POST", "/api/affiliate/withdraw", aff.Token, map[string]interface{}{
		"amount": 5000, "phoneNumber": "0712345678", "mpesaName": "Jane",
	}, fiber.StatusBadRequest, response.CodeValidation)
	s.expectError(t, "POST", "/api/affiliate/withdraw", client.Token, map[string]interface{}{
		"amount": 300, "phoneNumber": "0712345678", "mpesaName": "Jane",
	}, fiber.StatusUnauthorized, response.CodeAuth)
	s.expectError(t, "POST", "/api/affiliate/withdraw", "", nil, fiber.StatusUnauthorized, response.CodeAuth)

	if n := s.store.WithdrawalCount(); n != 0 {
		t.Errorf("withdrawals stored = %d, want 0", n)
	}
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	s := newTestServer(t)
	aff := s.affiliate(t, "aff@example.com", 0)

	for _, path := range []string{"/api/admin/withdrawals", "/api/admin/audit-logs", "/api/admin/settings", "/api/admin/payments/pending"} {
		s.expectError(t, "GET", path, aff.Token, nil, fiber.StatusForbidden, response.CodeForbidden)
	}
}

func TestAffiliateStatsShape(t *testing.T) {
	s := newTestServer(t)
	aff := s.affiliate(t, "aff@example.com", 0)
	s.register(t, "friend@example.com", *aff.User.ReferralCode)

	var stats map[string]interface{}
	s.expect(t, "GET", "/api/affiliate/stats", aff.Token, nil, fiber.StatusOK, &stats)
	for _, key := range []string{"totalReferrals", "convertedReferrals", "totalEarnings", "availableBalance", "referralCode", "affiliateId", "productStats"} {
		if _, ok := stats[key]; !ok {
			t.Errorf("stats missing %q: %v", key, stats)
		}
	}
	if stats["totalReferrals"] != float64(1) {
		t.Errorf("totalReferrals = %v, want 1", stats["totalReferrals"])
	}

	var referrals struct {
		Referrals []model.ReferralDetail `json:"referrals"`
	}
	s.expect(t, "GET", "/api/affiliate/referrals", aff.Token, nil, fiber.StatusOK, &referrals)
	if len(referrals.Referrals) != 1 || referrals.Referrals[0].PaymentStatus != model.ReferralPaymentPending {
		t.Errorf("referrals = %+v", referrals.Referrals)
	}

	client := s.register(t, "client@example.com", "")
	s.expectError(t, "GET", "/api/affiliate/stats", client.Token, nil, fiber.StatusUnauthorized, response.CodeAuth)
}

func TestManualPaymentApprovalCreditsAffiliate(t *testing.T) {
	s := newTestServer(t)
	aff := s.affiliate(t, "aff@example.com", 0)
	payer := s.register(t, "payer@example.com", *aff.User.ReferralCode)
	admin := s.admin(t)

	manual := map[string]interface{}{"mpesaCode": "QHX1234567", "phoneNumber": "0712345678", "amount": 1000, "product": "website"}
	var submitted struct {
		Payment model.Payment `json:"payment"`
	}
	s.expect(t, "POST", "/api/payments/manual", payer.Token, manual, fiber.StatusCreated, &submitted)
	s.expectError(t, "POST", "/api/payments/manual", payer.Token, manual, fiber.StatusConflict, response.CodeConflict)

	path := fmt.Sprintf("/api/admin/payments/%s/approve", submitted.Payment.ID)
	var confirmed model.PaymentConfirmation
	s.expect(t, "POST", path, admin.Token, nil, fiber.StatusOK, &confirmed)
	if confirmed.Commission == nil || !confirmed.Commission.CommissionAmount.Equal(decimal.NewFromInt(150)) {
		t.Fatalf("confirmation = %+v", confirmed)
	}
	s.expectError(t, "POST", path, admin.Token, nil, fiber.StatusConflict, response.CodeConflict)

	var commission model.Commission
	s.expect(t, "GET", "/api/affiliate/referrals/"+payer.User.ID.String()+"/commission", aff.Token, nil, fiber.StatusOK, &commission)
	if commission.ID != confirmed.Commission.ID {
		t.Errorf("commission = %+v", commission)
	}

	s.expect(t, "POST", "/api/admin/commissions/"+commission.ID.String()+"/paid", admin.Token, nil, fiber.StatusOK, nil)
}

func TestPaymentVisibility(t *testing.T) {
	s := newTestServer(t)
	owner := s.register(t, "owner@example.com", "")
	other := s.register(t, "other@example.com", "")

	var submitted struct {
		Payment model.Payment `json:"payment"`
	}
	s.expect(t, "POST", "/api/payments/manual", owner.Token, map[string]interface{}{
		"mpesaCode": "ABC1234567", "phoneNumber": "0712345678", "amount": 100, "product": "website",
	}, fiber.StatusCreated, &submitted)

	s.expect(t, "GET", "/api/payments/"+submitted.Payment.ID.String(), owner.Token, nil, fiber.StatusOK, nil)
	s.expectError(t, "GET", "/api/payments/"+submitted.Payment.ID.String(), other.Token, nil, fiber.StatusNotFound, response.CodeNotFound)
	s.expectError(t, "GET", "/api/payments/not-a-uuid", owner.Token, nil, fiber.StatusBadRequest, response.CodeValidation)
}

func TestPaymentWebhook(t *testing.T) {
	s := newTestServer(t, stubGateway{})
	payer := s.register(t, "payer@example.com", "")

	var pushed struct {
		Payment map[string]interface{} `json:"payment"`
	}
	s.expect(t, "POST", "/api/payments/stk", payer.Token, map[string]interface{}{
		"provider": "mpesa", "phoneNumber": "0712345678", "amount": 1000, "product": "website",
	}, fiber.StatusAccepted, &pushed)
	if _, ok := pushed.Payment["externalRef"]; ok {
		t.Errorf("stk response exposes externalRef: %v", pushed.Payment)
	}
	id, _ := uuid.Parse(pushed.Payment["id"].(string))

	var mine struct {
		Payments []map[string]interface{} `json:"payments"`
	}
	s.expect(t, "GET", "/api/payments", payer.Token, nil, fiber.StatusOK, &mine)
	if len(mine.Payments) != 1 {
		t.Fatalf("payments = %v", mine.Payments)
	}
	if _, ok := mine.Payments[0]["externalRef"]; ok {
		t.Errorf("payment list exposes externalRef: %v", mine.Payments[0])
	}
	var one map[string]interface{}
	s.expect(t, "GET", "/api/payments/"+id.String(), payer.Token, nil, fiber.StatusOK, &one)
	if _, ok := one["externalRef"]; ok {
		t.Errorf("payment exposes externalRef: %v", one)
	}

	ref := "ws_CO_" + id.String()
	paid := map[string]interface{}{"ref": ref, "ok": true, "amount": "1000"}

	if resp, _ := s.do(t, "POST", "/webhook/mpesa", "", paid); resp.StatusCode != fiber.StatusNotFound {
		t.Errorf("tokenless webhook status = %d, want 404", resp.StatusCode)
	}
	s.expectError(t, "POST", "/webhook/mpesa/wrong", "", paid, fiber.StatusUnauthorized, response.CodeAuth)
	s.expectError(t, "POST", "/webhook/mpesa/"+testWebhookToken, "", map[string]interface{}{"ref": ref, "ok": true, "amount": "10"}, fiber.StatusBadRequest, response.CodeValidation)
	s.expectError(t, "POST", "/webhook/mpesa/"+testWebhookToken, "", map[string]string{}, fiber.StatusBadRequest, response.CodeValidation)
	s.expectError(t, "POST", "/webhook/payhero/"+testWebhookToken, "", paid, fiber.StatusBadRequest, response.CodeValidation)

	stored, err := s.store.GetPayment(context.Background(), id)
	if err != nil || stored.Status != model.PaymentStatusPending {
		t.Fatalf("payment before valid callback = %+v, %v", stored, err)
	}

	var ack map[string]interface{}
	s.expect(t, "POST", "/webhook/mpesa/"+testWebhookToken, "", paid, fiber.StatusOK, &ack)
	if ack["ResultCode"] != float64(0) {
		t.Errorf("ack = %v", ack)
	}
	s.expect(t, "POST", "/webhook/mpesa/"+testWebhookToken, "", map[string]interface{}{"ref": "ws_CO_unknown", "ok": true, "amount": "1"}, fiber.StatusOK, nil)

	stored, _ = s.store.GetPayment(context.Background(), id)
	if stored.Status != model.PaymentStatusCompleted {
		t.Errorf("status = %s, want completed", stored.Status)
	}
}

func TestSiteEndpoints(t *testing.T) {
	s := newTestServer(t)
	owner := s.register(t, "owner@example.com", "")
	admin := s.admin(t)

	var site model.Site
	s.expect(t, "POST", "/api/site/niche", owner.Token, map[string]string{"niche": "restaurant"}, fiber.StatusOK, &site)
	if len(site.DraftBlocks) != 6 {
		t.Fatalf("draft blocks = %d, want 6", len(site.DraftBlocks))
	}

	s.expectError(t, "PUT", "/api/site/draft", owner.Token, map[string]interface{}{
		"blocks": []map[string]string{{"type": "marquee"}},
	}, fiber.StatusBadRequest, response.CodeValidation)
	s.expectError(t, "POST", "/api/site/publish", owner.Token, nil, fiber.StatusForbidden, response.CodeForbidden)
	s.expectError(t, "GET", "/sites/"+site.Slug, "", nil, fiber.StatusNotFound, response.CodeNotFound)

	var submitted struct {
		Payment model.Payment `json:"payment"`
	}
	s.expect(t, "POST", "/api/payments/manual", owner.Token, map[string]interface{}{
		"mpesaCode": "QHX1234567", "phoneNumber": "0712345678", "amount": 1500, "product": "website",
	}, fiber.StatusCreated, &submitted)
	s.expect(t, "POST", "/api/admin/payments/"+submitted.Payment.ID.String()+"/approve", admin.Token, nil, fiber.StatusOK, nil)

	s.expect(t, "POST", "/api/site/publish", owner.Token, nil, fiber.StatusOK, nil)

	var public model.PublicSite
	s.expect(t, "GET", "/sites/"+site.Slug, "", nil, fiber.StatusOK, &public)
	if public.Niche != model.NicheRestaurant || len(public.Blocks) != 6 {
		t.Errorf("public site = %+v", public)
	}
}

func TestNotificationsEndpoints(t *testing.T) {
	s := newTestServer(t)
	admin := s.admin(t)
	aff := s.affiliate(t, "aff@example.com", 1000)

	s.expect(t, "POST", "/api/affiliate/withdraw", aff.Token, map[string]interface{}{
		"amount": 300, "phoneNumber": "0712345678", "mpesaName": "Jane",
	}, fiber.StatusCreated, nil)

	var out struct {
		Notifications []model.Notification `json:"notifications"`
	}
	s.expect(t, "GET", "/api/notifications", admin.Token, nil, fiber.StatusOK, &out)
	if len(out.Notifications) != 1 || out.Notifications[0].Type != model.NotificationWithdrawalRequest {
		t.Fatalf("notifications = %+v", out.Notifications)
	}

	id := out.Notifications[0].ID.String()
	s.expectError(t, "POST", "/api/notifications/"+id+"/read", aff.Token, nil, fiber.StatusNotFound, response.CodeNotFound)
	s.expect(t, "POST", "/api/notifications/"+id+"/read", admin.Token, nil, fiber.StatusOK, nil)
}

func TestAdminSettings(t *testing.T) {
	s := newTestServer(t)
	admin := s.admin(t)

	var settings map[string]string
	s.expect(t, "GET", "/api/admin/settings", admin.Token, nil, fiber.StatusOK, &settings)
	if settings[repository.SettingWithdrawalMinAmount] != "200.00" {
		t.Errorf("settings = %v", settings)
	}

	s.expect(t, "POST", "/api/admin/settings/withdrawal-minimum", admin.Token, map[string]interface{}{"amount": 300}, fiber.StatusOK, nil)
	s.expectError(t, "POST", "/api/admin/settings/withdrawal-minimum", admin.Token, map[string]interface{}{"amount": 0}, fiber.StatusBadRequest, response.CodeValidation)

	var logs struct {
		Logs []model.AuditLog `json:"logs"`
	}
	s.expect(t, "GET", "/api/admin/audit-logs", admin.Token, nil, fiber.StatusOK, &logs)
	if len(logs.Logs) != 1 || logs.Logs[0].Action != model.AuditActionSettingChanged {
		t.Errorf("logs = %+v", logs.Logs)
	}
}

func TestLogin(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "jane@example.com", "")

	var out session
	s.expect(t, "POST", "/api/auth/login", "", map[string]string{"email": "jane@example.com", "password": "password123"}, fiber.StatusOK, &out)
	if out.Token == "" {
		t.Error("missing token")
	}
	s.expectError(t, "POST", "/api/auth/login", "", map[string]string{"email": "jane@example.com", "password": "nope"}, fiber.StatusUnauthorized, response.CodeAuth)
	s.expectError(t, "POST", "/api/auth/register", "", map[string]string{"email": "jane@example.com", "name": "J", "password": "password123"}, fiber.StatusConflict, response.CodeConflict)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{repository.ErrWithdrawalWindow, fiber.StatusTooManyRequests},
		{fmt.Errorf("%w of KES 200.00", service.ErrAmountBelowMinimum), fiber.StatusBadRequest},
		{repository.ErrWithdrawalNotPending, fiber.StatusConflict},
		{service.ErrNotAffiliate, fiber.StatusUnauthorized},
		{service.ErrPaymentRequired, fiber.StatusForbidden},
		{fmt.Errorf("%w: timeout", service.ErrGatewayFailed), fiber.StatusBadGateway},
		{repository.ErrSiteNotFound, fiber.StatusNotFound},
		{service.ErrWebhookUnauthorized, fiber.StatusUnauthorized},
		{service.ErrCallbackAmountMismatch, fiber.StatusBadRequest},
		{service.ErrPaymentNotCompleted, fiber.StatusConflict},
		{service.ErrCommissionTooLarge, fiber.StatusBadRequest},
		{errors.New("connection reset"), fiber.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestExpireStalePaymentsEndpoint(t *testing.T) {
	s := newTestServer(t)
	admin := s.admin(t)
	user := s.register(t, "user@example.com", "")

	var out struct {
		Expired int `json:"expired"`
	}
	s.expect(t, "POST", "/api/admin/payments/expire", admin.Token, nil, fiber.StatusOK, &out)
	if out.Expired != 0 {
		t.Errorf("expired = %d, want 0", out.Expired)
	}
	s.expectError(t, "POST", "/api/admin/payments/expire", user.Token, nil, fiber.StatusForbidden, response.CodeForbidden)
}

func TestCreateCommissionEndpoint(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	aff := s.affiliate(t, "aff@example.com", 0)
	payer := s.register(t, "payer@example.com", *aff.User.ReferralCode)
	admin := s.admin(t)

	if _, err := s.store.SetUserRole(ctx, aff.User.ID, model.RoleClient, decimal.Zero); err != nil {
		t.Fatalf("SetUserRole() error = %v", err)
	}
	var submitted struct {
		Payment model.Payment `json:"payment"`
	}
	s.expect(t, "POST", "/api/payments/manual", payer.Token, map[string]interface{}{
		"mpesaCode": "QHX1234567", "phoneNumber": "0712345678", "amount": 1000, "product": "website",
	}, fiber.StatusCreated, &submitted)

	affRecord, err := s.store.GetAffiliateByUserID(ctx, aff.User.ID)
	if err != nil {
		t.Fatalf("GetAffiliateByUserID() error = %v", err)
	}
	body := map[string]interface{}{"affiliateId": affRecord.ID, "paymentId": submitted.Payment.ID, "amount": 150}
	s.expectError(t, "POST", "/api/admin/commissions", admin.Token, body, fiber.StatusConflict, response.CodeConflict)

	var confirmed model.PaymentConfirmation
	s.expect(t, "POST", "/api/admin/payments/"+submitted.Payment.ID.String()+"/approve", admin.Token, nil, fiber.StatusOK, &confirmed)
	if confirmed.Commission != nil {
		t.Fatalf("commission for inactive affiliate = %+v", confirmed.Commission)
	}
	if _, err := s.store.SetUserRole(ctx, aff.User.ID, model.RoleAffiliate, decimal.Zero); err != nil {
		t.Fatalf("SetUserRole() error = %v", err)
	}

	s.expectError(t, "POST", "/api/admin/commissions", aff.Token, body, fiber.StatusForbidden, response.CodeForbidden)
	s.expectError(t, "POST", "/api/admin/commissions", admin.Token, map[string]interface{}{
		"affiliateId": affRecord.ID, "paymentId": uuid.New(), "amount": 150,
	}, fiber.StatusNotFound, response.CodeNotFound)

	var commission model.Commission
	s.expect(t, "POST", "/api/admin/commissions", admin.Token, body, fiber.StatusCreated, &commission)
	if commission.ReferralID == nil || !commission.CommissionAmount.Equal(decimal.NewFromInt(150)) {
		t.Fatalf("commission = %+v", commission)
	}
	s.expectError(t, "POST", "/api/admin/commissions", admin.Token, body, fiber.StatusConflict, response.CodeConflict)

	var stats map[string]interface{}
	s.expect(t, "GET", "/api/affiliate/stats", aff.Token, nil, fiber.StatusOK, &stats)
	if stats["convertedReferrals"] != float64(1) {
		t.Errorf("convertedReferrals = %v, want 1", stats["convertedReferrals"])
	}
	var referrals struct {
		Referrals []model.ReferralDetail `json:"referrals"`
	}
	s.expect(t, "GET", "/api/affiliate/referrals", aff.Token, nil, fiber.StatusOK, &referrals)
	if len(referrals.Referrals) != 1 || referrals.Referrals[0].PaymentStatus != model.ReferralPaymentPaid {
		t.Errorf("referrals = %+v", referrals.Referrals)
	}
}
