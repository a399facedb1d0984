package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/clintonochieng072-gif/ClintonStack-websites-sub002/internal/gateway"
	"github.com/clintonochieng072-gif/ClintonStack-websites-sub002/internal/model"
	"github.com/clintonochieng072-gif/ClintonStack-websites-sub002/internal/repository"
)

// fakeGateway accepts callbacks of the form {"ref": "...", "ok": true, "amount": "100"}.
type fakeGateway struct {
	name    string
	pushErr error

	mu       sync.Mutex
	requests []gateway.STKRequest
}

func (g *fakeGateway) Name() string { return g.name }

func (g *fakeGateway) STKPush(_ context.Context, req gateway.STKRequest) (*gateway.STKResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.requests = append(g.requests, req)
	if g.pushErr != nil {
		return nil, g.pushErr
	}
	return &gateway.STKResponse{ExternalRef: "ref-" + req.Reference}, nil
}

func (g *fakeGateway) ParseCallback(body []byte) (*gateway.CallbackResult, error) {
	var cb struct {
		Ref    string              `json:"ref"`
		OK     bool                `json:"ok"`
		Final  *bool               `json:"final"`
		Amount decimal.NullDecimal `json:"amount"`
	}
	if err := json.Unmarshal(body, &cb); err != nil || cb.Ref == "" {
		return nil, gateway.ErrInvalidCallback
	}
	if cb.Final != nil && !*cb.Final {
		return nil, gateway.ErrCallbackNotFinal
	}
	res := &gateway.CallbackResult{ExternalRef: cb.Ref, Success: cb.OK, Amount: cb.Amount}
	if !cb.OK {
		res.Reason = "cancelled by user"
	}
	return res, nil
}

func callback(ref string, ok bool, amount string) []byte {
	fields := map[string]interface{}{"ref": ref, "ok": ok}
	if amount != "" {
		fields["amount"] = amount
	}
	body, _ := json.Marshal(fields)
	return body
}

func TestSTKPushAndCallback(t *testing.T) {
	gw := &fakeGateway{name: "mpesa"}
	env := newTestEnv(t, gw)
	ctx := context.Background()
	affUser, aff := env.affiliate(t, "aff@example.com", 0)
	payer := env.register(t, "payer@example.com", *affUser.ReferralCode)

	payment, err := env.payments.InitiateSTKPush(ctx, STKPushInput{
		UserID:   payer.ID,
		Provider: model.PaymentProviderMpesa,
		Phone:    "0712345678",
		Amount:   dec("2000"),
		Product:  "website",
	})
	if err != nil {
		t.Fatalf("InitiateSTKPush() error = %v", err)
	}
	if payment.Status != model.PaymentStatusPending || payment.ExternalRef == nil {
		t.Fatalf("payment = %+v", payment)
	}
	if len(gw.requests) != 1 || gw.requests[0].CallbackURL != "https://api.example.com/webhook/mpesa/"+testWebhookToken {
		t.Fatalf("requests = %+v", gw.requests)
	}
	if gw.requests[0].Phone != "254712345678" {
		t.Errorf("phone = %s", gw.requests[0].Phone)
	}

	if err := env.payments.HandleCallback(ctx, "mpesa", testWebhookToken, callback(*payment.ExternalRef, true, "2000")); err != nil {
		t.Fatalf("HandleCallback() error = %v", err)
	}

	stored, err := env.payments.GetPayment(ctx, payer.ID, payer.Role, payment.ID)
	if err != nil {
		t.Fatalf("GetPayment() error = %v", err)
	}
	if stored.Status != model.PaymentStatusCompleted || stored.CompletedAt == nil {
		t.Errorf("payment = %+v", stored)
	}
	user, _ := env.users.GetUser(ctx, payer.ID)
	if !user.HasPaid {
		t.Error("has_paid not set")
	}
	if got := env.balance(t, aff.ID); !got.Equal(dec("300")) {
		t.Errorf("affiliate balance = %s, want 300", got)
	}

	// A replayed callback is acknowledged and changes nothing.
	if err := env.payments.HandleCallback(ctx, "mpesa", testWebhookToken, callback(*payment.ExternalRef, true, "2000")); err != nil {
		t.Fatalf("replayed HandleCallback() error = %v", err)
	}
	if got := env.balance(t, aff.ID); !got.Equal(dec("300")) {
		t.Errorf("affiliate balance after replay = %s, want 300", got)
	}
	if n := len(env.store.Notifications(payer.ID)); n != 1 {
		t.Errorf("payer notifications = %d, want 1", n)
	}
}

func TestCallbackFailureAndNonFinal(t *testing.T) {
	gw := &fakeGateway{name: "intasend"}
	env := newTestEnv(t, gw)
	ctx := context.Background()
	payer := env.register(t, "payer@example.com", "")

	payment, err := env.payments.InitiateSTKPush(ctx, STKPushInput{
		UserID: payer.ID, Provider: model.PaymentProviderIntaSend, Phone: "0712345678", Amount: dec("100"), Product: "website",
	})
	if err != nil {
		t.Fatalf("InitiateSTKPush() error = %v", err)
	}

	if err := env.payments.HandleCallback(ctx, "intasend", testWebhookToken, []byte(`{"ref":"`+*payment.ExternalRef+`","final":false}`)); err != nil {
		t.Fatalf("non-final HandleCallback() error = %v", err)
	}
	stored, _ := env.store.GetPayment(ctx, payment.ID)
	if stored.Status != model.PaymentStatusPending {
		t.Fatalf("status after non-final = %s, want pending", stored.Status)
	}

	if err := env.payments.HandleCallback(ctx, "intasend", testWebhookToken, callback(*payment.ExternalRef, false, "")); err != nil {
		t.Fatalf("HandleCallback() error = %v", err)
	}
	stored, _ = env.store.GetPayment(ctx, payment.ID)
	if stored.Status != model.PaymentStatusFailed || stored.FailureReason == nil || *stored.FailureReason != "cancelled by user" {
		t.Errorf("payment = %+v", stored)
	}

	if err := env.payments.HandleCallback(ctx, "intasend", testWebhookToken, callback("unknown", true, "100")); !errors.Is(err, repository.ErrPaymentNotFound) {
		t.Errorf("unknown ref error = %v, want ErrPaymentNotFound", err)
	}
	if err := env.payments.HandleCallback(ctx, "intasend", testWebhookToken, []byte(`{}`)); !errors.Is(err, gateway.ErrInvalidCallback) {
		t.Errorf("invalid body error = %v, want ErrInvalidCallback", err)
	}
	if err := env.payments.HandleCallback(ctx, "payhero", testWebhookToken, callback("x", true, "100")); !errors.Is(err, gateway.ErrGatewayNotConfigured) {
		t.Errorf("unconfigured provider error = %v, want ErrGatewayNotConfigured", err)
	}
}

func TestCallbackRequiresWebhookToken(t *testing.T) {
	gw := &fakeGateway{name: "mpesa"}
	env := newTestEnv(t, gw)
	ctx := context.Background()
	payer := env.register(t, "payer@example.com", "")

	payment, err := env.payments.InitiateSTKPush(ctx, STKPushInput{
		UserID: payer.ID, Provider: model.PaymentProviderMpesa, Phone: "0712345678", Amount: dec("100"), Product: "website",
	})
	if err != nil {
		t.Fatalf("InitiateSTKPush() error = %v", err)
	}
	body := callback(*payment.ExternalRef, true, "100")

	for _, token := range []string{"", "hook-secreT", testWebhookToken + "x"} {
		if err := env.payments.HandleCallback(ctx, "mpesa", token, body); !errors.Is(err, ErrWebhookUnauthorized) {
			t.Errorf("token %q error = %v, want ErrWebhookUnauthorized", token, err)
		}
	}

	env.payments.SetWebhookSecret("")
	if err := env.payments.HandleCallback(ctx, "mpesa", "", body); !errors.Is(err, ErrWebhookUnauthorized) {
		t.Errorf("unset secret error = %v, want ErrWebhookUnauthorized", err)
	}

	stored, _ := env.store.GetPayment(ctx, payment.ID)
	if stored.Status != model.PaymentStatusPending {
		t.Errorf("status = %s, want pending", stored.Status)
	}
}

func TestCallbackAmountMustCoverPayment(t *testing.T) {
	gw := &fakeGateway{name: "mpesa"}
	env := newTestEnv(t, gw)
	ctx := context.Background()
	affUser, aff := env.affiliate(t, "aff@example.com", 0)
	payer := env.register(t, "payer@example.com", *affUser.ReferralCode)

	payment, err := env.payments.InitiateSTKPush(ctx, STKPushInput{
		UserID: payer.ID, Provider: model.PaymentProviderMpesa, Phone: "0712345678", Amount: dec("1500.50"), Product: "website",
	})
	if err != nil {
		t.Fatalf("InitiateSTKPush() error = %v", err)
	}
	ref := *payment.ExternalRef

	for _, amount := range []string{"", "1", "1500", "1502"} {
		if err := env.payments.HandleCallback(ctx, "mpesa", testWebhookToken, callback(ref, true, amount)); !errors.Is(err, ErrCallbackAmountMismatch) {
			t.Errorf("amount %q error = %v, want ErrCallbackAmountMismatch", amount, err)
		}
	}
	stored, _ := env.store.GetPayment(ctx, payment.ID)
	if stored.Status != model.PaymentStatusPending {
		t.Fatalf("status after mismatches = %s, want pending", stored.Status)
	}
	if got := env.balance(t, aff.ID); !got.IsZero() {
		t.Fatalf("affiliate balance after mismatches = %s, want 0", got)
	}

	// M-Pesa bills whole shillings, so the rounded-up charge is accepted.
	if err := env.payments.HandleCallback(ctx, "mpesa", testWebhookToken, callback(ref, true, "1501")); err != nil {
		t.Fatalf("HandleCallback() error = %v", err)
	}
	stored, _ = env.store.GetPayment(ctx, payment.ID)
	if stored.Status != model.PaymentStatusCompleted {
		t.Errorf("status = %s, want completed", stored.Status)
	}
	if got := env.balance(t, aff.ID); !got.Equal(dec("225.08")) {
		t.Errorf("affiliate balance = %s, want 225.08", got)
	}
}

func TestSTKPushGatewayFailure(t *testing.T) {
	gw := &fakeGateway{name: "payhero", pushErr: errors.New("upstream timeout")}
	env := newTestEnv(t, gw)
	ctx := context.Background()
	payer := env.register(t, "payer@example.com", "")

	_, err := env.payments.InitiateSTKPush(ctx, STKPushInput{
		UserID: payer.ID, Provider: model.PaymentProviderPayHero, Phone: "0712345678", Amount: dec("100"), Product: "website",
	})
	if !errors.Is(err, ErrGatewayFailed) {
		t.Fatalf("error = %v, want ErrGatewayFailed", err)
	}

	payments, err := env.payments.ListUserPayments(ctx, payer.ID)
	if err != nil {
		t.Fatalf("ListUserPayments() error = %v", err)
	}
	if len(payments) != 1 || payments[0].Status != model.PaymentStatusFailed {
		t.Errorf("payments = %+v", payments)
	}
}

func TestSTKPushValidation(t *testing.T) {
	env := newTestEnv(t, &fakeGateway{name: "mpesa"})
	ctx := context.Background()
	payer := env.register(t, "payer@example.com", "")

	base := STKPushInput{UserID: payer.ID, Provider: model.PaymentProviderMpesa, Phone: "0712345678", Amount: dec("100"), Product: "website"}
	tests := []struct {
		name    string
		mutate  func(*STKPushInput)
		wantErr error
	}{
		{name: "manual provider", mutate: func(in *STKPushInput) { in.Provider = model.PaymentProviderManual }, wantErr: ErrInvalidProvider},
		{name: "unconfigured provider", mutate: func(in *STKPushInput) { in.Provider = model.PaymentProviderIntaSend }, wantErr: gateway.ErrGatewayNotConfigured},
		{name: "zero amount", mutate: func(in *STKPushInput) { in.Amount = dec("0") }, wantErr: ErrInvalidAmount},
		{name: "no product", mutate: func(in *STKPushInput) { in.Product = "" }, wantErr: ErrProductRequired},
		{name: "bad phone", mutate: func(in *STKPushInput) { in.Phone = "123" }, wantErr: ErrInvalidPhone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := base
			tt.mutate(&in)
			if _, err := env.payments.InitiateSTKPush(ctx, in); !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestManualPaymentFlow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.newAdmin(t)
	payer := env.register(t, "payer@example.com", "")

	in := ManualPaymentInput{UserID: payer.ID, MpesaCode: "qhx1234567", Phone: "0712345678", Amount: dec("500"), Product: "website"}
	payment, err := env.payments.SubmitManualPayment(ctx, in)
	if err != nil {
		t.Fatalf("SubmitManualPayment() error = %v", err)
	}
	if *payment.ExternalRef != "QHX1234567" {
		t.Errorf("code = %s, want upper-cased", *payment.ExternalRef)
	}
	if n := len(env.store.Notifications(admin.ID)); n != 1 {
		t.Errorf("admin notifications = %d, want 1", n)
	}

	if _, err := env.payments.SubmitManualPayment(ctx, in); !errors.Is(err, repository.ErrDuplicateExternalRef) {
		t.Errorf("duplicate code error = %v, want ErrDuplicateExternalRef", err)
	}
	in.MpesaCode = "SHORT"
	if _, err := env.payments.SubmitManualPayment(ctx, in); !errors.Is(err, ErrInvalidMpesaCode) {
		t.Errorf("invalid code error = %v, want ErrInvalidMpesaCode", err)
	}

	pending, err := env.payments.ListPendingManual(ctx)
	if err != nil || len(pending) != 1 {
		t.Fatalf("ListPendingManual() = %v, %v", pending, err)
	}

	rejected, err := env.payments.Fail(ctx, payment.ID, "code not found on statement", &admin.ID)
	if err != nil {
		t.Fatalf("Fail() error = %v", err)
	}
	if rejected.Status != model.PaymentStatusFailed {
		t.Errorf("status = %s, want failed", rejected.Status)
	}
	if _, err := env.payments.Confirm(ctx, payment.ID, &admin.ID); !errors.Is(err, repository.ErrPaymentNotPending) {
		t.Errorf("confirm after reject error = %v, want ErrPaymentNotPending", err)
	}

	var audited bool
	for _, l := range env.store.AuditLogs() {
		if l.Action == model.AuditActionPaymentRejected && l.ActorID == admin.ID {
			audited = true
		}
	}
	if !audited {
		t.Error("manual rejection was not audited")
	}
}

func TestGetPaymentVisibility(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.newAdmin(t)
	owner := env.register(t, "owner@example.com", "")
	other := env.register(t, "other@example.com", "")

	payment, err := env.payments.SubmitManualPayment(ctx, ManualPaymentInput{
		UserID: owner.ID, MpesaCode: "ABC1234567", Phone: "0712345678", Amount: dec("100"), Product: "website",
	})
	if err != nil {
		t.Fatalf("SubmitManualPayment() error = %v", err)
	}

	if _, err := env.payments.GetPayment(ctx, other.ID, model.RoleClient, payment.ID); !errors.Is(err, repository.ErrPaymentNotFound) {
		t.Errorf("other user error = %v, want ErrPaymentNotFound", err)
	}
	if _, err := env.payments.GetPayment(ctx, admin.ID, model.RoleAdmin, payment.ID); err != nil {
		t.Errorf("admin error = %v", err)
	}
}

func TestValidMpesaCode(t *testing.T) {
	tests := map[string]bool{
		"QHX1234567":  true,
		"0000000000":  true,
		"qhx1234567":  false,
		"QHX123456":   false,
		"QHX12345678": false,
		"QHX-234567":  false,
	}
	for code, want := range tests {
		if got := validMpesaCode(code); got != want {
			t.Errorf("validMpesaCode(%q) = %v, want %v", code, got, want)
		}
	}
}
