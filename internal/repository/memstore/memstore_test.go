package memstore

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clintonochieng072-gif/ClintonStack-websites-sub002/internal/model"
	"github.com/clintonochieng072-gif/ClintonStack-websites-sub002/internal/repository"
)

func TestCreateCommissionRequiresPayment(t *testing.T) {
	ctx := context.Background()
	s := New()

	user := &model.User{Email: "aff@example.com", Name: "Aff"}
	if err := s.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	aff, err := s.EnsureAffiliate(ctx, user.ID, decimal.RequireFromString("0.15"))
	if err != nil {
		t.Fatalf("EnsureAffiliate() error = %v", err)
	}
	payment := &model.Payment{
		UserID:   user.ID,
		Amount:   decimal.NewFromInt(500),
		Currency: model.CurrencyKES,
		Provider: model.PaymentProviderManual,
		Product:  "website",
		Status:   model.PaymentStatusCompleted,
	}
	if err := s.CreatePayment(ctx, payment); err != nil {
		t.Fatalf("CreatePayment() error = %v", err)
	}

	draft := model.CommissionDraft{AffiliateID: aff.ID, Amount: decimal.NewFromInt(75)}
	if _, err := s.CreateCommission(ctx, uuid.New(), draft); !errors.Is(err, repository.ErrPaymentNotFound) {
		t.Errorf("unknown payment error = %v, want ErrPaymentNotFound", err)
	}
	if _, err := s.CreateCommission(ctx, payment.ID, model.CommissionDraft{AffiliateID: uuid.New(), Amount: draft.Amount}); !errors.Is(err, repository.ErrAffiliateNotFound) {
		t.Errorf("unknown affiliate error = %v, want ErrAffiliateNotFound", err)
	}

	got, err := s.GetAffiliate(ctx, aff.ID)
	if err != nil {
		t.Fatalf("GetAffiliate() error = %v", err)
	}
	if !got.AvailableBalance.IsZero() {
		t.Fatalf("balance after rejected inserts = %s, want 0", got.AvailableBalance)
	}

	if _, err := s.CreateCommission(ctx, payment.ID, draft); err != nil {
		t.Fatalf("CreateCommission() error = %v", err)
	}
	if _, err := s.CreateCommission(ctx, payment.ID, draft); !errors.Is(err, repository.ErrCommissionExists) {
		t.Errorf("duplicate error = %v, want ErrCommissionExists", err)
	}
	got, err = s.GetAffiliate(ctx, aff.ID)
	if err != nil {
		t.Fatalf("GetAffiliate() error = %v", err)
	}
	if !got.AvailableBalance.Equal(decimal.NewFromInt(75)) {
		t.Errorf("balance = %s, want 75", got.AvailableBalance)
	}
}
