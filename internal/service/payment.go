package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/clintonochieng072-gif/ClintonStack-websites-sub002/internal/config"
	"github.com/clintonochieng072-gif/ClintonStack-websites-sub002/internal/gateway"
	"github.com/clintonochieng072-gif/ClintonStack-websites-sub002/internal/metrics"
	"github.com/clintonochieng072-gif/ClintonStack-websites-sub002/internal/model"
	"github.com/clintonochieng072-gif/ClintonStack-websites-sub002/internal/repository"
)

type PaymentRepository interface {
	UserStore
	PaymentStore
}

// GatewayResolver looks up a configured payment gateway by provider name.
type GatewayResolver interface {
	Get(name string) (gateway.Gateway, error)
}

type PaymentService struct {
	repo            PaymentRepository
	gateways        GatewayResolver
	commissions     *CommissionService
	notifier        Notifier
	callbackBaseURL string
	webhookSecret   string
	timeout         time.Duration
	logger          *zap.Logger

	now func() time.Time
}

func NewPaymentService(repo PaymentRepository, gateways GatewayResolver, commissions *CommissionService, callbackBaseURL string, logger *zap.Logger) *PaymentService {
	return &PaymentService{
		repo:            repo,
		gateways:        gateways,
		commissions:     commissions,
		callbackBaseURL: strings.TrimRight(callbackBaseURL, "/"),
		timeout:         config.DefaultPaymentTimeout,
		logger:          logger,
		now:             time.Now,
	}
}

func (s *PaymentService) SetNotifier(notifier Notifier) {
	s.notifier = notifier
}

// SetWebhookSecret sets the token gateways must echo in the callback path.
// Callbacks are refused while it is empty.
func (s *PaymentService) SetWebhookSecret(secret string) {
	s.webhookSecret = secret
}

// CallbackURL is the webhook address handed to a provider with each STK push.
func (s *PaymentService) CallbackURL(provider string) string {
	return s.callbackBaseURL + "/webhook/" + provider + "/" + url.PathEscape(s.webhookSecret)
}

func (s *PaymentService) authorizeCallback(token string) error {
	if s.webhookSecret == "" || subtle.ConstantTimeCompare([]byte(token), []byte(s.webhookSecret)) != 1 {
		return ErrWebhookUnauthorized
	}
	return nil
}

// SetTimeout sets how long an STK push may wait for its callback.
func (s *PaymentService) SetTimeout(timeout time.Duration) {
	if timeout > 0 {
		s.timeout = timeout
	}
}

type STKPushInput struct {
	UserID   uuid.UUID
	Provider model.PaymentProvider
	Phone    string
	Amount   decimal.Decimal
	Product  string
}

// InitiateSTKPush records a pending payment and asks the provider to prompt the
// payer. A gateway failure marks the payment failed.
func (s *PaymentService) InitiateSTKPush(ctx context.Context, in STKPushInput) (*model.Payment, error) {
	if in.Provider == model.PaymentProviderManual || in.Provider == "" {
		return nil, ErrInvalidProvider
	}
	gw, err := s.gateways.Get(string(in.Provider))
	if err != nil {
		return nil, err
	}
	if !in.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	product := strings.TrimSpace(in.Product)
	if product == "" {
		return nil, ErrProductRequired
	}
	phone, err := NormalizePhone(in.Phone)
	if err != nil {
		return nil, err
	}

	payment := &model.Payment{
		UserID:      in.UserID,
		Amount:      in.Amount.Round(2),
		Currency:    model.CurrencyKES,
		Provider:    in.Provider,
		Product:     product,
		PhoneNumber: phone,
		Status:      model.PaymentStatusPending,
	}
	if err := s.repo.CreatePayment(ctx, payment); err != nil {
		return nil, err
	}

	res, err := gw.STKPush(ctx, gateway.STKRequest{
		Phone:       phone,
		Amount:      payment.Amount,
		Reference:   payment.ID.String(),
		Description: product,
		CallbackURL: s.CallbackURL(gw.Name()),
	})
	if err != nil {
		s.logger.Error("stk push failed",
			zap.String("payment_id", payment.ID.String()),
			zap.String("provider", gw.Name()),
			zap.Error(err))
		if _, failErr := s.repo.FailPayment(ctx, payment.ID, err.Error(), nil); failErr != nil {
			s.logger.Error("failed to mark payment failed", zap.String("payment_id", payment.ID.String()), zap.Error(failErr))
		}
		metrics.PaymentsFailed.WithLabelValues(gw.Name()).Inc()
		return nil, fmt.Errorf("%w: %v", ErrGatewayFailed, err)
	}

	if err := s.repo.SetPaymentExternalRef(ctx, payment.ID, res.ExternalRef); err != nil {
		return nil, err
	}
	payment.ExternalRef = &res.ExternalRef

	s.logger.Info("stk push sent",
		zap.String("payment_id", payment.ID.String()),
		zap.String("provider", gw.Name()),
		zap.String("external_ref", res.ExternalRef))
	return payment, nil
}

type ManualPaymentInput struct {
	UserID    uuid.UUID
	MpesaCode string
	Phone     string
	Amount    decimal.Decimal
	Product   string
}

// SubmitManualPayment records an M-Pesa code the payer sent by hand; an admin
// approves or rejects it later.
func (s *PaymentService) SubmitManualPayment(ctx context.Context, in ManualPaymentInput) (*model.Payment, error) {
	code := strings.ToUpper(strings.TrimSpace(in.MpesaCode))
	if !validMpesaCode(code) {
		return nil, ErrInvalidMpesaCode
	}
	if !in.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	product := strings.TrimSpace(in.Product)
	if product == "" {
		return nil, ErrProductRequired
	}
	phone, err := NormalizePhone(in.Phone)
	if err != nil {
		return nil, err
	}

	payment := &model.Payment{
		UserID:      in.UserID,
		Amount:      in.Amount.Round(2),
		Currency:    model.CurrencyKES,
		Provider:    model.PaymentProviderManual,
		Product:     product,
		PhoneNumber: phone,
		Status:      model.PaymentStatusPending,
		ExternalRef: &code,
	}
	if err := s.repo.CreatePayment(ctx, payment); err != nil {
		return nil, err
	}

	s.logger.Info("manual payment submitted",
		zap.String("payment_id", payment.ID.String()),
		zap.String("mpesa_code", code))

	if s.notifier != nil {
		s.notifier.NotifyAdmins(ctx, "Manual payment pending",
			fmt.Sprintf("M-Pesa code %s for KES %s (%s) awaits approval", code, payment.Amount.StringFixed(2), product),
			model.NotificationManualPayment)
	}
	return payment, nil
}

// HandleCallback applies a provider's asynchronous result. token must match the
// webhook secret. Replays of an already settled payment are acknowledged without
// changes; a success whose paid amount does not cover the payment is refused and
// the payment stays pending.
func (s *PaymentService) HandleCallback(ctx context.Context, provider, token string, body []byte) error {
	if err := s.authorizeCallback(token); err != nil {
		return err
	}

	gw, err := s.gateways.Get(provider)
	if err != nil {
		return err
	}

	result, err := gw.ParseCallback(body)
	if err != nil {
		if errors.Is(err, gateway.ErrCallbackNotFinal) {
			s.logger.Debug("ignoring non-final callback", zap.String("provider", provider), zap.Error(err))
			return nil
		}
		return err
	}

	payment, err := s.repo.GetPaymentByExternalRef(ctx, model.PaymentProvider(gw.Name()), result.ExternalRef)
	if err != nil {
		return err
	}

	if result.Success {
		if !paidAmountMatches(payment.Amount, result.Amount) {
			s.logger.Warn("callback amount mismatch",
				zap.String("payment_id", payment.ID.String()),
				zap.String("provider", provider),
				zap.Stringer("expected", payment.Amount),
				zap.Stringer("reported", result.Amount.Decimal),
				zap.Bool("reported_present", result.Amount.Valid))
			return ErrCallbackAmountMismatch
		}
		_, err = s.Confirm(ctx, payment.ID, nil)
	} else {
		_, err = s.Fail(ctx, payment.ID, result.Reason, nil)
	}
	if errors.Is(err, repository.ErrPaymentNotPending) {
		s.logger.Info("duplicate payment callback",
			zap.String("payment_id", payment.ID.String()),
			zap.String("provider", provider))
		return nil
	}
	return err
}

// paidAmountMatches accepts the charged amount, which providers that bill whole
// shillings round up.
func paidAmountMatches(expected decimal.Decimal, reported decimal.NullDecimal) bool {
	if !reported.Valid {
		return false
	}
	return reported.Decimal.GreaterThanOrEqual(expected) && reported.Decimal.LessThanOrEqual(expected.Ceil())
}

// Confirm completes a pending payment and attributes the referrer's commission
// in the same transaction. adminID is set when an admin approves by hand.
func (s *PaymentService) Confirm(ctx context.Context, paymentID uuid.UUID, adminID *uuid.UUID) (*model.PaymentConfirmation, error) {
	payment, err := s.repo.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.Status != model.PaymentStatusPending {
		return nil, repository.ErrPaymentNotPending
	}

	draft, err := s.commissions.Draft(ctx, payment.UserID, payment.Amount)
	if err != nil {
		return nil, err
	}

	result, err := s.repo.ConfirmPayment(ctx, paymentID, draft, adminID)
	if err != nil {
		return nil, err
	}

	metrics.PaymentsConfirmed.WithLabelValues(string(payment.Provider)).Inc()
	fields := []zap.Field{
		zap.String("payment_id", paymentID.String()),
		zap.String("provider", string(payment.Provider)),
		zap.Stringer("amount", payment.Amount),
	}
	if result.Commission != nil {
		metrics.CommissionsCreated.Inc()
		fields = append(fields,
			zap.String("commission_id", result.Commission.ID.String()),
			zap.Stringer("commission", result.Commission.CommissionAmount))
	}
	s.logger.Info("payment confirmed", fields...)

	if s.notifier != nil {
		s.notifier.Notify(ctx, payment.UserID, "Payment confirmed",
			fmt.Sprintf("Your payment of KES %s for %s was received", payment.Amount.StringFixed(2), payment.Product),
			model.NotificationPaymentUpdate)
	}
	return result, nil
}

func (s *PaymentService) Fail(ctx context.Context, paymentID uuid.UUID, reason string, adminID *uuid.UUID) (*model.Payment, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "payment failed"
	}

	payment, err := s.repo.FailPayment(ctx, paymentID, reason, adminID)
	if err != nil {
		return nil, err
	}

	metrics.PaymentsFailed.WithLabelValues(string(payment.Provider)).Inc()
	s.logger.Info("payment failed",
		zap.String("payment_id", paymentID.String()),
		zap.String("reason", reason))

	if s.notifier != nil {
		s.notifier.Notify(ctx, payment.UserID, "Payment not completed",
			fmt.Sprintf("Your payment of KES %s was not completed: %s", payment.Amount.StringFixed(2), reason),
			model.NotificationPaymentUpdate)
	}
	return payment, nil
}

const stalePaymentReason = "payment timed out waiting for confirmation"

// ExpireStale fails every gateway payment still pending after the timeout and
// returns how many it expired. Manual payments are left for an admin.
func (s *PaymentService) ExpireStale(ctx context.Context) (int, error) {
	payments, err := s.repo.ListStalePayments(ctx, s.now().Add(-s.timeout))
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, payment := range payments {
		_, err := s.Fail(ctx, payment.ID, stalePaymentReason, nil)
		switch {
		case err == nil:
			expired++
		case errors.Is(err, repository.ErrPaymentNotPending):
			// a callback settled it first
		default:
			return expired, err
		}
	}
	return expired, nil
}

// GetPayment returns a payment visible to the caller.
func (s *PaymentService) GetPayment(ctx context.Context, userID uuid.UUID, role model.Role, id uuid.UUID) (*model.Payment, error) {
	payment, err := s.repo.GetPayment(ctx, id)
	if err != nil {
		return nil, err
	}
	if payment.UserID != userID && role != model.RoleAdmin {
		return nil, repository.ErrPaymentNotFound
	}
	return payment, nil
}

func (s *PaymentService) ListUserPayments(ctx context.Context, userID uuid.UUID) ([]model.Payment, error) {
	payments, err := s.repo.GetUserPayments(ctx, userID)
	if err != nil {
		return nil, err
	}
	if payments == nil {
		payments = []model.Payment{}
	}
	return payments, nil
}

func (s *PaymentService) ListPendingManual(ctx context.Context) ([]model.Payment, error) {
	payments, err := s.repo.ListPendingPayments(ctx, model.PaymentProviderManual)
	if err != nil {
		return nil, err
	}
	if payments == nil {
		payments = []model.Payment{}
	}
	return payments, nil
}

// validMpesaCode accepts the 10-character uppercase alphanumeric receipt codes.
func validMpesaCode(code string) bool {
	if len(code) != 10 {
		return false
	}
	for _, r := range code {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}
