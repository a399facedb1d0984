// Package memstore is an in-memory implementation of the repository used by
// service and handler tests. Every method holds one lock, which gives it the
// same all-or-nothing behaviour as the PostgreSQL transactions it mirrors.
package memstore

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clintonochieng072-gif/ClintonStack-websites-sub002/internal/model"
	"github.com/clintonochieng072-gif/ClintonStack-websites-sub002/internal/repository"
)

type Store struct {
	mu sync.Mutex

	users         map[uuid.UUID]*model.User
	affiliates    map[uuid.UUID]*model.Affiliate
	referrals     map[uuid.UUID]*model.Referral
	payments      map[uuid.UUID]*model.Payment
	commissions   map[uuid.UUID]*model.Commission
	withdrawals   map[uuid.UUID]*model.WithdrawalRequest
	transactions  []model.BalanceTransaction
	notifications []model.Notification
	auditLogs     []model.AuditLog
	settings      map[string]string
	sites         map[uuid.UUID]*model.Site

	// Now stamps created rows; tests may replace it.
	Now func() time.Time
}

func New() *Store {
	return &Store{
		users:       make(map[uuid.UUID]*model.User),
		affiliates:  make(map[uuid.UUID]*model.Affiliate),
		referrals:   make(map[uuid.UUID]*model.Referral),
		payments:    make(map[uuid.UUID]*model.Payment),
		commissions: make(map[uuid.UUID]*model.Commission),
		withdrawals: make(map[uuid.UUID]*model.WithdrawalRequest),
		settings:    make(map[string]string),
		sites:       make(map[uuid.UUID]*model.Site),
		Now:         time.Now,
	}
}

// Users

func (s *Store) GetUser(_ context.Context, id uuid.UUID) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (s *Store) GetUserByReferralCode(_ context.Context, code string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ReferralCode != nil && *u.ReferralCode == code {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (s *Store) CreateUser(_ context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, user.Email) {
			return repository.ErrEmailTaken
		}
		if user.ReferralCode != nil && u.ReferralCode != nil && *u.ReferralCode == *user.ReferralCode {
			return repository.ErrReferralCodeTaken
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.Role == "" {
		user.Role = model.RoleClient
	}
	user.CreatedAt = s.Now()
	user.UpdatedAt = user.CreatedAt
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func (s *Store) ReferralCodeExists(_ context.Context, code string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.codeTaken(code), nil
}

func (s *Store) codeTaken(code string) bool {
	for _, u := range s.users {
		if u.ReferralCode != nil && *u.ReferralCode == code {
			return true
		}
	}
	return false
}

func (s *Store) AssignReferralCode(_ context.Context, userID uuid.UUID, code string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return "", repository.ErrUserNotFound
	}
	if u.ReferralCode != nil {
		return *u.ReferralCode, nil
	}
	if s.codeTaken(code) {
		return "", repository.ErrReferralCodeTaken
	}
	u.ReferralCode = &code
	return code, nil
}

func (s *Store) SetUserRole(_ context.Context, userID uuid.UUID, role model.Role, rate decimal.Decimal) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	u.Role = role
	u.UpdatedAt = s.Now()

	a := s.affiliateByUser(userID)
	switch {
	case role == model.RoleAffiliate && a == nil:
		s.insertAffiliate(userID, rate)
	case role == model.RoleAffiliate:
		a.Status = model.AffiliateStatusActive
	case a != nil:
		a.Status = model.AffiliateStatusInactive
	}

	cp := *u
	return &cp, nil
}

func (s *Store) ListUserIDsByRole(_ context.Context, role model.Role) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []uuid.UUID
	for _, u := range s.users {
		if u.Role == role {
			ids = append(ids, u.ID)
		}
	}
	return ids, nil
}

// Affiliates

func (s *Store) affiliateByUser(userID uuid.UUID) *model.Affiliate {
	for _, a := range s.affiliates {
		if a.UserID == userID {
			return a
		}
	}
	return nil
}

func (s *Store) insertAffiliate(userID uuid.UUID, rate decimal.Decimal) *model.Affiliate {
	now := s.Now()
	a := &model.Affiliate{
		ID:             uuid.New(),
		UserID:         userID,
		CommissionRate: rate,
		Status:         model.AffiliateStatusActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	s.affiliates[a.ID] = a
	return a
}

func (s *Store) GetAffiliate(_ context.Context, id uuid.UUID) (*model.Affiliate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.affiliates[id]
	if !ok {
		return nil, repository.ErrAffiliateNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *Store) GetAffiliateByUserID(_ context.Context, userID uuid.UUID) (*model.Affiliate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.affiliateByUser(userID)
	if a == nil {
		return nil, repository.ErrAffiliateNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *Store) EnsureAffiliate(_ context.Context, userID uuid.UUID, rate decimal.Decimal) (*model.Affiliate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.affiliateByUser(userID)
	if a == nil {
		a = s.insertAffiliate(userID, rate)
	}
	cp := *a
	return &cp, nil
}

func (s *Store) UpdatePayoutDetails(_ context.Context, userID uuid.UUID, mpesaName, mpesaPhone string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.affiliateByUser(userID)
	if a == nil {
		return repository.ErrAffiliateNotFound
	}
	a.MpesaName = &mpesaName
	a.MpesaPhone = &mpesaPhone
	return nil
}

func (s *Store) GetBalanceTransactions(_ context.Context, affiliateID uuid.UUID, limit, offset int) ([]model.BalanceTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.BalanceTransaction
	for i := len(s.transactions) - 1; i >= 0; i-- {
		if s.transactions[i].AffiliateID == affiliateID {
			out = append(out, s.transactions[i])
		}
	}
	return page(out, limit, offset), nil
}

// applyBalanceDelta mirrors the repository helper of the same name.
func (s *Store) applyBalanceDelta(affiliateID uuid.UUID, amount decimal.Decimal, txType model.TransactionType, ref *uuid.UUID) error {
	a, ok := s.affiliates[affiliateID]
	if !ok {
		return repository.ErrAffiliateNotFound
	}
	before := a.AvailableBalance
	after := before.Add(amount)
	if amount.IsNegative() && after.IsNegative() {
		return repository.ErrInsufficientBalance
	}
	a.AvailableBalance = after
	if txType == model.TransactionTypeCommission {
		a.TotalEarned = a.TotalEarned.Add(amount)
	}
	s.transactions = append(s.transactions, model.BalanceTransaction{
		ID:            uuid.New(),
		AffiliateID:   affiliateID,
		Amount:        amount,
		Type:          txType,
		ReferenceID:   ref,
		BalanceBefore: before,
		BalanceAfter:  after,
		CreatedAt:     s.Now(),
	})
	return nil
}

// SetBalance is a test helper that seeds an affiliate's available balance.
func (s *Store) SetBalance(affiliateID uuid.UUID, balance decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.affiliates[affiliateID]; ok {
		a.AvailableBalance = balance
	}
}

// Referrals

func (s *Store) CreateReferral(_ context.Context, referral *model.Referral) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.referrals {
		if r.ReferredUserID == referral.ReferredUserID {
			return repository.ErrDuplicateReferral
		}
	}
	referral.ID = uuid.New()
	referral.CreatedAt = s.Now()
	cp := *referral
	s.referrals[referral.ID] = &cp
	return nil
}

func (s *Store) GetReferralByReferredUser(_ context.Context, referredUserID uuid.UUID) (*model.Referral, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.referrals {
		if r.ReferredUserID == referredUserID {
			cp := *r
			return &cp, nil
		}
	}
	return nil, repository.ErrReferralNotFound
}

func (s *Store) GetReferralStats(_ context.Context, affiliateID uuid.UUID) (*model.ReferralStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := &model.ReferralStats{}
	for _, r := range s.referrals {
		if r.AffiliateID != affiliateID {
			continue
		}
		stats.Total++
		if r.Status == model.ReferralStatusConverted {
			stats.Converted++
		}
	}
	return stats, nil
}

func (s *Store) ListReferralsByAffiliate(_ context.Context, affiliateID uuid.UUID) ([]model.ReferralDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.ReferralDetail
	for _, r := range s.referrals {
		if r.AffiliateID != affiliateID {
			continue
		}
		u, ok := s.users[r.ReferredUserID]
		if !ok {
			continue
		}
		out = append(out, model.ReferralDetail{Referral: *r, ReferredName: u.Name, ReferredEmail: u.Email})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Commissions

func (s *Store) FindCommissionForReferral(_ context.Context, affiliateID, referredUserID uuid.UUID) (*model.Commission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var best *model.Commission
	bestLinked := false
	for _, c := range s.commissions {
		if c.AffiliateID != affiliateID {
			continue
		}
		linked := false
		if c.ReferralID != nil {
			if r, ok := s.referrals[*c.ReferralID]; ok && r.ReferredUserID == referredUserID {
				linked = true
			}
		}
		p := s.payments[c.PaymentID]
		if !linked && (p == nil || p.UserID != referredUserID) {
			continue
		}
		if best == nil || (linked && !bestLinked) || (linked == bestLinked && c.CreatedAt.Before(best.CreatedAt)) {
			best, bestLinked = c, linked
		}
	}
	if best == nil {
		return nil, repository.ErrCommissionNotFound
	}
	cp := *best
	return &cp, nil
}

func (s *Store) ListCommissionedUserIDs(_ context.Context, affiliateID uuid.UUID) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[uuid.UUID]bool)
	var ids []uuid.UUID
	for _, c := range s.commissions {
		if c.AffiliateID != affiliateID {
			continue
		}
		if p, ok := s.payments[c.PaymentID]; ok && !seen[p.UserID] {
			seen[p.UserID] = true
			ids = append(ids, p.UserID)
		}
	}
	return ids, nil
}

func (s *Store) CreateCommission(_ context.Context, paymentID uuid.UUID, draft model.CommissionDraft) (*model.Commission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.insertCommission(paymentID, draft)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, repository.ErrCommissionExists
	}
	cp := *c
	return &cp, nil
}

func (s *Store) insertCommission(paymentID uuid.UUID, draft model.CommissionDraft) (*model.Commission, error) {
	for _, c := range s.commissions {
		if c.PaymentID == paymentID {
			return nil, nil
		}
	}
	if _, ok := s.payments[paymentID]; !ok {
		return nil, repository.ErrPaymentNotFound
	}
	if _, ok := s.affiliates[draft.AffiliateID]; !ok {
		return nil, repository.ErrAffiliateNotFound
	}
	c := &model.Commission{
		ID:               uuid.New(),
		AffiliateID:      draft.AffiliateID,
		PaymentID:        paymentID,
		ReferralID:       draft.ReferralID,
		CommissionAmount: draft.Amount,
		Status:           model.CommissionStatusPending,
		CreatedAt:        s.Now(),
	}
	if err := s.applyBalanceDelta(draft.AffiliateID, draft.Amount, model.TransactionTypeCommission, &c.ID); err != nil {
		return nil, err
	}
	s.commissions[c.ID] = c
	if draft.ReferralID != nil {
		if r, ok := s.referrals[*draft.ReferralID]; ok {
			r.Status = model.ReferralStatusConverted
			if r.ConversionTimestamp == nil {
				now := s.Now()
				r.ConversionTimestamp = &now
			}
		}
	}
	return c, nil
}

func (s *Store) GetCommissionStats(_ context.Context, affiliateID uuid.UUID) (*model.CommissionStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := &model.CommissionStats{}
	byProduct := make(map[string]*model.ProductStat)
	for _, c := range s.commissions {
		if c.AffiliateID != affiliateID {
			continue
		}
		switch c.Status {
		case model.CommissionStatusPaid:
			stats.TotalCommissions = stats.TotalCommissions.Add(c.CommissionAmount)
		case model.CommissionStatusPending:
			stats.PendingCommissions = stats.PendingCommissions.Add(c.CommissionAmount)
		}
		if c.Status == model.CommissionStatusFailed {
			continue
		}
		product := ""
		if p, ok := s.payments[c.PaymentID]; ok {
			product = p.Product
		}
		ps, ok := byProduct[product]
		if !ok {
			ps = &model.ProductStat{Product: product}
			byProduct[product] = ps
		}
		ps.Conversions++
		ps.Earnings = ps.Earnings.Add(c.CommissionAmount)
	}
	for _, ps := range byProduct {
		stats.ProductStats = append(stats.ProductStats, *ps)
	}
	sort.Slice(stats.ProductStats, func(i, j int) bool {
		return stats.ProductStats[i].Product < stats.ProductStats[j].Product
	})
	return stats, nil
}

func (s *Store) MarkCommissionPaid(_ context.Context, id, adminID uuid.UUID) (*model.Commission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.commissions[id]
	if !ok {
		return nil, repository.ErrCommissionNotFound
	}
	if c.Status != model.CommissionStatusPending {
		return nil, repository.ErrCommissionNotPending
	}
	now := s.Now()
	c.Status = model.CommissionStatusPaid
	c.PaidAt = &now
	s.audit(adminID, model.AuditActionCommissionPaid, &c.ID, map[string]interface{}{"amount": c.CommissionAmount})
	cp := *c
	return &cp, nil
}

// Payments

func (s *Store) GetPayment(_ context.Context, id uuid.UUID) (*model.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[id]
	if !ok {
		return nil, repository.ErrPaymentNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *Store) GetPaymentByExternalRef(_ context.Context, provider model.PaymentProvider, ref string) (*model.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.payments {
		if p.Provider == provider && p.ExternalRef != nil && *p.ExternalRef == ref {
			cp := *p
			return &cp, nil
		}
	}
	return nil, repository.ErrPaymentNotFound
}

func (s *Store) GetUserPayments(_ context.Context, userID uuid.UUID) ([]model.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Payment
	for _, p := range s.payments {
		if p.UserID == userID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) refTaken(provider model.PaymentProvider, ref string, except uuid.UUID) bool {
	for _, p := range s.payments {
		if p.ID != except && p.Provider == provider && p.ExternalRef != nil && *p.ExternalRef == ref {
			return true
		}
	}
	return false
}

func (s *Store) CreatePayment(_ context.Context, payment *model.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if payment.ExternalRef != nil && s.refTaken(payment.Provider, *payment.ExternalRef, uuid.Nil) {
		return repository.ErrDuplicateExternalRef
	}
	payment.ID = uuid.New()
	payment.CreatedAt = s.Now()
	cp := *payment
	s.payments[payment.ID] = &cp
	return nil
}

func (s *Store) SetPaymentExternalRef(_ context.Context, id uuid.UUID, ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[id]
	if !ok {
		return nil
	}
	if s.refTaken(p.Provider, ref, id) {
		return repository.ErrDuplicateExternalRef
	}
	p.ExternalRef = &ref
	return nil
}

func (s *Store) ListPendingPayments(_ context.Context, provider model.PaymentProvider) ([]model.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Payment
	for _, p := range s.payments {
		if p.Provider == provider && p.Status == model.PaymentStatusPending {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) ListStalePayments(_ context.Context, cutoff time.Time) ([]model.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Payment
	for _, p := range s.payments {
		if p.Status == model.PaymentStatusPending && p.Provider != model.PaymentProviderManual && p.CreatedAt.Before(cutoff) {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) ConfirmPayment(_ context.Context, id uuid.UUID, draft *model.CommissionDraft, adminID *uuid.UUID) (*model.PaymentConfirmation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[id]
	if !ok {
		return nil, repository.ErrPaymentNotFound
	}
	if p.Status != model.PaymentStatusPending {
		return nil, repository.ErrPaymentNotPending
	}

	result := &model.PaymentConfirmation{}
	if draft != nil {
		c, err := s.insertCommission(p.ID, *draft)
		if err != nil {
			return nil, err
		}
		if c != nil {
			cp := *c
			result.Commission = &cp
		}
	}

	now := s.Now()
	p.Status = model.PaymentStatusCompleted
	p.CompletedAt = &now
	if u, ok := s.users[p.UserID]; ok {
		u.HasPaid = true
	}
	if adminID != nil {
		s.audit(*adminID, model.AuditActionPaymentApproved, &p.ID, map[string]interface{}{"amount": p.Amount})
	}

	cp := *p
	result.Payment = &cp
	return result, nil
}

func (s *Store) FailPayment(_ context.Context, id uuid.UUID, reason string, adminID *uuid.UUID) (*model.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[id]
	if !ok {
		return nil, repository.ErrPaymentNotFound
	}
	if p.Status != model.PaymentStatusPending {
		return nil, repository.ErrPaymentNotPending
	}
	p.Status = model.PaymentStatusFailed
	p.FailureReason = &reason
	if adminID != nil {
		s.audit(*adminID, model.AuditActionPaymentRejected, &p.ID, map[string]string{"reason": reason})
	}
	cp := *p
	return &cp, nil
}

// Withdrawals

func (s *Store) CreateWithdrawal(_ context.Context, w *model.WithdrawalRequest, affiliateID uuid.UUID, since time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.affiliates[affiliateID]
	if !ok {
		return repository.ErrAffiliateNotFound
	}
	if w.Amount.GreaterThan(a.AvailableBalance) {
		return repository.ErrInsufficientBalance
	}
	for _, existing := range s.withdrawals {
		if existing.UserID == w.UserID && !existing.CreatedAt.Before(since) {
			return repository.ErrWithdrawalWindow
		}
	}
	w.ID = uuid.New()
	w.Status = model.WithdrawalStatusPending
	w.CreatedAt = s.Now()
	cp := *w
	s.withdrawals[w.ID] = &cp
	s.audit(w.UserID, model.AuditActionWithdrawalRequested, &w.ID, map[string]interface{}{"amount": w.Amount})
	return nil
}

func (s *Store) ProcessWithdrawal(_ context.Context, d model.WithdrawalDecision) (*model.WithdrawalRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.withdrawals[d.WithdrawalID]
	if !ok {
		return nil, repository.ErrWithdrawalNotFound
	}
	if w.Status != model.WithdrawalStatusPending {
		return nil, repository.ErrWithdrawalNotPending
	}
	a := s.affiliateByUser(w.UserID)
	if a == nil {
		return nil, repository.ErrAffiliateNotFound
	}

	action := model.AuditActionWithdrawalRejected
	status := model.WithdrawalStatusFailed
	switch {
	case d.Approve:
		action = model.AuditActionWithdrawalApproved
		status = model.WithdrawalStatusCompleted
		if err := s.applyBalanceDelta(a.ID, w.Amount.Neg(), model.TransactionTypeWithdrawal, &w.ID); err != nil {
			return nil, err
		}
	case d.RestoreBalance:
		if err := s.applyBalanceDelta(a.ID, w.Amount, model.TransactionTypeWithdrawalRestore, &w.ID); err != nil {
			return nil, err
		}
	}

	now := s.Now()
	adminID := d.AdminID
	w.Status = status
	w.TransactionID = d.TransactionID
	w.FailureReason = d.Reason
	w.ProcessedBy = &adminID
	w.ProcessedAt = &now
	s.audit(d.AdminID, action, &w.ID, map[string]interface{}{"amount": w.Amount})

	cp := *w
	return &cp, nil
}

func (s *Store) GetWithdrawal(_ context.Context, id uuid.UUID) (*model.WithdrawalRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.withdrawals[id]
	if !ok {
		return nil, repository.ErrWithdrawalNotFound
	}
	cp := *w
	return &cp, nil
}

func (s *Store) ListWithdrawals(_ context.Context, status model.WithdrawalStatus, limit, offset int) ([]model.WithdrawalRequest, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.WithdrawalRequest
	for _, w := range s.withdrawals {
		if status == "" || w.Status == status {
			out = append(out, *w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return page(out, limit, offset), len(out), nil
}

func (s *Store) ListUserWithdrawals(_ context.Context, userID uuid.UUID) ([]model.WithdrawalRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.WithdrawalRequest
	for _, w := range s.withdrawals {
		if w.UserID == userID {
			out = append(out, *w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Notifications

func (s *Store) CreateNotifications(_ context.Context, userIDs []uuid.UUID, title, message string, typ model.NotificationType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range userIDs {
		s.notifications = append(s.notifications, model.Notification{
			ID:        uuid.New(),
			UserID:    id,
			Title:     title,
			Message:   message,
			Type:      typ,
			CreatedAt: s.Now(),
		})
	}
	return nil
}

func (s *Store) ListNotifications(_ context.Context, userID uuid.UUID, limit int) ([]model.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Notification
	for i := len(s.notifications) - 1; i >= 0; i-- {
		if s.notifications[i].UserID == userID {
			out = append(out, s.notifications[i])
		}
	}
	return page(out, limit, 0), nil
}

func (s *Store) MarkNotificationRead(_ context.Context, userID, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.notifications {
		if s.notifications[i].ID == id && s.notifications[i].UserID == userID {
			s.notifications[i].Read = true
			return nil
		}
	}
	return repository.ErrNotificationNotFound
}

// Audit

func (s *Store) audit(actorID uuid.UUID, action string, targetID *uuid.UUID, details interface{}) {
	raw, _ := json.Marshal(details)
	s.auditLogs = append(s.auditLogs, model.AuditLog{
		ID:        uuid.New(),
		ActorID:   actorID,
		Action:    action,
		TargetID:  targetID,
		Details:   raw,
		CreatedAt: s.Now(),
	})
}

func (s *Store) LogAuditAction(_ context.Context, actorID uuid.UUID, action string, targetID *uuid.UUID, details interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audit(actorID, action, targetID, details)
	return nil
}

func (s *Store) ListAuditLogs(_ context.Context, limit, offset int) ([]model.AuditLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.AuditLog, 0, len(s.auditLogs))
	for i := len(s.auditLogs) - 1; i >= 0; i-- {
		out = append(out, s.auditLogs[i])
	}
	return page(out, limit, offset), nil
}

func (s *Store) ListAuditLogsByTarget(_ context.Context, targetID uuid.UUID, limit int) ([]model.AuditLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.AuditLog
	for i := len(s.auditLogs) - 1; i >= 0; i-- {
		if t := s.auditLogs[i].TargetID; t != nil && *t == targetID {
			out = append(out, s.auditLogs[i])
		}
	}
	return page(out, limit, 0), nil
}

// Settings

func (s *Store) GetSetting(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.settings[key]
	if !ok {
		return "", repository.ErrSettingNotFound
	}
	return v, nil
}

func (s *Store) SetSetting(_ context.Context, actorID uuid.UUID, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[key] = value
	s.audit(actorID, model.AuditActionSettingChanged, nil, map[string]string{"key": key, "value": value})
	return nil
}

func (s *Store) GetSettingDecimal(ctx context.Context, key string) (decimal.Decimal, error) {
	v, err := s.GetSetting(ctx, key)
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromString(v)
}

func (s *Store) GetAllSettings(_ context.Context) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.settings))
	for k, v := range s.settings {
		out[k] = v
	}
	return out, nil
}

// Sites

func cloneSite(site *model.Site) *model.Site {
	cp := *site
	cp.DraftBlocks = append(model.Blocks{}, site.DraftBlocks...)
	cp.PublishedBlocks = append(model.Blocks{}, site.PublishedBlocks...)
	return &cp
}

func (s *Store) GetSiteByUserID(_ context.Context, userID uuid.UUID) (*model.Site, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, site := range s.sites {
		if site.UserID == userID {
			return cloneSite(site), nil
		}
	}
	return nil, repository.ErrSiteNotFound
}

func (s *Store) GetSiteBySlug(_ context.Context, slug string) (*model.Site, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, site := range s.sites {
		if site.Slug == slug {
			return cloneSite(site), nil
		}
	}
	return nil, repository.ErrSiteNotFound
}

func (s *Store) CreateSite(_ context.Context, site *model.Site) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.sites {
		if existing.Slug == site.Slug {
			return repository.ErrSlugTaken
		}
	}
	site.ID = uuid.New()
	site.CreatedAt = s.Now()
	site.UpdatedAt = site.CreatedAt
	s.sites[site.ID] = cloneSite(site)
	return nil
}

func (s *Store) UpdateSiteDraft(_ context.Context, site *model.Site) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.sites[site.ID]
	if !ok {
		return repository.ErrSiteNotFound
	}
	existing.Niche = site.Niche
	existing.Title = site.Title
	existing.DraftBlocks = append(model.Blocks{}, site.DraftBlocks...)
	existing.UpdatedAt = s.Now()
	site.UpdatedAt = existing.UpdatedAt
	return nil
}

func (s *Store) PublishSite(_ context.Context, id uuid.UUID) (*model.Site, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	site, ok := s.sites[id]
	if !ok {
		return nil, repository.ErrSiteNotFound
	}
	now := s.Now()
	site.PublishedBlocks = append(model.Blocks{}, site.DraftBlocks...)
	site.PublishedAt = &now
	site.UpdatedAt = now
	return cloneSite(site), nil
}

// Inspection helpers for tests.

func (s *Store) AuditLogs() []model.AuditLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.AuditLog(nil), s.auditLogs...)
}

func (s *Store) Notifications(userID uuid.UUID) []model.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Notification
	for _, n := range s.notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}

func (s *Store) WithdrawalCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.withdrawals)
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
