package service

import (
	"context"
	"crypto/rand"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/clintonochieng072-gif/ClintonStack-websites-sub002/internal/auth"
	"github.com/clintonochieng072-gif/ClintonStack-websites-sub002/internal/config"
	"github.com/clintonochieng072-gif/ClintonStack-websites-sub002/internal/model"
	"github.com/clintonochieng072-gif/ClintonStack-websites-sub002/internal/repository"
)

const referralCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

type UserRepository interface {
	UserStore
	AffiliateStore
	AuditStore
}

type UserService struct {
	repo      UserRepository
	referrals *ReferralService
	tokens    *auth.TokenIssuer
	cfg       config.AffiliateConfig
	logger    *zap.Logger
	newCode   func() (string, error)
}

func NewUserService(repo UserRepository, referrals *ReferralService, tokens *auth.TokenIssuer, cfg config.AffiliateConfig, logger *zap.Logger) *UserService {
	s := &UserService{
		repo:      repo,
		referrals: referrals,
		tokens:    tokens,
		cfg:       cfg,
		logger:    logger,
	}
	s.newCode = func() (string, error) { return randomCode(cfg.ReferralCodeLength) }
	return s
}

type RegisterInput struct {
	Email        string
	Name         string
	Password     string
	ReferralCode string
}

// AuthResult is returned by register, login and role changes.
type AuthResult struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      *model.User `json:"user"`
}

func (s *UserService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidEmail
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	if len(in.Password) < 8 {
		return nil, ErrWeakPassword
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		Role:         model.RoleClient,
	}

	// Unknown or inactive codes never block registration.
	var referrer *model.Affiliate
	if code := strings.ToUpper(strings.TrimSpace(in.ReferralCode)); code != "" {
		referrer = s.resolveReferrer(ctx, code)
		if referrer != nil {
			user.ReferredBy = &referrer.ID
		}
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	if referrer != nil {
		if _, err := s.referrals.Record(ctx, referrer.ID, user.ID); err != nil {
			s.logger.Warn("failed to record referral",
				zap.String("affiliate_id", referrer.ID.String()),
				zap.String("user_id", user.ID.String()),
				zap.Error(err))
		}
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID.String()), zap.Bool("referred", referrer != nil))
	return s.issue(user)
}

func (s *UserService) resolveReferrer(ctx context.Context, code string) *model.Affiliate {
	owner, err := s.repo.GetUserByReferralCode(ctx, code)
	if err != nil {
		if !errors.Is(err, repository.ErrUserNotFound) {
			s.logger.Warn("referral code lookup failed", zap.String("code", code), zap.Error(err))
		}
		return nil
	}
	if owner.Role != model.RoleAffiliate {
		return nil
	}
	affiliate, err := s.repo.GetAffiliateByUserID(ctx, owner.ID)
	if err != nil || affiliate.Status != model.AffiliateStatusActive {
		return nil
	}
	return affiliate
}

func (s *UserService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.repo.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return s.issue(user)
}

func (s *UserService) issue(user *model.User) (*AuthResult, error) {
	token, exp, err := s.tokens.Generate(user.ID, user.Role)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, ExpiresAt: exp, User: user}, nil
}

func (s *UserService) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return s.repo.GetUser(ctx, id)
}

// UpdateRole changes target's role. Admins may set any role; a client may only
// promote itself to affiliate. The affiliate record is upserted with the role.
func (s *UserService) UpdateRole(ctx context.Context, actorID, targetID uuid.UUID, role model.Role) (*AuthResult, error) {
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	actor, err := s.repo.GetUser(ctx, actorID)
	if err != nil {
		return nil, err
	}

	isAdmin := auth.Allow(actor.Role, auth.PermManageUsers)
	selfPromotion := actorID == targetID && actor.Role == model.RoleClient && role == model.RoleAffiliate
	if !isAdmin && !selfPromotion {
		return nil, ErrForbidden
	}

	user, err := s.repo.SetUserRole(ctx, targetID, role, s.cfg.DefaultCommissionRate)
	if err != nil {
		return nil, err
	}

	if role == model.RoleAffiliate {
		code, err := s.GenerateUniqueReferralCode(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		user.ReferralCode = &code
	}

	if isAdmin {
		if err := s.repo.LogAuditAction(ctx, actorID, model.AuditActionRoleChanged, &targetID, map[string]string{
			"role": string(role),
		}); err != nil {
			s.logger.Error("failed to audit role change", zap.Error(err))
		}
	}

	s.logger.Info("user role changed",
		zap.String("user_id", targetID.String()),
		zap.String("role", string(role)),
		zap.String("actor_id", actorID.String()))
	return s.issue(user)
}

// GenerateUniqueReferralCode returns the user's referral code, assigning a new
// unique one when the user has none.
func (s *UserService) GenerateUniqueReferralCode(ctx context.Context, userID uuid.UUID) (string, error) {
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return "", err
	}
	if user.ReferralCode != nil && *user.ReferralCode != "" {
		return *user.ReferralCode, nil
	}

	for i := 0; i < s.cfg.ReferralCodeAttempts; i++ {
		code, err := s.newCode()
		if err != nil {
			return "", err
		}

		exists, err := s.repo.ReferralCodeExists(ctx, code)
		if err != nil {
			return "", err
		}
		if exists {
			continue
		}

		assigned, err := s.repo.AssignReferralCode(ctx, userID, code)
		if errors.Is(err, repository.ErrReferralCodeTaken) {
			continue
		}
		if err != nil {
			return "", err
		}
		return assigned, nil
	}

	s.logger.Error("referral code attempts exhausted", zap.String("user_id", userID.String()))
	return "", ErrReferralCodeExhausted
}

// EnsureAffiliate returns the affiliate record of an affiliate-role user, creating
// it when an older account is missing one.
func (s *UserService) EnsureAffiliate(ctx context.Context, user *model.User) (*model.Affiliate, error) {
	if !auth.Allow(user.Role, auth.PermViewAffiliateStats) {
		return nil, ErrNotAffiliate
	}
	return s.repo.EnsureAffiliate(ctx, user.ID, s.cfg.DefaultCommissionRate)
}

func (s *UserService) UpdatePayoutDetails(ctx context.Context, userID uuid.UUID, mpesaName, mpesaPhone string) (*model.Affiliate, error) {
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if _, err := s.EnsureAffiliate(ctx, user); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(mpesaName)
	if name == "" {
		return nil, ErrMpesaNameRequired
	}
	phone, err := NormalizePhone(mpesaPhone)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdatePayoutDetails(ctx, userID, name, phone); err != nil {
		return nil, err
	}
	return s.repo.GetAffiliateByUserID(ctx, userID)
}

func randomCode(length int) (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = referralCodeAlphabet[int(b)%len(referralCodeAlphabet)]
	}
	return string(buf), nil
}
