package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/clintonochieng072-gif/ClintonStack-websites-sub002/internal/model"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrEmailTaken        = errors.New("email already registered")
	ErrReferralCodeTaken = errors.New("referral code already taken")
)

func (r *Repository) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, "SELECT * FROM users WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, "SELECT * FROM users WHERE lower(email) = lower($1)", email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *Repository) GetUserByReferralCode(ctx context.Context, code string) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, "SELECT * FROM users WHERE referral_code = $1", code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *Repository) CreateUser(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (email, name, password_hash, role, referral_code, referred_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		user.Email,
		user.Name,
		user.PasswordHash,
		user.Role,
		user.ReferralCode,
		user.ReferredBy,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrEmailTaken
	}
	return err
}

func (r *Repository) ReferralCodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, "SELECT EXISTS(SELECT 1 FROM users WHERE referral_code = $1)", code)
	return exists, err
}

// AssignReferralCode sets the user's referral code if it has none and returns the
// code the user ends up with.
func (r *Repository) AssignReferralCode(ctx context.Context, userID uuid.UUID, code string) (string, error) {
	var assigned string
	err := r.db.GetContext(ctx, &assigned, `
		UPDATE users SET referral_code = $2, updated_at = NOW()
		WHERE id = $1 AND referral_code IS NULL
		RETURNING referral_code`, userID, code)
	if err == nil {
		return assigned, nil
	}
	if isUniqueViolation(err) {
		return "", ErrReferralCodeTaken
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", err
	}

	var existing *string
	if err := r.db.GetContext(ctx, &existing, "SELECT referral_code FROM users WHERE id = $1", userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrUserNotFound
		}
		return "", err
	}
	if existing == nil {
		return "", fmt.Errorf("referral code for user %s was not assigned", userID)
	}
	return *existing, nil
}

// SetUserRole changes a user's role. Assigning the affiliate role upserts the
// affiliate record in the same transaction; leaving it deactivates the record.
func (r *Repository) SetUserRole(ctx context.Context, userID uuid.UUID, role model.Role, rate decimal.Decimal) (*model.User, error) {
	var user model.User
	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &user, `
			UPDATE users SET role = $2, updated_at = NOW()
			WHERE id = $1
			RETURNING *`, userID, role)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrUserNotFound
			}
			return err
		}

		if role == model.RoleAffiliate {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO affiliates (user_id, commission_rate, status)
				VALUES ($1, $2, 'active')
				ON CONFLICT (user_id) DO UPDATE SET status = 'active', updated_at = NOW()`,
				userID, rate)
			return err
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE affiliates SET status = 'inactive', updated_at = NOW()
			WHERE user_id = $1`, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *Repository) ListUserIDsByRole(ctx context.Context, role model.Role) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.SelectContext(ctx, &ids, "SELECT id FROM users WHERE role = $1 ORDER BY created_at", role)
	return ids, err
}
