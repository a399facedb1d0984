package model

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleClient    Role = "client"
	RoleAffiliate Role = "affiliate"
	RoleAdmin     Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleClient, RoleAffiliate, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID                    uuid.UUID  `json:"id" db:"id"`
	Email                 string     `json:"email" db:"email"`
	Name                  string     `json:"name" db:"name"`
	PasswordHash          string     `json:"-" db:"password_hash"`
	Role                  Role       `json:"role" db:"role"`
	ReferralCode          *string    `json:"referralCode,omitempty" db:"referral_code"`
	ReferredBy            *uuid.UUID `json:"referredBy,omitempty" db:"referred_by"`
	HasPaid               bool       `json:"has_paid" db:"has_paid"`
	SubscriptionPlan      *string    `json:"subscriptionPlan,omitempty" db:"subscription_plan"`
	SubscriptionExpiresAt *time.Time `json:"subscriptionExpiresAt,omitempty" db:"subscription_expires_at"`
	CreatedAt             time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt             time.Time  `json:"updatedAt" db:"updated_at"`
}

// PublicUser is the subset of a user shown to the affiliate who referred them.
type PublicUser struct {
	ID    uuid.UUID `json:"id" db:"id"`
	Name  string    `json:"name" db:"name"`
	Email string    `json:"email" db:"email"`
}
