package model

import (
	"time"

	"github.com/google/uuid"
)

type AuditLog struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	ActorID   uuid.UUID  `json:"actorId" db:"actor_id"`
	Action    string     `json:"action" db:"action"`
	TargetID  *uuid.UUID `json:"targetId,omitempty" db:"target_id"`
	Details   []byte     `json:"details,omitempty" db:"details"`
	CreatedAt time.Time  `json:"createdAt" db:"created_at"`
}

// Audit action constants
const (
	AuditActionWithdrawalRequested = "withdrawal_requested"
	AuditActionWithdrawalApproved  = "withdrawal_approved"
	AuditActionWithdrawalRejected  = "withdrawal_rejected"
	AuditActionPaymentApproved     = "payment_approved"
	AuditActionPaymentRejected     = "payment_rejected"
	AuditActionCommissionPaid      = "commission_paid"
	AuditActionRoleChanged         = "role_changed"
	AuditActionSettingChanged      = "setting_changed"
)

type NotificationType string

const (
	NotificationWithdrawalRequest NotificationType = "withdrawal_request"
	NotificationWithdrawalUpdate  NotificationType = "withdrawal_update"
	NotificationManualPayment     NotificationType = "manual_payment"
	NotificationPaymentUpdate     NotificationType = "payment_update"
)

type Notification struct {
	ID        uuid.UUID        `json:"id" db:"id"`
	UserID    uuid.UUID        `json:"userId" db:"user_id"`
	Title     string           `json:"title" db:"title"`
	Message   string           `json:"message" db:"message"`
	Type      NotificationType `json:"type" db:"type"`
	Read      bool             `json:"read" db:"read"`
	CreatedAt time.Time        `json:"createdAt" db:"created_at"`
}
