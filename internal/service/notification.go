package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/clintonochieng072-gif/ClintonStack-websites-sub002/internal/model"
)

// Notifier delivers in-app notifications. Delivery is best-effort: failures are
// logged and never fail the operation that triggered them.
type Notifier interface {
	NotifyAdmins(ctx context.Context, title, message string, typ model.NotificationType)
	Notify(ctx context.Context, userID uuid.UUID, title, message string, typ model.NotificationType)
}

type NotificationRepository interface {
	UserStore
	NotificationStore
}

type NotificationService struct {
	repo   NotificationRepository
	logger *zap.Logger
}

func NewNotificationService(repo NotificationRepository, logger *zap.Logger) *NotificationService {
	return &NotificationService{repo: repo, logger: logger}
}

func (s *NotificationService) NotifyAdmins(ctx context.Context, title, message string, typ model.NotificationType) {
	admins, err := s.repo.ListUserIDsByRole(ctx, model.RoleAdmin)
	if err != nil {
		s.logger.Error("failed to list admins for notification", zap.Error(err))
		return
	}
	if err := s.repo.CreateNotifications(ctx, admins, title, message, typ); err != nil {
		s.logger.Error("failed to notify admins", zap.String("type", string(typ)), zap.Error(err))
	}
}

func (s *NotificationService) Notify(ctx context.Context, userID uuid.UUID, title, message string, typ model.NotificationType) {
	if err := s.repo.CreateNotifications(ctx, []uuid.UUID{userID}, title, message, typ); err != nil {
		s.logger.Error("failed to notify user",
			zap.String("user_id", userID.String()),
			zap.String("type", string(typ)),
			zap.Error(err))
	}
}

func (s *NotificationService) List(ctx context.Context, userID uuid.UUID) ([]model.Notification, error) {
	return s.repo.ListNotifications(ctx, userID, 50)
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	return s.repo.MarkNotificationRead(ctx, userID, id)
}
