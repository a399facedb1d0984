package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/clintonochieng072-gif/ClintonStack-websites-sub002/internal/model"
)

var ErrNotificationNotFound = errors.New("notification not found")

// CreateNotifications inserts one notification per recipient.
func (r *Repository) CreateNotifications(ctx context.Context, userIDs []uuid.UUID, title, message string, typ model.NotificationType) error {
	if len(userIDs) == 0 {
		return nil
	}
	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		for _, id := range userIDs {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO notifications (user_id, title, message, type)
				VALUES ($1, $2, $3, $4)`, id, title, message, typ)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *Repository) ListNotifications(ctx context.Context, userID uuid.UUID, limit int) ([]model.Notification, error) {
	var notifications []model.Notification
	err := r.db.SelectContext(ctx, &notifications, `
		SELECT * FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, userID, limit)
	return notifications, err
}

func (r *Repository) MarkNotificationRead(ctx context.Context, userID, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE notifications SET read = TRUE WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotificationNotFound
	}
	return nil
}
