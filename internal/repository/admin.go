package repository

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/clintonochieng072-gif/ClintonStack-websites-sub002/internal/model"
)

// logAudit writes an audit entry with JSON details through db or an open tx.
func logAudit(ctx context.Context, exec sqlx.ExecerContext, actorID uuid.UUID, action string, targetID *uuid.UUID, details interface{}) error {
	var detailsJSON []byte
	if details != nil {
		var err error
		detailsJSON, err = json.Marshal(details)
		if err != nil {
			return err
		}
	}
	_, err := exec.ExecContext(ctx, `
		INSERT INTO audit_logs (actor_id, action, target_id, details)
		VALUES ($1, $2, $3, $4)`,
		actorID, action, targetID, detailsJSON)
	return err
}

// LogAuditAction records an action outside any other transaction.
func (r *Repository) LogAuditAction(ctx context.Context, actorID uuid.UUID, action string, targetID *uuid.UUID, details interface{}) error {
	return logAudit(ctx, r.db, actorID, action, targetID, details)
}

func (r *Repository) ListAuditLogs(ctx context.Context, limit, offset int) ([]model.AuditLog, error) {
	var logs []model.AuditLog
	err := r.db.SelectContext(ctx, &logs, `
		SELECT * FROM audit_logs
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`, limit, offset)
	return logs, err
}

func (r *Repository) ListAuditLogsByTarget(ctx context.Context, targetID uuid.UUID, limit int) ([]model.AuditLog, error) {
	var logs []model.AuditLog
	err := r.db.SelectContext(ctx, &logs, `
		SELECT * FROM audit_logs
		WHERE target_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, targetID, limit)
	return logs, err
}
