package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/clintonochieng072-gif/ClintonStack-websites-sub002/internal/model"
)

var ErrSettingNotFound = errors.New("setting not found")

const SettingWithdrawalMinAmount = "withdrawal_min_amount"

func (r *Repository) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.GetContext(ctx, &value, "SELECT value FROM settings WHERE key = $1", key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrSettingNotFound
		}
		return "", err
	}
	return value, nil
}

// SetSetting upserts a setting and audits the change.
func (r *Repository) SetSetting(ctx context.Context, actorID uuid.UUID, key, value string) error {
	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO settings (key, value, updated_at) VALUES ($1, $2, NOW())
			ON CONFLICT (key) DO UPDATE SET value = $2, updated_at = NOW()
		`, key, value)
		if err != nil {
			return err
		}
		return logAudit(ctx, tx, actorID, model.AuditActionSettingChanged, nil, map[string]string{
			"key":   key,
			"value": value,
		})
	})
}

func (r *Repository) GetSettingDecimal(ctx context.Context, key string) (decimal.Decimal, error) {
	value, err := r.GetSetting(ctx, key)
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromString(value)
}

func (r *Repository) GetAllSettings(ctx context.Context) (map[string]string, error) {
	rows, err := r.db.QueryxContext(ctx, "SELECT key, value FROM settings")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	settings := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		settings[key] = value
	}
	return settings, rows.Err()
}
