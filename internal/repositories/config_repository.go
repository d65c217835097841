package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"inactivity-service/internal/models"
)

// Default thresholds applied to chats with no stored configuration.
const (
	DefaultInactiveDays = 14
	DefaultNewUserDays  = 3
)

// ConfigRepository abstracts per-chat threshold persistence.
type ConfigRepository interface {
	GetConfig(ctx context.Context, chatID int64) (models.ChatConfig, error)
	SetInactiveDays(ctx context.Context, chatID int64, days int) error
	SetNewUserDays(ctx context.Context, chatID int64, days int) error
}

// ConfigRepo is a sqlx implementation of ConfigRepository.
type ConfigRepo struct {
	db *sqlx.DB
}

// NewConfigRepo constructs a ConfigRepo.
func NewConfigRepo(db *sqlx.DB) *ConfigRepo {
	return &ConfigRepo{db: db}
}

// GetConfig returns the stored thresholds for the chat, or the system
// defaults when the chat has never been configured. A missing row is not
// an error.
func (r *ConfigRepo) GetConfig(ctx context.Context, chatID int64) (models.ChatConfig, error) {
	var cfg models.ChatConfig
	err := r.db.GetContext(ctx, &cfg, `SELECT chat_id, inactive_days, new_user_days FROM chat_config WHERE chat_id=$1`, chatID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ChatConfig{
			ChatID:       chatID,
			InactiveDays: DefaultInactiveDays,
			NewUserDays:  DefaultNewUserDays,
		}, nil
	}
	if err != nil {
		return models.ChatConfig{}, fmt.Errorf("get config: %w", err)
	}
	return cfg, nil
}

// SetInactiveDays upserts the inactivity threshold. A fresh row starts
// new_user_days at the system default; an existing row keeps it untouched.
func (r *ConfigRepo) SetInactiveDays(ctx context.Context, chatID int64, days int) error {
	_, err := r.db.ExecContext(ctx, `
        INSERT INTO chat_config (chat_id, inactive_days, new_user_days)
        VALUES ($1, $2, $3)
        ON CONFLICT (chat_id)
        DO UPDATE SET inactive_days = EXCLUDED.inactive_days`,
		chatID, days, DefaultNewUserDays)
	if err != nil {
		return fmt.Errorf("set inactive days: %w", err)
	}
	return nil
}

// SetNewUserDays upserts the grace-period threshold, preserving the chat's
// effective inactive_days. The read and the upsert are separate statements,
// but the upsert never touches inactive_days on conflict, so a concurrent
// update to it is not lost.
func (r *ConfigRepo) SetNewUserDays(ctx context.Context, chatID int64, days int) error {
	current, err := r.GetConfig(ctx, chatID)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
        INSERT INTO chat_config (chat_id, inactive_days, new_user_days)
        VALUES ($1, $2, $3)
        ON CONFLICT (chat_id)
        DO UPDATE SET new_user_days = EXCLUDED.new_user_days`,
		chatID, current.InactiveDays, days)
	if err != nil {
		return fmt.Errorf("set new user days: %w", err)
	}
	return nil
}
