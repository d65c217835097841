package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"inactivity-service/internal/models"
)

// ActivityRepository abstracts activity ledger persistence.
type ActivityRepository interface {
	RecordActivity(ctx context.Context, userID, chatID int64, ts time.Time) error
	ListActivity(ctx context.Context, chatID int64) ([]models.ActivityRecord, error)
}

// ActivityRepo is a sqlx implementation of ActivityRepository.
type ActivityRepo struct {
	db *sqlx.DB
}

// NewActivityRepo constructs an ActivityRepo.
func NewActivityRepo(db *sqlx.DB) *ActivityRepo {
	return &ActivityRepo{db: db}
}

// RecordActivity upserts the record for (user, chat) in one statement.
// join_date is only written on insert; existing rows keep their original
// value and only last_activity moves forward.
func (r *ActivityRepo) RecordActivity(ctx context.Context, userID, chatID int64, ts time.Time) error {
	_, err := r.db.ExecContext(ctx, `
        INSERT INTO activity (user_id, chat_id, last_activity, join_date)
        VALUES ($1, $2, $3, $3)
        ON CONFLICT (user_id, chat_id)
        DO UPDATE SET last_activity = EXCLUDED.last_activity`,
		userID, chatID, ts)
	if err != nil {
		return fmt.Errorf("record activity: %w", err)
	}
	return nil
}

// ListActivity returns every record for the chat, order unspecified.
func (r *ActivityRepo) ListActivity(ctx context.Context, chatID int64) ([]models.ActivityRecord, error) {
	var records []models.ActivityRecord
	err := r.db.SelectContext(ctx, &records, `SELECT user_id, chat_id, last_activity, join_date FROM activity WHERE chat_id=$1`, chatID)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	return records, nil
}
