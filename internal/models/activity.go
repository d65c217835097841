package models

import "time"

// ActivityRecord tracks when a user was last seen in a chat.
// JoinDate is written once, on the first observed event for the
// (user, chat) pair, and never updated afterwards.
type ActivityRecord struct {
	UserID       int64     `db:"user_id" json:"user_id"`
	ChatID       int64     `db:"chat_id" json:"chat_id"`
	LastActivity time.Time `db:"last_activity" json:"last_activity"`
	JoinDate     time.Time `db:"join_date" json:"join_date"`
}

// ChatConfig holds the inactivity thresholds for one chat.
type ChatConfig struct {
	ChatID       int64 `db:"chat_id" json:"chat_id"`
	InactiveDays int   `db:"inactive_days" json:"inactive_days"`
	NewUserDays  int   `db:"new_user_days" json:"new_user_days"`
}

// ScanResult is the outcome of one inactivity scan over a chat.
type ScanResult struct {
	ChatID       int64     `json:"chat_id"`
	InactiveDays int       `json:"inactive_days"`
	NewUserDays  int       `json:"new_user_days"`
	Flagged      []int64   `json:"flagged_user_ids"`
	Count        int       `json:"count"`
	ScannedAt    time.Time `json:"scanned_at"`
}

// ScanEvent is emitted over WebSocket connections for scan subscribers.
type ScanEvent struct {
	Type   string      `json:"type"`
	Result *ScanResult `json:"result,omitempty"`
}
