package inactivity

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"inactivity-service/internal/models"
	"inactivity-service/internal/observability"
	"inactivity-service/internal/repositories"
)

// ErrInvalidDays rejects a malformed or out-of-range day value before
// anything is persisted.
var ErrInvalidDays = errors.New("invalid days value")

// ErrRosterUnavailable marks a scan aborted because the administrator
// roster could not be fetched. It is distinct from a scan that found
// nobody inactive.
var ErrRosterUnavailable = errors.New("administrator roster unavailable")

// RosterProvider supplies the administrator set for a chat.
type RosterProvider interface {
	GetAdministrators(ctx context.Context, chatID int64) (map[int64]struct{}, error)
}

// Clock abstracts the wall clock so scans are testable.
type Clock interface {
	Now() time.Time
}

// UTCClock is the production clock.
type UTCClock struct{}

// Now returns the current instant in UTC.
func (UTCClock) Now() time.Time { return time.Now().UTC() }

// Tracker is the activity ledger and scan engine. It owns no state beyond
// its collaborators; every read and write goes to the stores.
type Tracker struct {
	activityRepo repositories.ActivityRepository
	configRepo   repositories.ConfigRepository
	roster       RosterProvider
	clock        Clock
}

// NewTracker constructs a Tracker.
func NewTracker(activityRepo repositories.ActivityRepository, configRepo repositories.ConfigRepository, roster RosterProvider, clock Clock) *Tracker {
	if clock == nil {
		clock = UTCClock{}
	}
	return &Tracker{
		activityRepo: activityRepo,
		configRepo:   configRepo,
		roster:       roster,
		clock:        clock,
	}
}

// RecordActivity stamps the current instant for (user, chat).
func (t *Tracker) RecordActivity(ctx context.Context, userID, chatID int64) error {
	if err := t.activityRepo.RecordActivity(ctx, userID, chatID, t.clock.Now()); err != nil {
		return err
	}
	observability.IncActivityRecorded()
	return nil
}

// RunScan evaluates one chat against its thresholds. The config, roster and
// activity records are read once at the start and used for the whole scan;
// a config update racing the scan does not affect it. The roster fetch must
// succeed before any record is evaluated: a partial admin set would demote
// protected users to flaggable.
func (t *Tracker) RunScan(ctx context.Context, chatID int64) (models.ScanResult, error) {
	cfg, err := t.configRepo.GetConfig(ctx, chatID)
	if err != nil {
		observability.IncScan("storage_error")
		return models.ScanResult{}, err
	}

	adminIDs, err := t.roster.GetAdministrators(ctx, chatID)
	if err != nil {
		observability.IncScan("roster_error")
		return models.ScanResult{}, fmt.Errorf("%w: %v", ErrRosterUnavailable, err)
	}

	records, err := t.activityRepo.ListActivity(ctx, chatID)
	if err != nil {
		observability.IncScan("storage_error")
		return models.ScanResult{}, err
	}

	now := t.clock.Now()
	flagged := Evaluate(records, adminIDs, now, cfg)

	observability.IncScan("ok")
	observability.AddFlagged(len(flagged))
	return models.ScanResult{
		ChatID:       chatID,
		InactiveDays: cfg.InactiveDays,
		NewUserDays:  cfg.NewUserDays,
		Flagged:      flagged,
		Count:        len(flagged),
		ScannedAt:    now,
	}, nil
}

// SetInactiveDays parses and validates a user-supplied threshold, then
// persists it. The threshold must be a positive integer.
func (t *Tracker) SetInactiveDays(ctx context.Context, chatID int64, daysText string) (int, error) {
	days, err := parseDays(daysText)
	if err != nil {
		return 0, err
	}
	if days < 1 {
		return 0, fmt.Errorf("%w: must be at least 1, got %d", ErrInvalidDays, days)
	}
	return days, t.configRepo.SetInactiveDays(ctx, chatID, days)
}

// SetNewUserDays parses and validates a user-supplied grace period, then
// persists it. Zero is legal and disables the grace period.
func (t *Tracker) SetNewUserDays(ctx context.Context, chatID int64, daysText string) (int, error) {
	days, err := parseDays(daysText)
	if err != nil {
		return 0, err
	}
	if days < 0 {
		return 0, fmt.Errorf("%w: must not be negative, got %d", ErrInvalidDays, days)
	}
	return days, t.configRepo.SetNewUserDays(ctx, chatID, days)
}

// GetConfig returns the chat's effective thresholds.
func (t *Tracker) GetConfig(ctx context.Context, chatID int64) (models.ChatConfig, error) {
	return t.configRepo.GetConfig(ctx, chatID)
}

// ListActivity returns the chat's recorded activity.
func (t *Tracker) ListActivity(ctx context.Context, chatID int64) ([]models.ActivityRecord, error) {
	return t.activityRepo.ListActivity(ctx, chatID)
}

func parseDays(text string) (int, error) {
	days, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an integer", ErrInvalidDays, text)
	}
	return days, nil
}
