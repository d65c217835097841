package inactivity

import (
	"time"

	"inactivity-service/internal/models"
)

// Evaluate returns the ids of members considered inactive under cfg at the
// given instant. Administrators are always exempt. Members still inside the
// grace period after joining are exempt; a member exactly at new_user_days
// is eligible. A member is flagged when at least inactive_days whole days
// have elapsed since their last activity (boundary inclusive).
//
// The function is a stateless pass over the snapshot: no I/O, no clock
// reads, no side effects.
func Evaluate(records []models.ActivityRecord, adminIDs map[int64]struct{}, now time.Time, cfg models.ChatConfig) []int64 {
	var flagged []int64
	for _, rec := range records {
		if _, isAdmin := adminIDs[rec.UserID]; isAdmin {
			continue
		}

		if wholeDays(now.Sub(rec.JoinDate)) < cfg.NewUserDays {
			continue
		}

		if wholeDays(now.Sub(rec.LastActivity)) >= cfg.InactiveDays {
			flagged = append(flagged, rec.UserID)
		}
	}
	return flagged
}

// wholeDays truncates toward zero, so a last_activity in the future yields
// a negative count and never satisfies a positive threshold.
func wholeDays(d time.Duration) int {
	return int(d / (24 * time.Hour))
}
