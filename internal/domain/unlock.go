package domain

import (
	"time"

	"github.com/google/uuid"
)

// UnitUnlock is a time-boxed access grant to a locked word group, earned by
// watching a rewarded ad. A group with no row, or an expired row, is locked
// for non-premium users unless it is a top-level group.
type UnitUnlock struct {
	UserID    uuid.UUID `json:"user_id"`
	GroupID   uuid.UUID `json:"group_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Active reports whether the unlock is still valid at the given time.
func (u *UnitUnlock) Active(now time.Time) bool {
	return u.ExpiresAt.After(now)
}

// DailyReviewCount is one row of the free-tier review counter, keyed by the
// trusted-clock date string (YYYY-MM-DD). Rows for past days are simply
// ignored, which makes the daily reset implicit and transaction-safe.
type DailyReviewCount struct {
	UserID uuid.UUID `json:"user_id"`
	Day    string    `json:"day"`
	Count  int       `json:"count"`
}

// DayKey formats a timestamp as the counter's date key, in UTC.
func DayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
