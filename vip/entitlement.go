package vip

import (
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

// Entitlement is a user's time-bounded access grant. Rows are never expired in
// storage; validity is computed against the clock at read time.
type Entitlement struct {
	bun.BaseModel `bun:"table:entitlement"`

	UserID    string `bun:"user_id,pk" json:"user_id"`
	ExpiresAt int64  `bun:"expires_at" json:"expires_at"`
	Package   string `bun:"package" json:"package"`
}

// ActiveAt reports whether the entitlement is valid at the given time.
// Nil-safe: an absent entitlement is never active.
func (e *Entitlement) ActiveAt(now time.Time) bool {
	return e != nil && e.ExpiresAt > now.Unix()
}

// Evaluate computes VIP validity. When invalid the returned expiry is zero and
// must not be displayed.
func Evaluate(e *Entitlement, now time.Time) (bool, int64) {
	if !e.ActiveAt(now) {
		return false, 0
	}
	return true, e.ExpiresAt
}

// FormatRemaining renders the time left until expiresAt as the two most
// significant non-zero units: days+hours, else hours+minutes, else minutes.
// Non-positive remainders render as "expired"; callers normally check
// validity first, so that path is defensive.
func FormatRemaining(expiresAt, now int64) string {
	remaining := expiresAt - now
	if remaining <= 0 {
		return "expired"
	}
	days := remaining / 86400
	remaining %= 86400
	hours := remaining / 3600
	remaining %= 3600
	minutes := remaining / 60

	switch {
	case days > 0:
		return fmt.Sprintf("%d days, %d hours", days, hours)
	case hours > 0:
		return fmt.Sprintf("%d hours, %d minutes", hours, minutes)
	default:
		return fmt.Sprintf("%d minutes", minutes)
	}
}

// FormatExpiry renders an expiry timestamp as a local date for replies.
func FormatExpiry(expiresAt int64) string {
	return time.Unix(expiresAt, 0).Format("2006-01-02 15:04:05")
}
