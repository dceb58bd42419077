// internal/ownership/expiry.go
package ownership

import (
	"database/sql"
	"strings"
	"time"

	"talent-crm/internal/ledger"
)

// Clock abstracts time for the expiry predicate and the sweeper so tests
// advance a fake clock instead of sleeping.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns the wall clock.
func SystemClock() Clock { return systemClock{} }

// Expired reports whether a follow-up commitment has lapsed. A commitment
// expires at local midnight of the day after the follow-up date; a zero
// date never expires.
func Expired(followUp, now time.Time) bool {
	if followUp.IsZero() {
		return false
	}
	deadline := time.Date(followUp.Year(), followUp.Month(), followUp.Day(),
		0, 0, 0, 0, now.Location()).AddDate(0, 0, 1)
	return !now.Before(deadline)
}

// TokenMarkedOpen reports whether a ledger follow-up token already
// carries the open-profile annotation.
func TokenMarkedOpen(token string) bool {
	return strings.Contains(token, ledger.OpenProfileSuffix)
}

// ExpiredToken evaluates a raw ledger NFD token. An annotated token
// counts as expired regardless of its date, which keeps repeated sweeps
// idempotent. Unparsable tokens never expire.
func ExpiredToken(token string, now time.Time) bool {
	if TokenMarkedOpen(token) {
		return true
	}
	base := strings.TrimSpace(token)
	if base == "" {
		return false
	}
	t, err := time.Parse(ledger.DateLayout, base)
	if err != nil {
		return false
	}
	return Expired(t, now)
}

// Claimable is the unowned-state predicate: no current owner, and either
// an explicit open-profile label, a missing follow-up date, or an expired
// one.
func Claimable(ownerCode, statusLabel string, followUp sql.NullTime, now time.Time) bool {
	if strings.TrimSpace(ownerCode) != "" {
		return false
	}
	if ledger.IsOpenProfileLabel(statusLabel) {
		return true
	}
	if !followUp.Valid {
		return true
	}
	return Expired(followUp.Time, now)
}
