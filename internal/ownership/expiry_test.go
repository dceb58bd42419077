// internal/ownership/expiry_test.go
package ownership

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExpired_MidnightBoundary(t *testing.T) {
	followUp := time.Date(2026, 9, 10, 0, 0, 0, 0, time.Local)

	// Any moment on the follow-up day itself: still committed.
	assert.False(t, Expired(followUp, time.Date(2026, 9, 10, 0, 0, 0, 0, time.Local)))
	assert.False(t, Expired(followUp, time.Date(2026, 9, 10, 23, 59, 59, 0, time.Local)))

	// Midnight of the next day: expired.
	assert.True(t, Expired(followUp, time.Date(2026, 9, 11, 0, 0, 0, 0, time.Local)))
	assert.True(t, Expired(followUp, time.Date(2026, 9, 12, 8, 0, 0, 0, time.Local)))
}

func TestExpired_ZeroDateNeverExpires(t *testing.T) {
	assert.False(t, Expired(time.Time{}, time.Date(2030, 1, 1, 0, 0, 0, 0, time.Local)))
}

func TestExpired_TimeOfDayOnFollowUpIgnored(t *testing.T) {
	// A follow-up stored with a late time component still expires at the
	// same midnight as one stored at 00:00.
	followUp := time.Date(2026, 9, 10, 18, 45, 0, 0, time.Local)
	assert.False(t, Expired(followUp, time.Date(2026, 9, 10, 23, 0, 0, 0, time.Local)))
	assert.True(t, Expired(followUp, time.Date(2026, 9, 11, 0, 0, 0, 0, time.Local)))
}

func TestExpiredToken(t *testing.T) {
	now := time.Date(2026, 9, 11, 10, 0, 0, 0, time.Local)

	assert.True(t, ExpiredToken("10-09-2026", now))
	assert.False(t, ExpiredToken("11-09-2026", now))
	assert.False(t, ExpiredToken("", now))
	// Unparsable tokens never expire.
	assert.False(t, ExpiredToken("banana", now))
	// Annotated tokens count as expired regardless of date.
	assert.True(t, ExpiredToken("01-01-2030 (open profile)", now))
}

func TestClaimable(t *testing.T) {
	now := time.Date(2026, 9, 11, 10, 0, 0, 0, time.Local)
	future := sql.NullTime{Time: time.Date(2026, 9, 20, 0, 0, 0, 0, time.Local), Valid: true}
	past := sql.NullTime{Time: time.Date(2026, 9, 1, 0, 0, 0, 0, time.Local), Valid: true}
	none := sql.NullTime{}

	// Owned is never claimable, whatever the dates say.
	assert.False(t, Claimable("EXEC01", "", past, now))
	assert.False(t, Claimable("EXEC01", "open profile", none, now))

	// Unowned: open label, missing date, or expired date all open it.
	assert.True(t, Claimable("", "open profile", future, now))
	assert.True(t, Claimable("", "In Progress", none, now))
	assert.True(t, Claimable("", "In Progress", past, now))

	// Unowned with a live commitment stays closed.
	assert.False(t, Claimable("", "In Progress", future, now))
}
