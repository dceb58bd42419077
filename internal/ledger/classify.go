// internal/ledger/classify.go
package ledger

import "strings"

// StatusGroup drives which date fields an entry carries and which
// mirrored engagement columns get force-cleared on write.
type StatusGroup int

const (
	GroupOther StatusGroup = iota
	GroupInterview
	GroupSelected
)

// StatusOpenProfile is the label that marks an engagement as unowned and
// claimable regardless of its follow-up date.
const StatusOpenProfile = "open profile"

// ClassifyStatus buckets a free-text status label. Interview-stage labels
// ("Interview Fixed", "Interview Rescheduled", ...) carry an interview
// date; selection-stage labels ("Selected", "Offer Released", "Joined")
// carry an expected joining date; everything else carries only the next
// follow-up date.
func ClassifyStatus(label string) StatusGroup {
	n := strings.ToLower(strings.TrimSpace(label))
	switch {
	case strings.Contains(n, "interview"):
		return GroupInterview
	case strings.Contains(n, "select"), n == "offer released", n == "offer", n == "joined":
		return GroupSelected
	default:
		return GroupOther
	}
}

// IsOpenProfileLabel reports whether a status label marks the engagement
// as an open profile.
func IsOpenProfileLabel(label string) bool {
	return strings.EqualFold(strings.TrimSpace(label), StatusOpenProfile)
}
