// internal/ledger/entry.go
package ledger

import "fmt"

// Date layouts used inside the ledger text. API input dates arrive as
// YYYY-MM-DD and are converted before encoding.
const (
	DateLayout      = "02-01-2006"
	EntryTimeLayout = "02-01-2006 15:04:05"
	InputDateLayout = "2006-01-02"
)

// OpenProfileSuffix marks a follow-up date whose commitment has expired
// and whose engagement has been released for claiming.
const OpenProfileSuffix = "(open profile)"

// Entry is one decoded feedback record. Date fields carry the raw ledger
// tokens (DD-MM-YYYY, possibly annotated with the open-profile suffix);
// EntryTime is DD-MM-YYYY HH:MM:SS. Raw preserves the fragment exactly as
// stored so callers can correlate entries back to the blob.
type Entry struct {
	Feedback            string       `json:"feedbackText"`
	StatusLabel         string       `json:"statusLabel,omitempty"`
	NextFollowUpDate    string       `json:"nextFollowUpDate,omitempty"`
	ExpectedJoiningDate string       `json:"joiningDate,omitempty"`
	InterviewDate       string       `json:"interviewDate,omitempty"`
	CallStatus          string       `json:"callStatus,omitempty"`
	Remarks             string       `json:"remarks,omitempty"`
	AuthorDisplay       string       `json:"authorDisplay,omitempty"`
	EntryTime           string       `json:"entryTimestamp,omitempty"`
	OriginCreation      bool         `json:"isOriginCreationEntry"`
	Raw                 string       `json:"-"`
	Problems            []ParseError `json:"-"`
}

// ParseError records a fragment-level decode problem. Problems never fail
// a decode; they accompany the best-effort entry so tests and callers can
// see what degraded.
type ParseError struct {
	Fragment string
	Field    string
	Reason   string
}

func (e ParseError) Error() string {
	return fmt.Sprintf("ledger parse: field %q in fragment %q: %s", e.Field, e.Fragment, e.Reason)
}
