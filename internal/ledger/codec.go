// internal/ledger/codec.go
package ledger

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
)

// EntrySeparator joins system-authored entries in the ledger blob. Legacy
// data used single semicolons between entries; decode handles both.
const EntrySeparator = ";;;;;;"

const (
	segFeedback   = "Feedback-"
	segNFD        = "NFD-"
	segEJD        = "EJD-"
	segIFD        = "IFD-"
	segCallStatus = "CallStatus-"
	segRemarks    = "Remarks-"
	segEntryBy    = "Entry By-"
	segEntryTime  = "Entry Time"
	segTransfer   = "Profile assigned from"
)

// legacyStatusRE matches entry heads written by the oldest ledger format:
// a bare status word followed by a colon and free text.
var legacyStatusRE = regexp.MustCompile(`^(Selected|Rejected|Hired|Abscond|Dropped):\s*(.*)$`)

var continuationPrefixes = []string{
	segNFD, segEJD, segIFD, segCallStatus, segRemarks, segEntryBy, segEntryTime,
}

func isContinuation(frag string) bool {
	for _, p := range continuationPrefixes {
		if strings.HasPrefix(frag, p) {
			return true
		}
	}
	return false
}

// Encode builds the ledger string for a single entry. The status label
// classification selects which date segments appear: interview-stage
// entries carry IFD, selection-stage entries carry EJD, everything else
// only NFD. Free text passes through Sanitize.
func Encode(e Entry) string {
	segs := []string{segFeedback + Sanitize(e.Feedback)}
	segs = append(segs, segNFD+strings.TrimSpace(e.NextFollowUpDate))

	switch ClassifyStatus(e.StatusLabel) {
	case GroupInterview:
		segs = append(segs, segIFD+strings.TrimSpace(e.InterviewDate))
	case GroupSelected:
		segs = append(segs, segEJD+strings.TrimSpace(e.ExpectedJoiningDate))
	}

	segs = append(segs,
		segCallStatus+Sanitize(e.CallStatus),
		segRemarks+Sanitize(e.Remarks),
		segEntryBy+Sanitize(e.AuthorDisplay),
		segEntryTime+strings.TrimSpace(e.EntryTime),
	)
	return strings.Join(segs, ";") + ";"
}

// EncodeTransfer builds the ledger entry recording an ownership change.
// An empty previous owner renders as "(open profile)" so claims of
// released engagements read naturally in the history.
func EncodeTransfer(prevOwner, newOwner, assignedBy, feedback, nfdToken, entryTime string) string {
	if prevOwner == "" {
		prevOwner = OpenProfileSuffix
	}
	head := fmt.Sprintf("%s %s to %s by %s", segTransfer, Sanitize(prevOwner), Sanitize(newOwner), Sanitize(assignedBy))
	if fb := Sanitize(feedback); fb != "" {
		head += " - " + fb
	}
	segs := []string{
		head,
		segNFD + strings.TrimSpace(nfdToken),
		segCallStatus,
		segRemarks,
		segEntryBy + Sanitize(assignedBy),
		segEntryTime + strings.TrimSpace(entryTime),
	}
	return strings.Join(segs, ";") + ";"
}

// Append joins a freshly encoded entry onto the ledger with the
// six-semicolon separator.
func Append(ledgerStr, encoded string) string {
	if strings.TrimSpace(ledgerStr) == "" {
		return encoded
	}
	return ledgerStr + EntrySeparator + encoded
}

// ReplaceAt rebuilds the ledger with the entry at storage-order position
// idx replaced. An out-of-range index is not an error: the entry is
// appended instead, and the second return value reports which happened.
func ReplaceAt(ledgerStr string, idx int, encoded string) (string, bool) {
	raws := RawEntries(ledgerStr)
	if idx < 0 || idx >= len(raws) {
		return Append(ledgerStr, encoded), false
	}
	raws[idx] = strings.TrimSuffix(encoded, ";")
	return strings.Join(raws, EntrySeparator) + ";", true
}

// RawEntries returns the ledger's logical entries in storage order as raw
// strings, without deduplication or field extraction.
func RawEntries(ledgerStr string) []string {
	groups := groupFragments(ledgerStr)
	raws := make([]string, 0, len(groups))
	for _, g := range groups {
		raws = append(raws, strings.Join(g, ";"))
	}
	return raws
}

// Decode parses the full ledger blob into typed entries. It never fails:
// every malformed fragment degrades to a best-effort record, with the
// individual problems aggregated into the second return value. Entries
// come back sorted newest-first by entry timestamp; entries without a
// parsable timestamp sort last in storage order.
func Decode(ledgerStr string) ([]Entry, []ParseError) {
	groups := groupFragments(ledgerStr)

	// Exact-duplicate raw entries are dropped, first occurrence wins.
	seen := make(map[string]bool, len(groups))
	entries := make([]Entry, 0, len(groups))
	var problems []ParseError
	for _, g := range groups {
		raw := strings.Join(g, ";")
		if seen[raw] {
			continue
		}
		seen[raw] = true
		e := extractEntry(g, raw)
		problems = append(problems, e.Problems...)
		entries = append(entries, e)
	}

	// The entry first in storage order is the tentative origin record.
	var originRaw string
	if len(entries) > 0 {
		originRaw = entries[0].Raw
	}

	sortEntries(entries)
	applyOriginFlag(entries, originRaw)
	return entries, problems
}

func groupFragments(ledgerStr string) [][]string {
	var groups [][]string
	for _, frag := range strings.Split(ledgerStr, ";") {
		frag = strings.TrimSpace(frag)
		if frag == "" {
			continue
		}
		if isContinuation(frag) && len(groups) > 0 {
			groups[len(groups)-1] = append(groups[len(groups)-1], frag)
			continue
		}
		groups = append(groups, []string{frag})
	}
	return groups
}

func extractEntry(frags []string, raw string) Entry {
	e := Entry{Raw: raw}

	head := frags[0]
	switch {
	case strings.HasPrefix(head, segFeedback):
		e.Feedback = strings.TrimSpace(head[len(segFeedback):])
	case strings.HasPrefix(head, segTransfer):
		e.Feedback = head
		e.StatusLabel = "Profile Transfer"
	default:
		if m := legacyStatusRE.FindStringSubmatch(head); m != nil {
			e.StatusLabel = m[1]
			e.Feedback = strings.TrimSpace(m[2])
		} else {
			// Free text from the oldest format: keep it as the feedback.
			e.Feedback = head
		}
	}

	for _, frag := range frags[1:] {
		switch {
		case strings.HasPrefix(frag, segNFD):
			e.NextFollowUpDate = strings.TrimSpace(frag[len(segNFD):])
			e.Problems = validateDateToken(e.Problems, frag, "nextFollowUpDate", e.NextFollowUpDate)
		case strings.HasPrefix(frag, segEJD):
			e.ExpectedJoiningDate = strings.TrimSpace(frag[len(segEJD):])
			e.Problems = validateDateToken(e.Problems, frag, "joiningDate", e.ExpectedJoiningDate)
		case strings.HasPrefix(frag, segIFD):
			e.InterviewDate = strings.TrimSpace(frag[len(segIFD):])
			e.Problems = validateDateToken(e.Problems, frag, "interviewDate", e.InterviewDate)
		case strings.HasPrefix(frag, segCallStatus):
			e.CallStatus = strings.TrimSpace(frag[len(segCallStatus):])
		case strings.HasPrefix(frag, segRemarks):
			e.Remarks = strings.TrimSpace(frag[len(segRemarks):])
		case strings.HasPrefix(frag, segEntryBy):
			e.AuthorDisplay = strings.TrimSpace(frag[len(segEntryBy):])
		case strings.HasPrefix(frag, segEntryTime):
			e.EntryTime = strings.TrimSpace(frag[len(segEntryTime):])
			if e.EntryTime != "" {
				if _, err := time.Parse(EntryTimeLayout, e.EntryTime); err != nil {
					e.Problems = append(e.Problems, ParseError{
						Fragment: frag, Field: "entryTimestamp", Reason: err.Error(),
					})
				}
			}
		}
	}
	return e
}

// validateDateToken checks a DD-MM-YYYY token, tolerating the
// open-profile annotation. Bad tokens stay on the entry verbatim; only a
// problem record is added.
func validateDateToken(problems []ParseError, frag, field, token string) []ParseError {
	base := strings.TrimSpace(strings.TrimSuffix(token, OpenProfileSuffix))
	if base == "" {
		return problems
	}
	if _, err := time.Parse(DateLayout, base); err != nil {
		return append(problems, ParseError{Fragment: frag, Field: field, Reason: err.Error()})
	}
	return problems
}

func sortEntries(entries []Entry) {
	type keyed struct {
		e  Entry
		t  time.Time
		ok bool
	}
	ks := make([]keyed, len(entries))
	for i, e := range entries {
		k := keyed{e: e}
		if e.EntryTime != "" {
			if t, err := time.Parse(EntryTimeLayout, e.EntryTime); err == nil {
				k.t, k.ok = t, true
			}
		}
		ks[i] = k
	}
	sort.SliceStable(ks, func(i, j int) bool {
		switch {
		case ks[i].ok && ks[j].ok:
			return ks[i].t.After(ks[j].t)
		case ks[i].ok:
			return true
		default:
			return false
		}
	})
	for i := range ks {
		entries[i] = ks[i].e
	}
}

// applyOriginFlag marks the origin-creation entry: the entry that was
// first in storage order keeps the flag when still present after dedup
// and sorting; otherwise the chronologically oldest entry takes it.
func applyOriginFlag(entries []Entry, originRaw string) {
	if len(entries) == 0 {
		return
	}
	for i := range entries {
		if entries[i].Raw == originRaw {
			entries[i].OriginCreation = true
			return
		}
	}
	oldest := len(entries) - 1
	for i := len(entries) - 1; i >= 0; i-- {
		if _, err := time.Parse(EntryTimeLayout, entries[i].EntryTime); err == nil && entries[i].EntryTime != "" {
			oldest = i
			break
		}
	}
	entries[oldest].OriginCreation = true
}
