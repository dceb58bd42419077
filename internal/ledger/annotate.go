// internal/ledger/annotate.go
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"talent-crm/internal/common/logger"
)

// Annotator rewrites the single most recent ledger entry's follow-up
// token with the open-profile suffix. Older entries are left untouched;
// running it twice is the same as running it once.
type Annotator struct {
	db     *sql.DB
	logger logger.Logger
}

func NewAnnotator(db *sql.DB, log logger.Logger) *Annotator {
	return &Annotator{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "ledger-annotator"}),
	}
}

// MarkLatestOpenProfile reports whether the ledger changed. A ledger with
// no entries, no follow-up token on its latest entry, or an already
// annotated token is a no-op, not an error.
func (a *Annotator) MarkLatestOpenProfile(ctx context.Context, candidateID string) (bool, error) {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("%w: begin: %v", ErrLedgerWriteFailed, err)
	}
	defer tx.Rollback()

	var ledgerStr string
	err = tx.QueryRowContext(ctx,
		`SELECT ledger FROM candidates WHERE id = $1`, candidateID).Scan(&ledgerStr)
	if err == sql.ErrNoRows {
		return false, fmt.Errorf("%w: candidate %s", ErrCandidateNotFound, candidateID)
	}
	if err != nil {
		return false, fmt.Errorf("%w: read ledger: %v", ErrLedgerWriteFailed, err)
	}

	entries, _ := Decode(ledgerStr)
	if len(entries) == 0 {
		return false, nil
	}
	token := entries[0].NextFollowUpDate
	if token == "" || strings.Contains(token, OpenProfileSuffix) {
		return false, nil
	}

	oldFrag := segNFD + token
	newFrag := oldFrag + " " + OpenProfileSuffix
	newLedger, ok := replaceLastFragment(ledgerStr, oldFrag, newFrag)
	if !ok {
		a.logger.Warn("follow-up token not found in ledger text", map[string]interface{}{
			"candidateId": candidateID,
			"token":       token,
		})
		return false, nil
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE candidates SET ledger = $1, updated_at = NOW() WHERE id = $2`,
		newLedger, candidateID,
	); err != nil {
		return false, fmt.Errorf("%w: update ledger: %v", ErrLedgerWriteFailed, err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("%w: commit: %v", ErrLedgerWriteFailed, err)
	}
	return true, nil
}

// replaceLastFragment swaps the last occurrence of oldFrag that sits on
// semicolon boundaries. Appends place the newest entry at the end of the
// blob, so the last occurrence is the one belonging to the most recent
// entry even when older entries carry an identical token.
func replaceLastFragment(s, oldFrag, newFrag string) (string, bool) {
	end := len(s)
	for {
		idx := strings.LastIndex(s[:end], oldFrag)
		if idx < 0 {
			return s, false
		}
		startOK := idx == 0 || s[idx-1] == ';'
		stop := idx + len(oldFrag)
		endOK := stop == len(s) || s[stop] == ';'
		if startOK && endOK {
			return s[:idx] + newFrag + s[stop:], true
		}
		end = idx
	}
}
