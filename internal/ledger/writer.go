// internal/ledger/writer.go
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"talent-crm/internal/common/logger"
	"talent-crm/internal/common/metrics"
)

var (
	ErrCandidateNotFound = errors.New("CANDIDATE_NOT_FOUND")
	ErrJobNotFound       = errors.New("JOB_NOT_FOUND")
	ErrLedgerWriteFailed = errors.New("LEDGER_WRITE_FAILED")
)

// Writer appends or replaces ledger entries and keeps the mirrored
// job_engagements columns consistent with the encoded text. Both writes
// happen in one transaction; a partial write is a defect, not a state.
type Writer struct {
	db     *sql.DB
	logger logger.Logger
	now    func() time.Time
}

func NewWriter(db *sql.DB, log logger.Logger) *Writer {
	return &Writer{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "ledger-writer"}),
		now:    time.Now,
	}
}

// WriteInput carries one feedback write. Dates arrive as YYYY-MM-DD; an
// empty date clears the mirrored column, an invalid one is skipped with a
// warning and leaves the column as it was. EntryIndex, when set, replaces
// the entry at that storage-order position; out-of-range falls back to
// append.
type WriteInput struct {
	CandidateID         string
	JobEngagementID     int64
	Feedback            string
	StatusLabel         string
	NextFollowUpDate    string
	ExpectedJoiningDate string
	InterviewDate       string
	CallStatus          string
	Remarks             string
	AuthorDisplay       string
	SubmissionFlag      *bool
	SubmissionDate      string
	EntryIndex          *int
}

type dateField struct {
	write bool
	val   sql.NullTime
	token string
}

func (w *Writer) parseDate(field, raw string) dateField {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return dateField{write: true}
	}
	t, err := time.Parse(InputDateLayout, raw)
	if err != nil {
		w.logger.Warn("invalid date input skipped", map[string]interface{}{
			"field": field,
			"value": raw,
			"error": err.Error(),
		})
		return dateField{}
	}
	return dateField{write: true, val: sql.NullTime{Time: t, Valid: true}, token: t.Format(DateLayout)}
}

func (f dateField) column(current sql.NullTime) sql.NullTime {
	if f.write {
		return f.val
	}
	return current
}

// AppendOrReplaceEntry sanitizes the input, classifies the status label,
// encodes the entry into the candidate's ledger and synchronizes the
// engagement's date/status/submission columns, all in one transaction.
// It returns the freshly decoded entry list.
func (w *Writer) AppendOrReplaceEntry(ctx context.Context, in *WriteInput) ([]Entry, error) {
	group := ClassifyStatus(in.StatusLabel)

	nfd := w.parseDate("nextFollowUpDate", in.NextFollowUpDate)
	ifd := w.parseDate("interviewDate", in.InterviewDate)
	ejd := w.parseDate("expectedJoiningDate", in.ExpectedJoiningDate)

	now := w.now()
	entry := Entry{
		Feedback:            Sanitize(in.Feedback),
		StatusLabel:         Sanitize(in.StatusLabel),
		NextFollowUpDate:    nfd.token,
		InterviewDate:       ifd.token,
		ExpectedJoiningDate: ejd.token,
		CallStatus:          Sanitize(in.CallStatus),
		Remarks:             Sanitize(in.Remarks),
		AuthorDisplay:       Sanitize(in.AuthorDisplay),
		EntryTime:           now.Format(EntryTimeLayout),
	}
	encoded := Encode(entry)

	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: begin: %v", ErrLedgerWriteFailed, err)
	}
	defer tx.Rollback()

	var ledgerStr string
	err = tx.QueryRowContext(ctx,
		`SELECT ledger FROM candidates WHERE id = $1`, in.CandidateID).Scan(&ledgerStr)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: candidate %s", ErrCandidateNotFound, in.CandidateID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read ledger: %v", ErrLedgerWriteFailed, err)
	}

	var (
		curNFD, curIFD, curEJD, curSubDate sql.NullTime
		curSubFlag                         bool
	)
	err = tx.QueryRowContext(ctx, `
		SELECT next_follow_up_date, interview_date, expected_joining_date,
		       submission_flag, submission_date
		FROM job_engagements
		WHERE id = $1 AND candidate_id = $2`,
		in.JobEngagementID, in.CandidateID,
	).Scan(&curNFD, &curIFD, &curEJD, &curSubFlag, &curSubDate)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: engagement %d", ErrJobNotFound, in.JobEngagementID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read engagement: %v", ErrLedgerWriteFailed, err)
	}

	newLedger := ""
	if in.EntryIndex != nil {
		var replaced bool
		newLedger, replaced = ReplaceAt(ledgerStr, *in.EntryIndex, encoded)
		if !replaced {
			w.logger.Warn("entry index out of range, appending instead", map[string]interface{}{
				"candidateId": in.CandidateID,
				"entryIndex":  *in.EntryIndex,
			})
		}
	} else {
		newLedger = Append(ledgerStr, encoded)
	}

	// Classification decides which mirrored date columns survive:
	// interview-stage entries force-clear the joining date, selection-stage
	// entries force-clear the interview date, everything else clears both.
	colNFD := nfd.column(curNFD)
	colIFD := sql.NullTime{}
	colEJD := sql.NullTime{}
	switch group {
	case GroupInterview:
		colIFD = ifd.column(curIFD)
	case GroupSelected:
		colEJD = ejd.column(curEJD)
	}

	colSubFlag := curSubFlag
	colSubDate := curSubDate
	if in.SubmissionFlag != nil {
		colSubFlag = *in.SubmissionFlag
		sub := w.parseDate("submissionDate", in.SubmissionDate)
		colSubDate = sub.column(curSubDate)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE candidates SET ledger = $1, updated_at = NOW() WHERE id = $2`,
		newLedger, in.CandidateID,
	); err != nil {
		return nil, fmt.Errorf("%w: update ledger: %v", ErrLedgerWriteFailed, err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE job_engagements
		SET status_label = $1, next_follow_up_date = $2, interview_date = $3,
		    expected_joining_date = $4, submission_flag = $5, submission_date = $6,
		    updated_at = NOW()
		WHERE id = $7`,
		entry.StatusLabel, colNFD, colIFD, colEJD, colSubFlag, colSubDate,
		in.JobEngagementID,
	); err != nil {
		return nil, fmt.Errorf("%w: update engagement: %v", ErrLedgerWriteFailed, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: commit: %v", ErrLedgerWriteFailed, err)
	}

	metrics.LedgerEntriesWritten.Inc()

	entries, _ := Decode(newLedger)
	return entries, nil
}
