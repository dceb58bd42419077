// internal/ledger/annotate_test.go
package ledger

import (
	"context"
	"testing"

	"talent-crm/internal/common/logger"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func TestAnnotator_MarksLatestEntry(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	a := NewAnnotator(db, logger.NewTestLogger(t))

	blob := "Feedback-older;NFD-01-08-2026;Entry Time01-07-2026 09:00:00;" +
		EntrySeparator +
		"Feedback-latest;NFD-05-08-2026;Entry Time20-07-2026 09:00:00;"

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT ledger FROM candidates`).
		WithArgs("cand-001").
		WillReturnRows(sqlmock.NewRows([]string{"ledger"}).AddRow(blob))
	mock.ExpectExec(`UPDATE candidates SET ledger`).
		WithArgs(
			"Feedback-older;NFD-01-08-2026;Entry Time01-07-2026 09:00:00;"+
				EntrySeparator+
				"Feedback-latest;NFD-05-08-2026 (open profile);Entry Time20-07-2026 09:00:00;",
			"cand-001",
		).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	changed, err := a.MarkLatestOpenProfile(context.Background(), "cand-001")
	assert.NoError(t, err)
	assert.True(t, changed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnnotator_IdempotentOnAnnotatedToken(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	a := NewAnnotator(db, logger.NewTestLogger(t))

	blob := "Feedback-latest;NFD-05-08-2026 (open profile);Entry Time20-07-2026 09:00:00;"

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT ledger FROM candidates`).
		WithArgs("cand-001").
		WillReturnRows(sqlmock.NewRows([]string{"ledger"}).AddRow(blob))
	mock.ExpectRollback()

	changed, err := a.MarkLatestOpenProfile(context.Background(), "cand-001")
	assert.NoError(t, err)
	assert.False(t, changed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnnotator_NoEntriesNoOp(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	a := NewAnnotator(db, logger.NewTestLogger(t))

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT ledger FROM candidates`).
		WithArgs("cand-001").
		WillReturnRows(sqlmock.NewRows([]string{"ledger"}).AddRow(""))
	mock.ExpectRollback()

	changed, err := a.MarkLatestOpenProfile(context.Background(), "cand-001")
	assert.NoError(t, err)
	assert.False(t, changed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnnotator_SharedTokenOnlyLastOccurrenceChanges(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	a := NewAnnotator(db, logger.NewTestLogger(t))

	// Both entries carry the same follow-up token; only the later
	// occurrence in the blob may change.
	blob := "Feedback-first;NFD-05-08-2026;Entry Time01-07-2026 09:00:00;" +
		EntrySeparator +
		"Feedback-second;NFD-05-08-2026;Entry Time20-07-2026 09:00:00;"

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT ledger FROM candidates`).
		WithArgs("cand-001").
		WillReturnRows(sqlmock.NewRows([]string{"ledger"}).AddRow(blob))
	mock.ExpectExec(`UPDATE candidates SET ledger`).
		WithArgs(
			"Feedback-first;NFD-05-08-2026;Entry Time01-07-2026 09:00:00;"+
				EntrySeparator+
				"Feedback-second;NFD-05-08-2026 (open profile);Entry Time20-07-2026 09:00:00;",
			"cand-001",
		).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	changed, err := a.MarkLatestOpenProfile(context.Background(), "cand-001")
	assert.NoError(t, err)
	assert.True(t, changed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceLastFragment_BoundaryChecks(t *testing.T) {
	// Token embedded in a longer fragment must not match.
	out, ok := replaceLastFragment("Remarks-mentions NFD-05-08-2026 inline;NFD-05-08-2026;", "NFD-05-08-2026", "NFD-05-08-2026 X")
	assert.True(t, ok)
	assert.Equal(t, "Remarks-mentions NFD-05-08-2026 inline;NFD-05-08-2026 X;", out)

	_, ok = replaceLastFragment("nothing here", "NFD-05-08-2026", "x")
	assert.False(t, ok)
}
