// internal/ownership/claim_test.go
package ownership

import (
	"context"
	"errors"
	"testing"
	"time"

	"talent-crm/internal/common/logger"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

type fakeClock struct {
	t time.Time
}

func (f *fakeClock) Now() time.Time { return f.t }

func testClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 9, 11, 10, 0, 0, 0, time.Local)}
}

func lockedRow(owner, prevOwner, status interface{}, nfd interface{}, state string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"candidate_id", "owner_code", "previous_owner_code", "status_label",
		"next_follow_up_date", "transfer_state",
	}).AddRow("cand-001", owner, prevOwner, status, nfd, state)
}

func TestCoordinator_Claim_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	c := NewCoordinator(db, nil, logger.NewTestLogger(t), testClock())

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT candidate_id, owner_code, previous_owner_code`).
		WithArgs(int64(42)).
		WillReturnRows(lockedRow(nil, "EXEC09", "open profile", nil, "Active"))
	mock.ExpectExec(`UPDATE job_engagements`).
		WithArgs("EXEC01", sqlmock.AnyArg(), int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT ledger FROM candidates`).
		WithArgs("cand-001").
		WillReturnRows(sqlmock.NewRows([]string{"ledger"}).AddRow(""))
	mock.ExpectExec(`UPDATE candidates`).
		WithArgs(sqlmock.AnyArg(), "EXEC01", "cand-001").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO ownership_transitions`).
		WithArgs(sqlmock.AnyArg(), int64(42), "cand-001", "", "EXEC01", "EXEC01",
			"claimed-open-job", "").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	snap, err := c.Claim(context.Background(), &ClaimInput{
		JobEngagementID: 42,
		ClaimantCode:    "EXEC01",
		Feedback:        "taking this over",
		FollowUpDate:    "2026-09-18",
	})

	assert.NoError(t, err)
	assert.Equal(t, int64(42), snap.JobEngagementID)
	assert.Equal(t, "EXEC01", snap.OwnerCode)
	assert.Equal(t, "EXEC09", snap.PreviousOwnerCode)
	assert.True(t, snap.IsAssigned)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCoordinator_Claim_ConflictWhenOwned(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	c := NewCoordinator(db, nil, logger.NewTestLogger(t), testClock())

	// Another executive already holds the engagement under the lock.
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT candidate_id, owner_code, previous_owner_code`).
		WithArgs(int64(42)).
		WillReturnRows(lockedRow("EXEC02", nil, "In Progress", nil, "Active"))
	mock.ExpectRollback()

	_, err = c.Claim(context.Background(), &ClaimInput{
		JobEngagementID: 42,
		ClaimantCode:    "EXEC01",
	})

	assert.ErrorIs(t, err, ErrClaimConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCoordinator_Claim_ConflictWhenCommitmentLive(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	c := NewCoordinator(db, nil, logger.NewTestLogger(t), testClock())

	// Unowned, but the follow-up date is still in the future.
	future := time.Date(2026, 9, 20, 0, 0, 0, 0, time.Local)
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT candidate_id, owner_code, previous_owner_code`).
		WithArgs(int64(42)).
		WillReturnRows(lockedRow(nil, nil, "In Progress", future, "Active"))
	mock.ExpectRollback()

	_, err = c.Claim(context.Background(), &ClaimInput{
		JobEngagementID: 42,
		ClaimantCode:    "EXEC01",
	})

	assert.ErrorIs(t, err, ErrClaimConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCoordinator_Claim_InactiveRowConflicts(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	c := NewCoordinator(db, nil, logger.NewTestLogger(t), testClock())

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT candidate_id, owner_code, previous_owner_code`).
		WithArgs(int64(42)).
		WillReturnRows(lockedRow(nil, nil, nil, nil, "Inactive"))
	mock.ExpectRollback()

	_, err = c.Claim(context.Background(), &ClaimInput{
		JobEngagementID: 42,
		ClaimantCode:    "EXEC01",
	})

	assert.ErrorIs(t, err, ErrClaimConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCoordinator_Claim_JobNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	c := NewCoordinator(db, nil, logger.NewTestLogger(t), testClock())

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT candidate_id, owner_code, previous_owner_code`).
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{
			"candidate_id", "owner_code", "previous_owner_code", "status_label",
			"next_follow_up_date", "transfer_state",
		}))
	mock.ExpectRollback()

	_, err = c.Claim(context.Background(), &ClaimInput{
		JobEngagementID: 99,
		ClaimantCode:    "EXEC01",
	})

	assert.ErrorIs(t, err, ErrJobNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCoordinator_Claim_RollbackOnLedgerWriteFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	c := NewCoordinator(db, nil, logger.NewTestLogger(t), testClock())

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT candidate_id, owner_code, previous_owner_code`).
		WithArgs(int64(42)).
		WillReturnRows(lockedRow(nil, nil, "open profile", nil, "Active"))
	mock.ExpectExec(`UPDATE job_engagements`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT ledger FROM candidates`).
		WithArgs("cand-001").
		WillReturnRows(sqlmock.NewRows([]string{"ledger"}).AddRow(""))
	mock.ExpectExec(`UPDATE candidates`).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	_, err = c.Claim(context.Background(), &ClaimInput{
		JobEngagementID: 42,
		ClaimantCode:    "EXEC01",
	})

	assert.ErrorIs(t, err, ErrUpdateFailed)
	assert.NoError(t, mock.ExpectationsWereMet())
}
