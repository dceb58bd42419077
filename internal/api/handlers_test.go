// internal/api/handlers_test.go
package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"talent-crm/internal/common/logger"
	"talent-crm/internal/ledger"
	"talent-crm/internal/ownership"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

type fakeClock struct {
	t time.Time
}

func (f *fakeClock) Now() time.Time { return f.t }

// newTestServer builds the full handler stack over a mocked database.
func newTestServer(t *testing.T) (sqlmock.Sqlmock, http.Handler) {
	t.Helper()
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	log := logger.NewTestLogger(t)
	clock := &fakeClock{t: time.Date(2026, 9, 11, 10, 0, 0, 0, time.Local)}

	writer := ledger.NewWriter(db, log)
	coordinator := ownership.NewCoordinator(db, nil, log, clock)
	manager := ownership.NewManager(db, nil, nil, log, clock)
	sweeper := ownership.NewSweeper(db, nil, log, clock, 0)

	h := NewHandler(db, writer, coordinator, manager, sweeper, nil, clock, nil, log)
	return mock, NewRouter(h, log)
}

func doJSON(t *testing.T, router http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestPostClaim_Success(t *testing.T) {
	mock, router := newTestServer(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT candidate_id, owner_code, previous_owner_code`).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{
			"candidate_id", "owner_code", "previous_owner_code", "status_label",
			"next_follow_up_date", "transfer_state",
		}).AddRow("cand-001", nil, nil, "open profile", nil, "Active"))
	mock.ExpectExec(`UPDATE job_engagements`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT ledger FROM candidates`).
		WithArgs("cand-001").
		WillReturnRows(sqlmock.NewRows([]string{"ledger"}).AddRow(""))
	mock.ExpectExec(`UPDATE candidates`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO ownership_transitions`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	rec := doJSON(t, router, http.MethodPost, "/jobs/42/claim",
		`{"claimantCode": "EXEC01", "feedback": "taking over"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ownerCode":"EXEC01"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostClaim_ConflictReturns409(t *testing.T) {
	mock, router := newTestServer(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT candidate_id, owner_code, previous_owner_code`).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{
			"candidate_id", "owner_code", "previous_owner_code", "status_label",
			"next_follow_up_date", "transfer_state",
		}).AddRow("cand-001", "EXEC02", nil, "In Progress", nil, "Active"))
	mock.ExpectRollback()

	rec := doJSON(t, router, http.MethodPost, "/jobs/42/claim",
		`{"claimantCode": "EXEC01"}`)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "CLAIM_CONFLICT")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostClaim_MissingClaimantIsRejected(t *testing.T) {
	mock, router := newTestServer(t)

	rec := doJSON(t, router, http.MethodPost, "/jobs/42/claim",
		`{"feedback": "no claimant"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "VALIDATION_FAILED")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostClaim_UnknownFieldRejected(t *testing.T) {
	mock, router := newTestServer(t)

	rec := doJSON(t, router, http.MethodPost, "/jobs/42/claim",
		`{"claimantCode": "EXEC01", "ownerCode": "EXEC01"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostAssign_BadJobID(t *testing.T) {
	mock, router := newTestServer(t)

	rec := doJSON(t, router, http.MethodPost, "/jobs/not-a-number/assign",
		`{"newOwnerCode": "EXEC02", "assignedByCode": "MGR01"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetFeedback_PaginatesNewestFirst(t *testing.T) {
	mock, router := newTestServer(t)

	blob := ""
	for _, e := range []ledger.Entry{
		{Feedback: "first call", AuthorDisplay: "EXEC01", EntryTime: "01-09-2026 10:00:00"},
		{Feedback: "second call", AuthorDisplay: "EXEC01", EntryTime: "02-09-2026 10:00:00"},
		{Feedback: "third call", AuthorDisplay: "EXEC01", EntryTime: "03-09-2026 10:00:00"},
	} {
		blob = ledger.Append(blob, ledger.Encode(e))
	}

	mock.ExpectQuery(`SELECT ledger, current_owner_code FROM candidates`).
		WithArgs("cand-001").
		WillReturnRows(sqlmock.NewRows([]string{"ledger", "current_owner_code"}).
			AddRow(blob, "EXEC01"))

	rec := doJSON(t, router, http.MethodGet, "/candidates/cand-001/feedback?limit=2", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `"total":3`)
	assert.Contains(t, body, "third call")
	assert.Contains(t, body, "second call")
	assert.NotContains(t, body, "first call")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetFeedback_OffsetPastEndIsEmpty(t *testing.T) {
	mock, router := newTestServer(t)

	blob := ledger.Encode(ledger.Entry{
		Feedback: "only call", AuthorDisplay: "EXEC01", EntryTime: "01-09-2026 10:00:00",
	})

	mock.ExpectQuery(`SELECT ledger, current_owner_code FROM candidates`).
		WithArgs("cand-001").
		WillReturnRows(sqlmock.NewRows([]string{"ledger", "current_owner_code"}).
			AddRow(blob, nil))

	rec := doJSON(t, router, http.MethodGet, "/candidates/cand-001/feedback?offset=10", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"entries":[]`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetFeedback_CandidateNotFound(t *testing.T) {
	mock, router := newTestServer(t)

	mock.ExpectQuery(`SELECT ledger, current_owner_code FROM candidates`).
		WithArgs("cand-missing").
		WillReturnRows(sqlmock.NewRows([]string{"ledger", "current_owner_code"}))

	rec := doJSON(t, router, http.MethodGet, "/candidates/cand-missing/feedback", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "CANDIDATE_NOT_FOUND")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetPermission_Owner(t *testing.T) {
	mock, router := newTestServer(t)

	mock.ExpectQuery(`SELECT owner_code, status_label, next_follow_up_date`).
		WithArgs(int64(42), "Active").
		WillReturnRows(sqlmock.NewRows([]string{
			"owner_code", "status_label", "next_follow_up_date",
			"owner_assigned_by_code", "previous_owner_code",
		}).AddRow("EXEC01", "In Progress", time.Date(2026, 9, 20, 0, 0, 0, 0, time.Local), "MGR01", nil))

	rec := doJSON(t, router, http.MethodGet, "/jobs/42/permission?actor=EXEC01", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"canWrite":true`)
	assert.Contains(t, rec.Body.String(), `"reason":"owner"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetPermission_ExpiredOwnedIsClaimable(t *testing.T) {
	mock, router := newTestServer(t)

	// Follow-up lapsed two days before the fixed clock.
	mock.ExpectQuery(`SELECT owner_code, status_label, next_follow_up_date`).
		WithArgs(int64(42), "Active").
		WillReturnRows(sqlmock.NewRows([]string{
			"owner_code", "status_label", "next_follow_up_date",
			"owner_assigned_by_code", "previous_owner_code",
		}).AddRow(nil, "In Progress", time.Date(2026, 9, 9, 0, 0, 0, 0, time.Local), nil, nil))

	rec := doJSON(t, router, http.MethodGet, "/jobs/42/permission?actor=EXEC05", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"canWrite":true`)
	assert.Contains(t, rec.Body.String(), `"reason":"claimable"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetPermission_OwnedByOther(t *testing.T) {
	mock, router := newTestServer(t)

	mock.ExpectQuery(`SELECT owner_code, status_label, next_follow_up_date`).
		WithArgs(int64(42), "Active").
		WillReturnRows(sqlmock.NewRows([]string{
			"owner_code", "status_label", "next_follow_up_date",
			"owner_assigned_by_code", "previous_owner_code",
		}).AddRow("EXEC01", "In Progress", time.Date(2026, 9, 20, 0, 0, 0, 0, time.Local), "MGR01", nil))

	rec := doJSON(t, router, http.MethodGet, "/jobs/42/permission?actor=EXEC02", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"canWrite":false`)
	assert.Contains(t, rec.Body.String(), `"reason":"owned-by-other"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetPermission_MissingActor(t *testing.T) {
	mock, router := newTestServer(t)

	rec := doJSON(t, router, http.MethodGet, "/jobs/42/permission", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetPermission_NotFound(t *testing.T) {
	mock, router := newTestServer(t)

	mock.ExpectQuery(`SELECT owner_code, status_label, next_follow_up_date`).
		WithArgs(int64(42), "Active").
		WillReturnRows(sqlmock.NewRows([]string{
			"owner_code", "status_label", "next_follow_up_date",
			"owner_assigned_by_code", "previous_owner_code",
		}))

	rec := doJSON(t, router, http.MethodGet, "/jobs/42/permission?actor=EXEC01", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "JOB_NOT_FOUND")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostSweep_Force(t *testing.T) {
	mock, router := newTestServer(t)

	mock.ExpectQuery(`UPDATE job_engagements`).
		WithArgs(time.Date(2026, 9, 11, 0, 0, 0, 0, time.Local)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "candidate_id"}))

	rec := doJSON(t, router, http.MethodPost, "/admin/sweep?force=true", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ran":true`)
	assert.NoError(t, mock.ExpectationsWereMet())
}
