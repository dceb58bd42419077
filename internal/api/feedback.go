package api

import (
	"database/sql"
	"net/http"
	"strconv"

	apperrors "talent-crm/internal/common/errors"
	"talent-crm/internal/ledger"

	"github.com/go-chi/chi/v5"
)

const (
	defaultFeedbackPageSize = 50
	maxFeedbackPageSize     = 200
)

type feedbackRequest struct {
	Feedback         string `json:"feedback"`
	StatusLabel      string `json:"statusLabel"`
	NextFollowUpDate string `json:"nextFollowUpDate"`
	JoiningDate      string `json:"joiningDate"`
	InterviewDate    string `json:"interviewDate"`
	CallStatus       string `json:"callStatus"`
	Remarks          string `json:"remarks"`
	EnteredBy        string `json:"enteredBy"`
	SubmissionFlag   *bool  `json:"submissionFlag"`
	SubmissionDate   string `json:"submissionDate"`
	EntryIndex       *int   `json:"entryIndex"`
}

// PostFeedback appends (or replaces, when entryIndex is set) a ledger
// entry for the candidate-job pair and returns the decoded ledger.
func (h *Handler) PostFeedback(w http.ResponseWriter, r *http.Request) {
	candidateID := chi.URLParam(r, "candidateID")
	jobID, err := strconv.ParseInt(chi.URLParam(r, "jobID"), 10, 64)
	if err != nil {
		h.errs.HandleHTTPError(w, r, apperrors.NewValidationFailedError("jobID must be an integer"))
		return
	}

	var req feedbackRequest
	if err := decodeValidated(r, feedbackSchema, &req); err != nil {
		h.errs.HandleHTTPError(w, r, err)
		return
	}

	entries, err := h.writer.AppendOrReplaceEntry(r.Context(), &ledger.WriteInput{
		CandidateID:         candidateID,
		JobEngagementID:     jobID,
		Feedback:            req.Feedback,
		StatusLabel:         req.StatusLabel,
		NextFollowUpDate:    req.NextFollowUpDate,
		ExpectedJoiningDate: req.JoiningDate,
		InterviewDate:       req.InterviewDate,
		CallStatus:          req.CallStatus,
		Remarks:             req.Remarks,
		AuthorDisplay:       req.EnteredBy,
		SubmissionFlag:      req.SubmissionFlag,
		SubmissionDate:      req.SubmissionDate,
		EntryIndex:          req.EntryIndex,
	})
	if err != nil {
		h.errs.HandleHTTPError(w, r, translate(err, jobID, candidateID))
		return
	}

	h.cache.Invalidate(r.Context(), jobID)

	kind := "append"
	if req.EntryIndex != nil {
		kind = "replace"
	}
	h.obs.RecordLedgerEntry(r.Context(), kind)

	WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"candidateId": candidateID,
		"entries":     entries,
	})
}

// GetFeedback returns the candidate's decoded feedback history, newest
// first. Unparsable entries come last with their problems attached.
func (h *Handler) GetFeedback(w http.ResponseWriter, r *http.Request) {
	candidateID := chi.URLParam(r, "candidateID")

	limit := queryInt(r, "limit", defaultFeedbackPageSize)
	if limit <= 0 || limit > maxFeedbackPageSize {
		limit = defaultFeedbackPageSize
	}
	offset := queryInt(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	var ledgerStr string
	var ownerCode sql.NullString
	err := h.db.QueryRowContext(r.Context(),
		`SELECT ledger, current_owner_code FROM candidates WHERE id = $1`,
		candidateID,
	).Scan(&ledgerStr, &ownerCode)
	if err == sql.ErrNoRows {
		h.errs.HandleHTTPError(w, r, apperrors.NewCandidateNotFoundError(candidateID))
		return
	}
	if err != nil {
		h.errs.HandleHTTPError(w, r, apperrors.NewQueryExecutionFailedError("get-feedback", err))
		return
	}

	entries, problems := ledger.Decode(ledgerStr)

	total := len(entries)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	page := entries[offset:end]
	if page == nil {
		page = []ledger.Entry{}
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"candidateId":  candidateID,
		"currentOwner": ownerCode.String,
		"total":        total,
		"offset":       offset,
		"entries":      page,
		"parseIssues":  len(problems),
	})
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
