package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	apperrors "talent-crm/internal/common/errors"
	"talent-crm/internal/ownership"

	"github.com/go-chi/chi/v5"
)

type assignRequest struct {
	NewOwnerCode     string `json:"newOwnerCode"`
	AssignedByCode   string `json:"assignedByCode"`
	Feedback         string `json:"feedback"`
	NextFollowUpDate string `json:"nextFollowUpDate"`
	Notes            string `json:"notes"`
	Override         bool   `json:"override"`
}

// PostAssign transfers ownership of an engagement to a named executive.
func (h *Handler) PostAssign(w http.ResponseWriter, r *http.Request) {
	jobID, err := strconv.ParseInt(chi.URLParam(r, "jobID"), 10, 64)
	if err != nil {
		h.errs.HandleHTTPError(w, r, apperrors.NewValidationFailedError("jobID must be an integer"))
		return
	}

	var req assignRequest
	if err := decodeValidated(r, assignSchema, &req); err != nil {
		h.errs.HandleHTTPError(w, r, err)
		return
	}

	snap, err := h.manager.Assign(r.Context(), &ownership.AssignInput{
		JobEngagementID: jobID,
		NewOwnerCode:    req.NewOwnerCode,
		AssignedByCode:  req.AssignedByCode,
		Feedback:        req.Feedback,
		FollowUpDate:    req.NextFollowUpDate,
		Notes:           req.Notes,
		Override:        req.Override,
	})
	if err != nil {
		h.errs.HandleHTTPError(w, r, translate(err, jobID, ""))
		return
	}

	WriteJSON(w, http.StatusOK, snap)
}

type claimRequest struct {
	ClaimantCode     string `json:"claimantCode"`
	Feedback         string `json:"feedback"`
	NextFollowUpDate string `json:"nextFollowUpDate"`
}

// PostClaim lets an executive take an open engagement. Exactly one of
// any set of concurrent claimants wins; the rest get a 409.
func (h *Handler) PostClaim(w http.ResponseWriter, r *http.Request) {
	jobID, err := strconv.ParseInt(chi.URLParam(r, "jobID"), 10, 64)
	if err != nil {
		h.errs.HandleHTTPError(w, r, apperrors.NewValidationFailedError("jobID must be an integer"))
		return
	}

	var req claimRequest
	if err := decodeValidated(r, claimSchema, &req); err != nil {
		h.errs.HandleHTTPError(w, r, err)
		return
	}

	start := time.Now()
	snap, err := h.coordinator.Claim(r.Context(), &ownership.ClaimInput{
		JobEngagementID: jobID,
		ClaimantCode:    req.ClaimantCode,
		Feedback:        req.Feedback,
		FollowUpDate:    req.NextFollowUpDate,
	})
	if err != nil {
		result := "error"
		if errors.Is(err, ownership.ErrClaimConflict) {
			result = "conflict"
		}
		h.obs.RecordClaimDuration(r.Context(), time.Since(start), result)
		h.errs.HandleHTTPError(w, r, translate(err, jobID, ""))
		return
	}
	h.obs.RecordClaimDuration(r.Context(), time.Since(start), "success")

	WriteJSON(w, http.StatusOK, snap)
}
