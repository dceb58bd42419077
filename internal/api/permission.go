package api

import (
	"database/sql"
	"net/http"
	"strconv"

	apperrors "talent-crm/internal/common/errors"
	"talent-crm/internal/models"
	"talent-crm/internal/ownership"

	"github.com/go-chi/chi/v5"
)

type permissionResponse struct {
	JobEngagementID int64  `json:"jobEngagementId"`
	Actor           string `json:"actor"`
	CanWrite        bool   `json:"canWrite"`
	Reason          string `json:"reason"`
	OwnerCode       string `json:"ownerCode,omitempty"`
}

// GetPermission reports whether the actor may record feedback on this
// engagement: its current owner always can, anyone can on an open or
// expired one.
func (h *Handler) GetPermission(w http.ResponseWriter, r *http.Request) {
	jobID, err := strconv.ParseInt(chi.URLParam(r, "jobID"), 10, 64)
	if err != nil {
		h.errs.HandleHTTPError(w, r, apperrors.NewValidationFailedError("jobID must be an integer"))
		return
	}
	actor := r.URL.Query().Get("actor")
	if actor == "" {
		h.errs.HandleHTTPError(w, r, apperrors.NewValidationFailedError("actor query parameter is required"))
		return
	}

	// An owned engagement resolves from the cache alone; claimability of
	// an unowned one needs the dates, so fall through to the database.
	if snap := h.cache.Get(r.Context(), jobID); snap != nil && snap.OwnerCode != "" {
		resp := permissionResponse{
			JobEngagementID: jobID,
			Actor:           actor,
			OwnerCode:       snap.OwnerCode,
		}
		if snap.OwnerCode == actor {
			resp.CanWrite = true
			resp.Reason = "owner"
		} else {
			resp.Reason = "owned-by-other"
		}
		WriteJSON(w, http.StatusOK, resp)
		return
	}

	var (
		ownerCode   sql.NullString
		statusLabel sql.NullString
		followUp    sql.NullTime
		assignedBy  sql.NullString
		prevOwner   sql.NullString
	)
	err = h.db.QueryRowContext(r.Context(), `
		SELECT owner_code, status_label, next_follow_up_date,
		       owner_assigned_by_code, previous_owner_code
		FROM job_engagements
		WHERE id = $1 AND transfer_state = $2`,
		jobID, models.TransferStateActive,
	).Scan(&ownerCode, &statusLabel, &followUp, &assignedBy, &prevOwner)
	if err == sql.ErrNoRows {
		h.errs.HandleHTTPError(w, r, apperrors.NewJobNotFoundError(jobID))
		return
	}
	if err != nil {
		h.errs.HandleHTTPError(w, r, apperrors.NewQueryExecutionFailedError("get-permission", err))
		return
	}

	resp := permissionResponse{
		JobEngagementID: jobID,
		Actor:           actor,
		OwnerCode:       ownerCode.String,
	}
	switch {
	case ownerCode.String != "" && ownerCode.String == actor:
		resp.CanWrite = true
		resp.Reason = "owner"
	case ownership.Claimable(ownerCode.String, statusLabel.String, followUp, h.clock.Now()):
		resp.CanWrite = true
		resp.Reason = "claimable"
	case ownerCode.String == "":
		resp.Reason = "open-not-claimable"
	default:
		resp.Reason = "owned-by-other"
	}

	if ownerCode.String != "" {
		h.cache.Set(r.Context(), &models.OwnershipSnapshot{
			JobEngagementID:   jobID,
			OwnerCode:         ownerCode.String,
			PreviousOwnerCode: prevOwner.String,
			AssignedByCode:    assignedBy.String,
			IsAssigned:        true,
		})
	}

	WriteJSON(w, http.StatusOK, resp)
}
