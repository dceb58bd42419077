package api

import (
	"net/http"
	"time"

	apperrors "talent-crm/internal/common/errors"
	"talent-crm/internal/ownership"
)

// PostSweep triggers an expiry sweep. Within the cooldown window the
// pass is skipped unless ?force=true.
func (h *Handler) PostSweep(w http.ResponseWriter, r *http.Request) {
	var (
		result *ownership.SweepResult
		err    error
	)
	start := time.Now()
	trigger := "api"
	if r.URL.Query().Get("force") == "true" {
		trigger = "api-forced"
		result, err = h.sweeper.Force(r.Context())
	} else {
		result, err = h.sweeper.Sweep(r.Context())
	}
	if err != nil {
		h.errs.HandleHTTPError(w, r, apperrors.NewSweepFailedError(err))
		return
	}
	h.obs.RecordSweepDuration(r.Context(), time.Since(start), trigger)

	WriteJSON(w, http.StatusOK, result)
}
