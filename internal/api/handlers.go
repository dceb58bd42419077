// Package api exposes the ownership and feedback-ledger operations over
// HTTP.
package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	apperrors "talent-crm/internal/common/errors"
	"talent-crm/internal/common/logger"
	"talent-crm/internal/common/observability"
	"talent-crm/internal/common/validation"
	"talent-crm/internal/ledger"
	"talent-crm/internal/ownership"
)

type Handler struct {
	db          *sql.DB
	writer      *ledger.Writer
	coordinator *ownership.Coordinator
	manager     *ownership.Manager
	sweeper     *ownership.Sweeper
	cache       *ownership.SnapshotCache
	clock       ownership.Clock
	obs         *observability.Observability
	errs        *apperrors.ErrorHandler
	logger      logger.Logger
}

func NewHandler(
	db *sql.DB,
	writer *ledger.Writer,
	coordinator *ownership.Coordinator,
	manager *ownership.Manager,
	sweeper *ownership.Sweeper,
	cache *ownership.SnapshotCache,
	clock ownership.Clock,
	obs *observability.Observability,
	log logger.Logger,
) *Handler {
	if clock == nil {
		clock = ownership.SystemClock()
	}
	return &Handler{
		db:          db,
		writer:      writer,
		coordinator: coordinator,
		manager:     manager,
		sweeper:     sweeper,
		cache:       cache,
		clock:       clock,
		obs:         obs,
		errs:        apperrors.NewErrorHandler(log),
		logger:      log.WithFields(map[string]interface{}{"component": "api"}),
	}
}

// decodeValidated reads the body once, checks it against the schema, and
// unmarshals it into dst.
func decodeValidated(r *http.Request, schema *validation.Schema, dst interface{}) error {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return apperrors.NewValidationFailedError("unreadable request body")
	}

	var doc map[string]interface{}
	if err := json.Unmarshal(body, &doc); err != nil {
		return apperrors.NewValidationFailedError("request body is not a JSON object")
	}

	if result := schema.Validate(doc); !result.Valid {
		return apperrors.NewValidationFailedError(strings.Join(result.GetErrorMessages(), "; "))
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return apperrors.NewValidationFailedError(err.Error())
	}
	return nil
}

// translate maps domain sentinel errors to standardized API errors.
func translate(err error, jobEngagementID int64, candidateID string) error {
	switch {
	case errors.Is(err, ownership.ErrClaimConflict):
		return apperrors.NewClaimConflictError(jobEngagementID)
	case errors.Is(err, ownership.ErrJobNotFound), errors.Is(err, ledger.ErrJobNotFound):
		return apperrors.NewJobNotFoundError(jobEngagementID)
	case errors.Is(err, ledger.ErrCandidateNotFound):
		return apperrors.NewCandidateNotFoundError(candidateID)
	case errors.Is(err, ledger.ErrLedgerWriteFailed):
		return apperrors.NewLedgerWriteFailedError(err)
	case errors.Is(err, ownership.ErrUpdateFailed):
		return apperrors.NewOwnershipUpdateFailedError(err)
	default:
		return err
	}
}
