// internal/ownership/claim.go
package ownership

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"talent-crm/internal/common/logger"
	"talent-crm/internal/common/metrics"
	"talent-crm/internal/ledger"
	"talent-crm/internal/models"

	"github.com/google/uuid"
)

var (
	ErrClaimConflict = errors.New("CLAIM_CONFLICT")
	ErrJobNotFound   = errors.New("JOB_NOT_FOUND")
	ErrUpdateFailed  = errors.New("OWNERSHIP_UPDATE_FAILED")
)

// Coordinator owns the claim operation: at most one concurrent claimant
// may take an unowned job. The job engagement row is locked with
// SELECT ... FOR UPDATE, eligibility is re-checked under the lock, and
// the owner mutation, ledger append and audit record commit as one unit.
type Coordinator struct {
	db     *sql.DB
	cache  *SnapshotCache
	logger logger.Logger
	clock  Clock
}

func NewCoordinator(db *sql.DB, cache *SnapshotCache, log logger.Logger, clock Clock) *Coordinator {
	if clock == nil {
		clock = SystemClock()
	}
	return &Coordinator{
		db:     db,
		cache:  cache,
		logger: log.WithFields(map[string]interface{}{"component": "claim-coordinator"}),
		clock:  clock,
	}
}

type ClaimInput struct {
	JobEngagementID int64
	ClaimantCode    string
	Feedback        string
	FollowUpDate    string // YYYY-MM-DD, optional
}

// Claim atomically transitions an unowned job to the claimant. A job that
// is no longer eligible under the row lock yields ErrClaimConflict so the
// caller can distinguish "lost the race" from "succeeded".
func (c *Coordinator) Claim(ctx context.Context, in *ClaimInput) (*models.OwnershipSnapshot, error) {
	snap, err := c.claim(ctx, in)
	switch {
	case err == nil:
		metrics.ClaimAttempts.WithLabelValues("success").Inc()
	case errors.Is(err, ErrClaimConflict):
		metrics.ClaimAttempts.WithLabelValues("conflict").Inc()
	default:
		metrics.ClaimAttempts.WithLabelValues("error").Inc()
	}
	return snap, err
}

func (c *Coordinator) claim(ctx context.Context, in *ClaimInput) (*models.OwnershipSnapshot, error) {
	now := c.clock.Now()

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: begin: %v", ErrUpdateFailed, err)
	}
	defer tx.Rollback()

	var (
		candidateID          string
		ownerCode, prevOwner sql.NullString
		statusLabel          sql.NullString
		nfd                  sql.NullTime
		transferState        string
	)
	err = tx.QueryRowContext(ctx, `
		SELECT candidate_id, owner_code, previous_owner_code, status_label,
		       next_follow_up_date, transfer_state
		FROM job_engagements
		WHERE id = $1
		FOR UPDATE`,
		in.JobEngagementID,
	).Scan(&candidateID, &ownerCode, &prevOwner, &statusLabel, &nfd, &transferState)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: engagement %d", ErrJobNotFound, in.JobEngagementID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: lock row: %v", ErrUpdateFailed, err)
	}

	if transferState != models.TransferStateActive {
		return nil, fmt.Errorf("%w: engagement %d is %s", ErrClaimConflict, in.JobEngagementID, transferState)
	}
	if !Claimable(ownerCode.String, statusLabel.String, nfd, now) {
		return nil, fmt.Errorf("%w: engagement %d already owned by %s",
			ErrClaimConflict, in.JobEngagementID, ownerCode.String)
	}

	// Optional fresh follow-up commitment from the claimant.
	newNFD := nfd
	nfdToken := ""
	if raw := strings.TrimSpace(in.FollowUpDate); raw != "" {
		if t, perr := time.Parse(ledger.InputDateLayout, raw); perr == nil {
			newNFD = sql.NullTime{Time: t, Valid: true}
			nfdToken = t.Format(ledger.DateLayout)
		} else {
			c.logger.Warn("invalid follow-up date on claim, ignoring", map[string]interface{}{
				"jobEngagementId": in.JobEngagementID,
				"value":           raw,
			})
		}
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE job_engagements
		SET owner_code = $1, owner_assigned_by_code = $1,
		    next_follow_up_date = $2, updated_at = NOW()
		WHERE id = $3`,
		in.ClaimantCode, newNFD, in.JobEngagementID,
	); err != nil {
		return nil, fmt.Errorf("%w: write owner: %v", ErrUpdateFailed, err)
	}

	var ledgerStr string
	if err := tx.QueryRowContext(ctx,
		`SELECT ledger FROM candidates WHERE id = $1`, candidateID).Scan(&ledgerStr); err != nil {
		return nil, fmt.Errorf("%w: read ledger: %v", ErrUpdateFailed, err)
	}

	entry := ledger.EncodeTransfer("", in.ClaimantCode, in.ClaimantCode,
		in.Feedback, nfdToken, now.Format(ledger.EntryTimeLayout))
	if _, err := tx.ExecContext(ctx, `
		UPDATE candidates
		SET ledger = $1, current_owner_code = $2, updated_at = NOW()
		WHERE id = $3`,
		ledger.Append(ledgerStr, entry), in.ClaimantCode, candidateID,
	); err != nil {
		return nil, fmt.Errorf("%w: write ledger: %v", ErrUpdateFailed, err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO ownership_transitions (
			id, job_engagement_id, candidate_id, previous_owner_code,
			new_owner_code, assigned_by_code, reason_code, notes, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())`,
		uuid.New().String(), in.JobEngagementID, candidateID,
		ownerCode.String, in.ClaimantCode, in.ClaimantCode,
		string(models.ReasonClaimedOpenJob), "",
	); err != nil {
		return nil, fmt.Errorf("%w: write transition: %v", ErrUpdateFailed, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: commit: %v", ErrUpdateFailed, err)
	}

	metrics.OwnershipTransitions.WithLabelValues(string(models.ReasonClaimedOpenJob)).Inc()
	c.cache.Invalidate(ctx, in.JobEngagementID)

	c.logger.Info("open job claimed", map[string]interface{}{
		"jobEngagementId": in.JobEngagementID,
		"candidateId":     candidateID,
		"claimant":        in.ClaimantCode,
	})

	return &models.OwnershipSnapshot{
		JobEngagementID:   in.JobEngagementID,
		OwnerCode:         in.ClaimantCode,
		PreviousOwnerCode: prevOwner.String,
		AssignedByCode:    in.ClaimantCode,
		IsAssigned:        true,
	}, nil
}
