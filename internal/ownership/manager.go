// internal/ownership/manager.go
package ownership

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"talent-crm/internal/common/logger"
	"talent-crm/internal/common/metrics"
	"talent-crm/internal/ledger"
	"talent-crm/internal/models"

	"github.com/google/uuid"
)

// Manager governs the ownership lifecycle of job engagements. Manual
// reassignment deliberately spawns a fresh engagement row under the new
// owner and freezes the old row as an Inactive historical record.
type Manager struct {
	db       *sql.DB
	cache    *SnapshotCache
	notifier Notifier
	logger   logger.Logger
	clock    Clock
}

func NewManager(db *sql.DB, cache *SnapshotCache, notifier Notifier, log logger.Logger, clock Clock) *Manager {
	if notifier == nil {
		notifier = NoopNotifier{}
	}
	if clock == nil {
		clock = SystemClock()
	}
	return &Manager{
		db:       db,
		cache:    cache,
		notifier: notifier,
		logger:   log.WithFields(map[string]interface{}{"component": "ownership-manager"}),
		clock:    clock,
	}
}

type AssignInput struct {
	JobEngagementID int64
	NewOwnerCode    string
	AssignedByCode  string
	Feedback        string
	FollowUpDate    string // YYYY-MM-DD, optional
	Notes           string
	Override        bool // manager forcing the transfer
}

// Assign transfers ownership of a job engagement. The old row is frozen
// Inactive, a fresh row starts under the new owner with cleared dates and
// zero submission, the candidate's ledger and current owner update, and
// an OwnershipTransition records the change - atomically.
func (m *Manager) Assign(ctx context.Context, in *AssignInput) (*models.OwnershipSnapshot, error) {
	now := m.clock.Now()

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: begin: %v", ErrUpdateFailed, err)
	}
	defer tx.Rollback()

	var (
		candidateID string
		clientName  string
		ownerCode   sql.NullString
	)
	err = tx.QueryRowContext(ctx, `
		SELECT candidate_id, client_name, owner_code
		FROM job_engagements
		WHERE id = $1 AND transfer_state = $2`,
		in.JobEngagementID, models.TransferStateActive,
	).Scan(&candidateID, &clientName, &ownerCode)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: engagement %d", ErrJobNotFound, in.JobEngagementID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read engagement: %v", ErrUpdateFailed, err)
	}

	var ledgerStr string
	var currentOwner sql.NullString
	if err := tx.QueryRowContext(ctx,
		`SELECT ledger, current_owner_code FROM candidates WHERE id = $1`,
		candidateID,
	).Scan(&ledgerStr, &currentOwner); err != nil {
		return nil, fmt.Errorf("%w: read candidate: %v", ErrUpdateFailed, err)
	}

	// The outgoing owner is the engagement's owner, falling back to the
	// candidate's currently credited executive.
	prevOwner := ownerCode.String
	if prevOwner == "" {
		prevOwner = currentOwner.String
	}

	reason := models.ReasonManualReassignment
	switch {
	case in.Override:
		reason = models.ReasonManagerOverride
	case prevOwner == "":
		reason = models.ReasonInitialAssignment
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE job_engagements
		SET transfer_state = $1, updated_at = NOW()
		WHERE id = $2`,
		models.TransferStateInactive, in.JobEngagementID,
	); err != nil {
		return nil, fmt.Errorf("%w: freeze old row: %v", ErrUpdateFailed, err)
	}

	var newNFD sql.NullTime
	nfdToken := ""
	if raw := strings.TrimSpace(in.FollowUpDate); raw != "" {
		if t, perr := time.Parse(ledger.InputDateLayout, raw); perr == nil {
			newNFD = sql.NullTime{Time: t, Valid: true}
			nfdToken = t.Format(ledger.DateLayout)
		} else {
			m.logger.Warn("invalid follow-up date on assign, ignoring", map[string]interface{}{
				"jobEngagementId": in.JobEngagementID,
				"value":           raw,
			})
		}
	}

	var newID int64
	if err := tx.QueryRowContext(ctx, `
		INSERT INTO job_engagements (
			candidate_id, client_name, owner_code, owner_assigned_by_code,
			previous_owner_code, status_label, next_follow_up_date,
			submission_flag, transfer_state, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, false, $8, NOW(), NOW())
		RETURNING id`,
		candidateID, clientName, in.NewOwnerCode, in.AssignedByCode,
		prevOwner, "assigned", newNFD, models.TransferStateActive,
	).Scan(&newID); err != nil {
		return nil, fmt.Errorf("%w: insert fresh row: %v", ErrUpdateFailed, err)
	}

	entry := ledger.EncodeTransfer(prevOwner, in.NewOwnerCode, in.AssignedByCode,
		in.Feedback, nfdToken, now.Format(ledger.EntryTimeLayout))
	if _, err := tx.ExecContext(ctx, `
		UPDATE candidates
		SET ledger = $1, current_owner_code = $2, updated_at = NOW()
		WHERE id = $3`,
		ledger.Append(ledgerStr, entry), in.NewOwnerCode, candidateID,
	); err != nil {
		return nil, fmt.Errorf("%w: write ledger: %v", ErrUpdateFailed, err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO ownership_transitions (
			id, job_engagement_id, candidate_id, previous_owner_code,
			new_owner_code, assigned_by_code, reason_code, notes, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())`,
		uuid.New().String(), newID, candidateID,
		prevOwner, in.NewOwnerCode, in.AssignedByCode,
		string(reason), ledger.Sanitize(in.Notes),
	); err != nil {
		return nil, fmt.Errorf("%w: write transition: %v", ErrUpdateFailed, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: commit: %v", ErrUpdateFailed, err)
	}

	metrics.OwnershipTransitions.WithLabelValues(string(reason)).Inc()
	m.cache.Invalidate(ctx, in.JobEngagementID, newID)

	m.logger.Info("ownership assigned", map[string]interface{}{
		"oldJobEngagementId": in.JobEngagementID,
		"newJobEngagementId": newID,
		"candidateId":        candidateID,
		"previousOwner":      prevOwner,
		"newOwner":           in.NewOwnerCode,
		"reason":             string(reason),
	})

	// Best effort: the transfer already committed, a failed notice only
	// gets a warning.
	if err := m.notifier.OwnerChanged(ctx, OwnerChange{
		CandidateID:       candidateID,
		JobEngagementID:   newID,
		PreviousOwnerCode: prevOwner,
		NewOwnerCode:      in.NewOwnerCode,
		AssignedByCode:    in.AssignedByCode,
		Reason:            reason,
	}); err != nil {
		m.logger.Warn("owner change notification failed", map[string]interface{}{
			"jobEngagementId": newID,
			"error":           err.Error(),
		})
	}

	return &models.OwnershipSnapshot{
		JobEngagementID:   newID,
		OwnerCode:         in.NewOwnerCode,
		PreviousOwnerCode: prevOwner,
		AssignedByCode:    in.AssignedByCode,
		IsAssigned:        true,
	}, nil
}
