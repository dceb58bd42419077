// internal/ownership/sweeper.go
package ownership

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"talent-crm/internal/common/logger"
	"talent-crm/internal/common/metrics"
	"talent-crm/internal/ledger"
)

const DefaultSweepCooldown = 30 * time.Minute

// Sweeper releases ownership of engagements whose next follow-up date
// has lapsed. A follow-up date of D expires at local midnight of D+1,
// which the set-based update expresses as next_follow_up_date < today.
type Sweeper struct {
	db        *sql.DB
	annotator *ledger.Annotator
	cache     *SnapshotCache
	logger    logger.Logger
	clock     Clock

	cooldown time.Duration
	mu       sync.Mutex
	lastRun  time.Time
}

func NewSweeper(db *sql.DB, cache *SnapshotCache, log logger.Logger, clock Clock, cooldown time.Duration) *Sweeper {
	if clock == nil {
		clock = SystemClock()
	}
	if cooldown <= 0 {
		cooldown = DefaultSweepCooldown
	}
	return &Sweeper{
		db:        db,
		annotator: ledger.NewAnnotator(db, log),
		cache:     cache,
		logger:    log.WithFields(map[string]interface{}{"component": "expiry-sweeper"}),
		clock:     clock,
		cooldown:  cooldown,
	}
}

type SweepResult struct {
	Ran      bool  `json:"ran"`
	Released int64 `json:"released"`
}

// Sweep runs a release pass unless one ran within the cooldown window.
// A skipped pass is not an error.
func (s *Sweeper) Sweep(ctx context.Context) (*SweepResult, error) {
	now := s.clock.Now()

	s.mu.Lock()
	if !s.lastRun.IsZero() && now.Sub(s.lastRun) < s.cooldown {
		s.mu.Unlock()
		metrics.SweepRuns.WithLabelValues("skipped").Inc()
		s.logger.Debug("sweep skipped, within cooldown", map[string]interface{}{
			"lastRun":  s.lastRun.Format(time.RFC3339),
			"cooldown": s.cooldown.String(),
		})
		return &SweepResult{Ran: false}, nil
	}
	s.lastRun = now
	s.mu.Unlock()

	res, err := s.run(ctx, now, "scheduled")
	if err != nil {
		s.releaseCooldown(now)
		return nil, err
	}
	return res, nil
}

// Force runs a pass immediately, ignoring the cooldown, and resets it.
func (s *Sweeper) Force(ctx context.Context) (*SweepResult, error) {
	now := s.clock.Now()
	s.mu.Lock()
	s.lastRun = now
	s.mu.Unlock()

	res, err := s.run(ctx, now, "forced")
	if err != nil {
		s.releaseCooldown(now)
		return nil, err
	}
	return res, nil
}

// releaseCooldown reopens the window after a failed pass so the next
// trigger can retry immediately. A newer run's timestamp is left alone.
func (s *Sweeper) releaseCooldown(startedAt time.Time) {
	s.mu.Lock()
	if s.lastRun.Equal(startedAt) {
		s.lastRun = time.Time{}
	}
	s.mu.Unlock()
}

func (s *Sweeper) run(ctx context.Context, now time.Time, trigger string) (*SweepResult, error) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	rows, err := s.db.QueryContext(ctx, `
		UPDATE job_engagements
		SET owner_code = NULL, updated_at = NOW()
		WHERE owner_code IS NOT NULL
		  AND transfer_state = 'Active'
		  AND next_follow_up_date IS NOT NULL
		  AND next_follow_up_date < $1
		RETURNING id, candidate_id`,
		today,
	)
	if err != nil {
		metrics.SweepRuns.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("%w: release expired ownerships: %v", ErrUpdateFailed, err)
	}
	defer rows.Close()

	var (
		released   []int64
		candidates []string
	)
	for rows.Next() {
		var id int64
		var candidateID string
		if err := rows.Scan(&id, &candidateID); err != nil {
			metrics.SweepRuns.WithLabelValues("failed").Inc()
			return nil, fmt.Errorf("%w: scan released row: %v", ErrUpdateFailed, err)
		}
		released = append(released, id)
		candidates = append(candidates, candidateID)
	}
	if err := rows.Err(); err != nil {
		metrics.SweepRuns.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("%w: iterate released rows: %v", ErrUpdateFailed, err)
	}

	// Ledger annotation and owner-credit clearing are best effort; the
	// release itself already committed.
	for i, candidateID := range candidates {
		if _, err := s.db.ExecContext(ctx, `
			UPDATE candidates SET current_owner_code = NULL, updated_at = NOW()
			WHERE id = $1 AND current_owner_code IS NOT NULL`,
			candidateID,
		); err != nil {
			s.logger.Warn("failed to clear candidate owner credit", map[string]interface{}{
				"candidateId": candidateID,
				"error":       err.Error(),
			})
		}
		if _, err := s.annotator.MarkLatestOpenProfile(ctx, candidateID); err != nil {
			s.logger.Warn("failed to annotate ledger as open profile", map[string]interface{}{
				"candidateId":     candidateID,
				"jobEngagementId": released[i],
				"error":           err.Error(),
			})
		}
	}

	s.cache.Invalidate(ctx, released...)

	metrics.SweepRuns.WithLabelValues(trigger).Inc()
	metrics.SweepReleasedJobs.Add(float64(len(released)))
	s.logger.Info("expiry sweep completed", map[string]interface{}{
		"trigger":  trigger,
		"released": len(released),
	})

	return &SweepResult{Ran: true, Released: int64(len(released))}, nil
}
