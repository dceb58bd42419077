// internal/ownership/cache.go
package ownership

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"talent-crm/internal/common/logger"
	"talent-crm/internal/models"

	"github.com/redis/go-redis/v9"
)

const (
	snapshotKeyPrefix = "ownership:job:"
	snapshotTTL       = 5 * time.Minute
)

// SnapshotCache keeps recent ownership snapshots in Redis so permission
// checks skip the database on the hot path. A nil cache is a valid no-op.
type SnapshotCache struct {
	client *redis.Client
	logger logger.Logger
}

func NewSnapshotCache(client *redis.Client, log logger.Logger) *SnapshotCache {
	if client == nil {
		return nil
	}
	return &SnapshotCache{
		client: client,
		logger: log.WithFields(map[string]interface{}{"component": "snapshot-cache"}),
	}
}

func snapshotKey(jobEngagementID int64) string {
	return fmt.Sprintf("%s%d", snapshotKeyPrefix, jobEngagementID)
}

// Get returns the cached snapshot, or nil on miss. Cache errors are
// logged and treated as misses.
func (c *SnapshotCache) Get(ctx context.Context, jobEngagementID int64) *models.OwnershipSnapshot {
	if c == nil {
		return nil
	}
	raw, err := c.client.Get(ctx, snapshotKey(jobEngagementID)).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		c.logger.Warn("snapshot cache read failed", map[string]interface{}{
			"jobEngagementId": jobEngagementID,
			"error":           err.Error(),
		})
		return nil
	}
	var snap models.OwnershipSnapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		c.logger.Warn("snapshot cache entry corrupt, dropping", map[string]interface{}{
			"jobEngagementId": jobEngagementID,
			"error":           err.Error(),
		})
		c.client.Del(ctx, snapshotKey(jobEngagementID))
		return nil
	}
	return &snap
}

// Set stores a snapshot. Failures only warn, the database stays
// authoritative.
func (c *SnapshotCache) Set(ctx context.Context, snap *models.OwnershipSnapshot) {
	if c == nil || snap == nil {
		return
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, snapshotKey(snap.JobEngagementID), raw, snapshotTTL).Err(); err != nil {
		c.logger.Warn("snapshot cache write failed", map[string]interface{}{
			"jobEngagementId": snap.JobEngagementID,
			"error":           err.Error(),
		})
	}
}

// Invalidate evicts snapshots after an ownership change.
func (c *SnapshotCache) Invalidate(ctx context.Context, jobEngagementIDs ...int64) {
	if c == nil || len(jobEngagementIDs) == 0 {
		return
	}
	keys := make([]string, 0, len(jobEngagementIDs))
	for _, id := range jobEngagementIDs {
		keys = append(keys, snapshotKey(id))
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn("snapshot cache eviction failed", map[string]interface{}{
			"keys":  keys,
			"error": err.Error(),
		})
	}
}
