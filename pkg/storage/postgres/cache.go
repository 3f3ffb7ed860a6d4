package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/simterra/workspace/pkg/observability"
	"github.com/simterra/workspace/pkg/orgs"
)

// OrgCache is a Redis-backed shared cache of organization snapshots keyed by
// identity id. It implements orgs.SnapshotCache: every failure, including a
// corrupt entry, degrades to a miss so the resolver falls through to the
// store.
type OrgCache struct {
	redis   *redis.Client
	ttl     time.Duration
	logger  *observability.Logger
	metrics *observability.Metrics // optional
}

// NewOrgCache creates the cache over an existing Redis client. metrics may be
// nil.
func NewOrgCache(client *redis.Client, ttl time.Duration, logger *observability.Logger, metrics *observability.Metrics) *OrgCache {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &OrgCache{redis: client, ttl: ttl, logger: logger, metrics: metrics}
}

func cacheKey(identityID string) string {
	return fmt.Sprintf("org:identity:%s", identityID)
}

// Get returns the cached snapshot for the identity, or a miss.
func (c *OrgCache) Get(ctx context.Context, identityID string) (*orgs.Organization, bool) {
	key := cacheKey(identityID)

	data, err := c.redis.Get(ctx, key).Bytes()
	if err == redis.Nil {
		c.countMiss()
		return nil, false
	}
	if err != nil {
		c.logger.WithError(err).Debug("org cache read failed")
		c.countMiss()
		return nil, false
	}

	var org orgs.Organization
	if err := json.Unmarshal(data, &org); err != nil {
		// Corrupt entry: drop it so the next fill rewrites it.
		c.redis.Del(ctx, key)
		c.logger.WithError(err).Warn("dropped corrupt org cache entry")
		c.countMiss()
		return nil, false
	}

	c.countHit()
	return &org, true
}

// Set stores a snapshot. Best effort; a write failure only costs a future
// cache miss.
func (c *OrgCache) Set(ctx context.Context, identityID string, org *orgs.Organization) {
	data, err := json.Marshal(org)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, cacheKey(identityID), data, c.ttl).Err(); err != nil {
		c.logger.WithError(err).Debug("org cache write failed")
	}
}

// Invalidate drops the cached snapshot for the identity.
func (c *OrgCache) Invalidate(ctx context.Context, identityID string) {
	if err := c.redis.Del(ctx, cacheKey(identityID)).Err(); err != nil {
		c.logger.WithError(err).Debug("org cache invalidate failed")
	}
}

func (c *OrgCache) countHit() {
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.WithLabelValues("org_snapshot").Inc()
	}
}

func (c *OrgCache) countMiss() {
	if c.metrics != nil {
		c.metrics.CacheMissesTotal.WithLabelValues("org_snapshot").Inc()
	}
}
