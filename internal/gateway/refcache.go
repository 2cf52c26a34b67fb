package gateway

import (
	"strconv"
	"time"

	"github.com/novin-data/ingest-gateway/internal/model"
	"github.com/novin-data/ingest-gateway/pkg/logger"
	"github.com/novin-data/ingest-gateway/pkg/redis"
)

const refKeyPrefix = "refs:"

// RefCache keeps reference identity sets in redis so consecutive partition
// runs don't re-read the full id list from Postgres. Every redis failure
// degrades to a direct read; the cache is an optimization, never a source
// of truth.
type RefCache struct {
	adapter redis.RedisAdapter
	ttl     time.Duration
}

func NewRefCache(adapter redis.RedisAdapter, ttl time.Duration) *RefCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RefCache{adapter: adapter, ttl: ttl}
}

func (c *RefCache) key(kind model.DatasetType) string {
	return refKeyPrefix + string(kind)
}

// Get returns the cached identity set, ok=false on miss or redis failure.
func (c *RefCache) Get(kind model.DatasetType) ([]int64, bool) {
	key := c.key(kind)
	exists, err := c.adapter.Exist(key)
	if err != nil {
		logger.Warn("reference cache unavailable, reading from store", "kind", kind, "error", err)
		return nil, false
	}
	if exists == 0 {
		return nil, false
	}
	members, err := c.adapter.SMembers(key)
	if err != nil {
		logger.Warn("reference cache read failed", "kind", kind, "error", err)
		return nil, false
	}
	ids := make([]int64, 0, len(members))
	for _, m := range members {
		if m == "-" {
			continue
		}
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			// Poisoned entry, drop it and fall through to the store.
			_ = c.adapter.Del(key)
			return nil, false
		}
		ids = append(ids, id)
	}
	return ids, true
}

// Put backfills the cache after a store read. Empty sets are cached too:
// "no customers yet" is a valid answer.
func (c *RefCache) Put(kind model.DatasetType, ids []int64) {
	key := c.key(kind)
	if err := c.adapter.Del(key); err != nil {
		logger.Warn("reference cache write failed", "kind", kind, "error", err)
		return
	}
	// Sentinel member keeps an empty set distinguishable from a miss.
	members := make([]interface{}, 0, len(ids)+1)
	members = append(members, "-")
	for _, id := range ids {
		members = append(members, strconv.FormatInt(id, 10))
	}
	if err := c.adapter.SAdd(key, members...); err != nil {
		logger.Warn("reference cache write failed", "kind", kind, "error", err)
		return
	}
	if err := c.adapter.Expire(key, c.ttl); err != nil {
		logger.Warn("reference cache expire failed", "kind", kind, "error", err)
	}
}

// Invalidate drops a cached set, called after a batch writes new identities.
func (c *RefCache) Invalidate(kind model.DatasetType) {
	if err := c.adapter.Del(c.key(kind)); err != nil {
		logger.Warn("reference cache invalidate failed", "kind", kind, "error", err)
	}
}
