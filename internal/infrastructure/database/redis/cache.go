package redis

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dealershipai/visibility-engine/internal/infrastructure/monitoring/logging"
	"github.com/dealershipai/visibility-engine/pkg/errors"
)

// PayloadCache is the redis-backed provider payload cache.  Values are JSON;
// hit and miss counters accumulate between health snapshots and reset when
// read.
type PayloadCache struct {
	client *Client
	prefix string
	log    logging.Logger

	hits   atomic.Int64
	misses atomic.Int64
}

// NewPayloadCache wraps the client with the configured key prefix.
func NewPayloadCache(client *Client, log logging.Logger) *PayloadCache {
	prefix := client.cfg.KeyPrefix
	if prefix == "" {
		prefix = "aivis"
	}
	return &PayloadCache{client: client, prefix: prefix, log: log}
}

// Get unmarshals the cached payload into dest and reports presence.
func (c *PayloadCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	raw, err := c.client.rdb.Get(ctx, c.prefix+":"+key).Bytes()
	if err == redis.Nil {
		c.misses.Add(1)
		return false, nil
	}
	if err != nil {
		c.misses.Add(1)
		return false, errors.Wrap(err, errors.ErrCodeCacheError, "cache read failed")
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		c.misses.Add(1)
		return false, errors.Wrap(err, errors.ErrCodeSerialization, "decoding cached payload")
	}
	c.hits.Add(1)
	return true, nil
}

// Set stores the payload with the given TTL.
func (c *PayloadCache) Set(ctx context.Context, key string, val interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(val)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "encoding payload for cache")
	}
	if ttl <= 0 {
		ttl = c.client.cfg.DefaultTTL
	}
	if err := c.client.rdb.Set(ctx, c.prefix+":"+key, raw, ttl).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "cache write failed")
	}
	return nil
}

// CacheStats returns and resets the hit/miss counters so each health
// snapshot covers one interval.
func (c *PayloadCache) CacheStats(_ context.Context) (hits, misses int64, err error) {
	return c.hits.Swap(0), c.misses.Swap(0), nil
}
