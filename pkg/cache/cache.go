// Package cache provides the Redis-backed recognition result cache.
//
// Results are keyed on image content fingerprints under a fixed namespace,
// so identical images from different clients share one cached answer.
// The cache is strictly best-effort: every backing-store failure is logged
// and collapsed to a miss (for reads) or a no-op (for writes), because a
// Redis outage must force recomputation, never fail a request.
package cache

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/4ier/logodeth/pkg/models"
)

// keyPrefix namespaces all recognition entries. Administrative scans only
// ever touch keys under this prefix, never the whole keyspace.
const keyPrefix = "logodeth:logo:"

// statsScanLimit caps how many keys Stats inspects per call.
const statsScanLimit = 1000

// Cache wraps a Redis client with recognition-specific operations.
// A nil client is valid and behaves as a permanently missing cache.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

// New creates a Cache on top of the given Redis client. The client may be
// nil when Redis is unreachable; the cache then degrades to a no-op.
func New(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{
		client: client,
		ttl:    ttl,
		now:    time.Now,
	}
}

// TTL returns the configured entry lifetime.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

func fullKey(fingerprint string) string {
	return keyPrefix + fingerprint
}

// Get returns the entry stored for the fingerprint, if present and not
// expired. Store errors and corrupt payloads are logged and reported as a
// miss; callers must only branch on hit/miss, never on why a get failed.
func (c *Cache) Get(ctx context.Context, fingerprint string) (*models.CacheEntry, bool) {
	if c.client == nil {
		return nil, false
	}

	val, err := c.client.Get(ctx, fullKey(fingerprint)).Result()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		log.Printf("cache: get %s: %v", fingerprint, err)
		return nil, false
	}

	var entry models.CacheEntry
	if err := json.Unmarshal([]byte(val), &entry); err != nil {
		log.Printf("cache: corrupt entry for %s: %v", fingerprint, err)
		return nil, false
	}
	return &entry, true
}

// Set writes the result for the fingerprint with the configured TTL and
// reports whether the write succeeded. Failures are logged, never returned
// as errors: writes are best-effort write-through.
func (c *Cache) Set(ctx context.Context, fingerprint string, result models.RecognitionResult, params map[string]string) bool {
	if c.client == nil {
		return false
	}

	entry := models.CacheEntry{
		Fingerprint: fingerprint,
		Result:      result,
		CachedAt:    c.now(),
		TTLSeconds:  int(c.ttl / time.Second),
		Params:      params,
	}

	payload, err := json.Marshal(entry)
	if err != nil {
		log.Printf("cache: marshal entry for %s: %v", fingerprint, err)
		return false
	}

	if err := c.client.Set(ctx, fullKey(fingerprint), payload, c.ttl).Err(); err != nil {
		log.Printf("cache: set %s: %v", fingerprint, err)
		return false
	}
	return true
}

// Delete removes a single cached entry.
func (c *Cache) Delete(ctx context.Context, fingerprint string) bool {
	if c.client == nil {
		return false
	}

	deleted, err := c.client.Del(ctx, fullKey(fingerprint)).Result()
	if err != nil {
		log.Printf("cache: delete %s: %v", fingerprint, err)
		return false
	}
	return deleted > 0
}

// ClearAll deletes every entry under the cache namespace and returns the
// number of keys removed. Only namespaced keys are scanned.
func (c *Cache) ClearAll(ctx context.Context) int {
	if c.client == nil {
		return 0
	}

	var keys []string
	iter := c.client.Scan(ctx, 0, keyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		log.Printf("cache: scan for clear: %v", err)
		return 0
	}
	if len(keys) == 0 {
		return 0
	}

	deleted, err := c.client.Del(ctx, keys...).Result()
	if err != nil {
		log.Printf("cache: clear: %v", err)
		return 0
	}
	log.Printf("cache: cleared %d entries", deleted)
	return int(deleted)
}

// Stats returns a best-effort summary of the namespace: key count and the
// approximate age bounds of the sampled entries, derived from each key's
// remaining TTL versus the configured TTL. Inspection is capped so a large
// keyspace cannot stall the caller.
func (c *Cache) Stats(ctx context.Context) models.CacheStats {
	var stats models.CacheStats
	if c.client == nil {
		return stats
	}

	iter := c.client.Scan(ctx, 0, keyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		stats.TotalKeys++
		if stats.TotalKeys > statsScanLimit {
			continue
		}

		remaining, err := c.client.TTL(ctx, iter.Val()).Result()
		if err != nil || remaining < 0 {
			continue
		}
		age := int64((c.ttl - remaining) / time.Second)
		if age < 0 {
			age = 0
		}
		if stats.OldestAgeSec == 0 || age > stats.OldestAgeSec {
			stats.OldestAgeSec = age
		}
		if stats.NewestAgeSec == 0 || age < stats.NewestAgeSec {
			stats.NewestAgeSec = age
		}
	}
	if err := iter.Err(); err != nil {
		log.Printf("cache: stats scan: %v", err)
	}
	return stats
}

// HealthCheck reports whether the backing store responds to PING.
func (c *Cache) HealthCheck(ctx context.Context) bool {
	if c.client == nil {
		return false
	}
	if err := c.client.Ping(ctx).Err(); err != nil {
		log.Printf("cache: health check failed: %v", err)
		return false
	}
	return true
}

// Close shuts down the underlying Redis connection.
func (c *Cache) Close() error {
	if c.client == nil {
		return nil
	}
	log.Println("cache: closing Redis connection")
	return c.client.Close()
}
