package subscription

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// EventDedup records processed webhook event IDs so provider redeliveries
// are acknowledged without touching state twice.
type EventDedup interface {
	// Seen marks the event id as processed and reports whether it had been
	// processed before.
	Seen(ctx context.Context, eventID string) (bool, error)
}

// MemoryDedup is a TTL-bounded in-process EventDedup. Good enough for a
// single instance; multi-instance deployments use RedisDedup.
type MemoryDedup struct {
	mu   sync.Mutex
	ttl  time.Duration
	seen map[string]time.Time
}

// NewMemoryDedup creates an in-memory dedup store with the given retention.
func NewMemoryDedup(ttl time.Duration) *MemoryDedup {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &MemoryDedup{ttl: ttl, seen: make(map[string]time.Time)}
}

func (d *MemoryDedup) Seen(ctx context.Context, eventID string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := time.Now()
	for id, at := range d.seen {
		if now.Sub(at) > d.ttl {
			delete(d.seen, id)
		}
	}

	if _, ok := d.seen[eventID]; ok {
		return true, nil
	}
	d.seen[eventID] = now
	return false, nil
}

// RedisDedup shares processed event IDs across instances via SETNX with TTL.
type RedisDedup struct {
	client redis.UniversalClient
	ttl    time.Duration
	prefix string
}

// NewRedisDedup creates a Redis-backed dedup store. Panics on nil client to
// fail fast during initialization.
func NewRedisDedup(client redis.UniversalClient, ttl time.Duration) *RedisDedup {
	if client == nil {
		panic("subscription: redis client is required")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisDedup{client: client, ttl: ttl, prefix: "webhook:event:"}
}

func (d *RedisDedup) Seen(ctx context.Context, eventID string) (bool, error) {
	ok, err := d.client.SetNX(ctx, d.prefix+eventID, 1, d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check event id: %w", err)
	}
	// SetNX succeeded means the key was new, so the event was not seen.
	return !ok, nil
}
