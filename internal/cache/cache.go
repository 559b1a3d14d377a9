// Package cache is a Redis-backed read cache for event lookups.
//
// It replaces the kind of global in-memory map that quietly becomes a
// second source of truth. The rules are explicit: entries are invalidated
// on every event mutation and on every claim/release, and the claim path
// never reads from here. Capacity decisions always go to the ledger.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MariferVL/eventhub/internal/model"
)

const (
	itemKeyPrefix = "cache:events:item:"
	listKey       = "cache:events:list"
)

// EventCache caches event snapshots with a short TTL.
type EventCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// New constructs an EventCache.
func New(rdb *redis.Client, ttl time.Duration) *EventCache {
	return &EventCache{rdb: rdb, ttl: ttl}
}

// GetEvent returns a cached event, or false on miss or any Redis error.
func (c *EventCache) GetEvent(ctx context.Context, id string) (*model.Event, bool) {
	b, err := c.rdb.Get(ctx, itemKeyPrefix+id).Bytes()
	if err != nil || len(b) == 0 {
		return nil, false
	}
	var e model.Event
	if err := json.Unmarshal(b, &e); err != nil {
		return nil, false
	}
	return &e, true
}

// SetEvent stores an event snapshot. Failures are ignored: the cache is
// best effort and the caller already has the data.
func (c *EventCache) SetEvent(ctx context.Context, e *model.Event) {
	b, err := json.Marshal(e)
	if err != nil {
		return
	}
	_ = c.rdb.Set(ctx, itemKeyPrefix+e.ID, b, c.ttl).Err()
}

// GetList returns the cached event list, or false on miss.
func (c *EventCache) GetList(ctx context.Context) ([]model.Event, bool) {
	b, err := c.rdb.Get(ctx, listKey).Bytes()
	if err != nil || len(b) == 0 {
		return nil, false
	}
	var events []model.Event
	if err := json.Unmarshal(b, &events); err != nil {
		return nil, false
	}
	return events, true
}

// SetList stores the event list.
func (c *EventCache) SetList(ctx context.Context, events []model.Event) {
	b, err := json.Marshal(events)
	if err != nil {
		return
	}
	_ = c.rdb.Set(ctx, listKey, b, c.ttl).Err()
}

// InvalidateEvent drops the item entry and the list entry, which embeds
// the same snapshot.
func (c *EventCache) InvalidateEvent(ctx context.Context, id string) {
	_ = c.rdb.Del(ctx, itemKeyPrefix+id, listKey).Err()
}

// InvalidateList drops only the list entry.
func (c *EventCache) InvalidateList(ctx context.Context) {
	_ = c.rdb.Del(ctx, listKey).Err()
}
