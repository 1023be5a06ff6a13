package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"club-system/models"
)

// EventCache is a read-through cache for event documents, keyed by event
// id and invalidated on every successful mutation. Readers that miss fall
// back to the authoritative store; the cache is never written from a
// transaction, only from a committed read.
type EventCache struct {
	Redis *redis.Client
	TTL   time.Duration
}

func NewEventCache(redisClient *redis.Client, ttl time.Duration) *EventCache {
	return &EventCache{Redis: redisClient, TTL: ttl}
}

func cacheKey(eventID string) string {
	return fmt.Sprintf("event:cache:%s", eventID)
}

// Get returns the cached event and whether the entry was present.
func (c *EventCache) Get(ctx context.Context, eventID string) (*models.Event, bool) {
	data, err := c.Redis.Get(ctx, cacheKey(eventID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("event cache: get %s: %v", eventID, err)
		}
		return nil, false
	}
	var ev models.Event
	if err := json.Unmarshal(data, &ev); err != nil {
		log.Printf("event cache: decode %s: %v", eventID, err)
		return nil, false
	}
	return &ev, true
}

// Set stores the event under its id. Cache failures are logged and
// swallowed; the store remains authoritative.
func (c *EventCache) Set(ctx context.Context, ev *models.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		log.Printf("event cache: encode %s: %v", ev.ID, err)
		return
	}
	if err := c.Redis.Set(ctx, cacheKey(ev.ID), data, c.TTL).Err(); err != nil {
		log.Printf("event cache: set %s: %v", ev.ID, err)
	}
}

// Invalidate drops the entry for the event.
func (c *EventCache) Invalidate(ctx context.Context, eventID string) {
	if err := c.Redis.Del(ctx, cacheKey(eventID)).Err(); err != nil {
		log.Printf("event cache: invalidate %s: %v", eventID, err)
	}
}
