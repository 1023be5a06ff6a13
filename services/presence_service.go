package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const presencePrefix = "presence:online:"

// PresenceService tracks which members currently have the app open.
// Each heartbeat refreshes a per-member key with a TTL; a member whose
// key expires simply drops off the online list.
type PresenceService struct {
	Redis *redis.Client
	TTL   time.Duration
}

func NewPresenceService(redisClient *redis.Client, ttl time.Duration) *PresenceService {
	return &PresenceService{Redis: redisClient, TTL: ttl}
}

// Heartbeat marks the member online for another TTL window.
func (s *PresenceService) Heartbeat(ctx context.Context, studentID string) error {
	key := presencePrefix + studentID
	if err := s.Redis.Set(ctx, key, time.Now().Unix(), s.TTL).Err(); err != nil {
		return fmt.Errorf("presence heartbeat %s: %w", studentID, err)
	}
	return nil
}

// Offline removes the member immediately, used on explicit logout.
func (s *PresenceService) Offline(ctx context.Context, studentID string) error {
	if err := s.Redis.Del(ctx, presencePrefix+studentID).Err(); err != nil {
		return fmt.Errorf("presence offline %s: %w", studentID, err)
	}
	return nil
}

// Online returns the student ids currently online.
func (s *PresenceService) Online(ctx context.Context) ([]string, error) {
	keys, err := s.Redis.Keys(ctx, presencePrefix+"*").Result()
	if err != nil {
		return nil, fmt.Errorf("presence scan: %w", err)
	}
	ids := make([]string, 0, len(keys))
	for _, key := range keys {
		ids = append(ids, strings.TrimPrefix(key, presencePrefix))
	}
	return ids, nil
}
