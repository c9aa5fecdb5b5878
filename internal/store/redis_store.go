package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/weiawesome/wes-io-live/relationship-service/internal/domain"
)

const (
	countsKeyPrefix = "relationship:counts:"
	hotKeyScoresKey = "relationship:hotkey:scores"

	fieldFollowers = "followers"
	fieldFollowing = "following"
	fieldFriends   = "friends"

	defaultCountTTL = 10 * time.Minute
)

// CountsStore caches per-user relationship counts and tracks hot keys.
type CountsStore interface {
	// GetCounts returns (counts, true, nil) on hit and (nil, false, nil) on miss.
	GetCounts(ctx context.Context, userID string) (*domain.Counters, bool, error)
	// SetCounts writes counts unless the cache already holds a newer version.
	// Versions are unix microseconds.
	SetCounts(ctx context.Context, c domain.Counters, version int64) error
	// Invalidate drops cached counts but remembers when, so a fill that read
	// the database before the invalidation cannot restore older counts.
	Invalidate(ctx context.Context, userIDs ...string) error
	RecordAccess(ctx context.Context, userID string) error
	GetTopHotKeys(ctx context.Context, n int64) ([]string, error)
	ResetHotKeyScores(ctx context.Context) error
	Close() error
}

// RedisCountsStore implements CountsStore backed by Redis hashes.
type RedisCountsStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCountsStore creates a new Redis-backed counts store.
func NewRedisCountsStore(address, password string, db int, ttl time.Duration) (*RedisCountsStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	if ttl <= 0 {
		ttl = defaultCountTTL
	}
	return &RedisCountsStore{client: client, ttl: ttl}, nil
}

func countsKey(userID string) string {
	return countsKeyPrefix + userID
}

// GetCounts returns the cached counts for a user.
func (s *RedisCountsStore) GetCounts(ctx context.Context, userID string) (*domain.Counters, bool, error) {
	vals, err := s.client.HMGet(ctx, countsKey(userID), fieldFollowers, fieldFollowing, fieldFriends).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get counts: %w", err)
	}

	nums := make([]int64, len(vals))
	for i, v := range vals {
		str, ok := v.(string)
		if !ok {
			// Missing field means the hash is absent or partially written.
			return nil, false, nil
		}
		n, err := strconv.ParseInt(str, 10, 64)
		if err != nil {
			return nil, false, fmt.Errorf("parse counts: %w", err)
		}
		nums[i] = n
	}

	return &domain.Counters{
		UserID:    userID,
		Followers: nums[0],
		Following: nums[1],
		Friends:   nums[2],
	}, true, nil
}

// setCountsScript writes the counts hash only when the incoming version is
// not older than the cached one, then refreshes the TTL.
// Returns 1 if written, 0 if skipped as stale.
var setCountsScript = redis.NewScript(`
local key = KEYS[1]
local version = tonumber(ARGV[4])
local current = tonumber(redis.call("HGET", key, "version"))
if current then
  if current > version then
    return 0
  end
  if current == version and redis.call("HEXISTS", key, "followers") == 0 then
    return 0
  end
end
redis.call("HSET", key, "followers", ARGV[1], "following", ARGV[2], "friends", ARGV[3], "version", ARGV[4])
redis.call("PEXPIRE", key, ARGV[5])
return 1
`)

// SetCounts stores counts for a user, guarded by version.
func (s *RedisCountsStore) SetCounts(ctx context.Context, c domain.Counters, version int64) error {
	err := setCountsScript.Run(ctx, s.client, []string{countsKey(c.UserID)},
		c.Followers, c.Following, c.Friends, version, s.ttl.Milliseconds(),
	).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("redis set counts: %w", err)
	}
	return nil
}

// invalidateScript strips the count fields and leaves a version marker
// that never moves backwards. GetCounts treats the bare marker as a miss.
var invalidateScript = redis.NewScript(`
local key = KEYS[1]
local marker = tonumber(ARGV[1])
local current = tonumber(redis.call("HGET", key, "version"))
if current and current > marker then
  marker = current
end
redis.call("HDEL", key, "followers", "following", "friends")
redis.call("HSET", key, "version", marker)
redis.call("PEXPIRE", key, ARGV[2])
return 1
`)

// Invalidate drops the cached counts of the given users.
func (s *RedisCountsStore) Invalidate(ctx context.Context, userIDs ...string) error {
	if len(userIDs) == 0 {
		return nil
	}
	marker := time.Now().UnixMicro()
	pipe := s.client.Pipeline()
	for _, id := range userIDs {
		invalidateScript.Run(ctx, pipe, []string{countsKey(id)}, marker, s.ttl.Milliseconds())
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("redis invalidate counts: %w", err)
	}
	return nil
}

// RecordAccess increments the access score for a user in the hot key sorted set.
func (s *RedisCountsStore) RecordAccess(ctx context.Context, userID string) error {
	err := s.client.ZIncrBy(ctx, hotKeyScoresKey, 1, userID).Err()
	if err != nil {
		return fmt.Errorf("redis record access: %w", err)
	}
	return nil
}

// GetTopHotKeys returns the top-n most accessed user IDs.
func (s *RedisCountsStore) GetTopHotKeys(ctx context.Context, n int64) ([]string, error) {
	keys, err := s.client.ZRevRange(ctx, hotKeyScoresKey, 0, n-1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis get top hot keys: %w", err)
	}
	return keys, nil
}

// ResetHotKeyScores deletes the hot key scores sorted set.
func (s *RedisCountsStore) ResetHotKeyScores(ctx context.Context) error {
	err := s.client.Del(ctx, hotKeyScoresKey).Err()
	if err != nil {
		return fmt.Errorf("redis reset hot key scores: %w", err)
	}
	return nil
}

// Close closes the Redis client.
func (s *RedisCountsStore) Close() error {
	return s.client.Close()
}

// Ensure interface is satisfied at compile time.
var _ CountsStore = (*RedisCountsStore)(nil)
