package sfstream

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// redisStoreScript records a cursor only when it is newer than the one
// already stored, keyed by createdDate. Runs atomically server-side so
// concurrent fire-and-forget writes cannot regress the cursor.
var redisStoreScript = redis.NewScript(`
local created = redis.call('HGET', KEYS[1], 'createdDate')
if created and created > ARGV[2] then
  return 0
end
redis.call('HSET', KEYS[1], 'replayId', ARGV[1], 'createdDate', ARGV[2])
return 1
`)

// RedisReplayStore persists replay cursors in Redis, one hash per channel,
// so replay positions survive process restarts. Safe for concurrent use.
type RedisReplayStore struct {
	client    redis.UniversalClient
	keyPrefix string
}

// NewRedisReplayStore creates a store on the given client. Keys are prefixed
// with "sfstream:replay:".
func NewRedisReplayStore(client redis.UniversalClient) *RedisReplayStore {
	return &RedisReplayStore{client: client, keyPrefix: "sfstream:replay:"}
}

func (s *RedisReplayStore) key(channel string) string {
	return s.keyPrefix + channel
}

// StoreReplayID records the cursor unless a newer one is already present.
func (s *RedisReplayStore) StoreReplayID(ctx context.Context, channel string, id ReplayID, createdDate string) error {
	err := redisStoreScript.Run(ctx, s.client,
		[]string{s.key(channel)},
		int64(id), createdDate,
	).Err()
	if err != nil {
		return fmt.Errorf("sfstream: store replay id for %s: %w", channel, err)
	}
	return nil
}

// LastReplayID returns the stored cursor, or ReplayUnknown when the channel
// has none.
func (s *RedisReplayStore) LastReplayID(ctx context.Context, channel string) (ReplayID, error) {
	val, err := s.client.HGet(ctx, s.key(channel), "replayId").Result()
	if err == redis.Nil {
		return ReplayUnknown, nil
	}
	if err != nil {
		return ReplayUnknown, fmt.Errorf("sfstream: last replay id for %s: %w", channel, err)
	}
	id, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return ReplayUnknown, fmt.Errorf("sfstream: last replay id for %s: %w", channel, err)
	}
	return ReplayID(id), nil
}
