package sfstream

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisStore dials the server named by TEST_REDIS_ADDR, skipping the test
// when the variable is unset.
func redisStore(t *testing.T) *RedisReplayStore {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { client.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Fatalf("ping redis: %v", err)
	}
	return NewRedisReplayStore(client)
}

func TestRedisReplayStoreRoundTrip(t *testing.T) {
	store := redisStore(t)
	ctx := context.Background()
	channel := fmt.Sprintf("/topic/RoundTrip-%d", time.Now().UnixNano())

	id, err := store.LastReplayID(ctx, channel)
	if err != nil {
		t.Fatalf("LastReplayID: %v", err)
	}
	if id != ReplayUnknown {
		t.Fatalf("expected ReplayUnknown for fresh channel, got %d", id)
	}

	if err := store.StoreReplayID(ctx, channel, 42, "2026-08-28T10:00:00.000Z"); err != nil {
		t.Fatalf("StoreReplayID: %v", err)
	}
	id, err = store.LastReplayID(ctx, channel)
	if err != nil {
		t.Fatalf("LastReplayID: %v", err)
	}
	if id != 42 {
		t.Errorf("expected cursor 42, got %d", id)
	}
}

func TestRedisReplayStoreLatestWins(t *testing.T) {
	store := redisStore(t)
	ctx := context.Background()
	channel := fmt.Sprintf("/topic/LatestWins-%d", time.Now().UnixNano())

	if err := store.StoreReplayID(ctx, channel, 7, "2026-08-28T10:00:05.000Z"); err != nil {
		t.Fatalf("StoreReplayID: %v", err)
	}
	// An older event arriving late must not regress the cursor.
	if err := store.StoreReplayID(ctx, channel, 6, "2026-08-28T10:00:01.000Z"); err != nil {
		t.Fatalf("StoreReplayID: %v", err)
	}

	id, err := store.LastReplayID(ctx, channel)
	if err != nil {
		t.Fatalf("LastReplayID: %v", err)
	}
	if id != 7 {
		t.Errorf("expected cursor 7, got %d", id)
	}
}
