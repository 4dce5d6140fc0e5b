package sfstream

import (
	"context"
	"sync"
)

// ReplayID is a position in a channel's event history. Non-positive values
// are reserved sentinels; positive values are concrete cursors assigned by
// the server.
type ReplayID int64

const (
	// ReplayAll requests every event still available on the channel.
	ReplayAll ReplayID = -2
	// ReplayNew requests only events newer than the subscription.
	ReplayNew ReplayID = -1
	// ReplayUnknown means the store has no cursor for the channel. The
	// replay layer treats it as ReplayNew.
	ReplayUnknown ReplayID = 0
)

// ReplayStore persists replay cursors between sessions.
//
// StoreReplayID is advisory: it is invoked fire-and-forget from the message
// stream, so implementations handle their own failures. Frames may be
// delivered out of order; createdDate is provided so a store can keep only
// the latest cursor per channel. Cross-call ordering remains the caller's
// responsibility.
type ReplayStore interface {
	StoreReplayID(ctx context.Context, channel string, id ReplayID, createdDate string) error
	LastReplayID(ctx context.Context, channel string) (ReplayID, error)
}

type replayCursor struct {
	id          ReplayID
	createdDate string
}

// MemoryReplayStore keeps replay cursors in process memory. It keeps the
// latest cursor per channel by createdDate (ISO-8601 timestamps order
// lexically). Safe for concurrent use.
type MemoryReplayStore struct {
	mu      sync.RWMutex
	cursors map[string]replayCursor
}

// NewMemoryReplayStore creates an empty in-memory store.
func NewMemoryReplayStore() *MemoryReplayStore {
	return &MemoryReplayStore{cursors: make(map[string]replayCursor)}
}

// StoreReplayID records the cursor unless a newer one is already present.
func (s *MemoryReplayStore) StoreReplayID(_ context.Context, channel string, id ReplayID, createdDate string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cur, ok := s.cursors[channel]; ok && cur.createdDate > createdDate {
		return nil
	}
	s.cursors[channel] = replayCursor{id: id, createdDate: createdDate}
	return nil
}

// LastReplayID returns the stored cursor, or ReplayUnknown when the channel
// has none.
func (s *MemoryReplayStore) LastReplayID(_ context.Context, channel string) (ReplayID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cur, ok := s.cursors[channel]
	if !ok {
		return ReplayUnknown, nil
	}
	return cur.id, nil
}
