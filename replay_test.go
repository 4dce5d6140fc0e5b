package sfstream

import (
	"context"
	"errors"
	"sync"
	"testing"
)

type recordingStore struct {
	mu       sync.Mutex
	stored   []storedCursor
	last     map[string]ReplayID
	lastErr  error
	storeErr error
}

type storedCursor struct {
	channel     string
	id          ReplayID
	createdDate string
}

func newRecordingStore() *recordingStore {
	return &recordingStore{last: make(map[string]ReplayID)}
}

func (s *recordingStore) StoreReplayID(_ context.Context, channel string, id ReplayID, createdDate string) error {
	s.mu.Lock()
	s.stored = append(s.stored, storedCursor{channel: channel, id: id, createdDate: createdDate})
	s.mu.Unlock()
	return s.storeErr
}

func (s *recordingStore) LastReplayID(_ context.Context, channel string) (ReplayID, error) {
	if s.lastErr != nil {
		return ReplayUnknown, s.lastErr
	}
	return s.last[channel], nil
}

func (s *recordingStore) storedCursors() []storedCursor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]storedCursor(nil), s.stored...)
}

func TestReplayHandshakePayloadEnablesExtension(t *testing.T) {
	base := newFakeBase()
	client := Compose(base, NewReplay(newRecordingStore()))

	payload, err := client.HandshakePayload(context.Background())
	if err != nil {
		t.Fatalf("handshake payload: %v", err)
	}

	ext, ok := payload["ext"].(map[string]any)
	if !ok || ext["replay"] != true {
		t.Errorf("expected ext.replay=true, got %+v", payload)
	}
}

func TestReplaySubscribePayloadCursors(t *testing.T) {
	cases := []struct {
		name string
		last ReplayID
		want int64
	}{
		{"no stored cursor defaults to new events", ReplayUnknown, -1},
		{"concrete cursor", 1234, 1234},
		{"all events sentinel", ReplayAll, -2},
		{"new events sentinel", ReplayNew, -1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := newRecordingStore()
			store.last["/topic/X"] = tc.last

			base := newFakeBase()
			client := Compose(base, NewReplay(store))

			payload, err := client.SubscribePayload(context.Background(), "/topic/X")
			if err != nil {
				t.Fatalf("subscribe payload: %v", err)
			}

			ext := payload["ext"].(map[string]any)
			replay := ext["replay"].(map[string]any)
			if got := replay["/topic/X"]; got != tc.want {
				t.Errorf("expected replay id %d, got %v", tc.want, got)
			}
		})
	}
}

func TestReplaySubscribePayloadStoreErrorDefaultsToNewEvents(t *testing.T) {
	store := newRecordingStore()
	store.lastErr = errors.New("store down")

	base := newFakeBase()
	client := Compose(base, NewReplay(store))

	payload, err := client.SubscribePayload(context.Background(), "/topic/X")
	if err != nil {
		t.Fatalf("subscribe payload: %v", err)
	}

	replay := payload["ext"].(map[string]any)["replay"].(map[string]any)
	if got := replay["/topic/X"]; got != int64(-1) {
		t.Errorf("expected fallback to -1, got %v", got)
	}
}

func TestReplayPersistsDataFrameCursor(t *testing.T) {
	store := newRecordingStore()
	base := newFakeBase()
	client := Compose(base, NewReplay(store))
	layer := client.(*replayLayer)

	out := client.Messages(context.Background())
	base.stream <- Message{
		Channel: "/topic/X",
		Data:    &Data{Event: &Event{ReplayID: 77, CreatedDate: "t1"}},
	}

	m := receiveFrame(t, out)
	if m.Channel != "/topic/X" {
		t.Errorf("frame should be forwarded, got %+v", m)
	}

	layer.tasks.Wait()
	stored := store.storedCursors()
	if len(stored) != 1 {
		t.Fatalf("expected exactly one store call, got %d", len(stored))
	}
	if stored[0].channel != "/topic/X" || stored[0].id != 77 || stored[0].createdDate != "t1" {
		t.Errorf("unexpected cursor %+v", stored[0])
	}
	close(base.stream)
}

func TestReplayMetaFramesPassUntouched(t *testing.T) {
	store := newRecordingStore()
	base := newFakeBase()
	client := Compose(base, NewReplay(store))
	layer := client.(*replayLayer)

	out := client.Messages(context.Background())
	base.stream <- Message{Channel: MetaConnect, Successful: true}

	receiveFrame(t, out)
	layer.tasks.Wait()
	if len(store.storedCursors()) != 0 {
		t.Error("meta frames must not trigger cursor persistence")
	}
	close(base.stream)
}

func TestReplayStoreFailureDoesNotAffectStream(t *testing.T) {
	store := newRecordingStore()
	store.storeErr = errors.New("disk full")

	base := newFakeBase()
	client := Compose(base, NewReplay(store))
	layer := client.(*replayLayer)

	out := client.Messages(context.Background())
	base.stream <- Message{
		Channel: "/topic/X",
		Data:    &Data{Event: &Event{ReplayID: 1, CreatedDate: "t1"}},
	}
	base.stream <- Message{
		Channel: "/topic/X",
		Data:    &Data{Event: &Event{ReplayID: 2, CreatedDate: "t2"}},
	}

	// Both frames arrive despite every store call failing.
	receiveFrame(t, out)
	receiveFrame(t, out)

	layer.tasks.Wait()
	if len(store.storedCursors()) != 2 {
		t.Errorf("expected 2 store attempts, got %d", len(store.storedCursors()))
	}
	close(base.stream)
}

func TestReplayDataFrameWithoutEventForwarded(t *testing.T) {
	store := newRecordingStore()
	base := newFakeBase()
	client := Compose(base, NewReplay(store))

	out := client.Messages(context.Background())
	base.stream <- Message{Channel: "/topic/X"}

	m := receiveFrame(t, out)
	if m.Channel != "/topic/X" {
		t.Errorf("frame without event payload should still be forwarded, got %+v", m)
	}
	close(base.stream)
}
