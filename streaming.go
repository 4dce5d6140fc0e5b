package sfstream

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// Streaming is the base client contract every extension layer wraps. A layer
// overrides the subset of operations it customizes and delegates the rest to
// the next inner layer unchanged.
//
// Messages returns the continuous inbound frame stream. The channel is closed
// when the stream terminates (context cancellation or an unrecoverable
// transport failure); it is restartable only through a new call.
type Streaming interface {
	// Start prepares the client for a streaming session.
	Start(ctx context.Context) error
	// Stop tears the session down and releases per-session state.
	Stop(ctx context.Context) error
	// Handshake performs the protocol handshake and returns its response frames.
	Handshake(ctx context.Context) ([]Message, error)
	// Subscribe subscribes to a channel and returns the ordered result records.
	Subscribe(ctx context.Context, channel string) ([]Message, error)
	// Unsubscribe removes a channel subscription.
	Unsubscribe(ctx context.Context, channel string) ([]Message, error)
	// Messages returns the inbound frame stream.
	Messages(ctx context.Context) <-chan Message
	// HandshakePayload builds the handshake request body.
	HandshakePayload(ctx context.Context) (Payload, error)
	// SubscribePayload builds the subscribe request body for a channel.
	SubscribePayload(ctx context.Context, channel string) (Payload, error)
	// Get fetches an arbitrary read-only REST resource.
	Get(ctx context.Context, path string) (json.RawMessage, error)
	// Session returns the shared mutable session configuration.
	Session() *Session
}

// Session is the mutable per-session configuration shared across the layer
// chain. The base client owns it, but layers write the fields they manage:
// TimeoutAdvice writes the timeout, AutoVersion writes the version. All
// access is synchronized so background tasks may read safely.
type Session struct {
	mu       sync.RWMutex
	timeout  time.Duration
	version  string
	clientID string
}

// NewSession returns a session with the given protocol version and long-poll
// timeout.
func NewSession(version string, timeout time.Duration) *Session {
	return &Session{version: version, timeout: timeout}
}

// Timeout returns how long the client waits on a long poll.
func (s *Session) Timeout() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.timeout
}

// SetTimeout updates the long-poll timeout.
func (s *Session) SetTimeout(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timeout = d
}

// Version returns the protocol API version in use.
func (s *Session) Version() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// SetVersion updates the protocol API version.
func (s *Session) SetVersion(v string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.version = v
}

// ClientID returns the server-assigned session identifier, or "" before a
// successful handshake.
func (s *Session) ClientID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clientID
}

// SetClientID records the server-assigned session identifier.
func (s *Session) SetClientID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clientID = id
}
