package sfstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// TokenFunc supplies the bearer token for every request. It is called per
// request so callers can refresh expiring tokens.
type TokenFunc func(ctx context.Context) (string, error)

// StaticToken returns a TokenFunc that always yields the same token.
func StaticToken(token string) TokenFunc {
	return func(context.Context) (string, error) { return token, nil }
}

// BayeuxClient is the reference base client: a long-polling Bayeux client
// over net/http implementing the Streaming contract. It performs the raw
// handshake, subscribe, unsubscribe and connect requests against
// <instance>/cometd/<version>/ and exposes the inbound frame stream; all
// cross-cutting behavior lives in the extension layers composed around it.
//
// The connect loop does not retry transport failures; a failed poll
// terminates the stream (check Err after the channel closes) and the caller
// decides whether to restart.
type BayeuxClient struct {
	httpClient  *http.Client
	instanceURL string
	token       TokenFunc
	session     *Session
	log         Logger
	metrics     *MetricsCollector

	// outer is the composed chain wrapping this client; payloads are built
	// through it so every layer's payload hooks apply. Defaults to the
	// client itself.
	outer Streaming

	mu        sync.Mutex
	streamErr error
}

// NewBayeuxClient creates a base client for the given instance URL. The
// token func is called for every request.
func NewBayeuxClient(instanceURL string, token TokenFunc, opts ...Option) *BayeuxClient {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	c := &BayeuxClient{
		httpClient:  cfg.httpClient,
		instanceURL: strings.TrimRight(instanceURL, "/"),
		token:       token,
		session:     NewSession(cfg.version, cfg.timeout),
		log:         cfg.logger,
		metrics:     cfg.metrics,
	}
	c.outer = c
	return c
}

// Bind implements Binder.
func (c *BayeuxClient) Bind(outer Streaming) {
	c.outer = outer
}

// Session returns the shared mutable session configuration.
func (c *BayeuxClient) Session() *Session {
	return c.session
}

// Err returns the error that terminated the message stream, if any.
func (c *BayeuxClient) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.streamErr
}

func (c *BayeuxClient) setErr(err error) {
	c.mu.Lock()
	c.streamErr = err
	c.mu.Unlock()
}

// Start validates the configuration. The handshake is a separate step so
// layers wrapping it observe every handshake, including the first.
func (c *BayeuxClient) Start(context.Context) error {
	if c.instanceURL == "" {
		return &StreamError{Op: "start", Reason: "instance URL is empty"}
	}
	if c.token == nil {
		return &StreamError{Op: "start", Reason: "token func is nil"}
	}
	c.setErr(nil)
	return nil
}

// Stop sends a best-effort disconnect and forgets the session.
func (c *BayeuxClient) Stop(ctx context.Context) error {
	clientID := c.session.ClientID()
	c.session.SetClientID("")
	if clientID == "" {
		return nil
	}

	payload := Payload{
		"channel":  MetaDisconnect,
		"clientId": clientID,
	}
	if _, err := c.post(ctx, "disconnect", payload); err != nil {
		c.log.Warn("disconnect failed", "error", err)
	}
	return nil
}

// HandshakePayload builds the raw handshake request body.
func (c *BayeuxClient) HandshakePayload(context.Context) (Payload, error) {
	return Payload{
		"channel":                  MetaHandshake,
		"version":                  "1.0",
		"minimumVersion":           "1.0",
		"supportedConnectionTypes": []string{"long-polling"},
	}, nil
}

// Handshake performs the protocol handshake and records the server-assigned
// client id.
func (c *BayeuxClient) Handshake(ctx context.Context) ([]Message, error) {
	payload, err := c.outer.HandshakePayload(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := c.post(ctx, "handshake", payload)
	c.metrics.RecordHandshake(err)
	if err != nil {
		return nil, err
	}
	if len(resp) == 0 {
		return resp, &StreamError{Op: "handshake", Reason: "empty response", Cause: ErrHandshakeFailed}
	}
	if !resp[0].Successful {
		return resp, &StreamError{Op: "handshake", Reason: resp[0].Error, Cause: ErrHandshakeFailed}
	}

	c.session.SetClientID(resp[0].ClientID)
	c.log.Debug("handshake complete", "clientId", resp[0].ClientID)
	return resp, nil
}

// SubscribePayload builds the raw subscribe request body for a channel.
func (c *BayeuxClient) SubscribePayload(_ context.Context, channel string) (Payload, error) {
	clientID := c.session.ClientID()
	if clientID == "" {
		return nil, ErrNotConnected
	}
	return Payload{
		"channel":      MetaSubscribe,
		"clientId":     clientID,
		"subscription": channel,
	}, nil
}

// Subscribe subscribes to a channel. The result records are returned as the
// server sent them; unsuccessful results are not turned into errors, that
// judgement belongs to the layers.
func (c *BayeuxClient) Subscribe(ctx context.Context, channel string) ([]Message, error) {
	payload, err := c.outer.SubscribePayload(ctx, channel)
	if err != nil {
		return nil, err
	}
	return c.post(ctx, "subscribe", payload)
}

// Unsubscribe removes a channel subscription.
func (c *BayeuxClient) Unsubscribe(ctx context.Context, channel string) ([]Message, error) {
	clientID := c.session.ClientID()
	if clientID == "" {
		return nil, ErrNotConnected
	}
	payload := Payload{
		"channel":      MetaUnsubscribe,
		"clientId":     clientID,
		"subscription": channel,
	}
	return c.post(ctx, "unsubscribe", payload)
}

// Messages starts the long-poll connect loop and returns the frame stream.
// The channel closes when ctx is cancelled or a poll fails; Err reports the
// failure.
func (c *BayeuxClient) Messages(ctx context.Context) <-chan Message {
	out := make(chan Message)
	go func() {
		defer close(out)
		for {
			if ctx.Err() != nil {
				return
			}
			frames, err := c.connect(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				c.setErr(err)
				c.log.Error("connect poll failed", "error", err)
				return
			}
			for _, m := range frames {
				c.metrics.RecordFrame(m.IsMeta())
				select {
				case out <- m:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

// connect issues one long poll. The server holds the request up to the
// session timeout before responding, so the per-request deadline adds a
// grace period on top of it.
func (c *BayeuxClient) connect(ctx context.Context) ([]Message, error) {
	clientID := c.session.ClientID()
	if clientID == "" {
		return nil, ErrNotConnected
	}
	payload := Payload{
		"channel":        MetaConnect,
		"clientId":       clientID,
		"connectionType": "long-polling",
	}

	ctx, cancel := context.WithTimeout(ctx, c.session.Timeout()+10*time.Second)
	defer cancel()
	return c.post(ctx, "connect", payload)
}

// Get fetches an arbitrary read-only REST resource from the instance.
func (c *BayeuxClient) Get(ctx context.Context, path string) (json.RawMessage, error) {
	start := time.Now()
	raw, err := c.get(ctx, path)
	c.metrics.RecordRequest("get", err, time.Since(start))
	return raw, err
}

func (c *BayeuxClient) get(ctx context.Context, path string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.instanceURL+path, nil)
	if err != nil {
		return nil, err
	}
	if err := c.authorize(ctx, req); err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &StreamError{Op: "get", Reason: path, Cause: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &StreamError{Op: "get", Reason: path, Cause: err}
	}
	if resp.StatusCode >= 400 {
		return nil, &StreamError{Op: "get", Reason: fmt.Sprintf("%s: status %d", path, resp.StatusCode)}
	}
	return body, nil
}

func (c *BayeuxClient) endpoint() string {
	return c.instanceURL + "/cometd/" + c.session.Version() + "/"
}

func (c *BayeuxClient) authorize(ctx context.Context, req *http.Request) error {
	token, err := c.token(ctx)
	if err != nil {
		return &StreamError{Op: "auth", Cause: err}
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return nil
}

func (c *BayeuxClient) post(ctx context.Context, op string, payload Payload) ([]Message, error) {
	start := time.Now()
	frames, err := c.postPayload(ctx, op, payload)
	c.metrics.RecordRequest(op, err, time.Since(start))
	return frames, err
}

func (c *BayeuxClient) postPayload(ctx context.Context, op string, payload Payload) ([]Message, error) {
	payload["id"] = uuid.NewString()

	body, err := json.Marshal([]Payload{payload})
	if err != nil {
		return nil, &StreamError{Op: op, Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(body))
	if err != nil {
		return nil, &StreamError{Op: op, Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if err := c.authorize(ctx, req); err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &StreamError{Op: op, Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, &StreamError{Op: op, Reason: fmt.Sprintf("status %d", resp.StatusCode)}
	}

	var frames []Message
	if err := json.NewDecoder(resp.Body).Decode(&frames); err != nil {
		return nil, &StreamError{Op: op, Reason: "malformed response", Cause: err}
	}
	return frames, nil
}
