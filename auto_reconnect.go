package sfstream

import (
	"context"
	"sync"
)

// AutoReconnect transparently recovers from session invalidation. It owns
// the set of subscribed channels; when a meta frame carries the
// "403::Unknown client" error the frame is swallowed, a fresh handshake is
// performed, and every tracked channel is resubscribed in the background.
// The stream consumer observes only a gap in frames, never the error.
type AutoReconnect struct {
	cfg config
}

// NewAutoReconnect creates the layer.
func NewAutoReconnect(opts ...Option) *AutoReconnect {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &AutoReconnect{cfg: cfg}
}

// Extend implements Extension.
func (e *AutoReconnect) Extend(inner Streaming) Streaming {
	l := &reconnectLayer{
		Streaming: inner,
		log:       e.cfg.logger,
		metrics:   e.cfg.metrics,
		tasks:     NewSupervisor(e.cfg.logger, e.cfg.metrics),
		channels:  make(map[string]struct{}),
	}
	l.outer = l
	return l
}

type reconnectLayer struct {
	Streaming
	log     Logger
	metrics *MetricsCollector
	tasks   *Supervisor

	// outer is the outermost client of the composed chain, so a triggered
	// handshake takes the same path a caller-initiated one would.
	outer Streaming

	mu       sync.Mutex
	channels map[string]struct{}
}

// Bind implements Binder.
func (l *reconnectLayer) Bind(outer Streaming) {
	l.outer = outer
}

// Start resets the subscription set, then delegates.
func (l *reconnectLayer) Start(ctx context.Context) error {
	l.mu.Lock()
	l.channels = make(map[string]struct{})
	l.mu.Unlock()
	l.metrics.RecordSubscribedChannels(0)

	return l.Streaming.Start(ctx)
}

// Subscribe tracks the channel, then delegates.
func (l *reconnectLayer) Subscribe(ctx context.Context, channel string) ([]Message, error) {
	l.mu.Lock()
	l.channels[channel] = struct{}{}
	n := len(l.channels)
	l.mu.Unlock()
	l.metrics.RecordSubscribedChannels(n)

	return l.Streaming.Subscribe(ctx, channel)
}

// Unsubscribe stops tracking the channel, then delegates. Untracking an
// unknown channel is a no-op; the inner result is returned either way.
func (l *reconnectLayer) Unsubscribe(ctx context.Context, channel string) ([]Message, error) {
	l.mu.Lock()
	delete(l.channels, channel)
	n := len(l.channels)
	l.mu.Unlock()
	l.metrics.RecordSubscribedChannels(n)

	return l.Streaming.Unsubscribe(ctx, channel)
}

// Stop delegates, then clears the subscription set and drains background
// resubscriptions.
func (l *reconnectLayer) Stop(ctx context.Context) error {
	err := l.Streaming.Stop(ctx)

	l.mu.Lock()
	l.channels = make(map[string]struct{})
	l.mu.Unlock()
	l.metrics.RecordSubscribedChannels(0)
	l.tasks.Wait()

	return err
}

// Handshake delegates inward, then resubscribes every tracked channel in the
// background. Resubscriptions go through the inner chain directly, bypassing
// this layer's Subscribe override so the set is not re-mutated; their
// individual outcomes are logged, not surfaced to the handshake caller.
func (l *reconnectLayer) Handshake(ctx context.Context) ([]Message, error) {
	resp, err := l.Streaming.Handshake(ctx)
	if err != nil {
		return resp, err
	}

	l.mu.Lock()
	channels := make([]string, 0, len(l.channels))
	for ch := range l.channels {
		channels = append(channels, ch)
	}
	l.mu.Unlock()

	for _, ch := range channels {
		l.tasks.Go(ctx, "resubscribe", func(ctx context.Context) error {
			_, err := l.Streaming.Subscribe(ctx, ch)
			l.metrics.RecordResubscribe(err)
			if err != nil {
				l.log.Warn("resubscription failed", "channel", ch, "error", err)
			}
			return err
		})
	}

	return resp, nil
}

func (l *reconnectLayer) Messages(ctx context.Context) <-chan Message {
	in := l.Streaming.Messages(ctx)
	out := make(chan Message)
	go func() {
		defer close(out)
		for m := range in {
			if m.IsMeta() && m.Error == UnknownClientError {
				l.log.Info("session invalidated, performing new handshake",
					"channel", m.Channel)
				l.metrics.RecordFrameSwallowed()
				l.metrics.RecordReconnect()
				if _, err := l.outer.Handshake(ctx); err != nil {
					l.log.Error("automatic re-handshake failed", "error", err)
				}
				continue
			}
			select {
			case out <- m:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
