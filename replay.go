package sfstream

import "context"

// Replay adds at-least-once event replay to the chain. It advertises the
// replay capability during handshake, resumes each subscription from the
// store's last known cursor, and persists the cursor of every data frame as
// it flows by.
//
// Cursor persistence is fire-and-forget: frames are forwarded immediately and
// never wait on the store. Because of that the store may observe cursors out
// of creation-time order under concurrent delivery; stores receive the
// event's createdDate so they can keep only the latest.
type Replay struct {
	store ReplayStore
	cfg   config
}

// NewReplay creates the layer on the given store.
func NewReplay(store ReplayStore, opts ...Option) *Replay {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Replay{store: store, cfg: cfg}
}

// Extend implements Extension.
func (e *Replay) Extend(inner Streaming) Streaming {
	return &replayLayer{
		Streaming: inner,
		store:     e.store,
		log:       e.cfg.logger,
		metrics:   e.cfg.metrics,
		tasks:     NewSupervisor(e.cfg.logger, e.cfg.metrics),
	}
}

type replayLayer struct {
	Streaming
	store   ReplayStore
	log     Logger
	metrics *MetricsCollector
	tasks   *Supervisor
}

func (l *replayLayer) HandshakePayload(ctx context.Context) (Payload, error) {
	payload, err := l.Streaming.HandshakePayload(ctx)
	if err != nil {
		return nil, err
	}
	payload.Ext()["replay"] = true
	return payload, nil
}

func (l *replayLayer) SubscribePayload(ctx context.Context, channel string) (Payload, error) {
	payload, err := l.Streaming.SubscribePayload(ctx, channel)
	if err != nil {
		return nil, err
	}

	id, err := l.store.LastReplayID(ctx, channel)
	if err != nil {
		l.log.Warn("replay cursor lookup failed, replaying new events only",
			"channel", channel, "error", err)
		id = ReplayNew
	}
	if id == ReplayUnknown {
		id = ReplayNew
	}

	ext := payload.Ext()
	replay, ok := ext["replay"].(map[string]any)
	if !ok {
		replay = make(map[string]any)
		ext["replay"] = replay
	}
	replay[channel] = int64(id)

	return payload, nil
}

func (l *replayLayer) Messages(ctx context.Context) <-chan Message {
	in := l.Streaming.Messages(ctx)
	out := make(chan Message)
	go func() {
		defer close(out)
		for m := range in {
			if !m.IsMeta() && m.Data != nil && m.Data.Event != nil {
				channel := m.Channel
				event := *m.Data.Event
				l.tasks.Go(ctx, "store-replay-id", func(ctx context.Context) error {
					err := l.store.StoreReplayID(ctx, channel, ReplayID(event.ReplayID), event.CreatedDate)
					l.metrics.RecordReplayStore(err)
					return err
				})
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

// Stop delegates inward, then drains pending cursor writes.
func (l *replayLayer) Stop(ctx context.Context) error {
	err := l.Streaming.Stop(ctx)
	l.tasks.Wait()
	return err
}
