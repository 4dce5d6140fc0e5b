package sfstream

import (
	"context"
	"time"

	"github.com/papernest-public/sfstream/internal/backoff"
)

// ReSubscribe retries subscriptions rejected by server congestion. A
// subscribe result whose failure reason starts with SERVER_UNAVAILABLE is
// retried after the configured interval; an empty response or a successful
// first record returns immediately, and any other failure reason is returned
// to the caller untouched.
//
// By default retries continue indefinitely at a fixed interval; bound them
// with WithMaxSubscribeAttempts or grow the interval with WithRetryBackoff.
type ReSubscribe struct {
	cfg config
}

// NewReSubscribe creates the layer.
func NewReSubscribe(opts ...Option) *ReSubscribe {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.retryInterval <= 0 {
		cfg.retryInterval = DefaultRetryInterval
	}
	if cfg.retryStrategy == nil {
		cfg.retryStrategy = backoff.Fixed{}
	}
	return &ReSubscribe{cfg: cfg}
}

// Extend implements Extension.
func (e *ReSubscribe) Extend(inner Streaming) Streaming {
	return &resubscribeLayer{
		Streaming:   inner,
		log:         e.cfg.logger,
		metrics:     e.cfg.metrics,
		interval:    e.cfg.retryInterval,
		maxInterval: e.cfg.maxRetryInterval,
		maxAttempts: e.cfg.maxAttempts,
		strategy:    e.cfg.retryStrategy,
	}
}

type resubscribeLayer struct {
	Streaming
	log         Logger
	metrics     *MetricsCollector
	interval    time.Duration
	maxInterval time.Duration
	maxAttempts int
	strategy    backoff.Strategy
}

func (l *resubscribeLayer) Subscribe(ctx context.Context, channel string) ([]Message, error) {
	for attempt := 0; ; attempt++ {
		resp, err := l.Streaming.Subscribe(ctx, channel)
		if err != nil {
			return resp, err
		}
		if len(resp) == 0 || resp[0].Successful {
			return resp, nil
		}
		if !IsRetryableSubscribe(resp[0]) {
			return resp, nil
		}

		if l.maxAttempts > 0 && attempt+1 >= l.maxAttempts {
			return resp, &StreamError{
				Op:      "subscribe",
				Channel: channel,
				Reason:  resp[0].FailureReason(),
				Cause:   ErrRetriesExhausted,
			}
		}

		delay := l.strategy.Delay(attempt, l.interval, l.maxInterval)
		l.metrics.RecordSubscribeRetry(channel)
		l.log.Debug("server busy, retrying subscribe",
			"channel", channel, "attempt", attempt+1, "delay", delay)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return resp, ctx.Err()
		}
	}
}
