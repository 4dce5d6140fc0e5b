package sfstream

import (
	"context"
	"time"
)

// TimeoutAdvice is an observer layer that mirrors the server's timeout advice
// into the shared session. Every /meta/connect frame carrying advice.timeout
// (milliseconds) updates the session's long-poll timeout; all frames are
// re-emitted unchanged.
type TimeoutAdvice struct {
	cfg config
}

// NewTimeoutAdvice creates the layer.
func NewTimeoutAdvice(opts ...Option) *TimeoutAdvice {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &TimeoutAdvice{cfg: cfg}
}

// Extend implements Extension.
func (e *TimeoutAdvice) Extend(inner Streaming) Streaming {
	return &timeoutAdviceLayer{
		Streaming: inner,
		log:       e.cfg.logger,
		metrics:   e.cfg.metrics,
	}
}

type timeoutAdviceLayer struct {
	Streaming
	log     Logger
	metrics *MetricsCollector
}

func (l *timeoutAdviceLayer) Messages(ctx context.Context) <-chan Message {
	in := l.Streaming.Messages(ctx)
	out := make(chan Message)
	go func() {
		defer close(out)
		for m := range in {
			if m.Channel == MetaConnect && m.Advice != nil && m.Advice.Timeout > 0 {
				d := time.Duration(m.Advice.Timeout) * time.Millisecond
				l.Session().SetTimeout(d)
				l.metrics.RecordTimeoutAdvice(d)
				l.log.Debug("timeout advice applied", "timeout", d)
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
