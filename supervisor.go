package sfstream

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Supervisor launches named fire-and-forget background tasks. Tasks run
// concurrently with the frame-producing path and are never awaited by it:
// failures and panics are caught, logged and counted, never propagated to the
// stream consumer. Wait blocks until every launched task has returned, which
// layers use on Stop and tests use for determinism.
type Supervisor struct {
	log     Logger
	metrics *MetricsCollector
	wg      sync.WaitGroup
}

// NewSupervisor creates a supervisor logging task failures to the given
// logger.
func NewSupervisor(log Logger, metrics *MetricsCollector) *Supervisor {
	if log == nil {
		log = noopLogger{}
	}
	return &Supervisor{log: log, metrics: metrics}
}

// Go runs fn on its own goroutine. The name identifies the task in logs and
// metrics; each invocation additionally gets a unique id.
func (s *Supervisor) Go(ctx context.Context, name string, fn func(context.Context) error) {
	id := uuid.NewString()
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				s.log.Error("background task panicked", "task", name, "id", id, "panic", r)
				s.metrics.RecordTaskFailure(name)
			}
		}()
		if err := fn(ctx); err != nil {
			s.log.Error("background task failed", "task", name, "id", id, "error", err)
			s.metrics.RecordTaskFailure(name)
		}
	}()
}

// Wait blocks until all launched tasks have returned.
func (s *Supervisor) Wait() {
	s.wg.Wait()
}
