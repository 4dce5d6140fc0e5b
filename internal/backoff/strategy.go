// Package backoff provides pluggable delay strategies for retry loops.
package backoff

import (
	"math/rand"
	"time"
)

// Strategy computes the delay before the given retry attempt. Attempt
// numbering starts at zero for the first retry.
type Strategy interface {
	Delay(attempt int, base, max time.Duration) time.Duration
}

// Fixed waits the base duration between every attempt.
type Fixed struct{}

// Delay implements Strategy.
func (Fixed) Delay(_ int, base, _ time.Duration) time.Duration {
	return base
}

// ExponentialJitter doubles the base delay per attempt and adds uniform
// jitter, capped at max.
type ExponentialJitter struct {
	// Jitter is the fraction of the computed delay randomized on top of it,
	// clamped to [0, 1]. Zero disables jitter.
	Jitter float64
}

// Delay implements Strategy.
func (s ExponentialJitter) Delay(attempt int, base, max time.Duration) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	// Cap the shift to avoid overflow on pathological attempt counts.
	if attempt > 30 {
		attempt = 30
	}

	d := base << uint(attempt)
	if d < 0 || d > max {
		d = max
	}

	jitter := s.Jitter
	if jitter < 0 {
		jitter = 0
	}
	if jitter > 1 {
		jitter = 1
	}
	if jitter > 0 {
		extra := time.Duration(float64(d) * jitter * rand.Float64())
		if d+extra > max {
			d = max
		} else {
			d += extra
		}
	}
	return d
}
