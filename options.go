package sfstream

import (
	"net/http"
	"time"

	"github.com/papernest-public/sfstream/internal/backoff"
)

// Defaults applied by constructors unless overridden with options.
const (
	// DefaultVersion is the API version assumed before auto-negotiation.
	DefaultVersion = "42.0"
	// DefaultTimeout is the initial long-poll timeout, until the server
	// advises otherwise.
	DefaultTimeout = 120 * time.Second
	// DefaultRetryInterval is the pause between subscribe retries when the
	// server reports congestion.
	DefaultRetryInterval = 100 * time.Millisecond
)

type config struct {
	logger     Logger
	metrics    *MetricsCollector
	httpClient *http.Client
	version    string
	timeout    time.Duration

	retryInterval    time.Duration
	maxRetryInterval time.Duration
	maxAttempts      int
	retryStrategy    backoff.Strategy
}

func defaultConfig() config {
	return config{
		logger:           noopLogger{},
		httpClient:       &http.Client{},
		version:          DefaultVersion,
		timeout:          DefaultTimeout,
		retryInterval:    DefaultRetryInterval,
		maxRetryInterval: 30 * time.Second,
	}
}

// Option configures a constructor. Options that do not apply to a given
// component are ignored by it.
type Option func(*config)

// WithLogger sets the logger used by a component.
func WithLogger(l Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics enables Prometheus metrics on the default registerer.
func WithMetrics() Option {
	return func(c *config) {
		c.metrics = NewMetricsCollector()
	}
}

// WithMetricsCollector sets a custom metrics collector, typically one created
// with NewMetricsCollectorWithRegistry so several components share it.
func WithMetricsCollector(mc *MetricsCollector) Option {
	return func(c *config) {
		c.metrics = mc
	}
}

// WithHTTPClient sets the HTTP client used by the base client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *config) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithVersion sets the initial API version of the session.
func WithVersion(v string) Option {
	return func(c *config) {
		c.version = v
	}
}

// WithTimeout sets the initial long-poll timeout of the session.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		c.timeout = d
	}
}

// WithRetryInterval sets the pause between subscribe retries on server
// congestion.
func WithRetryInterval(d time.Duration) Option {
	return func(c *config) {
		c.retryInterval = d
	}
}

// WithMaxSubscribeAttempts bounds subscribe retries. Zero, the default,
// retries indefinitely, matching the protocol's advisory semantics; when the
// bound is reached ErrRetriesExhausted is returned alongside the last
// response.
func WithMaxSubscribeAttempts(n int) Option {
	return func(c *config) {
		c.maxAttempts = n
	}
}

// WithRetryBackoff grows the retry pause with the given strategy instead of
// keeping it fixed, capped at max.
func WithRetryBackoff(s backoff.Strategy, max time.Duration) Option {
	return func(c *config) {
		c.retryStrategy = s
		if max > 0 {
			c.maxRetryInterval = max
		}
	}
}
