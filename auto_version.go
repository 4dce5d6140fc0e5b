package sfstream

import (
	"context"
	"encoding/json"
)

// VersionDiscoveryPath is the fixed read-only resource listing available API
// versions, oldest first.
const VersionDiscoveryPath = "/services/data/"

// AutoVersion negotiates the API version before every handshake: it reads
// the discovery resource through the inner chain and adopts the last entry's
// version. Discovery failures are soft: the current session version is kept
// and the handshake proceeds regardless.
type AutoVersion struct {
	cfg config
}

// NewAutoVersion creates the layer.
func NewAutoVersion(opts ...Option) *AutoVersion {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &AutoVersion{cfg: cfg}
}

// Extend implements Extension.
func (e *AutoVersion) Extend(inner Streaming) Streaming {
	return &autoVersionLayer{
		Streaming: inner,
		log:       e.cfg.logger,
	}
}

type autoVersionLayer struct {
	Streaming
	log Logger
}

func (l *autoVersionLayer) Handshake(ctx context.Context) ([]Message, error) {
	if v, ok := l.discover(ctx); ok {
		l.Session().SetVersion(v)
	}
	l.log.Info("api version in use", "version", l.Session().Version())

	return l.Streaming.Handshake(ctx)
}

func (l *autoVersionLayer) discover(ctx context.Context) (string, bool) {
	raw, err := l.Get(ctx, VersionDiscoveryPath)
	if err != nil {
		l.log.Warn("version discovery failed", "error", err)
		return "", false
	}

	var entries []struct {
		Version string `json:"version"`
	}
	if err := json.Unmarshal(raw, &entries); err != nil {
		l.log.Warn("version discovery returned malformed response", "error", err)
		return "", false
	}
	if len(entries) == 0 || entries[len(entries)-1].Version == "" {
		return "", false
	}
	return entries[len(entries)-1].Version, true
}
