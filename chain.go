package sfstream

// Extension is a cross-cutting behavior that can wrap a Streaming client.
// Extend binds the extension to the next inner layer and returns the wrapped
// client. Implementations embed the inner Streaming so every operation they
// do not override passes through unchanged.
type Extension interface {
	Extend(inner Streaming) Streaming
}

// Binder is implemented by chain elements that need a reference to the fully
// composed (outermost) client. The base client uses it to build request
// payloads through every layer's payload hooks, and the auto-reconnect layer
// uses it so a triggered handshake descends through the whole chain, exactly
// as a caller-initiated one would.
//
// Compose wires this up; elements used outside Compose fall back to
// themselves as the outermost reference.
type Binder interface {
	Bind(outer Streaming)
}

// Compose assembles an ordered layer chain around a base client. Extensions
// are listed outermost first: a request made on the returned client visits
// them in that order before reaching the base, and inbound frames traverse
// them in reverse. Compose with no extensions returns the base unchanged.
func Compose(base Streaming, exts ...Extension) Streaming {
	elements := make([]Streaming, 0, len(exts)+1)
	elements = append(elements, base)

	s := base
	for i := len(exts) - 1; i >= 0; i-- {
		s = exts[i].Extend(s)
		elements = append(elements, s)
	}

	for _, el := range elements {
		if b, ok := el.(Binder); ok {
			b.Bind(s)
		}
	}
	return s
}

// DefaultExtensions returns the canonical layer stack, outermost first:
// timeout advice, automatic version negotiation, event replay backed by the
// given store, session auto-reconnection and congestion-aware subscribe
// retry. The order matters: re-subscribe retry sits innermost so the
// reconnect layer's background resubscriptions get retry behavior for free.
func DefaultExtensions(store ReplayStore, opts ...Option) []Extension {
	return []Extension{
		NewTimeoutAdvice(opts...),
		NewAutoVersion(opts...),
		NewReplay(store, opts...),
		NewAutoReconnect(opts...),
		NewReSubscribe(opts...),
	}
}
