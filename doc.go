// Package sfstream provides composable extension layers for a long-polling
// Bayeux/CometD streaming client:
//
//   - Timeout advice: mirror server connect advice into the session timeout
//   - Auto version: negotiate the newest API version before each handshake
//   - Replay: at-least-once event resume backed by a pluggable cursor store
//   - Auto reconnect: transparent re-handshake and resubscription on session loss
//   - Re-subscribe retry: congestion-aware subscribe retries
//
// Each behavior is an isolated Extension wrapping the Streaming contract;
// Compose assembles them into an explicit, ordered chain around a base
// client. Requests descend the chain outermost-first, inbound frames ascend
// it in reverse, and a layer may observe, mutate or swallow any frame.
//
// Typical usage:
//
//	store := sfstream.NewMemoryReplayStore()
//	base := sfstream.NewBayeuxClient(instanceURL, sfstream.StaticToken(token))
//	client := sfstream.Compose(base, sfstream.DefaultExtensions(store)...)
//
//	if err := client.Start(ctx); err != nil { ... }
//	if _, err := client.Handshake(ctx); err != nil { ... }
//	if _, err := client.Subscribe(ctx, "/topic/orders"); err != nil { ... }
//	for msg := range client.Messages(ctx) {
//	    // application frames and surviving protocol frames
//	}
//
// The library avoids opinionated logging: provide a Logger via WithLogger
// (NewSimpleLogger, or NewSlogLogger to bridge log/slog) and metrics via
// WithMetricsCollector when you want insight.
package sfstream
