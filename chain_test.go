package sfstream

import (
	"context"
	"testing"
)

// tagExtension records the traversal order of requests and stamps frames on
// their way up through the chain.
type tagExtension struct {
	name string
	log  *[]string
}

func (e *tagExtension) Extend(inner Streaming) Streaming {
	return &tagLayer{Streaming: inner, name: e.name, log: e.log}
}

type tagLayer struct {
	Streaming
	name string
	log  *[]string
}

func (l *tagLayer) Handshake(ctx context.Context) ([]Message, error) {
	*l.log = append(*l.log, l.name)
	return l.Streaming.Handshake(ctx)
}

func (l *tagLayer) Messages(ctx context.Context) <-chan Message {
	in := l.Streaming.Messages(ctx)
	out := make(chan Message)
	go func() {
		defer close(out)
		for m := range in {
			trace, _ := m.Ext["trace"].([]string)
			if m.Ext == nil {
				m.Ext = Ext{}
			}
			m.Ext["trace"] = append(trace, l.name)
			out <- m
		}
	}()
	return out
}

func TestComposeZeroLayersIsPassThrough(t *testing.T) {
	base := newFakeBase()

	client := Compose(base)
	if client != Streaming(base) {
		t.Fatal("Compose with no extensions should return the base unchanged")
	}
}

func TestComposeRequestOrderOutermostFirst(t *testing.T) {
	base := newFakeBase()
	var order []string

	client := Compose(base,
		&tagExtension{name: "outer", log: &order},
		&tagExtension{name: "inner", log: &order},
	)

	if _, err := client.Handshake(context.Background()); err != nil {
		t.Fatalf("handshake: %v", err)
	}

	if len(order) != 2 || order[0] != "outer" || order[1] != "inner" {
		t.Errorf("expected request order [outer inner], got %v", order)
	}
	if base.countCalls("handshake") != 1 {
		t.Errorf("expected 1 base handshake, got %d", base.countCalls("handshake"))
	}
}

func TestComposeStreamOrderInnermostFirst(t *testing.T) {
	base := newFakeBase()
	var order []string

	client := Compose(base,
		&tagExtension{name: "outer", log: &order},
		&tagExtension{name: "inner", log: &order},
	)

	out := client.Messages(context.Background())
	base.stream <- Message{Channel: "/topic/x"}

	m := receiveFrame(t, out)
	trace, _ := m.Ext["trace"].([]string)
	if len(trace) != 2 || trace[0] != "inner" || trace[1] != "outer" {
		t.Errorf("expected frame trace [inner outer], got %v", trace)
	}
	close(base.stream)
}

func TestComposeBindsOutermost(t *testing.T) {
	base := newFakeBase()
	var order []string

	client := Compose(base, &tagExtension{name: "outer", log: &order})

	if base.outer != client {
		t.Error("Compose should bind the base to the outermost layer")
	}
}

func TestComposePassThroughDelegation(t *testing.T) {
	base := newFakeBase()
	var order []string

	// tagExtension only overrides Handshake and Messages; everything else
	// must reach the base untouched.
	client := Compose(base, &tagExtension{name: "outer", log: &order})
	ctx := context.Background()

	if err := client.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := client.Subscribe(ctx, "/topic/x"); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if _, err := client.Unsubscribe(ctx, "/topic/x"); err != nil {
		t.Fatalf("unsubscribe: %v", err)
	}
	if err := client.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if client.Session() != base.session {
		t.Error("Session should pass through to the base")
	}

	want := []string{"start", "subscribe:/topic/x", "unsubscribe:/topic/x", "stop"}
	got := base.callLog()
	if len(got) != len(want) {
		t.Fatalf("expected calls %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected calls %v, got %v", want, got)
		}
	}
}
