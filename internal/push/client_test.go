package push

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/matheus3301/botdesk/internal/status"
	"go.uber.org/zap"
)

// failingDialer refuses every dial.
type failingDialer struct {
	dials atomic.Int32
}

func (d *failingDialer) Dial(ctx context.Context, url string) (Conn, error) {
	d.dials.Add(1)
	return nil, errors.New("connection refused")
}

// fakeConn plays back server frames from a channel.
type fakeConn struct {
	in     chan string
	mu     sync.Mutex
	out    []string
	closed chan struct{}
	once   sync.Once
}

func newFakeConn(frames ...string) *fakeConn {
	c := &fakeConn{in: make(chan string, 16), closed: make(chan struct{})}
	for _, f := range frames {
		c.in <- f
	}
	return c
}

func (c *fakeConn) Read(ctx context.Context) (string, error) {
	select {
	case f, ok := <-c.in:
		if !ok {
			return "", errors.New("eof")
		}
		return f, nil
	case <-c.closed:
		return "", errors.New("closed")
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (c *fakeConn) Write(ctx context.Context, frame string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.out = append(c.out, frame)
	return nil
}

func (c *fakeConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) written() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.out...)
}

// scriptedDialer hands out the next scripted connection, or fails when the
// script runs out.
type scriptedDialer struct {
	mu    sync.Mutex
	conns []*fakeConn
	dials int
}

func (d *scriptedDialer) Dial(ctx context.Context, url string) (Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dials++
	if len(d.conns) == 0 {
		return nil, errors.New("connection refused")
	}
	c := d.conns[0]
	d.conns = d.conns[1:]
	return c, nil
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func testOptions() Options {
	return Options{
		BaseURL:        "http://backend.test",
		ReconnectDelay: time.Millisecond,
		MaxAttempts:    5,
	}
}

func TestRetriesExhaustedFiresOnce(t *testing.T) {
	dialer := &failingDialer{}
	var exhausted atomic.Int32
	var gotErr atomic.Value
	m := status.NewMachine(nil)

	c := NewClient(testOptions(), dialer, Handlers{
		OnExhausted: func(err error) {
			exhausted.Add(1)
			gotErr.Store(err)
		},
	}, m, zap.NewNop())
	c.Start(context.Background())
	defer c.Close()

	waitFor(t, "exhaustion", func() bool { return exhausted.Load() == 1 })
	time.Sleep(20 * time.Millisecond)

	if n := exhausted.Load(); n != 1 {
		t.Errorf("OnExhausted called %d times, want 1", n)
	}
	if n := dialer.dials.Load(); n != 6 {
		t.Errorf("dials = %d, want 6 (initial + 5 retries)", n)
	}
	if err, _ := gotErr.Load().(error); !errors.Is(err, ErrRetriesExhausted) {
		t.Errorf("exhausted err = %v", err)
	}
	if m.Current() != status.Failed {
		t.Errorf("state = %s, want FAILED", m.Current())
	}
}

func TestSuccessfulConnectResetsAttempts(t *testing.T) {
	// Two failures, then a connection that delivers one event and drops.
	live := newFakeConn(`0{"sid":"s"}`, `40{"sid":"n"}`, `42["recibedMessage",{"number":"5511"}]`)
	failFirst := &flakyDialer{fail: 2, next: &scriptedDialer{conns: []*fakeConn{live}}}

	var connects, disconnects atomic.Int32
	var events atomic.Int32
	c := NewClient(testOptions(), failFirst, Handlers{
		OnConnect:       func() { connects.Add(1) },
		OnDisconnect:    func(error) { disconnects.Add(1) },
		OnClientMessage: func(json.RawMessage) { events.Add(1) },
	}, status.NewMachine(nil), zap.NewNop())
	c.Start(context.Background())
	defer c.Close()

	waitFor(t, "connect", func() bool { return connects.Load() == 1 })
	waitFor(t, "event", func() bool { return events.Load() == 1 })
	if got := c.Attempts(); got != 0 {
		t.Errorf("attempts after connect = %d, want 0", got)
	}
	if got := live.written(); len(got) == 0 || got[0] != connectFrame {
		t.Errorf("client frames = %v, want namespace connect first", got)
	}

	close(live.in)
	waitFor(t, "disconnect", func() bool { return disconnects.Load() == 1 })
}

// flakyDialer fails the first n dials before delegating.
type flakyDialer struct {
	mu   sync.Mutex
	fail int
	next Dialer
}

func (d *flakyDialer) Dial(ctx context.Context, url string) (Conn, error) {
	d.mu.Lock()
	if d.fail > 0 {
		d.fail--
		d.mu.Unlock()
		return nil, errors.New("connection refused")
	}
	d.mu.Unlock()
	return d.next.Dial(ctx, url)
}

func TestEmitWhileDisconnected(t *testing.T) {
	c := NewClient(testOptions(), &failingDialer{}, Handlers{}, nil, zap.NewNop())
	if c.Emit("anything", nil) {
		t.Error("Emit returned true while disconnected")
	}
}

func TestPingIsAnswered(t *testing.T) {
	conn := newFakeConn(`0{"sid":"s"}`, `40`, "2")
	c := NewClient(testOptions(), &scriptedDialer{conns: []*fakeConn{conn}}, Handlers{}, nil, zap.NewNop())
	c.Start(context.Background())
	defer c.Close()

	waitFor(t, "pong", func() bool {
		for _, f := range conn.written() {
			if f == pongFrame {
				return true
			}
		}
		return false
	})
	if !c.Emit("hello", map[string]int{"n": 1}) {
		t.Error("Emit returned false while connected")
	}
}

func TestConnectErrorCountsAsFailedAttempt(t *testing.T) {
	refused := newFakeConn(`0{"sid":"s"}`, `44{"message":"unauthorized"}`)
	dialer := &scriptedDialer{conns: []*fakeConn{refused}}
	opts := testOptions()
	opts.MaxAttempts = 0

	var exhausted atomic.Int32
	c := NewClient(opts, dialer, Handlers{OnExhausted: func(error) { exhausted.Add(1) }}, nil, zap.NewNop())
	c.Start(context.Background())
	defer c.Close()

	waitFor(t, "exhaustion", func() bool { return exhausted.Load() == 1 })
}

func TestWebSocketRoundTrip(t *testing.T) {
	received := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/socket.io/" || r.URL.Query().Get("EIO") != "4" {
			http.NotFound(w, r)
			return
		}
		ws, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer ws.CloseNow()
		ctx := r.Context()
		_ = ws.Write(ctx, websocket.MessageText, []byte(`0{"sid":"s","pingInterval":25000,"pingTimeout":20000}`))
		if _, msg, err := ws.Read(ctx); err != nil || string(msg) != "40" {
			return
		}
		_ = ws.Write(ctx, websocket.MessageText, []byte(`40{"sid":"n"}`))
		_ = ws.Write(ctx, websocket.MessageText, []byte(`42["IAsendMessage",{"number":"5511","message":"hi"}]`))
		<-ctx.Done()
	}))
	defer srv.Close()

	opts := testOptions()
	opts.BaseURL = srv.URL
	c := NewClient(opts, WebSocketDialer{}, Handlers{
		OnAIMessage: func(data json.RawMessage) { received <- string(data) },
	}, status.NewMachine(nil), zap.NewNop())
	c.Start(context.Background())
	defer c.Close()

	select {
	case got := <-received:
		if got != `{"number":"5511","message":"hi"}` {
			t.Errorf("payload = %s", got)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no event received over websocket")
	}
}
