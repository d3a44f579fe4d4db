package voice

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/matheus3301/botdesk/internal/media"
	"go.uber.org/zap"
)

func requireShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell-based fake encoder")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

// fakeEncoder writes an Ogg header to the output path ($0) and runs until
// interrupted.
var fakeEncoder = []string{"sh", "-c", `trap 'exit 0' INT TERM; printf 'OggS-fake-clip' > "$0"; while :; do sleep 0.02; done`}

func newTestRecorder(t *testing.T, cmd []string) *Recorder {
	return NewRecorder(RecorderOptions{
		Command:      cmd,
		Limit:        time.Minute,
		Dir:          t.TempDir(),
		StartupGrace: 50 * time.Millisecond,
		StopTimeout:  2 * time.Second,
	}, zap.NewNop())
}

func TestRecorderStartStop(t *testing.T) {
	requireShell(t)
	r := newTestRecorder(t, fakeEncoder)

	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !r.Recording() {
		t.Fatal("Recording() = false after Start")
	}
	if err := r.Start(context.Background()); !errors.Is(err, ErrBusy) {
		t.Errorf("second Start() err = %v, want ErrBusy", err)
	}

	clip, err := r.Stop()
	if err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if string(clip.Data) != "OggS-fake-clip" {
		t.Errorf("clip data = %q", clip.Data)
	}
	if clip.Format != media.FormatOgg {
		t.Errorf("clip format = %v, want ogg", clip.Format)
	}
	if r.Recording() {
		t.Error("Recording() = true after Stop")
	}
	entries, _ := os.ReadDir(r.opts.Dir)
	if len(entries) != 0 {
		t.Errorf("temp files left behind: %d", len(entries))
	}
}

func TestRecorderCancelDiscards(t *testing.T) {
	requireShell(t)
	r := newTestRecorder(t, fakeEncoder)
	if err := r.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	r.Cancel()
	if r.Recording() {
		t.Error("still recording after Cancel")
	}
	entries, _ := os.ReadDir(r.opts.Dir)
	if len(entries) != 0 {
		t.Errorf("temp files left behind: %d", len(entries))
	}
	if _, err := r.Stop(); !errors.Is(err, ErrNotRecording) {
		t.Errorf("Stop() after Cancel err = %v, want ErrNotRecording", err)
	}
}

func TestRecorderLimitHandsOffClip(t *testing.T) {
	requireShell(t)
	r := newTestRecorder(t, fakeEncoder)
	r.opts.Limit = 100 * time.Millisecond

	got := make(chan Clip, 1)
	r.OnLimit(func(c Clip, err error) {
		if err != nil {
			t.Errorf("limit clip err = %v", err)
		}
		got <- c
	})
	if err := r.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	select {
	case c := <-got:
		if len(c.Data) == 0 {
			t.Error("empty clip at limit")
		}
	case <-time.After(3 * time.Second):
		t.Fatal("limit callback not called")
	}
	if r.Recording() {
		t.Error("still recording after limit")
	}
}

func TestRecorderFailures(t *testing.T) {
	requireShell(t)
	tests := []struct {
		name string
		cmd  []string
		want error
	}{
		{"missing binary", []string{"botdesk-no-such-encoder"}, ErrNoDevice},
		{"permission", []string{"sh", "-c", `echo "audio open failed: Permission denied" >&2; exit 1`}, ErrPermissionDenied},
		{"no device", []string{"sh", "-c", `echo "default: No such device" >&2; exit 1`}, ErrNoDevice},
		{"other", []string{"sh", "-c", `echo "codec exploded" >&2; exit 1`}, ErrCapture},
		{"empty command", nil, ErrNoDevice},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRecorder(t, tt.cmd)
			r.opts.StartupGrace = time.Second
			err := r.Start(context.Background())
			if !errors.Is(err, tt.want) {
				t.Fatalf("Start() err = %v, want %v", err, tt.want)
			}
			if r.Recording() {
				t.Error("Recording() = true after failed start")
			}
		})
	}
}

func TestDescribeDistinct(t *testing.T) {
	seen := map[string]error{}
	for _, err := range []error{ErrPermissionDenied, ErrNoDevice, ErrCapture} {
		msg := Describe(err)
		if prev, ok := seen[msg]; ok {
			t.Errorf("%v and %v share message %q", prev, err, msg)
		}
		seen[msg] = err
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		stderr string
		want   error
	}{
		{"[pulse] Operation not permitted", ErrPermissionDenied},
		{"Cannot open audio device hw:0", ErrNoDevice},
		{"anything else", ErrCapture},
	}
	for _, tt := range tests {
		if got := classify(tt.stderr); got != tt.want {
			t.Errorf("classify(%q) = %v, want %v", tt.stderr, got, tt.want)
		}
	}
}

var slowPlayer = []string{"sh", "-c", `sleep 5`}

func testHandle(t *testing.T, id string) *media.Handle {
	path := filepath.Join(t.TempDir(), id+".ogg")
	if err := os.WriteFile(path, []byte("OggS"), 0600); err != nil {
		t.Fatal(err)
	}
	return &media.Handle{ID: id, Path: path, Format: media.FormatOgg}
}

func TestPlayerSingleConcurrent(t *testing.T) {
	requireShell(t)
	p := NewPlayer(slowPlayer, zap.NewNop())
	defer p.Stop()

	var mu sync.Mutex
	var changes []string
	p.OnChange(func(id string) {
		mu.Lock()
		changes = append(changes, id)
		mu.Unlock()
	})

	a, b := testHandle(t, "a"), testHandle(t, "b")
	if err := p.Play(a); err != nil {
		t.Fatalf("Play(a) error = %v", err)
	}
	if p.Playing() != "a" {
		t.Fatalf("Playing() = %q, want a", p.Playing())
	}
	if err := p.Play(b); err != nil {
		t.Fatalf("Play(b) error = %v", err)
	}
	if p.Playing() != "b" {
		t.Errorf("Playing() = %q, want b", p.Playing())
	}

	playing, err := p.Toggle(b)
	if err != nil || playing {
		t.Errorf("Toggle(b) = %v, %v; want stopped", playing, err)
	}
	if p.Playing() != "" {
		t.Errorf("Playing() = %q after toggle off", p.Playing())
	}

	mu.Lock()
	defer mu.Unlock()
	if len(changes) == 0 || changes[len(changes)-1] != "" {
		t.Errorf("changes = %v, want to end with stop", changes)
	}
}

func TestPlayerErrors(t *testing.T) {
	p := NewPlayer([]string{"botdesk-no-such-player"}, zap.NewNop())
	if err := p.Play(&media.Handle{ID: "x", Path: "/tmp/x"}); !errors.Is(err, ErrNoPlayer) {
		t.Errorf("Play() err = %v, want ErrNoPlayer", err)
	}
	if err := p.Play(nil); !errors.Is(err, ErrNoPlayer) {
		t.Errorf("Play(nil) err = %v, want ErrNoPlayer", err)
	}
	p.Stop()
}
