package voice

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/matheus3301/botdesk/internal/media"
	"go.uber.org/zap"
)

// Clip is a finished recording.
type Clip struct {
	Data     []byte
	Format   media.Format
	Duration time.Duration
}

// RecorderOptions configures a Recorder.
type RecorderOptions struct {
	// Command is the encoder argv; the output file path is appended.
	Command []string
	// Limit is the hard duration ceiling.
	Limit time.Duration
	// Dir receives the temporary output file.
	Dir string
	// StartupGrace is how long Start waits to catch an encoder that fails
	// immediately (missing device, denied permission).
	StartupGrace time.Duration
	// StopTimeout bounds how long Stop waits for the encoder to finalize
	// before killing it.
	StopTimeout time.Duration
}

// Recorder captures microphone audio through an external encoder process.
// Only one recording runs at a time.
type Recorder struct {
	opts   RecorderOptions
	logger *zap.Logger

	mu      sync.Mutex
	active  *recording
	onLimit func(Clip, error)
}

type recording struct {
	cmd     *exec.Cmd
	path    string
	started time.Time
	stderr  *syncBuffer
	done    chan struct{}
	waitErr error
	timer   *time.Timer
}

// NewRecorder creates a Recorder.
func NewRecorder(opts RecorderOptions, logger *zap.Logger) *Recorder {
	if opts.Limit <= 0 {
		opts.Limit = 5 * time.Minute
	}
	if opts.Dir == "" {
		opts.Dir = os.TempDir()
	}
	if opts.StartupGrace <= 0 {
		opts.StartupGrace = 300 * time.Millisecond
	}
	if opts.StopTimeout <= 0 {
		opts.StopTimeout = 5 * time.Second
	}
	return &Recorder{opts: opts, logger: logger}
}

// OnLimit registers the callback that receives the clip when the duration
// ceiling ends a recording.
func (r *Recorder) OnLimit(fn func(Clip, error)) {
	r.mu.Lock()
	r.onLimit = fn
	r.mu.Unlock()
}

// Recording reports whether capture is in progress.
func (r *Recorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active != nil
}

// Elapsed returns the current recording's duration, or zero.
func (r *Recorder) Elapsed() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active == nil {
		return 0
	}
	return time.Since(r.active.started)
}

// Limit returns the duration ceiling.
func (r *Recorder) Limit() time.Duration { return r.opts.Limit }

// Start launches the encoder. The process is not bound to ctx beyond startup.
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active != nil {
		return ErrBusy
	}
	if len(r.opts.Command) == 0 {
		return fmt.Errorf("%w: no recorder command configured", ErrNoDevice)
	}
	bin, err := exec.LookPath(r.opts.Command[0])
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNoDevice, err)
	}
	if err := os.MkdirAll(r.opts.Dir, 0700); err != nil {
		return fmt.Errorf("%w: %v", ErrCapture, err)
	}

	path := filepath.Join(r.opts.Dir, "rec-"+uuid.NewString()+media.FormatOgg.Ext())
	args := append(append([]string(nil), r.opts.Command[1:]...), path)
	cmd := exec.Command(bin, args...)
	stderr := &syncBuffer{}
	cmd.Stderr = stderr
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: %v", classify(err.Error()), err)
	}

	rec := &recording{
		cmd:     cmd,
		path:    path,
		started: time.Now(),
		stderr:  stderr,
		done:    make(chan struct{}),
	}
	go func() {
		rec.waitErr = cmd.Wait()
		close(rec.done)
	}()

	select {
	case <-rec.done:
		_ = os.Remove(path)
		return fmt.Errorf("%w: %s", classify(stderr.String()), strings.TrimSpace(stderr.String()))
	case <-ctx.Done():
		_ = cmd.Process.Kill()
		<-rec.done
		_ = os.Remove(path)
		return ctx.Err()
	case <-time.After(r.opts.StartupGrace):
	}

	rec.timer = time.AfterFunc(r.opts.Limit, func() { r.limitReached(rec) })
	r.active = rec
	r.logger.Info("recording started", zap.String("path", path))
	return nil
}

// Stop finalizes the recording and returns the encoded clip.
func (r *Recorder) Stop() (Clip, error) {
	rec, err := r.take(nil)
	if err != nil {
		return Clip{}, err
	}
	return r.finish(rec)
}

// Cancel kills the encoder and discards the output.
func (r *Recorder) Cancel() {
	rec, err := r.take(nil)
	if err != nil {
		return
	}
	_ = rec.cmd.Process.Kill()
	<-rec.done
	_ = os.Remove(rec.path)
	r.logger.Info("recording cancelled")
}

func (r *Recorder) limitReached(rec *recording) {
	if _, err := r.take(rec); err != nil {
		return
	}
	clip, err := r.finish(rec)
	r.logger.Info("recording reached duration limit", zap.Duration("limit", r.opts.Limit))
	r.mu.Lock()
	fn := r.onLimit
	r.mu.Unlock()
	if fn != nil {
		fn(clip, err)
	}
}

// take detaches the active recording. With want set, it only detaches that
// specific recording.
func (r *Recorder) take(want *recording) (*recording, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec := r.active
	if rec == nil || (want != nil && rec != want) {
		return nil, ErrNotRecording
	}
	r.active = nil
	rec.timer.Stop()
	return rec, nil
}

func (r *Recorder) finish(rec *recording) (Clip, error) {
	defer os.Remove(rec.path)

	duration := time.Since(rec.started)
	select {
	case <-rec.done:
		// Exited on its own before Stop.
		if rec.waitErr != nil {
			return Clip{}, fmt.Errorf("%w: %s", classify(rec.stderr.String()), strings.TrimSpace(rec.stderr.String()))
		}
	default:
		interrupt(rec.cmd)
		select {
		case <-rec.done:
		case <-time.After(r.opts.StopTimeout):
			r.logger.Warn("recorder did not finalize in time, killing")
			_ = rec.cmd.Process.Kill()
			<-rec.done
		}
	}

	data, err := os.ReadFile(rec.path)
	if err != nil {
		return Clip{}, fmt.Errorf("%w: %v", ErrCapture, err)
	}
	if len(data) == 0 {
		return Clip{}, ErrEmptyClip
	}
	r.logger.Info("recording finished", zap.Int("bytes", len(data)), zap.Duration("duration", duration))
	return Clip{Data: data, Format: media.Sniff(data), Duration: duration}, nil
}

// Close cancels any recording in progress.
func (r *Recorder) Close() {
	r.Cancel()
}

// interrupt asks the encoder to finalize its output. ffmpeg writes the
// container trailer on SIGINT.
func interrupt(cmd *exec.Cmd) {
	if runtime.GOOS == "windows" {
		_ = cmd.Process.Kill()
		return
	}
	if err := cmd.Process.Signal(os.Interrupt); err != nil && !errors.Is(err, os.ErrProcessDone) {
		_ = cmd.Process.Kill()
	}
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
