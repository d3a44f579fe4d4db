package voice

import (
	"fmt"
	"os/exec"
	"sync"

	"github.com/matheus3301/botdesk/internal/media"
	"go.uber.org/zap"
)

// Player plays audio handles through an external player. Starting a clip
// stops whatever was playing.
type Player struct {
	command []string
	logger  *zap.Logger

	mu       sync.Mutex
	current  *playback
	onChange func(playingID string)
}

type playback struct {
	id   string
	cmd  *exec.Cmd
	done chan struct{}
}

// NewPlayer creates a Player. command is the player argv; the file path is
// appended.
func NewPlayer(command []string, logger *zap.Logger) *Player {
	return &Player{command: command, logger: logger}
}

// OnChange registers a callback receiving the playing handle ID, or "" when
// playback ends. The callback must not call Stop, Play or Toggle.
func (p *Player) OnChange(fn func(playingID string)) {
	p.mu.Lock()
	p.onChange = fn
	p.mu.Unlock()
}

// Playing returns the ID of the handle being played, or "".
func (p *Player) Playing() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return ""
	}
	return p.current.id
}

// Play starts h, stopping any current playback first.
func (p *Player) Play(h *media.Handle) error {
	if h == nil {
		return fmt.Errorf("%w: no audio", ErrNoPlayer)
	}
	if len(p.command) == 0 {
		return ErrNoPlayer
	}
	bin, err := exec.LookPath(p.command[0])
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNoPlayer, err)
	}
	p.Stop()

	args := append(append([]string(nil), p.command[1:]...), h.Path)
	cmd := exec.Command(bin, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: %v", ErrNoPlayer, err)
	}
	pb := &playback{id: h.ID, cmd: cmd, done: make(chan struct{})}

	p.mu.Lock()
	p.current = pb
	fn := p.onChange
	p.mu.Unlock()
	if fn != nil {
		fn(pb.id)
	}

	go p.wait(pb)
	p.logger.Debug("playback started", zap.String("handle", h.ID), zap.String("format", h.Format.String()))
	return nil
}

// Toggle stops playback when h is the clip already playing, otherwise plays
// it. Returns whether h is playing afterwards.
func (p *Player) Toggle(h *media.Handle) (bool, error) {
	if h != nil && p.Playing() == h.ID {
		p.Stop()
		return false, nil
	}
	if err := p.Play(h); err != nil {
		return false, err
	}
	return true, nil
}

// Stop ends the current playback, if any, and waits for the process to exit.
func (p *Player) Stop() {
	p.mu.Lock()
	pb := p.current
	p.mu.Unlock()
	if pb == nil {
		return
	}
	_ = pb.cmd.Process.Kill()
	<-pb.done
}

func (p *Player) wait(pb *playback) {
	_ = pb.cmd.Wait()
	p.mu.Lock()
	ended := p.current == pb
	if ended {
		p.current = nil
	}
	fn := p.onChange
	p.mu.Unlock()
	if ended && fn != nil {
		fn("")
	}
	close(pb.done)
}
