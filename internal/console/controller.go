package console

import (
	"context"
	"encoding/base64"
	"strings"
	"sync"
	"time"

	"github.com/matheus3301/botdesk/internal/backend"
	"github.com/matheus3301/botdesk/internal/command"
	"github.com/matheus3301/botdesk/internal/store"
	"github.com/matheus3301/botdesk/internal/voice"
	"go.uber.org/zap"
)

// Operator-facing messages.
const (
	MsgControlRequired = "Activate control to send messages"
	MsgSelectFirst     = "Select a conversation first"
	MsgLiveLost        = "Live updates lost. Reload the console."
	MsgLiveRestored    = "Live updates restored"
	MsgLiveInterrupted = "Live updates interrupted, reconnecting…"
	MsgAudioMissing    = "Audio unavailable for this message"
)

// Options tunes the controller.
type Options struct {
	QuickReplies  []string
	TypingTimeout time.Duration
	// Releaser frees audio handles of live messages that were not kept.
	Releaser store.Releaser
}

// Controller turns operator commands and live events into backend calls and
// store updates. Network work runs on background goroutines; Dispatch never
// blocks the caller.
type Controller struct {
	store    *store.Store
	backend  Backend
	mapper   *backend.Mapper
	recorder Recorder
	player   Player
	notifier Notifier
	toast    Toaster
	opts     Options
	logger   *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// recMu serializes recorder calls so a stop or cancel issued while the
	// encoder is still starting applies to that encoder.
	recMu sync.Mutex

	mu            sync.Mutex
	recordingFor  string
	recGen        int
	recAbort      context.CancelFunc
	typingTimers  map[string]*typingTimer
	everConnected bool
	exhausted     bool
}

// New creates a controller and registers its recorder and player callbacks.
func New(
	st *store.Store,
	be Backend,
	mapper *backend.Mapper,
	recorder Recorder,
	player Player,
	notifier Notifier,
	toast Toaster,
	opts Options,
	logger *zap.Logger,
) *Controller {
	if opts.TypingTimeout <= 0 {
		opts.TypingTimeout = 4 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		store:        st,
		backend:      be,
		mapper:       mapper,
		recorder:     recorder,
		player:       player,
		notifier:     notifier,
		toast:        toast,
		opts:         opts,
		logger:       logger,
		ctx:          ctx,
		cancel:       cancel,
		typingTimers: make(map[string]*typingTimer),
	}
	if recorder != nil {
		recorder.OnLimit(c.recordingLimitReached)
	}
	if player != nil {
		player.OnChange(st.SetPlaying)
	}
	return c
}

// QuickReplies returns the configured quick reply texts.
func (c *Controller) QuickReplies() []string {
	return c.opts.QuickReplies
}

// Dispatch executes a command.
func (c *Controller) Dispatch(cmd command.Command) {
	c.logger.Debug("dispatch", zap.String("command", cmd.Name()))
	switch cmd := cmd.(type) {
	case command.Refresh:
		c.async(c.refresh)
	case command.SelectConversation:
		c.selectConversation(cmd.ID)
	case command.SetSearch:
		c.store.SetSearchQuery(cmd.Query)
	case command.SetFilter:
		c.store.SetFilter(cmd.Filter)
	case command.CycleFilter:
		c.store.SetFilter(c.store.GetState().Filter.Next())
	case command.SetManualMode:
		c.setManualMode(cmd.On)
	case command.ToggleManualMode:
		c.setManualMode(!c.store.GetState().ManualMode)
	case command.SendText:
		c.sendText(cmd.Text)
	case command.SendQuickReply:
		if cmd.Index < 0 || cmd.Index >= len(c.opts.QuickReplies) {
			c.toast.Warn("No quick reply at that position")
			return
		}
		c.sendText(c.opts.QuickReplies[cmd.Index])
	case command.StartRecording:
		c.startRecording()
	case command.StopRecording:
		c.stopRecording()
	case command.CancelRecording:
		c.cancelRecording()
	case command.PlayAudio:
		c.playAudio(cmd.MessageID)
	case command.StopAudio:
		if c.player != nil {
			c.player.Stop()
		}
	default:
		c.logger.Warn("unhandled command", zap.String("command", cmd.Name()))
	}
}

// Load performs the initial conversation fetch.
func (c *Controller) Load() {
	c.async(c.refresh)
}

// Wait blocks until all background work started so far has finished.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// Close cancels in-flight requests, any recording, playback and typing timers.
func (c *Controller) Close() {
	c.cancel()
	c.clearRecording()
	c.mu.Lock()
	for id, t := range c.typingTimers {
		t.timer.Stop()
		delete(c.typingTimers, id)
	}
	c.mu.Unlock()
	c.wg.Wait()
	if c.recorder != nil {
		c.recorder.Cancel()
	}
	if c.player != nil {
		c.player.Stop()
	}
}

func (c *Controller) async(fn func()) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		fn()
	}()
}

func (c *Controller) refresh() {
	c.store.SetLoading(true)
	convs, err := c.backend.FetchConversations(c.ctx)
	c.store.SetLoading(false)
	if err != nil {
		c.logger.Warn("fetch conversations failed", zap.Error(err))
		c.toast.Error(backend.Describe(err))
		return
	}
	c.store.ReplaceFetched(convs)
	c.logger.Info("conversations loaded", zap.Int("count", len(convs)))
}

// fetchInfo reloads one conversation and merges it into the store.
func (c *Controller) fetchInfo(phone string) {
	conv, err := c.backend.FetchConversationInfo(c.ctx, phone)
	if err != nil {
		c.logger.Warn("fetch conversation info failed", zap.String("phone", phone), zap.Error(err))
		return
	}
	c.store.MergeFetched(conv)
}

func (c *Controller) selectConversation(id string) {
	if !c.store.SetActiveConversation(id) {
		return
	}
	if id != "" {
		c.async(func() { c.fetchInfo(id) })
	}
}

func (c *Controller) setManualMode(on bool) {
	c.store.SetManualMode(on)
	if on {
		c.toast.Info("You are in control of this conversation")
	} else {
		c.toast.Info("Assistant back in control")
	}
}

// sendTarget returns the active conversation's phone when sending is allowed,
// toasting the reason otherwise.
func (c *Controller) sendTarget() (string, bool) {
	st := c.store.GetState()
	if !st.ManualMode {
		c.toast.Warn(MsgControlRequired)
		return "", false
	}
	conv, ok := st.Active()
	if !ok {
		c.toast.Warn(MsgSelectFirst)
		return "", false
	}
	return conv.Phone, true
}

func (c *Controller) sendText(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	phone, ok := c.sendTarget()
	if !ok {
		return
	}
	c.async(func() {
		if err := c.backend.SendIntervention(c.ctx, phone, text); err != nil {
			c.logger.Warn("send failed", zap.String("phone", phone), zap.Error(err))
			c.toast.Error(backend.Describe(err))
			return
		}
		c.fetchInfo(phone)
	})
}

func (c *Controller) startRecording() {
	if c.recorder == nil {
		c.toast.Error(voice.Describe(voice.ErrNoDevice))
		return
	}
	phone, ok := c.sendTarget()
	if !ok {
		return
	}
	c.mu.Lock()
	if c.recordingFor != "" {
		c.mu.Unlock()
		c.toast.Warn(voice.Describe(voice.ErrBusy))
		return
	}
	c.recordingFor = phone
	c.recGen++
	gen := c.recGen
	ctx, abort := context.WithCancel(c.ctx)
	c.recAbort = abort
	c.mu.Unlock()

	c.store.SetRecording(true)
	c.async(func() {
		defer abort()
		c.recMu.Lock()
		defer c.recMu.Unlock()
		if !c.recordingLive(gen) {
			return
		}
		if err := c.recorder.Start(ctx); err != nil {
			if !c.recordingLive(gen) {
				c.logger.Debug("recording start abandoned", zap.Error(err))
				return
			}
			c.logger.Warn("recording failed to start", zap.Error(err))
			c.clearRecording()
			c.toast.Error(voice.Describe(err))
		}
	})
}

// recordingLive reports whether the recording session gen is still running.
func (c *Controller) recordingLive(gen int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.recordingFor != "" && c.recGen == gen
}

func (c *Controller) stopRecording() {
	phone := c.clearRecording()
	if phone == "" || c.recorder == nil {
		return
	}
	c.async(func() {
		c.recMu.Lock()
		clip, err := c.recorder.Stop()
		c.recMu.Unlock()
		c.deliverClip(phone, clip, err)
	})
}

func (c *Controller) cancelRecording() {
	c.mu.Lock()
	abort := c.recAbort
	c.mu.Unlock()
	if c.clearRecording() == "" || c.recorder == nil {
		return
	}
	if abort != nil {
		// Interrupts an encoder that is still inside its startup check.
		abort()
	}
	c.async(func() {
		c.recMu.Lock()
		defer c.recMu.Unlock()
		c.recorder.Cancel()
	})
	c.toast.Info("Recording discarded")
}

func (c *Controller) recordingLimitReached(clip voice.Clip, err error) {
	phone := c.clearRecording()
	if phone == "" {
		return
	}
	c.toast.Info("Recording limit reached, sending")
	c.deliverClip(phone, clip, err)
}

// clearRecording ends the recording session and returns the phone it was
// for, or "" when none was running.
func (c *Controller) clearRecording() string {
	c.mu.Lock()
	phone := c.recordingFor
	c.recordingFor = ""
	c.recAbort = nil
	c.mu.Unlock()
	if phone != "" {
		c.store.SetRecording(false)
	}
	return phone
}

func (c *Controller) deliverClip(phone string, clip voice.Clip, err error) {
	if err != nil {
		c.logger.Warn("recording failed", zap.Error(err))
		c.toast.Error(voice.Describe(err))
		return
	}
	payload := base64.StdEncoding.EncodeToString(clip.Data)
	if err := c.backend.SendVoiceMessage(c.ctx, phone, payload); err != nil {
		c.logger.Warn("voice send failed", zap.String("phone", phone), zap.Error(err))
		c.toast.Error(backend.Describe(err))
		return
	}
	c.toast.Info("Voice message sent")
	c.fetchInfo(phone)
}

func (c *Controller) playAudio(messageID int64) {
	conv, ok := c.store.GetState().Active()
	if !ok || c.player == nil {
		return
	}
	for _, m := range conv.Messages {
		if m.ID != messageID || !m.IsAudio {
			continue
		}
		if m.Audio == nil {
			c.toast.Warn(MsgAudioMissing)
			return
		}
		if _, err := c.player.Toggle(m.Audio); err != nil {
			c.toast.Error(voice.Describe(err))
		}
		return
	}
}
