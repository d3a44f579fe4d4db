package console

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/matheus3301/botdesk/internal/backend"
	"github.com/matheus3301/botdesk/internal/bus"
	"github.com/matheus3301/botdesk/internal/push"
	"github.com/matheus3301/botdesk/internal/status"
	"github.com/matheus3301/botdesk/internal/store"
	"go.uber.org/zap"
)

// Wire type codes assumed when a live event omits `typo`.
const (
	codeClient   = 2
	codeAI       = 3
	codeOperator = 4
)

// PushHandlers returns push callbacks that publish every channel event on b.
// The push reader goroutine never touches the store directly.
func PushHandlers(b *bus.Bus) push.Handlers {
	publish := func(kind string) func(json.RawMessage) {
		return func(data json.RawMessage) { b.Publish(bus.NewEvent(kind, data)) }
	}
	return push.Handlers{
		OnConnect:             func() { b.Publish(bus.NewEvent(bus.KindConnected, nil)) },
		OnDisconnect:          func(err error) { b.Publish(bus.NewEvent(bus.KindDisconnected, err)) },
		OnExhausted:           func(err error) { b.Publish(bus.NewEvent(bus.KindExhausted, err)) },
		OnClientMessage:       publish(bus.KindClientMessage),
		OnAIMessage:           publish(bus.KindAIMessage),
		OnMessageSent:         publish(bus.KindMessageSent),
		OnConversationUpdated: publish(bus.KindConversationUpdated),
		OnUserTyping:          publish(bus.KindUserTyping),
	}
}

// StatusPublisher returns a status.Machine listener that publishes changes on b.
func StatusPublisher(b *bus.Bus) func(status.StatusChange) {
	return func(ch status.StatusChange) {
		b.Publish(bus.NewEvent(bus.KindStatusChanged, ch))
	}
}

// Listen consumes push and status events from b until ctx is cancelled or
// Close is called. Events are applied one at a time, in arrival order.
func (c *Controller) Listen(ctx context.Context, b *bus.Bus) {
	pushCh, unsubPush := b.Subscribe("push.", 512)
	statusCh, unsubStatus := b.Subscribe("status.", 64)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer unsubPush()
		defer unsubStatus()
		for {
			select {
			case evt := <-pushCh:
				c.HandleEvent(evt)
			case evt := <-statusCh:
				c.HandleEvent(evt)
			case <-ctx.Done():
				return
			case <-c.ctx.Done():
				return
			}
		}
	}()
}

// HandleEvent applies one bus event.
func (c *Controller) HandleEvent(evt bus.Event) {
	switch evt.Kind {
	case bus.KindStatusChanged:
		if ch, ok := evt.Payload.(status.StatusChange); ok {
			c.store.SetConnection(ch.To.Label())
		}
	case bus.KindConnected:
		c.mu.Lock()
		reconnect := c.everConnected
		c.everConnected = true
		c.mu.Unlock()
		if reconnect {
			c.toast.Info(MsgLiveRestored)
			// Events may have been missed while offline.
			c.async(c.refresh)
		}
	case bus.KindDisconnected:
		c.toast.Warn(MsgLiveInterrupted)
	case bus.KindExhausted:
		c.mu.Lock()
		first := !c.exhausted
		c.exhausted = true
		c.mu.Unlock()
		if first {
			c.toast.Error(MsgLiveLost)
		}
	case bus.KindClientMessage:
		c.liveMessage(evt.Payload, codeClient, true)
	case bus.KindAIMessage:
		c.liveMessage(evt.Payload, codeAI, false)
	case bus.KindMessageSent:
		c.liveMessage(evt.Payload, codeOperator, false)
	case bus.KindConversationUpdated:
		if number := c.liveNumber(evt.Payload); number != "" {
			c.async(func() { c.fetchInfo(number) })
		}
	case bus.KindUserTyping:
		if number := c.liveNumber(evt.Payload); number != "" {
			c.typing(number)
		}
	}
}

func (c *Controller) decodeLive(payload any) (backend.LiveMessage, bool) {
	var l backend.LiveMessage
	raw, ok := payload.(json.RawMessage)
	if !ok || len(raw) == 0 {
		return l, false
	}
	if err := json.Unmarshal(raw, &l); err != nil {
		c.logger.Warn("malformed live payload", zap.Error(err))
		return l, false
	}
	l.Number = strings.TrimSpace(l.Number)
	return l, l.Number != ""
}

func (c *Controller) liveNumber(payload any) string {
	l, ok := c.decodeLive(payload)
	if !ok {
		return ""
	}
	return l.Number
}

// liveMessage appends a pushed message, creating the conversation when the
// number is unknown. Client messages raise the unread counter and a desktop
// notification; echoes of outgoing messages already in the thread are skipped.
func (c *Controller) liveMessage(payload any, fallbackCode int, incoming bool) {
	l, ok := c.decodeLive(payload)
	if !ok {
		return
	}

	if _, i := c.store.GetState().Find(l.Number); i < 0 {
		// Attention is unknown until the backend record arrives.
		c.store.UpdateConversation(store.Conversation{
			ID:     l.Number,
			Name:   l.Number,
			Phone:  l.Number,
			Source: backend.DefaultSource,
			New:    true,
		})
		c.async(func() { c.fetchInfo(l.Number) })
	}

	msg := c.mapper.Live(l, int64(l.ID), fallbackCode)
	appended := c.store.AppendWith(l.Number, func(conv store.Conversation) (store.Message, bool) {
		if !incoming && duplicatesLast(conv, msg) {
			return store.Message{}, false
		}
		if msg.ID <= 0 {
			msg.ID = conv.MaxMessageID() + 1
		}
		return msg, true
	})
	if !appended {
		if msg.Audio != nil {
			// The handle never reached the store, so nothing else frees it.
			c.releaseOrphan(msg)
		}
		return
	}

	if !incoming {
		return
	}
	st := c.store.GetState()
	if st.ActiveID != l.Number {
		c.store.BumpUnread(l.Number)
	}
	conv, _ := st.Find(l.Number)
	if c.notifier != nil {
		name, text := conv.Name, msg.Text
		c.async(func() { _ = c.notifier.IncomingMessage(name, text) })
	}
}

// duplicatesLast reports whether m repeats the newest message of conv. Events
// carrying an ID are compared by ID; the content check is for ID-less echoes.
func duplicatesLast(conv store.Conversation, m store.Message) bool {
	last, ok := conv.LastMessage()
	if !ok {
		return false
	}
	if m.ID > 0 {
		return last.ID == m.ID
	}
	return last.Origin == m.Origin &&
		last.Text == m.Text &&
		last.IsAudio == m.IsAudio &&
		last.AudioBase64 == m.AudioBase64
}

func (c *Controller) releaseOrphan(m store.Message) {
	if c.opts.Releaser != nil {
		c.opts.Releaser.Release(m.Audio)
	}
}

// typing marks the conversation as typing and clears the flag once no
// further typing event arrives within the timeout.
func (c *Controller) typing(number string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.store.SetTyping(number, true) {
		return
	}
	if prev, ok := c.typingTimers[number]; ok {
		prev.timer.Stop()
	}
	entry := &typingTimer{}
	entry.timer = time.AfterFunc(c.opts.TypingTimeout, func() { c.typingExpired(number, entry) })
	c.typingTimers[number] = entry
}

// typingTimer is one armed typing timeout. A fresh one replaces it on every
// typing event, so a callback that fired late can tell it is stale.
type typingTimer struct {
	timer *time.Timer
}

func (c *Controller) typingExpired(number string, entry *typingTimer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.typingTimers[number] != entry {
		return
	}
	delete(c.typingTimers, number)
	c.store.SetTyping(number, false)
}
