package ui

import (
	"fmt"
	"sync"
	"time"

	"github.com/rivo/tview"
)

// FlashLevel represents the severity of a flash message.
type FlashLevel int

const (
	FlashInfo FlashLevel = iota
	FlashWarn
	FlashErr
)

// FlashMessage is a flash notification with a level and expiry.
type FlashMessage struct {
	Text    string
	Level   FlashLevel
	Expires time.Time
}

// FlashModel holds transient notification messages with levels. It is safe
// for use from any goroutine and never blocks the caller.
type FlashModel struct {
	mu      sync.RWMutex
	current FlashMessage
	base    time.Duration
	watchCh chan FlashMessage
}

// NewFlashModel creates a new flash model. Info messages last base; warnings
// and errors stay longer.
func NewFlashModel(base time.Duration) *FlashModel {
	if base <= 0 {
		base = 3 * time.Second
	}
	return &FlashModel{
		base:    base,
		watchCh: make(chan FlashMessage, 8),
	}
}

// Info sets an info-level flash message.
func (f *FlashModel) Info(msg string) {
	f.set(msg, FlashInfo, f.base)
}

// Warn sets a warn-level flash message.
func (f *FlashModel) Warn(msg string) {
	f.set(msg, FlashWarn, f.base*3/2)
}

// Error sets an error-level flash message.
func (f *FlashModel) Error(msg string) {
	f.set(msg, FlashErr, f.base*2)
}

func (f *FlashModel) set(msg string, level FlashLevel, d time.Duration) {
	fm := FlashMessage{
		Text:    msg,
		Level:   level,
		Expires: time.Now().Add(d),
	}
	f.mu.Lock()
	f.current = fm
	f.mu.Unlock()
	select {
	case f.watchCh <- fm:
	default:
	}
}

// GetMessage returns the current flash message, or nil if expired.
func (f *FlashModel) GetMessage() *FlashMessage {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.current.Text == "" || time.Now().After(f.current.Expires) {
		return nil
	}
	m := f.current
	return &m
}

// Watch returns a channel that receives flash messages.
func (f *FlashModel) Watch() <-chan FlashMessage {
	return f.watchCh
}

// FlashBar is the UI component that displays flash notifications.
type FlashBar struct {
	*tview.TextView
	theme *Theme
}

// NewFlashBar creates a new flash notification bar.
func NewFlashBar(theme *Theme) *FlashBar {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(theme.BgColor)

	return &FlashBar{
		TextView: tv,
		theme:    theme,
	}
}

// Update renders a flash message on the bar.
func (fb *FlashBar) Update(msg *FlashMessage) {
	fb.Clear()
	if msg == nil {
		return
	}

	var color, icon string
	switch msg.Level {
	case FlashInfo:
		color, icon = ColorName(fb.theme.FlashInfoColor), "ℹ"
	case FlashWarn:
		color, icon = ColorName(fb.theme.FlashWarnColor), "⚠"
	case FlashErr:
		color, icon = ColorName(fb.theme.FlashErrColor), "✗"
	}
	_, _ = fmt.Fprintf(fb, " [%s]%s %s[-]", color, icon, tview.Escape(msg.Text))
}
