// Package notify sends desktop notifications for incoming client messages.
package notify

import (
	"github.com/gen2brain/beeep"
	"go.uber.org/zap"
)

// Title is shown on every notification.
const Title = "botdesk"

// previewLimit caps the message excerpt, in runes.
const previewLimit = 80

// Func matches beeep.Notify.
type Func func(title, message string, icon any) error

// Notifier sends desktop notifications. A disabled Notifier drops everything.
type Notifier struct {
	send    Func
	enabled bool
	logger  *zap.Logger
}

// New returns a Notifier backed by beeep.
func New(enabled bool, logger *zap.Logger) *Notifier {
	return NewWithFunc(beeep.Notify, enabled, logger)
}

// NewWithFunc returns a Notifier that delivers through fn.
func NewWithFunc(fn Func, enabled bool, logger *zap.Logger) *Notifier {
	return &Notifier{send: fn, enabled: enabled, logger: logger}
}

// Send delivers a notification. Failures are logged and returned.
func (n *Notifier) Send(title, message string) error {
	if n == nil || !n.enabled {
		return nil
	}
	// Empty icon lets beeep pick the platform default.
	if err := n.send(title, message, ""); err != nil {
		n.logger.Warn("desktop notification failed", zap.Error(err))
		return err
	}
	return nil
}

// IncomingMessage announces a new client message from sender.
func (n *Notifier) IncomingMessage(sender, text string) error {
	return n.Send(Title, sender+": "+Preview(text))
}

// Preview shortens text to a single line of at most previewLimit runes.
func Preview(text string) string {
	r := []rune(text)
	for i, c := range r {
		if c == '\n' || c == '\r' {
			r[i] = ' '
		}
	}
	if len(r) > previewLimit {
		return string(r[:previewLimit-1]) + "…"
	}
	return string(r)
}
