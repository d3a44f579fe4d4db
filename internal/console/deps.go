package console

import (
	"context"

	"github.com/matheus3301/botdesk/internal/media"
	"github.com/matheus3301/botdesk/internal/store"
	"github.com/matheus3301/botdesk/internal/voice"
)

// Backend is the remote conversation service.
type Backend interface {
	FetchConversations(ctx context.Context) ([]store.Conversation, error)
	FetchConversationInfo(ctx context.Context, phone string) (store.Conversation, error)
	SendIntervention(ctx context.Context, phone, text string) error
	SendVoiceMessage(ctx context.Context, phone, audio string) error
}

// Recorder captures voice notes.
type Recorder interface {
	Start(ctx context.Context) error
	Stop() (voice.Clip, error)
	Cancel()
	OnLimit(fn func(voice.Clip, error))
}

// Player plays audio handles one at a time.
type Player interface {
	Toggle(h *media.Handle) (bool, error)
	Stop()
	OnChange(fn func(playingID string))
}

// Notifier raises desktop notifications.
type Notifier interface {
	IncomingMessage(sender, text string) error
}

// Toaster shows transient messages to the operator.
type Toaster interface {
	Info(msg string)
	Warn(msg string)
	Error(msg string)
}
