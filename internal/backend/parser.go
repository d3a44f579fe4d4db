package backend

import (
	"bytes"
	"time"

	"github.com/matheus3301/botdesk/internal/media"
	"github.com/matheus3301/botdesk/internal/store"
	"go.uber.org/zap"
)

// AudioPlaceholder replaces the text of voice messages.
const AudioPlaceholder = "Voice message"

// DefaultSource labels conversations whose record does not name a channel.
const DefaultSource = "WhatsApp"

// AudioDeriver turns a base64 payload into a playable handle.
type AudioDeriver interface {
	Derive(payload string) (*media.Handle, error)
}

// Mapper converts raw backend records into store values.
type Mapper struct {
	audio  AudioDeriver
	logger *zap.Logger
}

// NewMapper creates a mapper. audio may be nil, in which case voice messages
// carry no playable handle.
func NewMapper(audio AudioDeriver, logger *zap.Logger) *Mapper {
	return &Mapper{audio: audio, logger: logger}
}

// Conversation maps one raw conversation record.
func (m *Mapper) Conversation(raw rawConversation) store.Conversation {
	name := ""
	if raw.Name != nil {
		name = *raw.Name
	}
	source := raw.Source
	if source == "" {
		source = DefaultSource
	}
	done := interviewDone(raw.Interview)

	msgs := make([]store.Message, 0, len(raw.History))
	for _, rm := range raw.History {
		msgs = append(msgs, m.Message(rm))
	}

	return store.Conversation{
		ID:             raw.Number,
		Name:           name,
		Initials:       store.Initials(name),
		Phone:          raw.Number,
		Source:         source,
		Tags:           raw.Tags,
		NeedsAttention: !done,
		InterviewDone:  done,
		Messages:       msgs,
	}
}

// Message maps one raw history entry. It never fails: unknown type codes
// fall back to OriginUnknown and bad audio payloads yield no handle.
func (m *Mapper) Message(raw rawMessage) store.Message {
	text := ""
	if raw.Message != nil {
		text = *raw.Message
	}
	msg := store.Message{
		ID:        int64(raw.ID),
		Origin:    store.OriginFromCode(int(raw.Typo)),
		Text:      text,
		IsAudio:   bool(raw.IsAudio),
		Timestamp: raw.Date.Time,
	}
	if msg.IsAudio {
		msg.Text = AudioPlaceholder
		msg.AudioBase64 = media.StripDataURI(raw.Audio)
		msg.Audio = m.deriveAudio(msg.ID, raw.Audio)
	}
	return msg
}

// Live maps a push event payload. id is assigned by the caller since live
// events do not always carry one.
func (m *Mapper) Live(l LiveMessage, id int64, fallbackCode int) store.Message {
	raw := rawMessage{
		ID:      flexInt(id),
		Typo:    flexInt(l.TypeCode(fallbackCode)),
		Message: &l.Message,
		IsAudio: l.IsAudio,
		Audio:   l.Audio,
	}
	msg := m.Message(raw)
	msg.Timestamp = time.Now()
	return msg
}

func (m *Mapper) deriveAudio(id int64, payload string) *media.Handle {
	if m.audio == nil || payload == "" {
		return nil
	}
	h, err := m.audio.Derive(payload)
	if err != nil {
		m.logger.Debug("audio payload rejected", zap.Int64("msg_id", id), zap.Error(err))
		return nil
	}
	return h
}

// interviewDone reports whether the raw interview field holds a completed
// intake record. null, false, empty strings and empty objects do not count.
func interviewDone(raw []byte) bool {
	raw = bytes.TrimSpace(raw)
	switch string(raw) {
	case "", "null", "false", `""`, "{}", "[]", "0":
		return false
	}
	return true
}
