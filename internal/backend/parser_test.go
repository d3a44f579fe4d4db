package backend

import (
	"encoding/base64"
	"testing"

	"github.com/matheus3301/botdesk/internal/media"
	"github.com/matheus3301/botdesk/internal/store"
	"go.uber.org/zap"
)

func strPtr(s string) *string { return &s }

func TestMessageTaxonomy(t *testing.T) {
	m := NewMapper(nil, zap.NewNop())
	tests := []struct {
		code     int
		origin   store.Origin
		outgoing bool
	}{
		{1, store.OriginTemplate, true},
		{2, store.OriginClient, false},
		{3, store.OriginAI, true},
		{4, store.OriginOperator, true},
		{9, store.OriginUnknown, false},
		{0, store.OriginUnknown, false},
	}
	for _, tt := range tests {
		got := m.Message(rawMessage{ID: 1, Typo: flexInt(tt.code), Message: strPtr("x")})
		if got.Origin != tt.origin {
			t.Errorf("code %d origin = %v, want %v", tt.code, got.Origin, tt.origin)
		}
		if got.Origin.Outgoing() != tt.outgoing {
			t.Errorf("code %d outgoing = %v", tt.code, got.Origin.Outgoing())
		}
		if got.Label() != tt.origin.Label() || got.Color() != tt.origin.Color() {
			t.Errorf("code %d label/color mismatch", tt.code)
		}
	}
}

func TestMessageInvalidAudioHasNoHandle(t *testing.T) {
	reg := media.NewRegistry(t.TempDir(), zap.NewNop())
	m := NewMapper(reg, zap.NewNop())

	got := m.Message(rawMessage{ID: 7, Typo: 2, IsAudio: true, Audio: "@@not-base64@@"})
	if got.Audio != nil {
		t.Errorf("handle = %+v, want nil", got.Audio)
	}
	if got.Text != AudioPlaceholder || !got.IsAudio {
		t.Errorf("text = %q isAudio = %v", got.Text, got.IsAudio)
	}
	if reg.Live() != 0 {
		t.Errorf("live handles = %d, want 0", reg.Live())
	}
}

func TestMessageValidAudio(t *testing.T) {
	reg := media.NewRegistry(t.TempDir(), zap.NewNop())
	m := NewMapper(reg, zap.NewNop())

	payload := "data:audio/mpeg;base64," + base64.StdEncoding.EncodeToString([]byte("ID3\x04rest"))
	got := m.Message(rawMessage{ID: 8, Typo: 4, IsAudio: true, Audio: payload, Message: strPtr("ignored")})
	if got.Audio == nil {
		t.Fatal("handle = nil, want derived handle")
	}
	if got.Audio.Format != media.FormatMP3 {
		t.Errorf("format = %s, want mp3", got.Audio.Format)
	}
	if got.Text != AudioPlaceholder {
		t.Errorf("text = %q, want placeholder", got.Text)
	}
	if got.AudioBase64 == payload {
		t.Error("AudioBase64 kept the data-URI prefix")
	}
}

func TestConversationWithoutName(t *testing.T) {
	m := NewMapper(nil, zap.NewNop())
	got := m.Conversation(rawConversation{Number: "+1"})
	if got.Name != "" || got.Initials != "" {
		t.Errorf("name=%q initials=%q, want empty", got.Name, got.Initials)
	}
	if !got.NeedsAttention {
		t.Error("missing interview should need attention")
	}
}

func TestInterviewDone(t *testing.T) {
	tests := []struct {
		raw  string
		want bool
	}{
		{"", false},
		{"null", false},
		{"false", false},
		{"{}", false},
		{`{"id":1}`, true},
		{"true", true},
		{`"2024-01-01"`, true},
	}
	for _, tt := range tests {
		if got := interviewDone([]byte(tt.raw)); got != tt.want {
			t.Errorf("interviewDone(%s) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestLiveMessageFallbackCode(t *testing.T) {
	m := NewMapper(nil, zap.NewNop())
	got := m.Live(LiveMessage{Number: "+1", Message: "hola"}, 11, store.OriginClient.Code())
	if got.ID != 11 || got.Origin != store.OriginClient || got.Text != "hola" {
		t.Errorf("live = %+v", got)
	}
	if got.Timestamp.IsZero() {
		t.Error("live message has no timestamp")
	}
}
