package store

import (
	"time"

	"github.com/matheus3301/botdesk/internal/media"
)

// Conversation is one ongoing exchange with a remote contact, keyed by phone number.
type Conversation struct {
	ID             string
	Name           string
	Initials       string
	Phone          string
	Source         string
	Tags           []string
	Unread         int
	NeedsAttention bool
	InterviewDone  bool
	New            bool // created from a live event, never fetched
	Typing         bool
	Messages       []Message
}

// Message is a single entry in a conversation thread.
type Message struct {
	ID          int64
	Origin      Origin
	Text        string
	IsAudio     bool
	AudioBase64 string
	Audio       *media.Handle
	Timestamp   time.Time
}

// Label returns the display label for the message origin.
func (m Message) Label() string { return m.Origin.Label() }

// Color returns the display color for the message origin.
func (m Message) Color() string { return m.Origin.Color() }

// State is the single source of truth for the console.
type State struct {
	Conversations []Conversation
	ActiveID      string
	ManualMode    bool
	Loading       bool
	SearchQuery   string
	Filter        Filter
	Connection    string
	Recording     bool
	Playing       string // ID of the audio handle being played
}

// Patch is a partial state update. Nil fields are left untouched.
type Patch struct {
	Conversations *[]Conversation
	ActiveID      *string
	ManualMode    *bool
	Loading       *bool
	SearchQuery   *string
	Filter        *Filter
	Connection    *string
	Recording     *bool
	Playing       *string
}

func (s State) merge(p Patch) State {
	if p.Conversations != nil {
		s.Conversations = *p.Conversations
	}
	if p.ActiveID != nil {
		s.ActiveID = *p.ActiveID
	}
	if p.ManualMode != nil {
		s.ManualMode = *p.ManualMode
	}
	if p.Loading != nil {
		s.Loading = *p.Loading
	}
	if p.SearchQuery != nil {
		s.SearchQuery = *p.SearchQuery
	}
	if p.Filter != nil {
		s.Filter = *p.Filter
	}
	if p.Connection != nil {
		s.Connection = *p.Connection
	}
	if p.Recording != nil {
		s.Recording = *p.Recording
	}
	if p.Playing != nil {
		s.Playing = *p.Playing
	}
	return s
}

// Find returns the conversation with the given ID and its index, or -1.
func (s State) Find(id string) (Conversation, int) {
	for i, c := range s.Conversations {
		if c.ID == id {
			return c, i
		}
	}
	return Conversation{}, -1
}

// Active returns the active conversation, if any.
func (s State) Active() (Conversation, bool) {
	if s.ActiveID == "" {
		return Conversation{}, false
	}
	c, i := s.Find(s.ActiveID)
	return c, i >= 0
}
