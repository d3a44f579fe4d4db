package store

import (
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"
)

// SetConversations replaces the conversation list.
func (s *Store) SetConversations(convs []Conversation) {
	convs = slices.Clone(convs)
	s.SetState(Patch{Conversations: &convs})
}

// UpdateConversation inserts c, or replaces the conversation with the same ID.
func (s *Store) UpdateConversation(c Conversation) {
	s.update(func(st State) (Patch, bool) {
		convs := slices.Clone(st.Conversations)
		if _, i := st.Find(c.ID); i >= 0 {
			convs[i] = c
		} else {
			convs = append(convs, c)
		}
		return Patch{Conversations: &convs}, true
	})
}

// AddMessage appends m to an existing conversation. Returns false when no
// conversation has the given ID.
func (s *Store) AddMessage(conversationID string, m Message) bool {
	return s.modify(conversationID, func(c *Conversation) {
		c.Messages = append(slices.Clip(c.Messages), m)
	})
}

// BumpUnread increments the unread counter of a conversation.
func (s *Store) BumpUnread(conversationID string) bool {
	return s.modify(conversationID, func(c *Conversation) {
		c.Unread++
	})
}

// SetTyping sets the typing indicator of a conversation.
func (s *Store) SetTyping(conversationID string, typing bool) bool {
	return s.modify(conversationID, func(c *Conversation) {
		c.Typing = typing
	})
}

// SetActiveConversation selects a conversation and clears its unread counter
// and new marker. An empty id clears the selection. Unknown ids are ignored.
func (s *Store) SetActiveConversation(id string) bool {
	return s.update(func(st State) (Patch, bool) {
		if id == "" {
			return Patch{ActiveID: &id}, true
		}
		c, i := st.Find(id)
		if i < 0 {
			return Patch{}, false
		}
		c.Unread = 0
		c.New = false
		convs := slices.Clone(st.Conversations)
		convs[i] = c
		return Patch{ActiveID: &id, Conversations: &convs}, true
	})
}

// SetManualMode sets the operator-in-control flag.
func (s *Store) SetManualMode(on bool) {
	s.SetState(Patch{ManualMode: &on})
}

// SetLoading sets the loading flag.
func (s *Store) SetLoading(loading bool) {
	s.SetState(Patch{Loading: &loading})
}

// SetSearchQuery sets the free-text conversation search.
func (s *Store) SetSearchQuery(q string) {
	s.SetState(Patch{SearchQuery: &q})
}

// SetFilter sets the active list filter.
func (s *Store) SetFilter(f Filter) {
	s.SetState(Patch{Filter: &f})
}

// SetConnection records the push channel status label.
func (s *Store) SetConnection(status string) {
	s.SetState(Patch{Connection: &status})
}

// SetRecording marks a voice note capture as running or finished.
func (s *Store) SetRecording(on bool) {
	s.SetState(Patch{Recording: &on})
}

// SetPlaying records the audio handle being played; "" when idle.
func (s *Store) SetPlaying(handleID string) {
	s.SetState(Patch{Playing: &handleID})
}

// AppendWith appends the message returned by fn to the conversation, reading
// and writing under the same lock. fn returns false to skip the append.
func (s *Store) AppendWith(conversationID string, fn func(c Conversation) (Message, bool)) bool {
	return s.update(func(st State) (Patch, bool) {
		c, i := st.Find(conversationID)
		if i < 0 {
			return Patch{}, false
		}
		m, ok := fn(c)
		if !ok {
			return Patch{}, false
		}
		c.Messages = append(slices.Clip(c.Messages), m)
		convs := slices.Clone(st.Conversations)
		convs[i] = c
		return Patch{Conversations: &convs}, true
	})
}

// MergeFetched upserts a conversation freshly loaded from the backend,
// carrying over the local-only fields (unread counter, typing) of the
// conversation it replaces.
func (s *Store) MergeFetched(c Conversation) {
	s.update(func(st State) (Patch, bool) {
		convs := slices.Clone(st.Conversations)
		if prev, i := st.Find(c.ID); i >= 0 {
			convs[i] = carryLocal(prev, c)
		} else {
			convs = append(convs, c)
		}
		return Patch{Conversations: &convs}, true
	})
}

// ReplaceFetched swaps in a freshly loaded conversation list, carrying over
// local-only fields for conversations that were already known.
func (s *Store) ReplaceFetched(fetched []Conversation) {
	s.update(func(st State) (Patch, bool) {
		convs := make([]Conversation, len(fetched))
		for i, c := range fetched {
			if prev, j := st.Find(c.ID); j >= 0 {
				c = carryLocal(prev, c)
			}
			convs[i] = c
		}
		return Patch{Conversations: &convs}, true
	})
}

func carryLocal(prev, next Conversation) Conversation {
	next.Unread = prev.Unread
	next.Typing = prev.Typing
	next.New = false
	return next
}

// modify applies fn to a copy of the conversation with the given ID and
// publishes the result.
func (s *Store) modify(id string, fn func(c *Conversation)) bool {
	return s.update(func(st State) (Patch, bool) {
		c, i := st.Find(id)
		if i < 0 {
			return Patch{}, false
		}
		fn(&c)
		convs := slices.Clone(st.Conversations)
		convs[i] = c
		return Patch{Conversations: &convs}, true
	})
}

// MaxMessageID returns the highest message ID in the conversation, or 0.
func (c Conversation) MaxMessageID() int64 {
	var maxID int64
	for _, m := range c.Messages {
		if m.ID > maxID {
			maxID = m.ID
		}
	}
	return maxID
}

// LastMessage returns the message with the highest ID.
func (c Conversation) LastMessage() (Message, bool) {
	if len(c.Messages) == 0 {
		return Message{}, false
	}
	sorted := SortMessages(c.Messages)
	return sorted[len(sorted)-1], true
}

// SortMessages returns a copy of msgs ordered by ID. Messages sharing an ID
// keep their relative order.
func SortMessages(msgs []Message) []Message {
	out := slices.Clone(msgs)
	slices.SortStableFunc(out, func(a, b Message) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		default:
			return 0
		}
	})
	return out
}

// Initials derives up to two uppercase initials from a display name.
func Initials(name string) string {
	var b strings.Builder
	n := 0
	for _, word := range strings.Fields(name) {
		r, _ := utf8.DecodeRuneInString(word)
		if r == utf8.RuneError {
			continue
		}
		b.WriteRune(unicode.ToUpper(r))
		n++
		if n == 2 {
			break
		}
	}
	return b.String()
}
