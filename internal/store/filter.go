package store

import (
	"fmt"
	"strings"
)

// Filter narrows the conversation list.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterUnread    Filter = "unread"
	FilterAttention Filter = "attention"
)

// ParseFilter validates a filter name.
func ParseFilter(s string) (Filter, error) {
	switch f := Filter(strings.ToLower(strings.TrimSpace(s))); f {
	case FilterAll, FilterUnread, FilterAttention:
		return f, nil
	case "":
		return FilterAll, nil
	default:
		return "", fmt.Errorf("unknown filter %q (want all, unread or attention)", s)
	}
}

// Next returns the filter that follows f when cycling.
func (f Filter) Next() Filter {
	switch f {
	case FilterAll:
		return FilterUnread
	case FilterUnread:
		return FilterAttention
	default:
		return FilterAll
	}
}

// FilteredConversations recomputes the visible conversation list from the
// current state.
func (s *Store) FilteredConversations() []Conversation {
	return s.GetState().Filtered()
}

// Filtered applies the search query and then the active filter. It is
// recomputed from scratch on every call.
func (s State) Filtered() []Conversation {
	q := strings.ToLower(s.SearchQuery)
	out := make([]Conversation, 0, len(s.Conversations))
	for _, c := range s.Conversations {
		if q != "" && !c.matches(q) {
			continue
		}
		switch s.Filter {
		case FilterUnread:
			if c.Unread <= 0 {
				continue
			}
		case FilterAttention:
			if !c.NeedsAttention {
				continue
			}
		}
		out = append(out, c)
	}
	return out
}

// matches reports whether the lowercased query occurs in the name, a tag or
// the phone number.
func (c Conversation) matches(q string) bool {
	if strings.Contains(strings.ToLower(c.Name), q) || strings.Contains(strings.ToLower(c.Phone), q) {
		return true
	}
	for _, tag := range c.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}
