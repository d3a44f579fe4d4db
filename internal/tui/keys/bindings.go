package keys

import (
	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/botdesk/internal/tui/ui"
)

// Action represents a keybinding action.
type Action struct {
	Name        string
	Key         tcell.Key
	Rune        rune
	Label       string // key as shown in the menu, e.g. "Enter"
	Description string
	Handler     func()
	Visible     bool
}

// Matches returns true if the event matches this action.
func (a *Action) Matches(ev *tcell.EventKey) bool {
	if a.Key != tcell.KeyRune {
		return ev.Key() == a.Key
	}
	return ev.Key() == tcell.KeyRune && ev.Rune() == a.Rune
}

func (a *Action) hint() ui.MenuHint {
	label := a.Label
	if label == "" {
		if a.Key == tcell.KeyRune {
			label = string(a.Rune)
		} else {
			label = tcell.KeyNames[a.Key]
		}
	}
	return ui.MenuHint{Key: label, Description: a.Description}
}

// Registry holds keybindings organized by scope. Bindings keep registration
// order, which is also the order hints are shown in.
type Registry struct {
	global []*Action
	views  map[string][]*Action
}

// NewRegistry creates a new keybinding registry.
func NewRegistry() *Registry {
	return &Registry{
		views: make(map[string][]*Action),
	}
}

// AddGlobal registers a global keybinding. A binding with the same name is
// replaced in place.
func (r *Registry) AddGlobal(action *Action) {
	r.global = upsert(r.global, action)
}

// AddView registers a view-specific keybinding.
func (r *Registry) AddView(view string, action *Action) {
	r.views[view] = upsert(r.views[view], action)
}

func upsert(list []*Action, a *Action) []*Action {
	for i, existing := range list {
		if existing.Name != "" && existing.Name == a.Name {
			list[i] = a
			return list
		}
	}
	return append(list, a)
}

// Hints returns visible keybindings for a view: the view's own first, then
// global ones.
func (r *Registry) Hints(view string) []ui.MenuHint {
	var hints []ui.MenuHint
	for _, a := range r.views[view] {
		if a.Visible {
			hints = append(hints, a.hint())
		}
	}
	for _, a := range r.global {
		if a.Visible {
			hints = append(hints, a.hint())
		}
	}
	return hints
}

// HandleEvent dispatches a key event to the first matching action, checking
// the view's bindings before global ones. Returns true if a handler matched.
func (r *Registry) HandleEvent(view string, ev *tcell.EventKey) bool {
	for _, a := range r.views[view] {
		if a.Matches(ev) {
			a.Handler()
			return true
		}
	}
	for _, a := range r.global {
		if a.Matches(ev) {
			a.Handler()
			return true
		}
	}
	return false
}
