package store

import (
	"slices"
	"sync"

	"github.com/matheus3301/botdesk/internal/media"
	"go.uber.org/zap"
)

// Releaser frees audio handles whose messages left the state.
type Releaser interface {
	Release(handles ...*media.Handle)
}

type subscriber struct {
	id int
	fn func(State)
}

// Store holds the console state and notifies subscribers on every change.
//
// Slices inside State are never modified in place; every mutation builds new
// ones, so a snapshot handed to a subscriber stays valid. Subscribers must
// treat snapshots as read-only.
type Store struct {
	// writeMu serializes read-modify-write cycles and notification so every
	// subscriber sees updates in the order they were applied.
	writeMu sync.Mutex

	mu       sync.RWMutex
	state    State
	subs     []subscriber
	next     int
	releaser Releaser
	logger   *zap.Logger
}

// New creates an empty store. releaser may be nil.
func New(logger *zap.Logger, releaser Releaser) *Store {
	return &Store{
		state:    State{Filter: FilterAll},
		releaser: releaser,
		logger:   logger,
	}
}

// GetState returns the current snapshot.
func (s *Store) GetState() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Subscribe registers fn to be called synchronously after every state change,
// in subscription order. fn must not call back into a mutating Store method
// on the same goroutine. Returns an unsubscribe function.
func (s *Store) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	id := s.next
	s.next++
	s.subs = append(s.subs, subscriber{id: id, fn: fn})
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		s.subs = slices.DeleteFunc(s.subs, func(sub subscriber) bool { return sub.id == id })
		s.mu.Unlock()
	}
}

// SetState shallow-merges p into the live state and notifies subscribers.
func (s *Store) SetState(p Patch) {
	s.update(func(State) (Patch, bool) { return p, true })
}

// update runs fn against the current state and applies the patch it returns.
// When fn reports false nothing is applied and nobody is notified.
func (s *Store) update(fn func(State) (Patch, bool)) bool {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	prev := s.state
	p, ok := fn(prev)
	if !ok {
		s.mu.Unlock()
		return false
	}
	next := prev.merge(p)
	s.state = next
	subs := slices.Clone(s.subs)
	s.mu.Unlock()

	if p.Conversations != nil {
		s.releaseDropped(prev.Conversations, next.Conversations)
	}
	for _, sub := range subs {
		s.notify(sub, next)
	}
	return true
}

func (s *Store) notify(sub subscriber, st State) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("subscriber panicked", zap.Int("subscriber", sub.id), zap.Any("panic", r))
		}
	}()
	sub.fn(st)
}

// releaseDropped hands audio handles that disappeared between prev and next
// to the releaser.
func (s *Store) releaseDropped(prev, next []Conversation) {
	if s.releaser == nil {
		return
	}
	kept := make(map[*media.Handle]struct{})
	for _, c := range next {
		for _, m := range c.Messages {
			if m.Audio != nil {
				kept[m.Audio] = struct{}{}
			}
		}
	}
	var dropped []*media.Handle
	for _, c := range prev {
		for _, m := range c.Messages {
			if m.Audio == nil {
				continue
			}
			if _, ok := kept[m.Audio]; !ok {
				dropped = append(dropped, m.Audio)
			}
		}
	}
	if len(dropped) > 0 {
		s.logger.Debug("releasing audio handles", zap.Int("count", len(dropped)))
		s.releaser.Release(dropped...)
	}
}
