// Package memory provides an in-process list store whose changes can be
// observed.
package memory

import (
	"context"
	"sync"
)

// Store keeps one list in memory and implements recent.Persister. It tells
// apart a list that was never written (or erased) from an empty one.
type Store struct {
	mu      sync.Mutex
	entries []string
	present bool
	subs    map[int]chan []string
	nextID  int
}

// New creates an empty store.
func New() *Store {
	return &Store{subs: make(map[int]chan []string)}
}

// Load returns a copy of the stored list, or nil if nothing is stored.
func (s *Store) Load(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.present {
		return nil, nil
	}
	return clone(s.entries), nil
}

// Save replaces the stored list and notifies subscribers.
func (s *Store) Save(ctx context.Context, entries []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = clone(entries)
	s.present = true
	s.publish(s.entries)
	return nil
}

// Erase removes the stored list and notifies subscribers with nil.
func (s *Store) Erase(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = nil
	s.present = false
	s.publish(nil)
	return nil
}

// Subscribe returns a channel receiving a snapshot after every change, nil
// meaning erased. The channel holds only the latest snapshot; a reader that
// falls behind sees the newest state, not every step. Call cancel to stop
// receiving; it closes the channel.
func (s *Store) Subscribe() (<-chan []string, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++

	ch := make(chan []string, 1)
	s.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs, id)
			close(ch)
		})
	}

	return ch, cancel
}

// publish must be called with s.mu held.
func (s *Store) publish(entries []string) {
	for _, ch := range s.subs {
		var snapshot []string
		if entries != nil {
			snapshot = clone(entries)
		}

		// Replace an unread snapshot rather than block the writer.
		select {
		case <-ch:
		default:
		}
		ch <- snapshot
	}
}

func clone(entries []string) []string {
	out := make([]string, len(entries))
	copy(out, entries)
	return out
}
