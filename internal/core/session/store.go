package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hay-kot/casa/internal/core/prefs"
)

// ErrNotFound is returned when no session is stored.
var ErrNotFound = errors.New("session not found")

// Key is the preference key the session is stored under.
const Key = "session"

// Store defines persistence operations for the current session.
type Store interface {
	// Get returns the stored session. Returns ErrNotFound if logged out.
	Get(ctx context.Context) (Session, error)
	// Save replaces the stored session.
	Save(ctx context.Context, s Session) error
	// Delete removes the stored session. Deleting when logged out is not an error.
	Delete(ctx context.Context) error
}

// PrefsStore implements Store on top of a prefs.Store.
type PrefsStore struct {
	prefs prefs.Store
}

// NewPrefsStore creates a session store backed by p.
func NewPrefsStore(p prefs.Store) *PrefsStore {
	return &PrefsStore{prefs: p}
}

func (s *PrefsStore) Get(ctx context.Context) (Session, error) {
	entry, err := s.prefs.Get(ctx, Key)
	if errors.Is(err, prefs.ErrKeyNotFound) {
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("get session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal([]byte(entry.Value), &sess); err != nil {
		return Session{}, fmt.Errorf("decode session: %w", err)
	}
	return sess, nil
}

func (s *PrefsStore) Save(ctx context.Context, sess Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return s.prefs.Set(ctx, Key, string(data))
}

func (s *PrefsStore) Delete(ctx context.Context) error {
	err := s.prefs.Delete(ctx, Key)
	if err != nil && !errors.Is(err, prefs.ErrKeyNotFound) {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
