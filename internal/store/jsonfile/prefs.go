// Package jsonfile provides JSON file-backed stores.
package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/hay-kot/casa/internal/core/prefs"
)

// prefsFile is the root JSON structure stored on disk.
type prefsFile struct {
	Entries map[string]prefs.Entry `json:"entries"`
}

// PrefsStore implements prefs.Store using a single JSON file. Access is
// serialized within the process by a mutex and across processes by an flock
// on a sibling ".lock" file.
type PrefsStore struct {
	path string
	mu   sync.RWMutex
	now  func() time.Time
}

// NewPrefsStore creates a preferences store at the given path. The file is
// created on first write.
func NewPrefsStore(path string) *PrefsStore {
	return &PrefsStore{path: path, now: time.Now}
}

// Path returns the backing file path.
func (s *PrefsStore) Path() string {
	return s.path
}

// Get returns the entry for key. Returns ErrKeyNotFound if absent.
func (s *PrefsStore) Get(ctx context.Context, key string) (prefs.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		entry prefs.Entry
		found bool
	)

	err := s.locked(syscall.LOCK_SH, func() error {
		file, err := s.read()
		if err != nil {
			return err
		}
		entry, found = file.Entries[key]
		return nil
	})
	if err != nil {
		return prefs.Entry{}, err
	}

	if !found {
		return prefs.Entry{}, prefs.ErrKeyNotFound
	}
	return entry, nil
}

// Set creates or updates key, keeping the original CreatedAt on update.
func (s *PrefsStore) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.locked(syscall.LOCK_EX, func() error {
		file, err := s.read()
		if err != nil {
			return err
		}

		now := s.now()
		entry, ok := file.Entries[key]
		if !ok {
			entry = prefs.Entry{Key: key, CreatedAt: now}
		}
		entry.Value = value
		entry.UpdatedAt = now

		file.Entries[key] = entry
		return s.write(file)
	})
}

// Delete removes key. Returns ErrKeyNotFound if absent.
func (s *PrefsStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.locked(syscall.LOCK_EX, func() error {
		file, err := s.read()
		if err != nil {
			return err
		}

		if _, ok := file.Entries[key]; !ok {
			return prefs.ErrKeyNotFound
		}

		delete(file.Entries, key)
		return s.write(file)
	})
}

// List returns entries whose key has the given prefix, sorted by key.
func (s *PrefsStore) List(ctx context.Context, prefix string) ([]prefs.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var entries []prefs.Entry

	err := s.locked(syscall.LOCK_SH, func() error {
		file, err := s.read()
		if err != nil {
			return err
		}

		for key, entry := range file.Entries {
			if strings.HasPrefix(key, prefix) {
				entries = append(entries, entry)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return entries, nil
}

// locked runs fn while holding an flock of the given type on the lock file.
// LOCK_SH admits many readers, LOCK_EX a single writer.
func (s *PrefsStore) locked(how int, fn func() error) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create prefs directory: %w", err)
	}

	f, err := os.OpenFile(s.path+".lock", os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return fmt.Errorf("open lock file: %w", err)
	}
	defer f.Close() //nolint:errcheck

	if err := syscall.Flock(int(f.Fd()), how); err != nil {
		return fmt.Errorf("acquire file lock: %w", err)
	}
	defer syscall.Flock(int(f.Fd()), syscall.LOCK_UN) //nolint:errcheck

	return fn()
}

// read loads the prefs file. A missing or empty file reads as no entries.
func (s *PrefsStore) read() (prefsFile, error) {
	empty := prefsFile{Entries: map[string]prefs.Entry{}}

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return empty, nil
	}
	if err != nil {
		return prefsFile{}, fmt.Errorf("read prefs file: %w", err)
	}
	if len(data) == 0 {
		return empty, nil
	}

	var file prefsFile
	if err := json.Unmarshal(data, &file); err != nil {
		return prefsFile{}, fmt.Errorf("parse %s: %w", s.path, err)
	}
	if file.Entries == nil {
		file.Entries = empty.Entries
	}

	return file, nil
}

// write replaces the prefs file atomically via a temp file and rename.
func (s *PrefsStore) write(file prefsFile) error {
	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write prefs temp file: %w", err)
	}

	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename prefs file: %w", err)
	}

	return nil
}
