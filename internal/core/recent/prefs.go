package recent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/hay-kot/casa/internal/core/prefs"
)

// DefaultPrefsKey is the preference key recent searches are stored under.
const DefaultPrefsKey = "recent_searches"

// ErrInvalidUTF8 is returned by Save for entries that are not valid UTF-8.
var ErrInvalidUTF8 = errors.New("entry is not valid UTF-8")

// PrefsPersister stores a ledger as a JSON array under a single preference key.
type PrefsPersister struct {
	store prefs.Store
	key   string
}

// NewPrefsPersister creates a persister writing to key in store. An empty key
// uses DefaultPrefsKey.
func NewPrefsPersister(store prefs.Store, key string) *PrefsPersister {
	if key == "" {
		key = DefaultPrefsKey
	}
	return &PrefsPersister{store: store, key: key}
}

// Load decodes the stored list. Returns nil if the key is absent.
func (p *PrefsPersister) Load(ctx context.Context) ([]string, error) {
	entry, err := p.store.Get(ctx, p.key)
	if errors.Is(err, prefs.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", p.key, err)
	}

	var entries []string
	if err := json.Unmarshal([]byte(entry.Value), &entries); err != nil {
		return nil, fmt.Errorf("decode %s: %w", p.key, err)
	}

	return entries, nil
}

// Save encodes entries and writes them under the key. Entries must be valid
// UTF-8; encoding/json would otherwise rewrite them.
func (p *PrefsPersister) Save(ctx context.Context, entries []string) error {
	if entries == nil {
		entries = []string{}
	}

	for i, e := range entries {
		if !utf8.ValidString(e) {
			return fmt.Errorf("encode %s: entry %d: %w", p.key, i, ErrInvalidUTF8)
		}
	}

	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode %s: %w", p.key, err)
	}

	if err := p.store.Set(ctx, p.key, string(data)); err != nil {
		return fmt.Errorf("set %s: %w", p.key, err)
	}

	return nil
}

// Erase deletes the key.
func (p *PrefsPersister) Erase(ctx context.Context) error {
	err := p.store.Delete(ctx, p.key)
	if err != nil && !errors.Is(err, prefs.ErrKeyNotFound) {
		return fmt.Errorf("delete %s: %w", p.key, err)
	}
	return nil
}
