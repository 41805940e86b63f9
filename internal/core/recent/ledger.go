// Package recent maintains bounded, deduplicated, most-recent-first lists of
// user actions such as search queries.
package recent

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"
)

// DefaultCapacity is the number of entries kept when Options.Capacity is unset.
const DefaultCapacity = 10

// Options configures a Ledger.
type Options struct {
	// Capacity is the maximum number of entries. Zero means DefaultCapacity.
	Capacity int
	// FoldCase makes duplicate detection case-insensitive. The most recently
	// recorded spelling is the one kept.
	FoldCase bool
}

// Ledger is an ordered list of entries with the newest at index 0.
//
// A Ledger is not safe for concurrent use. The in-memory list is the source of
// truth for the process; the persister only mirrors it, and its failures are
// logged rather than returned.
type Ledger struct {
	entries   []string
	capacity  int
	foldCase  bool
	persister Persister
	log       zerolog.Logger
}

// New creates an empty ledger backed by p.
func New(p Persister, log zerolog.Logger, opts Options) *Ledger {
	capacity := opts.Capacity
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	return &Ledger{
		entries:   []string{},
		capacity:  capacity,
		foldCase:  opts.FoldCase,
		persister: p,
		log:       log,
	}
}

// Open creates a ledger and hydrates it from p. If loading fails the ledger
// starts empty.
func Open(ctx context.Context, p Persister, log zerolog.Logger, opts Options) *Ledger {
	l := New(p, log, opts)

	entries, err := p.Load(ctx)
	if err != nil {
		l.log.Warn().Err(err).Msg("load recent entries, starting empty")
		return l
	}

	l.Hydrate(entries)
	return l
}

// Record moves entry to the front of the ledger, evicting the oldest entries
// past capacity. Blank entries are ignored. Invalid UTF-8 sequences are
// replaced with U+FFFD so an entry reads back the same from text stores.
func (l *Ledger) Record(ctx context.Context, entry string) {
	entry = strings.ToValidUTF8(entry, string(utf8.RuneError))
	if strings.TrimSpace(entry) == "" {
		return
	}

	next := make([]string, 0, l.capacity)
	next = append(next, entry)

	for _, existing := range l.entries {
		if len(next) == l.capacity {
			break
		}
		if l.contains(next, existing) {
			continue
		}
		next = append(next, existing)
	}

	l.entries = next

	if err := l.persister.Save(ctx, l.List()); err != nil {
		l.log.Warn().Err(err).Str("entry", entry).Msg("persist recent entries")
	}
}

// List returns a copy of the entries, newest first.
func (l *Ledger) List() []string {
	out := make([]string, len(l.entries))
	copy(out, l.entries)
	return out
}

// Clear removes every entry and erases the persisted list.
func (l *Ledger) Clear(ctx context.Context) {
	l.entries = []string{}

	if err := l.persister.Erase(ctx); err != nil {
		l.log.Warn().Err(err).Msg("erase recent entries")
	}
}

// Hydrate replaces the entries with the given sequence as-is. Duplicates or
// overflow in entries are kept until the next Record.
func (l *Ledger) Hydrate(entries []string) {
	l.entries = make([]string, len(entries))
	copy(l.entries, entries)
}

// Len returns the number of entries.
func (l *Ledger) Len() int {
	return len(l.entries)
}

// Capacity returns the maximum number of entries Record keeps.
func (l *Ledger) Capacity() int {
	return l.capacity
}

func (l *Ledger) contains(entries []string, s string) bool {
	for _, e := range entries {
		if l.equal(e, s) {
			return true
		}
	}
	return false
}

func (l *Ledger) equal(a, b string) bool {
	if l.foldCase {
		return strings.EqualFold(a, b)
	}
	return a == b
}
