// Package prefs defines the key-value preference storage used for small
// pieces of client state such as tokens and recent lists.
package prefs

import (
	"context"
	"errors"
	"time"
)

// ErrKeyNotFound is returned when a key does not exist.
var ErrKeyNotFound = errors.New("key not found")

// Entry represents a stored preference with metadata.
type Entry struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store defines persistence operations for preferences.
type Store interface {
	// Get returns the entry for key. Returns ErrKeyNotFound if absent.
	Get(ctx context.Context, key string) (Entry, error)
	// Set creates or updates key.
	Set(ctx context.Context, key, value string) error
	// Delete removes key. Returns ErrKeyNotFound if absent.
	Delete(ctx context.Context, key string) error
	// List returns all entries whose key starts with prefix.
	List(ctx context.Context, prefix string) ([]Entry, error)
}
