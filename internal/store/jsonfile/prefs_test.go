package jsonfile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hay-kot/casa/internal/core/prefs"
)

func newTestStore(t *testing.T) *PrefsStore {
	t.Helper()
	return NewPrefsStore(filepath.Join(t.TempDir(), "prefs.json"))
}

func TestPrefsStore_SetAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "theme", "dark"))

	entry, err := store.Get(ctx, "theme")
	require.NoError(t, err)

	assert.Equal(t, "theme", entry.Key)
	assert.Equal(t, "dark", entry.Value)
	assert.False(t, entry.CreatedAt.IsZero())
	assert.False(t, entry.UpdatedAt.IsZero())
}

func TestPrefsStore_GetNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, prefs.ErrKeyNotFound)
}

func TestPrefsStore_UpdatePreservesCreatedAt(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	clock := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	store.now = func() time.Time { return clock }

	require.NoError(t, store.Set(ctx, "key", "v1"))

	clock = clock.Add(time.Minute)
	require.NoError(t, store.Set(ctx, "key", "v2"))

	entry, err := store.Get(ctx, "key")
	require.NoError(t, err)

	assert.Equal(t, "v2", entry.Value)
	assert.True(t, entry.CreatedAt.Equal(clock.Add(-time.Minute)), "CreatedAt = %v", entry.CreatedAt)
	assert.True(t, entry.UpdatedAt.Equal(clock), "UpdatedAt = %v", entry.UpdatedAt)
}

func TestPrefsStore_ListByPrefix(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "push:token", "abc"))
	require.NoError(t, store.Set(ctx, "push:installation", "id"))
	require.NoError(t, store.Set(ctx, "recent_searches", "[]"))

	entries, err := store.List(ctx, "push:")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "push:installation", entries[0].Key)
	assert.Equal(t, "push:token", entries[1].Key)

	all, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestPrefsStore_Delete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "key", "value"))
	require.NoError(t, store.Delete(ctx, "key"))

	_, err := store.Get(ctx, "key")
	assert.ErrorIs(t, err, prefs.ErrKeyNotFound)

	err = store.Delete(ctx, "key")
	assert.ErrorIs(t, err, prefs.ErrKeyNotFound)
}

func TestPrefsStore_PersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "prefs.json")
	ctx := context.Background()

	require.NoError(t, NewPrefsStore(path).Set(ctx, "key", "value"))

	entry, err := NewPrefsStore(path).Get(ctx, "key")
	require.NoError(t, err)
	assert.Equal(t, "value", entry.Value)

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file should be renamed away")
}

func TestPrefsStore_ConcurrentAccess(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	const (
		goroutines = 8
		iterations = 15
	)

	var wg sync.WaitGroup
	wg.Add(goroutines)

	for i := 0; i < goroutines; i++ {
		go func(id int) {
			defer wg.Done()
			for j := 0; j < iterations; j++ {
				key := fmt.Sprintf("key-%d-%d", id, j)
				if err := store.Set(ctx, key, "value"); err != nil {
					t.Errorf("Set failed: %v", err)
					return
				}
				if _, err := store.Get(ctx, key); err != nil {
					t.Errorf("Get failed: %v", err)
					return
				}
			}
		}(i)
	}

	wg.Wait()

	entries, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, entries, goroutines*iterations)
}

func TestPrefsStore_CorruptedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.json")
	require.NoError(t, os.WriteFile(path, []byte("{invalid json"), 0o644))

	store := NewPrefsStore(path)
	ctx := context.Background()

	_, err := store.Get(ctx, "any")
	require.Error(t, err)
	assert.False(t, errors.Is(err, prefs.ErrKeyNotFound))

	assert.Error(t, store.Set(ctx, "key", "value"))
}
