package recent

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hay-kot/casa/internal/core/prefs"
	"github.com/hay-kot/casa/internal/store/jsonfile"
)

func TestPrefsPersister_RoundTrip(t *testing.T) {
	store := jsonfile.NewPrefsStore(filepath.Join(t.TempDir(), "prefs.json"))
	p := NewPrefsPersister(store, "")
	ctx := context.Background()

	got, err := p.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, p.Save(ctx, []string{"villa", "mare"}))

	entry, err := store.Get(ctx, DefaultPrefsKey)
	require.NoError(t, err)
	assert.JSONEq(t, `["villa","mare"]`, entry.Value)

	got, err = p.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"villa", "mare"}, got)
}

func TestPrefsPersister_EraseRemovesKey(t *testing.T) {
	store := jsonfile.NewPrefsStore(filepath.Join(t.TempDir(), "prefs.json"))
	p := NewPrefsPersister(store, "searches")
	ctx := context.Background()

	require.NoError(t, p.Save(ctx, nil))
	entry, err := store.Get(ctx, "searches")
	require.NoError(t, err)
	assert.Equal(t, "[]", entry.Value)

	require.NoError(t, p.Erase(ctx))
	_, err = store.Get(ctx, "searches")
	assert.ErrorIs(t, err, prefs.ErrKeyNotFound)

	require.NoError(t, p.Erase(ctx), "erasing an absent key is not an error")
}

func TestPrefsPersister_CorruptValue(t *testing.T) {
	store := jsonfile.NewPrefsStore(filepath.Join(t.TempDir(), "prefs.json"))
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, DefaultPrefsKey, "not json"))

	_, err := NewPrefsPersister(store, "").Load(ctx)
	assert.Error(t, err)
}

func TestLedger_WithPrefsPersister(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.json")
	ctx := context.Background()

	l := Open(ctx, NewPrefsPersister(jsonfile.NewPrefsStore(path), ""), zerolog.Nop(), Options{})
	record(l, "casa", "mare", "villa")

	reopened := Open(ctx, NewPrefsPersister(jsonfile.NewPrefsStore(path), ""), zerolog.Nop(), Options{})
	assert.Equal(t, []string{"villa", "mare", "casa"}, reopened.List())

	reopened.Clear(ctx)
	_, err := jsonfile.NewPrefsStore(path).Get(ctx, DefaultPrefsKey)
	assert.ErrorIs(t, err, prefs.ErrKeyNotFound)
}

func TestPrefsPersister_RejectsInvalidUTF8(t *testing.T) {
	store := jsonfile.NewPrefsStore(filepath.Join(t.TempDir(), "prefs.json"))
	ctx := context.Background()

	err := NewPrefsPersister(store, "").Save(ctx, []string{"casa", "villa\xff"})
	assert.ErrorIs(t, err, ErrInvalidUTF8)

	_, err = store.Get(ctx, DefaultPrefsKey)
	assert.ErrorIs(t, err, prefs.ErrKeyNotFound, "nothing written on rejection")
}

func TestLedger_InvalidUTF8DedupsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.json")
	ctx := context.Background()

	l := Open(ctx, NewPrefsPersister(jsonfile.NewPrefsStore(path), ""), zerolog.Nop(), Options{})
	record(l, "villa\xff")

	reopened := Open(ctx, NewPrefsPersister(jsonfile.NewPrefsStore(path), ""), zerolog.Nop(), Options{})
	record(reopened, "villa\xff")

	assert.Equal(t, []string{"villa�"}, reopened.List())
}
