package recent

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gatedPersister blocks every write until release is closed and records the
// writes it applied.
type gatedPersister struct {
	release chan struct{}

	mu     sync.Mutex
	writes [][]string // nil element means erase
	err    error
}

func (g *gatedPersister) Load(_ context.Context) ([]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.writes) == 0 {
		return nil, nil
	}
	return g.writes[len(g.writes)-1], nil
}

func (g *gatedPersister) Save(_ context.Context, entries []string) error {
	<-g.release
	g.mu.Lock()
	defer g.mu.Unlock()
	g.writes = append(g.writes, append([]string{}, entries...))
	return g.err
}

func (g *gatedPersister) Erase(_ context.Context) error {
	<-g.release
	g.mu.Lock()
	defer g.mu.Unlock()
	g.writes = append(g.writes, nil)
	return g.err
}

func (g *gatedPersister) applied() [][]string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([][]string(nil), g.writes...)
}

func newOpenGate() *gatedPersister {
	g := &gatedPersister{release: make(chan struct{})}
	close(g.release)
	return g
}

func TestAsyncPersister_LedgerDoesNotWaitForWrites(t *testing.T) {
	g := &gatedPersister{release: make(chan struct{})}
	a := NewAsyncPersister(g, zerolog.Nop())
	l := New(a, zerolog.Nop(), Options{})

	done := make(chan struct{})
	go func() {
		record(l, "casa", "mare")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Record blocked on persistence")
	}

	assert.Equal(t, []string{"mare", "casa"}, l.List())

	close(g.release)
	require.NoError(t, a.Close(context.Background()))

	writes := g.applied()
	require.NotEmpty(t, writes)
	assert.Equal(t, []string{"mare", "casa"}, writes[len(writes)-1])
}

func TestAsyncPersister_OrderedWithErase(t *testing.T) {
	g := newOpenGate()
	a := NewAsyncPersister(g, zerolog.Nop())
	ctx := context.Background()

	require.NoError(t, a.Save(ctx, []string{"a"}))
	require.NoError(t, a.Erase(ctx))
	require.NoError(t, a.Save(ctx, []string{"b"}))
	require.NoError(t, a.Flush(ctx))

	writes := g.applied()
	require.NotEmpty(t, writes)
	assert.Equal(t, []string{"b"}, writes[len(writes)-1])

	var sawErase bool
	for _, w := range writes {
		if w == nil {
			sawErase = true
		}
	}
	assert.True(t, sawErase)

	require.NoError(t, a.Close(ctx))
}

func TestAsyncPersister_CoalescesQueuedSaves(t *testing.T) {
	g := &gatedPersister{release: make(chan struct{})}
	a := NewAsyncPersister(g, zerolog.Nop())
	ctx := context.Background()

	// The first save may already be in flight behind the gate; the rest queue
	// up behind it and collapse.
	for _, snap := range [][]string{{"a"}, {"b", "a"}, {"c", "b", "a"}, {"d", "c", "b"}} {
		require.NoError(t, a.Save(ctx, snap))
	}

	close(g.release)
	require.NoError(t, a.Flush(ctx))

	writes := g.applied()
	assert.LessOrEqual(t, len(writes), 2)
	assert.Equal(t, []string{"d", "c", "b"}, writes[len(writes)-1])

	require.NoError(t, a.Close(ctx))
}

func TestAsyncPersister_SaveCopiesInput(t *testing.T) {
	g := &gatedPersister{release: make(chan struct{})}
	a := NewAsyncPersister(g, zerolog.Nop())
	ctx := context.Background()

	input := []string{"villa"}
	require.NoError(t, a.Save(ctx, input))
	input[0] = "mutated"

	close(g.release)
	require.NoError(t, a.Close(ctx))

	assert.Equal(t, [][]string{{"villa"}}, g.applied())
}

func TestAsyncPersister_WriteErrorsAreAbsorbed(t *testing.T) {
	g := newOpenGate()
	g.err = errors.New("disk full")
	a := NewAsyncPersister(g, zerolog.Nop())
	ctx := context.Background()

	require.NoError(t, a.Save(ctx, []string{"a"}))
	require.NoError(t, a.Flush(ctx))
	require.NoError(t, a.Close(ctx))
}

func TestAsyncPersister_Closed(t *testing.T) {
	a := NewAsyncPersister(newOpenGate(), zerolog.Nop())
	ctx := context.Background()

	require.NoError(t, a.Close(ctx))
	require.NoError(t, a.Close(ctx), "close is idempotent")

	assert.ErrorIs(t, a.Save(ctx, []string{"a"}), ErrClosed)
	assert.ErrorIs(t, a.Erase(ctx), ErrClosed)
	assert.ErrorIs(t, a.Flush(ctx), ErrClosed)
}

func TestAsyncPersister_FlushHonorsContext(t *testing.T) {
	g := &gatedPersister{release: make(chan struct{})}
	a := NewAsyncPersister(g, zerolog.Nop())

	require.NoError(t, a.Save(context.Background(), []string{"a"}))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	assert.ErrorIs(t, a.Flush(ctx), context.DeadlineExceeded)

	close(g.release)
	require.NoError(t, a.Close(context.Background()))
}

func TestAsyncPersister_LoadReadsThrough(t *testing.T) {
	g := newOpenGate()
	a := NewAsyncPersister(g, zerolog.Nop())
	ctx := context.Background()

	require.NoError(t, a.Save(ctx, []string{"villa"}))
	require.NoError(t, a.Flush(ctx))

	got, err := a.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"villa"}, got)

	require.NoError(t, a.Close(ctx))
}
