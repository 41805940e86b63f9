package recent

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
)

// ErrClosed is returned when writing to an AsyncPersister after Close.
var ErrClosed = errors.New("persister closed")

type opKind int

const (
	opSave opKind = iota
	opErase
	opBarrier
)

type op struct {
	kind    opKind
	entries []string
	done    chan struct{}
}

// AsyncPersister applies writes to another Persister on a background worker.
// Save and Erase return as soon as the write is queued. Writes are applied in
// order, and back-to-back saves collapse into the latest one.
type AsyncPersister struct {
	next Persister
	log  zerolog.Logger

	mu     sync.Mutex
	queue  []op
	closed bool

	wake     chan struct{}
	quit     chan struct{}
	stopped  chan struct{}
	quitOnce sync.Once
}

// NewAsyncPersister starts a worker that writes through to next.
func NewAsyncPersister(next Persister, log zerolog.Logger) *AsyncPersister {
	a := &AsyncPersister{
		next:    next,
		log:     log,
		wake:    make(chan struct{}, 1),
		quit:    make(chan struct{}),
		stopped: make(chan struct{}),
	}

	go a.run()
	return a
}

// Load reads through to the wrapped persister. Writes still queued are not
// visible; call Flush first when that matters.
func (a *AsyncPersister) Load(ctx context.Context) ([]string, error) {
	return a.next.Load(ctx)
}

// Save queues a write of entries.
func (a *AsyncPersister) Save(ctx context.Context, entries []string) error {
	snapshot := make([]string, len(entries))
	copy(snapshot, entries)
	return a.enqueue(op{kind: opSave, entries: snapshot})
}

// Erase queues removal of the stored list.
func (a *AsyncPersister) Erase(ctx context.Context) error {
	return a.enqueue(op{kind: opErase})
}

// Flush blocks until every write queued before the call has been applied.
func (a *AsyncPersister) Flush(ctx context.Context) error {
	done := make(chan struct{})
	if err := a.enqueue(op{kind: opBarrier, done: done}); err != nil {
		return err
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close flushes pending writes and stops the worker. Later writes fail with
// ErrClosed.
func (a *AsyncPersister) Close(ctx context.Context) error {
	err := a.Flush(ctx)
	if errors.Is(err, ErrClosed) {
		err = nil
	}

	a.mu.Lock()
	a.closed = true
	a.mu.Unlock()

	a.quitOnce.Do(func() { close(a.quit) })

	select {
	case <-a.stopped:
	case <-ctx.Done():
		if err == nil {
			err = ctx.Err()
		}
	}

	return err
}

func (a *AsyncPersister) enqueue(o op) error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return ErrClosed
	}

	if n := len(a.queue); o.kind == opSave && n > 0 && a.queue[n-1].kind == opSave {
		a.queue[n-1].entries = o.entries
	} else {
		a.queue = append(a.queue, o)
	}
	a.mu.Unlock()

	select {
	case a.wake <- struct{}{}:
	default:
	}

	return nil
}

func (a *AsyncPersister) run() {
	defer close(a.stopped)

	for {
		select {
		case <-a.wake:
			a.drain()
		case <-a.quit:
			a.drain()
			return
		}
	}
}

func (a *AsyncPersister) drain() {
	for {
		a.mu.Lock()
		if len(a.queue) == 0 {
			a.mu.Unlock()
			return
		}
		o := a.queue[0]
		a.queue = a.queue[1:]
		a.mu.Unlock()

		a.apply(o)
	}
}

func (a *AsyncPersister) apply(o op) {
	// Writes outlive the caller that queued them.
	ctx := context.Background()

	switch o.kind {
	case opSave:
		if err := a.next.Save(ctx, o.entries); err != nil {
			a.log.Error().Err(err).Int("entries", len(o.entries)).Msg("async save failed")
		}
	case opErase:
		if err := a.next.Erase(ctx); err != nil {
			a.log.Error().Err(err).Msg("async erase failed")
		}
	case opBarrier:
		close(o.done)
	}
}
