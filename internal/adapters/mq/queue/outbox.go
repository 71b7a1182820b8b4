// Package queue holds the local outbox: the ordered list of writes the server
// has not acknowledged yet.
//
// Every mutation is written through to a Backend before the in-memory mirror
// changes, so a process restart loses nothing that Enqueue reported as saved.
package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/scoutsync/internal/domain/model"
	"github.com/okian/scoutsync/pkg/logger"
	"github.com/okian/scoutsync/pkg/metrics"
)

// Entry is one pending write. Seq is assigned by the Backend and increases
// strictly in enqueue order.
type Entry struct {
	Seq        int64
	Item       model.SyncItem
	EnqueuedAt time.Time
}

// Backend is the durable storage behind an Outbox.
type Backend interface {
	// Append stores item and returns its sequence number.
	Append(ctx context.Context, item model.SyncItem, at time.Time) (int64, error)
	// Load returns every stored entry in sequence order.
	Load(ctx context.Context) ([]Entry, error)
	// Truncate removes every entry.
	Truncate(ctx context.Context) error
	// DeleteThrough removes entries with Seq <= seq.
	DeleteThrough(ctx context.Context, seq int64) error
}

// Outbox is a durable FIFO of SyncItems. It is safe for concurrent use.
type Outbox struct {
	mu      sync.Mutex
	backend Backend
	entries []Entry
	closed  bool

	now func() time.Time
	log logger.Logger
}

// NewOutbox creates an Outbox and loads whatever the backend already holds.
func NewOutbox(ctx context.Context, backend Backend, opts ...Option) (*Outbox, error) {
	q := &Outbox{
		backend: backend,
		now:     time.Now,
		log:     logger.GetOrNop(),
	}
	for _, opt := range opts {
		opt(q)
	}

	entries, err := backend.Load(ctx)
	if err != nil {
		metrics.RecordErrorByComponent("outbox", "load_failed")
		return nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}
	q.entries = entries
	metrics.UpdateOutboxSize(len(entries))
	return q, nil
}

// Enqueue appends item. It returns only after the item is persisted.
func (q *Outbox) Enqueue(ctx context.Context, item model.SyncItem) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrClosed
	}
	at := q.now()
	seq, err := q.backend.Append(ctx, item, at)
	if err != nil {
		metrics.RecordErrorByComponent("outbox", "append_failed")
		q.log.Error(ctx, "outbox append failed", logger.String("kind", string(item.Kind)), logger.Error(err))
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	q.entries = append(q.entries, Entry{Seq: seq, Item: item, EnqueuedAt: at})
	metrics.RecordOutboxEnqueue()
	metrics.UpdateOutboxSize(len(q.entries))
	return nil
}

// PeekAll returns a copy of the pending entries in order.
func (q *Outbox) PeekAll(_ context.Context) []Entry {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]Entry, len(q.entries))
	copy(out, q.entries)
	return out
}

// Len returns the number of pending entries.
func (q *Outbox) Len(_ context.Context) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// Clear removes every entry.
func (q *Outbox) Clear(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrClosed
	}
	if err := q.backend.Truncate(ctx); err != nil {
		metrics.RecordErrorByComponent("outbox", "truncate_failed")
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	metrics.RecordOutboxDrained(len(q.entries))
	q.entries = nil
	metrics.UpdateOutboxSize(0)
	return nil
}

// RemoveThrough removes entries with Seq <= seq, leaving anything enqueued
// after a snapshot was taken.
func (q *Outbox) RemoveThrough(ctx context.Context, seq int64) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrClosed
	}
	n := 0
	for n < len(q.entries) && q.entries[n].Seq <= seq {
		n++
	}
	if n == 0 {
		return nil
	}
	if err := q.backend.DeleteThrough(ctx, seq); err != nil {
		metrics.RecordErrorByComponent("outbox", "delete_failed")
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	q.entries = append([]Entry(nil), q.entries[n:]...)
	metrics.RecordOutboxDrained(n)
	metrics.UpdateOutboxSize(len(q.entries))
	return nil
}

// Close stops further mutation. The backend is owned by the caller.
func (q *Outbox) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	return nil
}

// Items returns the items of entries in order.
func Items(entries []Entry) []model.SyncItem {
	out := make([]model.SyncItem, len(entries))
	for i := range entries {
		out[i] = entries[i].Item
	}
	return out
}

// LastSeq returns the sequence number of the final entry, or 0.
func LastSeq(entries []Entry) int64 {
	if len(entries) == 0 {
		return 0
	}
	return entries[len(entries)-1].Seq
}
