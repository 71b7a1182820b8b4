package queue

import (
	"context"
	"sync"
	"time"

	"github.com/okian/scoutsync/internal/domain/model"
)

// MemoryBackend keeps entries in process memory. It is used by tests and by
// tools that do not need restart durability.
type MemoryBackend struct {
	mu      sync.Mutex
	next    int64
	entries []Entry
}

// NewMemoryBackend returns an empty MemoryBackend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

func (b *MemoryBackend) Append(_ context.Context, item model.SyncItem, at time.Time) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.next++
	b.entries = append(b.entries, Entry{Seq: b.next, Item: item, EnqueuedAt: at})
	return b.next, nil
}

func (b *MemoryBackend) Load(_ context.Context) ([]Entry, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Entry, len(b.entries))
	copy(out, b.entries)
	return out, nil
}

func (b *MemoryBackend) Truncate(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = nil
	return nil
}

func (b *MemoryBackend) DeleteThrough(_ context.Context, seq int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for n < len(b.entries) && b.entries[n].Seq <= seq {
		n++
	}
	b.entries = append([]Entry(nil), b.entries[n:]...)
	return nil
}
