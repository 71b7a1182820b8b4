// Package dedupe remembers which raw QR payloads a scan session has already
// accepted so a code held in front of the camera is imported once.
package dedupe

import (
	"container/list"
	"context"
	"sync"
)

// DefaultMaxSize bounds a session. A scouting event produces far fewer codes.
const DefaultMaxSize = 10000

// Deduper tracks seen keys.
type Deduper interface {
	// SeenAndRecord reports whether key was already seen and records it if not.
	SeenAndRecord(ctx context.Context, key string) bool

	// Unrecord forgets key so a later attempt is treated as new. Used when the
	// payload was recorded but its import failed.
	Unrecord(ctx context.Context, key string)

	Size() int64
}

type memoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]*list.Element
	order   *list.List // front is newest
	maxSize int
}

// New returns an in-memory Deduper. It is safe for concurrent use.
func New(opts ...Option) Deduper {
	d := &memoryDeduper{maxSize: DefaultMaxSize}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]*list.Element)
	d.order = list.New()
	return d
}

func (d *memoryDeduper) SeenAndRecord(_ context.Context, key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[key]; ok {
		return true
	}
	if d.maxSize > 0 && len(d.seen) >= d.maxSize {
		oldest := d.order.Back()
		d.order.Remove(oldest)
		delete(d.seen, oldest.Value.(string))
	}
	d.seen[key] = d.order.PushFront(key)
	return false
}

func (d *memoryDeduper) Unrecord(_ context.Context, key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if el, ok := d.seen[key]; ok {
		d.order.Remove(el)
		delete(d.seen, key)
	}
}

func (d *memoryDeduper) Size() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int64(len(d.seen))
}
