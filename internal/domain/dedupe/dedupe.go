// Package dedupe tracks signal source keys already seen during an import.
package dedupe

import (
	"container/list"
	"context"
	"sync"
	"sync/atomic"
)

// DefaultMaxSize bounds the number of keys remembered by default.
const DefaultMaxSize = 50000

// Deduper records seen source keys so a batch writes each signal once.
type Deduper interface {
	// SeenAndRecord reports whether key was already recorded and records it
	// if not. It is safe for concurrent use.
	SeenAndRecord(ctx context.Context, key string) bool

	Size() int64
}

// inMemoryDeduper keeps keys in a map. In bounded mode (maxSize > 0) the
// oldest key is evicted once the limit is reached; an evicted key that shows
// up again falls through to the store's unique constraint.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]*list.Element
	order   *list.List
	maxSize int
	size    atomic.Int64
}

// NewInMemoryDeduper creates an in-memory deduper.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: DefaultMaxSize,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]*list.Element)
	d.order = list.New()
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[key]; ok {
		return true
	}

	if d.maxSize > 0 && len(d.seen) >= d.maxSize {
		d.evictOldest()
	}

	d.seen[key] = d.order.PushBack(key)
	d.size.Add(1)
	return false
}

// evictOldest drops the first recorded key. Caller holds d.mu.
func (d *inMemoryDeduper) evictOldest() {
	front := d.order.Front()
	if front == nil {
		return
	}
	d.order.Remove(front)
	delete(d.seen, front.Value.(string))
	d.size.Add(-1)
}

// Size returns the number of keys currently remembered.
func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}
