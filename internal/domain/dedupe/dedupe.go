// Package dedupe tracks keys that were already counted, so a record seen
// twice contributes once.
package dedupe

import (
	"context"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultMaxSize bounds a deduper built without WithMaxSize.
const DefaultMaxSize = 50_000

// Deduper records seen keys.
type Deduper interface {
	// SeenAndRecord atomically checks if key was seen and records it if not.
	// Returns true if key was already seen, false if it was newly recorded.
	SeenAndRecord(ctx context.Context, key string) bool

	// Unrecord forgets key.
	Unrecord(ctx context.Context, key string)

	Size() int64
}

// NewInMemoryDeduper creates an in-memory deduper. A positive max size keeps
// the most recently recorded keys and evicts the oldest; zero or negative
// keeps every key.
func NewInMemoryDeduper(opts ...Option) Deduper {
	o := options{maxSize: DefaultMaxSize}
	for _, opt := range opts {
		opt(&o)
	}
	if o.maxSize <= 0 {
		return &unbounded{seen: make(map[string]struct{})}
	}
	// lru.New only fails for a non-positive size.
	c, _ := lru.New[string, struct{}](o.maxSize)
	return &bounded{seen: c}
}

type bounded struct {
	seen *lru.Cache[string, struct{}]
}

func (d *bounded) SeenAndRecord(_ context.Context, key string) bool {
	ok, _ := d.seen.ContainsOrAdd(key, struct{}{})
	return ok
}

func (d *bounded) Unrecord(_ context.Context, key string) { d.seen.Remove(key) }

func (d *bounded) Size() int64 { return int64(d.seen.Len()) }

type unbounded struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func (d *unbounded) SeenAndRecord(_ context.Context, key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.seen[key]; ok {
		return true
	}
	d.seen[key] = struct{}{}
	return false
}

func (d *unbounded) Unrecord(_ context.Context, key string) {
	d.mu.Lock()
	delete(d.seen, key)
	d.mu.Unlock()
}

func (d *unbounded) Size() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int64(len(d.seen))
}
