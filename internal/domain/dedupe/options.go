package dedupe

// Option applies a configuration option to NewInMemoryDeduper.
type Option func(*options)

type options struct {
	maxSize int
}

// WithMaxSize sets the maximum number of keys to keep in memory.
// If maxSize > 0: bounded, the oldest key is evicted first.
// If maxSize <= 0: unbounded.
func WithMaxSize(maxSize int) Option {
	return func(o *options) {
		o.maxSize = maxSize
	}
}
