package cache

// Option applies a configuration option to the in-memory store.
type Option func(*memoryStore)

// WithMaxSize caps the number of cached handles.
// If maxSize > 0: bounded mode, the oldest written entry is evicted.
// If maxSize <= 0: unbounded mode.
func WithMaxSize(maxSize int) Option {
	return func(s *memoryStore) {
		s.maxSize = maxSize
	}
}
