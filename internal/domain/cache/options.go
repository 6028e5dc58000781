package cache

// Option applies a configuration option to the in-memory cache.
type Option func(*inMemoryCache)

// WithMaxSize sets the maximum number of inputs to keep.
// If maxSize > 0: bounded mode, the oldest entry is evicted first.
// If maxSize <= 0: caching is disabled and every lookup misses.
func WithMaxSize(maxSize int) Option {
	return func(c *inMemoryCache) {
		c.maxSize = maxSize
	}
}
