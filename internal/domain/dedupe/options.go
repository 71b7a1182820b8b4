package dedupe

// Option configures a Deduper built by New.
type Option func(*memoryDeduper)

// WithMaxSize bounds the number of remembered keys. When full, the oldest key
// is forgotten. A non-positive size means unbounded.
func WithMaxSize(maxSize int) Option {
	return func(d *memoryDeduper) {
		d.maxSize = maxSize
	}
}
