package cache

// Null is the no-op cache: every Get is a miss, every Set is dropped.
// Used when no cache backend is configured, so callers get "always miss"
// semantics without nil checks.
type Null[T any] struct{}

// NewNull creates a Null cache.
func NewNull[T any]() *Null[T] { return &Null[T]{} }

// Get always misses.
func (Null[T]) Get(string) (T, bool) {
	var zero T
	return zero, false
}

// Set drops the value.
func (Null[T]) Set(string, T) {}

// Delete is a no-op.
func (Null[T]) Delete(string) {}
