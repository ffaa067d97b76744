// Package sets provides a minimal generic hash set, used for the reserved
// subtree names threaded through discovery, indexing, and the watcher.
package sets

// Set is a hash set of comparable keys.
type Set[T comparable] map[T]struct{}

// New creates a set pre-populated with the provided values.
func New[T comparable](vals ...T) Set[T] {
	s := make(Set[T], len(vals))
	for _, v := range vals {
		s[v] = struct{}{}
	}
	return s
}

// Add inserts v into the set.
func (s Set[T]) Add(v T) { s[v] = struct{}{} }

// Has reports whether v is present.
func (s Set[T]) Has(v T) bool {
	_, ok := s[v]
	return ok
}

// Delete removes v if present.
func (s Set[T]) Delete(v T) { delete(s, v) }
