package prefkit

import (
	"cmp"
	"slices"
)

// Set is an unordered collection of distinct values.
// Set[string] is the storage type for text-set preferences.
type Set[T comparable] map[T]struct{}

// NewSet returns a set holding the given values.
func NewSet[T comparable](values ...T) Set[T] {
	s := make(Set[T], len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

// Add inserts v into the set.
func (s Set[T]) Add(v T) {
	s[v] = struct{}{}
}

// Delete removes v from the set.
func (s Set[T]) Delete(v T) {
	delete(s, v)
}

// Has reports whether v is in the set.
func (s Set[T]) Has(v T) bool {
	_, ok := s[v]
	return ok
}

// Len returns the number of values in the set.
func (s Set[T]) Len() int {
	return len(s)
}

// Slice returns the values of the set in unspecified order.
func (s Set[T]) Slice() []T {
	if s == nil {
		return nil
	}
	out := make([]T, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	return out
}

// Clone returns a shallow copy of the set. Cloning a nil set returns nil.
func (s Set[T]) Clone() Set[T] {
	if s == nil {
		return nil
	}
	out := make(Set[T], len(s))
	for v := range s {
		out[v] = struct{}{}
	}
	return out
}

// Equal reports whether both sets hold the same values.
func (s Set[T]) Equal(o Set[T]) bool {
	if len(s) != len(o) {
		return false
	}
	for v := range s {
		if _, ok := o[v]; !ok {
			return false
		}
	}
	return true
}

// Sorted returns the values of s in ascending order.
func Sorted[T cmp.Ordered](s Set[T]) []T {
	out := s.Slice()
	slices.Sort(out)
	return out
}
