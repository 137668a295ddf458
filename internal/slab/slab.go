// File: internal/slab/slab.go
// Package slab implements a dense integer-keyed allocator with free-list reuse.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// The reactor keys its nodes by the small integers this slab hands out, so
// tokens stay dense and freed tokens are reused for later registrations.

package slab

// Slab stores values under dense non-negative integer keys.
// Not safe for concurrent use; the owner serializes access.
type Slab[T any] struct {
	entries []entry[T]
	free    []int // keys available for reuse, LIFO
	len     int
}

type entry[T any] struct {
	val  T
	live bool
}

// New returns an empty slab.
func New[T any]() *Slab[T] {
	return &Slab[T]{}
}

// Insert stores val and returns its key.
func (s *Slab[T]) Insert(val T) int {
	s.len++
	if n := len(s.free); n > 0 {
		key := s.free[n-1]
		s.free = s.free[:n-1]
		s.entries[key] = entry[T]{val: val, live: true}
		return key
	}
	s.entries = append(s.entries, entry[T]{val: val, live: true})
	return len(s.entries) - 1
}

// Get returns the value under key, if present.
func (s *Slab[T]) Get(key int) (T, bool) {
	if key < 0 || key >= len(s.entries) || !s.entries[key].live {
		var zero T
		return zero, false
	}
	return s.entries[key].val, true
}

// Remove frees key and reports whether it was present.
func (s *Slab[T]) Remove(key int) bool {
	if key < 0 || key >= len(s.entries) || !s.entries[key].live {
		return false
	}
	var zero T
	s.entries[key] = entry[T]{val: zero}
	s.free = append(s.free, key)
	s.len--
	return true
}

// Len returns the number of live entries.
func (s *Slab[T]) Len() int { return s.len }
