// File: executor/woken.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Woken set and task wakers.

package executor

import "sync"

// WokenSet holds the task keys scheduled for the next Run pass. It is
// shared between the executor and every waker it mints.
type WokenSet struct {
	mu   sync.Mutex
	keys map[uint64]struct{}
}

func newWokenSet() *WokenSet {
	return &WokenSet{keys: make(map[uint64]struct{})}
}

// Add schedules key for the next pass. Safe from any goroutine; adding a
// key whose task has completed is benign.
func (s *WokenSet) Add(key uint64) {
	s.mu.Lock()
	s.keys[key] = struct{}{}
	s.mu.Unlock()
}

// Len returns the number of scheduled keys.
func (s *WokenSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.keys)
}

// drain removes and returns the current snapshot. Keys added while the
// snapshot is being polled land in the emptied set and survive into the
// next pass.
func (s *WokenSet) drain() []uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]uint64, 0, len(s.keys))
	for k := range s.keys {
		keys = append(keys, k)
	}
	clear(s.keys)
	return keys
}

// taskWaker binds a task key to the woken set. Value copies are clones and
// retain the binding.
type taskWaker struct {
	key   uint64
	woken *WokenSet
}

func (w taskWaker) Wake() { w.woken.Add(w.key) }
