// File: api/readiness.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Readiness bitmask shared between the reactor and the I/O adapters.

package api

import "strings"

// Readiness is a set of I/O directions a source is ready for.
//
// Within the reactor a node's readiness accumulates monotonically across
// turns; only the owning adapter clears bits, and only after observing
// EAGAIN on the underlying syscall.
type Readiness uint8

const (
	// Readable indicates the source can be read without blocking.
	Readable Readiness = 1 << iota
	// Writable indicates the source can be written without blocking.
	Writable
)

// IsReadable reports whether the mask contains Readable.
func (r Readiness) IsReadable() bool { return r&Readable != 0 }

// IsWritable reports whether the mask contains Writable.
func (r Readiness) IsWritable() bool { return r&Writable != 0 }

// Contains reports whether every bit of other is set in r.
func (r Readiness) Contains(other Readiness) bool { return r&other == other }

// String renders the mask for trace logs.
func (r Readiness) String() string {
	if r == 0 {
		return "none"
	}
	var parts []string
	if r.IsReadable() {
		parts = append(parts, "readable")
	}
	if r.IsWritable() {
		parts = append(parts, "writable")
	}
	return strings.Join(parts, "|")
}
