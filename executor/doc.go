// Package executor
// Author: momentics <momentics@gmail.com>
//
// Single-goroutine cooperative executor. Tasks are opaque poll-style
// futures keyed by monotonically increasing integers; a shared woken set
// decides which tasks the next Run pass polls. Wakers minted for tasks may
// fire from any goroutine, so the woken set is the one mutex-guarded piece
// of executor state.
package executor
