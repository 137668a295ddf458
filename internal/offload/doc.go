// Package offload
// Author: momentics <momentics@gmail.com>
//
// Process-wide queue that runs blocking filesystem syscalls on a dedicated
// worker goroutine and reports completion back to the reactor as a
// readiness edge. Submissions carry a token and a Registration handle; the
// worker enqueues the result under the token first and only then signals
// readiness, so a woken poller always finds its entry.
package offload
