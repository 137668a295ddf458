// Package api
// Author: momentics <momentics@gmail.com>
//
// Shared contracts of the pollio runtime: wakers, poll-style futures,
// readiness masks and common error values. The concrete reactor, executor
// and adapters live in their own packages and depend only on these types.
package api
