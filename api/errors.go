// File: api/errors.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Common error values used across the runtime.

package api

import "errors"

var (
	// ErrClosed indicates the adapter or listener has been closed.
	ErrClosed = errors.New("adapter is closed")

	// ErrNotRegistered indicates an operation on a token the reactor no
	// longer tracks.
	ErrNotRegistered = errors.New("token is not registered")

	// ErrNotSupported indicates an address family or operation the
	// transport does not implement.
	ErrNotSupported = errors.New("operation not supported")

	// ErrResultType indicates an offload result of the wrong kind was
	// delivered for a token. This is a programming error.
	ErrResultType = errors.New("offload result type mismatch")
)
