//go:build linux

// File: internal/offload/handle.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Typed polling handles over the token-indexed result map. These handles
// install no wakers themselves; the adapter that owns the Registration arms
// the reactor node before each pending return.

package offload

import (
	"os"

	"github.com/momentics/pollio/api"
)

type handle struct {
	q     *Queue
	token uint64
}

func (h handle) poll() (result, bool) {
	return h.q.take(h.token)
}

func (h handle) discard() {
	h.q.discardToken(h.token)
}

// OpenHandle resolves to the opened file or the preserved I/O error.
type OpenHandle struct {
	h handle
}

// Poll retrieves the open result if the worker has delivered it.
func (o *OpenHandle) Poll() (*os.File, bool, error) {
	res, ok := o.h.poll()
	if !ok {
		return nil, false, nil
	}
	if res.kind != opOpen {
		return nil, true, api.ErrResultType
	}
	return res.file, true, res.err
}

// Discard abandons the submission; an uncollected result is reclaimed.
func (o *OpenHandle) Discard() { o.h.discard() }

// ReadHandle resolves to the read bytes or the preserved I/O error.
type ReadHandle struct {
	h handle
}

// Poll retrieves the read result if the worker has delivered it.
func (r *ReadHandle) Poll() ([]byte, bool, error) {
	res, ok := r.h.poll()
	if !ok {
		return nil, false, nil
	}
	if res.kind != opRead {
		return nil, true, api.ErrResultType
	}
	return res.data, true, res.err
}

// Discard abandons the submission; an uncollected result is reclaimed.
func (r *ReadHandle) Discard() { r.h.discard() }
