//go:build linux

// File: transport/file_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Asynchronous file handle. Files are not pollable, so the adapter owns an
// eventfd Registration bound to a reactor node; open and read run on the
// offload worker, which signals the node readable once the result is
// enqueued. The adapter arms the node's read waker before every pending
// return; that edge is the only thing that re-polls the task.

package transport

import (
	"os"

	"github.com/momentics/pollio/api"
	"github.com/momentics/pollio/internal/offload"
	"github.com/momentics/pollio/reactor"
)

// File performs reads through the offload queue. At most one read is in
// flight per file, which also serializes access to the file offset.
type File struct {
	f       *os.File
	reg     *reactor.Registration
	handle  *reactor.Handle
	pending *offload.ReadHandle
	closed  bool
}

// OpenFuture resolves to an open File or the preserved I/O error.
type OpenFuture struct {
	file *File
	open *offload.OpenHandle
	done bool
}

// Open submits a blocking open of path to the offload queue and returns the
// future tracking it. The returned future must be polled on the reactor's
// goroutine.
func Open(r *reactor.Reactor, path string) (*OpenFuture, error) {
	reg, err := reactor.NewRegistration()
	if err != nil {
		return nil, err
	}
	handle, err := r.Register(reg.Fd(), api.Readable)
	if err != nil {
		_ = reg.Close()
		return nil, err
	}
	open := offload.Default().PushOpen(path, reg)
	return &OpenFuture{
		file: &File{reg: reg, handle: handle},
		open: open,
	}, nil
}

// Poll drives the open. Pending returns arm the registration node's read
// waker; the worker's readiness edge wakes the task to collect the result.
func (o *OpenFuture) Poll(w api.Waker) (*File, bool, error) {
	if o.done {
		return nil, true, api.ErrClosed
	}
	f, ready, err := o.open.Poll()
	if !ready {
		o.file.handle.SetReadWaker(w)
		return nil, false, nil
	}
	o.done = true
	o.file.consumeEdge()
	if err != nil {
		o.file.teardown()
		return nil, true, err
	}
	o.file.f = f
	return o.file, true, nil
}

// Close abandons an unresolved open. The worker's result is reclaimed when
// it arrives; the registration is torn down immediately.
func (o *OpenFuture) Close() error {
	if o.done {
		return nil
	}
	o.done = true
	o.open.Discard()
	o.file.teardown()
	return nil
}

// Std exposes the underlying blocking file.
func (f *File) Std() *os.File { return f.f }

// PollRead reads up to len(buf) bytes via the offload queue. The first poll
// submits the request; subsequent polls drive it. The completed buffer is
// copied into buf and its length returned.
func (f *File) PollRead(w api.Waker, buf []byte) (n int, ready bool, err error) {
	if f.closed {
		return 0, true, api.ErrClosed
	}
	if f.pending == nil {
		f.pending = offload.Default().PushRead(f.f, len(buf), f.reg)
	}
	data, done, rerr := f.pending.Poll()
	if !done {
		f.handle.SetReadWaker(w)
		return 0, false, nil
	}
	f.pending = nil
	f.consumeEdge()
	if rerr != nil {
		return 0, true, rerr
	}
	return copy(buf, data), true, nil
}

// consumeEdge resets the waker, drains the eventfd counter and clears the
// accumulated readable bit so the next offload completion is a fresh edge.
func (f *File) consumeEdge() {
	f.handle.ResetReadWaker()
	f.reg.Drain()
	f.handle.RemoveReadiness(api.Readable)
}

// Close discards any in-flight read, removes the reactor node and closes
// both the eventfd and the file. Deregistration errors are absorbed.
func (f *File) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true
	if f.pending != nil {
		f.pending.Discard()
		f.pending = nil
	}
	f.teardown()
	if f.f != nil {
		return f.f.Close()
	}
	return nil
}

func (f *File) teardown() {
	_ = f.handle.Deregister(f.reg.Fd())
	_ = f.reg.Close()
}
