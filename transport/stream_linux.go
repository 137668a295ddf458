//go:build linux

// File: transport/stream_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Non-blocking TCP stream with short-read/short-write poll semantics.

package transport

import (
	"fmt"
	"net"

	"golang.org/x/sys/unix"

	"github.com/momentics/pollio/api"
	"github.com/momentics/pollio/reactor"
)

// Stream is an accepted TCP connection registered for both directions.
type Stream struct {
	fd     int
	handle *reactor.Handle
	peer   *net.TCPAddr
	closed bool
}

func newStream(r *reactor.Reactor, fd int, peer *net.TCPAddr) (*Stream, error) {
	handle, err := r.Register(fd, api.Readable|api.Writable)
	if err != nil {
		return nil, err
	}
	return &Stream{fd: fd, handle: handle, peer: peer}, nil
}

// PeerAddr returns the remote endpoint.
func (s *Stream) PeerAddr() *net.TCPAddr { return s.peer }

// PollRead reads into buf. A zero count with ready=true is end of stream.
func (s *Stream) PollRead(w api.Waker, buf []byte) (n int, ready bool, err error) {
	if s.closed {
		return 0, true, api.ErrClosed
	}
	if !s.handle.Readiness().IsReadable() {
		s.handle.SetReadWaker(w)
		return 0, false, nil
	}
	for {
		n, rerr := unix.Read(s.fd, buf)
		switch rerr {
		case nil:
			s.handle.ResetReadWaker()
			return n, true, nil
		case unix.EINTR:
			continue
		case unix.EAGAIN:
			s.handle.RemoveReadiness(api.Readable)
			s.handle.SetReadWaker(w)
			return 0, false, nil
		default:
			s.handle.ResetReadWaker()
			return 0, true, fmt.Errorf("read: %w", rerr)
		}
	}
}

// PollWrite writes from buf, possibly short.
func (s *Stream) PollWrite(w api.Waker, buf []byte) (n int, ready bool, err error) {
	if s.closed {
		return 0, true, api.ErrClosed
	}
	if !s.handle.Readiness().IsWritable() {
		s.handle.SetWriteWaker(w)
		return 0, false, nil
	}
	for {
		n, werr := unix.Write(s.fd, buf)
		switch werr {
		case nil:
			s.handle.ResetWriteWaker()
			return n, true, nil
		case unix.EINTR:
			continue
		case unix.EAGAIN:
			s.handle.RemoveReadiness(api.Writable)
			s.handle.SetWriteWaker(w)
			return 0, false, nil
		default:
			s.handle.ResetWriteWaker()
			return 0, true, fmt.Errorf("write: %w", werr)
		}
	}
}

// Close deregisters the stream and closes the socket, cancelling any
// waiting on this source. Deregistration errors are absorbed.
func (s *Stream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	_ = s.handle.Deregister(s.fd)
	return unix.Close(s.fd)
}
