//go:build linux

// File: transport/listener_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Non-blocking TCP listener registered read-interest with the reactor.

package transport

import (
	"fmt"
	"net"

	"golang.org/x/sys/unix"

	"github.com/momentics/pollio/api"
	"github.com/momentics/pollio/reactor"
)

// Listener accepts TCP connections via the poll protocol.
type Listener struct {
	r      *reactor.Reactor
	fd     int
	handle *reactor.Handle
	addr   *net.TCPAddr
	closed bool
}

// Listen binds a non-blocking AF_INET socket to addr ("host:port",
// port 0 for ephemeral) and registers it with the reactor.
func Listen(r *reactor.Reactor, addr string) (*Listener, error) {
	tcpAddr, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("resolve %q: %w", addr, err)
	}
	ip := tcpAddr.IP
	if ip == nil {
		ip = net.IPv4zero
	}
	ip4 := ip.To4()
	if ip4 == nil {
		return nil, fmt.Errorf("listen %q: %w", addr, api.ErrNotSupported)
	}

	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("socket create: %w", err)
	}
	_ = unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)

	sa := &unix.SockaddrInet4{Port: tcpAddr.Port}
	copy(sa.Addr[:], ip4)
	if err := unix.Bind(fd, sa); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("bind %q: %w", addr, err)
	}
	if err := unix.Listen(fd, unix.SOMAXCONN); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("listen %q: %w", addr, err)
	}

	handle, err := r.Register(fd, api.Readable)
	if err != nil {
		_ = unix.Close(fd)
		return nil, err
	}

	bound, err := unix.Getsockname(fd)
	if err != nil {
		_ = handle.Deregister(fd)
		_ = unix.Close(fd)
		return nil, fmt.Errorf("getsockname: %w", err)
	}
	return &Listener{r: r, fd: fd, handle: handle, addr: tcpAddrFromSockaddr(bound)}, nil
}

// Addr returns the bound address, with the kernel-assigned port when the
// caller bound port 0.
func (l *Listener) Addr() *net.TCPAddr { return l.addr }

// PollAccept accepts one pending connection. The accepted stream is
// registered for both directions. ready=false means the caller's waker has
// been parked on the read slot and a retry is due after the next edge.
func (l *Listener) PollAccept(w api.Waker) (stream *Stream, peer *net.TCPAddr, ready bool, err error) {
	if l.closed {
		return nil, nil, true, api.ErrClosed
	}
	if !l.handle.Readiness().IsReadable() {
		l.handle.SetReadWaker(w)
		return nil, nil, false, nil
	}
	for {
		nfd, sa, aerr := unix.Accept4(l.fd, unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
		switch aerr {
		case nil:
			s, serr := newStream(l.r, nfd, tcpAddrFromSockaddr(sa))
			if serr != nil {
				_ = unix.Close(nfd)
				l.handle.ResetReadWaker()
				return nil, nil, true, serr
			}
			l.handle.ResetReadWaker()
			return s, s.peer, true, nil
		case unix.EINTR:
			continue
		case unix.EAGAIN:
			l.handle.RemoveReadiness(api.Readable)
			l.handle.SetReadWaker(w)
			return nil, nil, false, nil
		default:
			l.handle.ResetReadWaker()
			return nil, nil, true, fmt.Errorf("accept: %w", aerr)
		}
	}
}

// Close deregisters the listener and closes its socket. Deregistration
// errors are absorbed.
func (l *Listener) Close() error {
	if l.closed {
		return nil
	}
	l.closed = true
	_ = l.handle.Deregister(l.fd)
	return unix.Close(l.fd)
}
