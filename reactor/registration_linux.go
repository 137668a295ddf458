//go:build linux

// File: reactor/registration_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// User-driven readiness source backed by an eventfd. The offload worker
// writes to it from its own goroutine; the reactor observes the edge on its
// next turn and wakes whatever waker the owning adapter parked.

package reactor

import (
	"fmt"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Registration is an in-process readiness primitive. Its file descriptor is
// registered with a Reactor like any pollable source; SetReadiness produces
// a readable edge from any goroutine.
//
// SetReadiness stays safe after Close: the two serialize on an internal
// mutex, and a signal arriving after the close is dropped. Without that, a
// signaler still holding the handle would write into whatever descriptor
// the kernel reused the number for.
type Registration struct {
	mu     sync.Mutex
	fd     int
	closed bool
}

// NewRegistration creates a non-blocking eventfd.
func NewRegistration() (*Registration, error) {
	fd, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("eventfd: %w", err)
	}
	return &Registration{fd: fd}, nil
}

// Fd returns the pollable descriptor to register with the reactor.
func (g *Registration) Fd() int { return g.fd }

// SetReadiness asserts a readable edge. Safe from any goroutine, including
// after Close, where it is a no-op.
func (g *Registration) SetReadiness() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return nil
	}
	var one uint64 = 1
	buf := (*[8]byte)(unsafe.Pointer(&one))[:]
	if _, err := unix.Write(g.fd, buf); err != nil {
		return fmt.Errorf("eventfd write: %w", err)
	}
	return nil
}

// Drain consumes the pending counter so the next SetReadiness produces a
// fresh edge. Call after collecting the event the signal announced.
func (g *Registration) Drain() {
	var buf [8]byte
	for {
		if _, err := unix.Read(g.fd, buf[:]); err != nil {
			if err == unix.EINTR {
				continue
			}
			return // EAGAIN: drained
		}
	}
}

// Close releases the eventfd. Later SetReadiness calls are inert.
func (g *Registration) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return nil
	}
	g.closed = true
	return unix.Close(g.fd)
}
