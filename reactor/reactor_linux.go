//go:build linux

// File: reactor/reactor_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Linux epoll(7)-based reactor. Sources are registered edge-triggered under
// slab-allocated tokens; the token rides in the epoll event payload.

package reactor

import (
	"fmt"
	"sync/atomic"

	"github.com/petermattis/goid"
	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"

	"github.com/momentics/pollio/api"
	"github.com/momentics/pollio/internal/slab"
)

// Reactor multiplexes OS readiness edges into per-source waker invocations.
//
// A reactor is owned by the goroutine that first calls into it; any access
// from another goroutine panics. Wakers stored in its nodes may themselves
// be woken from any goroutine.
type Reactor struct {
	epfd   int
	events []unix.EpollEvent
	nodes  *slab.Slab[*node]
	owner  atomic.Int64
	log    zerolog.Logger
}

// node tracks one registration. It exists in the slab iff the OS poller
// holds the corresponding epoll registration.
type node struct {
	readiness  api.Readiness
	readWaker  api.Waker
	writeWaker api.Waker
}

// New creates an epoll instance with the configured event buffer capacity.
func New(opts ...Option) (*Reactor, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("epoll create: %w", err)
	}
	return &Reactor{
		epfd:   epfd,
		events: make([]unix.EpollEvent, cfg.eventCapacity),
		nodes:  slab.New[*node](),
		log:    cfg.log,
	}, nil
}

// Register adds fd to the poller in edge-triggered mode under a fresh token
// and returns the handle bearing it. The new node starts with empty
// readiness and no-op wakers.
func (r *Reactor) Register(fd int, interest api.Readiness) (*Handle, error) {
	r.checkOwner()
	token := r.nodes.Insert(&node{
		readWaker:  api.NopWaker(),
		writeWaker: api.NopWaker(),
	})
	ev := unix.EpollEvent{Events: unix.EPOLLET, Fd: int32(token)}
	if interest.IsReadable() {
		ev.Events |= unix.EPOLLIN | unix.EPOLLRDHUP
	}
	if interest.IsWritable() {
		ev.Events |= unix.EPOLLOUT
	}
	if err := unix.EpollCtl(r.epfd, unix.EPOLL_CTL_ADD, fd, &ev); err != nil {
		r.nodes.Remove(token)
		return nil, fmt.Errorf("epoll ctl add: %w", err)
	}
	r.log.Trace().Int("token", token).Int("fd", fd).
		Stringer("interest", interest).Msg("registered")
	return &Handle{r: r, token: token}, nil
}

// Turn blocks up to timeoutMs (negative blocks indefinitely) waiting for OS
// events, folds each event's readiness into its node and invokes the
// corresponding wakers. Events whose token no longer maps to a node were
// deregistered between OS dispatch and delivery and are skipped silently.
// Returns the number of events received.
func (r *Reactor) Turn(timeoutMs int) (int, error) {
	r.checkOwner()
	r.log.Trace().Msg("begin turn")
	n, err := unix.EpollWait(r.epfd, r.events, timeoutMs)
	if err != nil {
		if err == unix.EINTR {
			return 0, nil
		}
		return 0, fmt.Errorf("epoll wait: %w", err)
	}
	for i := 0; i < n; i++ {
		ev := r.events[i]
		token := int(ev.Fd)
		nd, ok := r.nodes.Get(token)
		if !ok {
			continue
		}
		ready := readinessFromEpoll(ev.Events)
		nd.readiness |= ready
		r.log.Trace().Int("token", token).Stringer("readiness", ready).Msg("evented")
		if ready.IsReadable() {
			nd.readWaker.Wake()
		}
		if ready.IsWritable() {
			nd.writeWaker.Wake()
		}
	}
	return n, nil
}

// Close releases the epoll instance. Registered handles become inert.
func (r *Reactor) Close() error {
	return unix.Close(r.epfd)
}

// Len returns the number of live registrations.
func (r *Reactor) Len() int {
	r.checkOwner()
	return r.nodes.Len()
}

// checkOwner binds the reactor to the first goroutine that uses it and
// panics on access from any other. The reactor is deliberately
// goroutine-local; use Registration to signal it from elsewhere.
func (r *Reactor) checkOwner() {
	gid := goid.Get()
	if r.owner.CompareAndSwap(0, gid) {
		return
	}
	if own := r.owner.Load(); own != gid {
		panic(fmt.Sprintf("reactor: used from goroutine %d, owned by goroutine %d", gid, own))
	}
}

// readinessFromEpoll maps epoll event bits onto the adapter-visible mask.
// Error and hangup edges assert both directions so a parked reader or
// writer observes the failure on its next syscall.
func readinessFromEpoll(events uint32) api.Readiness {
	var ready api.Readiness
	if events&(unix.EPOLLIN|unix.EPOLLRDHUP|unix.EPOLLPRI) != 0 {
		ready |= api.Readable
	}
	if events&unix.EPOLLOUT != 0 {
		ready |= api.Writable
	}
	if events&(unix.EPOLLERR|unix.EPOLLHUP) != 0 {
		ready |= api.Readable | api.Writable
	}
	return ready
}

// Handle refers to one reactor registration.
type Handle struct {
	r     *Reactor
	token int
}

// Token returns the slab token backing this handle.
func (h *Handle) Token() int { return h.token }

// Readiness snapshots the node's accumulated mask.
func (h *Handle) Readiness() api.Readiness {
	h.r.checkOwner()
	if nd, ok := h.r.nodes.Get(h.token); ok {
		return nd.readiness
	}
	return 0
}

// RemoveReadiness clears the given bits. Adapters call this immediately
// after observing EAGAIN so the next edge re-sets the bit.
func (h *Handle) RemoveReadiness(mask api.Readiness) {
	h.r.checkOwner()
	if nd, ok := h.r.nodes.Get(h.token); ok {
		nd.readiness &^= mask
	}
}

// SetReadWaker installs w in the read slot.
func (h *Handle) SetReadWaker(w api.Waker) {
	h.r.checkOwner()
	if nd, ok := h.r.nodes.Get(h.token); ok {
		nd.readWaker = w
	}
}

// SetWriteWaker installs w in the write slot.
func (h *Handle) SetWriteWaker(w api.Waker) {
	h.r.checkOwner()
	if nd, ok := h.r.nodes.Get(h.token); ok {
		nd.writeWaker = w
	}
}

// ResetReadWaker restores the read slot to a no-op waker.
func (h *Handle) ResetReadWaker() { h.SetReadWaker(api.NopWaker()) }

// ResetWriteWaker restores the write slot to a no-op waker.
func (h *Handle) ResetWriteWaker() { h.SetWriteWaker(api.NopWaker()) }

// Deregister removes fd from the poller and frees the node. The token may
// be reused by a later registration. The OS registration goes first; the
// node is freed only once the poller no longer references its token.
func (h *Handle) Deregister(fd int) error {
	h.r.checkOwner()
	if _, ok := h.r.nodes.Get(h.token); !ok {
		return api.ErrNotRegistered
	}
	if err := unix.EpollCtl(h.r.epfd, unix.EPOLL_CTL_DEL, fd, nil); err != nil {
		return fmt.Errorf("epoll ctl del: %w", err)
	}
	h.r.nodes.Remove(h.token)
	return nil
}
