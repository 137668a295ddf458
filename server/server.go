//go:build linux

// File: server/server.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// HTTP server driver: accept task plus per-connection state machines. The
// spawned tasks share an immutable core (listener, handler, spawner); no
// task owns the server back, so the sharing is acyclic.

package server

import (
	"github.com/rs/zerolog"

	"github.com/momentics/pollio/api"
	"github.com/momentics/pollio/executor"
	"github.com/momentics/pollio/reactor"
	"github.com/momentics/pollio/transport"
)

// Server wires a listener and an application handler into the runtime.
type Server struct {
	reactor *reactor.Reactor
	exec    *executor.Executor
	core    *serverCore
}

// serverCore is the immutable part shared by every spawned task.
type serverCore struct {
	ln      *transport.Listener
	handler Handler
	exec    *executor.Executor
	log     zerolog.Logger
}

// Option customizes server initialization.
type Option func(*Server)

// WithLogger attaches a logger for accept/connection events.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Server) { s.core.log = log }
}

// New assembles a server from an already-constructed reactor, executor,
// listener and handler.
func New(r *reactor.Reactor, ex *executor.Executor, ln *transport.Listener, h Handler, opts ...Option) *Server {
	s := &Server{
		reactor: r,
		exec:    ex,
		core: &serverCore{
			ln:      ln,
			handler: h,
			exec:    ex,
			log:     zerolog.Nop(),
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run spawns the accept task and drives the loop: block on the reactor,
// then poll woken tasks. It returns only if the reactor fails.
func (s *Server) Run() error {
	s.exec.Spawn(&acceptTask{core: s.core})
	for {
		if _, err := s.reactor.Turn(-1); err != nil {
			return err
		}
		s.exec.Run()
	}
}

// acceptTask accepts connections forever, spawning one connection task per
// accepted stream. Accept errors are logged and accepting continues.
type acceptTask struct {
	core *serverCore
}

func (t *acceptTask) Poll(w api.Waker) bool {
	for {
		stream, peer, ready, err := t.core.ln.PollAccept(w)
		if !ready {
			return false
		}
		if err != nil {
			if err == api.ErrClosed {
				return true
			}
			t.core.log.Warn().Err(err).Msg("accept failed")
			continue
		}
		t.core.log.Info().Stringer("peer", peer).Msg("accepted")
		t.core.exec.Spawn(&connTask{core: t.core, stream: stream, buf: make([]byte, maxRequestBytes)})
	}
}

type connState int

const (
	connReading connState = iota
	connServing
	connWriting
)

// connTask handles one connection: a single bounded read, the application
// handler, a single response, close.
type connTask struct {
	core    *serverCore
	stream  *transport.Stream
	state   connState
	buf     []byte
	respFut ResponseFuture
	out     []byte
}

func (t *connTask) Poll(w api.Waker) bool {
	for {
		switch t.state {
		case connReading:
			n, ready, err := t.stream.PollRead(w, t.buf)
			if !ready {
				return false
			}
			if err != nil {
				t.core.log.Warn().Err(err).Msg("request read failed")
				return t.finish()
			}
			req, ok := parseRequest(t.buf[:n])
			if !ok {
				// Malformed request line: drop without a response.
				return t.finish()
			}
			t.respFut = t.core.handler.Serve(req)
			t.state = connServing

		case connServing:
			res, ready := t.respFut.Poll(w)
			if !ready {
				return false
			}
			t.out = res.marshal()
			t.state = connWriting

		case connWriting:
			if len(t.out) == 0 {
				return t.finish()
			}
			n, ready, err := t.stream.PollWrite(w, t.out)
			if !ready {
				return false
			}
			if err != nil {
				t.core.log.Warn().Err(err).Msg("response write failed")
				return t.finish()
			}
			t.out = t.out[n:]
		}
	}
}

func (t *connTask) finish() bool {
	_ = t.stream.Close()
	return true
}
