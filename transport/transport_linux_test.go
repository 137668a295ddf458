//go:build linux

// File: transport/transport_linux_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package transport

import (
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/momentics/pollio/api"
	"github.com/momentics/pollio/reactor"
)

func newTestReactor(t *testing.T) *reactor.Reactor {
	t.Helper()
	r, err := reactor.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

// pollUntil drives turn/poll until poll reports done or the deadline hits.
// The no-op waker suffices because the loop re-polls after every turn.
func pollUntil(t *testing.T, r *reactor.Reactor, poll func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !poll() {
		require.True(t, time.Now().Before(deadline), "poll did not complete before deadline")
		_, err := r.Turn(200)
		require.NoError(t, err)
	}
}

func TestAcceptCompletesWithPeerAddress(t *testing.T) {
	r := newTestReactor(t)
	ln, err := Listen(r, "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	require.NotZero(t, ln.Addr().Port, "ephemeral port not resolved")

	clientCh := make(chan net.Conn, 1)
	go func() {
		c, dialErr := net.Dial("tcp", ln.Addr().String())
		if dialErr != nil {
			t.Errorf("dial: %v", dialErr)
			clientCh <- nil
			return
		}
		clientCh <- c
	}()

	w := api.NopWaker()
	var stream *Stream
	var peer *net.TCPAddr
	pollUntil(t, r, func() bool {
		s, p, ready, aerr := ln.PollAccept(w)
		if !ready {
			return false
		}
		require.NoError(t, aerr)
		stream, peer = s, p
		return true
	})
	defer stream.Close()

	require.NotNil(t, peer)
	require.True(t, peer.IP.IsLoopback(), "peer = %v", peer)

	if client := <-clientCh; client != nil {
		_ = client.Close()
	}
}

func TestStreamEcho(t *testing.T) {
	r := newTestReactor(t)
	ln, err := Listen(r, "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	echoed := make(chan []byte, 1)
	go func() {
		c, dialErr := net.Dial("tcp", ln.Addr().String())
		if dialErr != nil {
			t.Errorf("dial: %v", dialErr)
			echoed <- nil
			return
		}
		defer c.Close()
		_ = c.SetDeadline(time.Now().Add(5 * time.Second))
		_, _ = c.Write([]byte("ping"))
		buf := make([]byte, 16)
		n, rerr := c.Read(buf)
		if rerr != nil {
			t.Errorf("client read: %v", rerr)
			echoed <- nil
			return
		}
		echoed <- buf[:n]
	}()

	w := api.NopWaker()
	var stream *Stream
	pollUntil(t, r, func() bool {
		s, _, ready, aerr := ln.PollAccept(w)
		if !ready {
			return false
		}
		require.NoError(t, aerr)
		stream = s
		return true
	})
	defer stream.Close()

	in := make([]byte, 16)
	var n int
	pollUntil(t, r, func() bool {
		m, ready, rerr := stream.PollRead(w, in)
		if !ready {
			return false
		}
		require.NoError(t, rerr)
		n = m
		return true
	})
	require.Equal(t, "ping", string(in[:n]))

	out := in[:n]
	pollUntil(t, r, func() bool {
		m, ready, werr := stream.PollWrite(w, out)
		if !ready {
			return false
		}
		require.NoError(t, werr)
		out = out[m:]
		return len(out) == 0
	})

	require.Equal(t, "ping", string(<-echoed))
}

func TestAdapterLifecycleMatchesReactorNodes(t *testing.T) {
	r := newTestReactor(t)
	require.Equal(t, 0, r.Len())

	ln, err := Listen(r, "127.0.0.1:0")
	require.NoError(t, err)
	require.Equal(t, 1, r.Len(), "one live adapter, one reactor node")

	require.NoError(t, ln.Close())
	require.Equal(t, 0, r.Len(), "dropping the adapter removes its node")
	require.NoError(t, ln.Close(), "double close is a no-op")
}

func TestFileOpenAndRead(t *testing.T) {
	r := newTestReactor(t)
	content := []byte("hello, offload")
	path := filepath.Join(t.TempDir(), "data.txt")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	fut, err := Open(r, path)
	require.NoError(t, err)

	w := api.NopWaker()
	var file *File
	pollUntil(t, r, func() bool {
		f, ready, oerr := fut.Poll(w)
		if !ready {
			return false
		}
		require.NoError(t, oerr)
		file = f
		return true
	})
	require.NotNil(t, file.Std())

	buf := make([]byte, 1024)
	var n int
	pollUntil(t, r, func() bool {
		m, ready, rerr := file.PollRead(w, buf)
		if !ready {
			return false
		}
		require.NoError(t, rerr)
		n = m
		return true
	})
	require.Equal(t, content, buf[:n])

	// A second read sits at EOF: zero-length success.
	pollUntil(t, r, func() bool {
		m, ready, rerr := file.PollRead(w, buf)
		if !ready {
			return false
		}
		require.NoError(t, rerr)
		require.Zero(t, m)
		return true
	})

	require.NoError(t, file.Close())
	require.Equal(t, 0, r.Len(), "file close must free its reactor node")
}

func TestOpenFutureCloseWithInFlightOp(t *testing.T) {
	r := newTestReactor(t)

	// Opening a fifo read-only parks the worker until a writer appears.
	fifo := filepath.Join(t.TempDir(), "fifo")
	require.NoError(t, unix.Mkfifo(fifo, 0o600))
	fut, err := Open(r, fifo)
	require.NoError(t, err)
	require.Equal(t, 1, r.Len())

	require.NoError(t, fut.Close())
	require.Equal(t, 0, r.Len(), "abandoned open must free its reactor node")

	// Reuse the freed descriptor number, then let the worker finish; its
	// completion signal must not reach the unrelated pair.
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, 0)
	require.NoError(t, err)
	defer unix.Close(fds[0])
	defer unix.Close(fds[1])
	wr, err := os.OpenFile(fifo, os.O_WRONLY, 0)
	require.NoError(t, err)
	defer wr.Close()

	require.Never(t, func() bool {
		buf := make([]byte, 16)
		for _, fd := range fds {
			if n, _ := unix.Read(fd, buf); n > 0 {
				return true
			}
		}
		return false
	}, 500*time.Millisecond, 10*time.Millisecond, "stale signal reached an unrelated socket")

	_, ready, perr := fut.Poll(api.NopWaker())
	require.True(t, ready)
	require.ErrorIs(t, perr, api.ErrClosed)
}

func TestFileOpenNotFound(t *testing.T) {
	r := newTestReactor(t)
	fut, err := Open(r, filepath.Join(t.TempDir(), "missing"))
	require.NoError(t, err)

	w := api.NopWaker()
	var openErr error
	pollUntil(t, r, func() bool {
		_, ready, oerr := fut.Poll(w)
		if !ready {
			return false
		}
		openErr = oerr
		return true
	})
	require.Error(t, openErr)
	require.True(t, os.IsNotExist(openErr), "error kind: %v", openErr)
	require.Equal(t, 0, r.Len(), "failed open must tear down its registration")
}
