//go:build linux

// File: internal/offload/queue.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Blocking-I/O offload queue: submission channel in, result channel out,
// token-indexed result map in between.

package offload

import (
	"errors"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"github.com/momentics/pollio/reactor"
)

type opKind int

const (
	opOpen opKind = iota
	opRead
)

// task is one submitted blocking operation.
type task struct {
	token  uint64
	kind   opKind
	path   string   // opOpen
	file   *os.File // opRead, by reference: the submitter serializes access
	maxLen int
	ready  *reactor.Registration
}

// result holds the outcome under its originating token until collected.
type result struct {
	token uint64
	kind  opKind
	file  *os.File
	data  []byte
	err   error
}

// Queue executes blocking filesystem operations on behalf of asynchronous
// callers. Its lifetime equals the process's; the worker never shuts down.
type Queue struct {
	taskCh   chan task
	resultCh chan result

	mu      sync.Mutex
	results map[uint64]result
	// discard holds tokens whose submitters went away before collecting;
	// their results are dropped while draining the channel.
	discard map[uint64]struct{}

	next atomic.Uint64
}

var (
	defaultQueue *Queue
	defaultOnce  sync.Once
)

// Default returns the process-wide queue, starting its worker on first use.
func Default() *Queue {
	defaultOnce.Do(func() {
		defaultQueue = newQueue()
	})
	return defaultQueue
}

func newQueue() *Queue {
	q := &Queue{
		taskCh:   make(chan task, 256),
		resultCh: make(chan result, 256),
		results:  make(map[uint64]result),
		discard:  make(map[uint64]struct{}),
	}
	go q.worker()
	return q
}

func (q *Queue) worker() {
	for t := range q.taskCh {
		res := result{token: t.token, kind: t.kind}
		switch t.kind {
		case opOpen:
			res.file, res.err = os.Open(t.path)
		case opRead:
			res.data, res.err = readBounded(t.file, t.maxLen)
		}
		// The result must be visible before the readiness edge fires.
		q.resultCh <- res
		_ = t.ready.SetReadiness()
	}
}

// readBounded reads at most maxLen bytes from the file's current offset and
// truncates the buffer to the actual count. EOF with no data is a
// zero-length success.
func readBounded(f *os.File, maxLen int) ([]byte, error) {
	buf := make([]byte, maxLen)
	n, err := f.Read(buf)
	if errors.Is(err, io.EOF) {
		err = nil
	}
	return buf[:n], err
}

// PushOpen submits a blocking open of path. The readiness edge on ready
// fires once the result is retrievable.
func (q *Queue) PushOpen(path string, ready *reactor.Registration) *OpenHandle {
	return &OpenHandle{h: q.push(task{kind: opOpen, path: path, ready: ready})}
}

// PushRead submits a blocking read of up to maxLen bytes from f. The caller
// must not touch f until the handle resolves or is discarded.
func (q *Queue) PushRead(f *os.File, maxLen int, ready *reactor.Registration) *ReadHandle {
	return &ReadHandle{h: q.push(task{kind: opRead, file: f, maxLen: maxLen, ready: ready})}
}

func (q *Queue) push(t task) handle {
	t.token = q.next.Add(1)
	q.taskCh <- t
	return handle{q: q, token: t.token}
}

// collect drains the result channel into the token-indexed map, dropping
// results whose submitter discarded the token.
func (q *Queue) collect() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for {
		select {
		case res := <-q.resultCh:
			if _, dropped := q.discard[res.token]; dropped {
				delete(q.discard, res.token)
				if res.file != nil {
					_ = res.file.Close()
				}
				continue
			}
			q.results[res.token] = res
		default:
			return
		}
	}
}

// take removes and returns the result under token, if delivered. A token is
// delivered to at most one caller.
func (q *Queue) take(token uint64) (result, bool) {
	q.collect()
	q.mu.Lock()
	defer q.mu.Unlock()
	res, ok := q.results[token]
	if ok {
		delete(q.results, token)
	}
	return res, ok
}

// discardToken reclaims a completed-but-unclaimed result, or marks the
// token so the worker's eventual result is dropped on arrival.
func (q *Queue) discardToken(token uint64) {
	q.collect()
	q.mu.Lock()
	defer q.mu.Unlock()
	if res, ok := q.results[token]; ok {
		delete(q.results, token)
		if res.file != nil {
			_ = res.file.Close()
		}
		return
	}
	q.discard[token] = struct{}{}
}
