// File: executor/executor.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Cooperative task executor. Run drains the woken set once per pass and
// polls each named task exactly once; a task that returns pending is only
// revisited after one of its wakers fires.

package executor

import (
	"github.com/eapache/queue"
	"github.com/rs/zerolog"

	"github.com/momentics/pollio/api"
)

// Executor owns the admitted tasks and drives them to completion.
type Executor struct {
	tasks   map[uint64]*taskEntry
	pending *queue.Queue // admission buffer, drained by Run
	woken   *WokenSet
	nextKey uint64
	log     zerolog.Logger
}

type taskEntry struct {
	task  api.Task
	waker api.Waker // constructed on first poll, cached for the task's lifetime
}

// Option customizes executor initialization.
type Option func(*Executor)

// WithLogger attaches a logger for scheduling traces.
func WithLogger(log zerolog.Logger) Option {
	return func(e *Executor) { e.log = log }
}

// New returns an empty executor.
func New(opts ...Option) *Executor {
	e := &Executor{
		tasks:   make(map[uint64]*taskEntry),
		pending: queue.New(),
		woken:   newWokenSet(),
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Spawn enqueues t for admission on the next Run pass. Tasks are admitted
// in insertion order and pre-woken. Spawn is called from the executor's own
// goroutine, including from within a task being polled.
func (e *Executor) Spawn(t api.Task) {
	e.pending.Add(t)
}

// Len returns the number of resident (admitted, uncompleted) tasks.
func (e *Executor) Len() int { return len(e.tasks) }

// Run executes one polling pass:
//
//  1. Admit pending tasks under fresh keys, each pre-woken.
//  2. Drain a snapshot of the woken set.
//  3. Poll every snapshot task still resident exactly once; completed
//     tasks are dropped, pending tasks are left to their wakers.
//
// Keys woken during the pass (including by tasks waking themselves) stay in
// the shared set and are polled on the next pass, not this one.
func (e *Executor) Run() {
	e.admit()
	for _, key := range e.woken.drain() {
		ent, ok := e.tasks[key]
		if !ok {
			// Woken after completion; nothing to do.
			continue
		}
		if ent.waker == nil {
			ent.waker = taskWaker{key: key, woken: e.woken}
		}
		if ent.task.Poll(ent.waker) {
			e.log.Trace().Uint64("task", key).Msg("task complete")
			delete(e.tasks, key)
		}
	}
}

func (e *Executor) admit() {
	for e.pending.Length() > 0 {
		task := e.pending.Remove().(api.Task)
		key := e.nextKey
		e.nextKey++
		e.tasks[key] = &taskEntry{task: task}
		e.woken.Add(key)
		e.log.Trace().Uint64("task", key).Msg("task admitted")
	}
}
