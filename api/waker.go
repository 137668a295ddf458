// File: api/waker.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Waker and poll-style future contracts driving cooperative scheduling.

package api

// Waker schedules its bound task for the executor's next polling pass.
//
// Implementations must be safe to invoke from any goroutine, must remain
// valid for at least the lifetime of the poll that installed them, and must
// be benign after the bound task has completed: a late Wake merely inserts
// a key the executor will find absent.
type Waker interface {
	Wake()
}

// Task is a cooperatively polled computation producing no value.
//
// Poll advances the task as far as it can without blocking. It returns true
// when the task has completed. A false return obliges the task to have
// arranged for w (or a clone of it) to be woken once progress is possible
// again; a task that returns false without installing the waker anywhere is
// never polled again.
type Task interface {
	Poll(w Waker) (done bool)
}

// Future is a cooperatively polled computation producing a T.
//
// The same arming obligation as Task applies to every false return.
type Future[T any] interface {
	Poll(w Waker) (val T, ready bool)
}

// TaskFunc adapts a plain function to the Task interface.
type TaskFunc func(w Waker) bool

// Poll implements Task.
func (f TaskFunc) Poll(w Waker) bool { return f(w) }

type nopWaker struct{}

func (nopWaker) Wake() {}

// NopWaker returns a waker that does nothing when woken. Reactor nodes hold
// it whenever no task is parked on the corresponding direction.
func NopWaker() Waker { return nopWaker{} }
