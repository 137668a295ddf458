// Package reactor
// Author: momentics <momentics@gmail.com>
//
// Edge-triggered epoll reactor keyed by dense slab tokens. Each registered
// source owns a node holding an accumulated readiness mask and two waker
// slots (read, write); Turn polls the OS, folds new readiness into the
// masks and invokes the matching wakers. All reactor state belongs to a
// single goroutine; cross-goroutine signaling happens exclusively through
// Registration eventfds observed by the poller.
package reactor
