// Package transport
// Author: momentics <momentics@gmail.com>
//
// Asynchronous I/O adapters over the reactor: a non-blocking TCP listener
// and stream, and a file handle whose reads ride the blocking-I/O offload
// queue. All adapters speak the same poll protocol: consult the handle's
// readiness, retry the syscall until EAGAIN, clear the bit and park the
// task waker before every pending return.
package transport
