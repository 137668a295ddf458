// Package server
// Author: momentics <momentics@gmail.com>
//
// Minimal HTTP/1.1 collaborator on top of the core runtime. It consumes
// only the core's primitives: the listener and stream adapters and the
// executor's Spawn. One accept task feeds per-connection state-machine
// tasks that read a single request, run the application handler and write a
// single response.
package server
