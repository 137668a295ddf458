// File: server/handler.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Application contract. Handlers return poll-style response futures so they
// can await adapter I/O (the static router awaits file reads).

package server

import "github.com/momentics/pollio/api"

// ResponseFuture resolves to the response a connection task will write.
type ResponseFuture = api.Future[*Response]

// Handler produces a response future for each parsed request.
type Handler interface {
	Serve(req *Request) ResponseFuture
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(*Request) ResponseFuture

// Serve implements Handler.
func (f HandlerFunc) Serve(req *Request) ResponseFuture { return f(req) }

// Respond wraps an already-built response in an immediately ready future.
func Respond(res *Response) ResponseFuture { return readyResponse{res: res} }

type readyResponse struct {
	res *Response
}

func (r readyResponse) Poll(api.Waker) (*Response, bool) { return r.res, true }
