// File: server/response.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server

import (
	"bytes"
	"fmt"
)

// Response is a single HTTP response: status line, CRLF headers, blank
// line, body.
type Response struct {
	status  int
	headers map[string]string
	body    []byte
}

// Ok returns an empty 200 response.
func Ok() *Response { return WithStatus(StatusOK) }

// WithStatus returns an empty response carrying the given status code.
func WithStatus(code int) *Response {
	return &Response{status: code, headers: make(map[string]string)}
}

// Status codes the collaborator emits.
const (
	StatusOK                  = 200
	StatusNotFound            = 404
	StatusInternalServerError = 500
)

func reasonPhrase(code int) string {
	switch code {
	case StatusOK:
		return "OK"
	case StatusNotFound:
		return "Not Found"
	case StatusInternalServerError:
		return "Internal Server Error"
	default:
		return "Unknown"
	}
}

// Status returns the status code.
func (r *Response) Status() int { return r.status }

// SetHeader stores a response header, returning any previous value.
func (r *Response) SetHeader(key, value string) (string, bool) {
	prev, had := r.headers[key]
	r.headers[key] = value
	return prev, had
}

// AppendBody extends the body.
func (r *Response) AppendBody(p []byte) {
	r.body = append(r.body, p...)
}

// AppendString extends the body with s.
func (r *Response) AppendString(s string) {
	r.body = append(r.body, s...)
}

// Body returns the body bytes.
func (r *Response) Body() []byte { return r.body }

// marshal renders the wire form: `HTTP/1.1 <code> <reason>` CRLF headers,
// blank line, body.
func (r *Response) marshal() []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "HTTP/1.1 %d %s\r\n", r.status, reasonPhrase(r.status))
	for k, v := range r.headers {
		fmt.Fprintf(&b, "%s: %s\r\n", k, v)
	}
	b.WriteString("\r\n")
	b.Write(r.body)
	return b.Bytes()
}
