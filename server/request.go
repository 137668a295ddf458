// File: server/request.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Request parsing: one CRLF-separated header block of at most 1024 bytes,
// a three-token request line and case-folded header keys.

package server

import "strings"

// maxRequestBytes bounds the single read a connection performs.
const maxRequestBytes = 1024

// Request is a parsed HTTP request head. Header keys are case-folded at
// parse time; bodies are not read.
type Request struct {
	method  string
	uri     string
	proto   string
	headers map[string]string
}

// Method returns the request method token.
func (r *Request) Method() string { return r.method }

// URI returns the request target.
func (r *Request) URI() string { return r.uri }

// Proto returns the protocol token, e.g. "HTTP/1.1".
func (r *Request) Proto() string { return r.proto }

// Header returns the value under the case-folded key.
func (r *Request) Header(key string) (string, bool) {
	v, ok := r.headers[strings.ToLower(key)]
	return v, ok
}

// SetHeader stores value under the case-folded key, returning any previous
// value.
func (r *Request) SetHeader(key, value string) (string, bool) {
	key = strings.ToLower(key)
	prev, had := r.headers[key]
	r.headers[key] = value
	return prev, had
}

// Headers returns a copy of the header map.
func (r *Request) Headers() map[string]string {
	out := make(map[string]string, len(r.headers))
	for k, v := range r.headers {
		out[k] = v
	}
	return out
}

// parseRequest splits msg on CRLF. The first line must carry exactly three
// space-separated tokens; later lines split on the first colon with both
// halves trimmed. An empty line ends the header block.
func parseRequest(msg []byte) (*Request, bool) {
	req := &Request{headers: make(map[string]string)}
	for i, line := range strings.Split(string(msg), "\r\n") {
		if i == 0 {
			tokens := strings.Split(line, " ")
			if len(tokens) != 3 {
				return nil, false
			}
			req.method, req.uri, req.proto = tokens[0], tokens[1], tokens[2]
			continue
		}
		if line == "" {
			break
		}
		if key, value, ok := strings.Cut(line, ":"); ok {
			req.headers[strings.ToLower(strings.TrimSpace(key))] = strings.TrimSpace(value)
		}
	}
	return req, true
}
