//go:build linux

// File: server/static.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Static filesystem router. Directories render a synchronous HTML listing;
// regular files are opened and read through the asynchronous file adapter,
// so serving large files never blocks the loop on filesystem syscalls.

package server

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/momentics/pollio/api"
	"github.com/momentics/pollio/reactor"
	"github.com/momentics/pollio/transport"
)

// Static serves files and directory listings rooted at the request URI.
type Static struct {
	r *reactor.Reactor
}

// NewStatic returns a static router opening files via the given reactor.
func NewStatic(r *reactor.Reactor) *Static {
	return &Static{r: r}
}

// Serve implements Handler.
func (s *Static) Serve(req *Request) ResponseFuture {
	path := req.URI()
	info, err := os.Stat(path)
	if err != nil {
		return Respond(WithStatus(StatusNotFound))
	}
	if info.IsDir() {
		return Respond(dirPage(path))
	}
	open, err := transport.Open(s.r, path)
	if err != nil {
		return Respond(WithStatus(StatusInternalServerError))
	}
	return &fileResponse{open: open, size: info.Size()}
}

// fileResponse awaits the async open, then one bounded read sized by the
// stat above. A file that grew since the stat yields a short body, same as
// any short read.
type fileResponse struct {
	open *transport.OpenFuture
	file *transport.File
	size int64
	buf  []byte
}

func (f *fileResponse) Poll(w api.Waker) (*Response, bool) {
	if f.file == nil {
		file, ready, err := f.open.Poll(w)
		if !ready {
			return nil, false
		}
		if err != nil {
			if os.IsNotExist(err) {
				return WithStatus(StatusNotFound), true
			}
			return WithStatus(StatusInternalServerError), true
		}
		f.file = file
		f.buf = make([]byte, f.size)
	}
	n, ready, err := f.file.PollRead(w, f.buf)
	if !ready {
		return nil, false
	}
	_ = f.file.Close()
	if err != nil {
		return WithStatus(StatusInternalServerError), true
	}
	res := Ok()
	res.SetHeader("Content-Length", strconv.Itoa(n))
	res.AppendBody(f.buf[:n])
	return res, true
}

// dirPage renders a directory listing.
func dirPage(path string) *Response {
	entries, err := os.ReadDir(path)
	if err != nil {
		return WithStatus(StatusInternalServerError)
	}
	res := Ok()
	res.SetHeader("Content-Type", "text/html")
	res.AppendString(fmt.Sprintf("<html><head><title>%[1]s</title></head><body><h1>%[1]s</h1><ul>", path))
	for _, e := range entries {
		res.AppendString(fmt.Sprintf("<li><a href=%q>%s</a>", filepath.Join(path, e.Name()), e.Name()))
	}
	res.AppendString("</ul></body></html>")
	return res
}
