package relay

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"golang.org/x/net/http/httpguts"
)

// Response buffers status, headers and body until End flushes them to the
// underlying writer. It is safe for use by a middleware that resumes the
// chain from another goroutine.
type Response struct {
	mu        sync.Mutex
	ctx       context.Context
	writer    http.ResponseWriter
	head      bool
	status    int
	header    http.Header
	body      bytes.Buffer
	sent      bool
	cancelled bool
	done      chan struct{}

	// misuse is called with ErrResponseAlreadySent before it is returned.
	misuse func(error)
}

func newResponse(ctx context.Context, w http.ResponseWriter, head bool) *Response {
	return &Response{
		ctx:    ctx,
		writer: w,
		head:   head,
		status: http.StatusOK,
		header: make(http.Header),
		done:   make(chan struct{}),
	}
}

// SetStatus sets the status code sent by End.
func (r *Response) SetStatus(code int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.writable(); err != nil || r.isCancelled() {
		return err
	}
	if code < 100 || code > 999 {
		return fmt.Errorf("relay: invalid status code %d", code)
	}
	r.status = code
	return nil
}

// SetHeader replaces the values of a header. Names are case-insensitive.
func (r *Response) SetHeader(name, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.writable(); err != nil || r.isCancelled() {
		return err
	}
	if !httpguts.ValidHeaderFieldName(name) || !httpguts.ValidHeaderFieldValue(value) {
		return fmt.Errorf("%w: %q", ErrInvalidHeader, name)
	}
	r.header.Set(name, value)
	return nil
}

// Header returns a copy of the headers set so far.
func (r *Response) Header() http.Header {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.header.Clone()
}

// Write appends p to the buffered body.
func (r *Response) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.writable(); err != nil {
		return 0, err
	}
	if r.isCancelled() {
		return len(p), nil
	}
	return r.body.Write(p)
}

// End sends the response. Every later write fails with ErrResponseAlreadySent.
func (r *Response) End() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.writable(); err != nil || r.isCancelled() {
		return err
	}
	r.sent = true
	close(r.done)

	dst := r.writer.Header()
	for name, values := range r.header {
		dst[name] = values
	}
	withBody := r.status >= 200 && r.status != http.StatusNoContent && r.status != http.StatusNotModified
	if withBody {
		if dst.Get("Content-Type") == "" && r.body.Len() > 0 {
			dst.Set("Content-Type", http.DetectContentType(r.body.Bytes()))
		}
		dst.Set("Content-Length", strconv.Itoa(r.body.Len()))
	}
	r.writer.WriteHeader(r.status)
	if withBody && !r.head {
		// The client may already be gone; nothing left to report to.
		_, _ = r.writer.Write(r.body.Bytes())
	}
	return nil
}

// Status returns the status code set so far.
func (r *Response) Status() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// Sent reports whether End has been called.
func (r *Response) Sent() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sent
}

// writable must be called with mu held.
func (r *Response) writable() error {
	if !r.sent {
		return nil
	}
	if r.misuse != nil {
		r.misuse(ErrResponseAlreadySent)
	}
	return ErrResponseAlreadySent
}

// isCancelled must be called with mu held. Once the request context ends,
// writes are dropped even before the dispatcher calls cancel.
func (r *Response) isCancelled() bool {
	return r.cancelled || r.ctx.Err() != nil
}

// cancel turns every later write into a no-op and reports whether the
// response had been sent before.
func (r *Response) cancel() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancelled = true
	return r.sent
}

// reset discards an unsent status and body before a fallback answers.
// Headers set by earlier stages are kept.
func (r *Response) reset(status int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sent || r.isCancelled() {
		return
	}
	r.status = status
	r.body.Reset()
}
