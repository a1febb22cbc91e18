package proxy

import (
	"bytes"
	"io"
	"net/http"
	"sync"
)

// captureReader wraps the inbound request body. It counts every byte read
// and tees them into a bounded buffer so the request can be replayed later.
// Once the buffer would exceed the limit the capture is abandoned: the body
// keeps streaming to the upstream, but the transaction becomes
// non-replayable.
//
// Reads race with finalization: http.Transport drains the request body on
// its own write-loop goroutine and may still be reading after RoundTrip has
// returned (an upstream is free to respond before consuming the body), while
// the handler snapshots the capture for the transaction record. All state
// therefore lives behind the mutex, and Captured hands out a copy.
type captureReader struct {
	src   io.ReadCloser
	limit int

	mu         sync.Mutex
	buf        bytes.Buffer
	read       int64
	overflowed bool
}

func newCaptureReader(src io.ReadCloser, limit int) *captureReader {
	return &captureReader{src: src, limit: limit}
}

// Read implements io.Reader.
func (c *captureReader) Read(p []byte) (int, error) {
	n, err := c.src.Read(p)
	if n > 0 {
		c.mu.Lock()
		c.read += int64(n)
		if !c.overflowed {
			if c.buf.Len()+n > c.limit {
				c.overflowed = true
				c.buf.Reset()
			} else {
				c.buf.Write(p[:n])
			}
		}
		c.mu.Unlock()
	}
	return n, err
}

// Close implements io.Closer.
func (c *captureReader) Close() error {
	return c.src.Close()
}

// BytesRead reports how many body bytes have been consumed so far.
func (c *captureReader) BytesRead() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.read
}

// Captured returns the buffered body and whether the capture overflowed.
// The returned slice is a copy: the transport may keep appending to the
// buffer after the snapshot is taken.
func (c *captureReader) Captured() ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.overflowed {
		return nil, true
	}
	if c.buf.Len() == 0 {
		return nil, false
	}
	return append([]byte(nil), c.buf.Bytes()...), false
}

// responseRecorder wraps http.ResponseWriter to capture the status code and
// count body bytes as they stream out.
type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	written    bool
	bytes      int64
}

func newResponseRecorder(w http.ResponseWriter) *responseRecorder {
	return &responseRecorder{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

// WriteHeader captures the status code before writing.
func (rw *responseRecorder) WriteHeader(code int) {
	if !rw.written {
		rw.statusCode = code
		rw.written = true
		rw.ResponseWriter.WriteHeader(code)
	}
}

// Write ensures WriteHeader is called if not already done.
func (rw *responseRecorder) Write(b []byte) (int, error) {
	if !rw.written {
		rw.WriteHeader(http.StatusOK)
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.bytes += int64(n)
	return n, err
}

// Flush forwards to the underlying writer so streamed responses are not
// held back by buffering.
func (rw *responseRecorder) Flush() {
	if flusher, ok := rw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// Committed reports whether a status line has been sent to the client.
func (rw *responseRecorder) Committed() bool {
	return rw.written
}

// Status returns the status code sent to the client, or 0 if none was.
func (rw *responseRecorder) Status() int {
	if !rw.written {
		return 0
	}
	return rw.statusCode
}

// BytesWritten reports how many response body bytes reached the client.
func (rw *responseRecorder) BytesWritten() int64 {
	return rw.bytes
}
