// Package testutil provides fake upstream servers for exercising the proxy
// pipeline in tests.
package testutil

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// Upstream is a fake backend server. It answers every request with a
// configurable status, names itself in the X-Backend response header, and
// records the requests it receives.
type Upstream struct {
	name   string
	server *httptest.Server

	mu     sync.Mutex
	status int
	delay  time.Duration
	hits   int64
	last   *RecordedRequest
}

// RecordedRequest captures one request an Upstream received.
type RecordedRequest struct {
	Method string
	Path   string
	Query  string
	Header http.Header
	Body   []byte
}

// NewUpstream starts a fake backend that answers 200 with body
// "<name>:<path>" until configured otherwise.
func NewUpstream(name string) *Upstream {
	u := &Upstream{
		name:   name,
		status: http.StatusOK,
	}
	u.server = httptest.NewServer(http.HandlerFunc(u.handler))
	return u
}

// URL returns the backend's base URL.
func (u *Upstream) URL() string {
	return u.server.URL
}

// Name returns the name stamped on the X-Backend header.
func (u *Upstream) Name() string {
	return u.name
}

// Close shuts the backend down.
func (u *Upstream) Close() {
	u.server.Close()
}

// SetStatus changes the status code of subsequent responses. Setting a 5xx
// status turns the backend into a failing upstream.
func (u *Upstream) SetStatus(code int) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.status = code
}

// SetDelay makes the backend sleep before answering, to simulate a slow
// upstream against the forwarder's attempt timeout.
func (u *Upstream) SetDelay(d time.Duration) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.delay = d
}

// Hits returns the number of requests received.
func (u *Upstream) Hits() int64 {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.hits
}

// ResetHits resets the request counter.
func (u *Upstream) ResetHits() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.hits = 0
}

// LastRequest returns the most recently received request, or false if the
// backend has not been hit yet.
func (u *Upstream) LastRequest() (RecordedRequest, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.last == nil {
		return RecordedRequest{}, false
	}
	return *u.last, true
}

func (u *Upstream) handler(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	u.mu.Lock()
	u.hits++
	u.last = &RecordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.RawQuery,
		Header: r.Header.Clone(),
		Body:   body,
	}
	status := u.status
	delay := u.delay
	u.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}

	w.Header().Set("X-Backend", u.name)
	w.WriteHeader(status)
	if status < 300 {
		fmt.Fprintf(w, "%s:%s", u.name, r.URL.Path)
	}
}
