package proxy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"spyglass-hq/spyglass/pkg/routing"
)

// Forwarder performs the single outbound attempt for a request: it builds
// the upstream request, round-trips it on the upstream's pooled transport,
// and relays the response. One Forwarder is shared by all requests.
type Forwarder struct {
	pool    *transportPool
	timeout time.Duration
	logger  *slog.Logger
}

// NewForwarder creates a Forwarder with the given per-attempt timeout and
// idle-connection bound per upstream.
func NewForwarder(timeout time.Duration, maxIdlePerUpstream int) *Forwarder {
	return &Forwarder{
		pool:    newTransportPool(maxIdlePerUpstream),
		timeout: timeout,
		logger:  slog.Default().With("component", "forwarder"),
	}
}

// SyncUpstreams reconciles the transport pool with the upstreams of a newly
// loaded route table. Call on every table swap.
func (f *Forwarder) SyncUpstreams(upstreams []*routing.Upstream) {
	active := make(map[string]bool, len(upstreams))
	for _, u := range upstreams {
		active[u.URL] = true
	}
	f.pool.sync(active)
}

// Result describes a completed relay: the upstream answered and its response
// was streamed back to the client.
type Result struct {
	// Status is the upstream status code relayed to the client.
	Status int

	// ResponseBytes is the number of body bytes relayed.
	ResponseBytes int64
}

// Forward proxies r to the given upstream with the already-rewritten path.
// When the upstream answers, the response is relayed verbatim regardless of
// status and Forward returns a Result. A non-nil error means nothing was
// written to w: *UpstreamTimeoutError on attempt expiry,
// *UpstreamTransportError on connection failure, or ErrClientCancelled when
// the client went away first. The caller owns the error response.
func (f *Forwarder) Forward(w http.ResponseWriter, r *http.Request, upstream *routing.Upstream, rewrittenPath string) (*Result, error) {
	target := upstream.Target()

	outURL := *target
	outURL.Path = singleJoiningSlash(target.Path, rewrittenPath)
	outURL.RawQuery = r.URL.RawQuery
	outURL.Fragment = ""

	ctx, cancel := context.WithTimeout(r.Context(), f.timeout)
	defer cancel()

	out, err := http.NewRequestWithContext(ctx, r.Method, outURL.String(), r.Body)
	if err != nil {
		return nil, &UpstreamTransportError{Upstream: upstream.URL, Cause: err}
	}
	out.ContentLength = r.ContentLength
	out.Header = r.Header.Clone()
	stripHopByHop(out.Header)
	setForwardedHeaders(out.Header, r)
	out.Host = target.Host

	resp, err := f.pool.get(upstream.URL).RoundTrip(out)
	if err != nil {
		return nil, f.classify(r, upstream, err)
	}
	defer resp.Body.Close()

	stripHopByHop(resp.Header)
	copyHeader(w.Header(), resp.Header)
	w.WriteHeader(resp.StatusCode)

	// Responses without a known length are streamed chunk by chunk; flush
	// each write so long-lived streams reach the client promptly.
	var dst io.Writer = w
	if resp.ContentLength < 0 {
		dst = flushWriter{w}
	}

	n, copyErr := io.Copy(dst, resp.Body)
	if copyErr != nil {
		f.logger.Warn("response stream interrupted",
			"upstream", upstream.URL,
			"status", resp.StatusCode,
			"bytes_relayed", n,
			"error", copyErr,
		)
	}

	return &Result{Status: resp.StatusCode, ResponseBytes: n}, nil
}

// classify maps a round-trip failure to the pipeline error taxonomy.
func (f *Forwarder) classify(r *http.Request, upstream *routing.Upstream, err error) error {
	if r.Context().Err() == context.Canceled {
		return fmt.Errorf("%w: %v", ErrClientCancelled, err)
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &UpstreamTimeoutError{Upstream: upstream.URL, Timeout: f.timeout}
	}

	return &UpstreamTransportError{Upstream: upstream.URL, Cause: err}
}

// flushWriter flushes after every write so chunked upstream responses are
// relayed without buffering delay.
type flushWriter struct {
	w http.ResponseWriter
}

func (fw flushWriter) Write(p []byte) (int, error) {
	n, err := fw.w.Write(p)
	if flusher, ok := fw.w.(http.Flusher); ok {
		flusher.Flush()
	}
	return n, err
}

// hopByHopHeaders are connection-scoped headers that must not be forwarded
// in either direction.
var hopByHopHeaders = []string{
	"Connection",
	"Proxy-Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"TE",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// stripHopByHop removes hop-by-hop headers, including any header named in a
// Connection token.
func stripHopByHop(h http.Header) {
	for _, value := range h.Values("Connection") {
		for _, token := range strings.Split(value, ",") {
			if token = textproto.TrimString(token); token != "" {
				h.Del(token)
			}
		}
	}
	for _, name := range hopByHopHeaders {
		h.Del(name)
	}
}

// setForwardedHeaders records the original caller in the standard
// X-Forwarded-* headers, appending to an existing X-Forwarded-For chain.
func setForwardedHeaders(h http.Header, r *http.Request) {
	if ip, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && ip != "" {
		if prior := h.Get("X-Forwarded-For"); prior != "" {
			h.Set("X-Forwarded-For", prior+", "+ip)
		} else {
			h.Set("X-Forwarded-For", ip)
		}
	}

	if r.TLS != nil {
		h.Set("X-Forwarded-Proto", "https")
	} else {
		h.Set("X-Forwarded-Proto", "http")
	}
	h.Set("X-Forwarded-Host", r.Host)
}

func copyHeader(dst, src http.Header) {
	for name, values := range src {
		dst.Del(name)
		for _, v := range values {
			dst.Add(name, v)
		}
	}
}

func singleJoiningSlash(a, b string) string {
	aSlash := strings.HasSuffix(a, "/")
	bSlash := strings.HasPrefix(b, "/")
	switch {
	case aSlash && bSlash:
		return a + b[1:]
	case !aSlash && !bSlash:
		return a + "/" + b
	}
	return a + b
}
