package proxy

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"spyglass-hq/spyglass/pkg/routing"
)

// testUpstream builds a validated upstream pointing at rawURL by running it
// through table construction, which parses the target.
func testUpstream(t *testing.T, rawURL string) *routing.Upstream {
	t.Helper()

	table, err := routing.NewTable([]*routing.Route{{
		Name:       "test",
		Hosts:      []string{"example.org"},
		PathPrefix: "/",
		Upstreams: []*routing.Upstream{
			{URL: rawURL, Weight: 1, FailThreshold: 3, Cooldown: time.Minute},
		},
	}})
	if err != nil {
		t.Fatalf("failed to build route table: %v", err)
	}
	return table.Routes()[0].Upstreams[0]
}

func TestForwardRelaysResponse(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Upstream", "yes")
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))
	defer upstream.Close()

	forwarder := NewForwarder(time.Second, 4)
	rec := newResponseRecorder(httptest.NewRecorder())
	req := httptest.NewRequest(http.MethodGet, "http://example.org/pot", nil)

	result, err := forwarder.Forward(rec, req, testUpstream(t, upstream.URL), "/pot")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Status != http.StatusTeapot {
		t.Errorf("expected status 418, got %d", result.Status)
	}
	if result.ResponseBytes != int64(len("short and stout")) {
		t.Errorf("expected %d response bytes, got %d", len("short and stout"), result.ResponseBytes)
	}
	if rec.Status() != http.StatusTeapot {
		t.Errorf("expected relayed status 418, got %d", rec.Status())
	}
	if got := rec.Header().Get("X-Upstream"); got != "yes" {
		t.Errorf("expected upstream header relayed, got %q", got)
	}
}

func TestForwardRewritesPathAndQuery(t *testing.T) {
	var gotPath, gotQuery string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	forwarder := NewForwarder(time.Second, 4)
	req := httptest.NewRequest(http.MethodGet, "http://example.org/api/users?page=2&sort=name", nil)

	if _, err := forwarder.Forward(newResponseRecorder(httptest.NewRecorder()), req, testUpstream(t, upstream.URL), "/v2/users"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotPath != "/v2/users" {
		t.Errorf("expected rewritten path /v2/users, got %q", gotPath)
	}
	if gotQuery != "page=2&sort=name" {
		t.Errorf("expected query preserved, got %q", gotQuery)
	}
}

func TestForwardHeaderHandling(t *testing.T) {
	var gotHeader http.Header
	var gotHost string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Clone()
		gotHost = r.Host
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	forwarder := NewForwarder(time.Second, 4)
	req := httptest.NewRequest(http.MethodGet, "http://example.org/", nil)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Connection", "keep-alive, X-Internal-Debug")
	req.Header.Set("Keep-Alive", "timeout=5")
	req.Header.Set("Proxy-Authorization", "Basic abc")
	req.Header.Set("X-Internal-Debug", "1")
	req.Header.Set("X-Forwarded-For", "198.51.100.9")

	if _, err := forwarder.Forward(newResponseRecorder(httptest.NewRecorder()), req, testUpstream(t, upstream.URL), "/"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := gotHeader.Get("Accept"); got != "application/json" {
		t.Errorf("expected end-to-end header forwarded, got %q", got)
	}
	for _, name := range []string{"Keep-Alive", "Proxy-Authorization", "X-Internal-Debug"} {
		if got := gotHeader.Get(name); got != "" {
			t.Errorf("expected hop-by-hop header %s stripped, got %q", name, got)
		}
	}

	// httptest.NewRequest sets RemoteAddr to 192.0.2.1:1234.
	if got := gotHeader.Get("X-Forwarded-For"); got != "198.51.100.9, 192.0.2.1" {
		t.Errorf("expected X-Forwarded-For chain appended, got %q", got)
	}
	if got := gotHeader.Get("X-Forwarded-Proto"); got != "http" {
		t.Errorf("expected X-Forwarded-Proto http, got %q", got)
	}
	if got := gotHeader.Get("X-Forwarded-Host"); got != "example.org" {
		t.Errorf("expected X-Forwarded-Host example.org, got %q", got)
	}
	if gotHost == "example.org" {
		t.Error("expected Host rewritten to the upstream, not the inbound host")
	}
}

func TestForwardStreamsRequestBody(t *testing.T) {
	var gotBody []byte
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
	}))
	defer upstream.Close()

	forwarder := NewForwarder(time.Second, 4)
	body := strings.Repeat("payload ", 512)
	req := httptest.NewRequest(http.MethodPost, "http://example.org/ingest", strings.NewReader(body))

	result, err := forwarder.Forward(newResponseRecorder(httptest.NewRecorder()), req, testUpstream(t, upstream.URL), "/ingest")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != http.StatusCreated {
		t.Errorf("expected status 201, got %d", result.Status)
	}
	if string(gotBody) != body {
		t.Errorf("expected %d body bytes at upstream, got %d", len(body), len(gotBody))
	}
}

func TestForwardUpstreamTimeout(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer upstream.Close()

	forwarder := NewForwarder(30*time.Millisecond, 4)
	rec := newResponseRecorder(httptest.NewRecorder())
	req := httptest.NewRequest(http.MethodGet, "http://example.org/slow", nil)

	_, err := forwarder.Forward(rec, req, testUpstream(t, upstream.URL), "/slow")

	var timeoutErr *UpstreamTimeoutError
	if !errors.As(err, &timeoutErr) {
		t.Fatalf("expected UpstreamTimeoutError, got %v", err)
	}
	if timeoutErr.Timeout != 30*time.Millisecond {
		t.Errorf("expected timeout detail 30ms, got %s", timeoutErr.Timeout)
	}
	if rec.Committed() {
		t.Error("expected nothing written to the client on timeout")
	}
}

func TestForwardTransportError(t *testing.T) {
	// Port 1 on loopback refuses connections immediately.
	forwarder := NewForwarder(time.Second, 4)
	rec := newResponseRecorder(httptest.NewRecorder())
	req := httptest.NewRequest(http.MethodGet, "http://example.org/", nil)

	_, err := forwarder.Forward(rec, req, testUpstream(t, "http://127.0.0.1:1"), "/")

	var transportErr *UpstreamTransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("expected UpstreamTransportError, got %v", err)
	}
	if transportErr.Upstream != "http://127.0.0.1:1" {
		t.Errorf("expected failing upstream recorded, got %q", transportErr.Upstream)
	}
	if rec.Committed() {
		t.Error("expected nothing written to the client on transport failure")
	}
}

func TestForward5xxRelayedVerbatim(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusInternalServerError)
	}))
	defer upstream.Close()

	forwarder := NewForwarder(time.Second, 4)
	inner := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "http://example.org/", nil)

	result, err := forwarder.Forward(newResponseRecorder(inner), req, testUpstream(t, upstream.URL), "/")
	if err != nil {
		t.Fatalf("5xx must relay, not error: %v", err)
	}
	if result.Status != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", result.Status)
	}
	if !strings.Contains(inner.Body.String(), "upstream exploded") {
		t.Errorf("expected upstream body relayed verbatim, got %q", inner.Body.String())
	}
}

func TestSingleJoiningSlash(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want string
	}{
		{name: "empty base", a: "", b: "/x", want: "/x"},
		{name: "base without slash", a: "/base", b: "/x", want: "/base/x"},
		{name: "both slashed", a: "/base/", b: "/x", want: "/base/x"},
		{name: "neither slashed", a: "/base", b: "x", want: "/base/x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := singleJoiningSlash(tt.a, tt.b); got != tt.want {
				t.Errorf("singleJoiningSlash(%q, %q) = %q, want %q", tt.a, tt.b, got, tt.want)
			}
		})
	}
}
