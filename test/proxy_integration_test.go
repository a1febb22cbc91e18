//go:build integration

package test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"spyglass-hq/spyglass/internal/testutil"
	"spyglass-hq/spyglass/pkg/balancer"
	"spyglass-hq/spyglass/pkg/config"
	"spyglass-hq/spyglass/pkg/control"
	"spyglass-hq/spyglass/pkg/health"
	"spyglass-hq/spyglass/pkg/proxy"
	"spyglass-hq/spyglass/pkg/server"
	"spyglass-hq/spyglass/pkg/txstore"
)

// testProxy wires the full pipeline the way cmd/spyglass does and runs it on
// ephemeral ports.
type testProxy struct {
	cfg      *config.Config
	store    *txstore.Store
	tracker  *health.Tracker
	pipeline *proxy.Handler
	srv      *server.Server
	cancel   context.CancelFunc
}

func startProxy(t *testing.T, routes []config.RouteConfig) *testProxy {
	t.Helper()

	cfg := &config.Config{
		Listen:  "127.0.0.1:0",
		Control: config.ControlConfig{Listen: "127.0.0.1:0"},
		Routes:  routes,
	}
	config.ApplyDefaults(cfg)
	cfg.Proxy.UpstreamTimeout = 2 * time.Second

	if err := config.Validate(cfg); err != nil {
		t.Fatalf("test config invalid: %v", err)
	}

	table, err := cfg.RouteTable()
	if err != nil {
		t.Fatalf("failed to build route table: %v", err)
	}

	strategy, err := balancer.NewStrategy(cfg.Proxy.Strategy)
	if err != nil {
		t.Fatalf("failed to build strategy: %v", err)
	}

	tracker := health.NewTracker()
	store := txstore.New(cfg.Proxy.HistorySize)
	forwarder := proxy.NewForwarder(cfg.Proxy.UpstreamTimeout, cfg.Proxy.MaxIdleConnsPerUpstream)

	pipeline := proxy.NewHandler(store, tracker, balancer.New(tracker, strategy), forwarder, cfg.Proxy.CaptureBodyLimit)
	pipeline.SetTable(table)

	handlers := control.NewHandlers(store, tracker, pipeline)
	router := control.NewRouter(handlers, nil, "")

	srv := server.NewServer(cfg, pipeline, router)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		if err := srv.Start(ctx); err != nil {
			t.Logf("server exited: %v", err)
		}
	}()

	// Wait for the listeners to bind.
	deadline := time.Now().Add(5 * time.Second)
	for srv.DataAddr() == "" || srv.ControlAddr() == "" {
		if time.Now().After(deadline) {
			cancel()
			t.Fatal("server did not bind listeners in time")
		}
		time.Sleep(10 * time.Millisecond)
	}

	tp := &testProxy{
		cfg:      cfg,
		store:    store,
		tracker:  tracker,
		pipeline: pipeline,
		srv:      srv,
		cancel:   cancel,
	}
	t.Cleanup(func() {
		cancel()
		srv.Shutdown(context.Background())
	})
	return tp
}

// send issues one request through the data plane with the given Host header.
func (tp *testProxy) send(t *testing.T, method, host, path string, body io.Reader) *http.Response {
	t.Helper()

	req, err := http.NewRequest(method, "http://"+tp.srv.DataAddr()+path, body)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	req.Host = host

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

func (tp *testProxy) controlGet(t *testing.T, path string, out interface{}) {
	t.Helper()

	resp, err := http.Get("http://" + tp.srv.ControlAddr() + path)
	if err != nil {
		t.Fatalf("control request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("control %s status = %d, want 200", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("failed to decode control response: %v", err)
	}
}

func TestProxyEndToEnd(t *testing.T) {
	backendA := testutil.NewUpstream("a")
	defer backendA.Close()

	backendB := testutil.NewUpstream("b")
	defer backendB.Close()

	tp := startProxy(t, []config.RouteConfig{
		{
			Name:        "api",
			Hosts:       []string{"example.com"},
			PathPrefix:  "/api",
			StripPrefix: true,
			Upstreams: []config.UpstreamConfig{
				{URL: backendA.URL(), Weight: 2},
				{URL: backendB.URL(), Weight: 1},
			},
		},
	})

	t.Run("routes and strips prefix", func(t *testing.T) {
		resp := tp.send(t, "GET", "example.com", "/api/users", nil)
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Errorf("status = %d, want 200", resp.StatusCode)
		}

		body, _ := io.ReadAll(resp.Body)
		// The matched /api prefix is stripped before forwarding.
		want := []string{"a:/users", "b:/users"}
		if string(body) != want[0] && string(body) != want[1] {
			t.Errorf("body = %q, want one of %v", body, want)
		}
	})

	t.Run("unmatched host returns 404", func(t *testing.T) {
		resp := tp.send(t, "GET", "other.com", "/api/users", nil)
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("status = %d, want 404", resp.StatusCode)
		}
	})

	t.Run("weighted distribution", func(t *testing.T) {
		backendA.ResetHits()
		backendB.ResetHits()

		const trials = 300
		for i := 0; i < trials; i++ {
			resp := tp.send(t, "GET", "example.com", "/api/ping", nil)
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}

		a, b := backendA.Hits(), backendB.Hits()
		if a+b != trials {
			t.Fatalf("backends saw %d requests, want %d", a+b, trials)
		}
		// Weight 2:1; allow generous slack for randomness.
		ratio := float64(a) / float64(b)
		if ratio < 1.3 || ratio > 3.2 {
			t.Errorf("selection ratio a:b = %d:%d (%.2f), want ~2:1", a, b, ratio)
		}
	})

	t.Run("transaction history via control API", func(t *testing.T) {
		var history control.TransactionsResponse
		tp.controlGet(t, "/api/transactions?limit=5", &history)

		if len(history.Transactions) == 0 {
			t.Fatal("history is empty")
		}
		latest := history.Transactions[0]
		if latest.Outcome != txstore.OutcomeSuccess {
			t.Errorf("latest outcome = %q, want success", latest.Outcome)
		}
		if latest.Route != "api" {
			t.Errorf("latest route = %q, want api", latest.Route)
		}
	})

	t.Run("stats reflect traffic", func(t *testing.T) {
		var stats control.StatsResponse
		tp.controlGet(t, "/api/stats", &stats)

		if stats.Requests.TotalRequests == 0 {
			t.Error("total requests should be non-zero")
		}
		if len(stats.Upstreams) != 2 {
			t.Errorf("tracked upstreams = %d, want 2", len(stats.Upstreams))
		}
	})

	t.Run("replay reissues the request", func(t *testing.T) {
		resp := tp.send(t, "POST", "example.com", "/api/echo", bytes.NewReader([]byte(`{"k":"v"}`)))
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		var history control.TransactionsResponse
		tp.controlGet(t, "/api/transactions?limit=1", &history)
		original := history.Transactions[0]

		replayResp, err := http.Post(
			fmt.Sprintf("http://%s/api/transactions/%d/replay", tp.srv.ControlAddr(), original.ID),
			"application/json", nil)
		if err != nil {
			t.Fatalf("replay request failed: %v", err)
		}
		defer replayResp.Body.Close()

		if replayResp.StatusCode != http.StatusAccepted {
			t.Fatalf("replay status = %d, want 202", replayResp.StatusCode)
		}

		var replay control.ReplayResponse
		if err := json.NewDecoder(replayResp.Body).Decode(&replay); err != nil {
			t.Fatalf("failed to decode replay response: %v", err)
		}
		if replay.ReplayID == original.ID {
			t.Error("replay should receive a fresh transaction id")
		}

		// The detached replay finalizes shortly after admission.
		deadline := time.Now().Add(2 * time.Second)
		for {
			// Get only returns finalized transactions.
			tx, err := tp.store.Get(replay.ReplayID)
			if err == nil {
				if tx.Method != "POST" || tx.Path != "/api/echo" {
					t.Errorf("replayed %s %s, want POST /api/echo", tx.Method, tx.Path)
				}
				if tx.ReplayOf != original.ID {
					t.Errorf("replay_of = %d, want %d", tx.ReplayOf, original.ID)
				}
				break
			}
			if time.Now().After(deadline) {
				t.Fatal("replay transaction never finalized")
			}
			time.Sleep(10 * time.Millisecond)
		}
	})

	t.Run("outstanding transactions drain to zero", func(t *testing.T) {
		deadline := time.Now().Add(2 * time.Second)
		for tp.store.Outstanding() != 0 {
			if time.Now().After(deadline) {
				t.Fatalf("outstanding = %d, want 0", tp.store.Outstanding())
			}
			time.Sleep(10 * time.Millisecond)
		}
	})
}

func TestProxyFailoverAndCooldown(t *testing.T) {
	healthy := testutil.NewUpstream("healthy")
	defer healthy.Close()

	failing := testutil.NewUpstream("failing")
	failing.SetStatus(http.StatusBadGateway)
	defer failing.Close()

	tp := startProxy(t, []config.RouteConfig{
		{
			Name:       "default",
			Hosts:      []string{"example.com"},
			PathPrefix: "/",
			Upstreams: []config.UpstreamConfig{
				{URL: failing.URL(), Weight: 10, FailThreshold: 3, Cooldown: time.Hour},
				{URL: healthy.URL(), Weight: 1, FailThreshold: 3, Cooldown: time.Hour},
			},
		},
	})

	// Drive traffic until the failing upstream trips its threshold. Each 502
	// counts as a failure; after three the upstream enters cooldown.
	tripped := false
	for i := 0; i < 200 && !tripped; i++ {
		resp := tp.send(t, "GET", "example.com", "/", nil)
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		for _, uh := range tp.tracker.Snapshot() {
			if uh.URL == failing.URL() && uh.Status == "cooling" {
				tripped = true
			}
		}
	}
	if !tripped {
		t.Fatal("failing upstream never entered cooldown")
	}

	// All subsequent requests must land on the healthy upstream despite its
	// lower weight.
	for i := 0; i < 20; i++ {
		resp := tp.send(t, "GET", "example.com", "/", nil)
		backend := resp.Header.Get("X-Backend")
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i, resp.StatusCode)
		}
		if backend != "healthy" {
			t.Fatalf("request %d landed on %q, want healthy upstream only", i, backend)
		}
	}
}

func TestProxyNoHealthyUpstream(t *testing.T) {
	down := testutil.NewUpstream("down")
	down.SetStatus(http.StatusServiceUnavailable)
	defer down.Close()

	tp := startProxy(t, []config.RouteConfig{
		{
			Name:       "default",
			Hosts:      []string{"example.com"},
			PathPrefix: "/",
			Upstreams: []config.UpstreamConfig{
				{URL: down.URL(), FailThreshold: 1, Cooldown: time.Hour},
			},
		},
	})

	// First request trips the only upstream.
	resp := tp.send(t, "GET", "example.com", "/", nil)
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	// With every upstream cooling the route returns 503.
	resp = tp.send(t, "GET", "example.com", "/", nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", resp.StatusCode)
	}
}

func TestRouteTableHotSwap(t *testing.T) {
	backendOld := testutil.NewUpstream("old")
	defer backendOld.Close()

	backendNew := testutil.NewUpstream("new")
	defer backendNew.Close()

	tp := startProxy(t, []config.RouteConfig{
		{
			Name:       "default",
			Hosts:      []string{"example.com"},
			PathPrefix: "/",
			Upstreams:  []config.UpstreamConfig{{URL: backendOld.URL()}},
		},
	})

	resp := tp.send(t, "GET", "example.com", "/", nil)
	backend := resp.Header.Get("X-Backend")
	resp.Body.Close()
	if backend != "old" {
		t.Fatalf("backend = %q before swap, want old", backend)
	}

	// Swap in a table pointing at the new backend, the operation a config
	// reload performs.
	newCfg := &config.Config{
		Routes: []config.RouteConfig{
			{
				Name:       "default",
				Hosts:      []string{"example.com"},
				PathPrefix: "/",
				Upstreams:  []config.UpstreamConfig{{URL: backendNew.URL()}},
			},
		},
	}
	config.ApplyDefaults(newCfg)
	table, err := newCfg.RouteTable()
	if err != nil {
		t.Fatalf("failed to build swapped table: %v", err)
	}
	tp.pipeline.SetTable(table)

	resp = tp.send(t, "GET", "example.com", "/", nil)
	backend = resp.Header.Get("X-Backend")
	resp.Body.Close()
	if backend != "new" {
		t.Errorf("backend = %q after swap, want new", backend)
	}
}
