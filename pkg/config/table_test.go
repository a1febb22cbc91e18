package config

import (
	"testing"
	"time"
)

func TestRouteTable(t *testing.T) {
	cfg := &Config{
		Routes: []RouteConfig{
			{
				Name:          "api",
				Hosts:         []string{"example.com"},
				PathPrefix:    "/api",
				StripPrefix:   true,
				RewritePrefix: "/v1",
				Upstreams: []UpstreamConfig{
					{URL: "http://10.0.0.1:3000", Weight: 2, FailThreshold: 5, Cooldown: 30 * time.Second},
				},
			},
			{
				Name:       "fallback",
				Hosts:      []string{"*.example.org"},
				PathPrefix: "/",
				Upstreams: []UpstreamConfig{
					{URL: "https://10.0.0.2:8443", Weight: 1, FailThreshold: 3, Cooldown: 15 * time.Second},
				},
			},
		},
	}

	table, err := cfg.RouteTable()
	if err != nil {
		t.Fatalf("RouteTable() error = %v, want nil", err)
	}

	route := table.Match("example.com", "/api/users")
	if route == nil {
		t.Fatal("Match() = nil, want api route")
	}
	if route.Name != "api" {
		t.Errorf("route.Name = %q, want %q", route.Name, "api")
	}
	if !route.StripPrefix || route.RewritePrefix != "/v1" {
		t.Errorf("rewrite settings not carried: strip=%v rewrite=%q", route.StripPrefix, route.RewritePrefix)
	}

	upstream := route.Upstreams[0]
	if upstream.Weight != 2 || upstream.FailThreshold != 5 || upstream.Cooldown != 30*time.Second {
		t.Errorf("upstream settings not carried: weight=%d threshold=%d cooldown=%v",
			upstream.Weight, upstream.FailThreshold, upstream.Cooldown)
	}
	if upstream.Target() == nil {
		t.Fatal("upstream.Target() = nil, want parsed URL")
	}
	if upstream.Target().Host != "10.0.0.1:3000" {
		t.Errorf("Target().Host = %q, want %q", upstream.Target().Host, "10.0.0.1:3000")
	}

	if sub := table.Match("api.example.org", "/anything"); sub == nil || sub.Name != "fallback" {
		t.Errorf("wildcard match = %v, want fallback route", sub)
	}
}

func TestRouteTableInvalidUpstream(t *testing.T) {
	cfg := &Config{
		Routes: []RouteConfig{
			{
				Name:       "bad",
				Hosts:      []string{"example.com"},
				PathPrefix: "/",
				Upstreams: []UpstreamConfig{
					{URL: "not a url", Weight: 1, FailThreshold: 3, Cooldown: 15 * time.Second},
				},
			},
		},
	}

	if _, err := cfg.RouteTable(); err == nil {
		t.Error("RouteTable() error = nil, want error for invalid upstream URL")
	}
}

func TestRouteTableCopiesConfig(t *testing.T) {
	cfg := &Config{
		Routes: []RouteConfig{
			{
				Name:       "api",
				Hosts:      []string{"example.com"},
				PathPrefix: "/",
				Upstreams: []UpstreamConfig{
					{URL: "http://10.0.0.1:3000", Weight: 1, FailThreshold: 3, Cooldown: 15 * time.Second},
				},
			},
		},
	}

	table, err := cfg.RouteTable()
	if err != nil {
		t.Fatalf("RouteTable() error = %v, want nil", err)
	}

	// Mutating the config after the build must not reach into the table.
	cfg.Routes[0].Hosts[0] = "changed.example"

	if route := table.Match("example.com", "/"); route == nil {
		t.Error("Match() = nil after config mutation, want original host still matched")
	}
}
