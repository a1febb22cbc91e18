package proxy

import (
	"crypto/tls"
	"net"
	"net/http"
	"sync"
	"time"
)

// transportPool maintains one http.Transport per upstream so each upstream
// gets its own idle-connection pool. Transports are created lazily on first
// use and survive route-table reloads for upstreams that remain configured.
type transportPool struct {
	mu                 sync.RWMutex
	transports         map[string]*http.Transport
	maxIdlePerUpstream int
}

func newTransportPool(maxIdlePerUpstream int) *transportPool {
	return &transportPool{
		transports:         make(map[string]*http.Transport),
		maxIdlePerUpstream: maxIdlePerUpstream,
	}
}

// get returns the transport for the given upstream URL, creating it on
// first use.
func (p *transportPool) get(upstream string) *http.Transport {
	p.mu.RLock()
	tr, ok := p.transports[upstream]
	p.mu.RUnlock()
	if ok {
		return tr
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	// Another goroutine may have created it while we upgraded the lock.
	if tr, ok := p.transports[upstream]; ok {
		return tr
	}

	tr = &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 60 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     false,
		TLSClientConfig:       &tls.Config{NextProtos: []string{"http/1.1"}},
		MaxIdleConns:          4 * p.maxIdlePerUpstream,
		MaxIdleConnsPerHost:   p.maxIdlePerUpstream,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	p.transports[upstream] = tr
	return tr
}

// sync drops pooled transports for upstreams that are no longer configured,
// closing their idle connections. Upstreams that survive a reload keep their
// warm pools.
func (p *transportPool) sync(active map[string]bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for upstream, tr := range p.transports {
		if !active[upstream] {
			tr.CloseIdleConnections()
			delete(p.transports, upstream)
		}
	}
}
