package health

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"spyglass-hq/spyglass/pkg/routing"
)

// cell holds one upstream's health state behind its own mutex. The fail
// threshold and cooldown are adopted from the upstream at creation and
// refreshed by SyncTable on reload.
type cell struct {
	mu                  sync.Mutex
	failThreshold       int
	cooldown            time.Duration
	consecutiveFailures int
	status              Status
	cooldownExpiry      time.Time
}

// Tracker maintains a health cell per upstream identity (URL). All methods
// are safe for concurrent use; synchronization is per-cell so unrelated
// upstreams never contend.
type Tracker struct {
	mu     sync.RWMutex // guards the cells map, never held across cell locks
	cells  map[string]*cell
	logger *slog.Logger
}

// NewTracker returns an empty tracker. Cells are created on first use or by
// SyncTable.
func NewTracker() *Tracker {
	return &Tracker{
		cells:  make(map[string]*cell),
		logger: slog.Default().With("component", "health"),
	}
}

// cellFor returns the cell for the upstream, creating it on first sight.
func (t *Tracker) cellFor(upstream *routing.Upstream) *cell {
	t.mu.RLock()
	c, ok := t.cells[upstream.URL]
	t.mu.RUnlock()
	if ok {
		return c
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if c, ok := t.cells[upstream.URL]; ok {
		return c
	}
	c = &cell{
		failThreshold: upstream.FailThreshold,
		cooldown:      upstream.Cooldown,
		status:        StatusHealthy,
	}
	t.cells[upstream.URL] = c
	return c
}

// IsEligible reports whether the upstream may be selected at the given time.
// A cooling upstream whose cooldown has expired is revived here: its status
// returns to healthy and its failure counter clears, so one stray failure
// from stale state cannot immediately re-trip it.
func (t *Tracker) IsEligible(upstream *routing.Upstream, now time.Time) bool {
	c := t.cellFor(upstream)
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.status == StatusHealthy {
		return true
	}
	if now.Before(c.cooldownExpiry) {
		return false
	}

	c.status = StatusHealthy
	c.consecutiveFailures = 0
	c.cooldownExpiry = time.Time{}
	return true
}

// RecordSuccess resets the upstream's failure streak and marks it healthy.
func (t *Tracker) RecordSuccess(upstream *routing.Upstream) {
	c := t.cellFor(upstream)
	c.mu.Lock()
	recovered := c.consecutiveFailures > 0
	c.consecutiveFailures = 0
	c.status = StatusHealthy
	c.cooldownExpiry = time.Time{}
	c.mu.Unlock()

	if recovered {
		t.logger.Info("upstream recovered", "upstream", upstream.URL)
	}
}

// RecordFailure increments the upstream's failure streak. Crossing the fail
// threshold while healthy puts the upstream into cooldown until now plus its
// configured cooldown duration. The transition is visible to every
// subsequent IsEligible call before RecordFailure returns.
func (t *Tracker) RecordFailure(upstream *routing.Upstream, now time.Time) {
	c := t.cellFor(upstream)
	c.mu.Lock()
	c.consecutiveFailures++
	failures := c.consecutiveFailures
	tripped := c.status == StatusHealthy && c.consecutiveFailures >= c.failThreshold
	if tripped {
		c.status = StatusCooling
		c.cooldownExpiry = now.Add(c.cooldown)
	}
	c.mu.Unlock()

	if tripped {
		t.logger.Warn("upstream entering cooldown",
			"upstream", upstream.URL,
			"consecutive_failures", failures,
			"cooldown", upstream.Cooldown,
		)
	}
}

// SyncTable reconciles the tracker with a freshly loaded route table: cells
// for upstreams that survive the reload keep their state but adopt the new
// threshold and cooldown, new upstreams get fresh healthy cells, and cells
// whose upstream disappeared are dropped.
func (t *Tracker) SyncTable(upstreams []*routing.Upstream) {
	active := make(map[string]*routing.Upstream, len(upstreams))
	for _, upstream := range upstreams {
		active[upstream.URL] = upstream
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	for url := range t.cells {
		if _, ok := active[url]; !ok {
			delete(t.cells, url)
		}
	}
	for url, upstream := range active {
		if c, ok := t.cells[url]; ok {
			c.mu.Lock()
			c.failThreshold = upstream.FailThreshold
			c.cooldown = upstream.Cooldown
			c.mu.Unlock()
			continue
		}
		t.cells[url] = &cell{
			failThreshold: upstream.FailThreshold,
			cooldown:      upstream.Cooldown,
			status:        StatusHealthy,
		}
	}
}

// Snapshot returns the current state of every cell, sorted by upstream URL.
// Cooling cells whose expiry has passed are reported as-is; they revive on
// the next eligibility check, not here.
func (t *Tracker) Snapshot() []UpstreamHealth {
	t.mu.RLock()
	cells := make(map[string]*cell, len(t.cells))
	for url, c := range t.cells {
		cells[url] = c
	}
	t.mu.RUnlock()

	snapshot := make([]UpstreamHealth, 0, len(cells))
	for url, c := range cells {
		c.mu.Lock()
		snapshot = append(snapshot, UpstreamHealth{
			URL:                 url,
			Status:              c.status.String(),
			ConsecutiveFailures: c.consecutiveFailures,
			CooldownExpiry:      c.cooldownExpiry,
		})
		c.mu.Unlock()
	}

	sort.Slice(snapshot, func(i, j int) bool { return snapshot[i].URL < snapshot[j].URL })
	return snapshot
}
