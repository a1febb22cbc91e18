package health

import (
	"sync"
	"testing"
	"time"

	"spyglass-hq/spyglass/pkg/routing"
)

func testUpstream(url string, threshold int, cooldown time.Duration) *routing.Upstream {
	return &routing.Upstream{
		URL:           url,
		Weight:        1,
		FailThreshold: threshold,
		Cooldown:      cooldown,
	}
}

func TestTracker_EligibleByDefault(t *testing.T) {
	tracker := NewTracker()
	upstream := testUpstream("http://a:3000", 3, 15*time.Second)

	if !tracker.IsEligible(upstream, time.Now()) {
		t.Error("IsEligible() = false for an upstream with no recorded failures")
	}
}

func TestTracker_ThresholdTripsCooldown(t *testing.T) {
	tracker := NewTracker()
	upstream := testUpstream("http://a:3000", 3, 15*time.Second)
	now := time.Now()

	// Two failures keep the upstream eligible.
	tracker.RecordFailure(upstream, now)
	tracker.RecordFailure(upstream, now)
	if !tracker.IsEligible(upstream, now) {
		t.Fatal("IsEligible() = false below the fail threshold")
	}

	// The third failure trips the cooldown exactly at the threshold.
	tracker.RecordFailure(upstream, now)
	if tracker.IsEligible(upstream, now) {
		t.Fatal("IsEligible() = true immediately after tripping the threshold")
	}

	// Still cooling just before expiry.
	if tracker.IsEligible(upstream, now.Add(15*time.Second-time.Millisecond)) {
		t.Error("IsEligible() = true before cooldown expiry")
	}

	// Eligible again once the cooldown has elapsed.
	if !tracker.IsEligible(upstream, now.Add(15*time.Second)) {
		t.Error("IsEligible() = false after cooldown expiry")
	}
}

func TestTracker_RevivalClearsCounter(t *testing.T) {
	tracker := NewTracker()
	upstream := testUpstream("http://a:3000", 3, time.Second)
	now := time.Now()

	for i := 0; i < 3; i++ {
		tracker.RecordFailure(upstream, now)
	}
	if !tracker.IsEligible(upstream, now.Add(2*time.Second)) {
		t.Fatal("IsEligible() = false after expiry")
	}

	// One stray failure after revival must not immediately re-trip the
	// upstream: the counter was reset on revival.
	tracker.RecordFailure(upstream, now.Add(2*time.Second))
	if !tracker.IsEligible(upstream, now.Add(2*time.Second)) {
		t.Error("IsEligible() = false after a single post-revival failure")
	}

	snapshot := tracker.Snapshot()
	if len(snapshot) != 1 {
		t.Fatalf("Snapshot() returned %d entries, want 1", len(snapshot))
	}
	if snapshot[0].ConsecutiveFailures != 1 {
		t.Errorf("ConsecutiveFailures = %d after revival + one failure, want 1",
			snapshot[0].ConsecutiveFailures)
	}
}

func TestTracker_SuccessResetsCounter(t *testing.T) {
	tracker := NewTracker()
	upstream := testUpstream("http://a:3000", 3, 15*time.Second)
	now := time.Now()

	tracker.RecordFailure(upstream, now)
	tracker.RecordFailure(upstream, now)
	tracker.RecordSuccess(upstream)

	// The streak restarts: two more failures stay below the threshold.
	tracker.RecordFailure(upstream, now)
	tracker.RecordFailure(upstream, now)
	if !tracker.IsEligible(upstream, now) {
		t.Error("IsEligible() = false, success did not reset the failure streak")
	}
}

func TestTracker_ConcurrentFailures_NoLostUpdates(t *testing.T) {
	tracker := NewTracker()
	// Threshold beyond the failure count so every increment stays visible.
	upstream := testUpstream("http://a:3000", 10_001, time.Second)
	now := time.Now()

	concurrency := 100
	failuresPerGoroutine := 100

	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < failuresPerGoroutine; j++ {
				tracker.RecordFailure(upstream, now)
			}
		}()
	}
	wg.Wait()

	snapshot := tracker.Snapshot()
	if len(snapshot) != 1 {
		t.Fatalf("Snapshot() returned %d entries, want 1", len(snapshot))
	}
	want := concurrency * failuresPerGoroutine
	if snapshot[0].ConsecutiveFailures != want {
		t.Errorf("ConsecutiveFailures = %d, want %d (lost updates)",
			snapshot[0].ConsecutiveFailures, want)
	}
}

func TestTracker_ConcurrentTrip_CooldownTriggersOnce(t *testing.T) {
	tracker := NewTracker()
	upstream := testUpstream("http://a:3000", 3, time.Hour)
	now := time.Now()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tracker.RecordFailure(upstream, now)
		}()
	}
	wg.Wait()

	// Failures that land after the trip must not extend the expiry.
	tracker.RecordFailure(upstream, now.Add(10*time.Minute))
	tracker.RecordFailure(upstream, now.Add(20*time.Minute))

	snapshot := tracker.Snapshot()
	if snapshot[0].Status != "cooling" {
		t.Fatalf("Status = %q after 50 failures with threshold 3, want cooling", snapshot[0].Status)
	}
	wantExpiry := now.Add(time.Hour)
	if !snapshot[0].CooldownExpiry.Equal(wantExpiry) {
		t.Errorf("CooldownExpiry = %v, want %v (expiry extended after trip)",
			snapshot[0].CooldownExpiry, wantExpiry)
	}
	if tracker.IsEligible(upstream, now) {
		t.Error("IsEligible() = true while cooling")
	}
}

func TestTracker_SyncTable(t *testing.T) {
	tracker := NewTracker()
	keep := testUpstream("http://keep:3000", 3, time.Minute)
	drop := testUpstream("http://drop:3000", 3, time.Minute)
	now := time.Now()

	tracker.RecordFailure(keep, now)
	tracker.RecordFailure(keep, now)
	tracker.RecordFailure(drop, now)

	// Reload keeps one upstream (with a new policy), drops the other, and
	// introduces a third.
	relaxed := testUpstream("http://keep:3000", 5, time.Minute)
	fresh := testUpstream("http://fresh:3000", 3, time.Minute)
	tracker.SyncTable([]*routing.Upstream{relaxed, fresh})

	snapshot := tracker.Snapshot()
	if len(snapshot) != 2 {
		t.Fatalf("Snapshot() returned %d entries after sync, want 2", len(snapshot))
	}
	if snapshot[0].URL != "http://fresh:3000" || snapshot[1].URL != "http://keep:3000" {
		t.Fatalf("Snapshot() URLs = [%s %s], want [fresh keep]", snapshot[0].URL, snapshot[1].URL)
	}

	// Surviving cell kept its failure streak.
	if snapshot[1].ConsecutiveFailures != 2 {
		t.Errorf("kept upstream ConsecutiveFailures = %d, want 2", snapshot[1].ConsecutiveFailures)
	}

	// And it adopted the relaxed threshold: three more failures (total 5)
	// are needed to trip now, so one more must not.
	tracker.RecordFailure(relaxed, now)
	if !tracker.IsEligible(relaxed, now) {
		t.Error("IsEligible() = false at 3 failures with threshold raised to 5")
	}
}

func TestTracker_Snapshot_SortedAndIsolated(t *testing.T) {
	tracker := NewTracker()
	now := time.Now()
	b := testUpstream("http://b:3000", 1, time.Minute)
	a := testUpstream("http://a:3000", 3, time.Minute)

	tracker.RecordFailure(b, now)
	tracker.RecordSuccess(a)

	snapshot := tracker.Snapshot()
	if len(snapshot) != 2 {
		t.Fatalf("Snapshot() returned %d entries, want 2", len(snapshot))
	}
	if snapshot[0].URL != "http://a:3000" {
		t.Errorf("Snapshot() not sorted by URL: first = %s", snapshot[0].URL)
	}
	if snapshot[0].Status != "healthy" {
		t.Errorf("upstream a Status = %q, want healthy", snapshot[0].Status)
	}
	if snapshot[1].Status != "cooling" {
		t.Errorf("upstream b Status = %q, want cooling (threshold 1)", snapshot[1].Status)
	}
}
