package txstore

import (
	"sync"
	"time"
)

// Pending is the finalize guard for one in-flight transaction. The goroutine
// handling the request owns it: setters are not synchronized and must be
// called before Finish. Finish publishes the record exactly once; later
// calls are no-ops, which lets handlers defer a fallback Finish for paths
// that abort early.
type Pending struct {
	store *Store
	tx    Transaction
	once  sync.Once
}

// ID returns the transaction id allocated at Begin.
func (p *Pending) ID() uint64 {
	return p.tx.ID
}

// SetForwarding records the routing decision made for this request.
func (p *Pending) SetForwarding(route, upstream string) {
	p.tx.Route = route
	p.tx.Upstream = upstream
}

// SetReplayOf marks this transaction as a reissue of an earlier one.
func (p *Pending) SetReplayOf(id uint64) {
	p.tx.ReplayOf = id
}

// SetBytes records how many body bytes were read from the client and
// written back to it.
func (p *Pending) SetBytes(requestBytes, responseBytes int64) {
	p.tx.RequestBytes = requestBytes
	p.tx.ResponseBytes = responseBytes
}

// SetBody stores the captured request body. When overflowed is true the
// body exceeded the capture limit, the stored bytes are discarded, and the
// transaction is marked non-replayable.
func (p *Pending) SetBody(body []byte, overflowed bool) {
	if overflowed {
		p.tx.body = nil
		p.tx.Replayable = false
		return
	}
	p.tx.body = body
}

// Finish completes the transaction with the given outcome, the status code
// written to the client (0 when none was), and an optional error detail.
// Only the first call publishes; the record becomes visible in History and
// the finalize hooks fire before Finish returns.
func (p *Pending) Finish(outcome Outcome, status int, errDetail string) {
	p.once.Do(func() {
		p.tx.EndTime = time.Now()
		p.tx.DurationMillis = p.tx.EndTime.Sub(p.tx.StartTime).Milliseconds()
		p.tx.Outcome = outcome
		p.tx.Status = status
		p.tx.Error = errDetail
		p.store.finalize(p.tx)
	})
}
