package txstore

import (
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultCapacity is the ring size used when a Store is created with a
// non-positive capacity.
const DefaultCapacity = 1000

// Store assigns transaction ids and retains the most recent finalized
// transactions in a fixed-size ring. All methods are safe for concurrent
// use.
type Store struct {
	nextID atomic.Uint64

	// Aggregate counters, updated without taking the ring lock.
	total     atomic.Int64
	active    atomic.Int64
	succeeded atomic.Int64
	failed    atomic.Int64
	cancelled atomic.Int64
	reqBytes  atomic.Int64
	respBytes atomic.Int64

	mu      sync.Mutex
	records []Transaction // circular buffer in finalize order
	next    int           // index of the next write
	count   int           // number of valid records

	hooks  []func(Transaction)
	logger *slog.Logger
}

// New creates a Store retaining up to capacity finalized transactions.
// A non-positive capacity falls back to DefaultCapacity.
func New(capacity int) *Store {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &Store{
		records: make([]Transaction, 0, capacity),
		logger:  slog.Default().With("component", "txstore"),
	}
}

// OnFinalize registers a hook invoked with a copy of every finalized
// transaction, after it has been published to the ring. Hooks run on the
// finalizing goroutine and must not block. Register hooks before the store
// starts receiving traffic.
func (s *Store) OnFinalize(hook func(Transaction)) {
	s.hooks = append(s.hooks, hook)
}

// Begin admits a request into the store: it allocates the next transaction
// id, captures the request line and headers, and returns the Pending guard
// that will finalize the record. Begin never blocks on I/O.
func (s *Store) Begin(method, host, path, query string, header http.Header) *Pending {
	id := s.nextID.Add(1)
	s.total.Add(1)
	s.active.Add(1)

	p := &Pending{store: s}
	p.tx = Transaction{
		ID:         id,
		StartTime:  time.Now(),
		Method:     method,
		Host:       host,
		Path:       path,
		Query:      query,
		Replayable: true,
		header:     header.Clone(),
	}
	return p
}

// finalize publishes a completed record and fans it out to the registered
// hooks. Called exactly once per transaction by Pending.Finish.
func (s *Store) finalize(tx Transaction) {
	s.active.Add(-1)
	switch tx.Outcome {
	case OutcomeSuccess:
		s.succeeded.Add(1)
	case OutcomeClientCancelled:
		s.cancelled.Add(1)
	default:
		s.failed.Add(1)
	}
	s.reqBytes.Add(tx.RequestBytes)
	s.respBytes.Add(tx.ResponseBytes)

	s.mu.Lock()
	if s.count < cap(s.records) {
		s.records = append(s.records, tx)
		s.count++
		s.next = s.count % cap(s.records)
	} else {
		s.records[s.next] = tx
		s.next = (s.next + 1) % cap(s.records)
	}
	s.mu.Unlock()

	for _, hook := range s.hooks {
		hook(tx)
	}
}

// History returns up to limit finalized transactions, most recent first.
// A non-positive limit returns everything in the ring.
func (s *Store) History(limit int) []Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.count
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]Transaction, 0, n)
	// Newest record sits just behind the write cursor.
	idx := s.next - 1
	for i := 0; i < n; i++ {
		if idx < 0 {
			idx = s.count - 1
		}
		out = append(out, s.records[idx])
		idx--
	}
	return out
}

// Get returns the finalized transaction with the given id, or
// ErrTransactionNotFound if it never existed or was evicted.
func (s *Store) Get(id uint64) (Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.records[:s.count] {
		if s.records[i].ID == id {
			return s.records[i], nil
		}
	}
	return Transaction{}, ErrTransactionNotFound
}

// Outstanding reports how many transactions have begun but not yet
// finalized.
func (s *Store) Outstanding() int64 {
	return s.active.Load()
}

// Stats returns a snapshot of the aggregate counters.
func (s *Store) Stats() Stats {
	return Stats{
		TotalRequests:      s.total.Load(),
		ActiveRequests:     s.active.Load(),
		SuccessfulRequests: s.succeeded.Load(),
		FailedRequests:     s.failed.Load(),
		CancelledRequests:  s.cancelled.Load(),
		RequestBytes:       s.reqBytes.Load(),
		ResponseBytes:      s.respBytes.Load(),
	}
}
