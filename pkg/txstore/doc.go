// Package txstore records every proxied exchange as an immutable transaction.
//
// # Lifecycle
//
// A transaction is born at request admission with Begin, which allocates the
// next id from a single atomic counter and returns a Pending guard. The guard
// owns the exchange's end: exactly one Finish publishes the completed record
// into a bounded ring, and any further Finish calls are no-ops. Request
// handlers defer a fallback Finish so that timeouts, cancellations, and
// panics still finalize the record — no transaction is ever left open.
//
// # Ordering
//
// Ids are strictly increasing in allocation order, but two concurrent
// requests may finalize out of id order; History returns records ordered by
// finalize time, newest first. The ring holds the most recent finalized
// transactions (oldest evicted) and writers never block readers for longer
// than a copy.
//
// # Replay
//
// Records retain the inbound headers and a bounded copy of the request body,
// so a stored transaction can be reissued through the proxy pipeline as a
// fresh request with a new id. Bodies that overflow the capture limit stream
// through unrecorded and mark the transaction non-replayable.
package txstore
