package txstore

import "errors"

var (
	// ErrTransactionNotFound indicates the requested id is not in the ring,
	// either because it never existed or because it has been evicted.
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrNotReplayable indicates the transaction's request body overflowed
	// the capture limit and cannot be reissued faithfully.
	ErrNotReplayable = errors.New("transaction is not replayable")
)
