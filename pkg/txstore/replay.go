package txstore

import (
	"fmt"
	"net/http"
)

// RequestDescription carries everything needed to reissue a recorded
// request through the proxy pipeline. Header and Body are copies owned by
// the caller.
type RequestDescription struct {
	Method     string
	Host       string
	Path       string
	Query      string
	Header     http.Header
	Body       []byte
	OriginalID uint64
}

// Replay reconstructs the request description for a finalized transaction.
// The reissued request goes back through route matching and upstream
// selection, so the description deliberately omits the original routing
// decision. Returns ErrTransactionNotFound for unknown or evicted ids and
// ErrNotReplayable when the body overflowed the capture limit.
func (s *Store) Replay(id uint64) (*RequestDescription, error) {
	tx, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if !tx.Replayable {
		return nil, fmt.Errorf("transaction %d: %w", id, ErrNotReplayable)
	}

	return &RequestDescription{
		Method:     tx.Method,
		Host:       tx.Host,
		Path:       tx.Path,
		Query:      tx.Query,
		Header:     tx.header.Clone(),
		Body:       append([]byte(nil), tx.body...),
		OriginalID: tx.ID,
	}, nil
}
