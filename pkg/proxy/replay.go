package proxy

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"

	"spyglass-hq/spyglass/pkg/txstore"
)

// replayOriginKey marks a request context as a replay of a stored
// transaction.
type replayOriginKey struct{}

// NewReplayRequest builds the synthetic inbound request for reissuing a
// stored transaction. The request re-enters the full pipeline, so route
// matching and upstream selection run fresh against the current table, and
// the resulting transaction records which id it replays.
func NewReplayRequest(ctx context.Context, desc *txstore.RequestDescription) (*http.Request, error) {
	target := url.URL{
		Scheme:   "http",
		Host:     desc.Host,
		Path:     desc.Path,
		RawQuery: desc.Query,
	}

	ctx = context.WithValue(ctx, replayOriginKey{}, desc.OriginalID)
	req, err := http.NewRequestWithContext(ctx, desc.Method, target.String(), bytes.NewReader(desc.Body))
	if err != nil {
		return nil, fmt.Errorf("failed to build replay request: %w", err)
	}
	if desc.Header != nil {
		req.Header = desc.Header
	}
	req.Host = desc.Host
	return req, nil
}

// ReplayOrigin returns the id of the transaction this request replays, if
// any.
func ReplayOrigin(ctx context.Context) (uint64, bool) {
	id, ok := ctx.Value(replayOriginKey{}).(uint64)
	return id, ok
}

// replayAdmissionKey carries a callback receiving the replayed
// transaction's id at admission.
type replayAdmissionKey struct{}

// WithReplayAdmission arranges for fn to be called with the replay's new
// transaction id as soon as the pipeline admits it, before any forwarding.
// The callback runs on the replay's serving goroutine and must not block.
func WithReplayAdmission(ctx context.Context, fn func(id uint64)) context.Context {
	return context.WithValue(ctx, replayAdmissionKey{}, fn)
}

func replayAdmission(ctx context.Context) (func(uint64), bool) {
	fn, ok := ctx.Value(replayAdmissionKey{}).(func(uint64))
	return fn, ok
}
