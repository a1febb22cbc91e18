package proxy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"spyglass-hq/spyglass/pkg/balancer"
	"spyglass-hq/spyglass/pkg/health"
	"spyglass-hq/spyglass/pkg/routing"
	"spyglass-hq/spyglass/pkg/txstore"
)

// Handler drives the full proxy pipeline for every inbound request. It
// holds the active route table behind an atomic pointer so reloads swap it
// without pausing traffic; a request keeps the snapshot it loaded at
// admission.
type Handler struct {
	table atomic.Pointer[routing.Table]

	store        *txstore.Store
	tracker      *health.Tracker
	balancer     *balancer.Balancer
	forwarder    *Forwarder
	captureLimit int
	logger       *slog.Logger
}

// NewHandler creates the pipeline handler. captureLimit bounds the request
// body bytes retained per transaction for replay.
func NewHandler(store *txstore.Store, tracker *health.Tracker, bal *balancer.Balancer, forwarder *Forwarder, captureLimit int) *Handler {
	return &Handler{
		store:        store,
		tracker:      tracker,
		balancer:     bal,
		forwarder:    forwarder,
		captureLimit: captureLimit,
		logger:       slog.Default().With("component", "proxy"),
	}
}

// SetTable installs a new route table and reconciles the health tracker and
// transport pool with its upstream set. In-flight requests continue against
// the table they were admitted under.
func (h *Handler) SetTable(table *routing.Table) {
	h.table.Store(table)
	upstreams := table.Upstreams()
	h.tracker.SyncTable(upstreams)
	h.forwarder.SyncUpstreams(upstreams)
	h.logger.Info("route table installed",
		"routes", len(table.Routes()),
		"upstreams", len(upstreams),
	)
}

// Table returns the currently active route table.
func (h *Handler) Table() *routing.Table {
	return h.table.Load()
}

// ServeHTTP implements the pipeline described in the package documentation.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	pending := h.store.Begin(r.Method, r.Host, r.URL.Path, r.URL.RawQuery, r.Header)
	if origin, ok := ReplayOrigin(r.Context()); ok {
		pending.SetReplayOf(origin)
		if notify, ok := replayAdmission(r.Context()); ok {
			notify(pending.ID())
		}
	}

	capture := newCaptureReader(r.Body, h.captureLimit)
	r.Body = capture
	rec := newResponseRecorder(w)

	finish := func(outcome txstore.Outcome, status int, detail string) {
		body, overflowed := capture.Captured()
		pending.SetBody(body, overflowed)
		pending.SetBytes(capture.BytesRead(), rec.BytesWritten())
		pending.Finish(outcome, status, detail)
	}

	// Fallback finalize for abnormal exits; the normal paths below have
	// already finished and this becomes a no-op.
	defer func() {
		if r.Context().Err() == context.Canceled {
			finish(txstore.OutcomeClientCancelled, rec.Status(), "client closed connection")
		} else {
			finish(txstore.OutcomeUpstreamError, http.StatusInternalServerError, "request aborted")
		}
	}()

	var route *routing.Route
	if table := h.table.Load(); table != nil {
		route = table.Match(r.Host, r.URL.Path)
	}
	if route == nil {
		errResp := HandleError(ErrNoRouteMatch)
		_ = WriteErrorResponse(rec, errResp)
		finish(txstore.OutcomeNoRouteMatch, errResp.Error.HTTPStatusCode(), errResp.Error.Message)
		h.logger.Debug("no route matched", "host", r.Host, "path", r.URL.Path)
		return
	}

	upstream, err := h.balancer.Select(route, time.Now())
	if err != nil {
		errResp := HandleError(err)
		_ = WriteErrorResponse(rec, errResp)
		finish(txstore.OutcomeNoHealthyUpstream, errResp.Error.HTTPStatusCode(), err.Error())
		h.logger.Warn("no eligible upstream", "route", route.Name)
		return
	}
	pending.SetForwarding(route.Name, upstream.URL)

	result, err := h.forwarder.Forward(rec, r, upstream, route.RewritePath(r.URL.Path))
	now := time.Now()
	if err != nil {
		// Forward wrote nothing; the attempt never produced a response.
		h.tracker.RecordFailure(upstream, now)

		if errors.Is(err, ErrClientCancelled) {
			finish(txstore.OutcomeClientCancelled, 0, err.Error())
			h.logger.Debug("client cancelled request",
				"route", route.Name,
				"upstream", upstream.URL,
			)
			return
		}

		errResp := HandleError(err)
		_ = WriteErrorResponse(rec, errResp)
		finish(txstore.OutcomeUpstreamError, errResp.Error.HTTPStatusCode(), err.Error())
		h.logger.Warn("upstream attempt failed",
			"route", route.Name,
			"upstream", upstream.URL,
			"error", err,
		)
		return
	}

	if result.Status >= 500 {
		h.tracker.RecordFailure(upstream, now)
		finish(txstore.OutcomeUpstreamError, result.Status, fmt.Sprintf("upstream returned status %d", result.Status))
		return
	}

	h.tracker.RecordSuccess(upstream)
	finish(txstore.OutcomeSuccess, result.Status, "")
}
