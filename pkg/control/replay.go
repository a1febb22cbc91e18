package control

import (
	"context"
	"errors"
	"net/http"
	"time"

	"spyglass-hq/spyglass/pkg/proxy"
	"spyglass-hq/spyglass/pkg/txstore"
)

// admissionTimeout guards the wait for a replay's admission. The pipeline
// admits before any I/O, so in practice this never fires.
const admissionTimeout = 5 * time.Second

// ReplayResponse is the POST /api/transactions/{id}/replay payload.
type ReplayResponse struct {
	OriginalID uint64 `json:"original_id"`
	ReplayID   uint64 `json:"replay_id"`
}

// ReplayTransaction reissues a stored request through the proxy pipeline.
// It answers 202 as soon as the replay is admitted; the replay runs
// detached, goes through route matching and upstream selection fresh, and
// its outcome lands in the transaction store like any other exchange.
func (h *Handlers) ReplayTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := transactionID(w, r)
	if !ok {
		return
	}

	desc, err := h.store.Replay(id)
	switch {
	case errors.Is(err, txstore.ErrTransactionNotFound):
		writeError(w, http.StatusNotFound, "transaction not found")
		return
	case errors.Is(err, txstore.ErrNotReplayable):
		writeError(w, http.StatusConflict, "request body was not captured, transaction cannot be replayed")
		return
	case err != nil:
		h.logger.Error("replay reconstruction failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to reconstruct request")
		return
	}

	admitted := make(chan uint64, 1)
	ctx := proxy.WithReplayAdmission(context.Background(), func(replayID uint64) {
		admitted <- replayID
	})

	req, err := proxy.NewReplayRequest(ctx, desc)
	if err != nil {
		h.logger.Error("failed to build replay request", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to build replay request")
		return
	}

	// The replay runs detached from the control request, so the data
	// plane's recovery middleware does not cover it. A panic here must be
	// contained: it would otherwise take down the whole process.
	failed := make(chan struct{})
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				h.logger.Error("replay pipeline panicked",
					"original_id", id,
					"panic", rec,
				)
				close(failed)
			}
		}()
		h.pipeline.ServeHTTP(newDiscardWriter(), req)
	}()

	accept := func(replayID uint64) {
		h.logger.Info("transaction replay accepted",
			"original_id", id,
			"replay_id", replayID,
		)
		writeJSON(w, http.StatusAccepted, ReplayResponse{
			OriginalID: id,
			ReplayID:   replayID,
		})
	}

	select {
	case replayID := <-admitted:
		accept(replayID)
	case <-failed:
		// The pipeline may have admitted the replay before panicking, in
		// which case its transaction was still finalized by the pipeline's
		// guard and the replay counts as accepted.
		select {
		case replayID := <-admitted:
			accept(replayID)
		default:
			writeError(w, http.StatusInternalServerError, "replay failed")
		}
	case <-time.After(admissionTimeout):
		h.logger.Error("replay was not admitted", "id", id)
		writeError(w, http.StatusInternalServerError, "replay was not admitted")
	}
}

// discardWriter satisfies http.ResponseWriter for replayed requests. A
// replay has no waiting client; the response is captured by the transaction
// store and discarded here.
type discardWriter struct {
	header http.Header
}

func newDiscardWriter() *discardWriter {
	return &discardWriter{header: make(http.Header)}
}

func (d *discardWriter) Header() http.Header         { return d.header }
func (d *discardWriter) Write(b []byte) (int, error) { return len(b), nil }
func (d *discardWriter) WriteHeader(statusCode int)  {}
