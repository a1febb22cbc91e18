package control

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"spyglass-hq/spyglass/pkg/health"
	"spyglass-hq/spyglass/pkg/txstore"
)

// DefaultHistoryLimit bounds GET /api/transactions when no limit is given.
const DefaultHistoryLimit = 100

// Handlers serves the control API. Every endpoint reads store and tracker
// snapshots; replay is the single write path, and it re-enters the proxy
// pipeline rather than touching state directly.
type Handlers struct {
	store    *txstore.Store
	tracker  *health.Tracker
	pipeline http.Handler
	logger   *slog.Logger
}

// NewHandlers creates the control API handlers. pipeline is the data-plane
// handler replays are served through.
func NewHandlers(store *txstore.Store, tracker *health.Tracker, pipeline http.Handler) *Handlers {
	return &Handlers{
		store:    store,
		tracker:  tracker,
		pipeline: pipeline,
		logger:   slog.Default().With("component", "control"),
	}
}

// StatsResponse is the GET /api/stats payload.
type StatsResponse struct {
	Requests  txstore.Stats           `json:"requests"`
	Upstreams []health.UpstreamHealth `json:"upstreams"`
}

// TransactionsResponse is the GET /api/transactions payload.
type TransactionsResponse struct {
	Transactions []txstore.Transaction `json:"transactions"`
}

// HealthCheck reports liveness.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetStats returns aggregate request counters and per-upstream health.
func (h *Handlers) GetStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatsResponse{
		Requests:  h.store.Stats(),
		Upstreams: h.tracker.Snapshot(),
	})
}

// GetTransactions returns recent transactions, most recent first. The limit
// query parameter defaults to DefaultHistoryLimit and is capped by the
// store's history size.
func (h *Handlers) GetTransactions(w http.ResponseWriter, r *http.Request) {
	limit := DefaultHistoryLimit
	if l := r.URL.Query().Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	writeJSON(w, http.StatusOK, TransactionsResponse{
		Transactions: h.store.History(limit),
	})
}

// GetTransaction returns one transaction by id.
func (h *Handlers) GetTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := transactionID(w, r)
	if !ok {
		return
	}

	tx, err := h.store.Get(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "transaction not found")
		return
	}

	writeJSON(w, http.StatusOK, tx)
}

// transactionID parses the {id} path variable, answering 400 when it is not
// a positive integer.
func transactionID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil || id == 0 {
		writeError(w, http.StatusBadRequest, "invalid transaction id")
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
