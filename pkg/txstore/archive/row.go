package archive

import (
	"time"

	"github.com/google/uuid"

	"spyglass-hq/spyglass/pkg/txstore"
)

// Row is one archived transaction summary. Transaction ids restart at 1 on
// every process start, so rows carry their own UUID plus the run id of the
// process that wrote them; the pair (run_id, transaction_id) stays meaningful
// across restarts. Headers and bodies are never archived.
type Row struct {
	ArchiveID     string
	RunID         string
	TransactionID uint64
	ReplayOf      uint64

	StartTime      time.Time
	EndTime        time.Time
	DurationMillis int64

	Method string
	Host   string
	Path   string
	Query  string

	Route    string
	Upstream string

	Outcome string
	Status  int
	Error   string

	RequestBytes  int64
	ResponseBytes int64
}

// NewRow builds an archive row from a finalized transaction.
func NewRow(runID string, tx txstore.Transaction) Row {
	return Row{
		ArchiveID:     uuid.New().String(),
		RunID:         runID,
		TransactionID: tx.ID,
		ReplayOf:      tx.ReplayOf,

		StartTime:      tx.StartTime,
		EndTime:        tx.EndTime,
		DurationMillis: tx.DurationMillis,

		Method: tx.Method,
		Host:   tx.Host,
		Path:   tx.Path,
		Query:  tx.Query,

		Route:    tx.Route,
		Upstream: tx.Upstream,

		Outcome: string(tx.Outcome),
		Status:  tx.Status,
		Error:   tx.Error,

		RequestBytes:  tx.RequestBytes,
		ResponseBytes: tx.ResponseBytes,
	}
}
