package control

import (
	"net/http"

	"github.com/gorilla/mux"
)

// NewRouter builds the control API router. metricsHandler is mounted at
// metricsPath when non-nil; passing nil leaves metrics unregistered, the
// shape of a config with metrics disabled.
func NewRouter(h *Handlers, metricsHandler http.Handler, metricsPath string) *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/health", h.HealthCheck).Methods("GET")

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/stats", h.GetStats).Methods("GET")
	api.HandleFunc("/transactions", h.GetTransactions).Methods("GET")
	api.HandleFunc("/transactions/{id}", h.GetTransaction).Methods("GET")
	api.HandleFunc("/transactions/{id}/replay", h.ReplayTransaction).Methods("POST")

	if metricsHandler != nil {
		if metricsPath == "" {
			metricsPath = "/metrics"
		}
		router.Handle(metricsPath, metricsHandler).Methods("GET")
	}

	return router
}
