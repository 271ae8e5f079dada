package endpoints

import (
	"net/http"

	"github.com/doodlesbykumbi/handover-tracker/pkg/logger"
	"github.com/doodlesbykumbi/handover-tracker/pkg/server"
	"github.com/doodlesbykumbi/handover-tracker/pkg/server/store"
)

// HealthResponse is returned by the health check
type HealthResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// RegisterStatusEndpoints registers the health check (no auth required)
func RegisterStatusEndpoints(s *server.Server) {
	s.Router.HandleFunc("/api/health", handleHealth(s.HealthStore, s.Logger)).Methods("GET")
}

func handleHealth(healthStore store.HealthStore, lggr logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := healthStore.CheckConnectivity(r.Context()); err != nil {
			lggr.Warnw("Health check failed", "err", err)
			respondWithJSON(w, http.StatusServiceUnavailable, HealthResponse{
				Status: "error",
				Error:  "database connectivity check failed",
			})
			return
		}
		respondWithJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
	}
}
