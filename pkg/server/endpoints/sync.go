package endpoints

import (
	"context"
	"net/http"

	"github.com/doodlesbykumbi/handover-tracker/pkg/config"
	"github.com/doodlesbykumbi/handover-tracker/pkg/logger"
	"github.com/doodlesbykumbi/handover-tracker/pkg/server"
	"github.com/doodlesbykumbi/handover-tracker/pkg/server/middleware"
	"github.com/doodlesbykumbi/handover-tracker/pkg/sheetsync"
)

// SyncerFactory builds a syncer for one run. Server.Syncer satisfies it.
type SyncerFactory func(ctx context.Context) (*sheetsync.Syncer, error)

// RegisterSyncEndpoints registers the sheet import run by the cron relay.
func RegisterSyncEndpoints(s *server.Server) {
	requireSecret := middleware.RequireCronSecret(s.Config.CronSecret)

	// POST /api/sync/sheets - import the configured sheet
	s.Router.Handle("/api/sync/sheets", allowMethods(
		requireSecret(handleSyncSheets(s.Config, s.Syncer, s.Logger.Named("sheetsync"))).ServeHTTP,
		http.MethodPost,
	))
}

func handleSyncSheets(cfg *config.Config, newSyncer SyncerFactory, lggr logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !cfg.GoogleConfigured() {
			respondWithError(w, http.StatusServiceUnavailable, "Google Sheets sync is not configured")
			return
		}

		syncer, err := newSyncer(r.Context())
		if err != nil {
			lggr.Errorw("Failed to prepare sheet sync", "err", err)
			respondWithErrorDetails(w, http.StatusServiceUnavailable, "Failed to prepare sheet sync", err.Error())
			return
		}

		report, err := syncer.Run(r.Context(), "api")
		if err != nil {
			respondWithJSON(w, http.StatusInternalServerError, map[string]interface{}{
				"success": false,
				"error":   "Sheet sync failed",
				"details": err.Error(),
				"data":    report,
			})
			return
		}
		respondWithData(w, http.StatusOK, report)
	}
}
