package endpoints

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/doodlesbykumbi/handover-tracker/pkg/audit"
	"github.com/doodlesbykumbi/handover-tracker/pkg/logger"
	"github.com/doodlesbykumbi/handover-tracker/pkg/server"
	"github.com/doodlesbykumbi/handover-tracker/pkg/server/middleware"
	"github.com/doodlesbykumbi/handover-tracker/pkg/sheetsync"
)

// Trigger starts a sync on the downstream endpoint. *sheetsync.RelayClient
// implements it.
type Trigger interface {
	Trigger(ctx context.Context) (*sheetsync.RelayResult, error)
}

// RegisterCronEndpoints registers the scheduler entry point.
func RegisterCronEndpoints(s *server.Server) {
	requireSecret := middleware.RequireCronSecret(s.Config.CronSecret)

	// POST /api/cron/sync-sheets - relay to the sync endpoint
	s.Router.Handle("/api/cron/sync-sheets", allowMethods(
		requireSecret(handleCronSyncSheets(s.Relay, s.Config.SyncEndpointURL, s.Now, s.Logger.Named("cron"))).ServeHTTP,
		http.MethodPost,
	))
}

func handleCronSyncSheets(relay Trigger, target string, now func() time.Time, lggr logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		triggeredAt := now().UTC().Format(time.RFC3339)
		event := audit.CronEvent{ClientIP: clientIP(r), Target: target, Authorized: true}

		if target == "" {
			event.ErrorMessage = "sync endpoint not configured"
			audit.Log(event)
			respondWithError(w, http.StatusInternalServerError, "SYNC_ENDPOINT_URL is not configured")
			return
		}

		lggr.Infow("Triggering sheet sync", "target", target)
		res, err := relay.Trigger(r.Context())
		if err != nil {
			event.ErrorMessage = err.Error()
			body := map[string]interface{}{
				"success":     false,
				"triggeredAt": triggeredAt,
			}
			var statusErr *sheetsync.StatusError
			if errors.As(err, &statusErr) {
				event.Status = statusErr.Status
				body["error"] = "Sync endpoint returned an error"
				body["status"] = statusErr.Status
				body["details"] = statusErr.Body
			} else {
				body["error"] = "Failed to reach sync endpoint"
				body["details"] = err.Error()
			}
			audit.Log(event)
			lggr.Errorw("Sheet sync trigger failed", "target", target, "err", err)
			respondWithJSON(w, http.StatusBadGateway, body)
			return
		}

		event.Status = res.Status
		event.Success = true
		audit.Log(event)
		respondWithJSON(w, http.StatusOK, map[string]interface{}{
			"success":     true,
			"triggeredAt": triggeredAt,
			"status":      res.Status,
			"result":      res.Body,
		})
	}
}
