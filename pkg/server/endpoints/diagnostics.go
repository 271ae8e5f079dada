package endpoints

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/doodlesbykumbi/handover-tracker/pkg/config"
	"github.com/doodlesbykumbi/handover-tracker/pkg/server"
	"github.com/doodlesbykumbi/handover-tracker/pkg/sheetsync"
)

// SheetReaderFactory returns a reader for the configured sheet.
type SheetReaderFactory func(ctx context.Context) (sheetsync.ValueReader, error)

// GoogleConnectionResponse reports which settings are present and whether
// the sheet can be read. It never contains secret values.
type GoogleConnectionResponse struct {
	Success     bool                `json:"success"`
	Timestamp   string              `json:"timestamp"`
	Environment map[string]bool     `json:"environment"`
	Checks      sheetsync.Diagnosis `json:"checks"`
}

// RegisterDiagnosticsEndpoints registers the configuration diagnostic.
func RegisterDiagnosticsEndpoints(s *server.Server) {
	// GET /api/test/google-connection[?probe=true]
	s.Router.HandleFunc("/api/test/google-connection",
		handleGoogleConnection(s.Config, s.SheetReader, s.Now)).Methods("GET")
}

func handleGoogleConnection(cfg *config.Config, newReader SheetReaderFactory, now func() time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		creds := sheetsync.CredentialsFromConfig(cfg)
		checks := creds.Diagnose()

		resp := GoogleConnectionResponse{
			Timestamp: now().UTC().Format(time.RFC3339),
			Environment: map[string]bool{
				"GOOGLE_SERVICE_ACCOUNT_EMAIL": cfg.GoogleServiceAccountEmail != "",
				"GOOGLE_PRIVATE_KEY":           cfg.GooglePrivateKey != "",
				"GOOGLE_SHEET_ID":              cfg.GoogleSheetID != "",
				"GOOGLE_SHEET_RANGE":           cfg.GoogleSheetRange != "",
				"CRON_SECRET":                  cfg.CronSecret != "",
				"SYNC_ENDPOINT_URL":            cfg.SyncEndpointURL != "",
				"SUPABASE_JWT_SECRET":          cfg.JWTSecret != "",
				"DATABASE_URL":                 cfg.DatabaseURL != "",
			},
		}

		probe, _ := strconv.ParseBool(r.URL.Query().Get("probe"))
		if probe && creds.Configured() && checks.PrivateKeyParsed {
			reachable := false
			reader, err := newReader(r.Context())
			if err == nil {
				var rows [][]string
				rows, err = reader.Values(r.Context(), creds.SheetID, headerRange(creds.Range))
				if err == nil {
					reachable = true
					if len(rows) > 0 {
						checks.HeaderColumns = len(rows[0])
					}
				}
			}
			if err != nil {
				checks.SheetError = err.Error()
			}
			checks.SheetReachable = &reachable
		}

		resp.Checks = checks
		resp.Success = checks.CredentialsConfigured && checks.PrivateKeyParsed && checks.SheetConfigured &&
			(checks.SheetReachable == nil || *checks.SheetReachable)
		respondWithJSON(w, http.StatusOK, resp)
	}
}

// headerRange narrows an A1 range to its sheet's first row.
func headerRange(rng string) string {
	if sheet, _, ok := strings.Cut(rng, "!"); ok {
		return sheet + "!1:1"
	}
	return "1:1"
}
