package endpoints

import (
	"net/http"
	"strings"
	"time"

	"github.com/doodlesbykumbi/handover-tracker/pkg/dashboard"
	"github.com/doodlesbykumbi/handover-tracker/pkg/logger"
	"github.com/doodlesbykumbi/handover-tracker/pkg/server"
	"github.com/doodlesbykumbi/handover-tracker/pkg/server/store"
)

const progressUnavailable = "Task progress could not be loaded; task KPIs are omitted"

// RegisterDashboardEndpoints registers the manager dashboard.
func RegisterDashboardEndpoints(s *server.Server) {
	// GET /api/manager/dashboard?manager_email=...
	s.Router.HandleFunc("/api/manager/dashboard", allowMethods(
		handleManagerDashboard(s.HandoversStore, s.ProgressStore, s.Now, s.Location(), s.Logger.Named("dashboard")),
		http.MethodGet,
	))
}

func handleManagerDashboard(
	handoversStore store.HandoversStore,
	progressStore store.ProgressStore,
	now func() time.Time,
	loc *time.Location,
	lggr logger.Logger,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		managerEmail := strings.TrimSpace(q.Get("manager_email"))
		if managerEmail == "" {
			respondWithError(w, http.StatusBadRequest, "manager_email is required")
			return
		}

		filters := dashboard.FiltersFromQuery(q)
		if err := filters.Validate(); err != nil {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}

		handovers, err := handoversStore.ListForManager(r.Context(), managerEmail)
		if err != nil {
			lggr.Errorw("Failed to fetch handovers", "manager", managerEmail, "err", err)
			respondWithErrorDetails(w, http.StatusInternalServerError, "Failed to fetch handovers", err.Error())
			return
		}

		var warnings []string
		ids := make([]string, len(handovers))
		for i := range handovers {
			ids[i] = handovers[i].ID
		}
		progress, err := progressStore.SummaryForHandovers(r.Context(), ids)
		if err != nil {
			lggr.Warnw("Failed to fetch task progress", "manager", managerEmail, "err", err)
			warnings = append(warnings, progressUnavailable)
			progress = nil
		}

		result := dashboard.Build(dashboard.Input{
			ManagerEmail: managerEmail,
			Handovers:    handovers,
			Progress:     progress,
			Filters:      filters,
			Now:          now(),
			Location:     loc,
			Warnings:     warnings,
		})
		respondWithData(w, http.StatusOK, result)
	}
}
