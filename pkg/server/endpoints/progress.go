package endpoints

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/doodlesbykumbi/handover-tracker/pkg/audit"
	"github.com/doodlesbykumbi/handover-tracker/pkg/logger"
	"github.com/doodlesbykumbi/handover-tracker/pkg/model"
	"github.com/doodlesbykumbi/handover-tracker/pkg/server"
	"github.com/doodlesbykumbi/handover-tracker/pkg/server/store"
)

// AddTaskRequest is the body of POST /handovers/{id}/progress.
type AddTaskRequest struct {
	TaskKey string `json:"task_key"`
	Title   string `json:"title"`
	Notes   string `json:"notes"`
}

// RegisterProgressEndpoints registers the task checklist of a handover.
func RegisterProgressEndpoints(s *server.Server, router *mux.Router) {
	lggr := s.Logger.Named("progress")

	router.HandleFunc("/handovers/{id}/progress", handleListProgress(s.HandoversStore, s.ProgressStore, lggr)).Methods("GET")
	router.HandleFunc("/handovers/{id}/progress", handleAddProgress(s.HandoversStore, s.ProgressStore, lggr)).Methods("POST")
	router.HandleFunc("/handovers/{id}/progress/{progressId}", handleUpdateProgress(s.HandoversStore, s.ProgressStore, lggr)).Methods("PATCH")
}

func handleListProgress(handoversStore store.HandoversStore, progressStore store.ProgressStore, lggr logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h, err := visibleHandover(r, handoversStore, caller(r))
		if err != nil {
			respondWithStoreError(w, lggr, err, handoverNotFound)
			return
		}
		rows, err := progressStore.ListForHandover(r.Context(), h.ID)
		if err != nil {
			respondWithStoreError(w, lggr, err, handoverNotFound)
			return
		}
		if rows == nil {
			rows = []model.HandoverProgress{}
		}
		respondWithData(w, http.StatusOK, rows)
	}
}

func handleAddProgress(handoversStore store.HandoversStore, progressStore store.ProgressStore, lggr logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := caller(r)
		if !id.CanManageHandovers() {
			respondWithError(w, http.StatusForbidden, "Only managers and admins can add tasks")
			return
		}
		h, err := visibleHandover(r, handoversStore, id)
		if err != nil {
			respondWithStoreError(w, lggr, err, handoverNotFound)
			return
		}

		var req AddTaskRequest
		if err := decodeJSON(r, &req); err != nil {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := required("title", req.Title); err != nil {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}

		p := &model.HandoverProgress{
			HandoverID: h.ID,
			TaskKey:    strings.TrimSpace(req.TaskKey),
			Title:      strings.TrimSpace(req.Title),
			Notes:      req.Notes,
		}
		update, err := progressStore.Add(r.Context(), p)
		if err != nil {
			respondWithStoreError(w, lggr, err, handoverNotFound)
			return
		}
		respondWithData(w, http.StatusCreated, update)
	}
}

func handleUpdateProgress(handoversStore store.HandoversStore, progressStore store.ProgressStore, lggr logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := caller(r)
		h, err := visibleHandover(r, handoversStore, id)
		if err != nil {
			respondWithStoreError(w, lggr, err, handoverNotFound)
			return
		}
		if !id.CanUpdateProgress(h) {
			respondWithError(w, http.StatusForbidden, "Forbidden")
			return
		}

		var patch store.ProgressPatch
		if err := decodeJSON(r, &patch); err != nil {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		if patch.IsCompleted == nil && patch.Notes == nil {
			respondWithError(w, http.StatusBadRequest, "No fields to update")
			return
		}
		patch.CompletedBy = id.Email

		progressID := mux.Vars(r)["progressId"]
		event := audit.ProgressEvent{Actor: id.Email, ClientIP: clientIP(r), HandoverID: h.ID, TaskKey: progressID}
		update, err := progressStore.Update(r.Context(), h.ID, progressID, patch)
		if err != nil {
			event.ErrorMessage = err.Error()
			audit.Log(event)
			respondWithStoreError(w, lggr, err, "Task not found")
			return
		}
		event.TaskKey = update.Progress.TaskKey
		event.Completed = update.Progress.IsCompleted
		event.Percentage = update.Handover.CompletionPercentage
		event.Success = true
		audit.Log(event)

		respondWithData(w, http.StatusOK, update)
	}
}
