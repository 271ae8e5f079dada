package endpoints

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/doodlesbykumbi/handover-tracker/pkg/audit"
	"github.com/doodlesbykumbi/handover-tracker/pkg/identity"
	"github.com/doodlesbykumbi/handover-tracker/pkg/logger"
	"github.com/doodlesbykumbi/handover-tracker/pkg/model"
	"github.com/doodlesbykumbi/handover-tracker/pkg/server"
	"github.com/doodlesbykumbi/handover-tracker/pkg/server/store"
)

const (
	handoverNotFound   = "Handover not found"
	handoverOutOfScope = "Handover must be managed by you or belong to your department"
)

// CreateHandoverRequest is the body of POST /api/v1/handovers. When
// template_id is set the template's tasks seed the handover's progress.
type CreateHandoverRequest struct {
	model.Handover
	Tasks model.TaskList `json:"tasks"`
}

// HandoverDetail is a handover with its task progress.
type HandoverDetail struct {
	*model.Handover
	Progress []model.HandoverProgress `json:"progress"`
}

// RegisterHandoversEndpoints registers handover CRUD under router, which
// must already require authentication.
func RegisterHandoversEndpoints(s *server.Server, router *mux.Router) {
	lggr := s.Logger.Named("handovers")

	router.HandleFunc("/handovers", handleListHandovers(s.HandoversStore, lggr)).Methods("GET")
	router.HandleFunc("/handovers", handleCreateHandover(s.HandoversStore, s.TemplatesStore, lggr)).Methods("POST")
	router.HandleFunc("/handovers/{id}", handleGetHandover(s.HandoversStore, s.ProgressStore, lggr)).Methods("GET")
	router.HandleFunc("/handovers/{id}", handleUpdateHandover(s.HandoversStore, lggr)).Methods("PATCH")
	router.HandleFunc("/handovers/{id}", handleDeleteHandover(s.HandoversStore, lggr)).Methods("DELETE")
}

func handleListHandovers(handoversStore store.HandoversStore, lggr logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := caller(r)
		q := r.URL.Query()

		limit, offset, err := paging(r)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		status := strings.TrimSpace(q.Get("status"))
		if status != "" && !model.Status(status).Valid() {
			respondWithError(w, http.StatusBadRequest, "invalid status: "+status)
			return
		}

		rows, total, err := handoversStore.List(r.Context(), store.HandoverQuery{
			Scope:        id.HandoverScope(),
			Status:       status,
			DepartmentID: strings.TrimSpace(q.Get("department_id")),
			Search:       strings.TrimSpace(q.Get("search")),
			Limit:        limit,
			Offset:       offset,
		})
		if err != nil {
			respondWithStoreError(w, lggr, err, handoverNotFound)
			return
		}
		if rows == nil {
			rows = []model.Handover{}
		}

		respondWithJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"data":    rows,
			"total":   total,
			"limit":   limit,
			"offset":  offset,
		})
	}
}

func handleCreateHandover(
	handoversStore store.HandoversStore,
	templatesStore store.EntityStore[model.Template],
	lggr logger.Logger,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := caller(r)
		if !id.CanManageHandovers() {
			respondWithError(w, http.StatusForbidden, "Only managers and admins can create handovers")
			return
		}

		var req CreateHandoverRequest
		if err := decodeJSON(r, &req); err != nil {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		h := &req.Handover
		h.ID = ""
		h.ExternalRef = nil
		h.CompletedAt = nil
		if h.ManagerEmail == "" && id.IsManager() {
			h.ManagerEmail = id.Email
		}

		tasks := req.Tasks
		if h.TemplateID != nil && *h.TemplateID != "" {
			tmpl, err := templatesStore.Get(r.Context(), *h.TemplateID)
			if err != nil {
				respondWithStoreError(w, lggr, err, "Template not found")
				return
			}
			if len(tasks) == 0 {
				tasks = tmpl.Tasks
			}
			if h.JobID == nil {
				h.JobID = tmpl.JobID
			}
		} else {
			h.TemplateID = nil
		}
		if err := validateTasks(tasks); err != nil {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}

		h.Normalize()
		if !id.HandoverScope().Allows(h) {
			respondWithError(w, http.StatusForbidden, handoverOutOfScope)
			return
		}

		event := audit.HandoverEvent{Actor: id.Email, ClientIP: clientIP(r), Operation: audit.OperationCreate}
		if err := handoversStore.Create(r.Context(), h, tasks); err != nil {
			event.ErrorMessage = err.Error()
			audit.Log(event)
			respondWithStoreError(w, lggr, err, handoverNotFound)
			return
		}
		event.HandoverID = h.ID
		event.Success = true
		audit.Log(event)

		respondWithData(w, http.StatusCreated, h)
	}
}

func handleGetHandover(handoversStore store.HandoversStore, progressStore store.ProgressStore, lggr logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := caller(r)
		h, err := handoversStore.Get(r.Context(), mux.Vars(r)["id"], id.HandoverScope())
		if err != nil {
			respondWithStoreError(w, lggr, err, handoverNotFound)
			return
		}

		progress, err := progressStore.ListForHandover(r.Context(), h.ID)
		if err != nil {
			respondWithStoreError(w, lggr, err, handoverNotFound)
			return
		}
		if progress == nil {
			progress = []model.HandoverProgress{}
		}
		respondWithData(w, http.StatusOK, HandoverDetail{Handover: h, Progress: progress})
	}
}

func handleUpdateHandover(handoversStore store.HandoversStore, lggr logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := caller(r)
		if !id.CanManageHandovers() {
			respondWithError(w, http.StatusForbidden, "Only managers and admins can update handovers")
			return
		}

		var patch store.HandoverPatch
		if err := decodeJSON(r, &patch); err != nil {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}

		handoverID := mux.Vars(r)["id"]
		event := audit.HandoverEvent{Actor: id.Email, ClientIP: clientIP(r), HandoverID: handoverID, Operation: audit.OperationUpdate}
		h, err := handoversStore.Update(r.Context(), handoverID, id.HandoverScope(), patch)
		if err != nil {
			event.ErrorMessage = err.Error()
			audit.Log(event)
			if errors.Is(err, store.ErrForbidden) {
				respondWithError(w, http.StatusForbidden, handoverOutOfScope)
				return
			}
			respondWithStoreError(w, lggr, err, handoverNotFound)
			return
		}
		event.Success = true
		audit.Log(event)

		respondWithData(w, http.StatusOK, h)
	}
}

func handleDeleteHandover(handoversStore store.HandoversStore, lggr logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := caller(r)
		if !id.CanDeleteHandovers() {
			respondWithError(w, http.StatusForbidden, "Only admins can delete handovers")
			return
		}

		handoverID := mux.Vars(r)["id"]
		event := audit.HandoverEvent{Actor: id.Email, ClientIP: clientIP(r), HandoverID: handoverID, Operation: audit.OperationDelete}
		if err := handoversStore.Delete(r.Context(), handoverID, id.HandoverScope()); err != nil {
			event.ErrorMessage = err.Error()
			audit.Log(event)
			respondWithStoreError(w, lggr, err, handoverNotFound)
			return
		}
		event.Success = true
		audit.Log(event)

		respondWithJSON(w, http.StatusOK, map[string]interface{}{"success": true})
	}
}

// visibleHandover loads a handover the caller may see.
func visibleHandover(r *http.Request, handoversStore store.HandoversStore, id *identity.Identity) (*model.Handover, error) {
	return handoversStore.Get(r.Context(), mux.Vars(r)["id"], id.HandoverScope())
}
