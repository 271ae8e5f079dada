package endpoints

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/doodlesbykumbi/handover-tracker/pkg/logger"
	"github.com/doodlesbykumbi/handover-tracker/pkg/model"
	"github.com/doodlesbykumbi/handover-tracker/pkg/server"
	"github.com/doodlesbykumbi/handover-tracker/pkg/server/store"
)

const profileNotFound = "Profile not found"

// SelfProfilePatch is what a caller may change on their own profile.
type SelfProfilePatch struct {
	FullName *string `json:"full_name"`
}

// ProfilePatch is the admin update of any profile.
type ProfilePatch struct {
	Email        *string     `json:"email"`
	FullName     *string     `json:"full_name"`
	Role         *model.Role `json:"role"`
	DepartmentID *string     `json:"department_id"`
	ManagerEmail *string     `json:"manager_email"`
}

func (p ProfilePatch) fields() (map[string]any, error) {
	f := map[string]any{}
	if p.Email != nil {
		email := model.NormalizeEmail(*p.Email)
		if err := required("email", email); err != nil {
			return nil, err
		}
		f["email"] = email
	}
	if p.FullName != nil {
		f["full_name"] = strings.TrimSpace(*p.FullName)
	}
	if p.Role != nil {
		if !p.Role.Valid() {
			return nil, errors.New("invalid role: " + string(*p.Role))
		}
		f["role"] = *p.Role
	}
	if p.DepartmentID != nil {
		f["department_id"] = nullable(*p.DepartmentID)
	}
	if p.ManagerEmail != nil {
		f["manager_email"] = nullable(model.NormalizeEmail(*p.ManagerEmail))
	}
	return f, nil
}

// nullable maps an empty string to SQL NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// RegisterProfilesEndpoints registers user profile routes under router,
// which must already require authentication.
func RegisterProfilesEndpoints(s *server.Server, router *mux.Router) {
	lggr := s.Logger.Named("profiles")
	profiles := s.ProfilesStore

	// /profiles/me is registered before /profiles/{id} so "me" never matches as an id
	router.HandleFunc("/profiles/me", handleGetOwnProfile(profiles, lggr)).Methods("GET")
	router.HandleFunc("/profiles/me", handleUpdateOwnProfile(profiles, lggr)).Methods("PATCH")
	router.HandleFunc("/profiles", handleListProfiles(profiles, lggr)).Methods("GET")
	router.HandleFunc("/profiles", handleCreateProfile(profiles, lggr)).Methods("POST")
	router.HandleFunc("/profiles/{id}", handleGetProfile(profiles, lggr)).Methods("GET")
	router.HandleFunc("/profiles/{id}", handleUpdateProfile(profiles, lggr)).Methods("PATCH")
	router.HandleFunc("/profiles/{id}", handleDeleteProfile(profiles, lggr)).Methods("DELETE")
}

func handleGetOwnProfile(profiles store.ProfilesStore, lggr logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := profiles.ByEmail(r.Context(), caller(r).Email)
		if err != nil {
			respondWithStoreError(w, lggr, err, profileNotFound)
			return
		}
		respondWithData(w, http.StatusOK, p)
	}
}

// handleUpdateOwnProfile changes the caller's full name, creating an
// employee profile on first use.
func handleUpdateOwnProfile(profiles store.ProfilesStore, lggr logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := caller(r)

		var patch SelfProfilePatch
		if err := decodeJSON(r, &patch); err != nil {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		if patch.FullName == nil {
			respondWithError(w, http.StatusBadRequest, "No fields to update")
			return
		}
		fullName := strings.TrimSpace(*patch.FullName)

		existing, err := profiles.ByEmail(r.Context(), id.Email)
		switch {
		case errors.Is(err, store.ErrNotFound):
			p := &model.UserProfile{Email: id.Email, FullName: fullName, Role: model.RoleEmployee}
			if err := profiles.Create(r.Context(), p); err != nil {
				respondWithStoreError(w, lggr, err, profileNotFound)
				return
			}
			respondWithData(w, http.StatusCreated, p)
			return
		case err != nil:
			respondWithStoreError(w, lggr, err, profileNotFound)
			return
		}

		p, err := profiles.Update(r.Context(), existing.ID, map[string]any{"full_name": fullName})
		if err != nil {
			respondWithStoreError(w, lggr, err, profileNotFound)
			return
		}
		respondWithData(w, http.StatusOK, p)
	}
}

func handleListProfiles(profiles store.ProfilesStore, lggr logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !caller(r).CanListProfiles() {
			respondWithError(w, http.StatusForbidden, "Forbidden")
			return
		}
		limit, offset, err := paging(r)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		rows, err := profiles.List(r.Context(), store.ListOptions{
			Parent: r.URL.Query().Get("department_id"),
			Search: strings.TrimSpace(r.URL.Query().Get("search")),
			Limit:  limit,
			Offset: offset,
		})
		if err != nil {
			respondWithStoreError(w, lggr, err, profileNotFound)
			return
		}
		if rows == nil {
			rows = []model.UserProfile{}
		}
		respondWithData(w, http.StatusOK, rows)
	}
}

func handleGetProfile(profiles store.ProfilesStore, lggr logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !caller(r).CanListProfiles() {
			respondWithError(w, http.StatusForbidden, "Forbidden")
			return
		}
		p, err := profiles.Get(r.Context(), mux.Vars(r)["id"])
		if err != nil {
			respondWithStoreError(w, lggr, err, profileNotFound)
			return
		}
		respondWithData(w, http.StatusOK, p)
	}
}

func handleCreateProfile(profiles store.ProfilesStore, lggr logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !caller(r).IsAdmin() {
			respondWithError(w, http.StatusForbidden, "Only admins can manage profiles")
			return
		}

		var p model.UserProfile
		if err := decodeJSON(r, &p); err != nil {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		p.ID = ""
		p.Email = model.NormalizeEmail(p.Email)
		if err := required("email", p.Email); err != nil {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		if p.Role != "" && !p.Role.Valid() {
			respondWithError(w, http.StatusBadRequest, "invalid role: "+string(p.Role))
			return
		}

		if err := profiles.Create(r.Context(), &p); err != nil {
			respondWithStoreError(w, lggr, err, profileNotFound)
			return
		}
		respondWithData(w, http.StatusCreated, &p)
	}
}

func handleUpdateProfile(profiles store.ProfilesStore, lggr logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !caller(r).IsAdmin() {
			respondWithError(w, http.StatusForbidden, "Only admins can manage profiles")
			return
		}

		var patch ProfilePatch
		if err := decodeJSON(r, &patch); err != nil {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		fields, err := patch.fields()
		if err != nil {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		if len(fields) == 0 {
			respondWithError(w, http.StatusBadRequest, "No fields to update")
			return
		}

		p, err := profiles.Update(r.Context(), mux.Vars(r)["id"], fields)
		if err != nil {
			respondWithStoreError(w, lggr, err, profileNotFound)
			return
		}
		respondWithData(w, http.StatusOK, p)
	}
}

func handleDeleteProfile(profiles store.ProfilesStore, lggr logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !caller(r).IsAdmin() {
			respondWithError(w, http.StatusForbidden, "Only admins can manage profiles")
			return
		}
		if err := profiles.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
			respondWithStoreError(w, lggr, err, profileNotFound)
			return
		}
		respondWithJSON(w, http.StatusOK, map[string]interface{}{"success": true})
	}
}
