package endpoints

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/doodlesbykumbi/handover-tracker/pkg/logger"
	"github.com/doodlesbykumbi/handover-tracker/pkg/model"
	"github.com/doodlesbykumbi/handover-tracker/pkg/render"
	"github.com/doodlesbykumbi/handover-tracker/pkg/server"
	"github.com/doodlesbykumbi/handover-tracker/pkg/server/store"
)

// patcher converts a decoded PATCH body into the columns to update.
type patcher interface {
	fields() (map[string]any, error)
}

// resource describes one directory table exposed over REST.
type resource[T store.Entity, P patcher] struct {
	// label names the entity in error messages ("Plant not found").
	label string
	// parent is the query parameter that filters by foreign key.
	parent   string
	store    store.EntityStore[T]
	validate func(*T) error
	// present optionally transforms rows before they are returned.
	present func(r *http.Request, rows []T, single bool) (interface{}, error)
}

// RegisterDirectoryEndpoints registers CRUD for organizations, plants,
// departments, jobs and templates under router, which must already require
// authentication. Reads are open to every caller; writes need admin.
func RegisterDirectoryEndpoints(s *server.Server, router *mux.Router) {
	lggr := s.Logger.Named("directory")

	registerResource(router, "/organizations", lggr, resource[model.Organization, organizationPatch]{
		label:    "Organization",
		store:    s.OrganizationsStore,
		validate: validateOrganization,
	})
	registerResource(router, "/plants", lggr, resource[model.Plant, plantPatch]{
		label:    "Plant",
		parent:   "organization_id",
		store:    s.PlantsStore,
		validate: validatePlant,
	})
	registerResource(router, "/departments", lggr, resource[model.Department, departmentPatch]{
		label:    "Department",
		parent:   "plant_id",
		store:    s.DepartmentsStore,
		validate: validateDepartment,
	})
	registerResource(router, "/jobs", lggr, resource[model.Job, jobPatch]{
		label:    "Job",
		parent:   "department_id",
		store:    s.JobsStore,
		validate: validateJob,
	})
	registerResource(router, "/templates", lggr, resource[model.Template, templatePatch]{
		label:    "Template",
		parent:   "job_id",
		store:    s.TemplatesStore,
		validate: validateTemplate,
		present:  presentTemplates,
	})
}

func registerResource[T store.Entity, P patcher](router *mux.Router, path string, lggr logger.Logger, res resource[T, P]) {
	router.HandleFunc(path, res.handleList(lggr)).Methods("GET")
	router.HandleFunc(path, res.handleCreate(lggr)).Methods("POST")
	router.HandleFunc(path+"/{id}", res.handleGet(lggr)).Methods("GET")
	router.HandleFunc(path+"/{id}", res.handleUpdate(lggr)).Methods("PATCH")
	router.HandleFunc(path+"/{id}", res.handleDelete(lggr)).Methods("DELETE")
}

func (res resource[T, P]) notFound() string {
	return res.label + " not found"
}

func (res resource[T, P]) respond(w http.ResponseWriter, r *http.Request, code int, rows []T, single bool) {
	var data interface{} = rows
	if single {
		data = &rows[0]
	}
	if res.present != nil {
		presented, err := res.present(r, rows, single)
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
		data = presented
	}
	respondWithData(w, code, data)
}

func (res resource[T, P]) handleList(lggr logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, offset, err := paging(r)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		opts := store.ListOptions{
			Search: strings.TrimSpace(r.URL.Query().Get("search")),
			Limit:  limit,
			Offset: offset,
		}
		if res.parent != "" {
			opts.Parent = r.URL.Query().Get(res.parent)
		}

		rows, err := res.store.List(r.Context(), opts)
		if err != nil {
			respondWithStoreError(w, lggr, err, res.notFound())
			return
		}
		if rows == nil {
			rows = []T{}
		}
		res.respond(w, r, http.StatusOK, rows, false)
	}
}

func (res resource[T, P]) handleGet(lggr logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		row, err := res.store.Get(r.Context(), mux.Vars(r)["id"])
		if err != nil {
			respondWithStoreError(w, lggr, err, res.notFound())
			return
		}
		res.respond(w, r, http.StatusOK, []T{*row}, true)
	}
}

func (res resource[T, P]) handleCreate(lggr logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !caller(r).CanWriteDirectory() {
			respondWithError(w, http.StatusForbidden, "Only admins can modify the directory")
			return
		}

		var row T
		if err := decodeJSON(r, &row); err != nil {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := res.validate(&row); err != nil {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}

		if err := res.store.Create(r.Context(), &row); err != nil {
			respondWithStoreError(w, lggr, err, res.notFound())
			return
		}
		res.respond(w, r, http.StatusCreated, []T{row}, true)
	}
}

func (res resource[T, P]) handleUpdate(lggr logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !caller(r).CanWriteDirectory() {
			respondWithError(w, http.StatusForbidden, "Only admins can modify the directory")
			return
		}

		var patch P
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

		row, err := res.store.Update(r.Context(), mux.Vars(r)["id"], fields)
		if err != nil {
			respondWithStoreError(w, lggr, err, res.notFound())
			return
		}
		res.respond(w, r, http.StatusOK, []T{*row}, true)
	}
}

func (res resource[T, P]) handleDelete(lggr logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !caller(r).CanWriteDirectory() {
			respondWithError(w, http.StatusForbidden, "Only admins can modify the directory")
			return
		}
		if err := res.store.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
			respondWithStoreError(w, lggr, err, res.notFound())
			return
		}
		respondWithJSON(w, http.StatusOK, map[string]interface{}{"success": true})
	}
}

func required(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s is required", name)
	}
	return nil
}

func validateOrganization(o *model.Organization) error {
	o.Name = strings.TrimSpace(o.Name)
	return required("name", o.Name)
}

func validatePlant(p *model.Plant) error {
	p.Name = strings.TrimSpace(p.Name)
	return errors.Join(required("name", p.Name), required("organization_id", p.OrganizationID))
}

func validateDepartment(d *model.Department) error {
	d.Name = strings.TrimSpace(d.Name)
	return errors.Join(required("name", d.Name), required("plant_id", d.PlantID))
}

func validateJob(j *model.Job) error {
	j.Title = strings.TrimSpace(j.Title)
	return errors.Join(required("title", j.Title), required("department_id", j.DepartmentID))
}

func validateTemplate(t *model.Template) error {
	t.Name = strings.TrimSpace(t.Name)
	if err := required("name", t.Name); err != nil {
		return err
	}
	if t.JobID != nil && *t.JobID == "" {
		t.JobID = nil
	}
	if t.Tasks == nil {
		t.Tasks = model.TaskList{}
	}
	return validateTasks(t.Tasks)
}

func validateTasks(tasks model.TaskList) error {
	seen := make(map[string]bool, len(tasks))
	for i, task := range tasks {
		if strings.TrimSpace(task.Title) == "" {
			return fmt.Errorf("tasks[%d].title is required", i)
		}
		if task.Key == "" {
			continue
		}
		if seen[task.Key] {
			return fmt.Errorf("duplicate task key %q", task.Key)
		}
		seen[task.Key] = true
	}
	return nil
}

type organizationPatch struct {
	Name *string `json:"name"`
}

func (p organizationPatch) fields() (map[string]any, error) {
	f := map[string]any{}
	if p.Name != nil {
		if err := required("name", *p.Name); err != nil {
			return nil, err
		}
		f["name"] = strings.TrimSpace(*p.Name)
	}
	return f, nil
}

type plantPatch struct {
	Name           *string `json:"name"`
	Location       *string `json:"location"`
	OrganizationID *string `json:"organization_id"`
}

func (p plantPatch) fields() (map[string]any, error) {
	f := map[string]any{}
	if p.Name != nil {
		if err := required("name", *p.Name); err != nil {
			return nil, err
		}
		f["name"] = strings.TrimSpace(*p.Name)
	}
	if p.Location != nil {
		f["location"] = strings.TrimSpace(*p.Location)
	}
	if p.OrganizationID != nil {
		if err := required("organization_id", *p.OrganizationID); err != nil {
			return nil, err
		}
		f["organization_id"] = *p.OrganizationID
	}
	return f, nil
}

type departmentPatch struct {
	Name    *string `json:"name"`
	PlantID *string `json:"plant_id"`
}

func (p departmentPatch) fields() (map[string]any, error) {
	f := map[string]any{}
	if p.Name != nil {
		if err := required("name", *p.Name); err != nil {
			return nil, err
		}
		f["name"] = strings.TrimSpace(*p.Name)
	}
	if p.PlantID != nil {
		if err := required("plant_id", *p.PlantID); err != nil {
			return nil, err
		}
		f["plant_id"] = *p.PlantID
	}
	return f, nil
}

type jobPatch struct {
	Title        *string `json:"title"`
	Description  *string `json:"description"`
	DepartmentID *string `json:"department_id"`
}

func (p jobPatch) fields() (map[string]any, error) {
	f := map[string]any{}
	if p.Title != nil {
		if err := required("title", *p.Title); err != nil {
			return nil, err
		}
		f["title"] = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		f["description"] = *p.Description
	}
	if p.DepartmentID != nil {
		if err := required("department_id", *p.DepartmentID); err != nil {
			return nil, err
		}
		f["department_id"] = *p.DepartmentID
	}
	return f, nil
}

type templatePatch struct {
	Name         *string         `json:"name"`
	Description  *string         `json:"description"`
	Instructions *string         `json:"instructions"`
	JobID        *string         `json:"job_id"`
	Tasks        *model.TaskList `json:"tasks"`
}

func (p templatePatch) fields() (map[string]any, error) {
	f := map[string]any{}
	if p.Name != nil {
		if err := required("name", *p.Name); err != nil {
			return nil, err
		}
		f["name"] = strings.TrimSpace(*p.Name)
	}
	if p.Description != nil {
		f["description"] = *p.Description
	}
	if p.Instructions != nil {
		f["instructions"] = *p.Instructions
	}
	if p.JobID != nil {
		if *p.JobID == "" {
			f["job_id"] = nil
		} else {
			f["job_id"] = *p.JobID
		}
	}
	if p.Tasks != nil {
		tasks := *p.Tasks
		if tasks == nil {
			tasks = model.TaskList{}
		}
		if err := validateTasks(tasks); err != nil {
			return nil, err
		}
		f["tasks"] = tasks
	}
	return f, nil
}

// TemplateView adds the rendered instructions to a template.
type TemplateView struct {
	model.Template
	InstructionsHTML string `json:"instructionsHtml"`
}

// presentTemplates renders instructions to HTML when ?render=html is given.
func presentTemplates(r *http.Request, rows []model.Template, single bool) (interface{}, error) {
	if r.URL.Query().Get("render") != "html" {
		if single {
			return &rows[0], nil
		}
		return rows, nil
	}

	views := make([]TemplateView, len(rows))
	for i := range rows {
		html, err := render.Markdown(rows[i].Instructions)
		if err != nil {
			return nil, fmt.Errorf("failed to render instructions: %w", err)
		}
		views[i] = TemplateView{Template: rows[i], InstructionsHTML: html}
	}
	if single {
		return &views[0], nil
	}
	return views, nil
}
