package dashboard

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/doodlesbykumbi/handover-tracker/pkg/model"
)

// Query parameter names accepted by the dashboard endpoint.
const (
	ParamDepartment   = "department_filter"
	ParamPlant        = "plant_filter"
	ParamStatus       = "status_filter"
	ParamTimeCategory = "time_filter"
	ParamPriority     = "priority_filter"
	ParamSearch       = "search"
)

const filterAll = "all"

// Filters narrows the dashboard. Empty values and "all" match everything.
type Filters struct {
	Department   string
	Plant        string
	Status       string
	TimeCategory string
	Priority     string
	Search       string
}

func FiltersFromQuery(q url.Values) Filters {
	get := func(name string) string {
		return strings.TrimSpace(q.Get(name))
	}
	return Filters{
		Department:   get(ParamDepartment),
		Plant:        get(ParamPlant),
		Status:       get(ParamStatus),
		TimeCategory: get(ParamTimeCategory),
		Priority:     get(ParamPriority),
		Search:       get(ParamSearch),
	}
}

func active(v string) bool {
	return v != "" && !strings.EqualFold(v, filterAll)
}

// Validate rejects values outside the fixed status, category and priority sets.
func (f Filters) Validate() error {
	if active(f.Status) && !model.Status(f.Status).Valid() {
		return fmt.Errorf("invalid %s: %q", ParamStatus, f.Status)
	}
	if active(f.TimeCategory) && !TimeCategory(f.TimeCategory).Valid() {
		return fmt.Errorf("invalid %s: %q", ParamTimeCategory, f.TimeCategory)
	}
	if active(f.Priority) && !model.Priority(f.Priority).Valid() {
		return fmt.Errorf("invalid %s: %q", ParamPriority, f.Priority)
	}
	return nil
}

// Applied returns the active filters keyed by query parameter name.
func (f Filters) Applied() map[string]string {
	applied := map[string]string{}
	for name, v := range map[string]string{
		ParamDepartment:   f.Department,
		ParamPlant:        f.Plant,
		ParamStatus:       f.Status,
		ParamTimeCategory: f.TimeCategory,
		ParamPriority:     f.Priority,
		ParamSearch:       f.Search,
	} {
		if active(v) {
			applied[name] = v
		}
	}
	return applied
}

// Match reports whether h, already placed in category, passes every filter.
func (f Filters) Match(h *model.Handover, category TimeCategory) bool {
	if active(f.Department) && !matchRef(f.Department, h.DepartmentID, h.DepartmentName()) {
		return false
	}
	if active(f.Plant) && !matchRef(f.Plant, h.PlantID, h.PlantName()) {
		return false
	}
	if active(f.Status) && string(h.Status) != f.Status {
		return false
	}
	if active(f.TimeCategory) && string(category) != f.TimeCategory {
		return false
	}
	if active(f.Priority) && string(h.Priority) != f.Priority {
		return false
	}
	if active(f.Search) && !matchSearch(h, f.Search) {
		return false
	}
	return true
}

// matchRef matches a directory filter against either the row ID or its name.
func matchRef(want string, id *string, name string) bool {
	if id != nil && *id == want {
		return true
	}
	return name != "" && strings.EqualFold(name, want)
}

func matchSearch(h *model.Handover, term string) bool {
	term = strings.ToLower(term)
	for _, field := range []string{
		h.Title,
		h.OutgoingEmployeeName,
		h.OutgoingEmployeeEmail,
		h.IncomingEmployeeName,
		h.IncomingEmployeeEmail,
	} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}
