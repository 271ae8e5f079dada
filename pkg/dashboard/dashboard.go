package dashboard

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/doodlesbykumbi/handover-tracker/pkg/model"
)

// Unassigned labels breakdown rows without a department or plant.
const Unassigned = "Unassigned"

// Input is everything Build needs. Progress may be nil when the task
// summary could not be loaded; task KPIs are then omitted.
type Input struct {
	ManagerEmail string
	Handovers    []model.Handover
	Progress     map[string]model.TaskSummary
	Filters      Filters
	Now          time.Time
	Location     *time.Location
	Warnings     []string
}

type Result struct {
	Handovers     []HandoverView                  `json:"handovers"`
	Grouped       map[TimeCategory][]HandoverView `json:"grouped"`
	KPIs          KPIs                            `json:"kpis"`
	Stats         Stats                           `json:"stats"`
	FilterOptions FilterOptions                   `json:"filterOptions"`
	Metadata      Metadata                        `json:"metadata"`
}

type KPIs struct {
	Total           int     `json:"total"`
	Completed       int     `json:"completed"`
	InProgress      int     `json:"inProgress"`
	NotStarted      int     `json:"notStarted"`
	Cancelled       int     `json:"cancelled"`
	Overdue         int     `json:"overdue"`
	DueThisWeek     int     `json:"dueThisWeek"`
	CompletionRate  float64 `json:"completionRate"`
	AverageProgress float64 `json:"averageProgress"`

	TotalTasks         *int     `json:"totalTasks,omitempty"`
	CompletedTasks     *int     `json:"completedTasks,omitempty"`
	TaskCompletionRate *float64 `json:"taskCompletionRate,omitempty"`
}

type Breakdown struct {
	Name            string  `json:"name"`
	Total           int     `json:"total"`
	Completed       int     `json:"completed"`
	AverageProgress float64 `json:"averageProgress"`
}

type Transition struct {
	HandoverID string       `json:"handoverId"`
	Title      string       `json:"title"`
	From       model.Status `json:"from"`
	To         model.Status `json:"to"`
}

type Stats struct {
	ByStatus          map[model.Status]int   `json:"byStatus"`
	ByTimeCategory    map[TimeCategory]int   `json:"byTimeCategory"`
	ByPriority        map[model.Priority]int `json:"byPriority"`
	ByDepartment      []Breakdown            `json:"byDepartment"`
	ByPlant           []Breakdown            `json:"byPlant"`
	StatusTransitions []Transition           `json:"statusTransitions"`
	TransitionCounts  map[string]int         `json:"transitionCounts"`
}

type FilterOptions struct {
	Departments    []string         `json:"departments"`
	Plants         []string         `json:"plants"`
	Statuses       []model.Status   `json:"statuses"`
	TimeCategories []TimeCategory   `json:"timeCategories"`
	Priorities     []model.Priority `json:"priorities"`
}

type Metadata struct {
	ManagerEmail   string            `json:"managerEmail"`
	GeneratedAt    string            `json:"generatedAt"`
	TotalCount     int               `json:"totalCount"`
	FilteredCount  int               `json:"filteredCount"`
	AppliedFilters map[string]string `json:"appliedFilters"`
	Warnings       []string          `json:"warnings"`
}

// Build filters the manager's handovers and computes every dashboard view
// over the filtered rows. Filter options and the total count describe the
// unfiltered set.
func Build(in Input) Result {
	loc := location(in.Location)
	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}

	var (
		rows    []*model.Handover
		views   []HandoverView
		grouped = make(map[TimeCategory][]HandoverView, len(TimeCategories))
	)
	for _, c := range TimeCategories {
		grouped[c] = []HandoverView{}
	}
	for i := range in.Handovers {
		h := &in.Handovers[i]
		category := Categorize(h, now, loc)
		if !in.Filters.Match(h, category) {
			continue
		}
		view := newView(h, category, now, loc)
		if in.Progress != nil {
			if summary, ok := in.Progress[h.ID]; ok {
				summary := summary
				view.Tasks = &summary
			}
		}
		rows = append(rows, h)
		views = append(views, view)
	}

	order := make([]int, len(views))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return lessView(&views[order[a]], &views[order[b]])
	})
	sortedViews := make([]HandoverView, 0, len(views))
	sortedRows := make([]*model.Handover, 0, len(rows))
	for _, i := range order {
		sortedViews = append(sortedViews, views[i])
		sortedRows = append(sortedRows, rows[i])
	}
	for _, v := range sortedViews {
		grouped[v.TimeCategory] = append(grouped[v.TimeCategory], v)
	}

	warnings := in.Warnings
	if warnings == nil {
		warnings = []string{}
	}

	return Result{
		Handovers:     sortedViews,
		Grouped:       grouped,
		KPIs:          computeKPIs(sortedRows, sortedViews, in.Progress),
		Stats:         computeStats(sortedRows, sortedViews),
		FilterOptions: filterOptions(in.Handovers),
		Metadata: Metadata{
			ManagerEmail:   in.ManagerEmail,
			GeneratedAt:    now.UTC().Format(time.RFC3339),
			TotalCount:     len(in.Handovers),
			FilteredCount:  len(sortedViews),
			AppliedFilters: in.Filters.Applied(),
			Warnings:       warnings,
		},
	}
}

// lessView orders by due date with unscheduled rows last, then by title.
func lessView(a, b *HandoverView) bool {
	switch {
	case a.DueDate == nil && b.DueDate != nil:
		return false
	case a.DueDate != nil && b.DueDate == nil:
		return true
	case a.DueDate != nil && b.DueDate != nil && !a.DueDate.Equal(b.DueDate.Time):
		return a.DueDate.Before(b.DueDate.Time)
	}
	if at, bt := strings.ToLower(a.Title), strings.ToLower(b.Title); at != bt {
		return at < bt
	}
	return a.ID < b.ID
}

func computeKPIs(rows []*model.Handover, views []HandoverView, progress map[string]model.TaskSummary) KPIs {
	k := KPIs{Total: len(rows)}
	progressSum, active := 0, 0
	for i, h := range rows {
		switch views[i].TimeCategory {
		case CategoryCancelled:
			k.Cancelled++
			continue
		case CategoryCompleted:
			k.Completed++
		case CategoryOverdue:
			k.Overdue++
		case CategoryThisWeek:
			k.DueThisWeek++
		}
		if views[i].TimeCategory != CategoryCompleted {
			if views[i].DerivedStatus == model.StatusNotStarted {
				k.NotStarted++
			} else {
				k.InProgress++
			}
		}
		progressSum += h.CompletionPercentage
		active++
	}
	k.CompletionRate = percent(k.Completed, active)
	if active > 0 {
		k.AverageProgress = round1(float64(progressSum) / float64(active))
	}

	if progress != nil {
		total, completed := 0, 0
		for _, h := range rows {
			if s, ok := progress[h.ID]; ok {
				total += s.Total
				completed += s.Completed
			}
		}
		rate := percent(completed, total)
		k.TotalTasks, k.CompletedTasks, k.TaskCompletionRate = &total, &completed, &rate
	}
	return k
}

func computeStats(rows []*model.Handover, views []HandoverView) Stats {
	s := Stats{
		ByStatus:          make(map[model.Status]int, len(model.Statuses)),
		ByTimeCategory:    make(map[TimeCategory]int, len(TimeCategories)),
		ByPriority:        make(map[model.Priority]int, len(model.Priorities)),
		StatusTransitions: []Transition{},
		TransitionCounts:  map[string]int{},
	}
	for _, st := range model.Statuses {
		s.ByStatus[st] = 0
	}
	for _, c := range TimeCategories {
		s.ByTimeCategory[c] = 0
	}
	for _, p := range model.Priorities {
		s.ByPriority[p] = 0
	}

	departments := newBreakdowns()
	plants := newBreakdowns()
	for i, h := range rows {
		v := &views[i]
		s.ByStatus[h.Status]++
		s.ByTimeCategory[v.TimeCategory]++
		s.ByPriority[h.Priority]++
		departments.add(v.Department, v)
		plants.add(v.Plant, v)

		if v.Status != v.DerivedStatus {
			s.StatusTransitions = append(s.StatusTransitions, Transition{
				HandoverID: h.ID,
				Title:      h.Title,
				From:       v.Status,
				To:         v.DerivedStatus,
			})
			s.TransitionCounts[string(v.Status)+"->"+string(v.DerivedStatus)]++
		}
	}
	s.ByDepartment = departments.list()
	s.ByPlant = plants.list()
	return s
}

type breakdownAcc struct {
	Breakdown
	progressSum int
	active      int
}

type breakdowns map[string]*breakdownAcc

func newBreakdowns() breakdowns {
	return breakdowns{}
}

func (b breakdowns) add(name string, v *HandoverView) {
	if name == "" {
		name = Unassigned
	}
	acc, ok := b[name]
	if !ok {
		acc = &breakdownAcc{Breakdown: Breakdown{Name: name}}
		b[name] = acc
	}
	acc.Total++
	switch v.TimeCategory {
	case CategoryCancelled:
		return
	case CategoryCompleted:
		acc.Completed++
	}
	acc.progressSum += v.CompletionPercentage
	acc.active++
}

func (b breakdowns) list() []Breakdown {
	out := make([]Breakdown, 0, len(b))
	for _, acc := range b {
		if acc.active > 0 {
			acc.AverageProgress = round1(float64(acc.progressSum) / float64(acc.active))
		}
		out = append(out, acc.Breakdown)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func filterOptions(handovers []model.Handover) FilterOptions {
	departments := map[string]struct{}{}
	plants := map[string]struct{}{}
	for i := range handovers {
		if name := handovers[i].DepartmentName(); name != "" {
			departments[name] = struct{}{}
		}
		if name := handovers[i].PlantName(); name != "" {
			plants[name] = struct{}{}
		}
	}
	return FilterOptions{
		Departments:    sortedKeys(departments),
		Plants:         sortedKeys(plants),
		Statuses:       model.Statuses,
		TimeCategories: TimeCategories,
		Priorities:     model.Priorities,
	}
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func percent(n, d int) float64 {
	if d <= 0 {
		return 0
	}
	return round1(float64(n) * 100 / float64(d))
}

func round1(f float64) float64 {
	return math.Round(f*10) / 10
}
