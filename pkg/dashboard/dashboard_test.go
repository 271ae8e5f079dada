package dashboard

import (
	"encoding/json"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doodlesbykumbi/handover-tracker/pkg/model"
)

var testNow = time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }

func due(days int) *model.Date {
	d := model.NewDate(testNow.AddDate(0, 0, days))
	return &d
}

func handover(id, title string, status model.Status, pct int, dueDate *model.Date) model.Handover {
	return model.Handover{
		ID:                   id,
		Title:                title,
		Status:               status,
		Priority:             model.PriorityMedium,
		CompletionPercentage: pct,
		DueDate:              dueDate,
		ManagerEmail:         "boss@example.com",
	}
}

func withDept(h model.Handover, id, name, plant string) model.Handover {
	h.DepartmentID = strPtr(id)
	h.Department = &model.Department{ID: id, Name: name}
	h.PlantID = strPtr("plant-" + plant)
	h.Plant = &model.Plant{ID: "plant-" + plant, Name: plant}
	return h
}

func fixture() []model.Handover {
	a := withDept(handover("a", "Alpha line", model.StatusInProgress, 40, due(-2)), "d1", "Assembly", "North")
	a.OutgoingEmployeeName = "Ada Lovelace"
	a.Priority = model.PriorityHigh
	b := withDept(handover("b", "Bravo press", model.StatusNotStarted, 0, due(0)), "d1", "Assembly", "North")
	c := withDept(handover("c", "Charlie QA", model.StatusCompleted, 100, due(-5)), "d2", "Quality", "South")
	d := withDept(handover("d", "Delta paint", model.StatusInProgress, 60, due(9)), "d2", "Quality", "South")
	d.IncomingEmployeeEmail = "grace@example.com"
	e := handover("e", "Echo forklift", model.StatusCancelled, 10, due(3))
	f := handover("f", "Foxtrot docs", model.StatusNotStarted, 0, nil)
	g := withDept(handover("g", "Golf audit", model.StatusNotStarted, 50, due(30)), "d1", "Assembly", "North")
	g.Priority = model.PriorityLow
	return []model.Handover{a, b, c, d, e, f, g}
}

func TestCategorize(t *testing.T) {
	tests := []struct {
		name string
		h    model.Handover
		want TimeCategory
	}{
		{"cancelled beats everything", handover("1", "x", model.StatusCancelled, 100, due(-3)), CategoryCancelled},
		{"completed status", handover("1", "x", model.StatusCompleted, 20, due(-3)), CategoryCompleted},
		{"full percentage counts as completed", handover("1", "x", model.StatusInProgress, 100, due(-3)), CategoryCompleted},
		{"no due date", handover("1", "x", model.StatusInProgress, 20, nil), CategoryUnscheduled},
		{"yesterday", handover("1", "x", model.StatusInProgress, 20, due(-1)), CategoryOverdue},
		{"today", handover("1", "x", model.StatusInProgress, 20, due(0)), CategoryThisWeek},
		{"six days out", handover("1", "x", model.StatusInProgress, 20, due(6)), CategoryThisWeek},
		{"seven days out", handover("1", "x", model.StatusInProgress, 20, due(7)), CategoryNextWeek},
		{"thirteen days out", handover("1", "x", model.StatusInProgress, 20, due(13)), CategoryNextWeek},
		{"fourteen days out", handover("1", "x", model.StatusInProgress, 20, due(14)), CategoryLater},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Categorize(&tt.h, testNow, time.UTC))
		})
	}
}

func TestCategorizeUsesLocation(t *testing.T) {
	// 23:30 UTC on March 10 is already March 11 in Auckland.
	now := time.Date(2025, time.March, 10, 23, 30, 0, 0, time.UTC)
	loc := time.FixedZone("NZDT", 13*3600)
	d := model.NewDate(time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC))
	h := handover("1", "x", model.StatusInProgress, 10, &d)

	assert.Equal(t, CategoryThisWeek, Categorize(&h, now, time.UTC))
	assert.Equal(t, CategoryOverdue, Categorize(&h, now, loc))
}

func TestDeriveStatus(t *testing.T) {
	tests := []struct {
		status model.Status
		pct    int
		want   model.Status
	}{
		{model.StatusInProgress, 0, model.StatusNotStarted},
		{model.StatusNotStarted, 1, model.StatusInProgress},
		{model.StatusNotStarted, 99, model.StatusInProgress},
		{model.StatusInProgress, 100, model.StatusCompleted},
		{model.StatusCancelled, 100, model.StatusCancelled},
	}
	for _, tt := range tests {
		h := handover("1", "x", tt.status, tt.pct, nil)
		assert.Equal(t, tt.want, DeriveStatus(&h), "%s at %d%%", tt.status, tt.pct)
	}
}

func groupedTotal(r Result) int {
	n := 0
	for _, views := range r.Grouped {
		n += len(views)
	}
	return n
}

func TestBuildGroupsEveryHandoverOnce(t *testing.T) {
	result := Build(Input{ManagerEmail: "boss@example.com", Handovers: fixture(), Now: testNow})

	require.Len(t, result.Handovers, 7)
	assert.Equal(t, len(result.Handovers), groupedTotal(result))
	assert.Len(t, result.Grouped, len(TimeCategories))
	for _, c := range TimeCategories {
		assert.NotNil(t, result.Grouped[c], "missing group %s", c)
	}

	ids := func(c TimeCategory) []string {
		var out []string
		for _, v := range result.Grouped[c] {
			out = append(out, v.ID)
		}
		return out
	}
	assert.Equal(t, []string{"a"}, ids(CategoryOverdue))
	assert.Equal(t, []string{"b"}, ids(CategoryThisWeek))
	assert.Equal(t, []string{"c"}, ids(CategoryCompleted))
	assert.Equal(t, []string{"d"}, ids(CategoryNextWeek))
	assert.Equal(t, []string{"e"}, ids(CategoryCancelled))
	assert.Equal(t, []string{"f"}, ids(CategoryUnscheduled))
	assert.Equal(t, []string{"g"}, ids(CategoryLater))
}

func TestBuildSortsByDueDate(t *testing.T) {
	result := Build(Input{Handovers: fixture(), Now: testNow})

	var order []string
	for _, v := range result.Handovers {
		order = append(order, v.ID)
	}
	assert.Equal(t, []string{"c", "a", "b", "e", "d", "g", "f"}, order)
}

func TestBuildFiltersNarrow(t *testing.T) {
	tests := []struct {
		name    string
		filters Filters
		want    []string
	}{
		{"no filters", Filters{}, []string{"c", "a", "b", "e", "d", "g", "f"}},
		{"all is a wildcard", Filters{Department: "all", Status: "all"}, []string{"c", "a", "b", "e", "d", "g", "f"}},
		{"department by name", Filters{Department: "assembly"}, []string{"a", "b", "g"}},
		{"department by id", Filters{Department: "d2"}, []string{"c", "d"}},
		{"plant", Filters{Plant: "South"}, []string{"c", "d"}},
		{"status", Filters{Status: "not_started"}, []string{"b", "g", "f"}},
		{"time category", Filters{TimeCategory: "overdue"}, []string{"a"}},
		{"priority", Filters{Priority: "high"}, []string{"a"}},
		{"search title", Filters{Search: "PRESS"}, []string{"b"}},
		{"search person", Filters{Search: "lovelace"}, []string{"a"}},
		{"search email", Filters{Search: "grace@"}, []string{"d"}},
		{"combined", Filters{Department: "Assembly", Status: "not_started"}, []string{"b", "g"}},
		{"nothing matches", Filters{Department: "Assembly", Plant: "South"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			all := Build(Input{Handovers: fixture(), Now: testNow})
			result := Build(Input{Handovers: fixture(), Filters: tt.filters, Now: testNow})

			var got []string
			for _, v := range result.Handovers {
				got = append(got, v.ID)
			}
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, len(result.Handovers), len(all.Handovers))
			assert.Equal(t, len(result.Handovers), groupedTotal(result))
			assert.Equal(t, len(result.Handovers), result.KPIs.Total)
			assert.Equal(t, 7, result.Metadata.TotalCount)
			assert.Equal(t, len(result.Handovers), result.Metadata.FilteredCount)
			assert.Equal(t, all.FilterOptions, result.FilterOptions)
		})
	}
}

func TestBuildKPIs(t *testing.T) {
	result := Build(Input{Handovers: fixture(), Now: testNow})
	k := result.KPIs

	assert.Equal(t, 7, k.Total)
	assert.Equal(t, 1, k.Completed)
	assert.Equal(t, 1, k.Cancelled)
	assert.Equal(t, 3, k.InProgress)
	assert.Equal(t, 2, k.NotStarted)
	assert.Equal(t, k.Total, k.Completed+k.Cancelled+k.InProgress+k.NotStarted)
	assert.Equal(t, 1, k.Overdue)
	assert.Equal(t, 1, k.DueThisWeek)
	// 1 completed out of 6 non-cancelled
	assert.Equal(t, 16.7, k.CompletionRate)
	// (40 + 0 + 100 + 60 + 0 + 50) / 6
	assert.Equal(t, 41.7, k.AverageProgress)
	assert.Nil(t, k.TotalTasks)
	assert.Nil(t, k.TaskCompletionRate)
}

func TestBuildTaskKPIs(t *testing.T) {
	progress := map[string]model.TaskSummary{
		"a": {HandoverID: "a", Total: 5, Completed: 2},
		"c": {HandoverID: "c", Total: 3, Completed: 3},
	}
	result := Build(Input{Handovers: fixture(), Progress: progress, Now: testNow})

	require.NotNil(t, result.KPIs.TotalTasks)
	assert.Equal(t, 8, *result.KPIs.TotalTasks)
	assert.Equal(t, 5, *result.KPIs.CompletedTasks)
	assert.Equal(t, 62.5, *result.KPIs.TaskCompletionRate)

	for _, v := range result.Handovers {
		if v.ID == "a" {
			require.NotNil(t, v.Tasks)
			assert.Equal(t, 5, v.Tasks.Total)
		}
		if v.ID == "b" {
			assert.Nil(t, v.Tasks)
		}
	}
}

func TestBuildEmpty(t *testing.T) {
	result := Build(Input{ManagerEmail: "boss@example.com", Now: testNow})

	assert.Empty(t, result.Handovers)
	assert.Equal(t, 0, groupedTotal(result))
	assert.Equal(t, 0.0, result.KPIs.CompletionRate)
	assert.Equal(t, 0.0, result.KPIs.AverageProgress)
	assert.Empty(t, result.FilterOptions.Departments)
	assert.Equal(t, []string{}, result.Metadata.Warnings)

	data, err := json.Marshal(result)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"handovers":[]`)
	assert.Contains(t, string(data), `"overdue":[]`)
}

func TestBuildStats(t *testing.T) {
	result := Build(Input{Handovers: fixture(), Now: testNow})
	s := result.Stats

	assert.Equal(t, 3, s.ByStatus[model.StatusNotStarted])
	assert.Equal(t, 2, s.ByStatus[model.StatusInProgress])
	assert.Equal(t, 1, s.ByStatus[model.StatusCompleted])
	assert.Equal(t, 1, s.ByStatus[model.StatusCancelled])
	assert.Equal(t, 1, s.ByPriority[model.PriorityHigh])
	assert.Equal(t, 1, s.ByPriority[model.PriorityLow])
	assert.Equal(t, 5, s.ByPriority[model.PriorityMedium])
	for _, c := range TimeCategories {
		assert.Equal(t, 1, s.ByTimeCategory[c], c)
	}

	assert.Equal(t, []Breakdown{
		{Name: "Assembly", Total: 3, Completed: 0, AverageProgress: 30},
		{Name: "Quality", Total: 2, Completed: 1, AverageProgress: 80},
		{Name: Unassigned, Total: 2, Completed: 0, AverageProgress: 0},
	}, s.ByDepartment)
	assert.Equal(t, []string{"North", "South", Unassigned}, names(s.ByPlant))

	require.Len(t, s.StatusTransitions, 1)
	assert.Equal(t, Transition{HandoverID: "g", Title: "Golf audit", From: model.StatusNotStarted, To: model.StatusInProgress}, s.StatusTransitions[0])
	assert.Equal(t, map[string]int{"not_started->in_progress": 1}, s.TransitionCounts)
}

func names(b []Breakdown) []string {
	var out []string
	for _, x := range b {
		out = append(out, x.Name)
	}
	return out
}

func TestBuildFilterOptionsAndMetadata(t *testing.T) {
	filters := FiltersFromQuery(url.Values{
		ParamDepartment: {"Quality"},
		ParamStatus:     {"all"},
		ParamSearch:     {" delta "},
	})
	result := Build(Input{
		ManagerEmail: "boss@example.com",
		Handovers:    fixture(),
		Filters:      filters,
		Now:          testNow,
		Warnings:     []string{"task progress unavailable"},
	})

	assert.Equal(t, []string{"Assembly", "Quality"}, result.FilterOptions.Departments)
	assert.Equal(t, []string{"North", "South"}, result.FilterOptions.Plants)
	assert.Equal(t, model.Statuses, result.FilterOptions.Statuses)
	assert.Equal(t, TimeCategories, result.FilterOptions.TimeCategories)

	m := result.Metadata
	assert.Equal(t, "boss@example.com", m.ManagerEmail)
	assert.Equal(t, "2025-03-10T12:00:00Z", m.GeneratedAt)
	assert.Equal(t, 7, m.TotalCount)
	assert.Equal(t, 1, m.FilteredCount)
	assert.Equal(t, map[string]string{ParamDepartment: "Quality", ParamSearch: "delta"}, m.AppliedFilters)
	assert.Equal(t, []string{"task progress unavailable"}, m.Warnings)
}

func TestHandoverViewDueLabels(t *testing.T) {
	result := Build(Input{Handovers: fixture(), Now: testNow})
	labels := map[string]string{}
	days := map[string]*int{}
	for _, v := range result.Handovers {
		labels[v.ID] = v.DueLabel
		days[v.ID] = v.DaysUntilDue
	}

	assert.Equal(t, "2 days overdue", labels["a"])
	assert.Equal(t, "due today", labels["b"])
	assert.Equal(t, "3 days from now", labels["e"])
	assert.Equal(t, "", labels["f"])
	assert.Nil(t, days["f"])
	require.NotNil(t, days["a"])
	assert.Equal(t, -2, *days["a"])
}

func TestFiltersValidate(t *testing.T) {
	assert.NoError(t, Filters{Status: "completed", TimeCategory: "next_week", Priority: "low"}.Validate())
	assert.NoError(t, Filters{Status: "all", TimeCategory: "ALL"}.Validate())
	assert.Error(t, Filters{Status: "done"}.Validate())
	assert.Error(t, Filters{TimeCategory: "tomorrow"}.Validate())
	assert.Error(t, Filters{Priority: "urgent"}.Validate())
}
