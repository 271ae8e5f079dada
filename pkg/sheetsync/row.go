package sheetsync

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/doodlesbykumbi/handover-tracker/pkg/model"
)

type column int

const (
	colExternalRef column = iota
	colTitle
	colOutgoingName
	colOutgoingEmail
	colIncomingName
	colIncomingEmail
	colManagerEmail
	colDepartment
	colPlant
	colStatus
	colPriority
	colStartDate
	colDueDate
	colCompletion
	colNotes
)

var headerNames = map[string]column{
	"external ref":      colExternalRef,
	"handover id":       colExternalRef,
	"title":             colTitle,
	"outgoing employee": colOutgoingName,
	"outgoing email":    colOutgoingEmail,
	"incoming employee": colIncomingName,
	"incoming email":    colIncomingEmail,
	"manager email":     colManagerEmail,
	"department":        colDepartment,
	"plant":             colPlant,
	"status":            colStatus,
	"priority":          colPriority,
	"start date":        colStartDate,
	"due date":          colDueDate,
	"completion %":      colCompletion,
	"completion":        colCompletion,
	"notes":             colNotes,
}

// header maps the sheet's column positions to the fields they hold.
type header map[column]int

func parseHeader(row []string) (header, error) {
	h := header{}
	for i, name := range row {
		key := strings.Join(strings.Fields(strings.ToLower(name)), " ")
		if c, ok := headerNames[key]; ok {
			if _, seen := h[c]; !seen {
				h[c] = i
			}
		}
	}
	var missing []string
	if _, ok := h[colExternalRef]; !ok {
		missing = append(missing, "External Ref")
	}
	if _, ok := h[colTitle]; !ok {
		missing = append(missing, "Title")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("sheet header is missing %s", strings.Join(missing, ", "))
	}
	return h, nil
}

func (h header) get(row []string, c column) string {
	i, ok := h[c]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// sheetRow is one data row before directory names are resolved.
type sheetRow struct {
	handover   model.Handover
	department string
	plant      string
}

var dateLayouts = []string{model.DateLayout, "1/2/2006", "01/02/2006", "2 Jan 2006", "Jan 2, 2006"}

func parseSheetDate(s string) (*model.Date, error) {
	if s == "" {
		return nil, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			d := model.NewDate(t)
			return &d, nil
		}
	}
	return nil, fmt.Errorf("unrecognised date %q", s)
}

func parseStatus(s string) (model.Status, error) {
	if s == "" {
		return "", nil
	}
	status := model.Status(strings.Join(strings.Fields(strings.ToLower(s)), "_"))
	if status == "canceled" {
		status = model.StatusCancelled
	}
	if status.Valid() {
		return status, nil
	}
	return "", fmt.Errorf("unknown status %q", s)
}

func parsePriority(s string) (model.Priority, error) {
	if s == "" {
		return "", nil
	}
	p := model.Priority(strings.ToLower(s))
	if !p.Valid() {
		return "", fmt.Errorf("unknown priority %q", s)
	}
	return p, nil
}

func parseCompletion(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(s, "%")), 64)
	if err != nil || n < 0 || n > 100 {
		return 0, fmt.Errorf("invalid completion %q", s)
	}
	return int(n + 0.5), nil
}

// parseRow converts a data row. An error means the row is skipped.
func (h header) parseRow(row []string) (*sheetRow, error) {
	ref := h.get(row, colExternalRef)
	title := h.get(row, colTitle)
	if ref == "" {
		return nil, errors.New("missing external ref")
	}
	if title == "" {
		return nil, errors.New("missing title")
	}

	status, err := parseStatus(h.get(row, colStatus))
	if err != nil {
		return nil, err
	}
	priority, err := parsePriority(h.get(row, colPriority))
	if err != nil {
		return nil, err
	}
	start, err := parseSheetDate(h.get(row, colStartDate))
	if err != nil {
		return nil, fmt.Errorf("start date: %w", err)
	}
	due, err := parseSheetDate(h.get(row, colDueDate))
	if err != nil {
		return nil, fmt.Errorf("due date: %w", err)
	}
	pct, err := parseCompletion(h.get(row, colCompletion))
	if err != nil {
		return nil, err
	}

	r := &sheetRow{
		handover: model.Handover{
			Title:                 title,
			OutgoingEmployeeName:  h.get(row, colOutgoingName),
			OutgoingEmployeeEmail: h.get(row, colOutgoingEmail),
			IncomingEmployeeName:  h.get(row, colIncomingName),
			IncomingEmployeeEmail: h.get(row, colIncomingEmail),
			ManagerEmail:          h.get(row, colManagerEmail),
			Status:                status,
			Priority:              priority,
			StartDate:             start,
			DueDate:               due,
			CompletionPercentage:  pct,
			Notes:                 h.get(row, colNotes),
			ExternalRef:           &ref,
		},
		department: h.get(row, colDepartment),
		plant:      h.get(row, colPlant),
	}
	r.handover.Normalize()
	if err := r.handover.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
