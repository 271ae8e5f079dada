package dashboard

import (
	"time"

	"github.com/dustin/go-humanize"

	"github.com/doodlesbykumbi/handover-tracker/pkg/model"
)

// HandoverView is one dashboard row.
type HandoverView struct {
	ID                    string             `json:"id"`
	Title                 string             `json:"title"`
	OutgoingEmployeeName  string             `json:"outgoingEmployeeName"`
	OutgoingEmployeeEmail string             `json:"outgoingEmployeeEmail"`
	IncomingEmployeeName  string             `json:"incomingEmployeeName"`
	IncomingEmployeeEmail string             `json:"incomingEmployeeEmail"`
	ManagerEmail          string             `json:"managerEmail"`
	DepartmentID          *string            `json:"departmentId"`
	Department            string             `json:"department"`
	PlantID               *string            `json:"plantId"`
	Plant                 string             `json:"plant"`
	Job                   string             `json:"job"`
	Status                model.Status       `json:"status"`
	DerivedStatus         model.Status       `json:"derivedStatus"`
	Priority              model.Priority     `json:"priority"`
	StartDate             *model.Date        `json:"startDate"`
	DueDate               *model.Date        `json:"dueDate"`
	CompletionPercentage  int                `json:"completionPercentage"`
	TimeCategory          TimeCategory       `json:"timeCategory"`
	DaysUntilDue          *int               `json:"daysUntilDue"`
	DueLabel              string             `json:"dueLabel"`
	Tasks                 *model.TaskSummary `json:"tasks,omitempty"`
}

func newView(h *model.Handover, category TimeCategory, now time.Time, loc *time.Location) HandoverView {
	v := HandoverView{
		ID:                    h.ID,
		Title:                 h.Title,
		OutgoingEmployeeName:  h.OutgoingEmployeeName,
		OutgoingEmployeeEmail: h.OutgoingEmployeeEmail,
		IncomingEmployeeName:  h.IncomingEmployeeName,
		IncomingEmployeeEmail: h.IncomingEmployeeEmail,
		ManagerEmail:          h.ManagerEmail,
		DepartmentID:          h.DepartmentID,
		Department:            h.DepartmentName(),
		PlantID:               h.PlantID,
		Plant:                 h.PlantName(),
		Job:                   h.JobTitle(),
		Status:                h.Status,
		DerivedStatus:         DeriveStatus(h),
		Priority:              h.Priority,
		StartDate:             h.StartDate,
		DueDate:               h.DueDate,
		CompletionPercentage:  h.CompletionPercentage,
		TimeCategory:          category,
	}
	if h.DueDate != nil {
		days := h.DueDate.DaysUntil(now, loc)
		v.DaysUntilDue = &days
		v.DueLabel = dueLabel(*h.DueDate, now, loc)
	}
	return v
}

// dueLabel renders the distance to the due date in days, e.g. "3 days overdue"
// or "1 week from now".
func dueLabel(due model.Date, now time.Time, loc *time.Location) string {
	today := model.NewDate(now.In(loc))
	if due.Equal(today.Time) {
		return "due today"
	}
	return humanize.RelTime(due.Time, today.Time, "overdue", "from now")
}
