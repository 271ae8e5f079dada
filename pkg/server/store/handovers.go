package store

import (
	"context"

	"github.com/doodlesbykumbi/handover-tracker/pkg/model"
)

// Scope restricts which handovers a query can see. The zero value sees
// nothing; All sees everything. Otherwise a handover is visible when any
// non-empty field matches it.
type Scope struct {
	All              bool
	ManagerEmail     string
	DepartmentID     string
	ParticipantEmail string
}

// Unrestricted is the scope used by admins and background jobs.
var Unrestricted = Scope{All: true}

// Allows evaluates the scope against a loaded handover.
func (s Scope) Allows(h *model.Handover) bool {
	if s.All {
		return true
	}
	if s.ManagerEmail != "" && model.NormalizeEmail(h.ManagerEmail) == model.NormalizeEmail(s.ManagerEmail) {
		return true
	}
	if s.DepartmentID != "" && h.DepartmentID != nil && *h.DepartmentID == s.DepartmentID {
		return true
	}
	return s.ParticipantEmail != "" && h.Involves(s.ParticipantEmail)
}

// Empty reports whether the scope can never match.
func (s Scope) Empty() bool {
	return !s.All && s.ManagerEmail == "" && s.DepartmentID == "" && s.ParticipantEmail == ""
}

type HandoverQuery struct {
	Scope        Scope
	Status       string
	DepartmentID string
	Search       string
	Limit        int
	Offset       int
}

// HandoverPatch holds the fields of a partial update. Nil and unset fields
// are left unchanged; an explicit null clears an Optional field.
type HandoverPatch struct {
	Title                 *string              `json:"title"`
	OutgoingEmployeeName  *string              `json:"outgoing_employee_name"`
	OutgoingEmployeeEmail *string              `json:"outgoing_employee_email"`
	IncomingEmployeeName  *string              `json:"incoming_employee_name"`
	IncomingEmployeeEmail *string              `json:"incoming_employee_email"`
	ManagerEmail          *string              `json:"manager_email"`
	DepartmentID          Optional[string]     `json:"department_id"`
	PlantID               Optional[string]     `json:"plant_id"`
	JobID                 Optional[string]     `json:"job_id"`
	Status                *model.Status        `json:"status"`
	Priority              *model.Priority      `json:"priority"`
	StartDate             Optional[model.Date] `json:"start_date"`
	DueDate               Optional[model.Date] `json:"due_date"`
	Notes                 *string              `json:"notes"`
}

// Apply copies the set fields onto h.
func (p HandoverPatch) Apply(h *model.Handover) {
	setString := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	setString(&h.Title, p.Title)
	setString(&h.OutgoingEmployeeName, p.OutgoingEmployeeName)
	setString(&h.OutgoingEmployeeEmail, p.OutgoingEmployeeEmail)
	setString(&h.IncomingEmployeeName, p.IncomingEmployeeName)
	setString(&h.IncomingEmployeeEmail, p.IncomingEmployeeEmail)
	setString(&h.ManagerEmail, p.ManagerEmail)
	setString(&h.Notes, p.Notes)
	p.DepartmentID.apply(&h.DepartmentID)
	p.PlantID.apply(&h.PlantID)
	p.JobID.apply(&h.JobID)
	if p.Status != nil {
		h.Status = *p.Status
	}
	if p.Priority != nil {
		h.Priority = *p.Priority
	}
	p.StartDate.apply(&h.StartDate)
	p.DueDate.apply(&h.DueDate)
}

// HandoversStore abstracts handover storage operations
type HandoversStore interface {
	// ListForManager returns every handover managed by email, with
	// department, plant and job joined.
	ListForManager(ctx context.Context, managerEmail string) ([]model.Handover, error)

	// List returns handovers visible in q.Scope plus the total before paging.
	List(ctx context.Context, q HandoverQuery) ([]model.Handover, int64, error)

	// Get returns ErrNotFound when id doesn't exist or is outside scope.
	Get(ctx context.Context, id string, scope Scope) (*model.Handover, error)

	// Create inserts h and seeds one progress row per task in a single transaction.
	Create(ctx context.Context, h *model.Handover, tasks model.TaskList) error

	// Update applies patch to a handover inside scope and returns the result.
	Update(ctx context.Context, id string, scope Scope, patch HandoverPatch) (*model.Handover, error)

	Delete(ctx context.Context, id string, scope Scope) error

	// FindByExternalRef returns ErrNotFound when no row carries ref.
	FindByExternalRef(ctx context.Context, ref string) (*model.Handover, error)

	// Upsert inserts or updates by external ref. created reports an insert.
	Upsert(ctx context.Context, h *model.Handover) (created bool, err error)
}
