package model

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
)

type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// Statuses lists every handover status in display order.
var Statuses = []Status{StatusNotStarted, StatusInProgress, StatusCompleted, StatusCancelled}

func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Priorities lists every priority from lowest to highest.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

func (p Priority) Valid() bool {
	for _, v := range Priorities {
		if p == v {
			return true
		}
	}
	return false
}

type Handover struct {
	ID                    string     `gorm:"column:id;primaryKey;type:uuid" json:"id"`
	OrganizationID        *string    `gorm:"column:organization_id;type:uuid" json:"organization_id"`
	PlantID               *string    `gorm:"column:plant_id;type:uuid" json:"plant_id"`
	DepartmentID          *string    `gorm:"column:department_id;type:uuid" json:"department_id"`
	JobID                 *string    `gorm:"column:job_id;type:uuid" json:"job_id"`
	TemplateID            *string    `gorm:"column:template_id;type:uuid" json:"template_id"`
	Title                 string     `gorm:"column:title" json:"title"`
	OutgoingEmployeeName  string     `gorm:"column:outgoing_employee_name" json:"outgoing_employee_name"`
	OutgoingEmployeeEmail string     `gorm:"column:outgoing_employee_email" json:"outgoing_employee_email"`
	IncomingEmployeeName  string     `gorm:"column:incoming_employee_name" json:"incoming_employee_name"`
	IncomingEmployeeEmail string     `gorm:"column:incoming_employee_email" json:"incoming_employee_email"`
	ManagerEmail          string     `gorm:"column:manager_email" json:"manager_email"`
	Status                Status     `gorm:"column:status" json:"status"`
	Priority              Priority   `gorm:"column:priority" json:"priority"`
	StartDate             *Date      `gorm:"column:start_date;type:date" json:"start_date"`
	DueDate               *Date      `gorm:"column:due_date;type:date" json:"due_date"`
	CompletedAt           *time.Time `gorm:"column:completed_at" json:"completed_at"`
	CompletionPercentage  int        `gorm:"column:completion_percentage" json:"completion_percentage"`
	Notes                 string     `gorm:"column:notes" json:"notes"`
	ExternalRef           *string    `gorm:"column:external_ref" json:"external_ref,omitempty"`
	CreatedAt             time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt             time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`

	Organization *Organization `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
	Plant        *Plant        `gorm:"foreignKey:PlantID" json:"plant,omitempty"`
	Department   *Department   `gorm:"foreignKey:DepartmentID" json:"department,omitempty"`
	Job          *Job          `gorm:"foreignKey:JobID" json:"job,omitempty"`
}

func (Handover) TableName() string {
	return "handovers"
}

func (h *Handover) BeforeCreate(tx *gorm.DB) error {
	ensureID(&h.ID)
	return nil
}

// Normalize fills defaults and lowercases email addresses.
func (h *Handover) Normalize() {
	h.Title = strings.TrimSpace(h.Title)
	h.OutgoingEmployeeEmail = NormalizeEmail(h.OutgoingEmployeeEmail)
	h.IncomingEmployeeEmail = NormalizeEmail(h.IncomingEmployeeEmail)
	h.ManagerEmail = NormalizeEmail(h.ManagerEmail)
	if h.Status == "" {
		h.Status = StatusNotStarted
	}
	if h.Priority == "" {
		h.Priority = PriorityMedium
	}
}

// Validate checks the invariants the database also enforces, so callers get
// a readable error instead of a constraint violation.
func (h *Handover) Validate() error {
	if h.Title == "" {
		return errors.New("title is required")
	}
	if !h.Status.Valid() {
		return errors.New("invalid status: " + string(h.Status))
	}
	if !h.Priority.Valid() {
		return errors.New("invalid priority: " + string(h.Priority))
	}
	if h.CompletionPercentage < 0 || h.CompletionPercentage > 100 {
		return errors.New("completion_percentage must be between 0 and 100")
	}
	if h.StartDate != nil && h.DueDate != nil && h.DueDate.Before(h.StartDate.Time) {
		return errors.New("due_date must not be before start_date")
	}
	return nil
}

// Involves reports whether email is the outgoing or incoming employee.
func (h *Handover) Involves(email string) bool {
	email = NormalizeEmail(email)
	return email != "" && (NormalizeEmail(h.OutgoingEmployeeEmail) == email || NormalizeEmail(h.IncomingEmployeeEmail) == email)
}

// DepartmentName returns the joined department name, or "" when not loaded.
func (h *Handover) DepartmentName() string {
	if h.Department == nil {
		return ""
	}
	return h.Department.Name
}

// PlantName returns the joined plant name, or "" when not loaded.
func (h *Handover) PlantName() string {
	if h.Plant == nil {
		return ""
	}
	return h.Plant.Name
}

// JobTitle returns the joined job title, or "" when not loaded.
func (h *Handover) JobTitle() string {
	if h.Job == nil {
		return ""
	}
	return h.Job.Title
}
