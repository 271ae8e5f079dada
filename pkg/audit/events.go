package audit

import (
	"fmt"
	"strconv"
)

type Operation string

const (
	OperationCreate Operation = "create"
	OperationUpdate Operation = "update"
	OperationDelete Operation = "delete"
)

var pastTense = map[Operation]string{
	OperationCreate: "created",
	OperationUpdate: "updated",
	OperationDelete: "deleted",
}

// HandoverEvent records a change to a handover record.
type HandoverEvent struct {
	Actor        string
	ClientIP     string
	HandoverID   string
	Operation    Operation
	Success      bool
	ErrorMessage string
}

func (e HandoverEvent) MessageID() string {
	return "handover-" + string(e.Operation)
}

func (e HandoverEvent) Message() string {
	if e.Success {
		return fmt.Sprintf("%s %s handover %s", e.Actor, pastTense[e.Operation], e.HandoverID)
	}
	msg := fmt.Sprintf("%s tried to %s handover %s", e.Actor, e.Operation, e.HandoverID)
	if e.ErrorMessage != "" {
		msg += ": " + e.ErrorMessage
	}
	return msg
}

func (e HandoverEvent) Severity() Severity {
	return severity(e.Success)
}

func (e HandoverEvent) Facility() int {
	return FacilityLocal0
}

func (e HandoverEvent) StructuredData() map[string]map[string]string {
	return map[string]map[string]string{
		SDIDActor:   {"email": e.Actor},
		SDIDSubject: {"handover": e.HandoverID},
		SDIDClient:  {"ip": e.ClientIP},
		SDIDAction: {
			"operation": string(e.Operation),
			"result":    result(e.Success),
		},
	}
}

// ProgressEvent records a task being checked off or reopened.
type ProgressEvent struct {
	Actor        string
	ClientIP     string
	HandoverID   string
	TaskKey      string
	Completed    bool
	Percentage   int
	Success      bool
	ErrorMessage string
}

func (e ProgressEvent) MessageID() string {
	return "progress"
}

func (e ProgressEvent) Message() string {
	state := "reopened"
	if e.Completed {
		state = "completed"
	}
	if e.Success {
		return fmt.Sprintf("%s %s task %s of handover %s (%d%%)", e.Actor, state, e.TaskKey, e.HandoverID, e.Percentage)
	}
	msg := fmt.Sprintf("%s tried to update task %s of handover %s", e.Actor, e.TaskKey, e.HandoverID)
	if e.ErrorMessage != "" {
		msg += ": " + e.ErrorMessage
	}
	return msg
}

func (e ProgressEvent) Severity() Severity {
	return severity(e.Success)
}

func (e ProgressEvent) Facility() int {
	return FacilityLocal0
}

func (e ProgressEvent) StructuredData() map[string]map[string]string {
	sd := map[string]map[string]string{
		SDIDActor: {"email": e.Actor},
		SDIDSubject: {
			"handover": e.HandoverID,
			"task":     e.TaskKey,
		},
		SDIDClient: {"ip": e.ClientIP},
		SDIDAction: {
			"operation": "progress",
			"completed": strconv.FormatBool(e.Completed),
			"result":    result(e.Success),
		},
	}
	if e.Success {
		sd[SDIDSubject]["percentage"] = strconv.Itoa(e.Percentage)
	}
	return sd
}

// SyncEvent records one Google Sheets sync run.
type SyncEvent struct {
	Trigger      string
	SheetID      string
	RowsRead     int
	Created      int
	Updated      int
	Skipped      int
	Success      bool
	ErrorMessage string
}

func (e SyncEvent) MessageID() string {
	return "sync"
}

func (e SyncEvent) Message() string {
	if e.Success {
		return fmt.Sprintf("sheet sync via %s read %d rows: %d created, %d updated, %d skipped",
			e.Trigger, e.RowsRead, e.Created, e.Updated, e.Skipped)
	}
	msg := fmt.Sprintf("sheet sync via %s failed", e.Trigger)
	if e.ErrorMessage != "" {
		msg += ": " + e.ErrorMessage
	}
	return msg
}

func (e SyncEvent) Severity() Severity {
	if e.Success {
		return SeverityNotice
	}
	return SeverityError
}

func (e SyncEvent) Facility() int {
	return FacilityLocal0
}

func (e SyncEvent) StructuredData() map[string]map[string]string {
	return map[string]map[string]string{
		SDIDSync: {
			"trigger": e.Trigger,
			"sheet":   e.SheetID,
			"read":    strconv.Itoa(e.RowsRead),
			"created": strconv.Itoa(e.Created),
			"updated": strconv.Itoa(e.Updated),
			"skipped": strconv.Itoa(e.Skipped),
		},
		SDIDAction: {
			"operation": "sync",
			"result":    result(e.Success),
		},
	}
}

// CronEvent records a cron trigger of the downstream sync endpoint.
type CronEvent struct {
	ClientIP     string
	Target       string
	Status       int
	Authorized   bool
	Success      bool
	ErrorMessage string
}

func (e CronEvent) MessageID() string {
	return "cron"
}

func (e CronEvent) Message() string {
	switch {
	case !e.Authorized:
		return "rejected cron trigger with invalid secret"
	case e.Success:
		return fmt.Sprintf("cron triggered %s (status %d)", e.Target, e.Status)
	}
	msg := fmt.Sprintf("cron trigger of %s failed", e.Target)
	if e.ErrorMessage != "" {
		msg += ": " + e.ErrorMessage
	}
	return msg
}

func (e CronEvent) Severity() Severity {
	if !e.Authorized {
		return SeverityWarning
	}
	if e.Success {
		return SeverityInfo
	}
	return SeverityError
}

func (e CronEvent) Facility() int {
	if !e.Authorized {
		return FacilityAuthPriv
	}
	return FacilityLocal0
}

func (e CronEvent) StructuredData() map[string]map[string]string {
	sd := map[string]map[string]string{
		SDIDClient: {"ip": e.ClientIP},
		SDIDAction: {
			"operation": "cron",
			"result":    result(e.Success && e.Authorized),
		},
	}
	if e.Target != "" {
		sd[SDIDSubject] = map[string]string{"target": e.Target}
	}
	if e.Status != 0 {
		sd[SDIDAction]["status"] = strconv.Itoa(e.Status)
	}
	return sd
}
