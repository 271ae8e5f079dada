// Package audit records data changes made through the handover API.
//
// Each event is written to stdout as an RFC5424 syslog line and, when
// AUDIT_DATABASE_URL is set, persisted to the audit_messages table.
//
// # Event Types
//
//   - HandoverEvent: handover create, update and delete
//   - ProgressEvent: task progress changes
//   - SyncEvent: Google Sheets sync runs
//   - CronEvent: scheduled sync triggers
//
// # Usage
//
//	audit.Log(audit.HandoverEvent{
//		Actor:      principal.Email,
//		ClientIP:   r.RemoteAddr,
//		HandoverID: h.ID,
//		Operation:  audit.OperationCreate,
//		Success:    true,
//	})
package audit
