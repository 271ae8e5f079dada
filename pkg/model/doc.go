// Package model contains the GORM models for the handover tracker schema.
//
// Tables:
//
//   - organizations, plants, departments, jobs: the organizational directory
//   - templates: reusable task lists for a job
//   - handovers: a transfer of responsibility from an outgoing to an incoming employee
//   - handover_progress: per-task completion for a handover
//   - user_profiles: application role and department for an authenticated user
//
// IDs are UUID strings assigned in BeforeCreate when the caller leaves them empty.
package model
