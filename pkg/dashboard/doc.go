// Package dashboard aggregates a manager's handovers into the views the
// dashboard renders: time-category groups, KPIs, breakdown statistics and
// status transitions.
//
// Everything here is a pure function of the handovers passed in, the
// optional task progress summary, the current time and the reporting time
// zone. Nothing in this package talks to the database.
package dashboard
