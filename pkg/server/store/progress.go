package store

import (
	"context"

	"github.com/doodlesbykumbi/handover-tracker/pkg/model"
)

// ProgressPatch updates one task. CompletedBy is recorded when a task is completed.
type ProgressPatch struct {
	IsCompleted *bool   `json:"is_completed"`
	Notes       *string `json:"notes"`
	CompletedBy string  `json:"-"`
}

// ProgressUpdate is the outcome of a progress change.
type ProgressUpdate struct {
	Progress model.HandoverProgress `json:"progress"`
	Handover model.Handover         `json:"handover"`
}

// ProgressStore abstracts task progress operations
type ProgressStore interface {
	// ListForHandover returns the tasks of a handover ordered by position.
	ListForHandover(ctx context.Context, handoverID string) ([]model.HandoverProgress, error)

	// SummaryForHandovers returns task totals keyed by handover ID. Handovers
	// without tasks are absent.
	SummaryForHandovers(ctx context.Context, handoverIDs []string) (map[string]model.TaskSummary, error)

	// Add appends a task to a handover and recomputes its completion.
	Add(ctx context.Context, p *model.HandoverProgress) (*ProgressUpdate, error)

	// Update changes one task, then recomputes the handover's completion
	// percentage, status and completed_at in the same transaction.
	Update(ctx context.Context, handoverID, progressID string, patch ProgressPatch) (*ProgressUpdate, error)
}
