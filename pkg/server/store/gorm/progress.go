package gorm

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/doodlesbykumbi/handover-tracker/pkg/dashboard"
	"github.com/doodlesbykumbi/handover-tracker/pkg/model"
	"github.com/doodlesbykumbi/handover-tracker/pkg/server/store"
)

// Ensure ProgressStore implements store.ProgressStore
var _ store.ProgressStore = (*ProgressStore)(nil)

// ProgressStore implements store.ProgressStore using GORM
type ProgressStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewProgressStore creates a new ProgressStore
func NewProgressStore(db *gorm.DB) *ProgressStore {
	return &ProgressStore{db: db, now: time.Now}
}

// ListForHandover returns the tasks of a handover in order
func (s *ProgressStore) ListForHandover(ctx context.Context, handoverID string) ([]model.HandoverProgress, error) {
	if !model.IsUUID(handoverID) {
		return nil, store.ErrNotFound
	}
	var rows []model.HandoverProgress
	err := s.db.WithContext(ctx).
		Where("handover_id = ?", handoverID).
		Order("position, created_at").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("listing progress for %s: %w", handoverID, err)
	}
	return rows, nil
}

// SummaryForHandovers counts total and completed tasks per handover
func (s *ProgressStore) SummaryForHandovers(ctx context.Context, handoverIDs []string) (map[string]model.TaskSummary, error) {
	summaries := make(map[string]model.TaskSummary, len(handoverIDs))
	if len(handoverIDs) == 0 {
		return summaries, nil
	}

	var rows []model.TaskSummary
	err := s.db.WithContext(ctx).Raw(`
		SELECT handover_id,
		       COUNT(*) AS total,
		       COUNT(*) FILTER (WHERE is_completed) AS completed
		FROM handover_progress
		WHERE handover_id IN ?
		GROUP BY handover_id
	`, handoverIDs).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("summarizing progress: %w", err)
	}
	for _, row := range rows {
		summaries[row.HandoverID] = row
	}
	return summaries, nil
}

// Add appends a task to a handover
func (s *ProgressStore) Add(ctx context.Context, p *model.HandoverProgress) (*store.ProgressUpdate, error) {
	if p.Title == "" {
		return nil, fmt.Errorf("%w: title is required", store.ErrInvalid)
	}
	var update *store.ProgressUpdate
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var next int
		if err := tx.Raw(`SELECT COALESCE(MAX(position) + 1, 0) FROM handover_progress WHERE handover_id = ?`, p.HandoverID).
			Scan(&next).Error; err != nil {
			return err
		}
		p.Position = next
		if p.TaskKey == "" {
			p.TaskKey = fmt.Sprintf("task-%d", next+1)
		}
		if p.IsCompleted && p.CompletedAt == nil {
			now := s.now().UTC()
			p.CompletedAt = &now
		}
		if err := tx.Create(p).Error; err != nil {
			return translate(err)
		}

		h, err := s.recompute(tx, p.HandoverID)
		if err != nil {
			return err
		}
		update = &store.ProgressUpdate{Progress: *p, Handover: *h}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return update, nil
}

// Update changes one task and rolls the result up to its handover
func (s *ProgressStore) Update(ctx context.Context, handoverID, progressID string, patch store.ProgressPatch) (*store.ProgressUpdate, error) {
	if !model.IsUUID(handoverID) || !model.IsUUID(progressID) {
		return nil, store.ErrNotFound
	}
	var update *store.ProgressUpdate
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p model.HandoverProgress
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND handover_id = ?", progressID, handoverID).
			First(&p).Error
		if err != nil {
			return translate(err)
		}

		if patch.IsCompleted != nil && *patch.IsCompleted != p.IsCompleted {
			p.IsCompleted = *patch.IsCompleted
			if p.IsCompleted {
				now := s.now().UTC()
				p.CompletedAt = &now
				if patch.CompletedBy != "" {
					by := patch.CompletedBy
					p.CompletedBy = &by
				}
			} else {
				p.CompletedAt = nil
				p.CompletedBy = nil
			}
		}
		if patch.Notes != nil {
			p.Notes = *patch.Notes
		}
		if err := tx.Save(&p).Error; err != nil {
			return translate(err)
		}

		h, err := s.recompute(tx, handoverID)
		if err != nil {
			return err
		}
		update = &store.ProgressUpdate{Progress: p, Handover: *h}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return update, nil
}

// recompute derives the handover's completion percentage and status from
// its tasks. Cancelled handovers keep their status.
func (s *ProgressStore) recompute(tx *gorm.DB, handoverID string) (*model.Handover, error) {
	var h model.Handover
	if err := tx.Where("id = ?", handoverID).First(&h).Error; err != nil {
		return nil, translate(err)
	}

	var counts model.TaskSummary
	err := tx.Raw(`
		SELECT COUNT(*) AS total, COUNT(*) FILTER (WHERE is_completed) AS completed
		FROM handover_progress WHERE handover_id = ?
	`, handoverID).Scan(&counts).Error
	if err != nil {
		return nil, err
	}

	h.CompletionPercentage = model.CompletionPercentage(counts.Completed, counts.Total)
	status := dashboard.DeriveStatus(&h)
	switch {
	case status == model.StatusCompleted && h.Status != model.StatusCompleted:
		now := s.now().UTC()
		h.CompletedAt = &now
	case status != model.StatusCompleted:
		h.CompletedAt = nil
	}
	h.Status = status

	err = tx.Model(&model.Handover{}).Where("id = ?", handoverID).Updates(map[string]interface{}{
		"completion_percentage": h.CompletionPercentage,
		"status":                h.Status,
		"completed_at":          h.CompletedAt,
		"updated_at":            s.now().UTC(),
	}).Error
	if err != nil {
		return nil, translate(err)
	}
	return &h, nil
}
