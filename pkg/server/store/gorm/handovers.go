package gorm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/doodlesbykumbi/handover-tracker/pkg/model"
	"github.com/doodlesbykumbi/handover-tracker/pkg/server/store"
)

// Ensure HandoversStore implements store.HandoversStore
var _ store.HandoversStore = (*HandoversStore)(nil)

// HandoversStore implements store.HandoversStore using GORM
type HandoversStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewHandoversStore creates a new HandoversStore
func NewHandoversStore(db *gorm.DB) *HandoversStore {
	return &HandoversStore{db: db, now: time.Now}
}

func (s *HandoversStore) withRelations(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Preload("Department").Preload("Plant").Preload("Job")
}

// scoped adds the visibility predicate for scope to tx.
func scoped(tx *gorm.DB, scope store.Scope) *gorm.DB {
	if scope.All {
		return tx
	}
	var (
		conds []string
		args  []interface{}
	)
	if scope.ManagerEmail != "" {
		conds = append(conds, "lower(manager_email) = ?")
		args = append(args, model.NormalizeEmail(scope.ManagerEmail))
	}
	if scope.DepartmentID != "" {
		conds = append(conds, "department_id = ?")
		args = append(args, scope.DepartmentID)
	}
	if scope.ParticipantEmail != "" {
		email := model.NormalizeEmail(scope.ParticipantEmail)
		conds = append(conds, "lower(outgoing_employee_email) = ?", "lower(incoming_employee_email) = ?")
		args = append(args, email, email)
	}
	if len(conds) == 0 {
		return tx.Where("1 = 0")
	}
	return tx.Where("("+strings.Join(conds, " OR ")+")", args...)
}

// ListForManager returns every handover managed by email
func (s *HandoversStore) ListForManager(ctx context.Context, managerEmail string) ([]model.Handover, error) {
	var handovers []model.Handover
	err := s.withRelations(ctx).
		Where("lower(manager_email) = ?", model.NormalizeEmail(managerEmail)).
		Order("due_date ASC NULLS LAST, title").
		Find(&handovers).Error
	if err != nil {
		return nil, fmt.Errorf("listing handovers for %s: %w", managerEmail, err)
	}
	return handovers, nil
}

func filtered(tx *gorm.DB, q store.HandoverQuery) *gorm.DB {
	tx = scoped(tx, q.Scope)
	if q.Status != "" {
		tx = tx.Where("status = ?", q.Status)
	}
	if q.DepartmentID != "" {
		tx = tx.Where("department_id = ?", q.DepartmentID)
	}
	if q.Search != "" {
		like := "%" + q.Search + "%"
		tx = tx.Where(
			"(title ILIKE ? OR outgoing_employee_name ILIKE ? OR incoming_employee_name ILIKE ? OR outgoing_employee_email ILIKE ? OR incoming_employee_email ILIKE ?)",
			like, like, like, like, like,
		)
	}
	return tx
}

// List returns handovers visible in q.Scope and the unpaged total
func (s *HandoversStore) List(ctx context.Context, q store.HandoverQuery) ([]model.Handover, int64, error) {
	var total int64
	if err := filtered(s.db.WithContext(ctx).Model(&model.Handover{}), q).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("counting handovers: %w", err)
	}

	tx := filtered(s.withRelations(ctx), q).Order("created_at DESC")
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}
	if q.Offset > 0 {
		tx = tx.Offset(q.Offset)
	}
	var handovers []model.Handover
	if err := tx.Find(&handovers).Error; err != nil {
		return nil, 0, fmt.Errorf("listing handovers: %w", err)
	}
	return handovers, total, nil
}

// Get returns a handover inside scope
func (s *HandoversStore) Get(ctx context.Context, id string, scope store.Scope) (*model.Handover, error) {
	if !model.IsUUID(id) {
		return nil, store.ErrNotFound
	}
	var h model.Handover
	err := scoped(s.withRelations(ctx), scope).Where("id = ?", id).First(&h).Error
	if err != nil {
		return nil, translate(err)
	}
	return &h, nil
}

// Create inserts h and seeds its progress rows from tasks
func (s *HandoversStore) Create(ctx context.Context, h *model.Handover, tasks model.TaskList) error {
	h.Normalize()
	if err := h.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalid, err)
	}

	if h.Status == model.StatusCompleted {
		s.markCompletion(h)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(h).Error; err != nil {
			return translate(err)
		}
		if len(tasks) == 0 {
			return nil
		}
		rows := (&model.Template{Tasks: tasks}).Progress(h.ID)
		if err := tx.Create(&rows).Error; err != nil {
			return translate(err)
		}
		return nil
	})
}

// Update applies patch to a handover inside scope
func (s *HandoversStore) Update(ctx context.Context, id string, scope store.Scope, patch store.HandoverPatch) (*model.Handover, error) {
	if !model.IsUUID(id) {
		return nil, store.ErrNotFound
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var h model.Handover
		if err := scoped(tx, scope).Where("id = ?", id).First(&h).Error; err != nil {
			return translate(err)
		}

		previous := h.Status
		patch.Apply(&h)
		h.Normalize()
		if err := h.Validate(); err != nil {
			return fmt.Errorf("%w: %v", store.ErrInvalid, err)
		}
		// the patched row must stay visible to the caller
		if !scope.Allows(&h) {
			return fmt.Errorf("%w: handover would leave your scope", store.ErrForbidden)
		}
		if h.Status != previous {
			s.markCompletion(&h)
		}
		return translate(tx.Omit(clause.Associations).Save(&h).Error)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id, store.Unrestricted)
}

// markCompletion keeps completed_at in step with a status change
func (s *HandoversStore) markCompletion(h *model.Handover) {
	if h.Status == model.StatusCompleted {
		now := s.now().UTC()
		h.CompletedAt = &now
		h.CompletionPercentage = 100
		return
	}
	h.CompletedAt = nil
}

// Delete removes a handover inside scope; its progress rows cascade
func (s *HandoversStore) Delete(ctx context.Context, id string, scope store.Scope) error {
	if !model.IsUUID(id) {
		return store.ErrNotFound
	}
	tx := scoped(s.db.WithContext(ctx), scope).Where("id = ?", id).Delete(&model.Handover{})
	if tx.Error != nil {
		return translate(tx.Error)
	}
	if tx.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// FindByExternalRef looks a handover up by its sheet reference
func (s *HandoversStore) FindByExternalRef(ctx context.Context, ref string) (*model.Handover, error) {
	var h model.Handover
	if err := s.db.WithContext(ctx).Where("external_ref = ?", ref).First(&h).Error; err != nil {
		return nil, translate(err)
	}
	return &h, nil
}

// Upsert inserts h or overwrites the row with the same external ref.
// Foreign keys the sheet doesn't carry are kept from the existing row.
func (s *HandoversStore) Upsert(ctx context.Context, h *model.Handover) (bool, error) {
	if h.ExternalRef == nil || *h.ExternalRef == "" {
		return false, fmt.Errorf("%w: external_ref is required", store.ErrInvalid)
	}
	h.Normalize()
	if err := h.Validate(); err != nil {
		return false, fmt.Errorf("%w: %v", store.ErrInvalid, err)
	}

	created := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.Handover
		err := tx.Where("external_ref = ?", *h.ExternalRef).First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			created = true
			if h.Status == model.StatusCompleted && h.CompletedAt == nil {
				s.markCompletion(h)
			}
			return translate(tx.Omit(clause.Associations).Create(h).Error)
		case err != nil:
			return err
		}

		h.ID = existing.ID
		h.CreatedAt = existing.CreatedAt
		keep := func(dst **string, src *string) {
			if *dst == nil {
				*dst = src
			}
		}
		keep(&h.OrganizationID, existing.OrganizationID)
		keep(&h.PlantID, existing.PlantID)
		keep(&h.DepartmentID, existing.DepartmentID)
		keep(&h.JobID, existing.JobID)
		keep(&h.TemplateID, existing.TemplateID)
		h.CompletedAt = existing.CompletedAt
		if h.Status != existing.Status {
			s.markCompletion(h)
		}
		return translate(tx.Omit(clause.Associations).Save(h).Error)
	})
	if err != nil {
		return false, fmt.Errorf("upserting handover %s: %w", *h.ExternalRef, err)
	}
	return created, nil
}
