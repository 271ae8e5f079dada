package gorm

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/doodlesbykumbi/handover-tracker/pkg/model"
	"github.com/doodlesbykumbi/handover-tracker/pkg/server/store"
)

var (
	_ store.EntityStore[model.Organization] = (*EntityStore[model.Organization])(nil)
	_ store.EntityStore[model.Template]     = (*EntityStore[model.Template])(nil)
	_ store.DirectoryStore                  = (*DirectoryStore)(nil)
)

// EntityStore implements store.EntityStore for one directory table
type EntityStore[T store.Entity] struct {
	db     *gorm.DB
	parent string
	order  string
}

func newEntityStore[T store.Entity](db *gorm.DB, parent, order string) *EntityStore[T] {
	return &EntityStore[T]{db: db, parent: parent, order: order}
}

func NewOrganizationsStore(db *gorm.DB) *EntityStore[model.Organization] {
	return newEntityStore[model.Organization](db, "", "name")
}

func NewPlantsStore(db *gorm.DB) *EntityStore[model.Plant] {
	return newEntityStore[model.Plant](db, "organization_id", "name")
}

func NewDepartmentsStore(db *gorm.DB) *EntityStore[model.Department] {
	return newEntityStore[model.Department](db, "plant_id", "name")
}

func NewJobsStore(db *gorm.DB) *EntityStore[model.Job] {
	return newEntityStore[model.Job](db, "department_id", "title")
}

func NewTemplatesStore(db *gorm.DB) *EntityStore[model.Template] {
	return newEntityStore[model.Template](db, "job_id", "name")
}

// List returns rows ordered by name, optionally filtered by parent and a name search
func (s *EntityStore[T]) List(ctx context.Context, opts store.ListOptions) ([]T, error) {
	tx := s.db.WithContext(ctx)
	if opts.Parent != "" {
		if s.parent == "" {
			return nil, fmt.Errorf("%w: listing has no parent filter", store.ErrInvalid)
		}
		if !model.IsUUID(opts.Parent) {
			return []T{}, nil
		}
		tx = tx.Where(s.parent+" = ?", opts.Parent)
	}
	if opts.Search != "" {
		tx = tx.Where(s.order+" ILIKE ?", "%"+opts.Search+"%")
	}
	if opts.Limit > 0 {
		tx = tx.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		tx = tx.Offset(opts.Offset)
	}

	rows := []T{}
	if err := tx.Order(s.order).Find(&rows).Error; err != nil {
		return nil, translate(err)
	}
	return rows, nil
}

// Get returns store.ErrNotFound for unknown IDs
func (s *EntityStore[T]) Get(ctx context.Context, id string) (*T, error) {
	if !model.IsUUID(id) {
		return nil, store.ErrNotFound
	}
	var v T
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&v).Error; err != nil {
		return nil, translate(err)
	}
	return &v, nil
}

func (s *EntityStore[T]) Create(ctx context.Context, v *T) error {
	return translate(s.db.WithContext(ctx).Create(v).Error)
}

// Update sets fields on the row and returns it
func (s *EntityStore[T]) Update(ctx context.Context, id string, fields map[string]any) (*T, error) {
	if !model.IsUUID(id) {
		return nil, store.ErrNotFound
	}
	if len(fields) > 0 {
		tx := s.db.WithContext(ctx).Model(new(T)).Where("id = ?", id).Updates(fields)
		if tx.Error != nil {
			return nil, translate(tx.Error)
		}
		if tx.RowsAffected == 0 {
			return nil, store.ErrNotFound
		}
	}
	return s.Get(ctx, id)
}

func (s *EntityStore[T]) Delete(ctx context.Context, id string) error {
	if !model.IsUUID(id) {
		return store.ErrNotFound
	}
	tx := s.db.WithContext(ctx).Where("id = ?", id).Delete(new(T))
	if tx.Error != nil {
		return translate(tx.Error)
	}
	if tx.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DirectoryStore implements store.DirectoryStore using GORM
type DirectoryStore struct {
	db *gorm.DB
}

func NewDirectoryStore(db *gorm.DB) *DirectoryStore {
	return &DirectoryStore{db: db}
}

// DepartmentByName matches case-insensitively; the oldest row wins on duplicates
func (s *DirectoryStore) DepartmentByName(ctx context.Context, name string) (*model.Department, error) {
	var d model.Department
	err := s.db.WithContext(ctx).Where("lower(name) = lower(?)", name).Order("created_at").First(&d).Error
	if err != nil {
		return nil, translate(err)
	}
	return &d, nil
}

// PlantByName matches case-insensitively; the oldest row wins on duplicates
func (s *DirectoryStore) PlantByName(ctx context.Context, name string) (*model.Plant, error) {
	var p model.Plant
	err := s.db.WithContext(ctx).Where("lower(name) = lower(?)", name).Order("created_at").First(&p).Error
	if err != nil {
		return nil, translate(err)
	}
	return &p, nil
}
