package store

import (
	"context"

	"github.com/doodlesbykumbi/handover-tracker/pkg/model"
)

// Entity is a directory row managed through EntityStore.
type Entity interface {
	model.Organization | model.Plant | model.Department | model.Job | model.Template
}

// ListOptions filters directory listings. Parent matches the foreign key
// column named by the entity (organization_id for plants, plant_id for
// departments, department_id for jobs, job_id for templates).
type ListOptions struct {
	Parent string
	Search string
	Limit  int
	Offset int
}

// EntityStore provides CRUD for one directory table.
type EntityStore[T Entity] interface {
	List(ctx context.Context, opts ListOptions) ([]T, error)
	Get(ctx context.Context, id string) (*T, error)
	Create(ctx context.Context, v *T) error
	// Update sets the given columns and returns the updated row.
	Update(ctx context.Context, id string, fields map[string]any) (*T, error)
	Delete(ctx context.Context, id string) error
}

// DirectoryStore resolves names from the sheet into directory rows.
type DirectoryStore interface {
	DepartmentByName(ctx context.Context, name string) (*model.Department, error)
	PlantByName(ctx context.Context, name string) (*model.Plant, error)
}
