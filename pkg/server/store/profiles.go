package store

import (
	"context"

	"github.com/doodlesbykumbi/handover-tracker/pkg/model"
)

// ProfilesStore abstracts user profile operations
type ProfilesStore interface {
	// ByEmail matches case-insensitively and returns ErrNotFound when absent.
	ByEmail(ctx context.Context, email string) (*model.UserProfile, error)
	List(ctx context.Context, opts ListOptions) ([]model.UserProfile, error)
	Get(ctx context.Context, id string) (*model.UserProfile, error)
	Create(ctx context.Context, p *model.UserProfile) error
	Update(ctx context.Context, id string, fields map[string]any) (*model.UserProfile, error)
	Delete(ctx context.Context, id string) error
}
