package gorm

import (
	"context"

	"gorm.io/gorm"

	"github.com/doodlesbykumbi/handover-tracker/pkg/model"
	"github.com/doodlesbykumbi/handover-tracker/pkg/server/store"
)

// Ensure ProfilesStore implements store.ProfilesStore
var _ store.ProfilesStore = (*ProfilesStore)(nil)

// ProfilesStore implements store.ProfilesStore using GORM
type ProfilesStore struct {
	db *gorm.DB
}

// NewProfilesStore creates a new ProfilesStore
func NewProfilesStore(db *gorm.DB) *ProfilesStore {
	return &ProfilesStore{db: db}
}

// ByEmail looks a profile up case-insensitively
func (s *ProfilesStore) ByEmail(ctx context.Context, email string) (*model.UserProfile, error) {
	var p model.UserProfile
	err := s.db.WithContext(ctx).Where("lower(email) = ?", model.NormalizeEmail(email)).First(&p).Error
	if err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (s *ProfilesStore) List(ctx context.Context, opts store.ListOptions) ([]model.UserProfile, error) {
	tx := s.db.WithContext(ctx)
	if opts.Parent != "" {
		tx = tx.Where("department_id = ?", opts.Parent)
	}
	if opts.Search != "" {
		like := "%" + opts.Search + "%"
		tx = tx.Where("(email ILIKE ? OR full_name ILIKE ?)", like, like)
	}
	if opts.Limit > 0 {
		tx = tx.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		tx = tx.Offset(opts.Offset)
	}
	profiles := []model.UserProfile{}
	if err := tx.Order("email").Find(&profiles).Error; err != nil {
		return nil, translate(err)
	}
	return profiles, nil
}

func (s *ProfilesStore) Get(ctx context.Context, id string) (*model.UserProfile, error) {
	if !model.IsUUID(id) {
		return nil, store.ErrNotFound
	}
	var p model.UserProfile
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (s *ProfilesStore) Create(ctx context.Context, p *model.UserProfile) error {
	return translate(s.db.WithContext(ctx).Create(p).Error)
}

func (s *ProfilesStore) Update(ctx context.Context, id string, fields map[string]any) (*model.UserProfile, error) {
	if !model.IsUUID(id) {
		return nil, store.ErrNotFound
	}
	if len(fields) > 0 {
		tx := s.db.WithContext(ctx).Model(&model.UserProfile{}).Where("id = ?", id).Updates(fields)
		if tx.Error != nil {
			return nil, translate(tx.Error)
		}
		if tx.RowsAffected == 0 {
			return nil, store.ErrNotFound
		}
	}
	return s.Get(ctx, id)
}

func (s *ProfilesStore) Delete(ctx context.Context, id string) error {
	if !model.IsUUID(id) {
		return store.ErrNotFound
	}
	tx := s.db.WithContext(ctx).Where("id = ?", id).Delete(&model.UserProfile{})
	if tx.Error != nil {
		return translate(tx.Error)
	}
	if tx.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}
