package endpoints

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/doodlesbykumbi/handover-tracker/pkg/model"
	"github.com/doodlesbykumbi/handover-tracker/pkg/server/store"
)

// MockHandoversStore implements store.HandoversStore for testing using testify/mock
type MockHandoversStore struct {
	mock.Mock
}

func (m *MockHandoversStore) ListForManager(ctx context.Context, managerEmail string) ([]model.Handover, error) {
	args := m.Called(ctx, managerEmail)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Handover), args.Error(1)
}

func (m *MockHandoversStore) List(ctx context.Context, q store.HandoverQuery) ([]model.Handover, int64, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]model.Handover), args.Get(1).(int64), args.Error(2)
}

func (m *MockHandoversStore) Get(ctx context.Context, id string, scope store.Scope) (*model.Handover, error) {
	args := m.Called(ctx, id, scope)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Handover), args.Error(1)
}

func (m *MockHandoversStore) Create(ctx context.Context, h *model.Handover, tasks model.TaskList) error {
	args := m.Called(ctx, h, tasks)
	return args.Error(0)
}

func (m *MockHandoversStore) Update(ctx context.Context, id string, scope store.Scope, patch store.HandoverPatch) (*model.Handover, error) {
	args := m.Called(ctx, id, scope, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Handover), args.Error(1)
}

func (m *MockHandoversStore) Delete(ctx context.Context, id string, scope store.Scope) error {
	args := m.Called(ctx, id, scope)
	return args.Error(0)
}

func (m *MockHandoversStore) FindByExternalRef(ctx context.Context, ref string) (*model.Handover, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Handover), args.Error(1)
}

func (m *MockHandoversStore) Upsert(ctx context.Context, h *model.Handover) (bool, error) {
	args := m.Called(ctx, h)
	return args.Bool(0), args.Error(1)
}

// MockProgressStore implements store.ProgressStore for testing using testify/mock
type MockProgressStore struct {
	mock.Mock
}

func (m *MockProgressStore) ListForHandover(ctx context.Context, handoverID string) ([]model.HandoverProgress, error) {
	args := m.Called(ctx, handoverID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.HandoverProgress), args.Error(1)
}

func (m *MockProgressStore) SummaryForHandovers(ctx context.Context, handoverIDs []string) (map[string]model.TaskSummary, error) {
	args := m.Called(ctx, handoverIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]model.TaskSummary), args.Error(1)
}

func (m *MockProgressStore) Add(ctx context.Context, p *model.HandoverProgress) (*store.ProgressUpdate, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.ProgressUpdate), args.Error(1)
}

func (m *MockProgressStore) Update(ctx context.Context, handoverID, progressID string, patch store.ProgressPatch) (*store.ProgressUpdate, error) {
	args := m.Called(ctx, handoverID, progressID, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.ProgressUpdate), args.Error(1)
}

// MockProfilesStore implements store.ProfilesStore for testing using testify/mock
type MockProfilesStore struct {
	mock.Mock
}

func (m *MockProfilesStore) ByEmail(ctx context.Context, email string) (*model.UserProfile, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UserProfile), args.Error(1)
}

func (m *MockProfilesStore) List(ctx context.Context, opts store.ListOptions) ([]model.UserProfile, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.UserProfile), args.Error(1)
}

func (m *MockProfilesStore) Get(ctx context.Context, id string) (*model.UserProfile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UserProfile), args.Error(1)
}

func (m *MockProfilesStore) Create(ctx context.Context, p *model.UserProfile) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockProfilesStore) Update(ctx context.Context, id string, fields map[string]any) (*model.UserProfile, error) {
	args := m.Called(ctx, id, fields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UserProfile), args.Error(1)
}

func (m *MockProfilesStore) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockEntityStore implements store.EntityStore for testing using testify/mock
type MockEntityStore[T store.Entity] struct {
	mock.Mock
}

func (m *MockEntityStore[T]) List(ctx context.Context, opts store.ListOptions) ([]T, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]T), args.Error(1)
}

func (m *MockEntityStore[T]) Get(ctx context.Context, id string) (*T, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*T), args.Error(1)
}

func (m *MockEntityStore[T]) Create(ctx context.Context, v *T) error {
	args := m.Called(ctx, v)
	return args.Error(0)
}

func (m *MockEntityStore[T]) Update(ctx context.Context, id string, fields map[string]any) (*T, error) {
	args := m.Called(ctx, id, fields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*T), args.Error(1)
}

func (m *MockEntityStore[T]) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockDirectoryStore implements store.DirectoryStore for testing using testify/mock
type MockDirectoryStore struct {
	mock.Mock
}

func (m *MockDirectoryStore) DepartmentByName(ctx context.Context, name string) (*model.Department, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Department), args.Error(1)
}

func (m *MockDirectoryStore) PlantByName(ctx context.Context, name string) (*model.Plant, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Plant), args.Error(1)
}

// MockHealthStore implements store.HealthStore for testing using testify/mock
type MockHealthStore struct {
	mock.Mock
}

func (m *MockHealthStore) CheckConnectivity(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

var (
	_ store.HandoversStore              = (*MockHandoversStore)(nil)
	_ store.ProgressStore               = (*MockProgressStore)(nil)
	_ store.ProfilesStore               = (*MockProfilesStore)(nil)
	_ store.EntityStore[model.Template] = (*MockEntityStore[model.Template])(nil)
	_ store.DirectoryStore              = (*MockDirectoryStore)(nil)
	_ store.HealthStore                 = (*MockHealthStore)(nil)
)
