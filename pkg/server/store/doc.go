// Package store defines the storage interfaces the HTTP endpoints depend on.
//
// Endpoints only see these interfaces, so they can be tested against
// testify mocks while pkg/server/store/gorm provides the Postgres-backed
// implementations.
//
// # Available Stores
//
//   - HandoversStore: handover records and the sheet sync upsert
//   - ProgressStore: per-task progress and the completion roll-up
//   - EntityStore: generic CRUD for the directory tables and templates
//   - DirectoryStore: name lookups used by the sheet sync
//   - ProfilesStore: user profiles and roles
//   - HealthStore: database connectivity
//
// # Errors
//
// Implementations return the sentinel errors below, wrapped with context:
//
//	h, err := handovers.Get(ctx, id, scope)
//	if errors.Is(err, store.ErrNotFound) {
//	    // 404
//	}
package store
