// Package gorm provides GORM-based implementations of the store interfaces
// defined in the parent store package.
//
// Postgres errors are translated into the store sentinels: missing rows
// become store.ErrNotFound, unique violations store.ErrConflict, and
// foreign key or check violations store.ErrInvalid.
package gorm
