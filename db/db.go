// Package db embeds the SQL migrations so release builds carry their schema.
package db

import "embed"

//go:embed migrations/*.sql
var Migrations embed.FS
