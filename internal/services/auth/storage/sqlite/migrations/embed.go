package migrations

import "embed"

// FS contains embedded SQLite migrations for auth state storage.
//
//go:embed *.sql
var FS embed.FS
