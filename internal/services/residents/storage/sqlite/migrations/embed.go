package migrations

import "embed"

// FS contains embedded SQLite migrations for resident storage.
//
//go:embed *.sql
var FS embed.FS
