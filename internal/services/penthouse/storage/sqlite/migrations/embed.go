package migrations

import "embed"

// FS contains embedded SQLite migrations for penthouse storage.
//
//go:embed *.sql
var FS embed.FS
