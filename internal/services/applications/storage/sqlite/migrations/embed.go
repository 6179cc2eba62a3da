package migrations

import "embed"

// FS contains embedded SQLite migrations for residency applications.
//
//go:embed *.sql
var FS embed.FS
