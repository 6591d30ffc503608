// Package migrations embeds the SQL migrations for the SQLite state store.
package migrations

import "embed"

// FS holds the embedded SQL migration files.
//
//go:embed *.sql
var FS embed.FS
