// Package sqlite embeds the goose migrations for the embedded SQLite backend.
// Timestamps are stored as unix microseconds and booleans as 0/1.
package sqlite

import "embed"

//go:embed *.sql
var Migrations embed.FS
