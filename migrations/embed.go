// Package migrations ships the schema. Files are written in the Postgres
// dialect; the SQLite store translates them on the way in.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
