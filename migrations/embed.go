// Package migrations embeds the SQL schema migrations into the binary so an
// appliance image needs no loose SQL files on disk.
package migrations

import "embed"

// FS holds the embedded migration files, applied on startup via db.Migrate.
//
//go:embed *.sql
var FS embed.FS
