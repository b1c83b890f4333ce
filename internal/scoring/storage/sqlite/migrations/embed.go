// Package migrations embeds the scoring schema migrations.
package migrations

import "embed"

// FS holds the ordered SQL migration files for the scoring database.
//
//go:embed *.sql
var FS embed.FS
