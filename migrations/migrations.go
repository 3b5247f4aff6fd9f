// Package migrations embeds the SQL schema for every supported driver.
package migrations

import "embed"

// Directories inside FS.
const (
	SQLiteDir   = "sqlite"
	PostgresDir = "postgres"
)

// FS holds golang-migrate files under SQLiteDir and PostgresDir.
//
//go:embed sqlite/*.sql postgres/*.sql
var FS embed.FS
