// Package migrations embeds the SQL schema for every supported driver.
package migrations

import "embed"

// FS holds driver directories ("postgres", "sqlite3") with golang-migrate files.
//
//go:embed postgres/*.sql sqlite3/*.sql
var FS embed.FS
