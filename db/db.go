// Package db embeds the SQL migrations.
package db

import "embed"

// Migrations holds migrations/<driver>/<version>_<name>.{up,down}.sql for
// golang-migrate, with one directory per database driver: postgres, mysql
// and sqlite3.
//
//go:embed migrations
var Migrations embed.FS
