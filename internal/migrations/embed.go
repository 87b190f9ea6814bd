package migrations

import "embed"

// FS - SQL-миграции в формате golang-migrate (NNN_name.up.sql / .down.sql)
//
//go:embed *.sql
var FS embed.FS
