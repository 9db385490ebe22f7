package trace

import "embed"

// sqlSchemas is the embedded migration set for the cycle-trace database,
// applied by applyMigrations through golang-migrate's httpfs source.
//
//go:embed migrations/*.sql
var sqlSchemas embed.FS
