package migration

import "embed"

//go:embed sql/postgres/*.sql
var embeddedMigrations embed.FS

const migrationsDir = "sql/postgres"
