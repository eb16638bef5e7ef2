package schema

import (
	"embed"
)

// Two migration sets: one for the shared public registry, one replayed into
// every tenant schema. The goose version table lands inside the schema being
// migrated because the connection pins search_path in its DSN.
//
//go:embed migrations/registry/*.sql migrations/tenant/*.sql
var migrationsFS embed.FS

const (
	registryMigrationsDir = "migrations/registry"
	tenantMigrationsDir   = "migrations/tenant"
)
