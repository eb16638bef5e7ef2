package schema

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pressly/goose/v3"
	"github.com/sirupsen/logrus"

	"github.com/retailcloud/retail-sdk/modules/core/domain/entities/tenant"
	"github.com/retailcloud/retail-sdk/pkg/composables"
	"github.com/retailcloud/retail-sdk/pkg/configuration"
	"github.com/retailcloud/retail-sdk/pkg/metrics"
	"github.com/retailcloud/retail-sdk/pkg/serrors"

	_ "github.com/jackc/pgx/v5/stdlib"
)

var (
	// ErrOperationFailed wraps any structural failure on a tenant partition.
	ErrOperationFailed = serrors.NewError("PARTITION_OPERATION_FAILED", "schema operation failed", "")
	// ErrSchemaBusy is returned when another structural operation holds the
	// schema's advisory lock. Contention is refused, never queued.
	ErrSchemaBusy = serrors.NewError("PARTITION_BUSY", "schema operation already in progress", "")
	// ErrTenantActive guards archival: live tenants keep their schema.
	ErrTenantActive = serrors.NewError("TENANT_STILL_ACTIVE", "cannot archive an active tenant", "")
)

// BulkResult reports the outcome of a fleet-wide migration run. A failed
// schema never aborts the run; its error is recorded and the run continues.
type BulkResult struct {
	Succeeded int
	Failed    int
	Errors    map[string]error
}

// Stats describes the physical footprint of one tenant schema.
type Stats struct {
	Schema     string
	TableCount int
	TotalBytes int64
}

// Manager owns the physical lifecycle of tenant schemas. Registry state
// changes (status flips on archive) go through the tenant repository inside
// the same logical operation.
type Manager struct {
	pool     *pgxpool.Pool
	registry tenant.Repository
	conf     *configuration.Configuration
	logger   *logrus.Logger

	// The physical steps are function fields, like now, so tests can swap
	// them for fakes without a database.
	now      func() time.Time
	dump     func(ctx context.Context, schemaName string) (string, error)
	apply    func(ctx context.Context, schemaName, dir string) error
	drop     func(ctx context.Context, schemaName string) error
	lock     func(ctx context.Context, schemaName string, fn func() error) error
	physical func(ctx context.Context) ([]string, error)

	// goose keeps package-level state (base FS, dialect), so migration runs
	// are serialized process-wide.
	gooseMu sync.Mutex
}

func NewManager(pool *pgxpool.Pool, registry tenant.Repository, conf *configuration.Configuration, logger *logrus.Logger) *Manager {
	m := &Manager{
		pool:     pool,
		registry: registry,
		conf:     conf,
		logger:   logger,
		now:      time.Now,
	}
	m.dump = m.pgDump
	m.apply = m.migrateSchema
	m.drop = m.dropSchema
	m.lock = m.withSchemaLock
	m.physical = m.physicalSchemaNames
	return m
}

// Create provisions the tenant's schema and runs the full tenant migration
// set. If any migration fails the schema is dropped again: a tenant either
// gets a complete partition or none at all.
func (m *Manager) Create(ctx context.Context, t *tenant.Tenant) error {
	start := m.now()
	schemaName := t.SchemaName()
	if !tenant.IsTenantSchema(schemaName) {
		return ErrOperationFailed.WithDetails("refusing to create non-tenant schema %q", schemaName)
	}

	if _, err := m.pool.Exec(ctx, "CREATE SCHEMA IF NOT EXISTS "+pgx.Identifier{schemaName}.Sanitize()); err != nil {
		metrics.ObserveSchemaOperation("create", "error", m.now().Sub(start).Seconds())
		return errors.Wrap(err, "failed to create schema")
	}

	if err := m.apply(ctx, schemaName, tenantMigrationsDir); err != nil {
		m.logger.WithField("schema", schemaName).WithError(err).Error("tenant migration failed, dropping partial schema")
		if dropErr := m.drop(ctx, schemaName); dropErr != nil {
			m.logger.WithField("schema", schemaName).WithError(dropErr).Error("failed to drop partial schema")
		}
		metrics.ObserveSchemaOperation("create", "error", m.now().Sub(start).Seconds())
		return ErrOperationFailed.WithDetails("migration failed for %s: %v", schemaName, err)
	}

	metrics.ObserveSchemaOperation("create", "ok", m.now().Sub(start).Seconds())
	m.logger.WithField("schema", schemaName).Info("tenant schema created")
	return nil
}

// MigrateRegistry brings the shared public tables up to date.
func (m *Manager) MigrateRegistry(ctx context.Context) error {
	return m.apply(ctx, "public", registryMigrationsDir)
}

// Migrate runs pending tenant migrations against one schema under its
// advisory lock.
func (m *Manager) Migrate(ctx context.Context, schemaName string) error {
	start := m.now()
	err := m.lock(ctx, schemaName, func() error {
		return m.apply(ctx, schemaName, tenantMigrationsDir)
	})
	if err != nil {
		metrics.ObserveSchemaOperation("migrate", "error", m.now().Sub(start).Seconds())
		return err
	}
	metrics.ObserveSchemaOperation("migrate", "ok", m.now().Sub(start).Seconds())
	return nil
}

// MigrateAll migrates the schema of every live (trial or active) tenant.
// Partial failure is expected and reported per schema; one broken tenant
// never blocks the fleet.
func (m *Manager) MigrateAll(ctx context.Context) (*BulkResult, error) {
	names, err := m.liveSchemaNames(ctx)
	if err != nil {
		return nil, err
	}

	result := &BulkResult{Errors: map[string]error{}}
	for _, name := range names {
		if err := m.Migrate(ctx, name); err != nil {
			m.logger.WithField("schema", name).WithError(err).Error("bulk migration failed for schema")
			result.Failed++
			result.Errors[name] = err
			continue
		}
		result.Succeeded++
	}
	return result, nil
}

// Backup dumps one schema to a timestamped artifact and returns its path.
func (m *Manager) Backup(ctx context.Context, schemaName string) (string, error) {
	start := m.now()
	path, err := m.dump(ctx, schemaName)
	if err != nil {
		metrics.ObserveSchemaOperation("backup", "error", m.now().Sub(start).Seconds())
		return "", err
	}
	metrics.ObserveSchemaOperation("backup", "ok", m.now().Sub(start).Seconds())
	return path, nil
}

func (m *Manager) pgDump(ctx context.Context, schemaName string) (string, error) {
	if err := os.MkdirAll(m.conf.Tenancy.BackupDir, 0o755); err != nil {
		return "", errors.Wrap(err, "failed to create backup directory")
	}
	path := m.artifactPath(schemaName)

	cmd := exec.CommandContext(
		ctx,
		m.conf.Tenancy.PgDumpPath,
		"--schema", schemaName,
		"--format", "plain",
		"--file", path,
		m.conf.Database.ConnectionString(),
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", ErrOperationFailed.WithDetails("pg_dump failed for %s: %v: %s", schemaName, err, out)
	}
	m.logger.WithFields(logrus.Fields{"schema": schemaName, "artifact": path}).Info("schema backup written")
	return path, nil
}

// Restore drops the schema and replays a previously taken artifact.
func (m *Manager) Restore(ctx context.Context, schemaName, artifact string) error {
	start := m.now()
	err := m.lock(ctx, schemaName, func() error {
		if _, err := os.Stat(artifact); err != nil {
			return ErrOperationFailed.WithDetails("backup artifact %s not readable: %v", artifact, err)
		}
		if err := m.drop(ctx, schemaName); err != nil {
			return errors.Wrap(err, "failed to drop schema before restore")
		}
		cmd := exec.CommandContext(
			ctx,
			m.conf.Tenancy.PsqlPath,
			"--single-transaction",
			"--file", artifact,
			m.conf.Database.ConnectionString(),
		)
		if out, err := cmd.CombinedOutput(); err != nil {
			return ErrOperationFailed.WithDetails("psql restore failed for %s: %v: %s", schemaName, err, out)
		}
		return nil
	})
	if err != nil {
		metrics.ObserveSchemaOperation("restore", "error", m.now().Sub(start).Seconds())
		return err
	}
	metrics.ObserveSchemaOperation("restore", "ok", m.now().Sub(start).Seconds())
	m.logger.WithFields(logrus.Fields{"schema": schemaName, "artifact": artifact}).Info("schema restored")
	return nil
}

// Archive backs the tenant's schema up, drops it, and marks the tenant
// archived. Active tenants are refused outright, and a failed backup aborts
// before anything is dropped.
func (m *Manager) Archive(ctx context.Context, t *tenant.Tenant) error {
	start := m.now()
	if t.Status() == tenant.StatusActive || t.Status() == tenant.StatusTrial {
		return ErrTenantActive.WithDetails("tenant %s has status %s", t.Slug(), t.Status())
	}

	schemaName := t.SchemaName()
	err := m.lock(ctx, schemaName, func() error {
		if _, err := m.dump(ctx, schemaName); err != nil {
			return err
		}
		if err := m.drop(ctx, schemaName); err != nil {
			return errors.Wrap(err, "failed to drop schema")
		}
		ctx = composables.WithPool(ctx, m.pool)
		return composables.InTx(ctx, func(txCtx context.Context) error {
			t.SetStatus(tenant.StatusArchived)
			_, err := m.registry.Update(txCtx, t)
			return err
		})
	})
	if err != nil {
		metrics.ObserveSchemaOperation("archive", "error", m.now().Sub(start).Seconds())
		return err
	}
	metrics.ObserveSchemaOperation("archive", "ok", m.now().Sub(start).Seconds())
	m.logger.WithField("schema", schemaName).Info("tenant archived")
	return nil
}

// CleanupOrphaned finds tenant_% schemas with no registry row. Every orphan
// is backed up first; a schema whose backup fails is reported and left in
// place.
func (m *Manager) CleanupOrphaned(ctx context.Context) (*BulkResult, error) {
	registered, err := m.registrySchemaNames(ctx)
	if err != nil {
		return nil, err
	}
	known := make(map[string]bool, len(registered))
	for _, name := range registered {
		known[name] = true
	}

	physical, err := m.physical(ctx)
	if err != nil {
		return nil, err
	}

	result := &BulkResult{Errors: map[string]error{}}
	for _, name := range physical {
		if known[name] {
			continue
		}
		if _, err := m.dump(ctx, name); err != nil {
			m.logger.WithField("schema", name).WithError(err).Error("orphan backup failed, schema left untouched")
			result.Failed++
			result.Errors[name] = err
			continue
		}
		if err := m.drop(ctx, name); err != nil {
			result.Failed++
			result.Errors[name] = errors.Wrap(err, "failed to drop orphaned schema")
			continue
		}
		m.logger.WithField("schema", name).Warn("orphaned schema dropped after backup")
		result.Succeeded++
	}
	return result, nil
}

// SchemaStats reports table count and on-disk size for one schema.
func (m *Manager) SchemaStats(ctx context.Context, schemaName string) (*Stats, error) {
	stats := &Stats{Schema: schemaName}
	if err := m.pool.QueryRow(
		ctx,
		`SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = $1`,
		schemaName,
	).Scan(&stats.TableCount); err != nil {
		return nil, errors.Wrap(err, "failed to count tables")
	}
	if err := m.pool.QueryRow(
		ctx,
		`SELECT COALESCE(SUM(pg_total_relation_size(quote_ident(schemaname) || '.' || quote_ident(tablename))), 0)
		 FROM pg_tables WHERE schemaname = $1`,
		schemaName,
	).Scan(&stats.TotalBytes); err != nil {
		return nil, errors.Wrap(err, "failed to measure schema size")
	}
	return stats, nil
}

func (m *Manager) artifactPath(schemaName string) string {
	stamp := m.now().UTC().Format("20060102T150405Z")
	return filepath.Join(m.conf.Tenancy.BackupDir, fmt.Sprintf("%s_%s.sql", schemaName, stamp))
}

func (m *Manager) dropSchema(ctx context.Context, schemaName string) error {
	_, err := m.pool.Exec(ctx, "DROP SCHEMA IF EXISTS "+pgx.Identifier{schemaName}.Sanitize()+" CASCADE")
	return err
}

// withSchemaLock holds a session advisory lock for the duration of a
// structural operation. A second caller gets ErrSchemaBusy immediately.
func (m *Manager) withSchemaLock(ctx context.Context, schemaName string, fn func() error) error {
	conn, err := m.pool.Acquire(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to acquire connection for schema lock")
	}
	defer conn.Release()

	var locked bool
	if err := conn.QueryRow(ctx, `SELECT pg_try_advisory_lock(hashtext($1))`, schemaName).Scan(&locked); err != nil {
		return errors.Wrap(err, "failed to take schema lock")
	}
	if !locked {
		return ErrSchemaBusy.WithDetails("schema %s", schemaName)
	}
	defer func() {
		if _, err := conn.Exec(ctx, `SELECT pg_advisory_unlock(hashtext($1))`, schemaName); err != nil {
			m.logger.WithField("schema", schemaName).WithError(err).Error("failed to release schema lock")
		}
	}()

	return fn()
}

// migrateSchema opens a short-lived database/sql connection whose DSN pins
// search_path to the target schema and runs goose against it.
func (m *Manager) migrateSchema(ctx context.Context, schemaName, dir string) error {
	m.gooseMu.Lock()
	defer m.gooseMu.Unlock()

	db, err := sql.Open("pgx", m.conf.Database.SchemaConnectionString(schemaName))
	if err != nil {
		return errors.Wrap(err, "failed to open migration connection")
	}
	defer func() {
		if err := db.Close(); err != nil {
			m.logger.WithError(err).Error("failed to close migration connection")
		}
	}()

	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(m.logger)
	if err := goose.SetDialect("postgres"); err != nil {
		return errors.Wrap(err, "failed to set migration dialect")
	}
	if err := goose.UpContext(ctx, db, dir); err != nil {
		return errors.Wrap(err, "migrations failed")
	}
	return nil
}

func (m *Manager) registrySchemaNames(ctx context.Context) ([]string, error) {
	ctx = composables.WithPool(ctx, m.pool)
	return composables.InTxResult(ctx, func(txCtx context.Context) ([]string, error) {
		return m.registry.SchemaNames(txCtx)
	})
}

// liveSchemaNames returns the schemas of tenants whose status admits
// traffic. Suspended and archived tenants keep their schema untouched.
func (m *Manager) liveSchemaNames(ctx context.Context) ([]string, error) {
	ctx = composables.WithPool(ctx, m.pool)
	tenants, err := composables.InTxResult(ctx, func(txCtx context.Context) ([]*tenant.Tenant, error) {
		return m.registry.List(txCtx, &tenant.FindParams{})
	})
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(tenants))
	for _, t := range tenants {
		if t.Status().Usable() {
			names = append(names, t.SchemaName())
		}
	}
	return names, nil
}

func (m *Manager) physicalSchemaNames(ctx context.Context) ([]string, error) {
	rows, err := m.pool.Query(
		ctx,
		`SELECT schema_name FROM information_schema.schemata WHERE schema_name LIKE 'tenant\_%'`,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list physical schemas")
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errors.Wrap(err, "failed to scan schema name")
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
