package schema

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retailcloud/retail-sdk/modules/core/domain/entities/tenant"
	"github.com/retailcloud/retail-sdk/pkg/configuration"
	"github.com/retailcloud/retail-sdk/pkg/constants"
)

// stubTx satisfies the repository executor interface so InTx joins it; the
// registry fake below never actually touches it.
type stubTx struct{}

func (stubTx) Query(context.Context, string, ...any) (pgx.Rows, error) {
	panic("unexpected database access")
}

func (stubTx) QueryRow(context.Context, string, ...any) pgx.Row {
	panic("unexpected database access")
}

func (stubTx) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	panic("unexpected database access")
}

type fakeRegistry struct {
	tenants []*tenant.Tenant
}

func (r *fakeRegistry) GetByID(_ context.Context, id uuid.UUID) (*tenant.Tenant, error) {
	for _, t := range r.tenants {
		if t.ID() == id {
			return t, nil
		}
	}
	return nil, tenant.ErrNotFound
}

func (r *fakeRegistry) GetBySlug(_ context.Context, slug string) (*tenant.Tenant, error) {
	for _, t := range r.tenants {
		if t.Slug() == slug {
			return t, nil
		}
	}
	return nil, tenant.ErrNotFound
}

func (r *fakeRegistry) GetByCustomDomain(_ context.Context, _ string) (*tenant.Tenant, error) {
	return nil, tenant.ErrNotFound
}

func (r *fakeRegistry) Create(_ context.Context, t *tenant.Tenant) (*tenant.Tenant, error) {
	r.tenants = append(r.tenants, t)
	return t, nil
}

func (r *fakeRegistry) Update(_ context.Context, t *tenant.Tenant) (*tenant.Tenant, error) {
	return t, nil
}

func (r *fakeRegistry) List(_ context.Context, _ *tenant.FindParams) ([]*tenant.Tenant, error) {
	return r.tenants, nil
}

func (r *fakeRegistry) SchemaNames(_ context.Context) ([]string, error) {
	names := make([]string, 0, len(r.tenants))
	for _, t := range r.tenants {
		names = append(names, t.SchemaName())
	}
	return names, nil
}

func testManager(t *testing.T) *Manager {
	t.Helper()
	conf := &configuration.Configuration{
		Tenancy: configuration.TenancyOptions{
			BackupDir: t.TempDir(),
		},
	}
	m := NewManager(nil, &fakeRegistry{}, conf, logrus.New())
	m.now = func() time.Time {
		return time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	}
	return m
}

func txCtx() context.Context {
	return context.WithValue(context.Background(), constants.TxKey, stubTx{})
}

func registeredTenant(t *testing.T, slug string, status tenant.Status) *tenant.Tenant {
	t.Helper()
	tn, err := tenant.New(slug, slug, tenant.WithStatus(status))
	require.NoError(t, err)
	return tn
}

func TestArtifactPath(t *testing.T) {
	m := testManager(t)

	first := m.artifactPath("tenant_acme")
	second := m.artifactPath("tenant_acme")
	assert.Equal(t, first, second)
	assert.Contains(t, first, "tenant_acme_20260314T092653Z.sql")
}

func TestArchive_RefusesLiveTenants(t *testing.T) {
	m := testManager(t)

	for _, status := range []tenant.Status{tenant.StatusActive, tenant.StatusTrial} {
		tn, err := tenant.New("Acme", "acme", tenant.WithStatus(status))
		require.NoError(t, err)

		err = m.Archive(context.Background(), tn)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrTenantActive, "status %s must refuse archival", status)
	}
}

func TestMigrateAll_PartialFailure(t *testing.T) {
	m := testManager(t)
	m.registry = &fakeRegistry{tenants: []*tenant.Tenant{
		registeredTenant(t, "good", tenant.StatusActive),
		registeredTenant(t, "bad", tenant.StatusTrial),
		registeredTenant(t, "parked", tenant.StatusSuspended),
	}}
	m.lock = func(_ context.Context, _ string, fn func() error) error {
		return fn()
	}

	var migrated []string
	m.apply = func(_ context.Context, schemaName, _ string) error {
		migrated = append(migrated, schemaName)
		if schemaName == "tenant_bad" {
			return ErrOperationFailed.WithDetails("schema %s", schemaName)
		}
		return nil
	}

	result, err := m.MigrateAll(txCtx())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Succeeded)
	assert.Equal(t, 1, result.Failed)
	assert.Contains(t, result.Errors, "tenant_bad")
	assert.ElementsMatch(t, []string{"tenant_good", "tenant_bad"}, migrated,
		"suspended tenants keep their schema untouched")
}

func TestCleanupOrphaned(t *testing.T) {
	newManager := func(t *testing.T) (*Manager, *[]string) {
		t.Helper()
		m := testManager(t)
		m.registry = &fakeRegistry{tenants: []*tenant.Tenant{
			registeredTenant(t, "kept", tenant.StatusActive),
		}}
		m.physical = func(_ context.Context) ([]string, error) {
			return []string{"tenant_kept", "tenant_orphan"}, nil
		}
		dropped := &[]string{}
		m.drop = func(_ context.Context, schemaName string) error {
			*dropped = append(*dropped, schemaName)
			return nil
		}
		return m, dropped
	}

	t.Run("orphans are backed up and dropped", func(t *testing.T) {
		m, dropped := newManager(t)
		var dumped []string
		m.dump = func(_ context.Context, schemaName string) (string, error) {
			dumped = append(dumped, schemaName)
			return m.artifactPath(schemaName), nil
		}

		result, err := m.CleanupOrphaned(txCtx())
		require.NoError(t, err)

		assert.Equal(t, 1, result.Succeeded)
		assert.Equal(t, 0, result.Failed)
		assert.Equal(t, []string{"tenant_orphan"}, dumped, "registered schemas are never touched")
		assert.Equal(t, []string{"tenant_orphan"}, *dropped)
	})

	t.Run("backup failure leaves the schema in place", func(t *testing.T) {
		m, dropped := newManager(t)
		m.dump = func(_ context.Context, schemaName string) (string, error) {
			return "", ErrOperationFailed.WithDetails("pg_dump failed for %s", schemaName)
		}

		result, err := m.CleanupOrphaned(txCtx())
		require.NoError(t, err)

		assert.Equal(t, 0, result.Succeeded)
		assert.Equal(t, 1, result.Failed)
		assert.Contains(t, result.Errors, "tenant_orphan")
		assert.Empty(t, *dropped, "a schema whose backup failed must not be dropped")
	})

	t.Run("drop failure is reported per schema", func(t *testing.T) {
		m, _ := newManager(t)
		m.dump = func(_ context.Context, schemaName string) (string, error) {
			return m.artifactPath(schemaName), nil
		}
		m.drop = func(_ context.Context, schemaName string) error {
			return ErrOperationFailed.WithDetails("schema %s", schemaName)
		}

		result, err := m.CleanupOrphaned(txCtx())
		require.NoError(t, err)

		assert.Equal(t, 0, result.Succeeded)
		assert.Equal(t, 1, result.Failed)
		assert.Contains(t, result.Errors, "tenant_orphan")
	})
}
