package persistence

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/retailcloud/retail-sdk/modules/core/domain/entities/tenant"
	"github.com/retailcloud/retail-sdk/modules/core/infrastructure/persistence/models"
	"github.com/retailcloud/retail-sdk/pkg/composables"
	"github.com/retailcloud/retail-sdk/pkg/mapping"
)

const (
	tenantFindQuery = `
		SELECT id, name, slug, schema_name, custom_domain, status, owner_id,
		       max_users, max_stores, features, trial_ends_at, created_at, updated_at
		FROM tenants`

	tenantInsertQuery = `
		INSERT INTO tenants (id, name, slug, schema_name, custom_domain, status, owner_id,
		                     max_users, max_stores, features, trial_ends_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id`

	tenantUpdateQuery = `
		UPDATE tenants
		SET name = $1, custom_domain = $2, status = $3, owner_id = $4,
		    max_users = $5, max_stores = $6, features = $7, trial_ends_at = $8, updated_at = $9
		WHERE id = $10
		RETURNING id`

	tenantSchemaNamesQuery = `SELECT schema_name FROM tenants`
)

type PgTenantRepository struct{}

func NewTenantRepository() tenant.Repository {
	return &PgTenantRepository{}
}

func (r *PgTenantRepository) GetByID(ctx context.Context, id uuid.UUID) (*tenant.Tenant, error) {
	return r.queryOne(ctx, tenantFindQuery+" WHERE id = $1", id.String())
}

func (r *PgTenantRepository) GetBySlug(ctx context.Context, slug string) (*tenant.Tenant, error) {
	return r.queryOne(ctx, tenantFindQuery+" WHERE slug = $1", slug)
}

func (r *PgTenantRepository) GetByCustomDomain(ctx context.Context, domain string) (*tenant.Tenant, error) {
	return r.queryOne(ctx, tenantFindQuery+" WHERE custom_domain = $1", domain)
}

func (r *PgTenantRepository) Create(ctx context.Context, t *tenant.Tenant) (*tenant.Tenant, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	features, err := toTenantFeatures(t)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode tenant features")
	}

	var ownerID *string
	if t.OwnerID() != uuid.Nil {
		s := t.OwnerID().String()
		ownerID = &s
	}

	var idStr string
	if err := tx.QueryRow(
		ctx,
		tenantInsertQuery,
		t.ID().String(),
		t.Name(),
		t.Slug(),
		t.SchemaName(),
		mapping.ValueToSQLNullString(t.CustomDomain()),
		string(t.Status()),
		mapping.PointerToSQLNullString(ownerID),
		t.Quotas().MaxUsers,
		t.Quotas().MaxStores,
		features,
		t.TrialEndsAt(),
		t.CreatedAt(),
		t.UpdatedAt(),
	).Scan(&idStr); err != nil {
		return nil, errors.Wrap(err, "failed to insert tenant")
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *PgTenantRepository) Update(ctx context.Context, t *tenant.Tenant) (*tenant.Tenant, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	features, err := toTenantFeatures(t)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode tenant features")
	}

	var ownerID *string
	if t.OwnerID() != uuid.Nil {
		s := t.OwnerID().String()
		ownerID = &s
	}

	var idStr string
	if err := tx.QueryRow(
		ctx,
		tenantUpdateQuery,
		t.Name(),
		mapping.ValueToSQLNullString(t.CustomDomain()),
		string(t.Status()),
		mapping.PointerToSQLNullString(ownerID),
		t.Quotas().MaxUsers,
		t.Quotas().MaxStores,
		features,
		t.TrialEndsAt(),
		t.UpdatedAt(),
		t.ID().String(),
	).Scan(&idStr); err != nil {
		return nil, errors.Wrap(err, "failed to update tenant")
	}

	return r.GetByID(ctx, t.ID())
}

func (r *PgTenantRepository) List(ctx context.Context, params *tenant.FindParams) ([]*tenant.Tenant, error) {
	query := tenantFindQuery
	args := []interface{}{}
	if params != nil && params.Status != "" {
		query += " WHERE status = $1"
		args = append(args, string(params.Status))
	}
	query += " ORDER BY slug"
	return r.queryTenants(ctx, query, args...)
}

func (r *PgTenantRepository) SchemaNames(ctx context.Context) ([]string, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, tenantSchemaNamesQuery)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list tenant schema names")
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

func (r *PgTenantRepository) queryOne(ctx context.Context, query string, args ...interface{}) (*tenant.Tenant, error) {
	tenants, err := r.queryTenants(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if len(tenants) == 0 {
		return nil, tenant.ErrNotFound
	}
	return tenants[0], nil
}

func (r *PgTenantRepository) queryTenants(ctx context.Context, query string, args ...interface{}) ([]*tenant.Tenant, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute query")
	}
	defer rows.Close()

	var tenants []*tenant.Tenant
	for rows.Next() {
		var row models.Tenant
		if err := rows.Scan(
			&row.ID,
			&row.Name,
			&row.Slug,
			&row.SchemaName,
			&row.CustomDomain,
			&row.Status,
			&row.OwnerID,
			&row.MaxUsers,
			&row.MaxStores,
			&row.Features,
			&row.TrialEndsAt,
			&row.CreatedAt,
			&row.UpdatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan tenant row")
		}
		t, err := toDomainTenant(&row)
		if err != nil {
			return nil, err
		}
		tenants = append(tenants, t)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "row iteration error")
	}
	return tenants, nil
}
