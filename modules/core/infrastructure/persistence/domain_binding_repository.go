package persistence

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/retailcloud/retail-sdk/modules/core/domain/entities/domainbinding"
	"github.com/retailcloud/retail-sdk/modules/core/infrastructure/persistence/models"
	"github.com/retailcloud/retail-sdk/pkg/composables"
)

const (
	domainBindingFindQuery = `
		SELECT id, tenant_id, hostname, is_primary, created_at
		FROM domain_bindings`

	domainBindingInsertQuery = `
		INSERT INTO domain_bindings (id, tenant_id, hostname, is_primary, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	domainBindingDeleteQuery = `DELETE FROM domain_bindings WHERE id = $1`
)

type PgDomainBindingRepository struct{}

func NewDomainBindingRepository() domainbinding.Repository {
	return &PgDomainBindingRepository{}
}

func (r *PgDomainBindingRepository) GetByHostname(ctx context.Context, hostname string) (*domainbinding.DomainBinding, error) {
	bindings, err := r.queryBindings(ctx, domainBindingFindQuery+" WHERE hostname = $1", hostname)
	if err != nil {
		return nil, err
	}
	if len(bindings) == 0 {
		return nil, domainbinding.ErrNotFound
	}
	return bindings[0], nil
}

func (r *PgDomainBindingRepository) GetByTenant(ctx context.Context, tenantID uuid.UUID) ([]*domainbinding.DomainBinding, error) {
	return r.queryBindings(ctx, domainBindingFindQuery+" WHERE tenant_id = $1 ORDER BY hostname", tenantID.String())
}

func (r *PgDomainBindingRepository) Create(ctx context.Context, b *domainbinding.DomainBinding) (*domainbinding.DomainBinding, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := tx.Exec(
		ctx,
		domainBindingInsertQuery,
		b.ID().String(),
		b.TenantID().String(),
		b.Hostname(),
		b.IsPrimary(),
		b.CreatedAt(),
	); err != nil {
		return nil, errors.Wrap(err, "failed to insert domain binding")
	}
	return r.GetByHostname(ctx, b.Hostname())
}

func (r *PgDomainBindingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, domainBindingDeleteQuery, id.String()); err != nil {
		return errors.Wrap(err, "failed to delete domain binding")
	}
	return nil
}

func (r *PgDomainBindingRepository) queryBindings(ctx context.Context, query string, args ...interface{}) ([]*domainbinding.DomainBinding, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute query")
	}
	defer rows.Close()

	var bindings []*domainbinding.DomainBinding
	for rows.Next() {
		var row models.DomainBinding
		if err := rows.Scan(&row.ID, &row.TenantID, &row.Hostname, &row.IsPrimary, &row.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan domain binding row")
		}
		b, err := toDomainBinding(&row)
		if err != nil {
			return nil, err
		}
		bindings = append(bindings, b)
	}
	return bindings, rows.Err()
}
