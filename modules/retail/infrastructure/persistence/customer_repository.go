package persistence

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/retailcloud/retail-sdk/modules/retail/domain/aggregates/customer"
	"github.com/retailcloud/retail-sdk/modules/retail/infrastructure/persistence/models"
	"github.com/retailcloud/retail-sdk/pkg/composables"
	"github.com/retailcloud/retail-sdk/pkg/mapping"
)

const (
	customerFindQuery = `
		SELECT id, tenant_id, name, email, phone, created_at, updated_at
		FROM customers`

	customerExistsQuery = `SELECT EXISTS (SELECT 1 FROM customers WHERE id = $1)`

	customerInsertQuery = `
		INSERT INTO customers (id, tenant_id, name, email, phone, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	customerUpdateQuery = `
		UPDATE customers
		SET name = $1, email = $2, phone = $3, updated_at = $4
		WHERE id = $5`

	customerDeleteQuery = `DELETE FROM customers WHERE id = $1`
)

// PgCustomerRepository queries unqualified table names; the tenant
// transaction around it pins search_path to the bound tenant's schema.
type PgCustomerRepository struct{}

func NewCustomerRepository() customer.Repository {
	return &PgCustomerRepository{}
}

func (r *PgCustomerRepository) GetByID(ctx context.Context, id uuid.UUID) (*customer.Customer, error) {
	customers, err := r.queryCustomers(ctx, customerFindQuery+" WHERE id = $1", id.String())
	if err != nil {
		return nil, err
	}
	if len(customers) == 0 {
		return nil, customer.ErrNotFound
	}
	return customers[0], nil
}

func (r *PgCustomerRepository) List(ctx context.Context, limit, offset int) ([]*customer.Customer, error) {
	return r.queryCustomers(ctx, customerFindQuery+" ORDER BY created_at DESC LIMIT $1 OFFSET $2", limit, offset)
}

func (r *PgCustomerRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return false, err
	}
	var exists bool
	if err := tx.QueryRow(ctx, customerExistsQuery, id.String()).Scan(&exists); err != nil {
		return false, errors.Wrap(err, "failed to check customer existence")
	}
	return exists, nil
}

func (r *PgCustomerRepository) Create(ctx context.Context, c *customer.Customer) (*customer.Customer, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := tx.Exec(
		ctx,
		customerInsertQuery,
		c.ID().String(),
		c.TenantID().String(),
		c.Name(),
		c.Email(),
		mapping.ValueToSQLNullString(c.Phone()),
		c.CreatedAt(),
		c.UpdatedAt(),
	); err != nil {
		return nil, errors.Wrap(err, "failed to insert customer")
	}
	return r.GetByID(ctx, c.ID())
}

func (r *PgCustomerRepository) Update(ctx context.Context, c *customer.Customer) (*customer.Customer, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := tx.Exec(
		ctx,
		customerUpdateQuery,
		c.Name(),
		c.Email(),
		mapping.ValueToSQLNullString(c.Phone()),
		c.UpdatedAt(),
		c.ID().String(),
	); err != nil {
		return nil, errors.Wrap(err, "failed to update customer")
	}
	return r.GetByID(ctx, c.ID())
}

func (r *PgCustomerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, customerDeleteQuery, id.String()); err != nil {
		return errors.Wrap(err, "failed to delete customer")
	}
	return nil
}

func (r *PgCustomerRepository) queryCustomers(ctx context.Context, query string, args ...interface{}) ([]*customer.Customer, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute query")
	}
	defer rows.Close()

	var customers []*customer.Customer
	for rows.Next() {
		var row models.Customer
		if err := rows.Scan(
			&row.ID,
			&row.TenantID,
			&row.Name,
			&row.Email,
			&row.Phone,
			&row.CreatedAt,
			&row.UpdatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan customer row")
		}
		c, err := toDomainCustomer(&row)
		if err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}
