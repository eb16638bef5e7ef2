package persistence

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/retailcloud/retail-sdk/modules/retail/domain/aggregates/product"
	"github.com/retailcloud/retail-sdk/modules/retail/infrastructure/persistence/models"
	"github.com/retailcloud/retail-sdk/pkg/composables"
)

const (
	productFindQuery = `
		SELECT id, tenant_id, sku, name, price, created_at, updated_at
		FROM products`

	productInsertQuery = `
		INSERT INTO products (id, tenant_id, sku, name, price, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	productUpdateQuery = `
		UPDATE products
		SET name = $1, price = $2, updated_at = $3
		WHERE id = $4`

	productDeleteQuery = `DELETE FROM products WHERE id = $1`
)

// PgProductRepository queries unqualified table names; the tenant
// transaction around it pins search_path to the bound tenant's schema.
type PgProductRepository struct{}

func NewProductRepository() product.Repository {
	return &PgProductRepository{}
}

func (r *PgProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*product.Product, error) {
	products, err := r.queryProducts(ctx, productFindQuery+" WHERE id = $1", id.String())
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, product.ErrNotFound
	}
	return products[0], nil
}

func (r *PgProductRepository) GetBySKU(ctx context.Context, sku string) (*product.Product, error) {
	products, err := r.queryProducts(ctx, productFindQuery+" WHERE sku = $1", sku)
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, product.ErrNotFound
	}
	return products[0], nil
}

func (r *PgProductRepository) List(ctx context.Context, limit, offset int) ([]*product.Product, error) {
	return r.queryProducts(ctx, productFindQuery+" ORDER BY sku LIMIT $1 OFFSET $2", limit, offset)
}

func (r *PgProductRepository) Create(ctx context.Context, p *product.Product) (*product.Product, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := tx.Exec(
		ctx,
		productInsertQuery,
		p.ID().String(),
		p.TenantID().String(),
		p.SKU(),
		p.Name(),
		p.Price(),
		p.CreatedAt(),
		p.UpdatedAt(),
	); err != nil {
		return nil, errors.Wrap(err, "failed to insert product")
	}
	return r.GetByID(ctx, p.ID())
}

func (r *PgProductRepository) Update(ctx context.Context, p *product.Product) (*product.Product, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := tx.Exec(
		ctx,
		productUpdateQuery,
		p.Name(),
		p.Price(),
		p.UpdatedAt(),
		p.ID().String(),
	); err != nil {
		return nil, errors.Wrap(err, "failed to update product")
	}
	return r.GetByID(ctx, p.ID())
}

func (r *PgProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, productDeleteQuery, id.String()); err != nil {
		return errors.Wrap(err, "failed to delete product")
	}
	return nil
}

func (r *PgProductRepository) queryProducts(ctx context.Context, query string, args ...interface{}) ([]*product.Product, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute query")
	}
	defer rows.Close()

	var products []*product.Product
	for rows.Next() {
		var row models.Product
		if err := rows.Scan(
			&row.ID,
			&row.TenantID,
			&row.SKU,
			&row.Name,
			&row.Price,
			&row.CreatedAt,
			&row.UpdatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan product row")
		}
		p, err := toDomainProduct(&row)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}
