package persistence

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/retailcloud/retail-sdk/modules/retail/domain/aggregates/order"
	"github.com/retailcloud/retail-sdk/modules/retail/infrastructure/persistence/models"
	"github.com/retailcloud/retail-sdk/pkg/composables"
)

const (
	orderFindQuery = `
		SELECT id, tenant_id, customer_id, status, total, created_at, updated_at
		FROM orders`

	orderInsertQuery = `
		INSERT INTO orders (id, tenant_id, customer_id, status, total, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	orderUpdateQuery = `
		UPDATE orders
		SET status = $1, total = $2, updated_at = $3
		WHERE id = $4`
)

type PgOrderRepository struct{}

func NewOrderRepository() order.Repository {
	return &PgOrderRepository{}
}

func (r *PgOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	orders, err := r.queryOrders(ctx, orderFindQuery+" WHERE id = $1", id.String())
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, order.ErrNotFound
	}
	return orders[0], nil
}

func (r *PgOrderRepository) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]*order.Order, error) {
	return r.queryOrders(ctx, orderFindQuery+" WHERE customer_id = $1 ORDER BY created_at DESC", customerID.String())
}

func (r *PgOrderRepository) List(ctx context.Context, limit, offset int) ([]*order.Order, error) {
	return r.queryOrders(ctx, orderFindQuery+" ORDER BY created_at DESC LIMIT $1 OFFSET $2", limit, offset)
}

func (r *PgOrderRepository) Create(ctx context.Context, o *order.Order) (*order.Order, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := tx.Exec(
		ctx,
		orderInsertQuery,
		o.ID().String(),
		o.TenantID().String(),
		o.CustomerID().String(),
		string(o.Status()),
		o.Total(),
		o.CreatedAt(),
		o.UpdatedAt(),
	); err != nil {
		return nil, errors.Wrap(err, "failed to insert order")
	}
	return r.GetByID(ctx, o.ID())
}

func (r *PgOrderRepository) Update(ctx context.Context, o *order.Order) (*order.Order, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := tx.Exec(
		ctx,
		orderUpdateQuery,
		string(o.Status()),
		o.Total(),
		o.UpdatedAt(),
		o.ID().String(),
	); err != nil {
		return nil, errors.Wrap(err, "failed to update order")
	}
	return r.GetByID(ctx, o.ID())
}

func (r *PgOrderRepository) queryOrders(ctx context.Context, query string, args ...interface{}) ([]*order.Order, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute query")
	}
	defer rows.Close()

	var orders []*order.Order
	for rows.Next() {
		var row models.Order
		if err := rows.Scan(
			&row.ID,
			&row.TenantID,
			&row.CustomerID,
			&row.Status,
			&row.Total,
			&row.CreatedAt,
			&row.UpdatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan order row")
		}
		o, err := toDomainOrder(&row)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}
