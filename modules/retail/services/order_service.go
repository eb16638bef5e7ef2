package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/retailcloud/retail-sdk/modules/retail/domain/aggregates/customer"
	"github.com/retailcloud/retail-sdk/modules/retail/domain/aggregates/order"
	"github.com/retailcloud/retail-sdk/pkg/composables"
	"github.com/retailcloud/retail-sdk/pkg/eventbus"
)

type OrderService struct {
	repo      order.Repository
	customers customer.Repository
	publisher eventbus.EventBus
}

func NewOrderService(repo order.Repository, customers customer.Repository, publisher eventbus.EventBus) *OrderService {
	return &OrderService{repo: repo, customers: customers, publisher: publisher}
}

func (s *OrderService) GetByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) (*order.Order, error) {
		return s.repo.GetByID(txCtx, id)
	})
}

func (s *OrderService) List(ctx context.Context, limit, offset int) ([]*order.Order, error) {
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) ([]*order.Order, error) {
		return s.repo.List(txCtx, limit, offset)
	})
}

func (s *OrderService) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]*order.Order, error) {
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) ([]*order.Order, error) {
		return s.repo.ListByCustomer(txCtx, customerID)
	})
}

// Create validates the customer reference inside the same tenant transaction
// as the insert. A customer owned by another tenant simply does not exist in
// this schema, so a cross-tenant reference fails exactly like a dangling one.
func (s *OrderService) Create(ctx context.Context, o *order.Order) (*order.Order, error) {
	if err := composables.EnsureTenantMatch(ctx, o); err != nil {
		return nil, err
	}
	created, err := composables.InTenantTxResult(ctx, func(txCtx context.Context) (*order.Order, error) {
		exists, err := s.customers.Exists(txCtx, o.CustomerID())
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, order.ErrCustomerMissing.WithDetails("customer %s", o.CustomerID())
		}
		return s.repo.Create(txCtx, o)
	})
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(&order.CreatedEvent{
		TenantID:   created.TenantID(),
		OrderID:    created.ID(),
		CustomerID: created.CustomerID(),
	})
	return created, nil
}

func (s *OrderService) SetStatus(ctx context.Context, id uuid.UUID, status order.Status) (*order.Order, error) {
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) (*order.Order, error) {
		o, err := s.repo.GetByID(txCtx, id)
		if err != nil {
			return nil, err
		}
		o.SetStatus(status)
		return s.repo.Update(txCtx, o)
	})
}
