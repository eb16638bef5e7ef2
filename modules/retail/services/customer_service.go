package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/retailcloud/retail-sdk/modules/retail/domain/aggregates/customer"
	"github.com/retailcloud/retail-sdk/pkg/composables"
	"github.com/retailcloud/retail-sdk/pkg/eventbus"
)

// CustomerService runs every operation inside a tenant transaction, so the
// underlying queries can only ever see the bound tenant's schema.
type CustomerService struct {
	repo      customer.Repository
	publisher eventbus.EventBus
}

func NewCustomerService(repo customer.Repository, publisher eventbus.EventBus) *CustomerService {
	return &CustomerService{repo: repo, publisher: publisher}
}

func (s *CustomerService) GetByID(ctx context.Context, id uuid.UUID) (*customer.Customer, error) {
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) (*customer.Customer, error) {
		return s.repo.GetByID(txCtx, id)
	})
}

func (s *CustomerService) List(ctx context.Context, limit, offset int) ([]*customer.Customer, error) {
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) ([]*customer.Customer, error) {
		return s.repo.List(txCtx, limit, offset)
	})
}

func (s *CustomerService) Create(ctx context.Context, c *customer.Customer) (*customer.Customer, error) {
	if err := composables.EnsureTenantMatch(ctx, c); err != nil {
		return nil, err
	}
	created, err := composables.InTenantTxResult(ctx, func(txCtx context.Context) (*customer.Customer, error) {
		return s.repo.Create(txCtx, c)
	})
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(&customer.CreatedEvent{
		TenantID:   created.TenantID(),
		CustomerID: created.ID(),
	})
	return created, nil
}

func (s *CustomerService) Update(ctx context.Context, c *customer.Customer) (*customer.Customer, error) {
	if err := composables.EnsureTenantMatch(ctx, c); err != nil {
		return nil, err
	}
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) (*customer.Customer, error) {
		return s.repo.Update(txCtx, c)
	})
}

func (s *CustomerService) Delete(ctx context.Context, id uuid.UUID) error {
	return composables.InTenantTx(ctx, func(txCtx context.Context) error {
		if _, err := s.repo.GetByID(txCtx, id); err != nil {
			return err
		}
		return s.repo.Delete(txCtx, id)
	})
}
