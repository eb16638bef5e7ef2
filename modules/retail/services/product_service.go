package services

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/retailcloud/retail-sdk/modules/retail/domain/aggregates/product"
	"github.com/retailcloud/retail-sdk/pkg/composables"
	"github.com/retailcloud/retail-sdk/pkg/eventbus"
)

// ProductService manages the tenant's catalog. Every operation runs inside
// a tenant transaction, so the queries only ever see the bound schema.
type ProductService struct {
	repo      product.Repository
	publisher eventbus.EventBus
}

func NewProductService(repo product.Repository, publisher eventbus.EventBus) *ProductService {
	return &ProductService{repo: repo, publisher: publisher}
}

func (s *ProductService) GetByID(ctx context.Context, id uuid.UUID) (*product.Product, error) {
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) (*product.Product, error) {
		return s.repo.GetByID(txCtx, id)
	})
}

func (s *ProductService) List(ctx context.Context, limit, offset int) ([]*product.Product, error) {
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) ([]*product.Product, error) {
		return s.repo.List(txCtx, limit, offset)
	})
}

// Create checks SKU uniqueness inside the same tenant transaction as the
// insert. The schema's unique index backs the check up under concurrency.
func (s *ProductService) Create(ctx context.Context, p *product.Product) (*product.Product, error) {
	if err := composables.EnsureTenantMatch(ctx, p); err != nil {
		return nil, err
	}
	created, err := composables.InTenantTxResult(ctx, func(txCtx context.Context) (*product.Product, error) {
		if _, err := s.repo.GetBySKU(txCtx, p.SKU()); err == nil {
			return nil, product.ErrSKUTaken.WithDetails("sku %s", p.SKU())
		} else if !errors.Is(err, product.ErrNotFound) {
			return nil, err
		}
		return s.repo.Create(txCtx, p)
	})
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(&product.CreatedEvent{
		TenantID:  created.TenantID(),
		ProductID: created.ID(),
		SKU:       created.SKU(),
	})
	return created, nil
}

func (s *ProductService) Update(ctx context.Context, p *product.Product) (*product.Product, error) {
	if err := composables.EnsureTenantMatch(ctx, p); err != nil {
		return nil, err
	}
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) (*product.Product, error) {
		return s.repo.Update(txCtx, p)
	})
}

func (s *ProductService) Delete(ctx context.Context, id uuid.UUID) error {
	return composables.InTenantTx(ctx, func(txCtx context.Context) error {
		if _, err := s.repo.GetByID(txCtx, id); err != nil {
			return err
		}
		return s.repo.Delete(txCtx, id)
	})
}
