package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retailcloud/retail-sdk/modules/retail/domain/aggregates/product"
	"github.com/retailcloud/retail-sdk/pkg/composables"
	"github.com/retailcloud/retail-sdk/pkg/eventbus"
)

type memProductRepo struct {
	byID map[uuid.UUID]*product.Product
}

func newMemProductRepo() *memProductRepo {
	return &memProductRepo{byID: map[uuid.UUID]*product.Product{}}
}

func (r *memProductRepo) GetByID(_ context.Context, id uuid.UUID) (*product.Product, error) {
	if p, ok := r.byID[id]; ok {
		return p, nil
	}
	return nil, product.ErrNotFound
}

func (r *memProductRepo) GetBySKU(_ context.Context, sku string) (*product.Product, error) {
	for _, p := range r.byID {
		if p.SKU() == sku {
			return p, nil
		}
	}
	return nil, product.ErrNotFound
}

func (r *memProductRepo) List(_ context.Context, _, _ int) ([]*product.Product, error) {
	var out []*product.Product
	for _, p := range r.byID {
		out = append(out, p)
	}
	return out, nil
}

func (r *memProductRepo) Create(_ context.Context, p *product.Product) (*product.Product, error) {
	r.byID[p.ID()] = p
	return p, nil
}

func (r *memProductRepo) Update(_ context.Context, p *product.Product) (*product.Product, error) {
	r.byID[p.ID()] = p
	return p, nil
}

func (r *memProductRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.byID, id)
	return nil
}

func TestProductService_Create(t *testing.T) {
	tenantID := uuid.New()
	products := newMemProductRepo()
	service := NewProductService(products, eventbus.NewEventPublisher(logrus.New()))

	t.Run("new sku accepted", func(t *testing.T) {
		p, err := service.Create(tenantCtx(tenantID), product.New(tenantID, "SKU-1", "Espresso Beans", 12.50))
		require.NoError(t, err)
		assert.Equal(t, "SKU-1", p.SKU())
	})

	t.Run("duplicate sku rejected", func(t *testing.T) {
		_, err := service.Create(tenantCtx(tenantID), product.New(tenantID, "SKU-1", "Other Beans", 9.90))
		require.Error(t, err)
		assert.ErrorIs(t, err, product.ErrSKUTaken)
	})

	t.Run("cross-tenant product rejected before any query", func(t *testing.T) {
		_, err := service.Create(tenantCtx(tenantID), product.New(uuid.New(), "SKU-2", "Foreign", 1))
		require.Error(t, err)
		assert.ErrorIs(t, err, composables.ErrCrossTenant)
	})
}
