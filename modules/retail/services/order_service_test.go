package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retailcloud/retail-sdk/modules/retail/domain/aggregates/customer"
	"github.com/retailcloud/retail-sdk/modules/retail/domain/aggregates/order"
	"github.com/retailcloud/retail-sdk/pkg/composables"
	"github.com/retailcloud/retail-sdk/pkg/constants"
	"github.com/retailcloud/retail-sdk/pkg/eventbus"
)

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

// memCustomerRepo models a single tenant's schema: it only ever holds rows
// for the tenant it was created for, the way search_path scoping behaves.
type memCustomerRepo struct {
	byID map[uuid.UUID]*customer.Customer
}

func newMemCustomerRepo() *memCustomerRepo {
	return &memCustomerRepo{byID: map[uuid.UUID]*customer.Customer{}}
}

func (r *memCustomerRepo) GetByID(_ context.Context, id uuid.UUID) (*customer.Customer, error) {
	if c, ok := r.byID[id]; ok {
		return c, nil
	}
	return nil, customer.ErrNotFound
}

func (r *memCustomerRepo) List(_ context.Context, _, _ int) ([]*customer.Customer, error) {
	var out []*customer.Customer
	for _, c := range r.byID {
		out = append(out, c)
	}
	return out, nil
}

func (r *memCustomerRepo) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	_, ok := r.byID[id]
	return ok, nil
}

func (r *memCustomerRepo) Create(_ context.Context, c *customer.Customer) (*customer.Customer, error) {
	r.byID[c.ID()] = c
	return c, nil
}

func (r *memCustomerRepo) Update(_ context.Context, c *customer.Customer) (*customer.Customer, error) {
	r.byID[c.ID()] = c
	return c, nil
}

func (r *memCustomerRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.byID, id)
	return nil
}

type memOrderRepo struct {
	byID map[uuid.UUID]*order.Order
}

func newMemOrderRepo() *memOrderRepo {
	return &memOrderRepo{byID: map[uuid.UUID]*order.Order{}}
}

func (r *memOrderRepo) GetByID(_ context.Context, id uuid.UUID) (*order.Order, error) {
	if o, ok := r.byID[id]; ok {
		return o, nil
	}
	return nil, order.ErrNotFound
}

func (r *memOrderRepo) ListByCustomer(_ context.Context, customerID uuid.UUID) ([]*order.Order, error) {
	var out []*order.Order
	for _, o := range r.byID {
		if o.CustomerID() == customerID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *memOrderRepo) List(_ context.Context, _, _ int) ([]*order.Order, error) {
	var out []*order.Order
	for _, o := range r.byID {
		out = append(out, o)
	}
	return out, nil
}

func (r *memOrderRepo) Create(_ context.Context, o *order.Order) (*order.Order, error) {
	r.byID[o.ID()] = o
	return o, nil
}

func (r *memOrderRepo) Update(_ context.Context, o *order.Order) (*order.Order, error) {
	r.byID[o.ID()] = o
	return o, nil
}

func tenantCtx(tenantID uuid.UUID) context.Context {
	ctx := context.WithValue(context.Background(), constants.TxKey, stubTx{})
	return composables.WithTenant(ctx, &composables.Tenant{
		ID:         tenantID,
		Slug:       "acme",
		SchemaName: "tenant_acme",
	})
}

func TestOrderService_Create(t *testing.T) {
	tenantID := uuid.New()
	customers := newMemCustomerRepo()
	orders := newMemOrderRepo()
	service := NewOrderService(orders, customers, eventbus.NewEventPublisher(logrus.New()))

	c := customer.New(tenantID, "Jane Doe", "jane@acme.test")
	customers.byID[c.ID()] = c

	t.Run("valid customer reference", func(t *testing.T) {
		o, err := service.Create(tenantCtx(tenantID), order.New(tenantID, c.ID(), 49.90))
		require.NoError(t, err)
		assert.Equal(t, order.StatusPending, o.Status())
	})

	t.Run("unknown customer rejected", func(t *testing.T) {
		_, err := service.Create(tenantCtx(tenantID), order.New(tenantID, uuid.New(), 10))
		require.Error(t, err)
		assert.ErrorIs(t, err, order.ErrCustomerMissing)
	})

	t.Run("cross-tenant order rejected before any query", func(t *testing.T) {
		foreign := uuid.New()
		_, err := service.Create(tenantCtx(tenantID), order.New(foreign, c.ID(), 10))
		require.Error(t, err)
		assert.ErrorIs(t, err, composables.ErrCrossTenant)
	})

	t.Run("unbound context rejected", func(t *testing.T) {
		ctx := context.WithValue(context.Background(), constants.TxKey, stubTx{})
		_, err := service.Create(ctx, order.New(tenantID, c.ID(), 10))
		require.Error(t, err)
		assert.ErrorIs(t, err, composables.ErrNoTenant)
	})
}

func TestOrderService_SetStatus(t *testing.T) {
	tenantID := uuid.New()
	customers := newMemCustomerRepo()
	orders := newMemOrderRepo()
	service := NewOrderService(orders, customers, eventbus.NewEventPublisher(logrus.New()))

	c := customer.New(tenantID, "Jane", "jane@acme.test")
	customers.byID[c.ID()] = c
	o, err := service.Create(tenantCtx(tenantID), order.New(tenantID, c.ID(), 15))
	require.NoError(t, err)

	updated, err := service.SetStatus(tenantCtx(tenantID), o.ID(), order.StatusPaid)
	require.NoError(t, err)
	assert.Equal(t, order.StatusPaid, updated.Status())
}

func TestCustomerService_CrossTenantWrite(t *testing.T) {
	tenantID := uuid.New()
	customers := newMemCustomerRepo()
	service := NewCustomerService(customers, eventbus.NewEventPublisher(logrus.New()))

	t.Run("own tenant passes", func(t *testing.T) {
		_, err := service.Create(tenantCtx(tenantID), customer.New(tenantID, "Jane", "jane@acme.test"))
		assert.NoError(t, err)
	})

	t.Run("foreign tenant id rejected", func(t *testing.T) {
		_, err := service.Create(tenantCtx(tenantID), customer.New(uuid.New(), "Eve", "eve@other.test"))
		require.Error(t, err)
		assert.ErrorIs(t, err, composables.ErrCrossTenant)
	})
}
