package order

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/retailcloud/retail-sdk/pkg/serrors"
)

var (
	ErrNotFound = serrors.NewError("ORDER_NOT_FOUND", "order not found", "")
	// ErrCustomerMissing rejects an order whose customer does not exist in
	// the bound tenant's schema. A customer in any other tenant is
	// indistinguishable from a missing one on purpose.
	ErrCustomerMissing = serrors.NewError("ORDER_CUSTOMER_MISSING", "order references an unknown customer", "")
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusCancelled Status = "cancelled"
)

type Order struct {
	id         uuid.UUID
	tenantID   uuid.UUID
	customerID uuid.UUID
	status     Status
	total      float64
	createdAt  time.Time
	updatedAt  time.Time
}

type Option func(*Order)

func WithID(id uuid.UUID) Option {
	return func(o *Order) {
		o.id = id
	}
}

func WithStatus(status Status) Option {
	return func(o *Order) {
		o.status = status
	}
}

func WithCreatedAt(createdAt time.Time) Option {
	return func(o *Order) {
		o.createdAt = createdAt
	}
}

func WithUpdatedAt(updatedAt time.Time) Option {
	return func(o *Order) {
		o.updatedAt = updatedAt
	}
}

func New(tenantID, customerID uuid.UUID, total float64, opts ...Option) *Order {
	o := &Order{
		id:         uuid.New(),
		tenantID:   tenantID,
		customerID: customerID,
		status:     StatusPending,
		total:      total,
		createdAt:  time.Now(),
		updatedAt:  time.Now(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Order) ID() uuid.UUID {
	return o.id
}

// TenantID marks Order as tenant-scoped for boundary checks.
func (o *Order) TenantID() uuid.UUID {
	return o.tenantID
}

func (o *Order) CustomerID() uuid.UUID {
	return o.customerID
}

func (o *Order) Status() Status {
	return o.status
}

func (o *Order) Total() float64 {
	return o.total
}

func (o *Order) CreatedAt() time.Time {
	return o.createdAt
}

func (o *Order) UpdatedAt() time.Time {
	return o.updatedAt
}

func (o *Order) SetStatus(status Status) {
	o.status = status
	o.updatedAt = time.Now()
}

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Order, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]*Order, error)
	List(ctx context.Context, limit, offset int) ([]*Order, error)
	Create(ctx context.Context, o *Order) (*Order, error)
	Update(ctx context.Context, o *Order) (*Order, error)
}
