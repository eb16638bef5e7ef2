package customer

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/retailcloud/retail-sdk/pkg/serrors"
)

var ErrNotFound = serrors.NewError("CUSTOMER_NOT_FOUND", "customer not found", "")

// Customer lives in the owning tenant's schema. The tenant id is carried on
// the row anyway so writes can be cross-checked against the bound context.
type Customer struct {
	id        uuid.UUID
	tenantID  uuid.UUID
	name      string
	email     string
	phone     string
	createdAt time.Time
	updatedAt time.Time
}

type Option func(*Customer)

func WithID(id uuid.UUID) Option {
	return func(c *Customer) {
		c.id = id
	}
}

func WithPhone(phone string) Option {
	return func(c *Customer) {
		c.phone = phone
	}
}

func WithCreatedAt(createdAt time.Time) Option {
	return func(c *Customer) {
		c.createdAt = createdAt
	}
}

func WithUpdatedAt(updatedAt time.Time) Option {
	return func(c *Customer) {
		c.updatedAt = updatedAt
	}
}

func New(tenantID uuid.UUID, name, email string, opts ...Option) *Customer {
	c := &Customer{
		id:        uuid.New(),
		tenantID:  tenantID,
		name:      name,
		email:     email,
		createdAt: time.Now(),
		updatedAt: time.Now(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Customer) ID() uuid.UUID {
	return c.id
}

// TenantID marks Customer as tenant-scoped for boundary checks.
func (c *Customer) TenantID() uuid.UUID {
	return c.tenantID
}

func (c *Customer) Name() string {
	return c.name
}

func (c *Customer) Email() string {
	return c.email
}

func (c *Customer) Phone() string {
	return c.phone
}

func (c *Customer) CreatedAt() time.Time {
	return c.createdAt
}

func (c *Customer) UpdatedAt() time.Time {
	return c.updatedAt
}

func (c *Customer) SetName(name string) {
	c.name = name
	c.updatedAt = time.Now()
}

func (c *Customer) SetPhone(phone string) {
	c.phone = phone
	c.updatedAt = time.Now()
}

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Customer, error)
	List(ctx context.Context, limit, offset int) ([]*Customer, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	Create(ctx context.Context, c *Customer) (*Customer, error)
	Update(ctx context.Context, c *Customer) (*Customer, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
