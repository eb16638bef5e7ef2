package product

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/retailcloud/retail-sdk/pkg/serrors"
)

var (
	ErrNotFound = serrors.NewError("PRODUCT_NOT_FOUND", "product not found", "")
	// ErrSKUTaken enforces SKU uniqueness inside one tenant's catalog; two
	// tenants may use the same SKU independently.
	ErrSKUTaken = serrors.NewError("PRODUCT_SKU_TAKEN", "sku already in use", "")
)

// Product lives in the owning tenant's schema. The tenant id is carried on
// the row anyway so writes can be cross-checked against the bound context.
type Product struct {
	id        uuid.UUID
	tenantID  uuid.UUID
	sku       string
	name      string
	price     float64
	createdAt time.Time
	updatedAt time.Time
}

type Option func(*Product)

func WithID(id uuid.UUID) Option {
	return func(p *Product) {
		p.id = id
	}
}

func WithCreatedAt(createdAt time.Time) Option {
	return func(p *Product) {
		p.createdAt = createdAt
	}
}

func WithUpdatedAt(updatedAt time.Time) Option {
	return func(p *Product) {
		p.updatedAt = updatedAt
	}
}

func New(tenantID uuid.UUID, sku, name string, price float64, opts ...Option) *Product {
	p := &Product{
		id:        uuid.New(),
		tenantID:  tenantID,
		sku:       sku,
		name:      name,
		price:     price,
		createdAt: time.Now(),
		updatedAt: time.Now(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Product) ID() uuid.UUID {
	return p.id
}

// TenantID marks Product as tenant-scoped for boundary checks.
func (p *Product) TenantID() uuid.UUID {
	return p.tenantID
}

func (p *Product) SKU() string {
	return p.sku
}

func (p *Product) Name() string {
	return p.name
}

func (p *Product) Price() float64 {
	return p.price
}

func (p *Product) CreatedAt() time.Time {
	return p.createdAt
}

func (p *Product) UpdatedAt() time.Time {
	return p.updatedAt
}

func (p *Product) SetName(name string) {
	p.name = name
	p.updatedAt = time.Now()
}

func (p *Product) SetPrice(price float64) {
	p.price = price
	p.updatedAt = time.Now()
}

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Product, error)
	GetBySKU(ctx context.Context, sku string) (*Product, error)
	List(ctx context.Context, limit, offset int) ([]*Product, error)
	Create(ctx context.Context, p *Product) (*Product, error)
	Update(ctx context.Context, p *Product) (*Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
