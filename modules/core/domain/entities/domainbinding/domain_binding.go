package domainbinding

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/retailcloud/retail-sdk/pkg/serrors"
)

var (
	ErrNotFound      = serrors.NewError("DOMAIN_BINDING_NOT_FOUND", "domain binding not found", "")
	ErrHostnameTaken = serrors.NewError("DOMAIN_BINDING_HOSTNAME_TAKEN", "hostname already bound to a tenant", "")
	// ErrPrimaryExists rejects marking a second binding primary for the
	// same tenant.
	ErrPrimaryExists = serrors.NewError("DOMAIN_BINDING_PRIMARY_EXISTS", "tenant already has a primary domain binding", "")
)

type DomainBinding struct {
	id        uuid.UUID
	tenantID  uuid.UUID
	hostname  string
	isPrimary bool
	createdAt time.Time
}

type Option func(*DomainBinding)

func WithID(id uuid.UUID) Option {
	return func(b *DomainBinding) {
		b.id = id
	}
}

func WithPrimary(primary bool) Option {
	return func(b *DomainBinding) {
		b.isPrimary = primary
	}
}

func WithCreatedAt(createdAt time.Time) Option {
	return func(b *DomainBinding) {
		b.createdAt = createdAt
	}
}

func New(tenantID uuid.UUID, hostname string, opts ...Option) *DomainBinding {
	b := &DomainBinding{
		id:        uuid.New(),
		tenantID:  tenantID,
		hostname:  hostname,
		createdAt: time.Now(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *DomainBinding) ID() uuid.UUID {
	return b.id
}

func (b *DomainBinding) TenantID() uuid.UUID {
	return b.tenantID
}

func (b *DomainBinding) Hostname() string {
	return b.hostname
}

func (b *DomainBinding) IsPrimary() bool {
	return b.isPrimary
}

func (b *DomainBinding) CreatedAt() time.Time {
	return b.createdAt
}

type Repository interface {
	GetByHostname(ctx context.Context, hostname string) (*DomainBinding, error)
	GetByTenant(ctx context.Context, tenantID uuid.UUID) ([]*DomainBinding, error)
	Create(ctx context.Context, b *DomainBinding) (*DomainBinding, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
