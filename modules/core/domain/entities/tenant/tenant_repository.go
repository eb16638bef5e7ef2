package tenant

import (
	"context"

	"github.com/google/uuid"
)

type FindParams struct {
	Status Status
	Limit  int
	Offset int
}

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Tenant, error)
	GetBySlug(ctx context.Context, slug string) (*Tenant, error)
	GetByCustomDomain(ctx context.Context, domain string) (*Tenant, error)
	Create(ctx context.Context, t *Tenant) (*Tenant, error)
	Update(ctx context.Context, t *Tenant) (*Tenant, error)
	List(ctx context.Context, params *FindParams) ([]*Tenant, error)
	// SchemaNames returns the schema name of every registered tenant,
	// regardless of status. Orphan cleanup diffs physical schemas against
	// this set.
	SchemaNames(ctx context.Context) ([]string, error)
}
