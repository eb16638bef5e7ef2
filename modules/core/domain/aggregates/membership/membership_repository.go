package membership

import (
	"context"

	"github.com/google/uuid"

	"github.com/retailcloud/retail-sdk/pkg/serrors"
)

var (
	ErrNotFound = serrors.NewError("MEMBERSHIP_NOT_FOUND", "no active membership in tenant", "")
	ErrExists   = serrors.NewError("MEMBERSHIP_EXISTS", "user already has a membership in tenant", "")
)

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Membership, error)
	// GetActive returns the active membership for (tenant, user) or
	// ErrNotFound. Deactivated memberships are never returned here.
	GetActive(ctx context.Context, tenantID, userID uuid.UUID) (*Membership, error)
	GetByTenant(ctx context.Context, tenantID uuid.UUID) ([]*Membership, error)
	Create(ctx context.Context, m *Membership) (*Membership, error)
	Update(ctx context.Context, m *Membership) (*Membership, error)
	CountActiveByTenant(ctx context.Context, tenantID uuid.UUID) (int64, error)
}
