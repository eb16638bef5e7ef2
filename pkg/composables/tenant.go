package composables

import (
	"context"

	"github.com/google/uuid"

	"github.com/retailcloud/retail-sdk/pkg/constants"
	"github.com/retailcloud/retail-sdk/pkg/metrics"
	"github.com/retailcloud/retail-sdk/pkg/serrors"
)

var (
	ErrNoTenant  = serrors.NewError("TENANT_CONTEXT_UNBOUND", "no tenant bound to context", "")
	ErrNoUser    = serrors.NewError("USER_CONTEXT_UNBOUND", "no acting user bound to context", "")
	ErrForbidden = serrors.NewError("FORBIDDEN", "operation not permitted", "")
	// ErrCrossTenant rejects reads or writes that reference another
	// tenant's data. Callers log the acting user and both tenant ids
	// before returning it.
	ErrCrossTenant = serrors.NewError("CROSS_TENANT_ACCESS_DENIED", "operation crosses tenant boundary", "")
)

// Tenant is the request-scoped identity of the active tenant. It is a plain
// snapshot of the registry row, so holding it never keeps a database object
// alive past the request.
type Tenant struct {
	ID         uuid.UUID
	Name       string
	Slug       string
	SchemaName string
}

// WithTenant binds the tenant for exactly one operation. The binding lives
// on the derived context and dies with it; worker reuse can never observe a
// previous operation's tenant because every request starts from a fresh
// request context.
func WithTenant(ctx context.Context, t *Tenant) context.Context {
	return context.WithValue(ctx, constants.TenantKey, t)
}

func UseTenant(ctx context.Context) (*Tenant, error) {
	t, ok := ctx.Value(constants.TenantKey).(*Tenant)
	if !ok || t == nil {
		return nil, ErrNoTenant
	}
	return t, nil
}

func UseTenantID(ctx context.Context) (uuid.UUID, error) {
	t, err := UseTenant(ctx)
	if err != nil {
		return uuid.Nil, err
	}
	return t.ID, nil
}

func UseSchemaName(ctx context.Context) (string, error) {
	t, err := UseTenant(ctx)
	if err != nil {
		return "", err
	}
	return t.SchemaName, nil
}

// WithResolutionStrategy records which resolver strategy matched, for audit
// logging.
func WithResolutionStrategy(ctx context.Context, strategy string) context.Context {
	return context.WithValue(ctx, constants.StrategyKey, strategy)
}

func UseResolutionStrategy(ctx context.Context) (string, bool) {
	s, ok := ctx.Value(constants.StrategyKey).(string)
	return s, ok
}

func WithUserID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, constants.UserIDKey, id)
}

func UseUserID(ctx context.Context) (uuid.UUID, error) {
	id, ok := ctx.Value(constants.UserIDKey).(uuid.UUID)
	if !ok {
		return uuid.Nil, ErrNoUser
	}
	return id, nil
}

// TenantScoped marks entity types that carry an explicit tenant identifier.
// Repositories validate such entities against the bound tenant instead of
// probing for a field at runtime.
type TenantScoped interface {
	TenantID() uuid.UUID
}

// EnsureTenantMatch validates an explicitly supplied tenant id against the
// bound context. A mismatch is rejected, never silently corrected.
func EnsureTenantMatch(ctx context.Context, entity TenantScoped) error {
	bound, err := UseTenantID(ctx)
	if err != nil {
		return err
	}
	if entity.TenantID() == uuid.Nil || entity.TenantID() == bound {
		return nil
	}
	logger := UseLogger(ctx)
	actor, _ := UseUserID(ctx)
	logger = logger.WithField("bound_tenant", bound.String()).
		WithField("entity_tenant", entity.TenantID().String()).
		WithField("acting_user", actor.String())
	if ip, ok := UseIP(ctx); ok {
		logger = logger.WithField("remote_ip", ip)
	}
	if agent, ok := UseUserAgent(ctx); ok {
		logger = logger.WithField("user_agent", agent)
	}
	logger.Error("cross-tenant access attempt rejected")
	metrics.CrossTenantRejections.Inc()
	return ErrCrossTenant.WithDetails("entity belongs to tenant %s, context bound to %s", entity.TenantID(), bound)
}
