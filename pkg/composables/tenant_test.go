package composables_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retailcloud/retail-sdk/pkg/composables"
)

func TestUseTenant_Unbound(t *testing.T) {
	ctx := context.Background()

	_, err := composables.UseTenant(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, composables.ErrNoTenant))

	_, err = composables.UseTenantID(ctx)
	require.Error(t, err)

	_, err = composables.UseSchemaName(ctx)
	require.Error(t, err)
}

func TestWithTenant_BindingScopedToDerivedContext(t *testing.T) {
	base := context.Background()
	bound := composables.WithTenant(base, &composables.Tenant{
		ID:         uuid.New(),
		Slug:       "acme",
		SchemaName: "tenant_acme",
	})

	got, err := composables.UseTenant(bound)
	require.NoError(t, err)
	assert.Equal(t, "acme", got.Slug)

	// The parent context stays unbound: a worker reused for an unrelated
	// operation never observes a previous binding.
	_, err = composables.UseTenant(base)
	assert.True(t, errors.Is(err, composables.ErrNoTenant))
}

func TestWithTenant_RebindReplacesPrevious(t *testing.T) {
	t1 := &composables.Tenant{ID: uuid.New(), Slug: "one", SchemaName: "tenant_one"}
	t2 := &composables.Tenant{ID: uuid.New(), Slug: "two", SchemaName: "tenant_two"}

	ctx := composables.WithTenant(context.Background(), t1)
	ctx = composables.WithTenant(ctx, t2)

	got, err := composables.UseTenant(ctx)
	require.NoError(t, err)
	assert.Equal(t, t2.ID, got.ID)
}

type scopedEntity struct {
	tenantID uuid.UUID
}

func (e scopedEntity) TenantID() uuid.UUID {
	return e.tenantID
}

func TestEnsureTenantMatch(t *testing.T) {
	bound := uuid.New()
	ctx := composables.WithTenant(context.Background(), &composables.Tenant{
		ID:         bound,
		Slug:       "acme",
		SchemaName: "tenant_acme",
	})

	t.Run("matching tenant passes", func(t *testing.T) {
		assert.NoError(t, composables.EnsureTenantMatch(ctx, scopedEntity{tenantID: bound}))
	})

	t.Run("nil tenant inherits bound tenant", func(t *testing.T) {
		assert.NoError(t, composables.EnsureTenantMatch(ctx, scopedEntity{tenantID: uuid.Nil}))
	})

	t.Run("foreign tenant rejected", func(t *testing.T) {
		err := composables.EnsureTenantMatch(ctx, scopedEntity{tenantID: uuid.New()})
		require.Error(t, err)
		assert.True(t, errors.Is(err, composables.ErrCrossTenant))
	})

	t.Run("unbound context rejected", func(t *testing.T) {
		err := composables.EnsureTenantMatch(context.Background(), scopedEntity{tenantID: bound})
		require.Error(t, err)
		assert.True(t, errors.Is(err, composables.ErrNoTenant))
	})
}

func TestResolutionStrategyRoundTrip(t *testing.T) {
	ctx := context.Background()

	_, ok := composables.UseResolutionStrategy(ctx)
	assert.False(t, ok)

	ctx = composables.WithResolutionStrategy(ctx, "subdomain")
	s, ok := composables.UseResolutionStrategy(ctx)
	require.True(t, ok)
	assert.Equal(t, "subdomain", s)
}
