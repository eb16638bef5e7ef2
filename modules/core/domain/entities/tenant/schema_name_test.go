package tenant_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retailcloud/retail-sdk/modules/core/domain/entities/tenant"
)

func TestDeriveSchemaName(t *testing.T) {
	t.Run("deterministic", func(t *testing.T) {
		first, err := tenant.DeriveSchemaName("acme")
		require.NoError(t, err)
		second, err := tenant.DeriveSchemaName("acme")
		require.NoError(t, err)
		assert.Equal(t, "tenant_acme", first)
		assert.Equal(t, first, second)
	})

	t.Run("hyphens map to underscores", func(t *testing.T) {
		got, err := tenant.DeriveSchemaName("acme-west")
		require.NoError(t, err)
		assert.Equal(t, "tenant_acme_west", got)
	})

	t.Run("distinct slugs never collide", func(t *testing.T) {
		slugs := []string{"acme", "acme-west", "acme-east", "a-b-c", "abc", "ab-c", "a-bc"}
		seen := map[string]string{}
		for _, slug := range slugs {
			schema, err := tenant.DeriveSchemaName(slug)
			require.NoError(t, err)
			prev, dup := seen[schema]
			require.False(t, dup, "slugs %q and %q collided on %q", prev, slug, schema)
			seen[schema] = slug
		}
	})

	t.Run("over-length slug rejected before any side effect", func(t *testing.T) {
		long := strings.Repeat("a", 80)
		_, err := tenant.DeriveSchemaName(long)
		require.Error(t, err)
		assert.ErrorIs(t, err, tenant.ErrInvalidSlug)
	})

	t.Run("invalid characters rejected", func(t *testing.T) {
		for _, slug := range []string{"", "Acme", "acme_west", "acme.west", "-acme", "acme-", "a--b", "acme west"} {
			_, err := tenant.DeriveSchemaName(slug)
			assert.Error(t, err, "slug %q should be rejected", slug)
		}
	})
}

func TestIsTenantSchema(t *testing.T) {
	assert.True(t, tenant.IsTenantSchema("tenant_acme"))
	assert.False(t, tenant.IsTenantSchema("public"))
	assert.False(t, tenant.IsTenantSchema("tenant_"))
	assert.False(t, tenant.IsTenantSchema("pg_catalog"))
}

func TestNew_DerivesSchemaOnce(t *testing.T) {
	tn, err := tenant.New("Acme Corp", "acme")
	require.NoError(t, err)
	assert.Equal(t, "acme", tn.Slug())
	assert.Equal(t, "tenant_acme", tn.SchemaName())
	assert.Equal(t, tenant.StatusTrial, tn.Status())
}

func TestNew_RejectsBadSlugWithoutTenant(t *testing.T) {
	_, err := tenant.New("Bad", "Not A Slug")
	require.Error(t, err)
	assert.ErrorIs(t, err, tenant.ErrInvalidSlug)
}

func TestTrialExpired(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	trial, err := tenant.New("T", "trial-co", tenant.WithTrialEndsAt(&past))
	require.NoError(t, err)
	assert.True(t, trial.TrialExpired(now))

	live, err := tenant.New("T", "live-co", tenant.WithTrialEndsAt(&future))
	require.NoError(t, err)
	assert.False(t, live.TrialExpired(now))

	// Expiry only applies to trial status.
	active, err := tenant.New("T", "active-co",
		tenant.WithStatus(tenant.StatusActive),
		tenant.WithTrialEndsAt(&past))
	require.NoError(t, err)
	assert.False(t, active.TrialExpired(now))
}
