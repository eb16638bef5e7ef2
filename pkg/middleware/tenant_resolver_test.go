package middleware_test

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retailcloud/retail-sdk/modules/core/domain/entities/tenant"
	"github.com/retailcloud/retail-sdk/pkg/configuration"
	"github.com/retailcloud/retail-sdk/pkg/middleware"
)

type fakeRegistry struct {
	bySlug     map[string]*tenant.Tenant
	byHostname map[string]*tenant.Tenant
	byID       map[uuid.UUID]*tenant.Tenant
}

func newFakeRegistry(tenants ...*tenant.Tenant) *fakeRegistry {
	r := &fakeRegistry{
		bySlug:     map[string]*tenant.Tenant{},
		byHostname: map[string]*tenant.Tenant{},
		byID:       map[uuid.UUID]*tenant.Tenant{},
	}
	for _, t := range tenants {
		r.bySlug[t.Slug()] = t
		r.byID[t.ID()] = t
		if t.CustomDomain() != "" {
			r.byHostname[t.CustomDomain()] = t
		}
	}
	return r
}

func (r *fakeRegistry) GetBySlug(_ context.Context, slug string) (*tenant.Tenant, error) {
	if t, ok := r.bySlug[slug]; ok {
		return t, nil
	}
	return nil, tenant.ErrNotFound
}

func (r *fakeRegistry) GetByID(_ context.Context, id uuid.UUID) (*tenant.Tenant, error) {
	if t, ok := r.byID[id]; ok {
		return t, nil
	}
	return nil, tenant.ErrNotFound
}

func (r *fakeRegistry) GetByHostname(_ context.Context, hostname string) (*tenant.Tenant, error) {
	if t, ok := r.byHostname[hostname]; ok {
		return t, nil
	}
	return nil, tenant.ErrNotFound
}

func testConf() *configuration.Configuration {
	return &configuration.Configuration{
		Tenancy: configuration.TenancyOptions{
			TenantHeader: "X-Tenant-ID",
			APIKeyHeader: "X-API-Key",
			BaseDomain:   "example.com",
			PublicPaths:  []string{"/health", "/register"},
		},
	}
}

func mustTenant(t *testing.T, name, slug string, opts ...tenant.Option) *tenant.Tenant {
	t.Helper()
	tn, err := tenant.New(name, slug, opts...)
	require.NoError(t, err)
	return tn
}

func TestResolver_SubdomainStrategy(t *testing.T) {
	acme := mustTenant(t, "Acme Corp", "acme", tenant.WithStatus(tenant.StatusActive))
	resolver := middleware.NewResolver(newFakeRegistry(acme), testConf())

	req := httptest.NewRequest("GET", "http://acme.example.com/api/customers", nil)
	got, strategy, err := resolver.Resolve(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, acme.ID(), got.ID())
	assert.Equal(t, middleware.StrategySubdomain, strategy)
}

func TestResolver_CustomDomainStrategy(t *testing.T) {
	shop := mustTenant(t, "Shop", "shop",
		tenant.WithStatus(tenant.StatusActive),
		tenant.WithCustomDomain("shop.example.org"))
	resolver := middleware.NewResolver(newFakeRegistry(shop), testConf())

	req := httptest.NewRequest("GET", "http://shop.example.org/", nil)
	got, strategy, err := resolver.Resolve(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, middleware.StrategyCustomDomain, strategy)
	assert.Equal(t, shop.ID(), got.ID())
}

func TestResolver_HeaderStrategy(t *testing.T) {
	acme := mustTenant(t, "Acme", "acme", tenant.WithStatus(tenant.StatusActive))
	resolver := middleware.NewResolver(newFakeRegistry(acme), testConf())

	t.Run("by slug", func(t *testing.T) {
		req := httptest.NewRequest("GET", "http://api.internal/", nil)
		req.Header.Set("X-Tenant-ID", "acme")
		got, strategy, err := resolver.Resolve(context.Background(), req)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, middleware.StrategyHeader, strategy)
	})

	t.Run("by id", func(t *testing.T) {
		req := httptest.NewRequest("GET", "http://api.internal/", nil)
		req.Header.Set("X-Tenant-ID", acme.ID().String())
		got, _, err := resolver.Resolve(context.Background(), req)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, acme.ID(), got.ID())
	})
}

func TestResolver_TokenClaimStrategy(t *testing.T) {
	acme := mustTenant(t, "Acme", "acme", tenant.WithStatus(tenant.StatusActive))
	resolver := middleware.NewResolver(newFakeRegistry(acme), testConf())

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": uuid.NewString(),
		"tid": "acme",
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "http://api.internal/", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	got, strategy, err := resolver.Resolve(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, middleware.StrategyTokenClaim, strategy)
}

func TestResolver_APIKeyStrategy(t *testing.T) {
	acme := mustTenant(t, "Acme", "acme", tenant.WithStatus(tenant.StatusActive))
	resolver := middleware.NewResolver(newFakeRegistry(acme), testConf())

	req := httptest.NewRequest("GET", "http://api.internal/", nil)
	req.Header.Set("X-API-Key", "acme_4f6a9c21d8")
	got, strategy, err := resolver.Resolve(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, middleware.StrategyAPIKey, strategy)
}

func TestResolver_StrategyOrder(t *testing.T) {
	// Subdomain wins over the header when both identify a tenant.
	sub := mustTenant(t, "Sub", "sub", tenant.WithStatus(tenant.StatusActive))
	other := mustTenant(t, "Other", "other", tenant.WithStatus(tenant.StatusActive))
	resolver := middleware.NewResolver(newFakeRegistry(sub, other), testConf())

	req := httptest.NewRequest("GET", "http://sub.example.com/", nil)
	req.Header.Set("X-Tenant-ID", "other")
	got, strategy, err := resolver.Resolve(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, middleware.StrategySubdomain, strategy)
	assert.Equal(t, sub.ID(), got.ID())
}

func TestResolver_Deterministic(t *testing.T) {
	acme := mustTenant(t, "Acme", "acme", tenant.WithStatus(tenant.StatusActive))
	resolver := middleware.NewResolver(newFakeRegistry(acme), testConf())

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest("GET", "http://acme.example.com/", nil)
		got, strategy, err := resolver.Resolve(context.Background(), req)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, acme.ID(), got.ID())
		assert.Equal(t, middleware.StrategySubdomain, strategy)
	}
}

func TestResolver_NoMatch(t *testing.T) {
	resolver := middleware.NewResolver(newFakeRegistry(), testConf())

	req := httptest.NewRequest("GET", "http://unknown.example.com/", nil)
	got, strategy, err := resolver.Resolve(context.Background(), req)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Empty(t, string(strategy))
}

func TestResolver_Gate(t *testing.T) {
	t.Run("suspended tenant rejected as inactive", func(t *testing.T) {
		suspended := mustTenant(t, "S", "suspended", tenant.WithStatus(tenant.StatusSuspended))
		resolver := middleware.NewResolver(newFakeRegistry(suspended), testConf())

		err := resolver.Gate(suspended)
		require.Error(t, err)
		assert.ErrorIs(t, err, tenant.ErrInactive)
	})

	t.Run("expired trial rejected distinctly", func(t *testing.T) {
		past := time.Now().Add(-time.Hour)
		expired := mustTenant(t, "E", "expired",
			tenant.WithStatus(tenant.StatusTrial),
			tenant.WithTrialEndsAt(&past))
		resolver := middleware.NewResolver(newFakeRegistry(expired), testConf())

		err := resolver.Gate(expired)
		require.Error(t, err)
		assert.ErrorIs(t, err, tenant.ErrTrialExpired)
		assert.NotErrorIs(t, err, tenant.ErrInactive)
	})

	t.Run("active tenant passes", func(t *testing.T) {
		active := mustTenant(t, "A", "active", tenant.WithStatus(tenant.StatusActive))
		resolver := middleware.NewResolver(newFakeRegistry(active), testConf())
		assert.NoError(t, resolver.Gate(active))
	})

	t.Run("live trial passes", func(t *testing.T) {
		future := time.Now().Add(time.Hour)
		trial := mustTenant(t, "T", "trial",
			tenant.WithStatus(tenant.StatusTrial),
			tenant.WithTrialEndsAt(&future))
		resolver := middleware.NewResolver(newFakeRegistry(trial), testConf())
		assert.NoError(t, resolver.Gate(trial))
	})
}
