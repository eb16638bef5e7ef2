package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retailcloud/retail-sdk/modules/core/domain/aggregates/membership"
	"github.com/retailcloud/retail-sdk/modules/core/domain/entities/domainbinding"
	"github.com/retailcloud/retail-sdk/modules/core/domain/entities/tenant"
	"github.com/retailcloud/retail-sdk/pkg/configuration"
	"github.com/retailcloud/retail-sdk/pkg/constants"
	"github.com/retailcloud/retail-sdk/pkg/eventbus"
)

type memBindingRepo struct {
	byHostname map[string]*domainbinding.DomainBinding
}

func newMemBindingRepo() *memBindingRepo {
	return &memBindingRepo{byHostname: map[string]*domainbinding.DomainBinding{}}
}

func (r *memBindingRepo) GetByHostname(_ context.Context, hostname string) (*domainbinding.DomainBinding, error) {
	if b, ok := r.byHostname[hostname]; ok {
		return b, nil
	}
	return nil, domainbinding.ErrNotFound
}

func (r *memBindingRepo) GetByTenant(_ context.Context, tenantID uuid.UUID) ([]*domainbinding.DomainBinding, error) {
	var out []*domainbinding.DomainBinding
	for _, b := range r.byHostname {
		if b.TenantID() == tenantID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *memBindingRepo) Create(_ context.Context, b *domainbinding.DomainBinding) (*domainbinding.DomainBinding, error) {
	r.byHostname[b.Hostname()] = b
	return b, nil
}

func (r *memBindingRepo) Delete(_ context.Context, id uuid.UUID) error {
	for host, b := range r.byHostname {
		if b.ID() == id {
			delete(r.byHostname, host)
			return nil
		}
	}
	return domainbinding.ErrNotFound
}

func newTenantFixture(t *testing.T) (*TenantService, *memTenantRepo, *memBindingRepo, *tenant.Tenant) {
	t.Helper()
	tn, err := tenant.New("Acme", "acme",
		tenant.WithStatus(tenant.StatusActive),
		tenant.WithCustomDomain("shop.acme.example"))
	require.NoError(t, err)

	tenants := &memTenantRepo{byID: map[uuid.UUID]*tenant.Tenant{tn.ID(): tn}}
	bindings := newMemBindingRepo()
	service := NewTenantService(
		tenants,
		bindings,
		newMemMembershipRepo(),
		nil,
		eventbus.NewEventPublisher(logrus.New()),
		&configuration.Configuration{},
	)
	return service, tenants, bindings, tn
}

func txCtx() context.Context {
	return context.WithValue(context.Background(), constants.TxKey, stubTx{})
}

type fakeProvisioner struct {
	err     error
	created []uuid.UUID
}

func (p *fakeProvisioner) Create(_ context.Context, t *tenant.Tenant) error {
	if p.err != nil {
		return p.err
	}
	p.created = append(p.created, t.ID())
	return nil
}

func (p *fakeProvisioner) Archive(_ context.Context, _ *tenant.Tenant) error {
	return nil
}

func TestTenantService_Create(t *testing.T) {
	newService := func(t *testing.T, p *fakeProvisioner) (*TenantService, *memTenantRepo, *memMembershipRepo) {
		t.Helper()
		tenants := &memTenantRepo{byID: map[uuid.UUID]*tenant.Tenant{}}
		members := newMemMembershipRepo()
		service := NewTenantService(
			tenants,
			newMemBindingRepo(),
			members,
			p,
			eventbus.NewEventPublisher(logrus.New()),
			&configuration.Configuration{},
		)
		return service, tenants, members
	}

	t.Run("provisions schema and owner membership", func(t *testing.T) {
		p := &fakeProvisioner{}
		service, _, members := newService(t, p)
		owner := uuid.New()

		created, err := service.Create(txCtx(), "Acme", "acme", owner)
		require.NoError(t, err)
		assert.Equal(t, tenant.StatusTrial, created.Status())
		assert.Equal(t, []uuid.UUID{created.ID()}, p.created)

		m, err := members.GetActive(context.Background(), created.ID(), owner)
		require.NoError(t, err)
		assert.Equal(t, membership.RoleOwner, m.Role())
	})

	t.Run("taken slug is rejected", func(t *testing.T) {
		p := &fakeProvisioner{}
		service, _, _ := newService(t, p)
		_, err := service.Create(txCtx(), "Acme", "acme", uuid.New())
		require.NoError(t, err)

		_, err = service.Create(txCtx(), "Acme Again", "acme", uuid.New())
		require.Error(t, err)
		assert.ErrorIs(t, err, tenant.ErrSlugTaken)
		assert.Len(t, p.created, 1, "no second schema may be provisioned")
	})

	t.Run("provisioning failure flips the tenant inactive", func(t *testing.T) {
		provisionErr := errors.New("migration failed")
		service, tenants, _ := newService(t, &fakeProvisioner{err: provisionErr})

		_, err := service.Create(txCtx(), "Acme", "acme", uuid.New())
		require.Error(t, err)
		assert.ErrorIs(t, err, provisionErr)

		stored, err := tenants.GetBySlug(context.Background(), "acme")
		require.NoError(t, err)
		assert.Equal(t, tenant.StatusInactive, stored.Status(), "a retry must be able to pick the tenant up")
	})
}

func TestTenantService_GetByHostname(t *testing.T) {
	service, _, bindings, tn := newTenantFixture(t)
	ctx := txCtx()

	t.Run("custom domain wins", func(t *testing.T) {
		got, err := service.GetByHostname(ctx, "Shop.Acme.Example")
		require.NoError(t, err)
		assert.Equal(t, tn.ID(), got.ID())
	})

	t.Run("falls back to domain binding", func(t *testing.T) {
		bindings.byHostname["pos.acme.example"] = domainbinding.New(tn.ID(), "pos.acme.example")

		got, err := service.GetByHostname(ctx, "pos.acme.example")
		require.NoError(t, err)
		assert.Equal(t, tn.ID(), got.ID())
	})

	t.Run("unknown hostname", func(t *testing.T) {
		_, err := service.GetByHostname(ctx, "nobody.example")
		require.Error(t, err)
		assert.ErrorIs(t, err, tenant.ErrNotFound)
	})
}

func TestTenantService_BindDomain(t *testing.T) {
	service, _, _, tn := newTenantFixture(t)
	ctx := txCtx()

	first, err := service.BindDomain(ctx, tn.ID(), "WWW.Acme.Shop", true)
	require.NoError(t, err)
	assert.Equal(t, "www.acme.shop", first.Hostname())
	assert.True(t, first.IsPrimary())

	t.Run("hostname is globally unique", func(t *testing.T) {
		_, err := service.BindDomain(ctx, uuid.New(), "www.acme.shop", false)
		require.Error(t, err)
		assert.ErrorIs(t, err, domainbinding.ErrHostnameTaken)
	})

	t.Run("second primary refused", func(t *testing.T) {
		_, err := service.BindDomain(ctx, tn.ID(), "other.acme.shop", true)
		require.Error(t, err)
		assert.ErrorIs(t, err, domainbinding.ErrPrimaryExists)
	})

	t.Run("secondary binding allowed", func(t *testing.T) {
		b, err := service.BindDomain(ctx, tn.ID(), "alt.acme.shop", false)
		require.NoError(t, err)
		assert.False(t, b.IsPrimary())
	})
}

func TestTenantService_Transitions(t *testing.T) {
	service, tenants, _, tn := newTenantFixture(t)
	ctx := txCtx()

	suspended, err := service.Suspend(ctx, tn.ID())
	require.NoError(t, err)
	assert.Equal(t, tenant.StatusSuspended, suspended.Status())
	assert.Equal(t, tenant.StatusSuspended, tenants.byID[tn.ID()].Status())

	activated, err := service.Activate(ctx, tn.ID())
	require.NoError(t, err)
	assert.Equal(t, tenant.StatusActive, activated.Status())
}
