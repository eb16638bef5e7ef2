package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retailcloud/retail-sdk/modules/core/domain/aggregates/membership"
	"github.com/retailcloud/retail-sdk/modules/core/domain/entities/invitation"
	"github.com/retailcloud/retail-sdk/modules/core/domain/entities/tenant"
	"github.com/retailcloud/retail-sdk/modules/core/permissions"
	"github.com/retailcloud/retail-sdk/pkg/composables"
	"github.com/retailcloud/retail-sdk/pkg/constants"
	"github.com/retailcloud/retail-sdk/pkg/eventbus"
)

// stubTx satisfies the repository executor interface so InTx joins it; the
// in-memory fakes below never actually touch it.
type stubTx struct{}

func (stubTx) Query(context.Context, string, ...any) (pgx.Rows, error) {
	panic("unexpected database access")
}

func (stubTx) QueryRow(context.Context, string, ...any) pgx.Row {
	panic("unexpected database access")
}

func (stubTx) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	panic("unexpected database access")
}

type memMembershipRepo struct {
	byID map[uuid.UUID]*membership.Membership
}

func newMemMembershipRepo() *memMembershipRepo {
	return &memMembershipRepo{byID: map[uuid.UUID]*membership.Membership{}}
}

func (r *memMembershipRepo) GetByID(_ context.Context, id uuid.UUID) (*membership.Membership, error) {
	if m, ok := r.byID[id]; ok {
		return m, nil
	}
	return nil, membership.ErrNotFound
}

func (r *memMembershipRepo) GetActive(_ context.Context, tenantID, userID uuid.UUID) (*membership.Membership, error) {
	for _, m := range r.byID {
		if m.TenantID() == tenantID && m.UserID() == userID && m.IsActive() {
			return m, nil
		}
	}
	return nil, membership.ErrNotFound
}

func (r *memMembershipRepo) GetByTenant(_ context.Context, tenantID uuid.UUID) ([]*membership.Membership, error) {
	var out []*membership.Membership
	for _, m := range r.byID {
		if m.TenantID() == tenantID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *memMembershipRepo) Create(_ context.Context, m *membership.Membership) (*membership.Membership, error) {
	r.byID[m.ID()] = m
	return m, nil
}

func (r *memMembershipRepo) Update(_ context.Context, m *membership.Membership) (*membership.Membership, error) {
	r.byID[m.ID()] = m
	return m, nil
}

func (r *memMembershipRepo) CountActiveByTenant(_ context.Context, tenantID uuid.UUID) (int64, error) {
	var n int64
	for _, m := range r.byID {
		if m.TenantID() == tenantID && m.IsActive() {
			n++
		}
	}
	return n, nil
}

type memInvitationRepo struct {
	byToken map[string]*invitation.Invitation
}

func newMemInvitationRepo() *memInvitationRepo {
	return &memInvitationRepo{byToken: map[string]*invitation.Invitation{}}
}

func (r *memInvitationRepo) GetByToken(_ context.Context, token string) (*invitation.Invitation, error) {
	if inv, ok := r.byToken[token]; ok {
		return inv, nil
	}
	return nil, invitation.ErrNotFound
}

func (r *memInvitationRepo) GetPending(_ context.Context, tenantID uuid.UUID, email string) (*invitation.Invitation, error) {
	for _, inv := range r.byToken {
		if inv.TenantID() == tenantID && inv.Email() == email && !inv.Consumed() && !inv.Expired(time.Now()) {
			return inv, nil
		}
	}
	return nil, invitation.ErrNotFound
}

func (r *memInvitationRepo) Create(_ context.Context, inv *invitation.Invitation) (*invitation.Invitation, error) {
	r.byToken[inv.Token()] = inv
	return inv, nil
}

func (r *memInvitationRepo) Update(_ context.Context, inv *invitation.Invitation) (*invitation.Invitation, error) {
	r.byToken[inv.Token()] = inv
	return inv, nil
}

type memTenantRepo struct {
	byID map[uuid.UUID]*tenant.Tenant
}

func (r *memTenantRepo) GetByID(_ context.Context, id uuid.UUID) (*tenant.Tenant, error) {
	if t, ok := r.byID[id]; ok {
		return t, nil
	}
	return nil, tenant.ErrNotFound
}

func (r *memTenantRepo) GetBySlug(_ context.Context, slug string) (*tenant.Tenant, error) {
	for _, t := range r.byID {
		if t.Slug() == slug {
			return t, nil
		}
	}
	return nil, tenant.ErrNotFound
}

func (r *memTenantRepo) GetByCustomDomain(_ context.Context, domain string) (*tenant.Tenant, error) {
	for _, t := range r.byID {
		if t.CustomDomain() == domain {
			return t, nil
		}
	}
	return nil, tenant.ErrNotFound
}

func (r *memTenantRepo) Create(_ context.Context, t *tenant.Tenant) (*tenant.Tenant, error) {
	r.byID[t.ID()] = t
	return t, nil
}

func (r *memTenantRepo) Update(_ context.Context, t *tenant.Tenant) (*tenant.Tenant, error) {
	r.byID[t.ID()] = t
	return t, nil
}

func (r *memTenantRepo) List(_ context.Context, _ *tenant.FindParams) ([]*tenant.Tenant, error) {
	var out []*tenant.Tenant
	for _, t := range r.byID {
		out = append(out, t)
	}
	return out, nil
}

func (r *memTenantRepo) SchemaNames(_ context.Context) ([]string, error) {
	var out []string
	for _, t := range r.byID {
		out = append(out, t.SchemaName())
	}
	return out, nil
}

type fixture struct {
	service     *MembershipService
	memberships *memMembershipRepo
	invitations *memInvitationRepo
	tenant      *tenant.Tenant
	admin       *membership.Membership
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	tn, err := tenant.New("Acme", "acme",
		tenant.WithStatus(tenant.StatusActive),
		tenant.WithQuotas(tenant.Quotas{MaxUsers: 3, MaxStores: 5}))
	require.NoError(t, err)

	memberships := newMemMembershipRepo()
	invitations := newMemInvitationRepo()
	tenants := &memTenantRepo{byID: map[uuid.UUID]*tenant.Tenant{tn.ID(): tn}}

	admin := membership.New(tn.ID(), uuid.New(), "admin@acme.test", membership.RoleAdmin)
	memberships.byID[admin.ID()] = admin

	return &fixture{
		service: NewMembershipService(
			memberships,
			invitations,
			tenants,
			permissions.NewChecker(memberships),
			eventbus.NewEventPublisher(logrus.New()),
		),
		memberships: memberships,
		invitations: invitations,
		tenant:      tn,
		admin:       admin,
	}
}

func (f *fixture) ctxAs(userID uuid.UUID) context.Context {
	ctx := context.WithValue(context.Background(), constants.TxKey, stubTx{})
	ctx = composables.WithTenant(ctx, &composables.Tenant{
		ID:         f.tenant.ID(),
		Slug:       f.tenant.Slug(),
		SchemaName: f.tenant.SchemaName(),
	})
	return composables.WithUserID(ctx, userID)
}

func TestMembershipService_Invite(t *testing.T) {
	t.Run("admin can invite", func(t *testing.T) {
		f := newFixture(t)
		inv, err := f.service.Invite(f.ctxAs(f.admin.UserID()), "new@acme.test", membership.RoleStaff, nil)
		require.NoError(t, err)
		assert.Equal(t, membership.RoleStaff, inv.Role())
		assert.NotEmpty(t, inv.Token())
	})

	t.Run("viewer without manage_users is denied", func(t *testing.T) {
		f := newFixture(t)
		viewer := membership.New(f.tenant.ID(), uuid.New(), "viewer@acme.test", membership.RoleViewer)
		f.memberships.byID[viewer.ID()] = viewer

		_, err := f.service.Invite(f.ctxAs(viewer.UserID()), "new@acme.test", membership.RoleStaff, nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, composables.ErrForbidden)
	})

	t.Run("staff with manage_users capability may invite", func(t *testing.T) {
		f := newFixture(t)
		staff := membership.New(f.tenant.ID(), uuid.New(), "staff@acme.test", membership.RoleStaff)
		staff.SetCapability(membership.CapManageUsers, true)
		f.memberships.byID[staff.ID()] = staff

		_, err := f.service.Invite(f.ctxAs(staff.UserID()), "new@acme.test", membership.RoleStaff, nil)
		assert.NoError(t, err)
	})

	t.Run("duplicate pending invitation rejected", func(t *testing.T) {
		f := newFixture(t)
		ctx := f.ctxAs(f.admin.UserID())
		_, err := f.service.Invite(ctx, "new@acme.test", membership.RoleStaff, nil)
		require.NoError(t, err)

		_, err = f.service.Invite(ctx, "new@acme.test", membership.RoleStaff, nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, invitation.ErrPending)
	})

	t.Run("user quota enforced", func(t *testing.T) {
		f := newFixture(t)
		for i := 0; i < 2; i++ {
			m := membership.New(f.tenant.ID(), uuid.New(), "member@acme.test", membership.RoleStaff)
			f.memberships.byID[m.ID()] = m
		}

		_, err := f.service.Invite(f.ctxAs(f.admin.UserID()), "one-too-many@acme.test", membership.RoleStaff, nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrUserQuotaExceeded)
	})
}

func TestMembershipService_Accept(t *testing.T) {
	invite := func(t *testing.T, f *fixture, email string, role membership.Role) *invitation.Invitation {
		t.Helper()
		inv, err := f.service.Invite(f.ctxAs(f.admin.UserID()), email, role, map[membership.Capability]bool{
			membership.CapProcessSales: true,
		})
		require.NoError(t, err)
		return inv
	}

	t.Run("role comes from the invitation", func(t *testing.T) {
		f := newFixture(t)
		inv := invite(t, f, "cashier@acme.test", membership.RoleStaff)

		m, err := f.service.Accept(f.ctxAs(uuid.New()), inv.Token(), uuid.New())
		require.NoError(t, err)
		assert.Equal(t, membership.RoleStaff, m.Role())
		assert.True(t, m.HasCapability(membership.CapProcessSales))
		assert.Equal(t, f.tenant.ID(), m.TenantID())
	})

	t.Run("token is single use", func(t *testing.T) {
		f := newFixture(t)
		inv := invite(t, f, "cashier@acme.test", membership.RoleStaff)
		ctx := f.ctxAs(uuid.New())

		_, err := f.service.Accept(ctx, inv.Token(), uuid.New())
		require.NoError(t, err)

		_, err = f.service.Accept(ctx, inv.Token(), uuid.New())
		require.Error(t, err)
		assert.ErrorIs(t, err, invitation.ErrInvalid)
	})

	t.Run("expired token rejected", func(t *testing.T) {
		f := newFixture(t)
		inv := invite(t, f, "late@acme.test", membership.RoleStaff)

		old := nowFunc
		nowFunc = func() time.Time { return time.Now().Add(invitationTTL + time.Hour) }
		defer func() { nowFunc = old }()

		_, err := f.service.Accept(f.ctxAs(uuid.New()), inv.Token(), uuid.New())
		require.Error(t, err)
		assert.ErrorIs(t, err, invitation.ErrInvalid)
	})

	t.Run("unknown token rejected", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.service.Accept(f.ctxAs(uuid.New()), "bogus", uuid.New())
		require.Error(t, err)
		assert.ErrorIs(t, err, invitation.ErrInvalid)
	})
}

func TestMembershipService_Deactivate(t *testing.T) {
	f := newFixture(t)
	staff := membership.New(f.tenant.ID(), uuid.New(), "staff@acme.test", membership.RoleStaff)
	f.memberships.byID[staff.ID()] = staff

	require.NoError(t, f.service.Deactivate(f.ctxAs(f.admin.UserID()), staff.ID()))
	assert.False(t, f.memberships.byID[staff.ID()].IsActive())

	t.Run("foreign tenant membership refused", func(t *testing.T) {
		other := membership.New(uuid.New(), uuid.New(), "x@other.test", membership.RoleStaff)
		f.memberships.byID[other.ID()] = other

		err := f.service.Deactivate(f.ctxAs(f.admin.UserID()), other.ID())
		require.Error(t, err)
		assert.ErrorIs(t, err, composables.ErrCrossTenant)
	})
}
