package permissions_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retailcloud/retail-sdk/modules/core/domain/aggregates/membership"
	"github.com/retailcloud/retail-sdk/modules/core/permissions"
	"github.com/retailcloud/retail-sdk/pkg/composables"
)

type fakeMembershipRepo struct {
	active map[string]*membership.Membership
}

func key(tenantID, userID uuid.UUID) string {
	return tenantID.String() + "/" + userID.String()
}

func (r *fakeMembershipRepo) GetByID(_ context.Context, _ uuid.UUID) (*membership.Membership, error) {
	return nil, membership.ErrNotFound
}

func (r *fakeMembershipRepo) GetActive(_ context.Context, tenantID, userID uuid.UUID) (*membership.Membership, error) {
	if m, ok := r.active[key(tenantID, userID)]; ok {
		return m, nil
	}
	return nil, membership.ErrNotFound
}

func (r *fakeMembershipRepo) GetByTenant(_ context.Context, _ uuid.UUID) ([]*membership.Membership, error) {
	return nil, nil
}

func (r *fakeMembershipRepo) Create(_ context.Context, m *membership.Membership) (*membership.Membership, error) {
	return m, nil
}

func (r *fakeMembershipRepo) Update(_ context.Context, m *membership.Membership) (*membership.Membership, error) {
	return m, nil
}

func (r *fakeMembershipRepo) CountActiveByTenant(_ context.Context, _ uuid.UUID) (int64, error) {
	return int64(len(r.active)), nil
}

func boundCtx(tenantID, userID uuid.UUID) context.Context {
	ctx := composables.WithTenant(context.Background(), &composables.Tenant{
		ID:         tenantID,
		Slug:       "acme",
		SchemaName: "tenant_acme",
	})
	return composables.WithUserID(ctx, userID)
}

func TestChecker_Check(t *testing.T) {
	tenantID := uuid.New()
	userID := uuid.New()
	staff := membership.New(tenantID, userID, "staff@acme.test", membership.RoleStaff)
	staff.SetCapability(membership.CapProcessSales, true)

	checker := permissions.NewChecker(&fakeMembershipRepo{
		active: map[string]*membership.Membership{key(tenantID, userID): staff},
	})

	t.Run("membership present passes base predicate", func(t *testing.T) {
		err := checker.Check(boundCtx(tenantID, userID), permissions.HasMembership())
		assert.NoError(t, err)
	})

	t.Run("unknown user is denied, not errored", func(t *testing.T) {
		err := checker.Check(boundCtx(tenantID, uuid.New()), permissions.HasMembership())
		require.Error(t, err)
		assert.ErrorIs(t, err, composables.ErrForbidden)
	})

	t.Run("unbound tenant context fails", func(t *testing.T) {
		ctx := composables.WithUserID(context.Background(), userID)
		err := checker.Check(ctx, permissions.HasMembership())
		require.Error(t, err)
		assert.ErrorIs(t, err, composables.ErrNoTenant)
	})

	t.Run("role predicate", func(t *testing.T) {
		assert.NoError(t, checker.Check(boundCtx(tenantID, userID), permissions.HasRole(membership.RoleStaff)))
		assert.ErrorIs(
			t,
			checker.Check(boundCtx(tenantID, userID), permissions.HasRole(membership.RoleOwner)),
			composables.ErrForbidden,
		)
	})

	t.Run("capability predicate", func(t *testing.T) {
		assert.NoError(t, checker.Check(boundCtx(tenantID, userID), permissions.HasCapability(membership.CapProcessSales)))
		assert.ErrorIs(
			t,
			checker.Check(boundCtx(tenantID, userID), permissions.HasCapability(membership.CapManageUsers)),
			composables.ErrForbidden,
		)
	})

	t.Run("owner or admin", func(t *testing.T) {
		assert.ErrorIs(
			t,
			checker.Check(boundCtx(tenantID, userID), permissions.OwnerOrAdmin()),
			composables.ErrForbidden,
		)
	})
}

func TestPredicateComposition(t *testing.T) {
	tenantID := uuid.New()
	userID := uuid.New()
	manager := membership.New(tenantID, userID, "mgr@acme.test", membership.RoleManager)
	manager.SetCapability(membership.CapViewAnalytics, true)

	checker := permissions.NewChecker(&fakeMembershipRepo{
		active: map[string]*membership.Membership{key(tenantID, userID): manager},
	})
	ctx := boundCtx(tenantID, userID)

	t.Run("all requires every predicate", func(t *testing.T) {
		ok := permissions.All(
			permissions.HasRole(membership.RoleManager),
			permissions.HasCapability(membership.CapViewAnalytics),
		)
		assert.NoError(t, checker.Check(ctx, ok))

		denied := permissions.All(
			permissions.HasRole(membership.RoleManager),
			permissions.HasCapability(membership.CapManageUsers),
		)
		assert.ErrorIs(t, checker.Check(ctx, denied), composables.ErrForbidden)
	})

	t.Run("any passes on first success", func(t *testing.T) {
		ok := permissions.Any(
			permissions.OwnerOrAdmin(),
			permissions.HasCapability(membership.CapViewAnalytics),
		)
		assert.NoError(t, checker.Check(ctx, ok))

		denied := permissions.Any(
			permissions.OwnerOrAdmin(),
			permissions.HasCapability(membership.CapManageUsers),
		)
		assert.ErrorIs(t, checker.Check(ctx, denied), composables.ErrForbidden)
	})
}
