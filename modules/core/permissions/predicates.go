package permissions

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/retailcloud/retail-sdk/modules/core/domain/aggregates/membership"
	"github.com/retailcloud/retail-sdk/pkg/composables"
)

// Predicate is one composable access check evaluated against the caller's
// active membership in the bound tenant. Predicates return nil to allow,
// composables.ErrForbidden to deny, or a real error when the check itself
// failed.
type Predicate func(ctx context.Context, m *membership.Membership) error

// Checker resolves the acting user's membership once per check and feeds it
// through a predicate chain.
type Checker struct {
	memberships membership.Repository
}

func NewChecker(memberships membership.Repository) *Checker {
	return &Checker{memberships: memberships}
}

// Check loads the active membership for (bound tenant, acting user) and
// evaluates the predicate. No membership at all is a denial, not an error.
func (c *Checker) Check(ctx context.Context, p Predicate) error {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return err
	}
	userID, err := composables.UseUserID(ctx)
	if err != nil {
		return err
	}

	m, err := c.memberships.GetActive(ctx, tenantID, userID)
	if err != nil {
		if errors.Is(err, membership.ErrNotFound) {
			return composables.ErrForbidden
		}
		return errors.Wrap(err, "failed to load membership")
	}
	return p(ctx, m)
}

// HasMembership passes for any active membership in the bound tenant.
func HasMembership() Predicate {
	return func(_ context.Context, _ *membership.Membership) error {
		return nil
	}
}

func HasRole(roles ...membership.Role) Predicate {
	return func(_ context.Context, m *membership.Membership) error {
		for _, role := range roles {
			if m.Role() == role {
				return nil
			}
		}
		return composables.ErrForbidden
	}
}

func HasCapability(caps ...membership.Capability) Predicate {
	return func(_ context.Context, m *membership.Membership) error {
		for _, c := range caps {
			if m.HasCapability(c) {
				return nil
			}
		}
		return composables.ErrForbidden
	}
}

// OwnerOrAdmin shortcuts the two roles that always carry full control.
func OwnerOrAdmin() Predicate {
	return HasRole(membership.RoleOwner, membership.RoleAdmin)
}

// All denies on the first failing predicate.
func All(predicates ...Predicate) Predicate {
	return func(ctx context.Context, m *membership.Membership) error {
		for _, p := range predicates {
			if err := p(ctx, m); err != nil {
				return err
			}
		}
		return nil
	}
}

// Any passes on the first succeeding predicate. Real errors (not denials)
// still fail the whole check.
func Any(predicates ...Predicate) Predicate {
	return func(ctx context.Context, m *membership.Membership) error {
		for _, p := range predicates {
			err := p(ctx, m)
			if err == nil {
				return nil
			}
			if !errors.Is(err, composables.ErrForbidden) {
				return err
			}
		}
		return composables.ErrForbidden
	}
}
