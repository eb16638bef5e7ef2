package services

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/retailcloud/retail-sdk/modules/core/domain/aggregates/membership"
	"github.com/retailcloud/retail-sdk/modules/core/domain/entities/invitation"
	"github.com/retailcloud/retail-sdk/modules/core/domain/entities/tenant"
	"github.com/retailcloud/retail-sdk/modules/core/permissions"
	"github.com/retailcloud/retail-sdk/pkg/composables"
	"github.com/retailcloud/retail-sdk/pkg/eventbus"
	"github.com/retailcloud/retail-sdk/pkg/serrors"
)

// invitationTTL bounds how long an invitation token stays redeemable.
const invitationTTL = 14 * 24 * time.Hour

var ErrUserQuotaExceeded = serrors.NewError("USER_QUOTA_EXCEEDED", "tenant user quota exhausted", "")

// MembershipService manages who belongs to the bound tenant and runs the
// invitation workflow.
type MembershipService struct {
	memberships membership.Repository
	invitations invitation.Repository
	tenants     tenant.Repository
	checker     *permissions.Checker
	publisher   eventbus.EventBus
}

func NewMembershipService(
	memberships membership.Repository,
	invitations invitation.Repository,
	tenants tenant.Repository,
	checker *permissions.Checker,
	publisher eventbus.EventBus,
) *MembershipService {
	return &MembershipService{
		memberships: memberships,
		invitations: invitations,
		tenants:     tenants,
		checker:     checker,
		publisher:   publisher,
	}
}

func canManageUsers() permissions.Predicate {
	return permissions.Any(
		permissions.OwnerOrAdmin(),
		permissions.HasCapability(membership.CapManageUsers),
	)
}

func (s *MembershipService) ListMembers(ctx context.Context) ([]*membership.Membership, error) {
	if err := s.checker.Check(ctx, permissions.HasMembership()); err != nil {
		return nil, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}
	return s.memberships.GetByTenant(ctx, tenantID)
}

// Invite issues a single-use invitation for the bound tenant. Requires the
// manage_users capability (or owner/admin role) and a free user quota slot.
func (s *MembershipService) Invite(ctx context.Context, email string, role membership.Role, caps map[membership.Capability]bool) (*invitation.Invitation, error) {
	if err := s.checker.Check(ctx, canManageUsers()); err != nil {
		return nil, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}
	invitedBy, err := composables.UseUserID(ctx)
	if err != nil {
		return nil, err
	}
	if !role.IsValid() {
		return nil, errors.Errorf("invalid role %q", role)
	}

	var created *invitation.Invitation
	err = composables.InTx(ctx, func(txCtx context.Context) error {
		t, err := s.tenants.GetByID(txCtx, tenantID)
		if err != nil {
			return err
		}
		active, err := s.memberships.CountActiveByTenant(txCtx, tenantID)
		if err != nil {
			return err
		}
		if active >= int64(t.Quotas().MaxUsers) {
			return ErrUserQuotaExceeded.WithDetails("limit %d", t.Quotas().MaxUsers)
		}

		if _, err := s.invitations.GetPending(txCtx, tenantID, email); err == nil {
			return invitation.ErrPending.WithDetails("email %s", email)
		} else if !errors.Is(err, invitation.ErrNotFound) {
			return err
		}

		created, err = s.invitations.Create(txCtx, invitation.New(
			tenantID,
			email,
			role,
			invitedBy,
			invitationTTL,
			invitation.WithCapabilities(caps),
		))
		return err
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(&membership.InvitedEvent{
		TenantID: tenantID,
		Email:    email,
		Role:     role,
	})
	return created, nil
}

// Accept consumes an invitation token exactly once and creates the
// membership with the role and capabilities stored on the invitation.
// Caller-supplied claims never influence the granted role. The target
// tenant comes from the invitation, not from any bound context.
func (s *MembershipService) Accept(ctx context.Context, token string, userID uuid.UUID) (*membership.Membership, error) {
	var created *membership.Membership
	err := composables.InTx(ctx, func(txCtx context.Context) error {
		inv, err := s.invitations.GetByToken(txCtx, token)
		if err != nil {
			if errors.Is(err, invitation.ErrNotFound) {
				return invitation.ErrInvalid
			}
			return err
		}
		if err := inv.Accept(nowFunc()); err != nil {
			return err
		}

		if _, err := s.memberships.GetActive(txCtx, inv.TenantID(), userID); err == nil {
			return membership.ErrExists.WithDetails("user %s", userID)
		} else if !errors.Is(err, membership.ErrNotFound) {
			return err
		}

		created, err = s.memberships.Create(txCtx, membership.New(
			inv.TenantID(),
			userID,
			inv.Email(),
			inv.Role(),
			membership.WithCapabilities(inv.Capabilities()),
		))
		if err != nil {
			return err
		}
		_, err = s.invitations.Update(txCtx, inv)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(&membership.JoinedEvent{
		TenantID:     created.TenantID(),
		MembershipID: created.ID(),
		UserID:       created.UserID(),
		Role:         created.Role(),
	})
	return created, nil
}

// Deactivate removes a member from service while keeping the row.
func (s *MembershipService) Deactivate(ctx context.Context, membershipID uuid.UUID) error {
	if err := s.checker.Check(ctx, canManageUsers()); err != nil {
		return err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return err
	}

	var deactivated *membership.Membership
	err = composables.InTx(ctx, func(txCtx context.Context) error {
		m, err := s.memberships.GetByID(txCtx, membershipID)
		if err != nil {
			return err
		}
		if m.TenantID() != tenantID {
			return composables.ErrCrossTenant
		}
		m.Deactivate()
		deactivated, err = s.memberships.Update(txCtx, m)
		return err
	})
	if err != nil {
		return err
	}

	s.publisher.Publish(&membership.DeactivatedEvent{
		TenantID:     deactivated.TenantID(),
		MembershipID: deactivated.ID(),
		UserID:       deactivated.UserID(),
	})
	return nil
}
