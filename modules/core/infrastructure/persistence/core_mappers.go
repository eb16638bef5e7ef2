package persistence

import (
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/retailcloud/retail-sdk/modules/core/domain/aggregates/membership"
	"github.com/retailcloud/retail-sdk/modules/core/domain/entities/domainbinding"
	"github.com/retailcloud/retail-sdk/modules/core/domain/entities/invitation"
	"github.com/retailcloud/retail-sdk/modules/core/domain/entities/taxonomy"
	"github.com/retailcloud/retail-sdk/modules/core/domain/entities/tenant"
	"github.com/retailcloud/retail-sdk/modules/core/infrastructure/persistence/models"
	"github.com/retailcloud/retail-sdk/pkg/mapping"
)

func toDomainTenant(row *models.Tenant) (*tenant.Tenant, error) {
	id, err := uuid.Parse(row.ID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid tenant id")
	}

	features := map[string]bool{}
	if len(row.Features) > 0 {
		if err := json.Unmarshal(row.Features, &features); err != nil {
			return nil, errors.Wrap(err, "invalid tenant features")
		}
	}

	opts := []tenant.Option{
		tenant.WithID(id),
		tenant.WithCustomDomain(mapping.SQLNullStringToValue(row.CustomDomain)),
		tenant.WithStatus(tenant.Status(row.Status)),
		tenant.WithQuotas(tenant.Quotas{MaxUsers: row.MaxUsers, MaxStores: row.MaxStores}),
		tenant.WithFeatures(features),
		tenant.WithTrialEndsAt(mapping.SQLNullTimeToPointer(row.TrialEndsAt)),
		tenant.WithCreatedAt(row.CreatedAt),
		tenant.WithUpdatedAt(row.UpdatedAt),
	}
	if row.OwnerID.Valid {
		ownerID, err := uuid.Parse(row.OwnerID.String)
		if err != nil {
			return nil, errors.Wrap(err, "invalid tenant owner id")
		}
		opts = append(opts, tenant.WithOwnerID(ownerID))
	}

	return tenant.New(row.Name, row.Slug, opts...)
}

func toTenantFeatures(t *tenant.Tenant) ([]byte, error) {
	return json.Marshal(t.Features())
}

func toDomainBinding(row *models.DomainBinding) (*domainbinding.DomainBinding, error) {
	id, err := uuid.Parse(row.ID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid domain binding id")
	}
	tenantID, err := uuid.Parse(row.TenantID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid domain binding tenant id")
	}
	return domainbinding.New(
		tenantID,
		row.Hostname,
		domainbinding.WithID(id),
		domainbinding.WithPrimary(row.IsPrimary),
		domainbinding.WithCreatedAt(row.CreatedAt),
	), nil
}

func toDomainMembership(row *models.Membership) (*membership.Membership, error) {
	id, err := uuid.Parse(row.ID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid membership id")
	}
	tenantID, err := uuid.Parse(row.TenantID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid membership tenant id")
	}
	userID, err := uuid.Parse(row.UserID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid membership user id")
	}

	caps := map[membership.Capability]bool{}
	if len(row.Capabilities) > 0 {
		if err := json.Unmarshal(row.Capabilities, &caps); err != nil {
			return nil, errors.Wrap(err, "invalid membership capabilities")
		}
	}

	return membership.New(
		tenantID,
		userID,
		row.Email,
		membership.Role(row.Role),
		membership.WithID(id),
		membership.WithCapabilities(caps),
		membership.WithIsActive(row.IsActive),
		membership.WithCreatedAt(row.CreatedAt),
		membership.WithUpdatedAt(row.UpdatedAt),
	), nil
}

func toDomainTaxonomy(row *models.Taxonomy) (*taxonomy.Taxonomy, error) {
	id, err := uuid.Parse(row.ID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid taxonomy id")
	}
	return taxonomy.New(
		taxonomy.Kind(row.Kind),
		row.Code,
		row.Label,
		taxonomy.WithID(id),
		taxonomy.WithCreatedAt(row.CreatedAt),
	), nil
}

func toDomainInvitation(row *models.Invitation) (*invitation.Invitation, error) {
	id, err := uuid.Parse(row.ID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid invitation id")
	}
	tenantID, err := uuid.Parse(row.TenantID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid invitation tenant id")
	}
	invitedBy, err := uuid.Parse(row.InvitedBy)
	if err != nil {
		return nil, errors.Wrap(err, "invalid invitation inviter id")
	}

	caps := map[membership.Capability]bool{}
	if len(row.Capabilities) > 0 {
		if err := json.Unmarshal(row.Capabilities, &caps); err != nil {
			return nil, errors.Wrap(err, "invalid invitation capabilities")
		}
	}

	return invitation.New(
		tenantID,
		row.Email,
		membership.Role(row.Role),
		invitedBy,
		0,
		invitation.WithID(id),
		invitation.WithToken(row.Token),
		invitation.WithCapabilities(caps),
		invitation.WithExpiresAt(row.ExpiresAt),
		invitation.WithAcceptedAt(mapping.SQLNullTimeToPointer(row.AcceptedAt)),
		invitation.WithCreatedAt(row.CreatedAt),
	), nil
}
