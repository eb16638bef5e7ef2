package services

import (
	"context"
	stderrors "errors"
	"strings"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/retailcloud/retail-sdk/modules/core/domain/aggregates/membership"
	"github.com/retailcloud/retail-sdk/modules/core/domain/entities/domainbinding"
	"github.com/retailcloud/retail-sdk/modules/core/domain/entities/tenant"
	"github.com/retailcloud/retail-sdk/pkg/composables"
	"github.com/retailcloud/retail-sdk/pkg/configuration"
	"github.com/retailcloud/retail-sdk/pkg/eventbus"
)

// SchemaProvisioner is the slice of the schema lifecycle manager the tenant
// service drives. *schema.Manager satisfies it.
type SchemaProvisioner interface {
	Create(ctx context.Context, t *tenant.Tenant) error
	Archive(ctx context.Context, t *tenant.Tenant) error
}

// TenantService owns tenant registration and lifecycle. It is also the
// resolver's registry lookup surface.
type TenantService struct {
	repo      tenant.Repository
	bindings  domainbinding.Repository
	members   membership.Repository
	schemas   SchemaProvisioner
	publisher eventbus.EventBus
	conf      *configuration.Configuration
}

func NewTenantService(
	repo tenant.Repository,
	bindings domainbinding.Repository,
	members membership.Repository,
	schemas SchemaProvisioner,
	publisher eventbus.EventBus,
	conf *configuration.Configuration,
) *TenantService {
	return &TenantService{
		repo:      repo,
		bindings:  bindings,
		members:   members,
		schemas:   schemas,
		publisher: publisher,
		conf:      conf,
	}
}

func (s *TenantService) GetByID(ctx context.Context, id uuid.UUID) (*tenant.Tenant, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *TenantService) GetBySlug(ctx context.Context, slug string) (*tenant.Tenant, error) {
	return s.repo.GetBySlug(ctx, slug)
}

// GetByHostname resolves a full hostname to a tenant, either through the
// tenant's own custom domain or through a domain binding.
func (s *TenantService) GetByHostname(ctx context.Context, hostname string) (*tenant.Tenant, error) {
	hostname = strings.ToLower(strings.TrimSpace(hostname))
	t, err := s.repo.GetByCustomDomain(ctx, hostname)
	if err == nil {
		return t, nil
	}
	if !errors.Is(err, tenant.ErrNotFound) {
		return nil, err
	}

	binding, err := s.bindings.GetByHostname(ctx, hostname)
	if err != nil {
		if errors.Is(err, domainbinding.ErrNotFound) {
			return nil, tenant.ErrNotFound
		}
		return nil, err
	}
	return s.repo.GetByID(ctx, binding.TenantID())
}

func (s *TenantService) List(ctx context.Context, params *tenant.FindParams) ([]*tenant.Tenant, error) {
	return s.repo.List(ctx, params)
}

// Create registers a tenant and provisions its schema. The registry row
// commits first; if provisioning then fails the tenant is flipped to
// inactive so a retry can pick it up, and the error surfaces to the caller.
func (s *TenantService) Create(ctx context.Context, name, slug string, ownerID uuid.UUID) (*tenant.Tenant, error) {
	trialEnd := nowFunc().Add(s.conf.Tenancy.TrialDuration)
	t, err := tenant.New(
		name,
		slug,
		tenant.WithOwnerID(ownerID),
		tenant.WithTrialEndsAt(&trialEnd),
		tenant.WithQuotas(tenant.Quotas{
			MaxUsers:  s.conf.Tenancy.MaxUsers,
			MaxStores: s.conf.Tenancy.MaxStores,
		}),
	)
	if err != nil {
		return nil, err
	}

	var created *tenant.Tenant
	err = composables.InTx(ctx, func(txCtx context.Context) error {
		if _, err := s.repo.GetBySlug(txCtx, slug); err == nil {
			return tenant.ErrSlugTaken.WithDetails("slug %s", slug)
		} else if !errors.Is(err, tenant.ErrNotFound) {
			return err
		}
		created, err = s.repo.Create(txCtx, t)
		if err != nil {
			return err
		}
		// The provisioning user becomes the sole owner membership.
		_, err = s.members.Create(txCtx, membership.New(created.ID(), ownerID, "", membership.RoleOwner))
		return err
	})
	if err != nil {
		return nil, err
	}

	if err := s.schemas.Create(ctx, created); err != nil {
		if markErr := s.setStatus(ctx, created, tenant.StatusInactive); markErr != nil {
			return nil, stderrors.Join(err, markErr)
		}
		return nil, err
	}

	s.publisher.Publish(&tenant.CreatedEvent{
		TenantID:   created.ID(),
		Slug:       created.Slug(),
		SchemaName: created.SchemaName(),
	})
	return created, nil
}

// Activate flips a trial tenant to active, ending the trial.
func (s *TenantService) Activate(ctx context.Context, id uuid.UUID) (*tenant.Tenant, error) {
	return s.transition(ctx, id, tenant.StatusActive)
}

// Suspend takes a tenant out of service without touching its data.
func (s *TenantService) Suspend(ctx context.Context, id uuid.UUID) (*tenant.Tenant, error) {
	return s.transition(ctx, id, tenant.StatusSuspended)
}

// Archive suspends the tenant if needed and hands its schema to the
// lifecycle manager, which backs up, drops and marks it archived.
func (s *TenantService) Archive(ctx context.Context, id uuid.UUID) error {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.schemas.Archive(ctx, t); err != nil {
		return err
	}
	s.publisher.Publish(&tenant.ArchivedEvent{TenantID: t.ID(), Slug: t.Slug()})
	return nil
}

// BindDomain attaches a hostname to the tenant. Hostnames are globally
// unique and each tenant carries at most one primary binding.
func (s *TenantService) BindDomain(ctx context.Context, tenantID uuid.UUID, hostname string, primary bool) (*domainbinding.DomainBinding, error) {
	hostname = strings.ToLower(strings.TrimSpace(hostname))
	var created *domainbinding.DomainBinding
	err := composables.InTx(ctx, func(txCtx context.Context) error {
		if _, err := s.bindings.GetByHostname(txCtx, hostname); err == nil {
			return domainbinding.ErrHostnameTaken.WithDetails("hostname %s", hostname)
		} else if !errors.Is(err, domainbinding.ErrNotFound) {
			return err
		}

		if primary {
			existing, err := s.bindings.GetByTenant(txCtx, tenantID)
			if err != nil {
				return err
			}
			for _, b := range existing {
				if b.IsPrimary() {
					return domainbinding.ErrPrimaryExists.WithDetails("hostname %s", b.Hostname())
				}
			}
		}

		var err error
		created, err = s.bindings.Create(txCtx, domainbinding.New(tenantID, hostname, domainbinding.WithPrimary(primary)))
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *TenantService) UnbindDomain(ctx context.Context, id uuid.UUID) error {
	return composables.InTx(ctx, func(txCtx context.Context) error {
		return s.bindings.Delete(txCtx, id)
	})
}

func (s *TenantService) transition(ctx context.Context, id uuid.UUID, status tenant.Status) (*tenant.Tenant, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	old := t.Status()
	if err := s.setStatus(ctx, t, status); err != nil {
		return nil, err
	}
	s.publisher.Publish(&tenant.StatusChangedEvent{
		TenantID: t.ID(),
		Slug:     t.Slug(),
		Old:      old,
		New:      status,
	})
	return t, nil
}

func (s *TenantService) setStatus(ctx context.Context, t *tenant.Tenant, status tenant.Status) error {
	return composables.InTx(ctx, func(txCtx context.Context) error {
		t.SetStatus(status)
		_, err := s.repo.Update(txCtx, t)
		return err
	})
}
