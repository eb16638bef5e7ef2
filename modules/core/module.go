package core

import (
	"github.com/retailcloud/retail-sdk/modules/core/infrastructure/persistence"
	"github.com/retailcloud/retail-sdk/modules/core/infrastructure/schema"
	"github.com/retailcloud/retail-sdk/modules/core/permissions"
	"github.com/retailcloud/retail-sdk/modules/core/presentation/controllers"
	"github.com/retailcloud/retail-sdk/modules/core/services"
	"github.com/retailcloud/retail-sdk/pkg/application"
	"github.com/retailcloud/retail-sdk/pkg/configuration"
)

// ModuleOptions carries the schema lifecycle machinery constructed in main,
// where the pool and logger live and where the job runner is started.
type ModuleOptions struct {
	SchemaManager *schema.Manager
	JobRunner     *schema.Runner
}

func NewModule(opts *ModuleOptions) application.Module {
	return &Module{options: opts}
}

type Module struct {
	options *ModuleOptions
}

func (m *Module) Name() string {
	return "core"
}

func (m *Module) Register(app application.Application) error {
	conf := configuration.Use()

	tenantRepo := persistence.NewTenantRepository()
	bindingRepo := persistence.NewDomainBindingRepository()
	membershipRepo := persistence.NewMembershipRepository()
	invitationRepo := persistence.NewInvitationRepository()
	taxonomyRepo := persistence.NewTaxonomyRepository()

	checker := permissions.NewChecker(membershipRepo)

	tenantService := services.NewTenantService(
		tenantRepo,
		bindingRepo,
		membershipRepo,
		m.options.SchemaManager,
		app.EventPublisher(),
		conf,
	)
	membershipService := services.NewMembershipService(
		membershipRepo,
		invitationRepo,
		tenantRepo,
		checker,
		app.EventPublisher(),
	)

	app.RegisterServices(
		tenantService,
		membershipService,
		services.NewTaxonomyService(taxonomyRepo),
		checker,
	)

	app.RegisterControllers(
		controllers.NewHealthController(app),
		controllers.NewTenantsController(app, m.options.SchemaManager, m.options.JobRunner),
		controllers.NewMembersController(app),
		controllers.NewTaxonomiesController(app),
	)
	return nil
}
