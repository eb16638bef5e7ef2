package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/retailcloud/retail-sdk/modules/core/domain/entities/tenant"
	"github.com/retailcloud/retail-sdk/modules/core/infrastructure/persistence"
	"github.com/retailcloud/retail-sdk/modules/core/infrastructure/schema"
	"github.com/retailcloud/retail-sdk/modules/core/services"
	"github.com/retailcloud/retail-sdk/pkg/composables"
	"github.com/retailcloud/retail-sdk/pkg/configuration"
	"github.com/retailcloud/retail-sdk/pkg/eventbus"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "tenantctl",
		Short:         "Operator tool for the tenant registry and schema lifecycle",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newCreateCmd())
	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newMigrateCmd())
	cmd.AddCommand(newBackupCmd())
	cmd.AddCommand(newRestoreCmd())
	cmd.AddCommand(newArchiveCmd())
	cmd.AddCommand(newStatsCmd())
	cmd.AddCommand(newCleanupCmd())
	return cmd
}

func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

// env bundles everything a subcommand needs against a live database. The
// returned context carries the pool for the repository layer.
type env struct {
	ctx      context.Context
	pool     *pgxpool.Pool
	conf     *configuration.Configuration
	registry tenant.Repository
	manager  *schema.Manager
	tenants  *services.TenantService
}

func bootstrap(ctx context.Context) (*env, func(), error) {
	conf := configuration.Use()
	logger := conf.Logger()

	pool, err := pgxpool.New(ctx, conf.Database.ConnectionString())
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}

	registry := persistence.NewTenantRepository()
	manager := schema.NewManager(pool, registry, conf, logger)
	if err := manager.MigrateRegistry(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}

	tenants := services.NewTenantService(
		registry,
		persistence.NewDomainBindingRepository(),
		persistence.NewMembershipRepository(),
		manager,
		eventbus.NewEventPublisher(logger),
		conf,
	)

	return &env{
		ctx:      composables.WithPool(ctx, pool),
		pool:     pool,
		conf:     conf,
		registry: registry,
		manager:  manager,
		tenants:  tenants,
	}, pool.Close, nil
}
